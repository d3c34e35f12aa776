package feed

import (
	"github.com/c360/sportscache/urn"
)

// CompetitorDTO is the transfer shape for a single competitor in one locale.
// Locale-dependent display attributes (Name, CountryName, Abbreviation) carry
// values for exactly the locale of the fetch that produced the object.
type CompetitorDTO struct {
	ID           urn.URN           `json:"id"`
	Name         string            `json:"name"`
	CountryName  string            `json:"country_name,omitempty"`
	Abbreviation string            `json:"abbreviation,omitempty"`
	CountryCode  string            `json:"country_code,omitempty"`
	Gender       string            `json:"gender,omitempty"`
	IsVirtual    *bool             `json:"is_virtual,omitempty"`
	References   map[string]string `json:"reference_ids,omitempty"`
}

// TeamCompetitorDTO extends CompetitorDTO with fields only present when the
// competitor is embedded in a sport event as a team.
type TeamCompetitorDTO struct {
	CompetitorDTO
	Qualifier string `json:"qualifier,omitempty"` // "home" or "away"
	Division  *int   `json:"division,omitempty"`
}

// PlayerDTO is the transfer shape for a single player in one locale.
type PlayerDTO struct {
	ID           urn.URN           `json:"id"`
	Name         string            `json:"name"`
	Nationality  string            `json:"nationality,omitempty"`
	Abbreviation string            `json:"abbreviation,omitempty"`
	Type         string            `json:"type,omitempty"`
	DateOfBirth  string            `json:"date_of_birth,omitempty"`
	Height       int               `json:"height,omitempty"`
	Weight       int               `json:"weight,omitempty"`
	JerseyNumber *int              `json:"jersey_number,omitempty"`
	Gender       string            `json:"gender,omitempty"`
	References   map[string]string `json:"reference_ids,omitempty"`
}

// ManagerDTO is the nested manager sub-object of a competitor profile.
type ManagerDTO struct {
	ID          urn.URN `json:"id"`
	Name        string  `json:"name"`
	Nationality string  `json:"nationality,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
}

// VenueDTO is the nested venue sub-object of a competitor profile.
type VenueDTO struct {
	ID          urn.URN `json:"id"`
	Name        string  `json:"name"`
	CityName    string  `json:"city_name,omitempty"`
	CountryName string  `json:"country_name,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Capacity    int     `json:"capacity,omitempty"`
}

// JerseyDTO describes one jersey of a competitor. Jerseys carry no
// locale-dependent attributes.
type JerseyDTO struct {
	Type          string `json:"type"`
	BaseColor     string `json:"base_color,omitempty"`
	Number        string `json:"number,omitempty"`
	SleeveColor   string `json:"sleeve_color,omitempty"`
	HorizontalStr bool   `json:"horizontal_stripes,omitempty"`
}

// CompetitorProfileDTO is the full competitor profile: the competitor summary
// plus its nested sub-objects and associated player roster.
type CompetitorProfileDTO struct {
	Competitor CompetitorDTO `json:"competitor"`
	Manager    *ManagerDTO   `json:"manager,omitempty"`
	Venue      *VenueDTO     `json:"venue,omitempty"`
	Jerseys    []JerseyDTO   `json:"jerseys,omitempty"`
	Players    []PlayerDTO   `json:"players,omitempty"`
}

// SimpleTeamProfileDTO is the profile shape returned for synthetic simple
// teams. Its competitor typically has no reference ids; the cache synthesizes
// the canonical internal reference from the identifier.
type SimpleTeamProfileDTO struct {
	Competitor CompetitorDTO `json:"competitor"`
	Players    []PlayerDTO   `json:"players,omitempty"`
}

// FixtureDTO is a composite sport-event fixture. It is never stored as a
// cache item; only the embedded competitors are extracted and routed.
type FixtureDTO struct {
	ID          urn.URN             `json:"id"`
	Competitors []TeamCompetitorDTO `json:"competitors,omitempty"`
	Venue       *VenueDTO           `json:"venue,omitempty"`
}

// MatchSummaryDTO is a composite match result embedding competitors.
type MatchSummaryDTO struct {
	ID          urn.URN             `json:"id"`
	Competitors []TeamCompetitorDTO `json:"competitors,omitempty"`
}

// StageDTO is a composite stage of a multi-stage event (a rally leg, a cup
// round) embedding competitors.
type StageDTO struct {
	ID          urn.URN             `json:"id"`
	Description string              `json:"description,omitempty"`
	Competitors []TeamCompetitorDTO `json:"competitors,omitempty"`
}

// TournamentInfoDTO is a composite tournament description embedding the
// participating competitors.
type TournamentInfoDTO struct {
	ID          urn.URN             `json:"id"`
	Name        string              `json:"name,omitempty"`
	Competitors []TeamCompetitorDTO `json:"competitors,omitempty"`
}

// CategoryDTO is one category of a sport, as returned by the category
// sub-collection lookup.
type CategoryDTO struct {
	ID          urn.URN `json:"id"`
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code,omitempty"`
}

// ProfileDTO is the envelope a fetch returns: exactly one of the payload
// fields is set, matching Kind.
type ProfileDTO struct {
	Kind              Kind                  `json:"-"`
	Competitor        *CompetitorDTO        `json:"competitor,omitempty"`
	TeamCompetitor    *TeamCompetitorDTO    `json:"team_competitor,omitempty"`
	Player            *PlayerDTO            `json:"player,omitempty"`
	CompetitorProfile *CompetitorProfileDTO `json:"competitor_profile,omitempty"`
	SimpleTeamProfile *SimpleTeamProfileDTO `json:"simple_team_profile,omitempty"`
	PlayerProfile     *PlayerDTO            `json:"player_profile,omitempty"`
	Fixture           *FixtureDTO           `json:"fixture,omitempty"`
	MatchSummary      *MatchSummaryDTO      `json:"match_summary,omitempty"`
	Stage             *StageDTO             `json:"stage,omitempty"`
	TournamentInfo    *TournamentInfoDTO    `json:"tournament_info,omitempty"`
}

// Payload returns the populated transfer object for the envelope's kind, or
// nil when the envelope is empty or inconsistent.
func (p *ProfileDTO) Payload() any {
	switch p.Kind {
	case KindCompetitor:
		if p.Competitor == nil {
			return nil
		}
		return p.Competitor
	case KindTeamCompetitor:
		if p.TeamCompetitor == nil {
			return nil
		}
		return p.TeamCompetitor
	case KindPlayer:
		if p.Player == nil {
			return nil
		}
		return p.Player
	case KindCompetitorProfile:
		if p.CompetitorProfile == nil {
			return nil
		}
		return p.CompetitorProfile
	case KindSimpleTeamProfile:
		if p.SimpleTeamProfile == nil {
			return nil
		}
		return p.SimpleTeamProfile
	case KindPlayerProfile:
		if p.PlayerProfile == nil {
			return nil
		}
		return p.PlayerProfile
	case KindFixture:
		if p.Fixture == nil {
			return nil
		}
		return p.Fixture
	case KindMatchSummary:
		if p.MatchSummary == nil {
			return nil
		}
		return p.MatchSummary
	case KindStage:
		if p.Stage == nil {
			return nil
		}
		return p.Stage
	case KindTournamentInfo:
		if p.TournamentInfo == nil {
			return nil
		}
		return p.TournamentInfo
	default:
		return nil
	}
}
