package feed

// Kind tags a transfer object with its declared shape. The dispatch router
// switches exhaustively over this closed enumeration; tags outside it are a
// logged no-op.
type Kind int

const (
	// KindUnknown is the zero value and never stored.
	KindUnknown Kind = iota
	// KindCompetitor is a single competitor summary.
	KindCompetitor
	// KindTeamCompetitor is a competitor carrying team-specific fields
	// (qualifier, division), as embedded in sport events.
	KindTeamCompetitor
	// KindPlayer is a single player summary.
	KindPlayer
	// KindCompetitorProfile is a full competitor profile including the
	// associated player roster.
	KindCompetitorProfile
	// KindSimpleTeamProfile is the profile shape for synthetic simple teams.
	KindSimpleTeamProfile
	// KindPlayerProfile is a full player profile.
	KindPlayerProfile
	// KindFixture is a composite sport-event fixture embedding competitors.
	KindFixture
	// KindMatchSummary is a composite match result embedding competitors.
	KindMatchSummary
	// KindStage is a composite stage of a multi-stage event embedding
	// competitors.
	KindStage
	// KindTournamentInfo is a composite tournament description embedding the
	// participating competitors.
	KindTournamentInfo
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindCompetitor:        "competitor",
	KindTeamCompetitor:    "team_competitor",
	KindPlayer:            "player",
	KindCompetitorProfile: "competitor_profile",
	KindSimpleTeamProfile: "simple_team_profile",
	KindPlayerProfile:     "player_profile",
	KindFixture:           "fixture",
	KindMatchSummary:      "match_summary",
	KindStage:             "stage",
	KindTournamentInfo:    "tournament_info",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindFromString maps a wire name back to its Kind. Unrecognized names map
// to KindUnknown so the router can treat them as a non-fatal no-op.
func KindFromString(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// IsComposite reports whether objects of this kind embed sub-entities and
// are never stored as cache items themselves.
func (k Kind) IsComposite() bool {
	switch k {
	case KindFixture, KindMatchSummary, KindStage, KindTournamentInfo:
		return true
	default:
		return false
	}
}
