package profile

import (
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/urn"
)

// TeamCompetitorProfile is a competitor carrying the extra team fields that
// only appear when the competitor is embedded in a sport event. A plain
// CompetitorProfile is promoted to this shape in place when a team-specific
// transfer object arrives for its key.
type TeamCompetitorProfile struct {
	CompetitorProfile

	// Guarded by the embedded profile's mutex.
	qualifier string
	division  *int
}

// NewTeamCompetitorProfile creates the item from the first team-shaped
// transfer object fetched for any locale.
func NewTeamCompetitorProfile(id urn.URN, dto *feed.TeamCompetitorDTO, locale string) (*TeamCompetitorProfile, error) {
	t := &TeamCompetitorProfile{
		CompetitorProfile: CompetitorProfile{
			id:            id,
			names:         make(map[string]string),
			countryNames:  make(map[string]string),
			abbreviations: make(map[string]string),
			references:    make(map[string]string),
			loaded:        make(localeSet),
		},
	}
	if err := t.MergeTeam(dto, locale); err != nil {
		return nil, err
	}
	return t, nil
}

// PromoteToTeam constructs the team-shaped variant from an existing plain
// competitor, preserving every previously merged field. The base item is
// discarded by the caller afterwards; callers must hold the key's merge lock
// so no concurrent merge targets the base mid-promotion.
func PromoteToTeam(base *CompetitorProfile) *TeamCompetitorProfile {
	base.mu.Lock()
	defer base.mu.Unlock()

	t := &TeamCompetitorProfile{
		CompetitorProfile: CompetitorProfile{
			id:            base.id,
			names:         cloneStringMap(base.names),
			countryNames:  cloneStringMap(base.countryNames),
			abbreviations: cloneStringMap(base.abbreviations),
			isVirtual:     base.isVirtual,
			countryCode:   base.countryCode,
			gender:        base.gender,
			manager:       base.manager,
			venue:         base.venue,
			references:    cloneStringMap(base.references),
			loaded:        base.loaded.clone(),
		},
	}
	t.jerseys = make([]Jersey, len(base.jerseys))
	copy(t.jerseys, base.jerseys)
	t.players = make([]urn.URN, len(base.players))
	copy(t.players, base.players)
	return t
}

// Kind implements Profile.
func (t *TeamCompetitorProfile) Kind() string { return KindTeamCompetitor }

// MergeTeam folds one locale's team-shaped transfer object into the item:
// the competitor summary via the shared protocol plus the team-only fields.
func (t *TeamCompetitorProfile) MergeTeam(dto *feed.TeamCompetitorDTO, locale string) error {
	if err := t.checkIdentity(dto.ID); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.applySummaryLocked(&dto.CompetitorDTO, locale)

	if dto.Qualifier != "" {
		t.qualifier = dto.Qualifier
	}
	if dto.Division != nil {
		d := *dto.Division
		t.division = &d
	}

	t.loaded.add(locale)
	return nil
}

// Qualifier returns the event qualifier ("home"/"away"), empty while unknown.
func (t *TeamCompetitorProfile) Qualifier() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.qualifier
}

// Division returns the division; ok is false while unknown.
func (t *TeamCompetitorProfile) Division() (division int, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.division == nil {
		return 0, false
	}
	return *t.division, true
}
