package profile

import (
	"fmt"
	"sync"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/urn"
)

// CompetitorProfile is the cache item for a competitor. Synthetic simple
// teams are cached with this shape as well; their reference bundle always
// carries the canonical internal key.
type CompetitorProfile struct {
	mu sync.RWMutex

	id urn.URN

	names         map[string]string
	countryNames  map[string]string
	abbreviations map[string]string

	isVirtual   *bool
	countryCode string
	gender      string

	manager *ManagerProfile
	venue   *VenueProfile
	jerseys []Jersey
	players []urn.URN

	references map[string]string
	loaded     localeSet
}

// NewCompetitorProfile creates the item from the first transfer object
// fetched for any locale.
func NewCompetitorProfile(id urn.URN, dto *feed.CompetitorDTO, locale string) (*CompetitorProfile, error) {
	c := &CompetitorProfile{
		id:            id,
		names:         make(map[string]string),
		countryNames:  make(map[string]string),
		abbreviations: make(map[string]string),
		references:    make(map[string]string),
		loaded:        make(localeSet),
	}
	if err := c.Merge(dto, locale); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the immutable identity.
func (c *CompetitorProfile) ID() urn.URN { return c.id }

// Kind implements Profile.
func (c *CompetitorProfile) Kind() string { return KindCompetitor }

// Merge folds one locale's competitor summary into the item. The call is
// idempotent per (locale, dto) and all-or-nothing: an identity mismatch is
// rejected before any state changes.
func (c *CompetitorProfile) Merge(dto *feed.CompetitorDTO, locale string) error {
	if err := c.checkIdentity(dto.ID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.applySummaryLocked(dto, locale)
	c.loaded.add(locale)
	return nil
}

// MergeProfile folds one locale's full profile (summary plus nested
// sub-objects and roster) into the item.
func (c *CompetitorProfile) MergeProfile(dto *feed.CompetitorProfileDTO, locale string) error {
	if err := c.checkIdentity(dto.Competitor.ID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.applySummaryLocked(&dto.Competitor, locale)

	// Nested sub-objects: construct on first sight, recursively merge after.
	if dto.Manager != nil {
		if c.manager == nil {
			c.manager = newManagerProfile(dto.Manager, locale)
		} else {
			c.manager.merge(dto.Manager, locale)
		}
	}
	if dto.Venue != nil {
		if c.venue == nil {
			c.venue = newVenueProfile(dto.Venue, locale)
		} else {
			c.venue.merge(dto.Venue, locale)
		}
	}

	// Lists replace wholesale only when the incoming list is non-empty; a
	// low-information response must not destroy previously-known detail.
	if len(dto.Jerseys) > 0 {
		c.jerseys = jerseysFromDTO(dto.Jerseys)
	}
	if len(dto.Players) > 0 {
		players := make([]urn.URN, 0, len(dto.Players))
		for _, p := range dto.Players {
			players = append(players, p.ID)
		}
		c.players = players
	}

	c.loaded.add(locale)
	return nil
}

// checkIdentity rejects transfer objects whose declared identity does not
// match the item; these are logged and discarded by the router and must
// never corrupt the store.
func (c *CompetitorProfile) checkIdentity(incoming urn.URN) error {
	if !incoming.IsZero() && incoming != c.id {
		return errors.WrapInvalid(
			fmt.Errorf("%w: item %s, object %s", errors.ErrMergeConflict, c.id, incoming),
			"CompetitorProfile", "Merge", "identity check")
	}
	return nil
}

// applySummaryLocked applies the locale-independent scalars, the locale-
// indexed attributes and the reference reconciliation. Caller holds c.mu.
func (c *CompetitorProfile) applySummaryLocked(dto *feed.CompetitorDTO, locale string) {
	// Scalars: overwrite only when present, never clear.
	if dto.IsVirtual != nil {
		v := *dto.IsVirtual
		c.isVirtual = &v
	}
	if dto.CountryCode != "" {
		c.countryCode = dto.CountryCode
	}
	if dto.Gender != "" {
		c.gender = dto.Gender
	}

	if dto.Name != "" {
		c.names[locale] = dto.Name
	}
	if dto.CountryName != "" {
		c.countryNames[locale] = dto.CountryName
	}
	if dto.Abbreviation != "" {
		c.abbreviations[locale] = dto.Abbreviation
	} else if dto.Name != "" {
		c.abbreviations[locale] = deriveAbbreviation(dto.Name)
	}

	c.references = ReconcileReferences(c.id, dto.References, c.references)
}

// Name returns the display name for a locale.
func (c *CompetitorProfile) Name(locale string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[locale]
	return name, ok
}

// CountryName returns the country name for a locale.
func (c *CompetitorProfile) CountryName(locale string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	country, ok := c.countryNames[locale]
	return country, ok
}

// Abbreviation returns the abbreviation for a locale.
func (c *CompetitorProfile) Abbreviation(locale string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	abbr, ok := c.abbreviations[locale]
	return abbr, ok
}

// IsVirtual reports the virtual flag; ok is false while no merge has carried
// the flag yet.
func (c *CompetitorProfile) IsVirtual() (virtual, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.isVirtual == nil {
		return false, false
	}
	return *c.isVirtual, true
}

// CountryCode returns the locale-independent country code.
func (c *CompetitorProfile) CountryCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.countryCode
}

// Gender returns the competitor gender.
func (c *CompetitorProfile) Gender() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gender
}

// Manager returns the nested manager sub-object, nil while unknown.
func (c *CompetitorProfile) Manager() *ManagerProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.manager
}

// Venue returns the nested venue sub-object, nil while unknown.
func (c *CompetitorProfile) Venue() *VenueProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.venue
}

// Jerseys returns a copy of the jersey list.
func (c *CompetitorProfile) Jerseys() []Jersey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Jersey, len(c.jerseys))
	copy(out, c.jerseys)
	return out
}

// AssociatedPlayerIDs returns a copy of the associated player roster.
func (c *CompetitorProfile) AssociatedPlayerIDs() []urn.URN {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]urn.URN, len(c.players))
	copy(out, c.players)
	return out
}

// ReferenceIDs returns a copy of the reference-id bundle.
func (c *CompetitorProfile) ReferenceIDs() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneStringMap(c.references)
}

// LoadedLocales implements Profile.
func (c *CompetitorProfile) LoadedLocales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded.sorted()
}

// HasLocale implements Profile.
func (c *CompetitorProfile) HasLocale(locale string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded.has(locale)
}

// MissingLocales returns the subset of requested locales no merge has
// completed for yet, preserving request order.
func (c *CompetitorProfile) MissingLocales(requested []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []string
	for _, locale := range requested {
		if !c.loaded.has(locale) {
			missing = append(missing, locale)
		}
	}
	return missing
}
