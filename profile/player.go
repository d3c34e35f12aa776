package profile

import (
	"fmt"
	"sync"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/urn"
)

// PlayerProfile is the cache item for a player.
type PlayerProfile struct {
	mu sync.RWMutex

	id urn.URN

	names         map[string]string
	nationalities map[string]string
	abbreviations map[string]string

	playerType   string
	dateOfBirth  string
	height       int
	weight       int
	jerseyNumber *int
	gender       string

	references map[string]string
	loaded     localeSet
}

// NewPlayerProfile creates the item from the first transfer object fetched
// for any locale.
func NewPlayerProfile(id urn.URN, dto *feed.PlayerDTO, locale string) (*PlayerProfile, error) {
	p := &PlayerProfile{
		id:            id,
		names:         make(map[string]string),
		nationalities: make(map[string]string),
		abbreviations: make(map[string]string),
		references:    make(map[string]string),
		loaded:        make(localeSet),
	}
	if err := p.Merge(dto, locale); err != nil {
		return nil, err
	}
	return p, nil
}

// ID returns the immutable identity.
func (p *PlayerProfile) ID() urn.URN { return p.id }

// Kind implements Profile.
func (p *PlayerProfile) Kind() string { return KindPlayer }

// Merge folds one locale's player data into the item. Idempotent per
// (locale, dto); an identity mismatch is rejected before any state changes.
func (p *PlayerProfile) Merge(dto *feed.PlayerDTO, locale string) error {
	if !dto.ID.IsZero() && dto.ID != p.id {
		return errors.WrapInvalid(
			fmt.Errorf("%w: item %s, object %s", errors.ErrMergeConflict, p.id, dto.ID),
			"PlayerProfile", "Merge", "identity check")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Scalars: overwrite only when present, never clear.
	if dto.Type != "" {
		p.playerType = dto.Type
	}
	if dto.DateOfBirth != "" {
		p.dateOfBirth = dto.DateOfBirth
	}
	if dto.Height > 0 {
		p.height = dto.Height
	}
	if dto.Weight > 0 {
		p.weight = dto.Weight
	}
	if dto.JerseyNumber != nil {
		n := *dto.JerseyNumber
		p.jerseyNumber = &n
	}
	if dto.Gender != "" {
		p.gender = dto.Gender
	}

	if dto.Name != "" {
		p.names[locale] = dto.Name
	}
	if dto.Nationality != "" {
		p.nationalities[locale] = dto.Nationality
	}
	if dto.Abbreviation != "" {
		p.abbreviations[locale] = dto.Abbreviation
	} else if dto.Name != "" {
		p.abbreviations[locale] = deriveAbbreviation(dto.Name)
	}

	p.references = ReconcileReferences(p.id, dto.References, p.references)

	p.loaded.add(locale)
	return nil
}

// Name returns the display name for a locale.
func (p *PlayerProfile) Name(locale string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	name, ok := p.names[locale]
	return name, ok
}

// Nationality returns the nationality for a locale.
func (p *PlayerProfile) Nationality(locale string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	nat, ok := p.nationalities[locale]
	return nat, ok
}

// Abbreviation returns the abbreviation for a locale.
func (p *PlayerProfile) Abbreviation(locale string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	abbr, ok := p.abbreviations[locale]
	return abbr, ok
}

// Type returns the player type (e.g. "forward"), empty while unknown.
func (p *PlayerProfile) Type() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playerType
}

// DateOfBirth returns the date of birth as supplied by the feed.
func (p *PlayerProfile) DateOfBirth() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dateOfBirth
}

// Height returns the player height in centimeters, zero while unknown.
func (p *PlayerProfile) Height() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.height
}

// Weight returns the player weight in kilograms, zero while unknown.
func (p *PlayerProfile) Weight() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.weight
}

// JerseyNumber returns the jersey number; ok is false while unknown.
func (p *PlayerProfile) JerseyNumber() (number int, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.jerseyNumber == nil {
		return 0, false
	}
	return *p.jerseyNumber, true
}

// Gender returns the player gender.
func (p *PlayerProfile) Gender() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.gender
}

// ReferenceIDs returns a copy of the reference-id bundle.
func (p *PlayerProfile) ReferenceIDs() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneStringMap(p.references)
}

// LoadedLocales implements Profile.
func (p *PlayerProfile) LoadedLocales() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded.sorted()
}

// HasLocale implements Profile.
func (p *PlayerProfile) HasLocale(locale string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded.has(locale)
}

// MissingLocales returns the subset of requested locales no merge has
// completed for yet, preserving request order.
func (p *PlayerProfile) MissingLocales(requested []string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var missing []string
	for _, locale := range requested {
		if !p.loaded.has(locale) {
			missing = append(missing, locale)
		}
	}
	return missing
}
