package profile

import (
	"sync"

	"github.com/c360/sportscache/feed"
	"github.com/c360/sportscache/urn"
)

// ManagerProfile is the nested manager sub-object of a competitor. It merges
// with the same protocol as its parent, one level down.
type ManagerProfile struct {
	mu sync.RWMutex

	id            urn.URN
	names         map[string]string
	nationalities map[string]string
	countryCode   string
}

func newManagerProfile(dto *feed.ManagerDTO, locale string) *ManagerProfile {
	m := &ManagerProfile{
		id:            dto.ID,
		names:         make(map[string]string),
		nationalities: make(map[string]string),
	}
	m.merge(dto, locale)
	return m
}

func (m *ManagerProfile) merge(dto *feed.ManagerDTO, locale string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dto.Name != "" {
		m.names[locale] = dto.Name
	}
	if dto.Nationality != "" {
		m.nationalities[locale] = dto.Nationality
	}
	if dto.CountryCode != "" {
		m.countryCode = dto.CountryCode
	}
}

// ID returns the manager identity.
func (m *ManagerProfile) ID() urn.URN { return m.id }

// Name returns the manager's display name for a locale.
func (m *ManagerProfile) Name(locale string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[locale]
	return name, ok
}

// Nationality returns the manager's nationality for a locale.
func (m *ManagerProfile) Nationality(locale string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	nat, ok := m.nationalities[locale]
	return nat, ok
}

// CountryCode returns the locale-independent country code.
func (m *ManagerProfile) CountryCode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.countryCode
}

// VenueProfile is the nested venue sub-object of a competitor.
type VenueProfile struct {
	mu sync.RWMutex

	id           urn.URN
	names        map[string]string
	cityNames    map[string]string
	countryNames map[string]string
	countryCode  string
	capacity     int
}

func newVenueProfile(dto *feed.VenueDTO, locale string) *VenueProfile {
	v := &VenueProfile{
		id:           dto.ID,
		names:        make(map[string]string),
		cityNames:    make(map[string]string),
		countryNames: make(map[string]string),
	}
	v.merge(dto, locale)
	return v
}

func (v *VenueProfile) merge(dto *feed.VenueDTO, locale string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if dto.Name != "" {
		v.names[locale] = dto.Name
	}
	if dto.CityName != "" {
		v.cityNames[locale] = dto.CityName
	}
	if dto.CountryName != "" {
		v.countryNames[locale] = dto.CountryName
	}
	if dto.CountryCode != "" {
		v.countryCode = dto.CountryCode
	}
	if dto.Capacity > 0 {
		v.capacity = dto.Capacity
	}
}

// ID returns the venue identity.
func (v *VenueProfile) ID() urn.URN { return v.id }

// Name returns the venue's display name for a locale.
func (v *VenueProfile) Name(locale string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	name, ok := v.names[locale]
	return name, ok
}

// CityName returns the venue's city name for a locale.
func (v *VenueProfile) CityName(locale string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	city, ok := v.cityNames[locale]
	return city, ok
}

// CountryName returns the venue's country name for a locale.
func (v *VenueProfile) CountryName(locale string) (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	country, ok := v.countryNames[locale]
	return country, ok
}

// CountryCode returns the locale-independent country code.
func (v *VenueProfile) CountryCode() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.countryCode
}

// Capacity returns the venue capacity, zero when unknown.
func (v *VenueProfile) Capacity() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.capacity
}

// Jersey is one jersey of a competitor. Jerseys carry no locale-dependent
// attributes and are replaced wholesale by merges.
type Jersey struct {
	Type              string
	BaseColor         string
	Number            string
	SleeveColor       string
	HorizontalStripes bool
}

func jerseysFromDTO(dtos []feed.JerseyDTO) []Jersey {
	out := make([]Jersey, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, Jersey{
			Type:              d.Type,
			BaseColor:         d.BaseColor,
			Number:            d.Number,
			SleeveColor:       d.SleeveColor,
			HorizontalStripes: d.HorizontalStr,
		})
	}
	return out
}
