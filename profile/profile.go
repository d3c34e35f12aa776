package profile

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/c360/sportscache/urn"
)

// Profile is the capability shared by all cache items.
type Profile interface {
	// ID returns the immutable identity of the item.
	ID() urn.URN
	// Kind returns the storage kind name used for by-kind counts
	// ("competitor", "team_competitor", "player").
	Kind() string
	// LoadedLocales returns the sorted set of locales for which a merge has
	// completed.
	LoadedLocales() []string
	// HasLocale reports whether a merge for the locale has completed. A
	// locale outside the set must not be assumed complete even when a
	// legacy value exists for a locale-independent field.
	HasLocale(locale string) bool
}

// Storage kind names.
const (
	KindCompetitor     = "competitor"
	KindTeamCompetitor = "team_competitor"
	KindPlayer         = "player"
)

// deriveAbbreviation returns the deterministic fallback abbreviation for a
// display name: the uppercased first three runes (the whole name when
// shorter). The rule is stable across merges so repeated derivation for the
// same name yields the same value.
func deriveAbbreviation(name string) string {
	if name == "" {
		return ""
	}
	if utf8.RuneCountInString(name) <= 3 {
		return strings.ToUpper(name)
	}
	runes := []rune(name)
	return strings.ToUpper(string(runes[:3]))
}

// localeSet tracks loaded locales. Not safe for concurrent use on its own;
// the owning profile's lock guards it.
type localeSet map[string]struct{}

func (s localeSet) add(locale string)      { s[locale] = struct{}{} }
func (s localeSet) has(locale string) bool { _, ok := s[locale]; return ok }

func (s localeSet) sorted() []string {
	out := make([]string, 0, len(s))
	for locale := range s {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

func (s localeSet) clone() localeSet {
	out := make(localeSet, len(s))
	for locale := range s {
		out[locale] = struct{}{}
	}
	return out
}

// cloneStringMap copies a locale-indexed attribute map.
func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
