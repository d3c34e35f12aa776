// Package urn implements structured sports-entity identifiers.
//
// A URN has the canonical string form "prefix:type:id", for example
// "sr:competitor:44" or "sr:player:101". The type tag identifies the entity
// kind; some tags denote synthetic entities (simple teams) that have no
// independent backing record at the remote feed and exist only through their
// generated identifier.
package urn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/sportscache/errors"
)

// Well-known type tags.
const (
	TypeCompetitor = "competitor"
	TypePlayer     = "player"
	TypeSimpleTeam = "simple_team"
	TypeSport      = "sport"
	TypeMatch      = "match"
	TypeVenue      = "venue"
)

// DefaultPrefix is the namespace used by the feed for all entity identifiers.
const DefaultPrefix = "sr"

// URN is a structured entity identifier with a namespace prefix, a type tag
// and a numeric value. The zero value is not a valid URN.
type URN struct {
	Prefix string
	Type   string
	ID     int64
}

// New constructs a URN from its parts.
func New(prefix, entityType string, id int64) URN {
	return URN{Prefix: prefix, Type: entityType, ID: id}
}

// Parse parses the canonical "prefix:type:id" form.
func Parse(s string) (URN, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return URN{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrInvalidURN, s), "urn", "Parse", "split")
	}

	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return URN{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q: %v", errors.ErrInvalidURN, s, err), "urn", "Parse", "numeric value")
	}

	return URN{Prefix: parts[0], Type: parts[1], ID: id}, nil
}

// MustParse parses s and panics on malformed input. Intended for tests and
// compile-time-known identifiers.
func MustParse(s string) URN {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String returns the canonical "prefix:type:id" form.
func (u URN) String() string {
	return u.Prefix + ":" + u.Type + ":" + strconv.FormatInt(u.ID, 10)
}

// IsZero reports whether u is the zero URN.
func (u URN) IsZero() bool {
	return u == URN{}
}

// IsSimpleTeam reports whether the identifier denotes a synthetic simple-team
// entity. Both the "simple_team" and legacy "simpleteam" tags are recognized.
func (u URN) IsSimpleTeam() bool {
	return u.Type == TypeSimpleTeam || u.Type == "simpleteam"
}

// IsCompetitor reports whether the identifier denotes a competitor-shaped
// entity (including synthetic simple teams, which are cached as competitors).
func (u URN) IsCompetitor() bool {
	return u.Type == TypeCompetitor || u.IsSimpleTeam()
}

// IsPlayer reports whether the identifier denotes a player.
func (u URN) IsPlayer() bool {
	return u.Type == TypePlayer
}

// MarshalText implements encoding.TextMarshaler so URNs serialize as their
// canonical string inside JSON envelopes.
func (u URN) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *URN) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
