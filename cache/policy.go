package cache

import (
	"fmt"

	"github.com/c360/sportscache/errors"
)

// FailurePolicy controls how fetch failures during a fan-out propagate.
type FailurePolicy int

const (
	// FailureSurface aborts the whole ensure call once all outstanding
	// fetches drain, re-raising the first encountered error.
	FailureSurface FailurePolicy = iota
	// FailureSuppress logs fetch failures and treats the locale as still
	// missing; the call returns the best-effort merged item.
	FailureSuppress
)

// String returns the config name of the policy.
func (p FailurePolicy) String() string {
	switch p {
	case FailureSurface:
		return "surface"
	case FailureSuppress:
		return "suppress"
	default:
		return "unknown"
	}
}

// ParseFailurePolicy maps a config name to its policy.
func ParseFailurePolicy(name string) (FailurePolicy, error) {
	switch name {
	case "surface", "":
		return FailureSurface, nil
	case "suppress":
		return FailureSuppress, nil
	default:
		return FailureSurface, errors.WrapInvalid(
			fmt.Errorf("%w: failure policy %q", errors.ErrInvalidConfig, name),
			"cache", "ParseFailurePolicy", "unknown policy name")
	}
}
