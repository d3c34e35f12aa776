package profile

import (
	"strconv"

	"github.com/c360/sportscache/urn"
)

// SystemInternal is the canonical internal reference system. Every synthetic
// simple-team profile carries this key even when the feed supplies no
// reference ids at all.
const SystemInternal = "internal"

// ReconcileReferences merges a map of external cross-reference ids into an
// existing bundle. Incoming values overwrite existing values for the same
// system name; keys present only in the existing bundle are retained. For
// synthetic simple-team identifiers lacking the canonical internal key, the
// key is synthesized from the identifier's own numeric value so the bundle is
// never empty for that type.
func ReconcileReferences(id urn.URN, incoming, existing map[string]string) map[string]string {
	merged := make(map[string]string, len(existing)+len(incoming))
	for system, ref := range existing {
		merged[system] = ref
	}
	for system, ref := range incoming {
		merged[system] = ref
	}

	if id.IsSimpleTeam() {
		if _, ok := merged[SystemInternal]; !ok {
			merged[SystemInternal] = strconv.FormatInt(id.ID, 10)
		}
	}

	return merged
}
