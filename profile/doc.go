// Package profile implements the long-lived cache items for sports entities:
// competitors, team competitors, players and their nested sub-objects. Each
// item is created from the first transfer object fetched for any locale and
// thereafter only mutated through its merge operation, which folds one
// locale's freshly fetched data into the item without discarding previously
// merged locales.
//
// Merge rules, applied per call:
//
//   - Locale-independent scalars (virtual flag, country code, gender) are
//     overwritten only when the incoming value is present; an absent incoming
//     value never clears a previously set scalar.
//   - Locale-indexed attributes (name, country name, abbreviation) are set
//     for the call's locale. A missing abbreviation is derived from the name.
//   - Reference ids are reconciled key-wise; synthetic simple teams always
//     end up with the canonical internal reference.
//   - List-valued associations (jerseys, associated players) are replaced
//     wholesale only by a non-empty incoming list.
//   - Nested sub-objects (manager, venue) are constructed on first sight and
//     recursively merged afterwards.
//   - The locale joins the loaded set only when the whole merge succeeded.
//
// Items are safe for concurrent use; the cache layer additionally serializes
// merges of the same key so promotion and concurrent locale merges cannot
// interleave.
package profile
