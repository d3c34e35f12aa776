package cache

// flightKey identifies one outstanding fetch: exactly one flight may exist
// per (entity, locale) pair at a time.
type flightKey struct {
	key    string
	locale string
}

// flight is an in-progress fetch-and-merge for one (entity, locale). The
// owning caller performs the fetch and closes done; overlapping callers wait
// on done and adopt err instead of fetching themselves.
type flight struct {
	locale string
	done   chan struct{}
	err    error
}

func newFlight(locale string) *flight {
	return &flight{locale: locale, done: make(chan struct{})}
}

// complete records the outcome and releases every waiter. Must be called
// exactly once, by the owner.
func (f *flight) complete(err error) {
	f.err = err
	close(f.done)
}
