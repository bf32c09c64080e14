package activities

import "fmt"

// Counter bounds the number of nested remote lookups performed while
// processing a single activity. The dispatcher owns one Counter per
// inbound message and passes it through Verify and Receive; it is never
// shared across concurrently processed activities.
type Counter struct {
	used  int
	limit int
}

// NewCounter returns a counter allowing at most limit remote lookups
func NewCounter(limit int) *Counter {
	return &Counter{limit: limit}
}

// Incr consumes one lookup unit and fails once the bound is exceeded
func (c *Counter) Incr() error {
	c.used++
	if c.used > c.limit {
		return fmt.Errorf("%w: %d lookups, limit %d", ErrRecursionLimit, c.used, c.limit)
	}
	return nil
}

// Used returns the number of lookup units consumed so far
func (c *Counter) Used() int {
	return c.used
}
