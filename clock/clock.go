// Package clock provides the injectable time source the submission layer
// and ticker use, matching the wallet kernel's external clock interface:
// now() plus a way to read the timestamp of a resolved block.
package clock

import (
	"sync"
	"time"

	"github.com/decred/walletkernel/types"
)

// Clock returns the current time. Implementations must be monotonic enough
// for backoff scheduling; wall-clock adjustments should not rewind Now.
type Clock interface {
	Now() time.Time
}

// Real is a Clock backed by time.Now.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// BlockTimestampOf returns the timestamp recorded in a resolved block's
// metadata.
func BlockTimestampOf(b types.ResolvedBlock) time.Time { return b.Meta.Timestamp }

// Manual is a Clock for tests: Now returns whatever was last set with
// Advance or Set, never the wall clock.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a Manual clock starting at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now returns the manually-controlled current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set pins the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
