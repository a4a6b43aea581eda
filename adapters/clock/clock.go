// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/artpar/contentgate/ports"
)

// Func adapts a plain function to ports.Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time { return f() }

// System reads the wall clock in UTC.
var System ports.Clock = Func(func() time.Time { return time.Now().UTC() })

// Stepper is a deterministic clock for tests. Each Now call returns the
// current instant and then moves it forward by the step.
type Stepper struct {
	mu   sync.Mutex
	at   time.Time
	step time.Duration
}

// NewStepper creates a stepping clock starting at start.
// A zero step freezes the clock.
func NewStepper(start time.Time, step time.Duration) *Stepper {
	return &Stepper{at: start, step: step}
}

// Now returns the current instant and advances the clock.
func (s *Stepper) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.at
	s.at = s.at.Add(s.step)
	return t
}
