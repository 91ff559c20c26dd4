package testutil

import "sync"

// TimeSource hands out trusted time points for tests.
//
// Each call to Next advances by a fixed step, so a sequence of transitions
// built from one TimeSource always presents non-decreasing time. Reset
// rewinds to the starting point for test reuse.
//
// Thread-safety: all methods are safe for concurrent use.
type TimeSource struct {
	mu    sync.Mutex
	start uint64
	step  uint64
	now   uint64
}

// NewTimeSource creates a source positioned at start.
// The first call to Next returns start+step.
func NewTimeSource(start, step uint64) *TimeSource {
	return &TimeSource{start: start, step: step, now: start}
}

// Next advances the source and returns the new time point.
func (s *TimeSource) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += s.step
	return s.now
}

// Current returns the current time point without advancing.
func (s *TimeSource) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the source forward by d and returns the new time point.
func (s *TimeSource) Advance(d uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += d
	return s.now
}

// Reset rewinds the source to its starting point.
func (s *TimeSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.start
}
