package shared

import "time"

// Clock supplies wall time to the runner so step durations can be faked in tests
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock reads the system clock
type RealClock struct{}

// NewRealClock creates a RealClock instance
func NewRealClock() Clock {
	return &RealClock{}
}

func (r *RealClock) Now() time.Time {
	return time.Now().UTC()
}

func (r *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a controllable clock. Every call to Now advances it by Step.
type MockClock struct {
	CurrentTime time.Time
	Step        time.Duration
}

// NewMockClock creates a MockClock starting at startTime that advances step per reading
func NewMockClock(startTime time.Time, step time.Duration) *MockClock {
	return &MockClock{CurrentTime: startTime, Step: step}
}

func (m *MockClock) Now() time.Time {
	now := m.CurrentTime
	m.CurrentTime = m.CurrentTime.Add(m.Step)
	return now
}

func (m *MockClock) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// Advance moves the clock forward without a reading
func (m *MockClock) Advance(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
}
