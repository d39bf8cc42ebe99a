package clock

import "time"

// Clock is the millisecond timer service used to pace the control loop.
//
// ElapsedMS wraps around after ~49 days; use Since to compare readings.
// Delay blocks, so it must only be used before the control loop starts.
type Clock interface {
	ElapsedMS() uint32
	Delay(d time.Duration)
}

// Since returns the milliseconds from start to now, tolerating one wrap of the
// 32-bit counter.
func Since(now, start uint32) uint32 {
	return now - start
}

// System is a Clock backed by the host's monotonic clock.
type System struct {
	start time.Time
}

func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) ElapsedMS() uint32 {
	return uint32(time.Since(s.start) / time.Millisecond)
}

func (s *System) Delay(d time.Duration) {
	time.Sleep(d)
}

var _ Clock = (*System)(nil)

// Manual is a Clock that only moves when told to.  Delay advances it instead
// of sleeping.
type Manual struct {
	Now uint32
}

func (m *Manual) ElapsedMS() uint32 {
	return m.Now
}

func (m *Manual) Delay(d time.Duration) {
	m.Advance(d)
}

func (m *Manual) Advance(d time.Duration) {
	m.Now += uint32(d / time.Millisecond)
}

var _ Clock = (*Manual)(nil)
