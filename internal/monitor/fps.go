package monitor

import "time"

// FPSMeter measures the processing rate over fixed windows. The rate is
// recomputed each time a window has elapsed and held until the next one.
type FPSMeter struct {
	window  time.Duration
	start   time.Time
	frames  int
	fps     float64
	started bool
}

// NewFPSMeter creates a meter; a non-positive window means one second.
func NewFPSMeter(window time.Duration) *FPSMeter {
	if window <= 0 {
		window = time.Second
	}
	return &FPSMeter{window: window}
}

// Tick counts a frame processed at now and returns the current rate.
func (m *FPSMeter) Tick(now time.Time) float64 {
	if !m.started {
		m.start = now
		m.started = true
	}
	m.frames++

	if elapsed := now.Sub(m.start); elapsed > m.window {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = now
	}
	return m.fps
}
