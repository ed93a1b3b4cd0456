package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFPSMeter(t *testing.T) {
	m := NewFPSMeter(time.Second)

	// Eleven frames 100ms apart span exactly one second, which does not yet
	// complete the window.
	var got float64
	for i := 0; i <= 10; i++ {
		got = m.Tick(testStart.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	assert.Zero(t, got)

	got = m.Tick(testStart.Add(1100 * time.Millisecond))
	assert.InDelta(t, 12/1.1, got, 1e-9)

	// The rate holds until the next window completes.
	assert.InDelta(t, 12/1.1, m.Tick(testStart.Add(1200*time.Millisecond)), 1e-9)
}

func TestFPSMeter_DefaultWindow(t *testing.T) {
	m := NewFPSMeter(0)
	assert.Equal(t, time.Second, m.window)

	m.Tick(testStart)
	assert.InDelta(t, 2/1.5, m.Tick(testStart.Add(1500*time.Millisecond)), 1e-9)
}
