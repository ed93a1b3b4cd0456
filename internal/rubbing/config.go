package rubbing

import "time"

// Default decision thresholds.
const (
	DefaultEyeRubThreshold            = 0.15
	DefaultDepthThreshold             = 0.05
	DefaultMotionThreshold            = 0.01
	DefaultConsecutiveFramesThreshold = 3
	DefaultMaxHistoryFrames           = 5
	DefaultAlertCooldown              = 5 * time.Second
)

// Config holds the thresholds of the decision engine. It is read-only once
// handed to New.
type Config struct {
	// EyeRubThreshold is the maximum fingertip to eye distance, as a fraction
	// of the frame width, that counts as near.
	EyeRubThreshold float64

	// DepthThreshold is the maximum depth difference between fingertip and eye
	// that counts as near.
	DepthThreshold float64

	// MotionThreshold is the minimum mean per-frame fingertip displacement, as
	// a fraction of the frame width, that counts as moving.
	MotionThreshold float64

	// ConsecutiveFramesThreshold is how many rubbing frames in a row are
	// needed before an alert is attempted.
	ConsecutiveFramesThreshold int

	// MaxHistoryFrames is the sliding window size for velocity smoothing.
	MaxHistoryFrames int

	// AlertCooldown is the minimum spacing between fired alerts.
	AlertCooldown time.Duration
}

// DefaultConfig returns a Config with the default thresholds.
func DefaultConfig() Config {
	return Config{
		EyeRubThreshold:            DefaultEyeRubThreshold,
		DepthThreshold:             DefaultDepthThreshold,
		MotionThreshold:            DefaultMotionThreshold,
		ConsecutiveFramesThreshold: DefaultConsecutiveFramesThreshold,
		MaxHistoryFrames:           DefaultMaxHistoryFrames,
		AlertCooldown:              DefaultAlertCooldown,
	}
}

// withDefaults replaces every non-positive field with its default. A zero
// cooldown is kept: it means alerts may fire on every qualifying frame.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.EyeRubThreshold <= 0 {
		c.EyeRubThreshold = d.EyeRubThreshold
	}
	if c.DepthThreshold <= 0 {
		c.DepthThreshold = d.DepthThreshold
	}
	if c.MotionThreshold <= 0 {
		c.MotionThreshold = d.MotionThreshold
	}
	if c.ConsecutiveFramesThreshold <= 0 {
		c.ConsecutiveFramesThreshold = d.ConsecutiveFramesThreshold
	}
	if c.MaxHistoryFrames <= 0 {
		c.MaxHistoryFrames = d.MaxHistoryFrames
	}
	if c.AlertCooldown < 0 {
		c.AlertCooldown = d.AlertCooldown
	}
	return c
}
