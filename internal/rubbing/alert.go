package rubbing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AlertEvent is emitted once per fired alert.
type AlertEvent struct {
	ID                string    `json:"id"`
	Time              time.Time `json:"time"`
	ConsecutiveFrames int       `json:"consecutive_frames"`
	Eye               Eye       `json:"eye,omitempty"`
	Hand              string    `json:"hand,omitempty"`
}

// AlertDispatcher delivers alert events. Implementations own every delivery
// concern (sound, overlay, logging, persistence) and report failures through
// the returned error, which the engine never inspects.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, ev AlertEvent) error
}

// DispatcherFunc adapts a function to AlertDispatcher.
type DispatcherFunc func(ctx context.Context, ev AlertEvent) error

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(ctx context.Context, ev AlertEvent) error {
	return f(ctx, ev)
}

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, AlertEvent) error { return nil }

// Observe advances the alert state machine with one frame's rubbing signal.
//
// A rubbing frame extends the run of consecutive frames, any other frame ends
// it. Once the run reaches ConsecutiveFramesThreshold every further frame
// attempts an alert, which fires only when no alert has fired yet or at least
// AlertCooldown has passed since the last one. Attempts never reset the run,
// so uninterrupted rubbing re-alerts once per cooldown.
func (e *Engine) Observe(st *State, rubbing bool, now time.Time) (AlertEvent, bool) {
	if !rubbing {
		st.consecutive = 0
		return AlertEvent{}, false
	}

	st.consecutive++
	if st.consecutive < e.cfg.ConsecutiveFramesThreshold {
		return AlertEvent{}, false
	}

	if st.alerted && now.Sub(st.lastAlert) < e.cfg.AlertCooldown {
		return AlertEvent{}, false
	}

	st.lastAlert = now
	st.alerted = true
	st.alerts++

	return AlertEvent{
		ID:                uuid.NewString(),
		Time:              now,
		ConsecutiveFrames: st.consecutive,
	}, true
}
