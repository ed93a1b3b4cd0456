// Package rubbing decides, frame by frame, whether a monitored subject is
// rubbing an eye and when a sustained episode should raise an alert.
//
// A frame counts as rubbing when an index fingertip is near an eye, both in
// the image plane and in depth, and is moving fast enough. Resting a hand on
// the face or gesturing in front of it does not qualify.
package rubbing

import (
	"context"

	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/detector"
	"github.com/jedawel/lenssafe/internal/timeutil"
)

// Decision is the per-hand outcome of one frame.
type Decision struct {
	Hand      string    `json:"hand"`
	Rubbing   bool      `json:"rubbing"`
	Eye       Eye       `json:"eye,omitempty"`
	Velocity  float64   `json:"velocity"` // normalized by frame width
	Fingertip Fingertip `json:"fingertip"`
}

// Near reports whether the fingertip was near either eye.
func (d Decision) Near() bool {
	return d.Eye != EyeNone
}

// FrameResult is the outcome of ProcessFrame.
type FrameResult struct {
	Rubbing           bool        `json:"rubbing"`
	ConsecutiveFrames int         `json:"consecutive_frames"`
	Decisions         []Decision  `json:"decisions,omitempty"`
	Alert             *AlertEvent `json:"alert,omitempty"`
}

// Engine evaluates landmark frames against a fixed Config. It holds no
// session state; all of that lives in the State passed to each call, so one
// Engine can serve any number of sessions.
type Engine struct {
	cfg        Config
	clock      timeutil.Clock
	dispatcher AlertDispatcher
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for alert cooldowns.
func WithClock(c timeutil.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithDispatcher sets where fired alerts are delivered.
func WithDispatcher(d AlertDispatcher) Option {
	return func(e *Engine) { e.dispatcher = d }
}

// WithLogger sets the logger used for decision tracing.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine. Non-positive thresholds in cfg fall back to their defaults.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg.withDefaults(),
		clock:      timeutil.RealClock{},
		dispatcher: nopDispatcher{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("rubbing")
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// NewState returns an empty session state sized for this engine.
func (e *Engine) NewState() *State {
	return newState(e.cfg.MaxHistoryFrames)
}

// Detect reports whether hand is rubbing an eye of face in this frame.
// A nil face or hand yields false and clears the relevant motion history.
func (e *Engine) Detect(st *State, face *detector.FaceLandmarks, hand *detector.HandLandmarks, width, height int) bool {
	if hand == nil {
		st.resetAll()
		return false
	}
	return e.Evaluate(st, face, hand, HandKey(hand.Handedness, 0), width, height).Rubbing
}

// Evaluate runs the rubbing decision for one hand, tracking its motion under key.
func (e *Engine) Evaluate(st *State, face *detector.FaceLandmarks, hand *detector.HandLandmarks, key string, width, height int) Decision {
	d := Decision{Hand: key}

	if hand == nil {
		st.resetAll()
		return d
	}
	tracker := st.tracker(key)
	if face == nil || width <= 0 || height <= 0 {
		tracker.Reset()
		return d
	}

	left, right := ExtractEyeRegions(face, width, height)

	tip := hand.Points[detector.IndexTip]
	d.Fingertip = Fingertip{
		Pos:   Point2D{X: tip.X * float64(width), Y: tip.Y * float64(height)},
		Depth: tip.Z,
	}

	d.Eye = NearestEye(d.Fingertip, left, right, width, e.cfg.EyeRubThreshold, e.cfg.DepthThreshold)
	d.Velocity = tracker.Observe(d.Fingertip.Pos) / float64(width)

	if !d.Near() {
		tracker.Reset()
	}

	d.Rubbing = d.Near() && d.Velocity >= e.cfg.MotionThreshold
	return d
}

// ProcessFrame evaluates every hand in the frame, advances the alert state
// machine and delivers a fired alert to the dispatcher. The dispatcher's
// result is not inspected. Hands absent from this frame lose their motion history.
func (e *Engine) ProcessFrame(ctx context.Context, st *State, face *detector.FaceLandmarks, hands []detector.HandLandmarks, width, height int) FrameResult {
	var res FrameResult

	if len(hands) == 0 {
		e.Detect(st, face, nil, width, height)
	} else {
		seen := make(map[string]bool, len(hands))
		res.Decisions = make([]Decision, 0, len(hands))
		for i := range hands {
			key := HandKey(hands[i].Handedness, i)
			if seen[key] {
				key = HandKey("", i)
			}
			seen[key] = true

			d := e.Evaluate(st, face, &hands[i], key, width, height)
			res.Decisions = append(res.Decisions, d)
			if d.Rubbing {
				res.Rubbing = true
			}
		}
		st.retain(seen)
	}

	ev, fired := e.Observe(st, res.Rubbing, e.clock.Now())
	res.ConsecutiveFrames = st.ConsecutiveFrames()
	if fired {
		ev.Eye, ev.Hand = firstRubbing(res.Decisions)
		res.Alert = &ev
		e.logger.Debug("alert fired",
			zap.String("alert_id", ev.ID),
			zap.Int("consecutive_frames", ev.ConsecutiveFrames),
			zap.String("eye", string(ev.Eye)),
			zap.String("hand", ev.Hand))
		_ = e.dispatcher.Dispatch(ctx, ev)
	}

	return res
}

func firstRubbing(decisions []Decision) (Eye, string) {
	for _, d := range decisions {
		if d.Rubbing {
			return d.Eye, d.Hand
		}
	}
	return EyeNone, ""
}
