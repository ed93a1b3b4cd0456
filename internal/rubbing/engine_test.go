package rubbing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedawel/lenssafe/internal/detector"
	"github.com/jedawel/lenssafe/internal/timeutil"
)

const (
	frameWidth  = 640
	frameHeight = 480
)

// testFace has the left eye at (192,144) px and the right eye at (448,144) px, depth 0.
func testFace() *detector.FaceLandmarks {
	return detector.FaceFixture(0.3, 0.3, 0.7, 0.3, 0.0)
}

func handAt(x, y, z float64) *detector.HandLandmarks {
	h := detector.HandAt("Right", x, y, z)
	return &h
}

func TestNew_FillsDefaults(t *testing.T) {
	e := New(Config{EyeRubThreshold: 0.2, MaxHistoryFrames: -1, AlertCooldown: -time.Second})
	cfg := e.Config()

	assert.Equal(t, 0.2, cfg.EyeRubThreshold)
	assert.Equal(t, DefaultDepthThreshold, cfg.DepthThreshold)
	assert.Equal(t, DefaultMotionThreshold, cfg.MotionThreshold)
	assert.Equal(t, DefaultConsecutiveFramesThreshold, cfg.ConsecutiveFramesThreshold)
	assert.Equal(t, DefaultMaxHistoryFrames, cfg.MaxHistoryFrames)
	assert.Equal(t, DefaultAlertCooldown, cfg.AlertCooldown)
}

func TestEngine_Detect_MissingInput(t *testing.T) {
	e := New(DefaultConfig())

	t.Run("no hand", func(t *testing.T) {
		st := e.NewState()
		e.Detect(st, testFace(), handAt(0.30, 0.30, 0), frameWidth, frameHeight)
		e.Detect(st, testFace(), handAt(0.32, 0.30, 0), frameWidth, frameHeight)
		require.Equal(t, 2, st.TotalHistoryLen())

		assert.False(t, e.Detect(st, testFace(), nil, frameWidth, frameHeight))
		assert.Equal(t, 0, st.TotalHistoryLen())
	})

	t.Run("no face", func(t *testing.T) {
		st := e.NewState()
		e.Detect(st, testFace(), handAt(0.30, 0.30, 0), frameWidth, frameHeight)
		e.Detect(st, testFace(), handAt(0.32, 0.30, 0), frameWidth, frameHeight)

		assert.False(t, e.Detect(st, nil, handAt(0.34, 0.30, 0), frameWidth, frameHeight))
		assert.Equal(t, 0, st.TotalHistoryLen())
	})

	t.Run("neither", func(t *testing.T) {
		st := e.NewState()
		assert.False(t, e.Detect(st, nil, nil, frameWidth, frameHeight))
		assert.Equal(t, 0, st.TotalHistoryLen())
	})
}

func TestEngine_Detect_StationaryHandNeverRubs(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	for i := 0; i < 10; i++ {
		got := e.Detect(st, testFace(), handAt(0.30, 0.30, 0), frameWidth, frameHeight)
		assert.False(t, got, "frame %d", i)
	}
}

func TestEngine_Detect_OscillationRubs(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	// 0.02 of the frame width back and forth over the left eye.
	xs := []float64{0.30, 0.32, 0.30, 0.32, 0.30}
	results := make([]bool, len(xs))
	for i, x := range xs {
		results[i] = e.Detect(st, testFace(), handAt(x, 0.30, 0), frameWidth, frameHeight)
	}

	assert.False(t, results[0], "no velocity on the first sample")
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i], "frame %d", i)
	}
}

func TestEngine_Detect_SlowMotionBelowThreshold(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	var got bool
	for _, x := range []float64{0.300, 0.301, 0.302, 0.303, 0.304} {
		got = e.Detect(st, testFace(), handAt(x, 0.30, 0), frameWidth, frameHeight)
	}
	assert.False(t, got)
}

func TestEngine_Detect_MotionFarFromEye(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	positions := [][2]float64{{0.80, 0.80}, {0.82, 0.81}, {0.84, 0.80}, {0.82, 0.79}, {0.80, 0.80}}
	for _, p := range positions {
		assert.False(t, e.Detect(st, testFace(), handAt(p[0], p[1], 0), frameWidth, frameHeight))
		assert.Equal(t, 0, st.TotalHistoryLen(), "history is cleared while away from the eyes")
	}
}

func TestEngine_Detect_DepthRejectsHoveringHand(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	// Rubbing-like motion over the eye but well in front of the face.
	for _, x := range []float64{0.30, 0.34, 0.28, 0.33, 0.29} {
		assert.False(t, e.Detect(st, testFace(), handAt(x, 0.30, -0.2), frameWidth, frameHeight))
	}
}

func TestEngine_Detect_HandRestingOnFace(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	for _, p := range [][2]float64{{0.50, 0.50}, {0.40, 0.40}, {0.35, 0.35}, {0.32, 0.32}, {0.30, 0.30}} {
		e.Detect(st, testFace(), handAt(p[0], p[1], 0), frameWidth, frameHeight)
	}

	var got bool
	for i := 0; i < 10; i++ {
		got = e.Detect(st, testFace(), handAt(0.30, 0.30, 0), frameWidth, frameHeight)
	}
	assert.False(t, got)
}

func TestEngine_Detect_NearToFarClearsHistory(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()
	key := HandKey("Right", 0)

	e.Detect(st, testFace(), handAt(0.30, 0.30, 0), frameWidth, frameHeight)
	e.Detect(st, testFace(), handAt(0.32, 0.31, 0), frameWidth, frameHeight)
	require.Equal(t, 2, st.HistoryLen(key))

	assert.False(t, e.Detect(st, testFace(), handAt(0.90, 0.90, 0), frameWidth, frameHeight))
	assert.Equal(t, 0, st.HistoryLen(key))

	// Coming back starts from a clean slate: no velocity on the first frame.
	assert.False(t, e.Detect(st, testFace(), handAt(0.31, 0.30, 0), frameWidth, frameHeight))
	assert.Equal(t, 1, st.HistoryLen(key))
}

func TestEngine_Detect_ThreeFrameScenario(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	path := []detector.Point3D{
		{X: 0.30, Y: 0.30, Z: -0.02},
		{X: 0.34, Y: 0.32, Z: -0.01},
		{X: 0.28, Y: 0.28, Z: 0.0},
	}

	var got []bool
	for _, p := range path {
		got = append(got, e.Detect(st, testFace(), handAt(p.X, p.Y, p.Z), frameWidth, frameHeight))
	}

	// The first frame has a single sample and no velocity. From the second
	// frame on the mean step (0.043 then 0.055 of the width) clears 0.01.
	assert.Equal(t, []bool{false, true, true}, got)
}

func TestEngine_Evaluate_Decision(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	e.Evaluate(st, testFace(), handAt(0.70, 0.30, 0), "Left", frameWidth, frameHeight)
	d := e.Evaluate(st, testFace(), handAt(0.72, 0.30, 0), "Left", frameWidth, frameHeight)

	assert.Equal(t, "Left", d.Hand)
	assert.Equal(t, EyeRight, d.Eye)
	assert.True(t, d.Near())
	assert.True(t, d.Rubbing)
	assert.InDelta(t, 0.02, d.Velocity, 1e-9)
	assert.InDelta(t, 460.8, d.Fingertip.Pos.X, 1e-9)
	assert.InDelta(t, 144.0, d.Fingertip.Pos.Y, 1e-9)
}

func TestEngine_HandsKeepSeparateHistories(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	left := detector.HandAt("Left", 0.30, 0.30, 0)
	right := detector.HandAt("Right", 0.70, 0.30, 0)

	// Two still hands, one on each eye. A shared history would see a 256 px
	// jump between them on every call and report rubbing.
	for i := 0; i < 5; i++ {
		res := e.ProcessFrame(context.Background(), st, testFace(), []detector.HandLandmarks{left, right}, frameWidth, frameHeight)
		assert.False(t, res.Rubbing, "frame %d", i)
		require.Len(t, res.Decisions, 2)
	}
	assert.Equal(t, 5, st.HistoryLen("Left"))
	assert.Equal(t, 5, st.HistoryLen("Right"))
}

func TestEngine_ProcessFrame_DropsVanishedHands(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()
	ctx := context.Background()

	both := []detector.HandLandmarks{detector.HandAt("Left", 0.30, 0.30, 0), detector.HandAt("Right", 0.70, 0.30, 0)}
	e.ProcessFrame(ctx, st, testFace(), both, frameWidth, frameHeight)
	e.ProcessFrame(ctx, st, testFace(), both[:1], frameWidth, frameHeight)

	assert.Equal(t, 2, st.HistoryLen("Left"))
	assert.Equal(t, 0, st.HistoryLen("Right"))

	e.ProcessFrame(ctx, st, testFace(), nil, frameWidth, frameHeight)
	assert.Equal(t, 0, st.TotalHistoryLen())
}

func TestEngine_ProcessFrame_DuplicateHandedness(t *testing.T) {
	e := New(DefaultConfig())
	st := e.NewState()

	hands := []detector.HandLandmarks{detector.HandAt("Right", 0.30, 0.30, 0), detector.HandAt("Right", 0.70, 0.30, 0)}
	res := e.ProcessFrame(context.Background(), st, testFace(), hands, frameWidth, frameHeight)

	require.Len(t, res.Decisions, 2)
	assert.Equal(t, "Right", res.Decisions[0].Hand)
	assert.Equal(t, "hand-1", res.Decisions[1].Hand)
}

type recordingDispatcher struct {
	events []AlertEvent
}

func (r *recordingDispatcher) Dispatch(_ context.Context, ev AlertEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func TestEngine_ProcessFrame_Alerts(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &recordingDispatcher{}
	e := New(DefaultConfig(), WithClock(clock), WithDispatcher(rec))
	st := e.NewState()
	ctx := context.Background()

	rub := func(x float64) FrameResult {
		clock.Advance(33 * time.Millisecond)
		return e.ProcessFrame(ctx, st, testFace(), []detector.HandLandmarks{detector.HandAt("Left", x, 0.30, 0)}, frameWidth, frameHeight)
	}

	// Frame 1 has no velocity yet; frames 2-4 rub; the third rubbing frame alerts.
	var last FrameResult
	for _, x := range []float64{0.30, 0.33, 0.30, 0.33} {
		last = rub(x)
	}

	require.Len(t, rec.events, 1)
	require.NotNil(t, last.Alert)
	assert.Equal(t, rec.events[0].ID, last.Alert.ID)
	assert.Equal(t, 3, last.Alert.ConsecutiveFrames)
	assert.Equal(t, EyeLeft, last.Alert.Eye)
	assert.Equal(t, "Left", last.Alert.Hand)
	assert.Equal(t, clock.Now(), last.Alert.Time)
	assert.Equal(t, 3, last.ConsecutiveFrames)

	// Continued rubbing inside the cooldown does not alert again.
	for _, x := range []float64{0.30, 0.33, 0.30} {
		res := rub(x)
		assert.Nil(t, res.Alert)
	}
	assert.Len(t, rec.events, 1)
	assert.Equal(t, 6, st.ConsecutiveFrames())
}

func TestEngine_ProcessFrame_DispatcherErrorIgnored(t *testing.T) {
	failing := DispatcherFunc(func(context.Context, AlertEvent) error {
		return assert.AnError
	})
	e := New(Config{ConsecutiveFramesThreshold: 1}, WithDispatcher(failing))
	st := e.NewState()
	ctx := context.Background()

	e.ProcessFrame(ctx, st, testFace(), []detector.HandLandmarks{detector.HandAt("Left", 0.30, 0.30, 0)}, frameWidth, frameHeight)
	res := e.ProcessFrame(ctx, st, testFace(), []detector.HandLandmarks{detector.HandAt("Left", 0.33, 0.30, 0)}, frameWidth, frameHeight)

	assert.True(t, res.Rubbing)
	assert.NotNil(t, res.Alert)
	assert.Equal(t, 1, st.alertCount())
}

func TestHandKey(t *testing.T) {
	assert.Equal(t, "Left", HandKey("Left", 3))
	assert.Equal(t, "hand-3", HandKey("", 3))
}
