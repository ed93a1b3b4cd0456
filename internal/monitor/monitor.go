// Package monitor runs the capture loop: it reads frames, finds landmarks,
// feeds them to the rubbing engine and publishes what it saw.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/jedawel/lenssafe/internal/capture"
	"github.com/jedawel/lenssafe/internal/detector"
	"github.com/jedawel/lenssafe/internal/rubbing"
	"github.com/jedawel/lenssafe/internal/store"
	"github.com/jedawel/lenssafe/internal/timeutil"
)

// maxReadFailures is how many failed reads in a row end the loop.
const maxReadFailures = 30

// ErrQuit is returned by Run when the viewer closed the display.
var ErrQuit = errors.New("monitor stopped from display")

// Config holds the collaborators and settings of a Monitor.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Engine   *rubbing.Engine

	// Store records sessions and the enabled setting. Optional.
	Store *store.Store
	// Display shows annotated frames locally. Optional.
	Display Display
	Clock   timeutil.Clock
	Logger  *zap.Logger

	// Source names the video source in session records.
	Source      string
	FPS         int
	ShowOverlay bool
	ShowFPS     bool
	// SceneChangeThreshold is the percentage of changed pixels below which a
	// frame reuses the previous landmarks instead of running the detector.
	// Zero runs the detector on every frame.
	SceneChangeThreshold float64
}

// Status is a snapshot of the monitor for status endpoints.
type Status struct {
	Running           bool               `json:"running"`
	Enabled           bool               `json:"enabled"`
	SessionID         string             `json:"session_id,omitempty"`
	Source            string             `json:"source"`
	FaceDetected      bool               `json:"face_detected"`
	Hands             int                `json:"hands"`
	Rubbing           bool               `json:"rubbing"`
	ConsecutiveFrames int                `json:"consecutive_frames"`
	FPS               float64            `json:"fps"`
	Frames            int                `json:"frames"`
	Alerts            int                `json:"alerts"`
	LastAlert         *time.Time         `json:"last_alert,omitempty"`
	Decisions         []rubbing.Decision `json:"decisions,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Monitor owns one capture stream and its rubbing session state.
type Monitor struct {
	cfg    Config
	clock  timeutil.Clock
	logger *zap.Logger
	fps    *FPSMeter
	gate   *capture.SceneGate

	// Touched only by the Run goroutine.
	state   *rubbing.State
	lastObs *detector.Observation
	paused  bool

	mu        sync.RWMutex
	enabled   bool
	status    Status
	jpeg      []byte
	frameSeq  uint64
	sessionID string
}

// New creates a Monitor. The enabled flag is restored from the store when
// one is configured, and defaults to true otherwise.
func New(cfg Config) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = capture.DefaultFPS
	}

	m := &Monitor{
		cfg:     cfg,
		clock:   cfg.Clock,
		logger:  cfg.Logger.Named("monitor"),
		fps:     NewFPSMeter(time.Second),
		enabled: true,
	}
	if cfg.SceneChangeThreshold > 0 {
		m.gate = capture.NewSceneGate(cfg.SceneChangeThreshold)
	}
	if cfg.Store != nil {
		m.enabled = cfg.Store.Settings().GetBool(store.SettingMonitorEnabled, true)
	}
	m.state = cfg.Engine.NewState()
	m.paused = !m.enabled
	m.status = Status{Enabled: m.enabled, Source: cfg.Source}
	return m
}

// SetEnabled pauses or resumes detection and persists the choice.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.status.Enabled = enabled
	m.mu.Unlock()

	m.logger.Info("monitor toggled", zap.Bool("enabled", enabled))
	if m.cfg.Store != nil {
		if err := m.cfg.Store.Settings().SetBool(store.SettingMonitorEnabled, enabled); err != nil {
			m.logger.Warn("failed to persist monitor state", zap.Error(err))
		}
	}
}

// IsEnabled reports whether detection is running.
func (m *Monitor) IsEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// SessionID returns the id of the session being recorded, or "".
func (m *Monitor) SessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Status returns the latest snapshot.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.status
	s.Decisions = append([]rubbing.Decision(nil), m.status.Decisions...)
	return s
}

// LatestFrame returns the last annotated frame as JPEG and its sequence
// number, which grows by one per published frame. It returns nil before the
// first frame.
func (m *Monitor) LatestFrame() ([]byte, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jpeg, m.frameSeq
}

// Run processes frames at the configured rate until ctx is done, the source
// ends or the display is closed. The camera is opened on entry and closed on
// return. Run must not be called concurrently.
//
// With a display configured Run stays on one OS thread for its whole life.
// On macOS that thread must be the main thread, so call Run from main.
func (m *Monitor) Run(ctx context.Context) error {
	if m.cfg.Display != nil {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	if err := m.cfg.Camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := m.cfg.Camera.Close(); err != nil {
			m.logger.Warn("error closing camera", zap.Error(err))
		}
	}()
	if m.gate != nil {
		defer m.gate.Close()
	}
	if m.cfg.Display != nil {
		defer m.cfg.Display.Close()
	}

	m.cfg.Camera.SetFPS(m.cfg.FPS)
	m.startSession()
	defer m.finishSession()

	m.logger.Info("monitor started",
		zap.String("source", m.cfg.Source),
		zap.Int("fps", m.cfg.FPS),
		zap.Bool("enabled", m.IsEnabled()))
	defer m.logger.Info("monitor stopped")

	ticker := time.NewTicker(time.Second / time.Duration(m.cfg.FPS))
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		frame, err := m.cfg.Camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				m.logger.Info("video source ended")
				return nil
			}
			failures++
			if failures >= maxReadFailures {
				return fmt.Errorf("failed to grab frame: %w", err)
			}
			m.logger.Warn("error reading frame", zap.Error(err))
			continue
		}
		failures = 0

		keepGoing := m.processFrame(ctx, frame)
		frame.Close()
		if !keepGoing {
			return ErrQuit
		}
	}
}

// processFrame runs one frame through detection, the engine, the overlay and
// the outputs. It returns false when the display asked to stop.
func (m *Monitor) processFrame(ctx context.Context, frame *gocv.Mat) bool {
	now := m.clock.Now()
	fps := m.fps.Tick(now)
	width, height := frame.Cols(), frame.Rows()

	o := overlay{showFPS: m.cfg.ShowFPS, fps: fps}
	var (
		obs *detector.Observation
		res rubbing.FrameResult
	)

	if m.IsEnabled() {
		m.paused = false
		obs = m.observe(frame)
		res = m.cfg.Engine.ProcessFrame(ctx, m.state, obs.Face, obs.Hands, width, height)
		o.face, o.hands = obs.Face, obs.Hands
		o.rubbing, o.decisions = res.Rubbing, res.Decisions
	} else {
		if !m.paused {
			m.pause()
		}
		o.paused = true
	}

	if m.cfg.ShowOverlay {
		drawOverlays(frame, o)
	}

	m.publish(now, fps, o.paused, obs, res)
	m.publishFrame(frame)

	if m.cfg.Display != nil {
		return m.cfg.Display.Show(frame)
	}
	return true
}

// observe returns the landmarks for frame. An unchanged scene reuses the
// previous landmarks; a detector failure counts as an empty frame.
func (m *Monitor) observe(frame *gocv.Mat) *detector.Observation {
	if m.gate != nil {
		changed, _ := m.gate.Changed(frame)
		if !changed && m.lastObs != nil {
			return m.lastObs
		}
	}

	obs, err := m.cfg.Detector.Detect(frame)
	if err != nil {
		m.logger.Warn("landmark detection failed", zap.Error(err))
		obs = nil
	}
	if obs == nil {
		obs = &detector.Observation{}
	}
	m.logger.Debug("landmarks detected",
		zap.Bool("face", obs.HasFace()),
		zap.Bool("hands", obs.HasHands()),
		zap.Int("hand_count", len(obs.Hands)))
	m.lastObs = obs
	return obs
}

// pause drops the session state so a resumed run starts from scratch.
func (m *Monitor) pause() {
	m.paused = true
	m.state = m.cfg.Engine.NewState()
	m.lastObs = nil
	if m.gate != nil {
		m.gate.Reset()
	}
}

// publish updates the status snapshot. obs is nil while paused.
func (m *Monitor) publish(now time.Time, fps float64, paused bool, obs *detector.Observation, res rubbing.FrameResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.status
	s.Running = true
	s.FPS = fps
	s.FaceDetected = obs.HasFace()
	s.Hands = 0
	if obs.HasHands() {
		s.Hands = len(obs.Hands)
	}
	s.Rubbing = res.Rubbing
	s.ConsecutiveFrames = res.ConsecutiveFrames
	s.Decisions = res.Decisions
	s.UpdatedAt = now
	if !paused {
		s.Frames++
	}
	if res.Alert != nil {
		s.Alerts++
		at := res.Alert.Time
		s.LastAlert = &at
		m.logger.Info("eye rubbing alert",
			zap.String("alert_id", res.Alert.ID),
			zap.Int("consecutive_frames", res.Alert.ConsecutiveFrames))
	}
}

func (m *Monitor) publishFrame(frame *gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		m.logger.Debug("failed to encode frame", zap.Error(err))
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	m.mu.Lock()
	m.jpeg = data
	m.frameSeq++
	m.mu.Unlock()
}

func (m *Monitor) startSession() {
	id := uuid.NewString()
	if m.cfg.Store != nil {
		sess := &store.Session{ID: id, Source: m.cfg.Source, StartedAt: m.clock.Now()}
		if err := m.cfg.Store.Sessions().Create(sess); err != nil {
			m.logger.Warn("failed to record session", zap.Error(err))
			id = ""
		}
	}

	m.mu.Lock()
	m.sessionID = id
	m.status.SessionID = id
	m.status.Running = true
	m.status.Frames = 0
	m.status.Alerts = 0
	m.mu.Unlock()
}

func (m *Monitor) finishSession() {
	m.mu.Lock()
	id := m.sessionID
	frames, alerts := m.status.Frames, m.status.Alerts
	m.status.Running = false
	m.mu.Unlock()

	if m.cfg.Store == nil || id == "" {
		return
	}
	if err := m.cfg.Store.Sessions().Finish(id, m.clock.Now(), frames, alerts); err != nil {
		m.logger.Warn("failed to finish session", zap.String("session_id", id), zap.Error(err))
	}
}
