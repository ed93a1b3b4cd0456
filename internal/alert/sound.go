package alert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/rubbing"
)

// DefaultPlayTimeout bounds a single playback.
const DefaultPlayTimeout = 10 * time.Second

// Sound plays an audio file through an external player command. When the
// file or the player is missing it rings the terminal bell instead. Playback
// runs in the background; an alert that arrives while a sound is still
// playing is not played again.
type Sound struct {
	player  string
	file    string
	timeout time.Duration
	bell    io.Writer
	logger  *zap.Logger

	mu      sync.Mutex
	playing bool
	wg      sync.WaitGroup
}

// SoundConfig configures a Sound.
type SoundConfig struct {
	Player  string
	File    string
	Timeout time.Duration
	// Bell receives the fallback bell character; nil means stdout.
	Bell io.Writer
}

// NewSound creates a Sound. A nil logger discards output.
func NewSound(cfg SoundConfig, logger *zap.Logger) *Sound {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPlayTimeout
	}
	if cfg.Bell == nil {
		cfg.Bell = os.Stdout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sound{
		player:  cfg.Player,
		file:    cfg.File,
		timeout: cfg.Timeout,
		bell:    cfg.Bell,
		logger:  logger.Named("sound"),
	}
}

// Dispatch starts playback, or rings the bell when playback is impossible.
func (s *Sound) Dispatch(_ context.Context, ev rubbing.AlertEvent) error {
	path, err := s.playerPath()
	if err != nil {
		s.logger.Debug("falling back to bell", zap.Error(err))
		return s.ring()
	}

	s.mu.Lock()
	if s.playing {
		s.mu.Unlock()
		return nil
	}
	s.playing = true
	s.mu.Unlock()

	// Playback outlives the frame that fired the alert, so it gets its own context.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	cmd := exec.CommandContext(ctx, path, s.file)
	if err := cmd.Start(); err != nil {
		cancel()
		s.setPlaying(false)
		return fmt.Errorf("failed to start %s: %w", s.player, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer s.setPlaying(false)
		if err := cmd.Wait(); err != nil {
			s.logger.Warn("alert sound playback failed",
				zap.String("alert_id", ev.ID), zap.Error(err))
		}
	}()
	return nil
}

func (s *Sound) playerPath() (string, error) {
	if s.player == "" {
		return "", errors.New("no audio player configured")
	}
	if _, err := os.Stat(s.file); err != nil {
		return "", fmt.Errorf("sound file: %w", err)
	}
	path, err := exec.LookPath(s.player)
	if err != nil {
		return "", fmt.Errorf("audio player: %w", err)
	}
	return path, nil
}

func (s *Sound) ring() error {
	_, err := io.WriteString(s.bell, "\a")
	return err
}

func (s *Sound) setPlaying(v bool) {
	s.mu.Lock()
	s.playing = v
	s.mu.Unlock()
}

// isPlaying reports whether a sound is currently playing.
func (s *Sound) isPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Wait blocks until background playback has finished.
func (s *Sound) Wait() {
	s.wg.Wait()
}
