package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedawel/lenssafe/internal/rubbing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "0", cfg.Camera.Source)
	assert.Equal(t, 640, cfg.Camera.Width)
	assert.Equal(t, 480, cfg.Camera.Height)
	assert.Equal(t, 30, cfg.Camera.FPS)
	assert.Equal(t, 0.15, cfg.Detection.EyeRubThreshold)
	assert.Equal(t, 0.05, cfg.Detection.DepthThreshold)
	assert.Equal(t, 0.01, cfg.Detection.MotionThreshold)
	assert.Equal(t, 3, cfg.Detection.ConsecutiveFramesThreshold)
	assert.Equal(t, 5, cfg.Detection.MotionHistoryFrames)
	assert.Equal(t, 2, cfg.Detection.MaxHands)
	assert.False(t, cfg.Alert.SoundEnabled)
	assert.Equal(t, "alert.wav", cfg.Alert.SoundFile)
	assert.Equal(t, 5*time.Second, cfg.Alert.Cooldown())
	assert.Equal(t, 5*time.Second, cfg.Alert.PluginTimeout())
	assert.True(t, cfg.Alert.VisualAlertEnabled)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "lenssafe", cfg.Logger.ServiceName)
	assert.NoError(t, cfg.Validate())
}

func TestEngineConfig_MatchesEngineDefaults(t *testing.T) {
	assert.Equal(t, rubbing.DefaultConfig(), NewDefaultConfig().EngineConfig())
}

func TestLoad(t *testing.T) {
	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := writeFile(t, "config.yaml", `
camera:
  source: 1
  width: 1280
  height: 720
detection:
  motion_threshold: 0.02
alert:
  sound_enabled: true
  alert_cooldown_seconds: 2.5
store:
  path: /tmp/lenssafe-test.db
`)
		cfg, err := Load(NewViper(), path)
		require.NoError(t, err)

		assert.Equal(t, path, cfg.File)
		assert.Equal(t, "1", cfg.Camera.Source)
		assert.Equal(t, 1280, cfg.Camera.Width)
		assert.Equal(t, 720, cfg.Camera.Height)
		assert.Equal(t, 30, cfg.Camera.FPS, "unset keys keep their default")
		assert.Equal(t, 0.02, cfg.Detection.MotionThreshold)
		assert.Equal(t, 0.15, cfg.Detection.EyeRubThreshold)
		assert.True(t, cfg.Alert.SoundEnabled)
		assert.Equal(t, 2500*time.Millisecond, cfg.EngineConfig().AlertCooldown)
		assert.Equal(t, "/tmp/lenssafe-test.db", cfg.Store.Path)
	})

	t.Run("json file", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"detection": {"eye_rub_threshold": 0.2, "consecutive_frames_threshold": 4}}`)
		cfg, err := Load(NewViper(), path)
		require.NoError(t, err)

		assert.Equal(t, 0.2, cfg.Detection.EyeRubThreshold)
		assert.Equal(t, 4, cfg.EngineConfig().ConsecutiveFramesThreshold)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)

		assert.Empty(t, cfg.File)
		assert.Equal(t, rubbing.DefaultConfig(), cfg.EngineConfig())
	})

	t.Run("unparsable file is an error", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "camera: [unterminated\n")
		_, err := Load(NewViper(), path)
		assert.Error(t, err)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "detection:\n  depth_threshold: -0.1\n")
		_, err := Load(NewViper(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestLoad_LegacyShowVideo(t *testing.T) {
	t.Run("show_video false disables the window", func(t *testing.T) {
		path := writeFile(t, "config.json", `{"display": {"show_video": false, "show_fps": true}}`)
		cfg, err := Load(NewViper(), path)
		require.NoError(t, err)

		assert.False(t, cfg.Display.Enabled)
		assert.True(t, cfg.Display.ShowFPS)
	})

	t.Run("enabled wins over show_video", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "display:\n  show_video: false\n  enabled: true\n")
		cfg, err := Load(NewViper(), path)
		require.NoError(t, err)

		assert.True(t, cfg.Display.Enabled)
	})
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("LENSSAFE_DETECTION_MOTION_THRESHOLD", "0.03")
	t.Setenv("LENSSAFE_SERVER_ADDR", "127.0.0.1:9999")

	cfg, err := Load(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.03, cfg.Detection.MotionThreshold)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Camera.Width = 0 }},
		{"zero fps", func(c *Config) { c.Camera.FPS = 0 }},
		{"negative eye threshold", func(c *Config) { c.Detection.EyeRubThreshold = -1 }},
		{"negative motion threshold", func(c *Config) { c.Detection.MotionThreshold = -0.01 }},
		{"zero consecutive frames", func(c *Config) { c.Detection.ConsecutiveFramesThreshold = 0 }},
		{"zero history", func(c *Config) { c.Detection.MotionHistoryFrames = 0 }},
		{"confidence above one", func(c *Config) { c.Detection.MinDetectionConfidence = 1.5 }},
		{"negative cooldown", func(c *Config) { c.Alert.CooldownSeconds = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".lenssafe", "x.db"), ExpandHome("~/.lenssafe/x.db"))
	assert.Equal(t, "/abs/x.db", ExpandHome("/abs/x.db"))
	assert.Equal(t, "", ExpandHome(""))
}
