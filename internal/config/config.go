// Package config loads LensSafe settings from a config file, the environment
// and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jedawel/lenssafe/internal/rubbing"
)

// EnvPrefix is the prefix of environment variable overrides, e.g.
// LENSSAFE_DETECTION_MOTION_THRESHOLD.
const EnvPrefix = "LENSSAFE"

// Config is the complete application configuration.
type Config struct {
	Camera    CameraConfig    `mapstructure:"camera" yaml:"camera"`
	Detection DetectionConfig `mapstructure:"detection" yaml:"detection"`
	Alert     AlertConfig     `mapstructure:"alert" yaml:"alert"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Tray      TrayConfig      `mapstructure:"tray" yaml:"tray"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`

	// File is the config file the values were read from, empty when only
	// defaults and the environment were used.
	File string `mapstructure:"-" yaml:"-"`
}

// CameraConfig selects and sizes the video source.
type CameraConfig struct {
	// Source is a device index ("0") or a file path or stream URL.
	Source string `mapstructure:"source" yaml:"source"`
	Width  int    `mapstructure:"width" yaml:"width"`
	Height int    `mapstructure:"height" yaml:"height"`
	FPS    int    `mapstructure:"fps" yaml:"fps"`
}

// DetectionConfig holds the perception settings and the decision thresholds.
type DetectionConfig struct {
	EyeRubThreshold            float64 `mapstructure:"eye_rub_threshold" yaml:"eye_rub_threshold"`
	DepthThreshold             float64 `mapstructure:"depth_threshold" yaml:"depth_threshold"`
	MotionThreshold            float64 `mapstructure:"motion_threshold" yaml:"motion_threshold"`
	ConsecutiveFramesThreshold int     `mapstructure:"consecutive_frames_threshold" yaml:"consecutive_frames_threshold"`
	MotionHistoryFrames        int     `mapstructure:"motion_history_frames" yaml:"motion_history_frames"`
	MinDetectionConfidence     float64 `mapstructure:"min_detection_confidence" yaml:"min_detection_confidence"`
	MinTrackingConfidence      float64 `mapstructure:"min_tracking_confidence" yaml:"min_tracking_confidence"`
	MaxHands                   int     `mapstructure:"max_hands" yaml:"max_hands"`
	ScriptPath                 string  `mapstructure:"script_path" yaml:"script_path"`

	// SceneChangeThreshold is the percentage of changed pixels below which a
	// frame reuses the previous landmarks instead of running perception.
	// Zero runs perception on every frame.
	SceneChangeThreshold float64 `mapstructure:"scene_change_threshold" yaml:"scene_change_threshold"`
}

// AlertConfig controls how fired alerts are delivered.
type AlertConfig struct {
	SoundEnabled       bool    `mapstructure:"sound_enabled" yaml:"sound_enabled"`
	SoundFile          string  `mapstructure:"sound_file" yaml:"sound_file"`
	Player             string  `mapstructure:"player" yaml:"player"`
	CooldownSeconds    float64 `mapstructure:"alert_cooldown_seconds" yaml:"alert_cooldown_seconds"`
	VisualAlertEnabled bool    `mapstructure:"visual_alert_enabled" yaml:"visual_alert_enabled"`
	PluginDir          string  `mapstructure:"plugin_dir" yaml:"plugin_dir"`
	PluginTimeoutMs    int     `mapstructure:"plugin_timeout_ms" yaml:"plugin_timeout_ms"`
}

// Cooldown returns the alert cooldown as a duration.
func (a AlertConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownSeconds * float64(time.Second))
}

// PluginTimeout returns the per-plugin execution timeout.
func (a AlertConfig) PluginTimeout() time.Duration {
	return time.Duration(a.PluginTimeoutMs) * time.Millisecond
}

// DisplayConfig controls the preview window and its overlays.
type DisplayConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ShowOverlay bool   `mapstructure:"show_overlay" yaml:"show_overlay"`
	ShowFPS     bool   `mapstructure:"show_fps" yaml:"show_fps"`
	WindowName  string `mapstructure:"window_name" yaml:"window_name"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr      string `mapstructure:"addr" yaml:"addr"`
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
}

// TrayConfig controls the system tray icon.
type TrayConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// DefaultPlayer returns the audio player command for the current platform,
// or an empty string when none is known.
func DefaultPlayer() string {
	switch runtime.GOOS {
	case "darwin":
		return "afplay"
	case "linux":
		return "aplay"
	default:
		return ""
	}
}

// SetDefaults registers the default value of every option on v.
func SetDefaults(v *viper.Viper) {
	// Camera
	v.SetDefault("camera.source", "0")
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.fps", 30)

	// Detection
	v.SetDefault("detection.eye_rub_threshold", rubbing.DefaultEyeRubThreshold)
	v.SetDefault("detection.depth_threshold", rubbing.DefaultDepthThreshold)
	v.SetDefault("detection.motion_threshold", rubbing.DefaultMotionThreshold)
	v.SetDefault("detection.consecutive_frames_threshold", rubbing.DefaultConsecutiveFramesThreshold)
	v.SetDefault("detection.motion_history_frames", rubbing.DefaultMaxHistoryFrames)
	v.SetDefault("detection.min_detection_confidence", 0.5)
	v.SetDefault("detection.min_tracking_confidence", 0.5)
	v.SetDefault("detection.max_hands", 2)
	v.SetDefault("detection.script_path", "")
	v.SetDefault("detection.scene_change_threshold", 0.0)

	// Alert
	v.SetDefault("alert.sound_enabled", false)
	v.SetDefault("alert.sound_file", "alert.wav")
	v.SetDefault("alert.player", DefaultPlayer())
	v.SetDefault("alert.alert_cooldown_seconds", rubbing.DefaultAlertCooldown.Seconds())
	v.SetDefault("alert.visual_alert_enabled", true)
	v.SetDefault("alert.plugin_dir", "")
	v.SetDefault("alert.plugin_timeout_ms", 5000)

	// Display
	v.SetDefault("display.enabled", true)
	v.SetDefault("display.show_overlay", true)
	v.SetDefault("display.show_fps", true)
	v.SetDefault("display.window_name", "LensSafe")

	// Server
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.static_dir", "")

	v.SetDefault("tray.enabled", false)
	v.SetDefault("store.path", "~/.lenssafe/lenssafe.db")

	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "lenssafe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
}

// NewDefaultConfig creates a configuration populated with default values only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewViper returns a viper instance with defaults and environment overrides
// registered. Flags may be bound to it before Load reads the file.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into v. With an empty path it looks for
// config.{yaml,json} in the working directory and ~/.lenssafe. A missing file
// is not an error: defaults are used and Config.File stays empty. An
// unreadable or unparsable file is an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return NewConfigFromViper(v)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".lenssafe"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := NewConfigFromViper(v)
	if err != nil {
		return nil, err
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// legacyKeys maps option names used by older config files to their current
// names. A current name set in the same file wins.
var legacyKeys = map[string]string{
	"display.show_video": "display.enabled",
}

func applyLegacyKeys(v *viper.Viper) {
	for old, current := range legacyKeys {
		if v.InConfig(old) && !v.InConfig(current) {
			v.Set(current, v.Get(old))
		}
	}
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	applyLegacyKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Store.Path = ExpandHome(cfg.Store.Path)
	cfg.Alert.PluginDir = ExpandHome(cfg.Alert.PluginDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for out-of-domain values.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera.width and camera.height must be positive")
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera.fps must be a positive integer")
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection configuration invalid: %w", err)
	}
	if c.Alert.CooldownSeconds < 0 {
		return fmt.Errorf("alert.alert_cooldown_seconds must not be negative")
	}
	if c.Alert.PluginTimeoutMs < 0 {
		return fmt.Errorf("alert.plugin_timeout_ms must not be negative")
	}
	return nil
}

// Validate checks the detection thresholds.
func (d *DetectionConfig) Validate() error {
	if d.EyeRubThreshold < 0 || d.DepthThreshold < 0 || d.MotionThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if d.ConsecutiveFramesThreshold <= 0 {
		return fmt.Errorf("consecutive_frames_threshold must be a positive integer")
	}
	if d.MotionHistoryFrames <= 0 {
		return fmt.Errorf("motion_history_frames must be a positive integer")
	}
	if d.MinDetectionConfidence < 0 || d.MinDetectionConfidence > 1 ||
		d.MinTrackingConfidence < 0 || d.MinTrackingConfidence > 1 {
		return fmt.Errorf("confidences must be between 0.0 and 1.0")
	}
	if d.SceneChangeThreshold < 0 || d.SceneChangeThreshold > 100 {
		return fmt.Errorf("scene_change_threshold must be between 0 and 100")
	}
	if d.MaxHands < 0 {
		return fmt.Errorf("max_hands must not be negative")
	}
	return nil
}

// EngineConfig maps the detection and cooldown settings onto the decision engine.
func (c *Config) EngineConfig() rubbing.Config {
	return rubbing.Config{
		EyeRubThreshold:            c.Detection.EyeRubThreshold,
		DepthThreshold:             c.Detection.DepthThreshold,
		MotionThreshold:            c.Detection.MotionThreshold,
		ConsecutiveFramesThreshold: c.Detection.ConsecutiveFramesThreshold,
		MaxHistoryFrames:           c.Detection.MotionHistoryFrames,
		AlertCooldown:              c.Alert.Cooldown(),
	}
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
