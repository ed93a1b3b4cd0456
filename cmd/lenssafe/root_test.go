package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jedawel/lenssafe/internal/config"
	"github.com/jedawel/lenssafe/internal/observability"
	"github.com/jedawel/lenssafe/internal/rubbing"
	"github.com/jedawel/lenssafe/internal/store"
)

// writeConfig writes a config file that keeps all state under dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	content := strings.Join([]string{
		"store:",
		"  path: " + filepath.Join(dir, "lenssafe.db"),
		"logger:",
		"  level: error",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs a fresh root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(observability.ResetForTest)

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCmd_Version(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"run", "tone", "alerts"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	opts := &rootOptions{
		configFile: filepath.Join(t.TempDir(), "missing.yaml"),
		noDisplay:  true,
		debug:      true,
	}
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&opts.camera, "camera", "", "")
	require.NoError(t, cmd.Flags().Set("camera", "clip.mp4"))

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", cfg.Camera.Source)
	assert.False(t, cfg.Display.Enabled)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Empty(t, cfg.File)
}

func TestLoadConfig_Defaults(t *testing.T) {
	opts := &rootOptions{configFile: filepath.Join(t.TempDir(), "missing.yaml")}
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&opts.camera, "camera", "", "")

	cfg, err := loadConfig(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "0", cfg.Camera.Source)
	assert.True(t, cfg.Display.Enabled)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestToneCmd_WritesWAV(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "beep.wav")

	out, err := execute(t, "--config", writeConfig(t, dir), "tone", "-o", wav, "--duration", "100ms", "--frequency", "440")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+wav)

	data, err := os.ReadFile(wav)
	require.NoError(t, err)
	require.Greater(t, len(data), 44)
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
}

func TestAlertsCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	out, err := execute(t, "--config", cfgPath, "alerts")
	require.NoError(t, err)
	assert.Contains(t, out, "No alerts recorded.")

	st, err := store.New(filepath.Join(dir, "lenssafe.db"))
	require.NoError(t, err)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.Alerts().Create(&store.Alert{ID: "a1", OccurredAt: base, ConsecutiveFrames: 3, Eye: "left", Hand: "Left"}))
	require.NoError(t, st.Alerts().Create(&store.Alert{ID: "a2", OccurredAt: base.Add(time.Minute), ConsecutiveFrames: 4}))
	require.NoError(t, st.Close())

	// Only the later alert falls inside the last 24 hours.
	now = func() time.Time { return base.Add(24*time.Hour + 30*time.Second) }
	t.Cleanup(func() { now = time.Now })

	out, err = execute(t, "--config", cfgPath, "alerts", "-n", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "TIME")
	assert.Contains(t, lines[1], "4")
	assert.Empty(t, lines[2])
	assert.Equal(t, "1 alert(s) in the last 24 hours", lines[3])
	assert.NotContains(t, out, "left")

	out, err = execute(t, "--config", cfgPath, "alerts", "-n", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "left")
	assert.Contains(t, out, "Left")
}

func TestAlertsCmd_BadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("camera: [unclosed"), 0o644))

	_, err := execute(t, "--config", path, "alerts")
	require.Error(t, err)
}

func TestDashboardURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/", dashboardURL(":8080"))
	assert.Equal(t, "http://localhost:9000/", dashboardURL("0.0.0.0:9000"))
	assert.Equal(t, "http://127.0.0.1:8080/", dashboardURL("127.0.0.1:8080"))
}

func TestDisplayAllowed(t *testing.T) {
	tests := []struct {
		name string
		tray bool
		goos string
		want bool
	}{
		{"no tray on darwin", false, "darwin", true},
		{"tray on darwin", true, "darwin", false},
		{"tray on linux", true, "linux", true},
		{"tray on windows", true, "windows", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Tray.Enabled = tt.tray
			assert.Equal(t, tt.want, displayAllowed(cfg, tt.goos))
		})
	}
}

func TestNewDispatcher(t *testing.T) {
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.NewDefaultConfig()
	cfg.Alert.SoundEnabled = true
	cfg.Alert.Player = ""

	var out bytes.Buffer
	dispatcher, sound := newDispatcher(cfg, st, nil, func() string { return "" }, &out, zap.NewNop())
	require.NotNil(t, sound)

	ev := rubbing.AlertEvent{
		ID:                "alert-1",
		Time:              time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ConsecutiveFrames: 3,
		Eye:               rubbing.EyeLeft,
		Hand:              "Left",
	}
	require.NoError(t, dispatcher.Dispatch(context.Background(), ev))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, dispatcher.Close(ctx))
	sound.Wait()

	stored, err := st.Alerts().GetByID("alert-1")
	require.NoError(t, err)
	assert.Equal(t, "left", stored.Eye)
	assert.Contains(t, out.String(), "\a", "no player configured falls back to the bell")

	cfg.Alert.SoundEnabled = false
	dispatcher, sound = newDispatcher(cfg, st, nil, func() string { return "" }, &out, zap.NewNop())
	assert.Nil(t, sound)
	require.NoError(t, dispatcher.Close(ctx))
}
