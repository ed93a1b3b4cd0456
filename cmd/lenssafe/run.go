package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jedawel/lenssafe/internal/alert"
	"github.com/jedawel/lenssafe/internal/capture"
	"github.com/jedawel/lenssafe/internal/config"
	"github.com/jedawel/lenssafe/internal/detector"
	"github.com/jedawel/lenssafe/internal/monitor"
	"github.com/jedawel/lenssafe/internal/observability"
	"github.com/jedawel/lenssafe/internal/plugin"
	"github.com/jedawel/lenssafe/internal/rubbing"
	"github.com/jedawel/lenssafe/internal/server"
	"github.com/jedawel/lenssafe/internal/store"
	"github.com/jedawel/lenssafe/internal/tray"
)

const (
	alertQueueSize      = 16
	alertDrainTimeout   = 5 * time.Second
	statusBroadcastRate = time.Second
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Monitor the camera (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, opts.cfg)
		},
	}
}

// runMonitor wires the pipeline and runs it until interrupted, the source
// ends or the user quits from the window or the tray.
func runMonitor(cmd *cobra.Command, cfg *config.Config) error {
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	det := newDetector(cfg, logger)
	defer det.Close()

	var hub *server.Hub
	if cfg.Server.Enabled {
		hub = server.NewHub(logger)
	}

	var mon *monitor.Monitor
	dispatcher, sound := newDispatcher(cfg, st, hub, func() string { return mon.SessionID() }, cmd.OutOrStdout(), logger)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), alertDrainTimeout)
		defer cancel()
		if err := dispatcher.Close(drainCtx); err != nil {
			logger.Warn("pending alerts dropped", zap.Error(err))
		}
		if sound != nil {
			sound.Wait()
		}
	}()

	engine := rubbing.New(cfg.EngineConfig(),
		rubbing.WithDispatcher(dispatcher),
		rubbing.WithLogger(logger))

	var display monitor.Display
	switch {
	case !cfg.Display.Enabled:
	case !displayAllowed(cfg, runtime.GOOS):
		logger.Warn("preview window disabled: the tray owns the main thread on this platform")
	default:
		display = monitor.NewWindow(cfg.Display.WindowName)
	}

	mon = monitor.New(monitor.Config{
		Camera: capture.NewCamera(capture.Config{
			Source: cfg.Camera.Source,
			Width:  cfg.Camera.Width,
			Height: cfg.Camera.Height,
			FPS:    cfg.Camera.FPS,
		}),
		Detector:             det,
		Engine:               engine,
		Store:                st,
		Display:              display,
		Logger:               logger,
		Source:               cfg.Camera.Source,
		FPS:                  cfg.Camera.FPS,
		ShowOverlay:          cfg.Display.ShowOverlay,
		ShowFPS:              cfg.Display.ShowFPS,
		SceneChangeThreshold: cfg.Detection.SceneChangeThreshold,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	runLoop := func() error {
		defer cancel()
		if err := mon.Run(gctx); err != nil && !errors.Is(err, monitor.ErrQuit) {
			return err
		}
		return nil
	}

	if cfg.Server.Enabled {
		srv := server.New(server.Config{
			StaticDir: cfg.Server.StaticDir,
			Store:     st,
			Monitor:   mon,
			Hub:       hub,
			Logger:    logger,
		})
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Server.Addr)
		})
		g.Go(func() error {
			hub.Run(gctx, mon.Status, statusBroadcastRate)
			hub.Close()
			return nil
		})
	}

	if cfg.Tray.Enabled {
		t := tray.New(mon.IsEnabled())
		t.OnToggle(mon.SetEnabled)
		t.OnQuit(cancel)
		if cfg.Server.Enabled {
			url := dashboardURL(cfg.Server.Addr)
			t.OnDashboard(func() {
				if err := openBrowser(url); err != nil {
					logger.Warn("failed to open dashboard", zap.String("url", url), zap.Error(err))
				}
			})
		}
		g.Go(runLoop)
		g.Go(func() error {
			t.Watch(gctx, mon.Status, statusBroadcastRate)
			t.Quit()
			return nil
		})
		t.Run()
		return g.Wait()
	}

	// The frame loop, and with it the preview window, stays on the main thread.
	err = runLoop()
	if werr := g.Wait(); err == nil {
		err = werr
	}
	return err
}

// displayAllowed reports whether the preview window can run next to the tray.
// Cocoa windows need the main thread, which systray takes on macOS.
func displayAllowed(cfg *config.Config, goos string) bool {
	return !cfg.Tray.Enabled || goos != "darwin"
}

// newDetector starts MediaPipe, or falls back to a detector that never finds
// anything so the preview and the API keep working.
func newDetector(cfg *config.Config, logger *zap.Logger) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:        cfg.Detection.MaxHands,
		MinConfidence:   cfg.Detection.MinDetectionConfidence,
		MinTrackingConf: cfg.Detection.MinTrackingConfidence,
		ScriptPath:      cfg.Detection.ScriptPath,
	}, logger)
	if err != nil {
		logger.Warn("MediaPipe not available, landmark detection disabled", zap.Error(err))
		return detector.NewMockDetector()
	}
	return mp
}

// newDispatcher assembles every configured alert target behind a queue. The
// sound target is returned too, nil when disabled, so that shutdown can let
// a playing alert finish.
func newDispatcher(cfg *config.Config, st *store.Store, hub *server.Hub, session func() string, out io.Writer, logger *zap.Logger) (*alert.Async, *alert.Sound) {
	multi := alert.NewMulti(logger)

	if cfg.Alert.VisualAlertEnabled {
		multi.Add("console", alert.NewConsole(out, logger))
	}
	var sound *alert.Sound
	if cfg.Alert.SoundEnabled {
		sound = alert.NewSound(alert.SoundConfig{
			Player: cfg.Alert.Player,
			File:   cfg.Alert.SoundFile,
			Bell:   out,
		}, logger)
		multi.Add("sound", sound)
	}
	multi.Add("store", alert.NewRecorder(st.Alerts(), session))
	if hub != nil {
		multi.Add("events", hub)
	}

	if cfg.Alert.PluginDir != "" {
		mgr := plugin.NewManager(cfg.Alert.PluginDir, logger)
		if err := mgr.Discover(); err != nil {
			logger.Warn("plugin discovery failed", zap.String("dir", cfg.Alert.PluginDir), zap.Error(err))
		} else if len(mgr.ForAction(plugin.ActionAlert)) > 0 {
			multi.Add("plugins", alert.NewPlugins(mgr, plugin.NewExecutor(cfg.Alert.PluginTimeout()), logger))
		}
	}

	return alert.NewAsync(multi, alertQueueSize, logger), sound
}

// dashboardURL turns a listen address into a browsable URL.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + strings.Replace(addr, "0.0.0.0", "localhost", 1) + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
