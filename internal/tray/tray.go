// Package tray provides the system tray menu of LensSafe.
package tray

import (
	"context"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/jedawel/lenssafe/internal/monitor"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	lastAlert   *time.Time
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuLastAlert *systray.MenuItem
	ready         chan struct{}
}

// New creates a new Tray showing the given enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
		ready:   make(chan struct{}),
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback for the dashboard menu item. Without one the
// item is hidden.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// It must be called from the main goroutine and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("LensSafe")
	systray.SetTooltip("LensSafe eye rubbing monitor")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume monitoring")
	systray.AddSeparator()

	t.menuLastAlert = systray.AddMenuItem(lastAlertTitle(t.lastAlert, time.Now()), "Last eye rubbing alert")
	t.menuLastAlert.Disable()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	if t.onDashboard == nil {
		menuDashboard.Hide()
	}
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit LensSafe")
	t.mu.Unlock()
	close(t.ready)

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Update reflects a monitor status in the menu.
func (t *Tray) Update(s monitor.Status, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = s.Enabled
	t.lastAlert = s.LastAlert
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(s.Enabled))
	}
	if t.menuLastAlert != nil {
		t.menuLastAlert.SetTitle(lastAlertTitle(s.LastAlert, now))
	}
}

// Watch updates the menu from status every interval until ctx is done.
func (t *Tray) Watch(ctx context.Context, status func() monitor.Status, interval time.Duration) {
	select {
	case <-t.ready:
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Update(status(), now)
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Monitoring"
	}
	return "○ Paused"
}

// lastAlertTitle renders the last alert relative to now.
func lastAlertTitle(last *time.Time, now time.Time) string {
	if last == nil {
		return "Last alert: none"
	}

	ago := now.Sub(*last)
	switch {
	case ago < time.Minute:
		return "Last alert: just now"
	case ago < time.Hour:
		return "Last alert: " + ago.Truncate(time.Minute).String() + " ago"
	default:
		return "Last alert: " + last.Local().Format("Jan 2 15:04")
	}
}
