package tray

import (
	"testing"
	"time"

	"github.com/jedawel/lenssafe/internal/monitor"
)

func TestLastAlertTitle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name string
		last *time.Time
		want string
	}{
		{"none", nil, "Last alert: none"},
		{"seconds", at(20 * time.Second), "Last alert: just now"},
		{"minutes", at(5*time.Minute + 30*time.Second), "Last alert: 5m0s ago"},
		{"hours", at(3 * time.Hour), "Last alert: " + now.Add(-3*time.Hour).Local().Format("Jan 2 15:04")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lastAlertTitle(tt.last, now); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToggleTitle(t *testing.T) {
	if toggleTitle(true) != "● Monitoring" {
		t.Errorf("unexpected enabled title %q", toggleTitle(true))
	}
	if toggleTitle(false) != "○ Paused" {
		t.Errorf("unexpected disabled title %q", toggleTitle(false))
	}
}

func TestTray_UpdateBeforeReady(t *testing.T) {
	tr := New(true)
	last := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tr.Update(monitor.Status{Enabled: false, LastAlert: &last}, last.Add(time.Minute))

	if tr.IsEnabled() {
		t.Error("expected tray to follow the monitor state")
	}
}
