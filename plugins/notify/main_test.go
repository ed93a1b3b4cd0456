package main

import (
	"strings"
	"testing"
	"time"
)

func TestNotifyCommand(t *testing.T) {
	tests := []struct {
		goos     string
		cfg      Config
		wantName string
		wantArg  string
		wantErr  bool
	}{
		{"darwin", Config{Title: "LensSafe"}, "osascript", `display notification "hi" with title "LensSafe"`, false},
		{"darwin", Config{Title: "LensSafe", Sound: true}, "osascript", `sound name "Funk"`, false},
		{"linux", Config{Title: "LensSafe"}, "notify-send", "LensSafe", false},
		{"windows", Config{Title: "LensSafe"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args, err := notifyCommand(tt.goos, tt.cfg, "hi")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("notifyCommand() error = %v", err)
			}
			if name != tt.wantName {
				t.Errorf("expected command %q, got %q", tt.wantName, name)
			}
			if !strings.Contains(strings.Join(args, " "), tt.wantArg) {
				t.Errorf("expected args to contain %q, got %v", tt.wantArg, args)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	if got := quote(`say "hi" \ bye`); got != `"say \"hi\" \\ bye"` {
		t.Errorf("unexpected quoting: %s", got)
	}
}

func TestMessage(t *testing.T) {
	if got := message(Event{}); got != "Eye rubbing detected" {
		t.Errorf("unexpected message: %q", got)
	}

	got := message(Event{Eye: "left", Time: time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)})
	if got != "Eye rubbing detected (left eye) at 09:00:00" {
		t.Errorf("unexpected message: %q", got)
	}
}
