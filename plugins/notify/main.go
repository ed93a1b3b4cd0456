// Package main provides a desktop notification plugin. It shows a
// notification through osascript on macOS and notify-send on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Event  Event           `json:"event"`
	Config json.RawMessage `json:"config"`
}

// Event is the alert being reported.
type Event struct {
	ID                string    `json:"id"`
	Time              time.Time `json:"time"`
	ConsecutiveFrames int       `json:"consecutive_frames"`
	Eye               string    `json:"eye"`
	Hand              string    `json:"hand"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the plugin configuration from plugin.json.
type Config struct {
	Title string `json:"title"`
	Sound bool   `json:"sound"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	if req.Action != "alert" {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	cfg := Config{Title: "LensSafe"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeResponse(Response{Error: fmt.Sprintf("failed to parse config: %v", err)})
			return
		}
	}

	name, args, err := notifyCommand(runtime.GOOS, cfg, message(req.Event))
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}
	if output, err := exec.Command(name, args...).CombinedOutput(); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("%s failed: %v: %s", name, err, output)})
		return
	}

	writeResponse(Response{Success: true})
}

// message renders the notification body for an event.
func message(ev Event) string {
	var b strings.Builder
	b.WriteString("Eye rubbing detected")
	if ev.Eye != "" {
		fmt.Fprintf(&b, " (%s eye)", ev.Eye)
	}
	if !ev.Time.IsZero() {
		fmt.Fprintf(&b, " at %s", ev.Time.Local().Format("15:04:05"))
	}
	return b.String()
}

// notifyCommand returns the command that shows a notification on goos.
func notifyCommand(goos string, cfg Config, body string) (string, []string, error) {
	switch goos {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", quote(body), quote(cfg.Title))
		if cfg.Sound {
			script += ` sound name "Funk"`
		}
		return "osascript", []string{"-e", script}, nil
	case "linux":
		return "notify-send", []string{"--urgency=critical", cfg.Title, body}, nil
	default:
		return "", nil, fmt.Errorf("notifications are not supported on %s", goos)
	}
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
