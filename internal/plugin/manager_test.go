package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writePlugin creates dir/name/plugin.json from manifest.
func writePlugin(t *testing.T, dir, name string, manifest Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writePlugin(t, tmpDir, "notify", Manifest{
		Name:        "notify",
		Version:     "1.0.0",
		Description: "Desktop notification",
		Executable:  "notify",
		Actions:     []string{ActionAlert},
		Config:      json.RawMessage(`{"title":"LensSafe"}`),
	})

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "notify" {
		t.Errorf("expected plugin name 'notify', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Description != "Desktop notification" {
		t.Errorf("expected description 'Desktop notification', got %q", plugin.Manifest.Description)
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if plugin.Executable != filepath.Join(pluginDir, "notify") {
		t.Errorf("expected executable inside plugin dir, got %q", plugin.Executable)
	}
	if string(plugin.Manifest.Config) != `{"title":"LensSafe"}` {
		t.Errorf("expected manifest config to be kept, got %s", plugin.Manifest.Config)
	}
}

func TestManager_Discover_SkipsBrokenPlugins(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, "good", Manifest{Name: "good", Executable: "good", Actions: []string{ActionAlert}})
	writePlugin(t, tmpDir, "nameless", Manifest{Executable: "x"})

	badDir := filepath.Join(tmpDir, "bad")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "plugin.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "stray-file"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Fatalf("expected only the good plugin, got %d plugins", len(plugins))
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "absent")} {
		manager := NewManager(dir, nil)
		if err := manager.Discover(); err != nil {
			t.Fatalf("Discover(%q) failed: %v", dir, err)
		}
		if n := len(manager.List()); n != 0 {
			t.Errorf("expected 0 plugins for %q, got %d", dir, n)
		}
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	tmpDir := t.TempDir()
	pluginDir := writePlugin(t, tmpDir, "a", Manifest{Name: "a", Executable: "a"})

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(pluginDir); err != nil {
		t.Fatal(err)
	}
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	if _, err := manager.Get("a"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected removed plugin to be forgotten, got %v", err)
	}
}

func TestManager_Get(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, "notify", Manifest{Name: "notify", Executable: "notify"})

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	plugin, err := manager.Get("notify")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Manifest.Name != "notify" {
		t.Errorf("expected 'notify', got %q", plugin.Manifest.Name)
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}

func TestManager_ForAction(t *testing.T) {
	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, "zeta", Manifest{Name: "zeta", Executable: "z", Actions: []string{ActionAlert}})
	writePlugin(t, tmpDir, "alpha", Manifest{Name: "alpha", Executable: "a", Actions: []string{"status", ActionAlert}})
	writePlugin(t, tmpDir, "other", Manifest{Name: "other", Executable: "o", Actions: []string{"status"}})

	manager := NewManager(tmpDir, nil)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}

	got := manager.ForAction(ActionAlert)
	if len(got) != 2 {
		t.Fatalf("expected 2 alert plugins, got %d", len(got))
	}
	if got[0].Manifest.Name != "alpha" || got[1].Manifest.Name != "zeta" {
		t.Errorf("expected plugins sorted by name, got %q, %q", got[0].Manifest.Name, got[1].Manifest.Name)
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/some/path", nil)
	if manager.PluginDir() != "/some/path" {
		t.Errorf("expected '/some/path', got %q", manager.PluginDir())
	}
}
