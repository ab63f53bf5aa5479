package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Logging.Level != "info" {
		t.Errorf("logging level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Source.Backend != "auto" {
		t.Errorf("source backend = %q, want auto", cfg.Source.Backend)
	}
	if cfg.Player.BufferSize != 20 {
		t.Errorf("buffer size = %d, want 20", cfg.Player.BufferSize)
	}
	if cfg.Player.SpeedMax != 4.0 {
		t.Errorf("speed max = %v, want 4.0", cfg.Player.SpeedMax)
	}
	if cfg.Serve.Addr != ":8089" {
		t.Errorf("serve addr = %q, want :8089", cfg.Serve.Addr)
	}
	if cfg.Export.Format != "png" {
		t.Errorf("export format = %q, want png", cfg.Export.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	yaml := `
logging:
  level: debug
source:
  backend: ffmpeg
  enable_hw_accel: true
player:
  buffer_size: 12
  speed_max: 8.0
serve:
  addr: ":9000"
`
	path := filepath.Join(t.TempDir(), "replay.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Source.Backend != "ffmpeg" {
		t.Errorf("source backend = %q, want ffmpeg", cfg.Source.Backend)
	}
	if !cfg.Source.EnableHWAccel {
		t.Error("enable_hw_accel not applied")
	}
	if cfg.Player.BufferSize != 12 {
		t.Errorf("buffer size = %d, want 12", cfg.Player.BufferSize)
	}
	if cfg.Player.SpeedMax != 8.0 {
		t.Errorf("speed max = %v, want 8.0", cfg.Player.SpeedMax)
	}
	if cfg.Serve.Addr != ":9000" {
		t.Errorf("serve addr = %q, want :9000", cfg.Serve.Addr)
	}

	// Untouched sections keep their defaults.
	if cfg.Player.SpeedMin != 0.25 {
		t.Errorf("speed min = %v, want default 0.25", cfg.Player.SpeedMin)
	}
	if cfg.Export.Width != 1280 {
		t.Errorf("export width = %d, want default 1280", cfg.Export.Width)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("missing file did not error")
	}
	// Defaults are still returned so callers can fall back.
	if cfg.Serve.Addr != ":8089" {
		t.Errorf("serve addr = %q, want default", cfg.Serve.Addr)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("logging: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("invalid yaml did not error")
	}
}

func TestToTuning(t *testing.T) {
	cfg := Defaults()
	cfg.Player.BufferSize = 8
	cfg.Player.BufferMin = 2
	cfg.Player.BufferMax = 16
	cfg.Player.PrefetchBudgetMs = 50
	cfg.Player.DisableFrameSkip = true

	tuning := cfg.ToTuning()

	if tuning.BufferDefault != 8 {
		t.Errorf("BufferDefault = %d, want 8", tuning.BufferDefault)
	}
	if tuning.BufferMin != 2 || tuning.BufferMax != 16 {
		t.Errorf("buffer bounds = %d..%d, want 2..16", tuning.BufferMin, tuning.BufferMax)
	}
	if tuning.PrefetchBudget != 50*time.Millisecond {
		t.Errorf("PrefetchBudget = %v, want 50ms", tuning.PrefetchBudget)
	}
	if !tuning.DisableFrameSkip {
		t.Error("DisableFrameSkip not carried")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		hex  string
		want color.Color
	}{
		{"#ff0000", color.RGBA{R: 255, A: 255}},
		{"00ff00", color.RGBA{G: 255, A: 255}},
		{"#1A2b3C", color.RGBA{R: 26, G: 43, B: 60, A: 255}},
		{"", color.Black},
		{"#fff", color.Black},
	}
	for _, tt := range tests {
		if got := ParseColor(tt.hex); got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.hex, got, tt.want)
		}
	}
}

func TestToStillsTheme(t *testing.T) {
	var ec ExportConfig
	ec.Theme.TextColor = "#000000"

	theme := ec.ToStillsTheme()

	if theme.TextColor != (color.RGBA{A: 255}) {
		t.Errorf("TextColor = %v, want opaque black", theme.TextColor)
	}
	// Unset fields keep the standard theme.
	if theme.FooterColor != (color.RGBA{R: 28, G: 32, B: 37, A: 255}) {
		t.Errorf("FooterColor = %v, want standard", theme.FooterColor)
	}
}
