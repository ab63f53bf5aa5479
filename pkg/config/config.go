// Package config provides configuration loading and management.
package config

import (
	"image/color"
	"os"
	"time"

	"github.com/user/replay/pkg/player"
	"github.com/user/replay/pkg/stills"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for replay.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Source  SourceConfig  `yaml:"source"`
	Player  PlayerConfig  `yaml:"player"`
	Serve   ServeConfig   `yaml:"serve"`
	Export  ExportConfig  `yaml:"export"`
}

// LoggingConfig controls console output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Quiet bool   `yaml:"quiet"`
}

// SourceConfig selects and configures the decoding backend.
type SourceConfig struct {
	Backend       string `yaml:"backend"`
	FFmpegPath    string `yaml:"ffmpeg_path"`
	FFprobePath   string `yaml:"ffprobe_path"`
	EnableHWAccel bool   `yaml:"enable_hw_accel"`
}

// PlayerConfig tunes the playback engine.
type PlayerConfig struct {
	BufferSize       int     `yaml:"buffer_size"`
	BufferMin        int     `yaml:"buffer_min"`
	BufferMax        int     `yaml:"buffer_max"`
	SpeedMin         float64 `yaml:"speed_min"`
	SpeedMax         float64 `yaml:"speed_max"`
	SkipThresholdMs  float64 `yaml:"skip_threshold_ms"`
	MaxSkipFrames    int     `yaml:"max_skip_frames"`
	PrefetchBudgetMs int     `yaml:"prefetch_budget_ms"`
	DisableFrameSkip bool    `yaml:"disable_frame_skip"`
}

// ServeConfig configures the websocket viewer server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// ExportConfig configures still image export.
type ExportConfig struct {
	OutDir  string      `yaml:"out_dir"`
	Format  string      `yaml:"format"`
	Quality int         `yaml:"quality"`
	Width   int         `yaml:"width"`
	Theme   ThemeConfig `yaml:"theme"`
}

// ThemeConfig represents still theming options as hex color strings.
// Empty fields keep the standard theme colors.
type ThemeConfig struct {
	BackgroundColor string `yaml:"background_color"`
	FooterColor     string `yaml:"footer_color"`
	TextColor       string `yaml:"text_color"`
	HomeBadgeColor  string `yaml:"home_badge_color"`
	AwayBadgeColor  string `yaml:"away_badge_color"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tuning := player.DefaultTuning()
	return Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Source: SourceConfig{
			Backend: "auto",
		},
		Player: PlayerConfig{
			BufferSize:       tuning.BufferDefault,
			BufferMin:        tuning.BufferMin,
			BufferMax:        tuning.BufferMax,
			SpeedMin:         tuning.SpeedMin,
			SpeedMax:         tuning.SpeedMax,
			SkipThresholdMs:  tuning.SkipThresholdMs,
			MaxSkipFrames:    tuning.MaxSkipFrames,
			PrefetchBudgetMs: int(tuning.PrefetchBudget / time.Millisecond),
		},
		Serve: ServeConfig{
			Addr: ":8089",
		},
		Export: ExportConfig{
			OutDir:  "./stills",
			Format:  "png",
			Quality: 90,
			Width:   1280,
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// ParseColor parses a hex color string to color.Color.
func ParseColor(hex string) color.Color {
	if len(hex) == 0 {
		return color.Black
	}

	if hex[0] == '#' {
		hex = hex[1:]
	}

	if len(hex) != 6 {
		return color.Black
	}

	var r, g, b uint8
	for i, c := range []byte{hex[0], hex[1]} {
		v := hexValue(c)
		if i == 0 {
			r = v << 4
		} else {
			r |= v
		}
	}
	for i, c := range []byte{hex[2], hex[3]} {
		v := hexValue(c)
		if i == 0 {
			g = v << 4
		} else {
			g |= v
		}
	}
	for i, c := range []byte{hex[4], hex[5]} {
		v := hexValue(c)
		if i == 0 {
			b = v << 4
		} else {
			b |= v
		}
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ToTuning converts the player section to engine tuning.
func (c Config) ToTuning() player.Tuning {
	return player.Tuning{
		SpeedMin:         c.Player.SpeedMin,
		SpeedMax:         c.Player.SpeedMax,
		SkipThresholdMs:  c.Player.SkipThresholdMs,
		MaxSkipFrames:    c.Player.MaxSkipFrames,
		BufferMin:        c.Player.BufferMin,
		BufferMax:        c.Player.BufferMax,
		BufferDefault:    c.Player.BufferSize,
		PrefetchBudget:   time.Duration(c.Player.PrefetchBudgetMs) * time.Millisecond,
		DisableFrameSkip: c.Player.DisableFrameSkip,
	}
}

// ToStillsTheme converts the export theme to stills.Theme. Fields left
// empty keep the standard colors.
func (c ExportConfig) ToStillsTheme() stills.Theme {
	theme := stills.DefaultTheme()
	if c.Theme.BackgroundColor != "" {
		theme.BackgroundColor = ParseColor(c.Theme.BackgroundColor)
	}
	if c.Theme.FooterColor != "" {
		theme.FooterColor = ParseColor(c.Theme.FooterColor)
	}
	if c.Theme.TextColor != "" {
		theme.TextColor = ParseColor(c.Theme.TextColor)
	}
	if c.Theme.HomeBadgeColor != "" {
		theme.HomeBadgeColor = ParseColor(c.Theme.HomeBadgeColor)
	}
	if c.Theme.AwayBadgeColor != "" {
		theme.AwayBadgeColor = ParseColor(c.Theme.AwayBadgeColor)
	}
	return theme
}
