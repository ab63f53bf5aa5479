package report

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_FullChain(t *testing.T) {
	summary := NewBuilder().
		WithSource(SourceInfo{
			Path:        "match.mp4",
			Decoder:     "mp4",
			FrameRate:   25.0,
			TotalFrames: 1500,
			DurationMs:  60000,
		}).
		WithPlayback(PlaybackInfo{
			FramesEmitted: 1398,
			FramesSkipped: 6,
			WallClockMs:   56000,
			Finished:      true,
		}).
		WithSettings(Settings{
			Speed:        1.5,
			BufferTarget: 20,
			FrameSkip:    true,
		}).
		Build()

	if summary.Source.Path != "match.mp4" {
		t.Errorf("Source.Path = %q", summary.Source.Path)
	}
	if summary.Source.TotalFrames != 1500 {
		t.Errorf("Source.TotalFrames = %d", summary.Source.TotalFrames)
	}
	if summary.Playback.FramesEmitted != 1398 {
		t.Errorf("Playback.FramesEmitted = %d", summary.Playback.FramesEmitted)
	}
	if !summary.Playback.Finished {
		t.Error("Playback.Finished not set")
	}
	if summary.Settings.Speed != 1.5 {
		t.Errorf("Settings.Speed = %v", summary.Settings.Speed)
	}
}

func TestRealizedFPS(t *testing.T) {
	tests := []struct {
		name     string
		playback PlaybackInfo
		want     float64
	}{
		{"normal", PlaybackInfo{FramesEmitted: 100, WallClockMs: 4000}, 25.0},
		{"no wall clock", PlaybackInfo{FramesEmitted: 100}, 0},
		{"nothing emitted", PlaybackInfo{WallClockMs: 1000}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.playback.RealizedFPS(); got != tt.want {
				t.Errorf("RealizedFPS() = %v, want %v", got, tt.want)
			}
		})
	}
}
