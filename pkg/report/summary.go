// Package report provides summary generation for playback sessions.
package report

import "time"

// Summary contains all data collected during a playback session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Source information
	Source SourceInfo

	// Playback results
	Playback PlaybackInfo

	// Session settings
	Settings Settings
}

// SourceInfo describes the opened video source.
type SourceInfo struct {
	Path        string
	Decoder     string
	FrameRate   float64
	TotalFrames int
	DurationMs  int
}

// PlaybackInfo contains delivery counters for the session.
type PlaybackInfo struct {
	FramesEmitted   int
	FramesSkipped   int
	DirectDecodes   int
	PrefetchBatches int
	UrgentBursts    int
	AvgDecodeMs     float64
	BytesDelivered  int64
	WallClockMs     int
	Finished        bool
}

// RealizedFPS returns the frames actually delivered per wall-clock
// second, 0 when nothing was measured.
func (p PlaybackInfo) RealizedFPS() float64 {
	if p.WallClockMs <= 0 {
		return 0
	}
	return float64(p.FramesEmitted) * 1000 / float64(p.WallClockMs)
}

// Settings contains the playback configuration.
type Settings struct {
	Speed        float64
	BufferTarget int
	FrameSkip    bool
	HWAccel      bool
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets source information.
func (b *Builder) WithSource(source SourceInfo) *Builder {
	b.summary.Source = source
	return b
}

// WithPlayback sets playback counters.
func (b *Builder) WithPlayback(playback PlaybackInfo) *Builder {
	b.summary.Playback = playback
	return b
}

// WithSettings sets session settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
