// Package replay provides a high-level API for assembling a playback
// engine from its adapters.
package replay

import (
	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/adapters/smartsource"
	"github.com/user/replay/pkg/config"
	"github.com/user/replay/pkg/player"
	"github.com/user/replay/pkg/ports"
)

// Builder provides a fluent interface for configuring and building a
// Player. The zero value is not usable; start from NewBuilder,
// NewConstrainedBuilder or FromConfig.
type Builder struct {
	tuning player.Tuning
	source smartsource.Options
	events ports.EventSink
	log    ports.Logger
	err    error
}

// NewBuilder creates a Builder with the default tuning preset.
func NewBuilder() *Builder {
	return &Builder{
		tuning: player.DefaultTuning(),
	}
}

// NewConstrainedBuilder creates a Builder with the constrained preset:
// a smaller buffer appetite for memory-constrained hosts or very large
// frames.
func NewConstrainedBuilder() *Builder {
	return &Builder{
		tuning: player.ConstrainedTuning(),
	}
}

// FromConfig creates a Builder seeded from a loaded configuration.
// An unknown source backend is reported by Build.
func FromConfig(cfg config.Config) *Builder {
	b := &Builder{
		tuning: cfg.ToTuning(),
	}
	b.source.FFmpegPath = cfg.Source.FFmpegPath
	b.source.FFprobePath = cfg.Source.FFprobePath
	b.source.HWAccel = cfg.Source.EnableHWAccel
	b.source.Backend, b.err = smartsource.ParseBackend(cfg.Source.Backend)
	return b
}

// WithBackend forces a specific decoding backend.
func (b *Builder) WithBackend(backend smartsource.Backend) *Builder {
	b.source.Backend = backend
	return b
}

// WithBackendName selects the decoding backend by name (auto, mp4,
// ffmpeg). An unknown name is reported by Build.
func (b *Builder) WithBackendName(name string) *Builder {
	backend, err := smartsource.ParseBackend(name)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.source.Backend = backend
	return b
}

// WithFFmpegPath sets a custom path to the ffmpeg binary.
func (b *Builder) WithFFmpegPath(path string) *Builder {
	b.source.FFmpegPath = path
	return b
}

// WithFFprobePath sets a custom path to the ffprobe binary.
func (b *Builder) WithFFprobePath(path string) *Builder {
	b.source.FFprobePath = path
	return b
}

// WithHWAccel asks ffmpeg to pick a hardware decoder when one exists.
func (b *Builder) WithHWAccel(enabled bool) *Builder {
	b.source.HWAccel = enabled
	return b
}

// WithBufferSize sets the buffer target used until decode latency has
// been sampled.
func (b *Builder) WithBufferSize(frames int) *Builder {
	b.tuning.BufferDefault = frames
	return b
}

// WithBufferBounds sets the bounds of the adaptive buffer target.
func (b *Builder) WithBufferBounds(min, max int) *Builder {
	b.tuning.BufferMin = min
	b.tuning.BufferMax = max
	return b
}

// WithSpeedBounds sets the playback speed range SetSpeed clamps to.
func (b *Builder) WithSpeedBounds(min, max float64) *Builder {
	b.tuning.SpeedMin = min
	b.tuning.SpeedMax = max
	return b
}

// WithFrameSkip enables or disables catch-up frame discarding.
func (b *Builder) WithFrameSkip(enabled bool) *Builder {
	b.tuning.DisableFrameSkip = !enabled
	return b
}

// WithTuning replaces the accumulated tuning wholesale.
func (b *Builder) WithTuning(t player.Tuning) *Builder {
	b.tuning = t
	return b
}

// WithLogger sets the logger used by the player and the source opener.
func (b *Builder) WithLogger(log ports.Logger) *Builder {
	b.log = log
	return b
}

// WithEvents sets the sink that receives playback notifications. When
// none is set, events are discarded.
func (b *Builder) WithEvents(events ports.EventSink) *Builder {
	b.events = events
	return b
}

// Build assembles a ready Player. Call Start on the result to launch
// the playback loop.
func (b *Builder) Build() (*player.Player, error) {
	if b.err != nil {
		return nil, b.err
	}

	log := b.log
	if log == nil {
		log = logger.NewNoop()
	}
	events := b.events
	if events == nil {
		events = noopEvents{}
	}

	opts := b.source
	opts.Logger = log
	opener := smartsource.New(opts)

	return player.New(opener, events, log, b.tuning), nil
}

// noopEvents discards playback notifications, for headless use without
// a sink.
type noopEvents struct{}

func (noopEvents) DurationChanged(int)         {}
func (noopEvents) FrameReady(ports.Frame, int) {}
func (noopEvents) PlaybackFinished()           {}

var _ ports.EventSink = noopEvents{}
