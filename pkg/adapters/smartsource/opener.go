// Package smartsource provides a frame source opener that automatically
// selects the best available decoder with fallback support.
package smartsource

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/user/replay/pkg/adapters/ffmpegsource"
	"github.com/user/replay/pkg/adapters/formatdetect"
	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/adapters/mp4source"
	"github.com/user/replay/pkg/ports"
)

// Backend represents the decoding backend used.
type Backend string

const (
	// BackendAuto lets the opener pick a backend per file.
	BackendAuto Backend = "auto"
	// BackendMP4 serves MJPEG samples directly from MP4 containers.
	BackendMP4 Backend = "mp4"
	// BackendFFmpeg decodes through an external ffmpeg process.
	BackendFFmpeg Backend = "ffmpeg"
)

// ParseBackend maps a backend name to a Backend. Empty means auto.
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendMP4:
		return BackendMP4, nil
	case BackendFFmpeg:
		return BackendFFmpeg, nil
	default:
		return BackendAuto, fmt.Errorf("unknown source backend %q", s)
	}
}

// Info describes the decoder selection for one opened file.
type Info struct {
	// Backend is the decoder that ended up serving the file.
	Backend Backend
	// Format is the detected container and codec.
	Format formatdetect.Info
	// FallbackUsed indicates whether the preferred backend failed and
	// another one took over.
	FallbackUsed bool
}

// Options configures the smart opener behavior.
type Options struct {
	// Backend forces a specific backend. BackendAuto (the default)
	// selects per file, with fallback.
	Backend Backend
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
	// FFprobePath is an optional custom path to the ffprobe binary.
	FFprobePath string
	// HWAccel asks ffmpeg to pick a hardware decoder when one exists.
	HWAccel bool
	// Logger is used for selection and fallback messages.
	Logger ports.Logger
}

// Opener routes each file to the cheapest decoder that can serve it.
//
// The selection flow:
//  1. Sniff the container and codec.
//  2. MJPEG inside MP4 goes to the in-process sample reader.
//  3. Everything else, and any in-process failure, goes to ffmpeg.
type Opener struct {
	backend Backend
	mp4     *mp4source.Opener
	ffmpeg  *ffmpegsource.Opener
	log     ports.Logger
}

// New creates a smart opener.
func New(opts Options) *Opener {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	backend := opts.Backend
	if backend == "" {
		backend = BackendAuto
	}
	ff := ffmpegsource.NewOpener(log)
	ff.FFmpegPath = opts.FFmpegPath
	ff.FFprobePath = opts.FFprobePath
	ff.HWAccel = opts.HWAccel

	return &Opener{
		backend: backend,
		mp4:     mp4source.NewOpener(),
		ffmpeg:  ff,
		log:     log.WithComponent("source"),
	}
}

// Open opens the file at path with the selected backend.
func (o *Opener) Open(path string) (ports.FrameSource, ports.SourceInfo, error) {
	src, info, _, err := o.OpenWithInfo(path)
	return src, info, err
}

// OpenWithInfo opens the file at path and also reports which backend
// was selected and why.
func (o *Opener) OpenWithInfo(path string) (ports.FrameSource, ports.SourceInfo, Info, error) {
	o.log.Debug("Probing %s", path)

	format, err := formatdetect.DetectFromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ports.SourceInfo{}, Info{}, fmt.Errorf("%w: %s", ports.ErrSourceNotFound, path)
		}
		// ffmpeg recognizes far more formats than the sniffer, so a
		// failed detection still deserves an attempt.
		o.log.Debug("Format detection failed for %s: %v", path, err)
	}

	sel := Info{Format: format}

	// A forced backend is used as-is, with no fallback.
	switch o.backend {
	case BackendMP4:
		src, info, err := o.mp4.Open(path)
		if err != nil {
			return nil, ports.SourceInfo{}, Info{}, err
		}
		sel.Backend = BackendMP4
		o.log.Debug("Opened %s with %s decoder", path, sel.Backend)
		return src, info, sel, nil
	case BackendFFmpeg:
		src, info, err := o.ffmpeg.Open(path)
		if err != nil {
			return nil, ports.SourceInfo{}, Info{}, err
		}
		sel.Backend = BackendFFmpeg
		o.log.Debug("Opened %s with %s decoder", path, sel.Backend)
		return src, info, sel, nil
	}

	if format.Container == formatdetect.ContainerMP4 && format.Codec == formatdetect.CodecMJPEG {
		src, info, err := o.mp4.Open(path)
		if err == nil {
			sel.Backend = BackendMP4
			o.log.Debug("Opened %s with %s decoder", path, sel.Backend)
			return src, info, sel, nil
		}
		o.log.Warn("Decoder %s failed, trying %s: %v", BackendMP4, BackendFFmpeg, err)
		sel.FallbackUsed = true
	}

	src, info, err := o.ffmpeg.Open(path)
	if err != nil {
		return nil, ports.SourceInfo{}, Info{}, err
	}
	sel.Backend = BackendFFmpeg
	o.log.Debug("Opened %s with %s decoder", path, sel.Backend)
	return src, info, sel, nil
}

var _ ports.SourceOpener = (*Opener)(nil)
