// Package ffmpegsource decodes video through an external ffmpeg
// process. The process streams MJPEG frames over a pipe; sequential
// reads reuse the pipe and positional reads restart it with a seek.
package ffmpegsource

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/user/replay/pkg/ports"
)

// ErrClosed is returned by Decode after Close has been called.
var ErrClosed = errors.New("ffmpegsource: closed")

// Opener opens video files by probing them with ffprobe.
type Opener struct {
	// FFmpegPath overrides the ffmpeg binary. Empty means "ffmpeg".
	FFmpegPath string
	// FFprobePath overrides the ffprobe binary. Empty means "ffprobe".
	FFprobePath string
	// HWAccel asks ffmpeg to pick a hardware decoder when one exists.
	HWAccel bool

	log ports.Logger
}

// NewOpener creates an opener that finds ffmpeg and ffprobe on PATH.
func NewOpener(log ports.Logger) *Opener {
	return &Opener{log: log.WithComponent("ffmpeg")}
}

func (o *Opener) ffmpegPath() string {
	if o.FFmpegPath != "" {
		return o.FFmpegPath
	}
	return "ffmpeg"
}

func (o *Opener) ffprobePath() string {
	if o.FFprobePath != "" {
		return o.FFprobePath
	}
	return "ffprobe"
}

// Open probes the file at path and returns a source that decodes it on
// demand. The decoder process starts lazily on the first Decode.
func (o *Opener) Open(path string) (ports.FrameSource, ports.SourceInfo, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ports.SourceInfo{}, fmt.Errorf("%w: %s", ports.ErrSourceNotFound, path)
		}
		return nil, ports.SourceInfo{}, fmt.Errorf("%w: %s: %v", ports.ErrSourceUnreadable, path, err)
	}

	info, width, height, err := o.probe(path)
	if err != nil {
		return nil, ports.SourceInfo{}, err
	}
	o.log.Debug("Probed %s: %d frames at %.2f fps", path, info.TotalFrames, info.FrameRate)

	src := &Source{
		ffmpeg:    o.ffmpegPath(),
		hwaccel:   o.HWAccel,
		path:      path,
		frameRate: info.FrameRate,
		total:     info.TotalFrames,
		width:     width,
		height:    height,
		cursor:    -1,
		log:       o.log,
	}
	return src, info, nil
}

// Source decodes frames from one video file through ffmpeg.
type Source struct {
	mu        sync.Mutex
	ffmpeg    string
	hwaccel   bool
	path      string
	frameRate float64
	total     int
	width     int
	height    int
	cursor    int
	pipe      *pipe
	closed    bool
	log       ports.Logger
}

// Decode returns the frame at index. A truthful sequential hint keeps
// the running decoder pipe; anything else restarts it at the target.
func (s *Source) Decode(index int, sequential bool) (ports.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ports.Frame{}, ErrClosed
	}
	if index < 0 {
		return ports.Frame{}, fmt.Errorf("%w: frame %d", ports.ErrDecodeFailed, index)
	}
	if index >= s.total {
		return ports.Frame{}, fmt.Errorf("%w: frame %d", ports.ErrEndOfStream, index)
	}

	if s.pipe == nil || !sequential || index != s.cursor+1 {
		if err := s.restartAt(index); err != nil {
			return ports.Frame{}, fmt.Errorf("%w: frame %d: %v", ports.ErrDecodeFailed, index, err)
		}
	}

	data, err := readFrame(s.pipe.out)
	if err != nil {
		p := s.pipe
		s.pipe = nil
		p.stop()
		if detail := p.stderrTail(); detail != "" {
			return ports.Frame{}, fmt.Errorf("%w: frame %d: %s", ports.ErrDecodeFailed, index, detail)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ports.Frame{}, fmt.Errorf("%w: frame %d", ports.ErrEndOfStream, index)
		}
		return ports.Frame{}, fmt.Errorf("%w: frame %d: %v", ports.ErrDecodeFailed, index, err)
	}
	s.cursor = index

	// Probe output usually carries the dimensions. Fall back to the
	// JPEG header of the first decoded frame when it does not.
	if s.width == 0 || s.height == 0 {
		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
			s.width, s.height = cfg.Width, cfg.Height
		}
	}
	return ports.Frame{Data: data, Width: s.width, Height: s.height}, nil
}

// restartAt replaces the decoder pipe with one seeked to index.
func (s *Source) restartAt(index int) error {
	if s.pipe != nil {
		s.pipe.stop()
		s.pipe = nil
		s.log.Debug("Restarting decoder pipe at frame %d", index)
	} else {
		s.log.Debug("Starting decoder pipe at frame %d", index)
	}
	s.cursor = index - 1

	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if s.hwaccel {
		args = append(args, "-hwaccel", "auto")
	}
	if index > 0 {
		// Aim half a frame early so float rounding cannot land the seek
		// on the following frame.
		seek := (float64(index) - 0.5) / s.frameRate
		args = append(args, "-ss", strconv.FormatFloat(seek, 'f', 6, 64))
	}
	args = append(args,
		"-i", s.path,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "2",
		"-vsync", "0",
		"pipe:1")

	p, err := startPipe(s.ffmpeg, args)
	if err != nil {
		return err
	}
	s.pipe = p
	return nil
}

// Close kills the decoder process. Decode fails afterwards.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.pipe != nil {
		s.pipe.stop()
		s.pipe = nil
	}
	return nil
}

// pipe wraps one running ffmpeg process and its MJPEG output stream.
type pipe struct {
	cmd  *exec.Cmd
	out  *bufio.Reader
	errs *bytes.Buffer
}

func startPipe(bin string, args []string) (*pipe, error) {
	cmd := exec.Command(bin, args...)
	var errs bytes.Buffer
	cmd.Stderr = &errs

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", bin, err)
	}
	return &pipe{cmd: cmd, out: bufio.NewReaderSize(stdout, 1<<16), errs: &errs}, nil
}

// stop kills the process and reaps it. Reading errs is only safe after
// stop has returned.
func (p *pipe) stop() {
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd.Wait()
}

func (p *pipe) stderrTail() string {
	s := strings.TrimSpace(p.errs.String())
	if len(s) > 200 {
		s = s[len(s)-200:]
	}
	return s
}

var (
	_ ports.SourceOpener = (*Opener)(nil)
	_ ports.FrameSource  = (*Source)(nil)
)
