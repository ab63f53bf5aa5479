// Package player implements the playback engine: a background loop
// that decodes frames ahead of time, paces their delivery to match the
// source frame rate and playback speed, and reacts to commands such as
// seek, pause and speed changes without blocking the caller.
package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/replay/pkg/ports"
)

// Player owns one playback loop goroutine and at most one loaded
// source at a time. All exported methods are safe for concurrent use.
//
// Two locks are involved. mu guards the playback state (session,
// buffer, playhead, speed) and is never held across a frame decode
// except for the single synchronous decode of a paused seek or step.
// srcMu serializes calls into the FrameSource so Close never overlaps
// a Decode. mu may be taken before srcMu; never the other way around.
type Player struct {
	opener ports.SourceOpener
	events ports.EventSink
	log    ports.Logger
	tuning Tuning

	mu   sync.Mutex
	cond *sync.Cond

	sess       *session
	buf        frameBuffer
	latency    *latencyTracker
	current    int // index of the next frame to deliver
	paused     bool
	stopped    bool
	speed      float64
	seqCursor  int // last index decoded from the source, -1 when unknown
	generation uint64
	bufTarget  int

	started bool
	wg      sync.WaitGroup

	srcMu sync.Mutex

	// counters for Metrics, guarded by mu
	emitted         int
	skipped         int
	directDecodes   int
	prefetchBatches int
	urgentBursts    int
}

// New creates a player in the paused state with nothing loaded. The
// opener, event sink and logger must not be nil. Call Start to launch
// the playback loop and Stop to tear it down.
func New(opener ports.SourceOpener, events ports.EventSink, log ports.Logger, tuning Tuning) *Player {
	p := &Player{
		opener:    opener,
		events:    events,
		log:       log.WithComponent("player"),
		tuning:    tuning.sanitized(),
		paused:    true,
		speed:     1.0,
		seqCursor: -1,
	}
	p.cond = sync.NewCond(&p.mu)
	p.latency = newLatencyTracker(p.tuning.LatencyWindow)
	p.bufTarget = p.tuning.BufferDefault
	return p
}

// Start launches the playback loop goroutine. Calling Start on a
// running player is a no-op; calling it after Stop returns ErrStopped.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return nil
	}
	p.started = true
	p.wg.Add(1)
	go p.run()
	return nil
}

// Stop terminates the playback loop and releases the loaded source.
// It blocks until the loop goroutine has exited, so no frame events
// are delivered after Stop returns. A background refill burst may
// still be decoding; its results are discarded, and the source close
// waits for that one call to finish. Stop is idempotent and the
// player cannot be restarted afterwards.
func (p *Player) Stop() error {
	p.mu.Lock()
	already := p.stopped
	p.stopped = true
	p.generation++
	started := p.started
	p.cond.Broadcast()
	p.mu.Unlock()

	if started {
		p.wg.Wait()
	}
	if already {
		return nil
	}
	p.log.Debug("Playback loop stopped")
	return p.releaseSource()
}

// releaseSource closes the current source, if any, outside the state
// lock. Decode calls in flight hold srcMu, so the close waits for
// them.
func (p *Player) releaseSource() error {
	p.mu.Lock()
	var src ports.FrameSource
	if p.sess != nil {
		src = p.sess.src
		p.sess.src = nil
	}
	p.mu.Unlock()

	if src == nil {
		return nil
	}
	p.srcMu.Lock()
	err := src.Close()
	p.srcMu.Unlock()
	if err != nil {
		return fmt.Errorf("close source: %w", err)
	}
	return nil
}

// Load opens the file at path and makes it the active session. The
// previous source, if any, is closed. On success playback is paused at
// frame zero, a DurationChanged event is emitted and a background
// refill starts. On failure the existing session is left untouched.
func (p *Player) Load(path string) error {
	// open before touching any state so a failed open changes nothing
	src, info, err := p.opener.Open(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	if info.FrameRate <= 0 || info.TotalFrames < 0 {
		src.Close()
		return fmt.Errorf("load %s: frame rate %.3f, %d frames: %w",
			path, info.FrameRate, info.TotalFrames, ports.ErrSourceUnreadable)
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		src.Close()
		return ErrStopped
	}
	var oldSrc ports.FrameSource
	if p.sess != nil {
		oldSrc = p.sess.src
		p.sess.src = nil
	}
	p.sess = newSession(src, info)
	p.current = 0
	p.paused = true
	p.buf.clear()
	p.latency.reset()
	p.seqCursor = -1
	p.generation++
	gen := p.generation
	p.bufTarget = p.tuning.BufferDefault
	p.emitted, p.skipped, p.directDecodes, p.prefetchBatches, p.urgentBursts = 0, 0, 0, 0, 0
	durationMs := p.sess.totalDurationMs
	p.cond.Broadcast()
	p.mu.Unlock()

	if oldSrc != nil {
		p.srcMu.Lock()
		if err := oldSrc.Close(); err != nil {
			p.log.Warn("Closing previous source failed: %v", err)
		}
		p.srcMu.Unlock()
	}

	p.log.Info("Loaded %s: %d frames at %.2f fps", path, info.TotalFrames, info.FrameRate)
	p.events.DurationChanged(durationMs)
	p.urgentFill(gen)
	return nil
}

// decodeFrame calls into the source under srcMu and measures the call.
// The caller may hold mu; the reverse order is forbidden.
func (p *Player) decodeFrame(src ports.FrameSource, index int, sequential bool) (ports.Frame, time.Duration, error) {
	p.srcMu.Lock()
	start := time.Now()
	frame, err := src.Decode(index, sequential)
	elapsed := time.Since(start)
	p.srcMu.Unlock()
	return frame, elapsed, err
}

// endOfStream reports whether a decode error means the stream ended.
// Any mid-playback decode failure ends playback, but genuine failures
// are worth a log line while running off the end is not.
func endOfStream(err error) bool {
	return errors.Is(err, ports.ErrEndOfStream)
}
