package player

import (
	"fmt"
	"math"
)

// Play resumes delivery. A no-op when already playing. Returns
// ErrNoSession until a source has been loaded.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if p.sess == nil {
		return ErrNoSession
	}
	if !p.paused {
		return nil
	}
	p.paused = false
	p.cond.Broadcast()
	return nil
}

// Pause suspends delivery. The loop finishes the frame already in
// flight, then parks. A no-op when already paused.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	p.paused = true
	return nil
}

// Seek moves the playhead to the frame nearest positionMs. Positions
// past the end clamp to the final frame; negative positions are
// rejected with ErrInvalidSeekTarget. The buffer is discarded. When
// paused, the sought frame is decoded synchronously and emitted so the
// new position is visible immediately; when playing, the loop picks up
// the new position on its next iteration. Either way a background
// refill is started for the new position.
func (p *Player) Seek(positionMs int) error {
	if positionMs < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeekTarget, positionMs)
	}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.sess == nil {
		p.mu.Unlock()
		return ErrNoSession
	}
	sess := p.sess
	index := sess.indexForPosition(positionMs)
	p.current = index
	p.buf.clear()
	p.seqCursor = -1
	p.generation++
	gen := p.generation

	if !p.paused {
		p.mu.Unlock()
		p.log.Debug("Seek to %dms (frame %d)", positionMs, index)
		p.urgentFill(gen)
		return nil
	}

	// paused: one synchronous decode so the sought frame is shown
	frame, took, err := p.decodeFrame(sess.src, index, false)
	if err != nil {
		p.mu.Unlock()
		p.urgentFill(gen)
		if endOfStream(err) {
			return nil
		}
		return fmt.Errorf("seek to %dms: %w", positionMs, err)
	}
	p.latency.record(took.Seconds())
	p.seqCursor = index
	p.emitted++
	position := sess.positionForIndex(index)
	p.mu.Unlock()

	p.log.Debug("Seek to %dms (frame %d)", positionMs, index)
	p.events.FrameReady(frame, position)
	p.urgentFill(gen)
	return nil
}

// SetSpeed sets the playback speed multiplier, clamped to the tuning
// bounds, and returns the value actually applied. Takes effect on the
// next pacing interval, never the one in flight.
func (p *Player) SetSpeed(speed float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if math.IsNaN(speed) || speed < p.tuning.SpeedMin {
		speed = p.tuning.SpeedMin
	} else if speed > p.tuning.SpeedMax {
		speed = p.tuning.SpeedMax
	}
	p.speed = speed
	return speed
}

// Speed returns the current playback speed multiplier.
func (p *Player) Speed() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speed
}

// StepForward shows the next frame while paused. A no-op while
// playing or at the final frame.
func (p *Player) StepForward() error { return p.step(1) }

// StepBackward shows the previous frame while paused. A no-op while
// playing or at frame zero.
func (p *Player) StepBackward() error { return p.step(-1) }

func (p *Player) step(delta int) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.sess == nil {
		p.mu.Unlock()
		return ErrNoSession
	}
	if !p.paused {
		p.mu.Unlock()
		return nil
	}
	sess := p.sess
	target := p.current + delta
	if target < 0 || target >= sess.totalFrames {
		// steps never move past the edges, and emit nothing there
		p.mu.Unlock()
		return nil
	}
	sequential := target == p.seqCursor+1
	frame, took, err := p.decodeFrame(sess.src, target, sequential)
	if err != nil {
		p.mu.Unlock()
		if endOfStream(err) {
			return nil
		}
		return fmt.Errorf("step to frame %d: %w", target, err)
	}
	p.latency.record(took.Seconds())
	p.current = target
	p.seqCursor = target
	p.emitted++
	position := sess.positionForIndex(target)
	p.mu.Unlock()

	p.events.FrameReady(frame, position)
	return nil
}

// PositionMs returns the playhead position in milliseconds, 0 when
// nothing is loaded. After playback runs out it reads as the total
// duration until the next seek.
func (p *Player) PositionMs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sess == nil {
		return 0
	}
	return p.sess.positionForIndex(p.current)
}

// Status is a point-in-time snapshot of the player state.
type Status struct {
	Loaded          bool
	Playing         bool
	Stopped         bool
	FrameRate       float64
	TotalFrames     int
	TotalDurationMs int
	CurrentIndex    int
	PositionMs      int
	Speed           float64
	Buffered        int
	BufferTarget    int
}

// Status reports the current playback state in one consistent
// snapshot.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{
		Stopped:      p.stopped,
		Playing:      !p.paused && !p.stopped && p.sess != nil,
		CurrentIndex: p.current,
		Speed:        p.speed,
		Buffered:     p.buf.len(),
		BufferTarget: p.bufTarget,
	}
	if p.sess != nil {
		st.Loaded = true
		st.FrameRate = p.sess.frameRate
		st.TotalFrames = p.sess.totalFrames
		st.TotalDurationMs = p.sess.totalDurationMs
		st.PositionMs = p.sess.positionForIndex(p.current)
	}
	return st
}
