package player

import (
	"time"

	"github.com/user/replay/pkg/ports"
)

// run is the playback loop goroutine. It parks while paused, exits
// when stopped, and otherwise paces frames out of the buffer.
func (p *Player) run() {
	defer p.wg.Done()
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		for p.paused && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped {
			return
		}
		p.playRun()
	}
}

// playRun emits frames until the state leaves Playing. Called and
// returns with mu held. The lock is released around decodes, event
// delivery and the pacing sleep, so commands stay responsive while
// playback is running.
func (p *Player) playRun() {
	// pacing baseline; a pause never counts toward the next interval
	lastEmit := time.Now()

	for !p.paused && !p.stopped {
		iterStart := time.Now()
		gen := p.generation
		sess := p.sess
		if sess == nil || sess.src == nil {
			p.paused = true
			return
		}
		target := sess.frameDurationMs / p.speed

		p.buf.dropStale(p.current)

		// catch up by discarding buffered frames when delivery has
		// fallen behind the pacing target
		if !p.tuning.DisableFrameSkip {
			elapsed := time.Since(lastEmit).Seconds() * 1000.0
			if n := skipCount(elapsed, target, p.tuning.SkipThresholdMs, p.tuning.MaxSkipFrames); n > 0 {
				dropped := 0
				for i := 0; i < n; i++ {
					if _, ok := p.buf.popFront(); !ok {
						break
					}
					p.current++
					dropped++
				}
				if dropped > 0 {
					p.skipped += dropped
					p.log.Debug("Skipped %d frames to catch up (%.0fms behind)", dropped, elapsed-target)
				}
			}
		}

		// take the next frame from the buffer, or decode it directly
		// when the buffer cannot serve the playhead
		index := p.current
		var frame ports.Frame
		bf, ok := p.buf.popFront()
		if ok && bf.index != index {
			// the buffered run does not contain the playhead (a
			// paused step moved it back); rebuffer from here
			p.buf.clear()
			ok = false
		}
		if ok {
			frame = bf.frame
		} else {
			if index >= sess.totalFrames {
				p.finishPlayback()
				continue
			}
			sequential := index == p.seqCursor+1
			p.mu.Unlock()
			decoded, took, err := p.decodeFrame(sess.src, index, sequential)
			p.mu.Lock()
			if p.stopped {
				return
			}
			if p.generation != gen {
				// superseded by a seek or load; restart pacing there
				lastEmit = time.Now()
				continue
			}
			if err != nil {
				if !endOfStream(err) {
					p.log.Warn("Decode of frame %d failed, ending playback: %v", index, err)
				}
				p.finishPlayback()
				continue
			}
			p.latency.record(took.Seconds())
			p.seqCursor = index
			p.directDecodes++
			frame = decoded
		}

		p.current = index + 1
		p.emitted++
		position := sess.positionForIndex(index)
		p.mu.Unlock()
		p.events.FrameReady(frame, position)
		lastEmit = time.Now()
		p.mu.Lock()
		if p.stopped {
			return
		}

		if p.generation == gen {
			if p.current >= sess.totalFrames {
				p.finishPlayback()
				continue
			}
			p.maybeRefill(gen)
			if p.paused || p.stopped {
				continue
			}
		}

		// sleep out the rest of the frame interval
		spent := time.Since(iterStart)
		wait := time.Duration(target*float64(time.Millisecond)) - spent
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		p.mu.Unlock()
		time.Sleep(wait)
		p.mu.Lock()
	}
}

// finishPlayback pauses at the end of the stream and notifies the
// sink. The loop never stops itself, so a finished player can seek
// back and resume. Called with mu held; the event goes out unlocked.
func (p *Player) finishPlayback() {
	p.paused = true
	p.mu.Unlock()
	p.log.Debug("Playback finished")
	p.events.PlaybackFinished()
	p.mu.Lock()
}

// skipCount returns how many buffered frames to discard when elapsedMs
// has overshot targetMs by more than thresholdMs: one per whole frame
// interval in the overshoot, capped at maxSkip.
func skipCount(elapsedMs, targetMs, thresholdMs float64, maxSkip int) int {
	if targetMs <= 0 || elapsedMs <= targetMs+thresholdMs {
		return 0
	}
	n := int((elapsedMs - targetMs) / targetMs)
	if n > maxSkip {
		n = maxSkip
	}
	return n
}
