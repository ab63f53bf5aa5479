package player

import "time"

// maybeRefill tops the buffer up to the adaptive target when occupancy
// has dropped below half of it. Called from the loop with mu held; the
// lock is released around each decode and reacquired to append, so
// commands stay responsive during a refill. Returns with mu held.
//
// The refill stops at the target, at the end of the stream, on the
// first decode failure, when the time budget runs out, or when the
// session it started for has been superseded.
func (p *Player) maybeRefill(gen uint64) {
	if p.sess == nil || p.sess.src == nil {
		return
	}
	sess := p.sess
	target := p.latency.targetBufferSize(sess.frameDurationMs, p.tuning)
	p.bufTarget = target
	if p.buf.len() >= target/2 {
		return
	}
	p.prefetchBatches++

	deadline := time.Now().Add(p.tuning.PrefetchBudget)
	for p.buf.len() < target {
		next := p.buf.nextIndex(p.current)
		if next >= sess.totalFrames {
			return
		}
		if !time.Now().Before(deadline) {
			return
		}
		sequential := next == p.seqCursor+1

		p.mu.Unlock()
		frame, took, err := p.decodeFrame(sess.src, next, sequential)
		p.mu.Lock()

		if p.stopped || p.generation != gen {
			return
		}
		if err != nil {
			if !endOfStream(err) {
				p.log.Debug("Prefetch decode of frame %d failed: %v", next, err)
			}
			return
		}
		p.latency.record(took.Seconds())
		p.seqCursor = next
		// a rejected push means an urgent burst appended this index
		// while we were decoding; recompute and carry on
		p.buf.push(frame, next, p.current)
	}
}

// urgentFill fires a short detached burst of decodes when the buffer
// is nearly empty right after a load or seek, so the first frames of
// the new position are ready before the loop needs them. The burst
// runs on its own goroutine, appends under the state lock, and checks
// the session generation before every append so a burst outlived by a
// seek, load or stop quietly becomes a no-op. Nothing ever waits for
// it.
func (p *Player) urgentFill(gen uint64) {
	p.mu.Lock()
	if p.stopped || p.generation != gen || p.sess == nil || p.sess.src == nil {
		p.mu.Unlock()
		return
	}
	if p.buf.len() >= p.tuning.UrgentThreshold {
		p.mu.Unlock()
		return
	}
	src := p.sess.src
	total := p.sess.totalFrames
	p.urgentBursts++
	p.mu.Unlock()

	go func() {
		for i := 0; i < p.tuning.UrgentBurst; i++ {
			p.mu.Lock()
			if p.stopped || p.generation != gen {
				p.mu.Unlock()
				return
			}
			next := p.buf.nextIndex(p.current)
			sequential := next == p.seqCursor+1
			p.mu.Unlock()
			if next >= total {
				return
			}

			frame, took, err := p.decodeFrame(src, next, sequential)

			p.mu.Lock()
			if p.stopped || p.generation != gen {
				p.mu.Unlock()
				return
			}
			if err != nil {
				p.mu.Unlock()
				return
			}
			p.latency.record(took.Seconds())
			p.seqCursor = next
			p.buf.push(frame, next, p.current)
			p.mu.Unlock()
		}
	}()
}
