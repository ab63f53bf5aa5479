package player

// latencyTracker keeps a rolling window of recent decode durations and
// derives the adaptive buffer target from their average. Not safe for
// concurrent use; callers hold the player lock.
type latencyTracker struct {
	samples  []float64
	capacity int
}

func newLatencyTracker(capacity int) *latencyTracker {
	if capacity <= 0 {
		capacity = 1
	}
	return &latencyTracker{capacity: capacity}
}

// record adds one decode duration in seconds, evicting the oldest
// sample once the window is full.
func (t *latencyTracker) record(seconds float64) {
	if seconds < 0 {
		return
	}
	if len(t.samples) >= t.capacity {
		copy(t.samples, t.samples[1:])
		t.samples = t.samples[:len(t.samples)-1]
	}
	t.samples = append(t.samples, seconds)
}

func (t *latencyTracker) reset() {
	t.samples = t.samples[:0]
}

// average returns the mean decode duration in seconds, or 0 when no
// samples have been recorded.
func (t *latencyTracker) average() float64 {
	if len(t.samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range t.samples {
		sum += s
	}
	return sum / float64(len(t.samples))
}

// targetBufferSize sizes the buffer to hold roughly twice the frames a
// decode currently costs, clamped to the tuning bounds. Without
// samples it returns the default so a fresh session buffers
// conservatively instead of guessing.
func (t *latencyTracker) targetBufferSize(frameDurationMs float64, tn Tuning) int {
	if len(t.samples) == 0 || frameDurationMs <= 0 {
		return tn.BufferDefault
	}
	target := int(t.average() / (frameDurationMs / 1000.0) * 2)
	if target < tn.BufferMin {
		target = tn.BufferMin
	}
	if target > tn.BufferMax {
		target = tn.BufferMax
	}
	return target
}
