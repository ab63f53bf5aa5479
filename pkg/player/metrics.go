package player

// Metrics counts what the engine did for the current session. All
// counters reset on Load.
type Metrics struct {
	// FramesEmitted counts FrameReady events, including the single
	// emissions of paused seeks and steps.
	FramesEmitted int

	// FramesSkipped counts buffered frames discarded to catch up with
	// the pacing target.
	FramesSkipped int

	// DirectDecodes counts loop iterations that found the buffer
	// empty and decoded inline.
	DirectDecodes int

	// PrefetchBatches counts inline refills, UrgentBursts the
	// detached refills fired after loads and seeks.
	PrefetchBatches int
	UrgentBursts    int

	// AvgDecodeMs is the rolling average decode latency.
	AvgDecodeMs float64

	// Buffered and BufferTarget describe the read-ahead buffer at the
	// time of the snapshot.
	Buffered     int
	BufferTarget int
}

// Metrics returns a snapshot of the session counters.
func (p *Player) Metrics() Metrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Metrics{
		FramesEmitted:   p.emitted,
		FramesSkipped:   p.skipped,
		DirectDecodes:   p.directDecodes,
		PrefetchBatches: p.prefetchBatches,
		UrgentBursts:    p.urgentBursts,
		AvgDecodeMs:     p.latency.average() * 1000.0,
		Buffered:        p.buf.len(),
		BufferTarget:    p.bufTarget,
	}
}
