package player

import "time"

// Tuning holds the pacing and buffering knobs of the playback engine.
// Zero or negative fields are replaced with their defaults, so a
// partially filled struct is safe to pass to New.
type Tuning struct {
	// SpeedMin and SpeedMax bound the playback speed multiplier.
	// SetSpeed clamps to this range.
	SpeedMin float64
	SpeedMax float64

	// SkipThresholdMs is how far past the target frame interval the
	// loop may run before it starts discarding buffered frames.
	SkipThresholdMs float64

	// MaxSkipFrames caps the frames discarded in one catch-up so a
	// long stall never turns into a visual jump.
	MaxSkipFrames int

	// BufferMin, BufferMax and BufferDefault bound the adaptive
	// buffer target. BufferDefault applies until decode latency has
	// been sampled.
	BufferMin     int
	BufferMax     int
	BufferDefault int

	// LatencyWindow is the number of recent decode durations kept for
	// the rolling average.
	LatencyWindow int

	// PrefetchBudget bounds one inline refill so a slow source cannot
	// stall the loop for longer than this.
	PrefetchBudget time.Duration

	// UrgentThreshold and UrgentBurst control the detached refill
	// fired after a load or seek: when fewer than UrgentThreshold
	// frames are buffered, up to UrgentBurst frames are decoded in the
	// background.
	UrgentThreshold int
	UrgentBurst     int

	// DisableFrameSkip turns off catch-up discarding. Playback then
	// drifts behind wall-clock time under decode pressure instead of
	// dropping frames.
	DisableFrameSkip bool
}

// DefaultTuning returns the tuning used when none is supplied.
func DefaultTuning() Tuning {
	return Tuning{
		SpeedMin:        0.25,
		SpeedMax:        4.0,
		SkipThresholdMs: 10,
		MaxSkipFrames:   5,
		BufferMin:       5,
		BufferMax:       30,
		BufferDefault:   20,
		LatencyWindow:   10,
		PrefetchBudget:  100 * time.Millisecond,
		UrgentThreshold: 3,
		UrgentBurst:     5,
	}
}

// ConstrainedTuning returns a tuning with a smaller buffer appetite,
// for memory-constrained hosts or very large frames.
func ConstrainedTuning() Tuning {
	t := DefaultTuning()
	t.BufferDefault = 10
	t.BufferMax = 15
	return t
}

// sanitized fills zero or invalid fields from DefaultTuning and
// repairs inconsistent bounds.
func (t Tuning) sanitized() Tuning {
	d := DefaultTuning()
	if t.SpeedMin <= 0 {
		t.SpeedMin = d.SpeedMin
	}
	if t.SpeedMax <= 0 {
		t.SpeedMax = d.SpeedMax
	}
	if t.SpeedMax < t.SpeedMin {
		t.SpeedMax = t.SpeedMin
	}
	if t.SkipThresholdMs <= 0 {
		t.SkipThresholdMs = d.SkipThresholdMs
	}
	if t.MaxSkipFrames <= 0 {
		t.MaxSkipFrames = d.MaxSkipFrames
	}
	if t.BufferMin <= 0 {
		t.BufferMin = d.BufferMin
	}
	if t.BufferMax <= 0 {
		t.BufferMax = d.BufferMax
	}
	if t.BufferMax < t.BufferMin {
		t.BufferMax = t.BufferMin
	}
	if t.BufferDefault <= 0 {
		t.BufferDefault = d.BufferDefault
	}
	if t.LatencyWindow <= 0 {
		t.LatencyWindow = d.LatencyWindow
	}
	if t.PrefetchBudget <= 0 {
		t.PrefetchBudget = d.PrefetchBudget
	}
	if t.UrgentThreshold < 0 {
		t.UrgentThreshold = d.UrgentThreshold
	}
	if t.UrgentBurst <= 0 {
		t.UrgentBurst = d.UrgentBurst
	}
	return t
}
