package ports

// EventSink receives playback notifications pushed by the engine.
//
// FrameReady and PlaybackFinished are normally invoked from the playback
// goroutine; a seek or step issued while paused emits FrameReady from the
// caller's goroutine instead. Implementations must be safe for calls from
// either and should return quickly, as slow sinks delay frame pacing.
type EventSink interface {
	// DurationChanged reports the total duration of a newly loaded source.
	DurationChanged(totalDurationMs int)

	// FrameReady delivers one decoded frame and its position on the
	// source timeline.
	FrameReady(frame Frame, positionMs int)

	// PlaybackFinished signals that the stream has been exhausted. The
	// engine is paused, not stopped, when this fires.
	PlaybackFinished()
}
