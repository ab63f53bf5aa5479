package mocks

import (
	"sync"

	"github.com/user/replay/pkg/ports"
)

// FrameReadyCall records one delivered frame.
type FrameReadyCall struct {
	Frame      ports.Frame
	PositionMs int
}

// EventSink is a mock implementation of ports.EventSink. It records
// every event; the optional Func hooks run after recording, which is
// handy for signalling a test through a channel.
type EventSink struct {
	mu        sync.RWMutex
	durations []int
	frames    []FrameReadyCall
	finished  int

	DurationChangedFunc  func(totalDurationMs int)
	FrameReadyFunc       func(frame ports.Frame, positionMs int)
	PlaybackFinishedFunc func()
}

// NewEventSink creates an empty recording sink.
func NewEventSink() *EventSink {
	return &EventSink{}
}

func (m *EventSink) DurationChanged(totalDurationMs int) {
	m.mu.Lock()
	m.durations = append(m.durations, totalDurationMs)
	m.mu.Unlock()
	if m.DurationChangedFunc != nil {
		m.DurationChangedFunc(totalDurationMs)
	}
}

func (m *EventSink) FrameReady(frame ports.Frame, positionMs int) {
	m.mu.Lock()
	m.frames = append(m.frames, FrameReadyCall{Frame: frame, PositionMs: positionMs})
	m.mu.Unlock()
	if m.FrameReadyFunc != nil {
		m.FrameReadyFunc(frame, positionMs)
	}
}

func (m *EventSink) PlaybackFinished() {
	m.mu.Lock()
	m.finished++
	m.mu.Unlock()
	if m.PlaybackFinishedFunc != nil {
		m.PlaybackFinishedFunc()
	}
}

// Durations returns the recorded DurationChanged values.
func (m *EventSink) Durations() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.durations))
	copy(out, m.durations)
	return out
}

// Frames returns a copy of the recorded FrameReady calls.
func (m *EventSink) Frames() []FrameReadyCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FrameReadyCall, len(m.frames))
	copy(out, m.frames)
	return out
}

// FrameCount returns how many frames have been delivered.
func (m *EventSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.frames)
}

// LastFrame returns the most recent FrameReady call.
func (m *EventSink) LastFrame() (FrameReadyCall, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.frames) == 0 {
		return FrameReadyCall{}, false
	}
	return m.frames[len(m.frames)-1], true
}

// FinishedCount returns how many PlaybackFinished events arrived.
func (m *EventSink) FinishedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finished
}

var _ ports.EventSink = (*EventSink)(nil)
