package player

import (
	"math"

	"github.com/user/replay/pkg/ports"
)

// session holds the immutable properties of one loaded source. Load
// replaces the whole session; nothing here changes while it is live,
// so the loop can work from a snapshot taken under the lock.
type session struct {
	src ports.FrameSource

	frameRate       float64
	totalFrames     int
	frameDurationMs float64
	totalDurationMs int
}

func newSession(src ports.FrameSource, info ports.SourceInfo) *session {
	s := &session{
		src:         src,
		frameRate:   info.FrameRate,
		totalFrames: info.TotalFrames,
	}
	s.frameDurationMs = 1000.0 / info.FrameRate
	s.totalDurationMs = int(math.Round(float64(info.TotalFrames) / info.FrameRate * 1000.0))
	return s
}

// positionForIndex maps a frame index to its timeline position in
// milliseconds. Truncated, so position*rate round-trips to the index.
func (s *session) positionForIndex(index int) int {
	return int(float64(index) * s.frameDurationMs)
}

// indexForPosition maps a millisecond position to the nearest frame
// index, clamped to the valid range.
func (s *session) indexForPosition(positionMs int) int {
	idx := int(math.Round(float64(positionMs) / s.frameDurationMs))
	if idx > s.totalFrames-1 {
		idx = s.totalFrames - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
