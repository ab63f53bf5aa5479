package stills

import (
	"context"
	"fmt"
	"math"

	"github.com/user/replay/pkg/ports"
)

// ExtractStage decodes the frame nearest each annotation.
type ExtractStage struct {
	log ports.Logger
}

// NewExtractStage creates a new extract stage.
func NewExtractStage(log ports.Logger) *ExtractStage {
	return &ExtractStage{log: log.WithComponent("extract")}
}

// Execute decodes one frame per annotation, in item order.
func (s *ExtractStage) Execute(ctx context.Context, input ExtractInput) (ExtractResult, error) {
	if len(input.Items) == 0 {
		return ExtractResult{Frames: []ExtractedFrame{}}, nil
	}
	if input.Info.FrameRate <= 0 {
		return ExtractResult{}, fmt.Errorf("frame rate %.2f is not usable", input.Info.FrameRate)
	}

	frameDurMs := 1000.0 / input.Info.FrameRate
	frames := make([]ExtractedFrame, 0, len(input.Items))
	prev := -2

	for i, ann := range input.Items {
		select {
		case <-ctx.Done():
			return ExtractResult{}, ctx.Err()
		default:
		}

		index := nearestFrame(ann.PositionMs(), frameDurMs, input.Info.TotalFrames)
		frame, err := input.Source.Decode(index, index == prev+1)
		if err != nil {
			return ExtractResult{}, fmt.Errorf("decode frame %d for %s: %w", index, ann.Label, err)
		}
		prev = index

		s.log.Debug("Extracted frame %d for %s at %s", index, ann.Label, ann.GameTime)
		frames = append(frames, ExtractedFrame{
			Index:      i,
			FrameIndex: index,
			Annotation: ann,
			Data:       frame.Data,
			Width:      frame.Width,
			Height:     frame.Height,
		})
	}

	return ExtractResult{Frames: frames}, nil
}

// nearestFrame maps a millisecond position to the nearest frame
// index, clamped to the valid range. Same rounding as the playback
// engine, so an exported still matches what a paused seek shows.
func nearestFrame(positionMs int, frameDurMs float64, totalFrames int) int {
	idx := int(math.Round(float64(positionMs) / frameDurMs))
	if idx > totalFrames-1 {
		idx = totalFrames - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
