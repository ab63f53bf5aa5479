package stills

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/annotations"
	"github.com/user/replay/pkg/mocks"
	"github.com/user/replay/pkg/ports"
)

func ann(positionMs int, label annotations.Label, team annotations.Team) annotations.Annotation {
	return annotations.Annotation{
		GameTime:   annotations.FormatGameTime(positionMs),
		Label:      label,
		Position:   strconv.Itoa(positionMs),
		Team:       team,
		Visibility: "visible",
	}
}

func TestNearestFrame(t *testing.T) {
	// 25fps, 40ms per frame
	tests := []struct {
		positionMs int
		want       int
	}{
		{0, 0},
		{39, 1},
		{40, 1},
		{1000, 25},
		{1020, 26},
		{-5, 0},
		{999999, 99},
	}
	for _, tt := range tests {
		if got := nearestFrame(tt.positionMs, 40.0, 100); got != tt.want {
			t.Errorf("nearestFrame(%d) = %d, want %d", tt.positionMs, got, tt.want)
		}
	}
}

func TestExtract_DecodesNearestFrames(t *testing.T) {
	src := mocks.NewFrameSource(100)
	stage := NewExtractStage(logger.NewNoop())

	items := []annotations.Annotation{
		ann(0, annotations.LabelCorner, annotations.TeamHome),
		ann(1000, annotations.LabelGoal, annotations.TeamHome),
		ann(3980, annotations.LabelFreeKick, annotations.TeamAway),
	}
	result, err := stage.Execute(context.Background(), ExtractInput{
		Source: src,
		Info:   ports.SourceInfo{FrameRate: 25, TotalFrames: 100},
		Items:  items,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantIndices := []int{0, 25, 100 - 1}
	if len(result.Frames) != len(wantIndices) {
		t.Fatalf("extracted %d frames, want %d", len(result.Frames), len(wantIndices))
	}
	for i, frame := range result.Frames {
		if frame.Index != i {
			t.Errorf("frame %d has Index %d", i, frame.Index)
		}
		if frame.FrameIndex != wantIndices[i] {
			t.Errorf("frame %d decoded index %d, want %d", i, frame.FrameIndex, wantIndices[i])
		}
		if got := mocks.FrameIndex(ports.Frame{Data: frame.Data, Width: frame.Width, Height: frame.Height}); got != wantIndices[i] {
			t.Errorf("frame %d payload encodes %d, want %d", i, got, wantIndices[i])
		}
		if frame.Annotation.Label != items[i].Label {
			t.Errorf("frame %d carries label %s, want %s", i, frame.Annotation.Label, items[i].Label)
		}
	}
}

func TestExtract_SequentialHintForAdjacentFrames(t *testing.T) {
	src := mocks.NewFrameSource(100)
	stage := NewExtractStage(logger.NewNoop())

	items := []annotations.Annotation{
		ann(40, annotations.LabelGoal, annotations.TeamHome),
		ann(80, annotations.LabelPositionalAttack, annotations.TeamHome),
		ann(2000, annotations.LabelFreeKick, annotations.TeamAway),
	}
	_, err := stage.Execute(context.Background(), ExtractInput{
		Source: src,
		Info:   ports.SourceInfo{FrameRate: 25, TotalFrames: 100},
		Items:  items,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	calls := src.DecodeCalls()
	want := []mocks.DecodeCall{
		{Index: 1, Sequential: false},
		{Index: 2, Sequential: true},
		{Index: 50, Sequential: false},
	}
	if len(calls) != len(want) {
		t.Fatalf("decode calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

func TestExtract_EmptyItems(t *testing.T) {
	src := mocks.NewFrameSource(10)
	stage := NewExtractStage(logger.NewNoop())

	result, err := stage.Execute(context.Background(), ExtractInput{
		Source: src,
		Info:   ports.SourceInfo{FrameRate: 25, TotalFrames: 10},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Frames) != 0 {
		t.Errorf("extracted %d frames from empty items", len(result.Frames))
	}
	if src.DecodeCount() != 0 {
		t.Errorf("decoded %d frames for empty items", src.DecodeCount())
	}
}

func TestExtract_DecodeErrorSurfaces(t *testing.T) {
	src := mocks.NewFrameSource(10)
	src.DecodeFunc = func(index int, sequential bool) (ports.Frame, error) {
		return ports.Frame{}, ports.ErrDecodeFailed
	}
	stage := NewExtractStage(logger.NewNoop())

	_, err := stage.Execute(context.Background(), ExtractInput{
		Source: src,
		Info:   ports.SourceInfo{FrameRate: 25, TotalFrames: 10},
		Items:  []annotations.Annotation{ann(0, annotations.LabelGoal, annotations.TeamHome)},
	})
	if !errors.Is(err, ports.ErrDecodeFailed) {
		t.Errorf("error = %v, want ErrDecodeFailed", err)
	}
}

func TestExtract_RejectsBadFrameRate(t *testing.T) {
	stage := NewExtractStage(logger.NewNoop())
	_, err := stage.Execute(context.Background(), ExtractInput{
		Source: mocks.NewFrameSource(10),
		Info:   ports.SourceInfo{FrameRate: 0, TotalFrames: 10},
		Items:  []annotations.Annotation{ann(0, annotations.LabelGoal, annotations.TeamHome)},
	})
	if err == nil {
		t.Error("zero frame rate did not error")
	}
}

func TestExtract_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := NewExtractStage(logger.NewNoop())
	_, err := stage.Execute(ctx, ExtractInput{
		Source: mocks.NewFrameSource(10),
		Info:   ports.SourceInfo{FrameRate: 25, TotalFrames: 10},
		Items:  []annotations.Annotation{ann(0, annotations.LabelGoal, annotations.TeamHome)},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
