package stills

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/annotations"
	"github.com/user/replay/pkg/mocks"
	"github.com/user/replay/pkg/ports"
)

func composedStill(index int, label annotations.Label) ComposedStill {
	return ComposedStill{
		Index:      index,
		Annotation: ann(index*1000, label, annotations.TeamHome),
		Image:      image.NewRGBA(image.Rect(0, 0, 4, 4)),
	}
}

func TestWrite_EncodesAndPersists(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			if format != ports.FormatPNG {
				t.Errorf("encoded with format %v, want PNG", format)
			}
			if quality != 90 {
				t.Errorf("encoded with quality %d, want 90", quality)
			}
			return []byte("encoded"), nil
		},
	}
	fs := mocks.NewFileSystem()
	stage := NewWriteStage(renderer, fs, logger.NewNoop())

	result, err := stage.Execute(context.Background(), WriteInput{
		Stills: []ComposedStill{
			composedStill(0, annotations.LabelGoal),
			composedStill(1, annotations.LabelCorner),
		},
		OutDir:  "out",
		Format:  ports.FormatPNG,
		Quality: 90,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []string{
		filepath.Join("out", "0-GOAL.png"),
		filepath.Join("out", "1-CORNER.png"),
	}
	if len(result.Paths) != len(want) {
		t.Fatalf("wrote %d files, want %d", len(result.Paths), len(want))
	}
	for i, path := range want {
		if result.Paths[i] != path {
			t.Errorf("path %d = %s, want %s", i, result.Paths[i], path)
		}
		data, ok := fs.File(path)
		if !ok {
			t.Errorf("%s was not written", path)
			continue
		}
		if string(data) != "encoded" {
			t.Errorf("%s holds %q, want encoded payload", path, data)
		}
	}

	if exists, _ := fs.Exists("out"); !exists {
		t.Error("output directory was not created")
	}
}

func TestWrite_JPEGExtension(t *testing.T) {
	fs := mocks.NewFileSystem()
	stage := NewWriteStage(&mocks.Renderer{}, fs, logger.NewNoop())

	result, err := stage.Execute(context.Background(), WriteInput{
		Stills: []ComposedStill{composedStill(2, annotations.LabelFreeKick)},
		OutDir: "out",
		Format: ports.FormatJPEG,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Paths) != 1 || !strings.HasSuffix(result.Paths[0], "2-FREE KICK.jpg") {
		t.Errorf("paths = %v, want one .jpg file", result.Paths)
	}
}

func TestWrite_EmptyStills(t *testing.T) {
	fs := mocks.NewFileSystem()
	stage := NewWriteStage(&mocks.Renderer{}, fs, logger.NewNoop())

	result, err := stage.Execute(context.Background(), WriteInput{OutDir: "out"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Paths) != 0 {
		t.Errorf("wrote %d files for no stills", len(result.Paths))
	}
	if fs.WriteCount() != 0 {
		t.Errorf("issued %d writes for no stills", fs.WriteCount())
	}
}

func TestWrite_EncodeErrorSurfaces(t *testing.T) {
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("encoder broke")
		},
	}
	stage := NewWriteStage(renderer, mocks.NewFileSystem(), logger.NewNoop())

	_, err := stage.Execute(context.Background(), WriteInput{
		Stills: []ComposedStill{composedStill(0, annotations.LabelGoal)},
		OutDir: "out",
	})
	if err == nil || !strings.Contains(err.Error(), "encode still 0") {
		t.Errorf("error = %v, want encode failure", err)
	}
}

func TestWrite_WriteErrorSurfaces(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.WriteFileFunc = func(path string, data []byte) error {
		return fmt.Errorf("disk full writing %s", path)
	}
	stage := NewWriteStage(&mocks.Renderer{}, fs, logger.NewNoop())

	_, err := stage.Execute(context.Background(), WriteInput{
		Stills: []ComposedStill{composedStill(0, annotations.LabelGoal)},
		OutDir: "out",
	})
	if err == nil || !strings.Contains(err.Error(), "write still 0") {
		t.Errorf("error = %v, want write failure", err)
	}
}

func TestWrite_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fs := mocks.NewFileSystem()
	stage := NewWriteStage(&mocks.Renderer{}, fs, logger.NewNoop())

	_, err := stage.Execute(ctx, WriteInput{
		Stills: []ComposedStill{composedStill(0, annotations.LabelGoal)},
		OutDir: "out",
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if fs.WriteCount() != 0 {
		t.Errorf("issued %d writes after cancellation", fs.WriteCount())
	}
}

func TestStillName(t *testing.T) {
	if got := StillName(7, "GOAL"); got != "7-GOAL" {
		t.Errorf("StillName = %s, want 7-GOAL", got)
	}
}
