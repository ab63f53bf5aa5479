package stills

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/user/replay/pkg/ports"
)

// WriteStage encodes composed stills and persists them.
type WriteStage struct {
	renderer ports.Renderer
	fs       ports.FileSystem
	log      ports.Logger
}

// NewWriteStage creates a new write stage.
func NewWriteStage(renderer ports.Renderer, fs ports.FileSystem, log ports.Logger) *WriteStage {
	return &WriteStage{
		renderer: renderer,
		fs:       fs,
		log:      log.WithComponent("write"),
	}
}

// Execute writes each still to `<outDir>/<index>-<label>.<ext>`.
func (s *WriteStage) Execute(ctx context.Context, input WriteInput) (WriteResult, error) {
	if len(input.Stills) == 0 {
		return WriteResult{Paths: []string{}}, nil
	}

	if err := s.fs.MkdirAll(input.OutDir); err != nil {
		return WriteResult{}, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(input.Stills))
	for _, still := range input.Stills {
		select {
		case <-ctx.Done():
			return WriteResult{}, ctx.Err()
		default:
		}

		data, err := s.renderer.EncodeImage(still.Image, input.Format, input.Quality)
		if err != nil {
			return WriteResult{}, fmt.Errorf("encode still %d: %w", still.Index, err)
		}

		path := filepath.Join(input.OutDir, StillName(still.Index, string(still.Annotation.Label))+ext(input.Format))
		if err := s.fs.WriteFile(path, data); err != nil {
			return WriteResult{}, fmt.Errorf("write still %d: %w", still.Index, err)
		}
		s.log.Debug("Wrote %s (%d bytes)", path, len(data))
		paths = append(paths, path)
	}

	return WriteResult{Paths: paths}, nil
}

// StillName builds the file stem for a still, `<index>-<label>`.
func StillName(index int, label string) string {
	return fmt.Sprintf("%d-%s", index, label)
}

func ext(format ports.ImageFormat) string {
	if format == ports.FormatJPEG {
		return ".jpg"
	}
	return ".png"
}
