package stills

import (
	"context"
	"fmt"

	"github.com/user/replay/pkg/annotations"
	"github.com/user/replay/pkg/pipeline"
	"github.com/user/replay/pkg/ports"
)

// ExportInput is everything an export run needs.
type ExportInput struct {
	SourcePath string
	Source     ports.FrameSource
	Info       ports.SourceInfo
	Items      []annotations.Annotation

	OutDir       string
	Format       ports.ImageFormat
	Quality      int
	Width        int
	FooterHeight int
	Theme        Theme
}

// Result summarizes an export run.
type Result struct {
	Count  int
	OutDir string
	Paths  []string
}

// Exporter coordinates the extract, compose and write stages.
type Exporter struct {
	extract pipeline.Stage[ExtractInput, ExtractResult]
	compose pipeline.Stage[ComposeInput, ComposeResult]
	write   pipeline.Stage[WriteInput, WriteResult]
	sink    ports.DebugSink
	log     ports.Logger
}

// New creates an Exporter from its stages.
func New(
	extract pipeline.Stage[ExtractInput, ExtractResult],
	compose pipeline.Stage[ComposeInput, ComposeResult],
	write pipeline.Stage[WriteInput, WriteResult],
	sink ports.DebugSink,
	log ports.Logger,
) *Exporter {
	return &Exporter{
		extract: extract,
		compose: compose,
		write:   write,
		sink:    sink,
		log:     log,
	}
}

// NewDefault wires an Exporter with the standard stages.
func NewDefault(renderer ports.Renderer, fs ports.FileSystem, sink ports.DebugSink, log ports.Logger) *Exporter {
	return New(
		NewExtractStage(log),
		NewComposeStage(renderer, log, 0),
		NewWriteStage(renderer, fs, log),
		sink,
		log,
	)
}

// Run executes the export pipeline.
func (e *Exporter) Run(ctx context.Context, input ExportInput) (Result, error) {
	e.log.Info("Extracting %d stills from %s", len(input.Items), input.SourcePath)

	extracted, err := e.extract.Execute(ctx, ExtractInput{
		Source: input.Source,
		Info:   input.Info,
		Items:  input.Items,
	})
	if err != nil {
		e.log.Error("Failed to extract frames: %s", err)
		return Result{}, fmt.Errorf("extract stage: %w", err)
	}

	composeInput := DefaultComposeInput()
	if input.Width > 0 {
		composeInput.Width = input.Width
	}
	if input.FooterHeight > 0 {
		composeInput.FooterHeight = input.FooterHeight
	}
	if input.Theme != (Theme{}) {
		composeInput.Theme = input.Theme
	}
	composeInput.Frames = extracted.Frames

	e.log.Info("Composing %d stills", len(extracted.Frames))
	composed, err := e.compose.Execute(ctx, composeInput)
	if err != nil {
		e.log.Error("Failed to compose stills: %s", err)
		return Result{}, fmt.Errorf("compose stage: %w", err)
	}

	if e.sink.Enabled() {
		for _, still := range composed.Stills {
			e.sink.SaveStill(StillName(still.Index, string(still.Annotation.Label)), still.Image)
		}
	}

	written, err := e.write.Execute(ctx, WriteInput{
		Stills:  composed.Stills,
		OutDir:  input.OutDir,
		Format:  input.Format,
		Quality: input.Quality,
	})
	if err != nil {
		e.log.Error("Failed to write stills: %s", err)
		return Result{}, fmt.Errorf("write stage: %w", err)
	}

	e.log.Info("Stills written to %s", input.OutDir)

	return Result{
		Count:  len(written.Paths),
		OutDir: input.OutDir,
		Paths:  written.Paths,
	}, nil
}
