// Package stills exports annotated moments of a video as composed
// still images. A pipeline of three stages does the work: extract
// decodes the frame nearest each annotation, compose draws it onto a
// canvas with a footer carrying the game time, label and team badge,
// and write encodes and persists the result.
package stills

import (
	"image"
	"image/color"

	"github.com/user/replay/pkg/annotations"
	"github.com/user/replay/pkg/ports"
)

// Theme defines the still composition colors.
type Theme struct {
	BackgroundColor color.Color
	FooterColor     color.Color
	TextColor       color.Color
	HomeBadgeColor  color.Color
	AwayBadgeColor  color.Color
}

// DefaultTheme returns the standard dark footer theme.
func DefaultTheme() Theme {
	return Theme{
		BackgroundColor: color.RGBA{R: 16, G: 18, B: 21, A: 255},
		FooterColor:     color.RGBA{R: 28, G: 32, B: 37, A: 255},
		TextColor:       color.White,
		HomeBadgeColor:  color.RGBA{R: 46, G: 107, B: 51, A: 255},
		AwayBadgeColor:  color.RGBA{R: 130, G: 52, B: 52, A: 255},
	}
}

// ExtractInput names the annotated moments to pull out of a source.
type ExtractInput struct {
	Source ports.FrameSource
	Info   ports.SourceInfo
	Items  []annotations.Annotation
}

// ExtractResult carries the decoded frames in item order.
type ExtractResult struct {
	Frames []ExtractedFrame
}

// ExtractedFrame is one decoded annotation frame.
type ExtractedFrame struct {
	// Index is the position of the annotation in the export, used in
	// the output file name.
	Index int
	// FrameIndex is the source frame that was decoded.
	FrameIndex int
	Annotation annotations.Annotation
	Data       []byte
	Width      int
	Height     int
}

// ComposeInput contains parameters for still composition.
type ComposeInput struct {
	Frames []ExtractedFrame
	// Width is the target still width; frames are scaled to it.
	Width int
	// FooterHeight is the caption strip height under the frame.
	FooterHeight int
	Theme        Theme
}

// DefaultComposeInput returns ComposeInput with default values.
func DefaultComposeInput() ComposeInput {
	return ComposeInput{
		Width:        1280,
		FooterHeight: 72,
		Theme:        DefaultTheme(),
	}
}

// ComposeResult carries the composed stills in item order.
type ComposeResult struct {
	Stills []ComposedStill
}

// ComposedStill is one rendered still ready for encoding.
type ComposedStill struct {
	Index      int
	Annotation annotations.Annotation
	Image      image.Image
}

// WriteInput contains parameters for persisting stills.
type WriteInput struct {
	Stills  []ComposedStill
	OutDir  string
	Format  ports.ImageFormat
	Quality int
}

// WriteResult lists the files written.
type WriteResult struct {
	Paths []string
}
