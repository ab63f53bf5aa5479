// Package filesink saves debug artifacts under a base directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/replay/pkg/ports"
)

// Sink writes probe output, emitted frames, rendered stills and the
// session report to files for offline inspection.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a sink rooted at baseDir.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveProbeJSON saves the opened source properties as JSON.
func (s *Sink) SaveProbeJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "probe.json")
	return s.fs.WriteFile(path, data)
}

// SaveRawFrame saves the payload of an emitted frame.
func (s *Sink) SaveRawFrame(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.jpg", index))
	return s.fs.WriteFile(path, data)
}

// SaveStill saves a rendered still as PNG.
func (s *Sink) SaveStill(name string, img image.Image) error {
	dir := filepath.Join(s.baseDir, "stills")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode still %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".png")
	return s.fs.WriteFile(path, data)
}

// SaveSessionJSON saves the final session metrics as JSON.
func (s *Sink) SaveSessionJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "session.json")
	return s.fs.WriteFile(path, data)
}

var _ ports.DebugSink = (*Sink)(nil)
