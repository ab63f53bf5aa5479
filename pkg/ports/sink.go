package ports

import (
	"image"
)

// DebugSink abstracts diagnostic output for a playback or export session.
// It allows saving intermediate artifacts when diagnosing decode or
// pacing problems.
type DebugSink interface {
	// Enabled returns true if debug output is enabled. Callers skip
	// artifact preparation entirely when it is false.
	Enabled() bool

	// SaveProbeJSON saves the opened source properties as JSON.
	SaveProbeJSON(data []byte) error

	// SaveRawFrame saves the payload of an emitted frame.
	SaveRawFrame(index int, data []byte) error

	// SaveStill saves a rendered still image.
	SaveStill(name string, img image.Image) error

	// SaveSessionJSON saves the final session metrics as JSON.
	SaveSessionJSON(data []byte) error
}
