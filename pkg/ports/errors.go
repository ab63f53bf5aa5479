package ports

import "errors"

// Contract errors for FrameSource and SourceOpener implementations.
// Adapters wrap these with context; callers match with errors.Is.
var (
	// ErrSourceNotFound is returned by Open when the path does not
	// resolve to a readable file.
	ErrSourceNotFound = errors.New("source: file not found")

	// ErrSourceUnreadable is returned by Open when the file exists but
	// cannot be read as video.
	ErrSourceUnreadable = errors.New("source: unreadable")

	// ErrDecodeFailed is returned by Decode when a frame cannot be
	// decoded.
	ErrDecodeFailed = errors.New("source: decode failed")

	// ErrEndOfStream is returned by Decode for indices past the last
	// frame. It is an expected terminal condition, not a failure.
	ErrEndOfStream = errors.New("source: end of stream")
)
