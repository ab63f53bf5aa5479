package ports

// Frame is a single decoded video frame. Data holds the encoded or raw
// pixel payload exactly as the source produced it; it is owned by the
// receiver and must not be modified after delivery.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// SourceInfo describes an opened media source.
type SourceInfo struct {
	// FrameRate is the nominal frame rate in frames per second.
	FrameRate float64
	// TotalFrames is the number of decodable frames in the source.
	TotalFrames int
}

// FrameSource abstracts random access to the decoded frames of one open
// media file. Implementations may be slow; callers treat every method as
// potentially blocking. Implementations must tolerate Decode and Close
// being called from different goroutines, though never concurrently.
type FrameSource interface {
	// Decode returns the frame at the given zero-based index. When
	// sequential is true the caller asserts that index immediately
	// follows the previously decoded index, allowing the source to use a
	// cheaper read-next path instead of an explicit positional seek.
	Decode(index int, sequential bool) (Frame, error)

	// Close releases decoder resources. The source is unusable afterwards.
	Close() error
}

// SourceOpener opens media files and reports their properties.
type SourceOpener interface {
	// Open prepares the file at path for decoding. It returns the opened
	// source together with its properties, or an error when the file does
	// not exist or cannot be read as video.
	Open(path string) (FrameSource, SourceInfo, error)
}
