package report

import (
	"fmt"
	"strings"
)

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// NewTextFormatter returns a Formatter producing the compact console
// form printed after playback.
func NewTextFormatter() Formatter {
	return FormatFunc(func(s *Summary) string {
		var b strings.Builder

		fmt.Fprintf(&b, "Source:    %s (%s, %.2f fps, %d frames, %d ms)\n",
			s.Source.Path, s.Source.Decoder, s.Source.FrameRate,
			s.Source.TotalFrames, s.Source.DurationMs)
		fmt.Fprintf(&b, "Delivered: %d frames in %d ms (%.2f fps realized, %s)\n",
			s.Playback.FramesEmitted, s.Playback.WallClockMs,
			s.Playback.RealizedFPS(), formatBytes(s.Playback.BytesDelivered))
		fmt.Fprintf(&b, "Skipped:   %d frames\n", s.Playback.FramesSkipped)
		fmt.Fprintf(&b, "Decode:    %.2f ms avg, %d direct, %d prefetch batches, %d urgent bursts\n",
			s.Playback.AvgDecodeMs, s.Playback.DirectDecodes,
			s.Playback.PrefetchBatches, s.Playback.UrgentBursts)
		fmt.Fprintf(&b, "Settings:  speed %.2fx, buffer %d, frame skip %s\n",
			s.Settings.Speed, s.Settings.BufferTarget, onOff(s.Settings.FrameSkip))

		return b.String()
	})
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
