package report

import (
	"fmt"
	"strings"
)

// MarkdownFormatter formats a Summary as a markdown document.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate section and item
// labels. The default leaves labels unchanged.
func WithTranslator(translate func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = translate
	}
}

// WithVersion includes the tool version in the generated header.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a markdown formatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(key string) string { return key },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Playback Summary"))
	if f.version != "" {
		fmt.Fprintf(&b, "%s replay %s, %s\n\n", t("Generated by"),
			f.version, s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	} else {
		fmt.Fprintf(&b, "%s %s\n\n", t("Generated at"),
			s.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	}

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	f.table(&b, [][2]string{
		{t("Path"), s.Source.Path},
		{t("Decoder"), s.Source.Decoder},
		{t("Frame Rate"), fmt.Sprintf("%.2f fps", s.Source.FrameRate)},
		{t("Total Frames"), fmt.Sprintf("%d", s.Source.TotalFrames)},
		{t("Duration"), fmt.Sprintf("%d ms", s.Source.DurationMs)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Playback"))
	f.table(&b, [][2]string{
		{t("Frames Delivered"), fmt.Sprintf("%d", s.Playback.FramesEmitted)},
		{t("Frames Skipped"), fmt.Sprintf("%d", s.Playback.FramesSkipped)},
		{t("Realized FPS"), fmt.Sprintf("%.2f", s.Playback.RealizedFPS())},
		{t("Average Decode"), fmt.Sprintf("%.2f ms", s.Playback.AvgDecodeMs)},
		{t("Direct Decodes"), fmt.Sprintf("%d", s.Playback.DirectDecodes)},
		{t("Prefetch Batches"), fmt.Sprintf("%d", s.Playback.PrefetchBatches)},
		{t("Urgent Bursts"), fmt.Sprintf("%d", s.Playback.UrgentBursts)},
		{t("Data Delivered"), formatBytes(s.Playback.BytesDelivered)},
		{t("Wall Clock"), fmt.Sprintf("%d ms", s.Playback.WallClockMs)},
		{t("Completed"), f.yesNo(s.Playback.Finished)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	f.table(&b, [][2]string{
		{t("Speed"), fmt.Sprintf("%.2fx", s.Settings.Speed)},
		{t("Buffer Target"), fmt.Sprintf("%d", s.Settings.BufferTarget)},
		{t("Frame Skip"), f.onOff(s.Settings.FrameSkip)},
		{t("Hardware Decode"), f.onOff(s.Settings.HWAccel)},
	})

	return b.String()
}

func (f *MarkdownFormatter) table(b *strings.Builder, rows [][2]string) {
	t := f.translate
	fmt.Fprintf(b, "| %s | %s |\n", t("Item"), t("Value"))
	fmt.Fprintf(b, "|------|-------|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row[0], row[1])
	}
	fmt.Fprintf(b, "\n")
}

func (f *MarkdownFormatter) yesNo(v bool) string {
	if v {
		return f.translate("Yes")
	}
	return f.translate("No")
}

func (f *MarkdownFormatter) onOff(v bool) string {
	if v {
		return f.translate("On")
	}
	return f.translate("Off")
}

// formatBytes renders a byte count in human-readable form with a
// 1024 base.
func formatBytes(bytes int64) string {
	switch {
	case bytes >= 1024*1024*1024:
		return fmt.Sprintf("%.2f GB", float64(bytes)/(1024*1024*1024))
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.2f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

var _ Formatter = (*MarkdownFormatter)(nil)
