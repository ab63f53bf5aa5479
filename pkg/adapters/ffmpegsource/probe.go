package ffmpegsource

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/user/replay/pkg/ports"
)

type probeResult struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	NbFrames     string `json:"nb_frames"`
	Duration     string `json:"duration"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// probe asks ffprobe for the properties of the first video stream.
func (o *Opener) probe(path string) (ports.SourceInfo, int, int, error) {
	out, err := exec.Command(o.ffprobePath(),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		path).Output()
	if err != nil {
		detail := err.Error()
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			detail = strings.TrimSpace(string(ee.Stderr))
		}
		return ports.SourceInfo{}, 0, 0, fmt.Errorf("%w: %s: probe: %s", ports.ErrSourceUnreadable, path, detail)
	}

	info, width, height, err := parseProbeOutput(out)
	if err != nil {
		return ports.SourceInfo{}, 0, 0, fmt.Errorf("%w: %s: %v", ports.ErrSourceUnreadable, path, err)
	}
	return info, width, height, nil
}

// parseProbeOutput extracts frame rate and frame count from ffprobe
// JSON. Files that do not report nb_frames fall back to duration times
// rate, preferring the stream duration over the container duration.
func parseProbeOutput(data []byte) (ports.SourceInfo, int, int, error) {
	var result probeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ports.SourceInfo{}, 0, 0, fmt.Errorf("parse probe output: %w", err)
	}
	if len(result.Streams) == 0 {
		return ports.SourceInfo{}, 0, 0, fmt.Errorf("no video stream found")
	}
	st := result.Streams[0]

	rate := parseRational(st.RFrameRate)
	if rate <= 0 {
		rate = parseRational(st.AvgFrameRate)
	}
	if rate <= 0 {
		return ports.SourceInfo{}, 0, 0, fmt.Errorf("no usable frame rate")
	}

	total, err := strconv.Atoi(st.NbFrames)
	if err != nil || total <= 0 {
		duration := parseRational(st.Duration)
		if duration <= 0 {
			duration = parseRational(result.Format.Duration)
		}
		if duration <= 0 {
			return ports.SourceInfo{}, 0, 0, fmt.Errorf("cannot determine frame count")
		}
		total = int(duration*rate + 0.5)
	}
	if total <= 0 {
		return ports.SourceInfo{}, 0, 0, fmt.Errorf("cannot determine frame count")
	}

	return ports.SourceInfo{FrameRate: rate, TotalFrames: total}, st.Width, st.Height, nil
}

// parseRational parses ffprobe numbers, which arrive either as plain
// decimals or as fractions like "30000/1001". Anything unusable is 0.
func parseRational(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
