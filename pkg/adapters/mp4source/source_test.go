package mp4source

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/replay/pkg/ports"
)

// minimalJPEG builds the shortest byte stream image/jpeg accepts for
// DecodeConfig: an SOI marker followed by an SOF0 header.
func minimalJPEG(width, height int) []byte {
	return []byte{
		0xFF, 0xD8,
		0xFF, 0xC0, 0x00, 0x11, 0x08,
		byte(height >> 8), byte(height), byte(width >> 8), byte(width),
		0x03,
		0x01, 0x22, 0x00,
		0x02, 0x11, 0x01,
		0x03, 0x11, 0x01,
	}
}

// testSource lays the given samples out back to back in a flat buffer
// and builds a progressive-style source over it.
func testSource(samples ...[]byte) *Source {
	var file []byte
	var spans []sampleSpan
	for _, s := range samples {
		spans = append(spans, sampleSpan{offset: int64(len(file)), size: len(s)})
		file = append(file, s...)
	}
	return &Source{r: bytes.NewReader(file), spans: spans}
}

func TestOpener_MissingFile(t *testing.T) {
	_, _, err := NewOpener().Open(filepath.Join(t.TempDir(), "absent.mp4"))
	if !errors.Is(err, ports.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestOpener_GarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.mp4")
	if err := os.WriteFile(path, []byte("this is not an mp4 container"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, _, err := NewOpener().Open(path)
	if !errors.Is(err, ports.ErrSourceUnreadable) {
		t.Errorf("expected ErrSourceUnreadable, got %v", err)
	}
}

func TestSource_DecodeReadsSamples(t *testing.T) {
	first := minimalJPEG(320, 240)
	second := minimalJPEG(320, 240)
	src := testSource(first, second)

	frame, err := src.Decode(0, false)
	if err != nil {
		t.Fatalf("decode frame 0: %v", err)
	}
	if !bytes.Equal(frame.Data, first) {
		t.Errorf("frame 0 data does not match sample bytes")
	}
	if frame.Width != 320 || frame.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", frame.Width, frame.Height)
	}

	frame, err = src.Decode(1, true)
	if err != nil {
		t.Fatalf("decode frame 1: %v", err)
	}
	if !bytes.Equal(frame.Data, second) {
		t.Errorf("frame 1 data does not match sample bytes")
	}
}

func TestSource_DecodePastEnd(t *testing.T) {
	src := testSource(minimalJPEG(8, 8))

	if _, err := src.Decode(1, true); !errors.Is(err, ports.ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream at index 1, got %v", err)
	}
	if _, err := src.Decode(500, false); !errors.Is(err, ports.ErrEndOfStream) {
		t.Errorf("expected ErrEndOfStream at index 500, got %v", err)
	}
}

func TestSource_DecodeNegativeIndex(t *testing.T) {
	src := testSource(minimalJPEG(8, 8))

	if _, err := src.Decode(-1, false); !errors.Is(err, ports.ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestSource_DecodeRejectsNonJPEG(t *testing.T) {
	src := testSource([]byte("PLAINDATA"))

	if _, err := src.Decode(0, false); !errors.Is(err, ports.ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed for non-JPEG sample, got %v", err)
	}
}

func TestSource_DecodeAfterClose(t *testing.T) {
	src := testSource(minimalJPEG(8, 8))
	if err := src.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := src.Decode(0, false); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

type countingCloser struct {
	closes int
}

func (c *countingCloser) Close() error {
	c.closes++
	return nil
}

func TestSource_CloseIdempotent(t *testing.T) {
	closer := &countingCloser{}
	src := &Source{closer: closer}

	if err := src.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if closer.closes != 1 {
		t.Errorf("expected 1 close of the file, got %d", closer.closes)
	}
}

func TestSource_DeclaredDimensionsWin(t *testing.T) {
	// The sample is JPEG-framed but carries no parseable header. The
	// track-declared dimensions must be reported unchanged.
	src := testSource([]byte{0xFF, 0xD8, 0x00})
	src.width = 640
	src.height = 480

	frame, err := src.Decode(0, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if frame.Width != 640 || frame.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", frame.Width, frame.Height)
	}
}

func TestSource_FragmentedSamplesAreCopied(t *testing.T) {
	sample := minimalJPEG(16, 16)
	src := &Source{spans: []sampleSpan{{data: sample, size: len(sample)}}}

	frame, err := src.Decode(0, false)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	frame.Data[0] = 0x00

	again, err := src.Decode(0, false)
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if again.Data[0] != 0xFF {
		t.Errorf("stored sample was mutated through a delivered frame")
	}
}

func TestFrameRate(t *testing.T) {
	// 300 NTSC frames: timescale 30000, each sample 1001 units long.
	rate, err := frameRate(300, 30000, 300*1001)
	if err != nil {
		t.Fatalf("frame rate: %v", err)
	}
	if math.Abs(rate-29.97) > 0.01 {
		t.Errorf("expected about 29.97 fps, got %f", rate)
	}

	if _, err := frameRate(10, 1000, 0); err == nil {
		t.Errorf("expected error for zero duration")
	}
}
