// Package mp4source serves motion JPEG video straight from MP4
// containers. Frames are read positionally from the sample tables, so
// no external decoder process is involved.
package mp4source

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"sync"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/replay/pkg/ports"
)

// ErrClosed is returned by Decode after Close has been called.
var ErrClosed = errors.New("mp4source: closed")

// Opener opens MJPEG-in-MP4 files as frame sources.
type Opener struct{}

// NewOpener creates a new MP4 opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open parses the MP4 sample tables at path and returns a source that
// serves one JPEG sample per frame index.
func (o *Opener) Open(path string) (ports.FrameSource, ports.SourceInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.SourceInfo{}, fmt.Errorf("%w: %s", ports.ErrSourceNotFound, path)
		}
		return nil, ports.SourceInfo{}, fmt.Errorf("%w: %s: %v", ports.ErrSourceUnreadable, path, err)
	}

	src, info, err := openFile(f)
	if err != nil {
		f.Close()
		return nil, ports.SourceInfo{}, fmt.Errorf("%w: %s: %v", ports.ErrSourceUnreadable, path, err)
	}
	return src, info, nil
}

func openFile(f *os.File) (*Source, ports.SourceInfo, error) {
	// Progressive files are indexed without loading mdat; samples are
	// read with ReadAt during playback.
	mp4File, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("parse mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		// Fragment samples live in moof/mdat pairs. Re-parse eagerly so
		// GetFullSamples can hand the data out.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, ports.SourceInfo{}, fmt.Errorf("rewind: %w", err)
		}
		mp4File, err = mp4.DecodeFile(f)
		if err != nil {
			return nil, ports.SourceInfo{}, fmt.Errorf("parse mp4: %w", err)
		}
		return fragmentedSource(mp4File, f)
	}
	return progressiveSource(mp4File, f)
}

func progressiveSource(mp4File *mp4.File, f *os.File) (*Source, ports.SourceInfo, error) {
	if mp4File.Moov == nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("no moov box found")
	}
	trak := videoTrakFrom(mp4File.Moov)
	if trak == nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("no video track found")
	}
	visual, stbl, err := sampleEntryOf(trak)
	if err != nil {
		return nil, ports.SourceInfo{}, err
	}

	if stbl.Stsz == nil || stbl.Stsc == nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("missing stsz or stsc box")
	}
	count := int(stbl.Stsz.SampleNumber)
	if count == 0 {
		return nil, ports.SourceInfo{}, fmt.Errorf("no samples")
	}

	// Walk the chunk map once. Samples inside a chunk are contiguous, so
	// only a chunk change needs a fresh stco/co64 lookup.
	spans := make([]sampleSpan, 0, count)
	prevChunk := -1
	var next uint64
	for nr := 1; nr <= count; nr++ {
		chunkNr, _, err := stbl.Stsc.ChunkNrFromSampleNr(nr)
		if err != nil {
			return nil, ports.SourceInfo{}, fmt.Errorf("sample %d chunk: %w", nr, err)
		}
		if chunkNr != prevChunk {
			offset, err := chunkOffset(stbl, chunkNr)
			if err != nil {
				return nil, ports.SourceInfo{}, err
			}
			next = offset
			prevChunk = chunkNr
		}
		size := stbl.Stsz.GetSampleSize(nr)
		spans = append(spans, sampleSpan{offset: int64(next), size: int(size)})
		next += uint64(size)
	}

	if stbl.Stts == nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("no stts box found")
	}
	lastDecode, lastDur := stbl.Stts.GetDecodeTime(uint32(count))
	rate, err := frameRate(count, timescaleOf(trak), lastDecode+uint64(lastDur))
	if err != nil {
		return nil, ports.SourceInfo{}, err
	}

	src := &Source{r: f, closer: f, spans: spans, width: int(visual.Width), height: int(visual.Height)}
	return src, ports.SourceInfo{FrameRate: rate, TotalFrames: count}, nil
}

func fragmentedSource(mp4File *mp4.File, f *os.File) (*Source, ports.SourceInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("no init moov box found")
	}
	trak := videoTrakFrom(mp4File.Init.Moov)
	if trak == nil {
		return nil, ports.SourceInfo{}, fmt.Errorf("no video track found")
	}
	visual, _, err := sampleEntryOf(trak)
	if err != nil {
		return nil, ports.SourceInfo{}, err
	}

	trackID := trak.Tkhd.TrackID
	var trex *mp4.TrexBox
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var spans []sampleSpan
	var totalUnits uint64
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != trackID {
					continue
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, ports.SourceInfo{}, fmt.Errorf("fragment samples: %w", err)
				}
				for _, sample := range samples {
					spans = append(spans, sampleSpan{data: sample.Data, size: len(sample.Data)})
					totalUnits += uint64(sample.Dur)
				}
			}
		}
	}
	if len(spans) == 0 {
		return nil, ports.SourceInfo{}, fmt.Errorf("no samples")
	}
	rate, err := frameRate(len(spans), timescaleOf(trak), totalUnits)
	if err != nil {
		return nil, ports.SourceInfo{}, err
	}

	src := &Source{closer: f, spans: spans, width: int(visual.Width), height: int(visual.Height)}
	return src, ports.SourceInfo{FrameRate: rate, TotalFrames: len(spans)}, nil
}

func videoTrakFrom(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func sampleEntryOf(trak *mp4.TrakBox) (*mp4.VisualSampleEntryBox, *mp4.StblBox, error) {
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil, nil, fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl
	for _, child := range stbl.Stsd.Children {
		if visual, ok := child.(*mp4.VisualSampleEntryBox); ok {
			switch visual.Type() {
			case "jpeg", "mjpa", "mjpb":
				return visual, stbl, nil
			default:
				return nil, nil, fmt.Errorf("codec %s is not motion JPEG", visual.Type())
			}
		}
	}
	return nil, nil, fmt.Errorf("no visual sample entry found")
}

func chunkOffset(stbl *mp4.StblBox, chunkNr int) (uint64, error) {
	if stbl.Stco != nil {
		offset, err := stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, fmt.Errorf("chunk %d offset: %w", chunkNr, err)
		}
		return offset, nil
	}
	if stbl.Co64 != nil {
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk %d out of range", chunkNr)
		}
		return stbl.Co64.ChunkOffset[chunkNr-1], nil
	}
	return 0, fmt.Errorf("no stco or co64 box")
}

func timescaleOf(trak *mp4.TrakBox) uint32 {
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		return trak.Mdia.Mdhd.Timescale
	}
	return 1000
}

func frameRate(count int, timescale uint32, totalUnits uint64) (float64, error) {
	if totalUnits == 0 {
		return 0, fmt.Errorf("zero track duration")
	}
	return float64(count) * float64(timescale) / float64(totalUnits), nil
}

// sampleSpan locates one JPEG sample. Progressive files record the file
// offset; fragmented files carry the bytes directly.
type sampleSpan struct {
	offset int64
	size   int
	data   []byte
}

// Source serves JPEG samples from one parsed MP4 file.
type Source struct {
	mu     sync.Mutex
	r      io.ReaderAt
	closer io.Closer
	spans  []sampleSpan
	width  int
	height int
	closed bool
}

// Decode returns the JPEG sample at index. The sequential hint is
// accepted but makes no difference; every sample read is positional.
func (s *Source) Decode(index int, sequential bool) (ports.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ports.Frame{}, ErrClosed
	}
	if index < 0 {
		return ports.Frame{}, fmt.Errorf("%w: frame %d", ports.ErrDecodeFailed, index)
	}
	if index >= len(s.spans) {
		return ports.Frame{}, fmt.Errorf("%w: frame %d", ports.ErrEndOfStream, index)
	}

	sp := s.spans[index]
	buf := make([]byte, sp.size)
	if sp.data != nil {
		copy(buf, sp.data)
	} else if _, err := s.r.ReadAt(buf, sp.offset); err != nil {
		return ports.Frame{}, fmt.Errorf("%w: frame %d: %v", ports.ErrDecodeFailed, index, err)
	}
	if len(buf) < 2 || buf[0] != 0xFF || buf[1] != 0xD8 {
		return ports.Frame{}, fmt.Errorf("%w: frame %d is not a JPEG sample", ports.ErrDecodeFailed, index)
	}

	// Track headers usually declare the dimensions. Fall back to the
	// JPEG header of the first decoded sample when they are missing.
	if s.width == 0 || s.height == 0 {
		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(buf)); err == nil {
			s.width, s.height = cfg.Width, cfg.Height
		}
	}
	return ports.Frame{Data: buf, Width: s.width, Height: s.height}, nil
}

// Close closes the underlying file. Decode fails afterwards.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.spans = nil
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close mp4: %w", err)
	}
	return nil
}

var (
	_ ports.SourceOpener = (*Opener)(nil)
	_ ports.FrameSource  = (*Source)(nil)
)
