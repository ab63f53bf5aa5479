// Package formatdetect identifies the container and video codec of a
// file so the right playback source can be chosen for it.
package formatdetect

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// Codec represents a video codec type.
type Codec string

const (
	CodecMJPEG   Codec = "mjpeg"
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecMPEG4   Codec = "mpeg4"
	CodecUnknown Codec = "unknown"
)

// Container represents a media container family.
type Container string

const (
	ContainerMP4      Container = "mp4"
	ContainerAVI      Container = "avi"
	ContainerMatroska Container = "matroska"
	ContainerUnknown  Container = "unknown"
)

// Info is the result of a detection.
type Info struct {
	Container Container
	Codec     Codec
}

// String renders the detection as "container/codec" for logs.
func (i Info) String() string {
	return string(i.Container) + "/" + string(i.Codec)
}

// DetectFromFile identifies the container and video codec of the file
// at path.
func DetectFromFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{ContainerUnknown, CodecUnknown}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return DetectFromReader(f)
}

// DetectFromReader identifies container and codec from an
// io.ReadSeeker. The reader is left positioned at the start.
func DetectFromReader(reader io.ReadSeeker) (Info, error) {
	header := make([]byte, 12)
	n, err := reader.Read(header)
	if err != nil && err != io.EOF {
		return Info{ContainerUnknown, CodecUnknown}, fmt.Errorf("read header: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{ContainerUnknown, CodecUnknown}, fmt.Errorf("seek: %w", err)
	}

	container := sniffContainer(header[:n])
	if container != ContainerMP4 {
		// codec detection only walks MP4 sample tables; other
		// containers are routed to the external decoder as-is
		return Info{container, CodecUnknown}, nil
	}

	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return Info{ContainerMP4, CodecUnknown}, fmt.Errorf("decode mp4: %w", err)
	}
	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Info{ContainerMP4, CodecUnknown}, fmt.Errorf("seek: %w", err)
	}

	codec, err := codecFromMP4File(mp4File)
	if err != nil {
		return Info{ContainerMP4, CodecUnknown}, err
	}
	return Info{ContainerMP4, codec}, nil
}

// DetectFromBytes identifies container and codec from data in memory.
func DetectFromBytes(data []byte) (Info, error) {
	return DetectFromReader(bytes.NewReader(data))
}

// sniffContainer recognizes a container family from the first bytes of
// the file.
func sniffContainer(header []byte) Container {
	if len(header) >= 8 {
		switch string(header[4:8]) {
		case "ftyp", "moov", "mdat", "free", "skip", "wide":
			return ContainerMP4
		}
	}
	if len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "AVI " {
		return ContainerAVI
	}
	if len(header) >= 4 && bytes.Equal(header[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return ContainerMatroska
	}
	return ContainerUnknown
}

func codecFromMP4File(mp4File *mp4.File) (Codec, error) {
	// fragmented files carry the sample description in the init segment
	if mp4File.IsFragmented() {
		if mp4File.Init != nil && mp4File.Init.Moov != nil {
			for _, trak := range mp4File.Init.Moov.Traks {
				if codec := codecFromTrack(trak); codec != CodecUnknown {
					return codec, nil
				}
			}
		}
	}

	if mp4File.Moov != nil {
		for _, trak := range mp4File.Moov.Traks {
			if codec := codecFromTrack(trak); codec != CodecUnknown {
				return codec, nil
			}
		}
	}

	return CodecUnknown, fmt.Errorf("no video track found")
}

func codecFromTrack(trak *mp4.TrakBox) Codec {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return CodecUnknown
	}
	if trak.Mdia.Hdlr.HandlerType != "vide" {
		return CodecUnknown
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return CodecUnknown
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "jpeg", "mjpa", "mjpb":
			return CodecMJPEG
		case "avc1", "avc3":
			return CodecH264
		case "hvc1", "hev1":
			return CodecHEVC
		case "av01":
			return CodecAV1
		case "mp4v":
			return CodecMPEG4
		}
	}

	return CodecUnknown
}
