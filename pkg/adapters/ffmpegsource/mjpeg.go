package ffmpegsource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const (
	soiMarker = 0xD8
	eoiMarker = 0xD9
	sosMarker = 0xDA
	temMarker = 0x01
)

// readFrame reads one complete JPEG image from an MJPEG stream. It
// follows the segment structure, so marker-like byte pairs inside
// entropy-coded data never end a frame early.
func readFrame(r *bufio.Reader) ([]byte, error) {
	if err := syncToStart(r); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	buf.WriteByte(soiMarker)

	var pending byte
	hasPending := false
	for {
		var marker byte
		if hasPending {
			marker, hasPending = pending, false
		} else {
			m, err := nextMarker(r)
			if err != nil {
				return nil, err
			}
			marker = m
		}
		buf.WriteByte(0xFF)
		buf.WriteByte(marker)

		switch {
		case marker == eoiMarker:
			return buf.Bytes(), nil
		case marker == temMarker || (marker >= 0xD0 && marker <= 0xD7):
			// standalone markers carry no payload
		case marker == sosMarker:
			if err := copySegment(r, &buf); err != nil {
				return nil, err
			}
			stop, err := copyEntropy(r, &buf)
			if err != nil {
				return nil, err
			}
			pending, hasPending = stop, true
		default:
			if err := copySegment(r, &buf); err != nil {
				return nil, err
			}
		}
	}
}

// syncToStart consumes bytes until an SOI marker has been read.
func syncToStart(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != 0xFF {
			continue
		}
		c, err := r.ReadByte()
		if err != nil {
			return err
		}
		if c == soiMarker {
			return nil
		}
		if c == 0xFF {
			if err := r.UnreadByte(); err != nil {
				return err
			}
		}
	}
}

// nextMarker reads the next marker code, tolerating fill bytes.
func nextMarker(r *bufio.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xFF {
		return 0, fmt.Errorf("expected marker, got 0x%02X", b)
	}
	for {
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if c == 0xFF {
			continue
		}
		if c == 0x00 {
			return 0, fmt.Errorf("expected marker, got stuffed byte")
		}
		return c, nil
	}
}

// copySegment copies one length-prefixed segment body.
func copySegment(r *bufio.Reader, buf *bytes.Buffer) error {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	buf.Write(hdr[:])
	length := int(hdr[0])<<8 | int(hdr[1])
	if length < 2 {
		return fmt.Errorf("invalid segment length %d", length)
	}
	if _, err := io.CopyN(buf, r, int64(length-2)); err != nil {
		return err
	}
	return nil
}

// copyEntropy copies entropy-coded data, keeping stuffed 0xFF00 pairs
// and restart markers inline. It returns the marker code that ended the
// run without writing it.
func copyEntropy(r *bufio.Reader, buf *bytes.Buffer) (byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xFF {
			buf.WriteByte(b)
			continue
		}
		c, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch {
		case c == 0x00:
			buf.WriteByte(0xFF)
			buf.WriteByte(0x00)
		case c >= 0xD0 && c <= 0xD7:
			buf.WriteByte(0xFF)
			buf.WriteByte(c)
		case c == 0xFF:
			// fill byte, re-examine from the second 0xFF
			if err := r.UnreadByte(); err != nil {
				return 0, err
			}
		default:
			return c, nil
		}
	}
}
