package mocks

import (
	"encoding/binary"
	"sync"

	"github.com/user/replay/pkg/ports"
)

// DecodeCall records one Decode invocation.
type DecodeCall struct {
	Index      int
	Sequential bool
}

// FrameSource is a mock implementation of ports.FrameSource. By
// default it synthesizes a small frame for any index inside the
// configured range and reports end of stream past it. Every call is
// recorded, even when a Func override is set.
type FrameSource struct {
	mu          sync.RWMutex
	totalFrames int
	decodeCalls []DecodeCall
	closeCalls  int

	DecodeFunc func(index int, sequential bool) (ports.Frame, error)
	CloseFunc  func() error
}

// NewFrameSource creates a mock source with totalFrames synthetic
// frames.
func NewFrameSource(totalFrames int) *FrameSource {
	return &FrameSource{totalFrames: totalFrames}
}

func (m *FrameSource) Decode(index int, sequential bool) (ports.Frame, error) {
	m.mu.Lock()
	m.decodeCalls = append(m.decodeCalls, DecodeCall{Index: index, Sequential: sequential})
	m.mu.Unlock()
	if m.DecodeFunc != nil {
		return m.DecodeFunc(index, sequential)
	}
	if index < 0 || index >= m.totalFrames {
		return ports.Frame{}, ports.ErrEndOfStream
	}
	return SyntheticFrame(index), nil
}

func (m *FrameSource) Close() error {
	m.mu.Lock()
	m.closeCalls++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// DecodeCalls returns a copy of the recorded Decode calls (for test
// verification).
func (m *FrameSource) DecodeCalls() []DecodeCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DecodeCall, len(m.decodeCalls))
	copy(out, m.decodeCalls)
	return out
}

// DecodeCount returns how many times Decode was called.
func (m *FrameSource) DecodeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.decodeCalls)
}

// CloseCount returns how many times Close was called.
func (m *FrameSource) CloseCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closeCalls
}

// SyntheticFrame builds a tiny frame whose payload encodes the index,
// so tests can check which frame arrived.
func SyntheticFrame(index int) ports.Frame {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(index))
	return ports.Frame{Data: data, Width: 2, Height: 2}
}

// FrameIndex recovers the index encoded by SyntheticFrame, or -1 for
// foreign payloads.
func FrameIndex(f ports.Frame) int {
	if len(f.Data) != 4 {
		return -1
	}
	return int(binary.BigEndian.Uint32(f.Data))
}

// SourceOpener is a mock implementation of ports.SourceOpener. By
// default every path opens the configured source.
type SourceOpener struct {
	mu        sync.RWMutex
	src       ports.FrameSource
	info      ports.SourceInfo
	openCalls []string

	OpenFunc func(path string) (ports.FrameSource, ports.SourceInfo, error)
}

// NewSourceOpener creates a mock opener that hands out src with info.
func NewSourceOpener(src ports.FrameSource, info ports.SourceInfo) *SourceOpener {
	return &SourceOpener{src: src, info: info}
}

func (m *SourceOpener) Open(path string) (ports.FrameSource, ports.SourceInfo, error) {
	m.mu.Lock()
	m.openCalls = append(m.openCalls, path)
	m.mu.Unlock()
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.src, m.info, nil
}

// OpenCalls returns the paths passed to Open (for test verification).
func (m *SourceOpener) OpenCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.openCalls))
	copy(out, m.openCalls)
	return out
}

var (
	_ ports.FrameSource  = (*FrameSource)(nil)
	_ ports.SourceOpener = (*SourceOpener)(nil)
)
