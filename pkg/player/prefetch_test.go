package player

import (
	"errors"
	"testing"
	"time"

	"github.com/user/replay/pkg/adapters/logger"
	"github.com/user/replay/pkg/mocks"
	"github.com/user/replay/pkg/ports"
)

func TestPlayer_RefillFillsToTarget(t *testing.T) {
	p, src, _ := newTestPlayer(100, 30, quietTuning())
	startPlayer(t, p)
	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}

	p.mu.Lock()
	p.maybeRefill(p.generation)
	target := p.bufTarget
	got := p.buf.len()
	indices := make([]int, 0, got)
	for _, bf := range p.buf.frames {
		indices = append(indices, bf.index)
	}
	p.mu.Unlock()

	if target != DefaultTuning().BufferDefault {
		t.Errorf("expected default target %d before latency samples, got %d", DefaultTuning().BufferDefault, target)
	}
	if got != target {
		t.Errorf("expected buffer filled to %d, got %d", target, got)
	}
	for i, idx := range indices {
		if idx != i {
			t.Fatalf("expected contiguous run from 0, got %v", indices)
		}
	}
	// a fresh sequential fill advertises the cheap read path throughout
	for i, call := range src.DecodeCalls() {
		if !call.Sequential {
			t.Errorf("expected decode %d (frame %d) to be sequential", i, call.Index)
		}
	}
}

func TestPlayer_RefillHonorsBudget(t *testing.T) {
	tn := quietTuning()
	tn.PrefetchBudget = 30 * time.Millisecond
	src := mocks.NewFrameSource(100)
	src.DecodeFunc = func(index int, sequential bool) (ports.Frame, error) {
		time.Sleep(10 * time.Millisecond)
		return mocks.SyntheticFrame(index), nil
	}
	opener := mocks.NewSourceOpener(src, ports.SourceInfo{FrameRate: 30, TotalFrames: 100})
	p := New(opener, mocks.NewEventSink(), logger.NewNoop(), tn)
	startPlayer(t, p)
	if err := p.Load("slow.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}

	p.mu.Lock()
	p.maybeRefill(p.generation)
	got := p.buf.len()
	p.mu.Unlock()

	if got < 1 {
		t.Error("expected at least one frame before the budget ran out")
	}
	if got >= 10 {
		t.Errorf("expected the budget to stop the fill well short of target, got %d", got)
	}
}

func TestPlayer_RefillSkipsWhenHalfFull(t *testing.T) {
	p, src, _ := newTestPlayer(100, 30, quietTuning())
	startPlayer(t, p)
	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}

	p.mu.Lock()
	p.maybeRefill(p.generation)
	p.maybeRefill(p.generation)
	batches := p.prefetchBatches
	p.mu.Unlock()

	if batches != 1 {
		t.Errorf("expected the second refill to be a no-op, got %d batches", batches)
	}
	if n := src.DecodeCount(); n != DefaultTuning().BufferDefault {
		t.Errorf("expected %d decodes total, got %d", DefaultTuning().BufferDefault, n)
	}
}

func TestPlayer_RefillStopsOnDecodeFailure(t *testing.T) {
	src := mocks.NewFrameSource(100)
	src.DecodeFunc = func(index int, sequential bool) (ports.Frame, error) {
		if index >= 7 {
			return ports.Frame{}, errors.New("bitstream corrupt")
		}
		return mocks.SyntheticFrame(index), nil
	}
	opener := mocks.NewSourceOpener(src, ports.SourceInfo{FrameRate: 30, TotalFrames: 100})
	p := New(opener, mocks.NewEventSink(), logger.NewNoop(), quietTuning())
	startPlayer(t, p)
	if err := p.Load("corrupt.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}

	p.mu.Lock()
	p.maybeRefill(p.generation)
	got := p.buf.len()
	p.mu.Unlock()

	if got != 7 {
		t.Errorf("expected fill to stop at the failed frame with 7 buffered, got %d", got)
	}
}

func TestPlayer_UrgentFillIgnoresStaleGeneration(t *testing.T) {
	p, src, _ := newTestPlayer(100, 30, quietTuning())
	startPlayer(t, p)
	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}

	p.mu.Lock()
	stale := p.generation - 1
	p.mu.Unlock()
	p.urgentFill(stale)

	time.Sleep(20 * time.Millisecond)
	if n := src.DecodeCount(); n != 0 {
		t.Errorf("expected a stale burst to decode nothing, got %d decodes", n)
	}
	if m := p.Metrics(); m.UrgentBursts != 0 {
		t.Errorf("expected no burst launched, got %d", m.UrgentBursts)
	}
}

func TestPlayer_UrgentFillSupersededBySeek(t *testing.T) {
	release := make(chan struct{})
	src := mocks.NewFrameSource(100)
	src.DecodeFunc = func(index int, sequential bool) (ports.Frame, error) {
		if index == 0 {
			<-release
		}
		if index < 0 || index >= 100 {
			return ports.Frame{}, ports.ErrEndOfStream
		}
		return mocks.SyntheticFrame(index), nil
	}
	opener := mocks.NewSourceOpener(src, ports.SourceInfo{FrameRate: 100, TotalFrames: 100})
	sink := mocks.NewEventSink()
	p := New(opener, sink, logger.NewNoop(), DefaultTuning())
	startPlayer(t, p)

	// the load burst parks inside the decode of frame 0
	if err := p.Load("clip.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}
	waitFor(t, time.Second, "burst to start", func() bool { return src.DecodeCount() >= 1 })

	// the seek queues up behind the stuck decode, then supersedes the
	// burst once it gets through
	done := make(chan error, 1)
	go func() { done <- p.Seek(5000) }()
	time.Sleep(20 * time.Millisecond)
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("seek: %v", err)
	}

	waitFor(t, time.Second, "post-seek refill", func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.buf.len() >= 1
	})
	time.Sleep(30 * time.Millisecond)

	// nothing from the superseded burst may survive into the buffer
	p.mu.Lock()
	for _, bf := range p.buf.frames {
		if bf.index < 99 {
			t.Errorf("stale frame %d left in buffer after seek", bf.index)
		}
	}
	p.mu.Unlock()

	frames := sink.Frames()
	if len(frames) != 1 || mocks.FrameIndex(frames[0].Frame) != 99 {
		t.Errorf("expected only the sought frame 99 to be emitted, got %d frames", len(frames))
	}
}

func TestPlayer_BufferStaysContiguousUnderSeeks(t *testing.T) {
	p, _, _ := newTestPlayer(100000, 200, DefaultTuning())
	startPlayer(t, p)
	if err := p.Load("match.mp4"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.Play(); err != nil {
		t.Fatalf("play: %v", err)
	}

	// hammer seeks while the loop, refills and bursts all run, and
	// check the buffered run never tears
	for i := 0; i < 40; i++ {
		if err := p.Seek((i * 3701) % 60000); err != nil {
			t.Fatalf("seek %d: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)

		p.mu.Lock()
		for j := 1; j < p.buf.len(); j++ {
			if p.buf.frames[j].index != p.buf.frames[j-1].index+1 {
				p.mu.Unlock()
				t.Fatalf("buffer tore at sample %d: %d follows %d",
					i, p.buf.frames[j].index, p.buf.frames[j-1].index)
			}
		}
		p.mu.Unlock()
	}
}
