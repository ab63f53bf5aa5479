package player

import "github.com/user/replay/pkg/ports"

// bufferedFrame pairs a decoded frame with the index it was decoded
// at, so consumers can verify ordering instead of trusting it.
type bufferedFrame struct {
	frame ports.Frame
	index int
}

// frameBuffer is the FIFO of frames decoded ahead of the playhead. It
// only ever holds a contiguous ascending run of indices. Not safe for
// concurrent use; callers hold the player lock.
type frameBuffer struct {
	frames []bufferedFrame
}

func (b *frameBuffer) len() int {
	return len(b.frames)
}

func (b *frameBuffer) clear() {
	b.frames = b.frames[:0]
}

// nextIndex returns the index the next append must carry: the index
// after the buffered run, or current when the buffer is empty.
func (b *frameBuffer) nextIndex(current int) int {
	if len(b.frames) == 0 {
		return current
	}
	return b.frames[len(b.frames)-1].index + 1
}

// push appends a frame if it extends the contiguous run. It reports
// whether the frame was accepted; a rejected frame means another
// decoder got there first and the caller should recompute its target.
func (b *frameBuffer) push(frame ports.Frame, index, current int) bool {
	if index != b.nextIndex(current) {
		return false
	}
	b.frames = append(b.frames, bufferedFrame{frame: frame, index: index})
	return true
}

// popFront removes and returns the oldest buffered frame.
func (b *frameBuffer) popFront() (bufferedFrame, bool) {
	if len(b.frames) == 0 {
		return bufferedFrame{}, false
	}
	bf := b.frames[0]
	// shift instead of reslicing so popped frame data is released
	copy(b.frames, b.frames[1:])
	b.frames[len(b.frames)-1] = bufferedFrame{}
	b.frames = b.frames[:len(b.frames)-1]
	return bf, true
}

// dropStale discards leading frames older than index. Stale entries
// appear when the playhead advanced past the buffered run, for example
// after a direct decode raced a background refill.
func (b *frameBuffer) dropStale(index int) int {
	dropped := 0
	for len(b.frames) > 0 && b.frames[0].index < index {
		b.popFront()
		dropped++
	}
	return dropped
}
