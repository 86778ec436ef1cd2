package video

// FrameBuffer is a bounded queue between the sampling/decode loop and the
// detection workers. Its capacity provides the back-pressure the decoder
// blocks on per the concurrency model: a full buffer stalls the producer
// instead of letting memory grow unbounded.
type FrameBuffer struct {
	ch chan sampledFrame
}

// NewFrameBuffer builds a FrameBuffer with the given capacity. Per spec,
// callers should pass max(8, 2*workers).
func NewFrameBuffer(capacity int) *FrameBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameBuffer{ch: make(chan sampledFrame, capacity)}
}

// Push enqueues f, blocking if the buffer is full.
func (b *FrameBuffer) Push(f sampledFrame) {
	b.ch <- f
}

// Close signals no more frames will be pushed.
func (b *FrameBuffer) Close() {
	close(b.ch)
}

// Channel exposes the underlying channel for ranging consumers.
func (b *FrameBuffer) Channel() <-chan sampledFrame {
	return b.ch
}

// BufferSize returns the conventional capacity for a given worker count.
func BufferSize(workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := 2 * workers
	if size < 8 {
		size = 8
	}
	return size
}
