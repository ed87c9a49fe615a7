package tracker

import "sync/atomic"

// RingBuffer is a lock-free byte queue between exactly one writer (the frame
// producer) and one reader (the audio device). The writer only ever writes
// whole frames, see Free. Reads never block: when the buffer runs dry the
// rest of the read is filled with silence and an underrun is counted.
type RingBuffer struct {
	buf   []byte
	align int

	// total bytes written and read, the difference is the fill level
	written   atomic.Uint64
	read      atomic.Uint64
	underruns atomic.Uint64
}

// NewRingBuffer returns a ring buffer of size bytes. Reads are served in
// multiples of align bytes, the size of one sample frame, so that a short
// read never splits a sample.
func NewRingBuffer(size, align int) *RingBuffer {
	align = max(align, 1)
	size = max(size/align, 1) * align
	return &RingBuffer{buf: make([]byte, size), align: align}
}

// Cap returns the size of the buffer in bytes.
func (r *RingBuffer) Cap() int { return len(r.buf) }

// Len returns the number of bytes waiting to be read.
func (r *RingBuffer) Len() int {
	return int(r.written.Load() - r.read.Load())
}

// Free returns the number of bytes that can be written without overwriting
// unread data.
func (r *RingBuffer) Free() int { return len(r.buf) - r.Len() }

// Underruns returns the number of reads that ran out of data.
func (r *RingBuffer) Underruns() uint64 { return r.underruns.Load() }

// Write queues as much of p as fits and returns the number of bytes queued.
// Only the producer goroutine may call Write.
func (r *RingBuffer) Write(p []byte) (int, error) {
	n := min(len(p), r.Free())
	w := r.written.Load()
	pos := int(w % uint64(len(r.buf)))
	c := copy(r.buf[pos:], p[:n])
	copy(r.buf, p[c:n])
	r.written.Store(w + uint64(n))
	return n, nil
}

// Read fills p with queued bytes, padding with zeros if there are not enough.
// It always returns len(p). Only the consumer goroutine may call Read.
func (r *RingBuffer) Read(p []byte) (int, error) {
	rd := r.read.Load()
	avail := int(r.written.Load() - rd)
	n := min(len(p), avail)
	n -= n % r.align
	pos := int(rd % uint64(len(r.buf)))
	c := copy(p[:n], r.buf[pos:])
	copy(p[c:n], r.buf)
	r.read.Store(rd + uint64(n))
	if n < len(p) {
		clear(p[n:])
		r.underruns.Add(1)
	}
	return len(p), nil
}

// Reset discards the queued bytes. It must not run concurrently with Read or
// Write.
func (r *RingBuffer) Reset() {
	r.read.Store(r.written.Load())
}
