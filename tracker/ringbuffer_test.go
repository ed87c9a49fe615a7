package tracker_test

import (
	"bytes"
	"runtime"
	"sync"
	"testing"

	"github.com/stoneface86/trackerboy-sub003/tracker"
)

func TestRingBufferWrap(t *testing.T) {
	r := tracker.NewRingBuffer(8, 2)
	buf := make([]byte, 4)
	for i := range 10 {
		in := []byte{byte(i), byte(i + 1), byte(i + 2), byte(i + 3)}
		if n, _ := r.Write(in); n != 4 {
			t.Fatalf("write %d: wrote %d bytes", i, n)
		}
		if n, _ := r.Read(buf); n != 4 || !bytes.Equal(buf, in) {
			t.Fatalf("read %d: got %v, expected %v", i, buf[:n], in)
		}
	}
	if r.Underruns() != 0 {
		t.Fatalf("%d underruns", r.Underruns())
	}
}

func TestRingBufferFull(t *testing.T) {
	r := tracker.NewRingBuffer(8, 1)
	if n, _ := r.Write(make([]byte, 12)); n != 8 {
		t.Fatalf("wrote %d bytes into an 8 byte buffer", n)
	}
	if r.Free() != 0 || r.Len() != 8 {
		t.Fatalf("Free %d Len %d", r.Free(), r.Len())
	}
	if n, _ := r.Write([]byte{1}); n != 0 {
		t.Fatalf("wrote %d bytes into a full buffer", n)
	}
}

func TestRingBufferUnderrun(t *testing.T) {
	r := tracker.NewRingBuffer(16, 4)
	r.Write([]byte{1, 2, 3, 4, 5, 6})
	buf := []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	if n, err := r.Read(buf); n != len(buf) || err != nil {
		t.Fatalf("Read returned %d, %v", n, err)
	}
	// only whole 4 byte frames are read, the rest is silence
	if want := []byte{1, 2, 3, 4, 0, 0, 0, 0, 0, 0}; !bytes.Equal(buf, want) {
		t.Fatalf("got %v, expected %v", buf, want)
	}
	if r.Underruns() != 1 {
		t.Fatalf("%d underruns, expected 1", r.Underruns())
	}
	if r.Len() != 2 {
		t.Fatalf("%d bytes left, expected 2", r.Len())
	}
}

func TestRingBufferConcurrent(t *testing.T) {
	const total = 1 << 16
	r := tracker.NewRingBuffer(64, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var b byte
		for written := 0; written < total; {
			chunk := make([]byte, min(7, total-written))
			for i := range chunk {
				chunk[i] = b + byte(i)
			}
			n, _ := r.Write(chunk)
			b += byte(n)
			written += n
		}
	}()
	var next byte
	buf := make([]byte, 5)
	for read := 0; read < total; {
		k := min(len(buf), total-read)
		if r.Len() < k {
			runtime.Gosched()
			continue
		}
		r.Read(buf[:k])
		for _, v := range buf[:k] {
			if v != next {
				t.Fatalf("byte %d: got %d, expected %d", read, v, next)
			}
			next++
			read++
		}
	}
	wg.Wait()
}
