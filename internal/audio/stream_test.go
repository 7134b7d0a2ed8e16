package audio

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
)

type rampSource struct {
	next     float32
	calls    int
	finished bool
}

func (s *rampSource) Process(dst []float32) {
	s.calls++
	for i := range dst {
		dst[i] = s.next
		s.next += 0.25
	}
}

func (s *rampSource) Finished() bool { return s.finished }

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	p := make([]byte, 2*bytesPerFrame+3)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 2*bytesPerFrame {
		t.Fatalf("read %d bytes, want %d", n, 2*bytesPerFrame)
	}
	for i, want := range []float32{0, 0.25, 0.5, 0.75} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != want {
			t.Fatalf("sample %d = %f, want %f", i, got, want)
		}
	}
	if r.Frames() != 2 {
		t.Fatalf("frames = %d, want 2", r.Frames())
	}
}

func TestStreamReaderShortBuffer(t *testing.T) {
	src := &rampSource{}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, bytesPerFrame-1))
	if n != 0 || err != nil {
		t.Fatalf("got %d, %v; want 0, nil", n, err)
	}
	if src.calls != 0 {
		t.Fatalf("source should not be asked for zero frames")
	}
}

func TestStreamReaderEOFWhenFinished(t *testing.T) {
	src := &rampSource{finished: true}
	r := NewStreamReader(src)
	n, err := r.Read(make([]byte, 64))
	if n != 0 || err != io.EOF {
		t.Fatalf("got %d, %v; want 0, io.EOF", n, err)
	}
}
