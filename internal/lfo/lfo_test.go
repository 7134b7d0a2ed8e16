package lfo

import (
	"math"
	"testing"
)

func TestSineShape(t *testing.T) {
	var l LFO
	l.Set(0.5, 1, WaveSine)
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Sample(100)
	}
	checks := map[int]float64{0: 0, 25: 0.5, 50: 0, 75: -0.5}
	for i, want := range checks {
		if math.Abs(samples[i]-want) > 1e-9 {
			t.Fatalf("sample %d = %f, want %f", i, samples[i], want)
		}
	}
}

func TestTriangleShape(t *testing.T) {
	var l LFO
	l.Set(1, 1, WaveTriangle)
	samples := make([]float64, 100)
	for i := range samples {
		samples[i] = l.Sample(100)
	}
	if math.Abs(samples[0]+1) > 1e-9 {
		t.Fatalf("triangle at phase 0: got %f, want -1", samples[0])
	}
	if math.Abs(samples[25]) > 1e-9 {
		t.Fatalf("triangle at phase 0.25: got %f, want 0", samples[25])
	}
	if math.Abs(samples[50]-1) > 1e-9 {
		t.Fatalf("triangle at phase 0.5: got %f, want 1", samples[50])
	}
}

func TestUnknownWaveformFallsBackToSine(t *testing.T) {
	var l LFO
	l.Set(1, 1, 42)
	l.Sample(4)
	if v := l.Sample(4); math.Abs(v-1) > 1e-9 {
		t.Fatalf("expected sine peak at quarter phase, got %f", v)
	}
}

func TestInactive(t *testing.T) {
	var l LFO
	if l.Active() {
		t.Fatalf("zero LFO should be inactive")
	}
	if v := l.Sample(48000); v != 0 {
		t.Fatalf("inactive LFO sampled %f", v)
	}
	l.Set(1, 0, WaveSine)
	if l.Active() {
		t.Fatalf("zero rate should be inactive")
	}
}

func TestReset(t *testing.T) {
	var l LFO
	l.Set(1, 3, WaveTriangle)
	first := l.Sample(100)
	for i := 0; i < 17; i++ {
		l.Sample(100)
	}
	l.Reset()
	if got := l.Sample(100); got != first {
		t.Fatalf("after reset got %f, want %f", got, first)
	}
}
