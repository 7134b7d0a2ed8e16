package chiptune

import (
	"math"
	"testing"
)

func render(e *Engine, frames int) (left, right, peak float64) {
	for i := 0; i < frames; i++ {
		l, r := e.RenderFrame()
		left += math.Abs(float64(l))
		right += math.Abs(float64(r))
		peak = math.Max(peak, math.Max(math.Abs(float64(l)), math.Abs(float64(r))))
	}
	return left, right, peak
}

func TestWavesGenerateSignal(t *testing.T) {
	for _, w := range []Wave{WavePulse, WaveSquare, WaveTriangle} {
		t.Run(w.String(), func(t *testing.T) {
			p := DefaultParams()
			p.Wave = w
			e := New(48000, p)
			e.NoteOn(440, 100, 0)
			if _, _, peak := render(e, 4800); peak == 0 {
				t.Fatalf("expected non-zero output")
			}
		})
	}
}

func TestParseWave(t *testing.T) {
	w, err := ParseWave(" Triangle ")
	if err != nil || w != WaveTriangle {
		t.Fatalf("ParseWave = %v, %v", w, err)
	}
	if _, err := ParseWave("noise"); err == nil {
		t.Fatalf("expected error for unknown wave")
	}
}

func TestSilentWithoutNotes(t *testing.T) {
	e := New(48000, DefaultParams())
	if _, _, peak := render(e, 1000); peak != 0 {
		t.Fatalf("expected silence, peak %f", peak)
	}
}

func TestPanRightBiasesChannels(t *testing.T) {
	e := New(48000, DefaultParams())
	e.NoteOn(440, 127, 64)
	left, right, _ := render(e, 4096)
	if right <= left {
		t.Fatalf("expected right-biased signal, left=%f right=%f", left, right)
	}
}

func TestNoteOffReleasesVoice(t *testing.T) {
	p := DefaultParams()
	p.ReleaseSec = 0.01
	e := New(48000, p)
	id := e.NoteOn(440, 100, 0)
	render(e, 2000)
	if got := e.ActiveVoiceCount(); got != 1 {
		t.Fatalf("active voices = %d, want 1", got)
	}
	e.NoteOff(id)
	render(e, 2000)
	if got := e.ActiveVoiceCount(); got != 0 {
		t.Fatalf("active voices after release = %d, want 0", got)
	}
}

func TestVoiceStealing(t *testing.T) {
	p := DefaultParams()
	p.Voices = 2
	e := New(48000, p)
	for i := 0; i < 5; i++ {
		e.NoteOn(220*float64(i+1), 100, 0)
	}
	if got := e.ActiveVoiceCount(); got != 2 {
		t.Fatalf("active voices = %d, want 2", got)
	}
}

func TestMasterGainZeroSilences(t *testing.T) {
	e := New(48000, DefaultParams())
	e.SetMasterGain(-1)
	e.NoteOn(440, 127, 0)
	if _, _, peak := render(e, 2000); peak != 0 {
		t.Fatalf("expected silence at zero gain, peak %f", peak)
	}
}

func TestQuantize(t *testing.T) {
	if got := quantize(0.52, 3); got != 0.5 {
		t.Fatalf("quantize(0.52, 3) = %f, want 0.5", got)
	}
	if got := quantize(0.52, 1); got != 0.52 {
		t.Fatalf("quantize with one step = %f", got)
	}
}

func TestPolyBLEPOnlyNearEdges(t *testing.T) {
	dt := 0.01
	if polyBLEP(0.5, dt) != 0 {
		t.Fatalf("expected no correction mid-cycle")
	}
	if polyBLEP(0.001, dt) == 0 || polyBLEP(0.999, dt) == 0 {
		t.Fatalf("expected corrections at the wrap")
	}
}
