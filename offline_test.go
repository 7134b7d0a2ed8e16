package doremi

import (
	"encoding/binary"
	"math"
	"testing"
)

func mustCompose(t *testing.T, src string, opts ...Option) *Composition {
	t.Helper()
	comp, err := Compose(src, opts...)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	return comp
}

func peak(samples []float32) float64 {
	var p float64
	for _, s := range samples {
		p = math.Max(p, math.Abs(float64(s)))
	}
	return p
}

func TestRenderSamplesIsDeterministic(t *testing.T) {
	comp := mustCompose(t, "do re mi fa so\n!'do", WithBPM(240))
	a := RenderSamples(comp, 48000, 1.5)
	b := RenderSamples(comp, 48000, 1.5)
	if len(a) != 48000*1.5*2 {
		t.Fatalf("rendered %d samples, want %d", len(a), int(48000*1.5*2))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("renders differ at sample %d", i)
		}
	}
	if peak(a) == 0 {
		t.Fatalf("expected audible output")
	}
}

func TestRenderSamplesDefaultLength(t *testing.T) {
	comp := mustCompose(t, "do re", WithBPM(60))
	out := RenderSamples(comp, 1000, 0)
	want := int(1000*RenderLength(comp, DefaultSynthParams())) * 2
	if len(out) != want {
		t.Fatalf("rendered %d samples, want %d", len(out), want)
	}
}

func TestRenderSamplesRestsAreSilent(t *testing.T) {
	comp := mustCompose(t, "_ _ _")
	if p := peak(RenderSamples(comp, 8000, 0)); p != 0 {
		t.Fatalf("rests should be silent, peak %f", p)
	}
}

func TestRenderSamplesWithEffects(t *testing.T) {
	comp := mustCompose(t, "do", WithBPM(240))
	dry := RenderSamples(comp, 8000, 2)
	wet := RenderSamples(comp, 8000, 2, WithEffects(Effects{Echo: 2, EchoFeedback: 0.5}))
	// The note has released long before one second; only the echo remains.
	tail := 8000 * 2
	if p := peak(dry[tail:]); p > 1e-4 {
		t.Fatalf("dry render should be silent after a second, peak %f", p)
	}
	if p := peak(wet[tail:]); p < 1e-3 {
		t.Fatalf("echo should still sound after a second, peak %f", p)
	}
}

func TestEncodeWAVFloat32LE(t *testing.T) {
	samples := []float32{0.5, -0.5, 0.25, -0.25}
	wav := EncodeWAVFloat32LE(samples, 48000, 2)
	if len(wav) != 44+16 {
		t.Fatalf("wav length = %d, want 60", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad chunk ids")
	}
	if got := binary.LittleEndian.Uint16(wav[20:]); got != 3 {
		t.Fatalf("format = %d, want IEEE float", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 48000 {
		t.Fatalf("sample rate = %d", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(wav[48:])); got != -0.5 {
		t.Fatalf("second sample = %f, want -0.5", got)
	}
}

func TestRenderSamplesChipModes(t *testing.T) {
	comp := mustCompose(t, "do mi so", WithBPM(240))
	fm := RenderSamples(comp, 8000, 1)
	for _, mode := range []SynthMode{SynthPulse, SynthSquare, SynthTriangle} {
		out := RenderSamples(comp, 8000, 1, WithSynthMode(mode))
		if peak(out) == 0 {
			t.Fatalf("%s: expected audible output", mode)
		}
		same := true
		for i := range out {
			if out[i] != fm[i] {
				same = false
				break
			}
		}
		if same {
			t.Fatalf("%s: render matches the fm voice", mode)
		}
	}
}
