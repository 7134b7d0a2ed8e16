package doremi

import (
	"encoding/binary"
	"math"

	intfx "github.com/cbegin/doremi-go/internal/effects"
	intseq "github.com/cbegin/doremi-go/internal/sequencer"
)

// RenderSamples renders comp to interleaved stereo float32 samples. A
// non-positive seconds renders the whole composition plus its release tail.
// Player options apply as they do for playback; looping and the sample tap
// are ignored.
func RenderSamples(comp *Composition, sampleRate int, seconds float64, opts ...PlayerOption) []float32 {
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if seconds <= 0 {
		seconds = RenderLength(comp, cfg.synth)
	}
	engine, _ := cfg.newEngine(sampleRate)
	seq := intseq.NewWithOptions(comp, engine, sampleRate, intseq.Options{MasterTranspose: cfg.transpose})
	out := make([]float32, int(float64(sampleRate)*seconds)*2)
	seq.Process(out)
	fx := intfx.Build(sampleRate, comp.BPM, cfg.effects)
	if fx.Len() > 0 {
		for i := 0; i+1 < len(out); i += 2 {
			out[i], out[i+1] = fx.Process(out[i], out[i+1])
		}
	}
	return out
}

// RenderLength is the composition's duration plus time for the last notes
// to release.
func RenderLength(comp *Composition, synth SynthParams) float64 {
	return comp.Duration() + synth.ReleaseSec + 0.05
}

func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*4))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*4))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
