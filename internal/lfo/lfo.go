package lfo

import "math"

// Waveforms.
const (
	WaveSine     = 0
	WaveTriangle = 1
)

// LFO is a per-voice low-frequency oscillator. The fm engine uses it for
// vibrato, so Sample returns semitones.
type LFO struct {
	depth    float64
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
}

func (l *LFO) Set(depth, rateHz float64, waveform int) {
	l.depth = depth
	l.rateHz = rateHz
	if waveform != WaveTriangle {
		waveform = WaveSine
	}
	l.waveform = waveform
}

// Sample returns the current value in [-depth, +depth] and advances one
// sample. It returns 0 while the LFO is inactive.
func (l *LFO) Sample(sampleRate float64) float64 {
	if !l.Active() || sampleRate <= 0 {
		return 0
	}
	var v float64
	switch l.waveform {
	case WaveTriangle:
		if l.phase < 0.5 {
			v = 4.0*l.phase - 1.0
		} else {
			v = 3.0 - 4.0*l.phase
		}
	default:
		v = math.Sin(2 * math.Pi * l.phase)
	}
	l.phase += l.rateHz / sampleRate
	l.phase -= math.Floor(l.phase)
	return v * l.depth
}

func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

func (l *LFO) Reset() {
	l.phase = 0
}
