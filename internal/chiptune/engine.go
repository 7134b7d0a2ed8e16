package chiptune

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// Wave selects the oscillator every voice uses.
type Wave int

const (
	WavePulse Wave = iota // narrow pulse, 12.5% duty
	WaveSquare
	WaveTriangle
)

var waveNames = map[string]Wave{
	"pulse":    WavePulse,
	"square":   WaveSquare,
	"triangle": WaveTriangle,
}

// ParseWave accepts "pulse", "square" or "triangle".
func ParseWave(s string) (Wave, error) {
	w, ok := waveNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown wave %q", s)
	}
	return w, nil
}

func (w Wave) String() string {
	for name, v := range waveNames {
		if v == w {
			return name
		}
	}
	return fmt.Sprintf("Wave(%d)", int(w))
}

type Params struct {
	Voices      int
	Wave        Wave
	MasterGain  float64
	AttackSec   float64
	DecaySec    float64
	SustainLvl  float64
	ReleaseSec  float64
	StepLevels  int // envelope levels are quantized to this many steps
	VelocityAmp float64
	LPFCutoff   float64
}

func DefaultParams() Params {
	return Params{
		Voices:      12,
		Wave:        WavePulse,
		MasterGain:  0.28,
		AttackSec:   0.005,
		DecaySec:    0.15,
		SustainLvl:  0.65,
		ReleaseSec:  0.20,
		StepLevels:  16,
		VelocityAmp: 0.85,
		LPFCutoff:   12000,
	}
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

type voice struct {
	active   bool
	id       int
	freq     float64
	phase    float64
	velocity float64
	pan      float64
	env      float64
	state    envState
}

// Engine is a small polyphonic synth in the style of early game consoles:
// band-limited pulse or triangle oscillators with stepped volume.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	nextID     int
	masterGain uint64
	dcInL      float64
	dcOutL     float64
	dcInR      float64
	dcOutR     float64
	lpfL       float64
	lpfR       float64
	lpfAlpha   float64
}

func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 12
	}
	if params.StepLevels <= 1 {
		params.StepLevels = 16
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
		masterGain: math.Float64bits(params.MasterGain),
	}
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (2 * math.Pi * params.LPFCutoff)
		dt := 1.0 / float64(sampleRate)
		e.lpfAlpha = dt / (rc + dt)
	}
	return e
}

// NoteOn starts a voice at freq Hz. velocity is 0..127 and pan -64..64.
func (e *Engine) NoteOn(freq float64, velocity int, pan int) int {
	slot := e.stealVoice()
	id := e.nextID
	e.nextID++
	e.voices[slot] = voice{
		active:   true,
		id:       id,
		freq:     freq,
		velocity: clamp(float64(velocity)/127.0, 0, 1),
		pan:      clamp(float64(pan), -64, 64),
		state:    envAttack,
	}
	return id
}

func (e *Engine) NoteOff(id int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.id == id && v.state != envRelease {
			v.state = envRelease
		}
	}
}

func (e *Engine) RenderFrame() (float32, float32) {
	gain := e.masterGainValue()
	var l, r float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		env := e.advanceEnv(v)
		if v.state == envOff {
			v.active = false
			continue
		}
		level := quantize(env*(0.15+v.velocity*e.params.VelocityAmp), e.params.StepLevels)
		sig := e.renderWave(v) * level * gain
		angle := ((v.pan + 64.0) / 128.0) * (math.Pi / 2.0)
		l += sig * math.Cos(angle)
		r += sig * math.Sin(angle)
	}
	l = dcBlock(l, &e.dcInL, &e.dcOutL)
	r = dcBlock(r, &e.dcInR, &e.dcOutR)
	if e.lpfAlpha > 0 {
		e.lpfL += e.lpfAlpha * (l - e.lpfL)
		e.lpfR += e.lpfAlpha * (r - e.lpfR)
		l, r = e.lpfL, e.lpfR
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

func dcBlock(x float64, in, out *float64) float64 {
	const pole = 0.995
	y := x - *in + pole**out
	*in = x
	*out = y
	return y
}

// polyBLEP smooths a waveform step at phase t, where dt is the phase
// increment per sample.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

func (e *Engine) renderWave(v *voice) float64 {
	dt := v.freq / e.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	switch e.params.Wave {
	case WaveTriangle:
		return 2*math.Abs(2*v.phase-1) - 1
	case WaveSquare:
		return pulse(v.phase, dt, 0.5)
	default:
		return pulse(v.phase, dt, 0.125)
	}
}

func pulse(phase, dt, duty float64) float64 {
	out := -1.0
	if phase < duty {
		out = 1
	}
	out += polyBLEP(phase, dt)
	out -= polyBLEP(math.Mod(phase-duty+1, 1), dt)
	return out
}

func (e *Engine) advanceEnv(v *voice) float64 {
	switch v.state {
	case envAttack:
		v.env += 1.0 / math.Max(e.params.AttackSec*e.sampleRate, 1)
		if v.env >= 1 {
			v.env = 1
			v.state = envDecay
		}
	case envDecay:
		v.env -= (1 - e.params.SustainLvl) / math.Max(e.params.DecaySec*e.sampleRate, 1)
		if v.env <= e.params.SustainLvl {
			v.env = e.params.SustainLvl
			v.state = envSustain
		}
	case envRelease:
		v.env -= math.Max(e.params.SustainLvl, 0.01) / math.Max(e.params.ReleaseSec*e.sampleRate, 1)
		if v.env <= 0.0001 {
			v.env = 0
			v.state = envOff
		}
	}
	return v.env
}

func (e *Engine) stealVoice() int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	quiet := 0
	for i := 1; i < len(e.voices); i++ {
		if e.voices[i].env < e.voices[quiet].env {
			quiet = i
		}
	}
	return quiet
}

func quantize(v float64, steps int) float64 {
	if steps <= 1 {
		return v
	}
	n := math.Round(v*float64(steps-1)) / float64(steps-1)
	return clamp(n, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *Engine) SetMasterGain(gain float64) {
	if gain < 0 {
		gain = 0
	}
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}
