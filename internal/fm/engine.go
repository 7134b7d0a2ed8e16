package fm

import (
	"math"
	"sync/atomic"

	"github.com/cbegin/doremi-go/internal/lfo"
)

const twoPi = math.Pi * 2

type Params struct {
	Polyphony   int
	ModRatio    float64 // modulator frequency as a multiple of the carrier
	ModIndex    float64
	AttackSec   float64
	DecaySec    float64
	SustainLvl  float64
	ReleaseSec  float64
	MasterGain  float64
	VelocityAmp float64
	LPFCutoff   float64 // lowpass filter cutoff in Hz (0 = disabled)
	// Vibrato depth is in semitones; it fades in over VibratoDelaySec.
	VibratoDepth    float64
	VibratoRateHz   float64
	VibratoDelaySec float64
}

func DefaultParams() Params {
	return Params{
		Polyphony:       32,
		ModRatio:        2.0,
		ModIndex:        1.6,
		AttackSec:       0.005,
		DecaySec:        0.12,
		SustainLvl:      0.75,
		ReleaseSec:      0.2,
		MasterGain:      0.45,
		VelocityAmp:     0.8,
		LPFCutoff:       12000,
		VibratoDepth:    0.08,
		VibratoRateHz:   5.5,
		VibratoDelaySec: 0.25,
	}
}

// Engine is a polyphonic two-operator FM synth. Voices are started by
// frequency so detuned pitches sound exactly.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	nextID     int
	masterGain uint64
	lpfL       float64
	lpfR       float64
	lpfAlpha   float64
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
	active       bool
	id           int
	freq         float64
	velocity     float64
	pan          float64
	carrier      float64 // phase
	modulator    float64 // phase
	env          float64
	state        envState
	releaseStep  float64
	age          int
	vibrato      lfo.LFO
	vibratoDelay int
}

func New(sampleRate int, params Params) *Engine {
	if params.Polyphony <= 0 {
		params.Polyphony = 32
	}
	e := &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Polyphony),
		masterGain: math.Float64bits(params.MasterGain),
	}
	if params.LPFCutoff > 0 && params.LPFCutoff < float64(sampleRate)/2 {
		rc := 1.0 / (twoPi * params.LPFCutoff)
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
	v := &e.voices[slot]
	*v = voice{
		active:       true,
		id:           id,
		freq:         freq,
		velocity:     clamp(float64(velocity)/127.0, 0, 1),
		pan:          clamp(float64(pan), -64, 64),
		state:        envAttack,
		vibratoDelay: int(e.params.VibratoDelaySec * e.sampleRate),
	}
	v.vibrato.Set(e.params.VibratoDepth, e.params.VibratoRateHz, lfo.WaveSine)
	return id
}

func (e *Engine) NoteOff(id int) {
	for i := range e.voices {
		v := &e.voices[i]
		if v.active && v.id == id && v.state != envRelease {
			v.state = envRelease
			v.releaseStep = v.env / (e.params.ReleaseSec * e.sampleRate)
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
		e.advanceEnv(v)
		if v.state == envOff {
			v.active = false
			continue
		}
		mod := math.Sin(v.modulator) * e.params.ModIndex * v.env
		sig := math.Sin(v.carrier+mod) * v.env
		sig *= gain * (0.2 + v.velocity*e.params.VelocityAmp)

		angle := ((v.pan + 64.0) / 128.0) * (math.Pi / 2.0)
		l += sig * math.Cos(angle)
		r += sig * math.Sin(angle)

		freq := v.freq
		if v.age >= v.vibratoDelay {
			freq *= math.Pow(2, v.vibrato.Sample(e.sampleRate)/12.0)
		}
		v.age++
		v.carrier = math.Mod(v.carrier+twoPi*freq/e.sampleRate, twoPi)
		v.modulator = math.Mod(v.modulator+twoPi*freq*e.params.ModRatio/e.sampleRate, twoPi)
	}
	if e.lpfAlpha > 0 {
		e.lpfL += e.lpfAlpha * (l - e.lpfL)
		e.lpfR += e.lpfAlpha * (r - e.lpfR)
		l, r = e.lpfL, e.lpfR
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

func (e *Engine) advanceEnv(v *voice) {
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
		step := v.releaseStep
		if step <= 0 {
			step = 1
		}
		v.env -= step
		if v.env <= 0.0001 {
			v.env = 0
			v.state = envOff
		}
	}
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

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
