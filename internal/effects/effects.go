package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies effects in order. A nil or empty chain passes audio through.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	if c == nil {
		return l, r
	}
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

func (c *Chain) Reset() {
	if c == nil {
		return
	}
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Add(e Effector) {
	c.effects = append(c.effects, e)
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.effects)
}

// Settings select the effects applied after the synth. Zero values disable
// an effect.
type Settings struct {
	Reverb       float64 // wet mix 0..1
	RoomSize     float64 // 0..1, defaults to 0.5
	Echo         float64 // echo time in beats
	EchoFeedback float64 // 0..0.95
	EchoMix      float64 // wet mix 0..1, defaults to 0.35
}

// Build assembles the chain for a composition played at bpm. Echo times are
// in beats so echoes land on the composition's grid.
func Build(sampleRate int, bpm float64, s Settings) *Chain {
	c := NewChain()
	if s.Echo > 0 && bpm > 0 {
		mix := s.EchoMix
		if mix == 0 {
			mix = 0.35
		}
		ms := s.Echo * 60000 / bpm
		c.Add(NewEcho(sampleRate, ms, float32(s.EchoFeedback), float32(mix)))
	}
	if s.Reverb > 0 {
		room := s.RoomSize
		if room == 0 {
			room = 0.5
		}
		c.Add(NewReverb(sampleRate, float32(room), 0.7, float32(s.Reverb)))
	}
	return c
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
