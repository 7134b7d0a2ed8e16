package effects

// Echo is a ping-pong delay: each repeat crosses to the other channel.
type Echo struct {
	bufL, bufR []float32
	pos        int
	feedback   float32
	wet        float32
}

// NewEcho creates an echo with the given delay in milliseconds. feedback
// and wet are clamped to 0..0.95 and 0..1.
func NewEcho(sampleRate int, delayMs float64, feedback, wet float32) *Echo {
	samples := max(int(delayMs*float64(sampleRate)/1000.0), 1)
	return &Echo{
		bufL:     make([]float32, samples),
		bufR:     make([]float32, samples),
		feedback: clamp(feedback, 0, 0.95),
		wet:      clamp(wet, 0, 1),
	}
}

func (e *Echo) Process(l, r float32) (float32, float32) {
	delL := e.bufL[e.pos]
	delR := e.bufR[e.pos]
	e.bufL[e.pos] = l + delR*e.feedback
	e.bufR[e.pos] = r + delL*e.feedback
	e.pos++
	if e.pos >= len(e.bufL) {
		e.pos = 0
	}
	return l*(1-e.wet) + delL*e.wet, r*(1-e.wet) + delR*e.wet
}

func (e *Echo) Reset() {
	clear(e.bufL)
	clear(e.bufR)
	e.pos = 0
}

// Len is the delay length in frames.
func (e *Echo) Len() int { return len(e.bufL) }
