package effects

// Reverb is a Schroeder reverb: parallel combs into series allpasses, one
// network per channel. The right channel's delay lines are slightly longer
// to widen the image.
type Reverb struct {
	left, right network
	wet         float32
}

type network struct {
	combs   [4]delayLine
	allpass [2]delayLine
}

type delayLine struct {
	buf []float32
	pos int
	fb  float32
}

var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

const stereoSpread = 23

// NewReverb creates a reverb. roomSize scales the delay lengths, feedback
// sets the decay, and wet is the mix. All three are 0..1.
func NewReverb(sampleRate int, roomSize, feedback, wet float32) *Reverb {
	base := max(int(float32(sampleRate)*clamp(roomSize, 0, 1)*0.05), 10)
	fb := clamp(feedback, 0, 0.95)
	return &Reverb{
		left:  newNetwork(base, 0, fb),
		right: newNetwork(base, stereoSpread, fb),
		wet:   clamp(wet, 0, 1),
	}
}

func newNetwork(base, spread int, fb float32) network {
	var n network
	for i, ratio := range combRatios {
		n.combs[i] = delayLine{buf: make([]float32, base*ratio/1000+spread), fb: fb}
	}
	for i, ratio := range allpassRatios {
		n.allpass[i] = delayLine{buf: make([]float32, max(base*ratio/1000+spread, 1)), fb: 0.5}
	}
	return n
}

func (r *Reverb) Process(l, rr float32) (float32, float32) {
	mono := (l + rr) * 0.5
	outL := r.left.process(mono)
	outR := r.right.process(mono)
	return l*(1-r.wet) + outL*r.wet, rr*(1-r.wet) + outR*r.wet
}

func (r *Reverb) Reset() {
	r.left.reset()
	r.right.reset()
}

func (n *network) process(in float32) float32 {
	var out float32
	for i := range n.combs {
		out += n.combs[i].comb(in)
	}
	out *= 0.25
	for i := range n.allpass {
		out = n.allpass[i].allpass(out)
	}
	return out
}

func (n *network) reset() {
	for i := range n.combs {
		n.combs[i].reset()
	}
	for i := range n.allpass {
		n.allpass[i].reset()
	}
}

func (d *delayLine) comb(in float32) float32 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in + out*d.fb
	d.advance()
	return out
}

func (d *delayLine) allpass(in float32) float32 {
	held := d.buf[d.pos]
	d.buf[d.pos] = in + held*d.fb
	d.advance()
	return held - in
}

func (d *delayLine) advance() {
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}
