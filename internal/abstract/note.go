package abstract

import (
	"fmt"
	"math/big"
	"strings"
)

// AbstractNote is a timed note whose pitch is still a name. Start and Stop
// are in beats.
type AbstractNote struct {
	Start         *big.Rat
	Stop          *big.Rat
	Word          Word
	Emphasis      int
	Octave        int
	Augmentations []Augmentation
}

func (n AbstractNote) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s, %s)", n.Word.Name, n.Start.RatString(), n.Stop.RatString())
	if n.Emphasis != 0 {
		fmt.Fprintf(&b, " !%d", n.Emphasis)
	}
	if n.Octave != 0 {
		fmt.Fprintf(&b, " octave=%d", n.Octave)
	}
	for _, a := range n.Augmentations {
		b.WriteString(" ")
		b.WriteString(a.String())
	}
	return b.String()
}

// shifted returns a copy of n moved later by offset beats.
func (n AbstractNote) shifted(offset *big.Rat) AbstractNote {
	n.Start = new(big.Rat).Add(n.Start, offset)
	n.Stop = new(big.Rat).Add(n.Stop, offset)
	return n
}

// scaled returns a copy of n with both endpoints multiplied by factor.
func (n AbstractNote) scaled(factor *big.Rat) AbstractNote {
	n.Start = new(big.Rat).Mul(n.Start, factor)
	n.Stop = new(big.Rat).Mul(n.Stop, factor)
	return n
}
