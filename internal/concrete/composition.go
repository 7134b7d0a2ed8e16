package concrete

import (
	"fmt"
	"math/big"

	"github.com/cbegin/doremi-go/internal/abstract"
)

// Note is an abstract note placed on a scale and a clock.
type Note struct {
	Word      abstract.Word
	StartBeat *big.Rat
	StopBeat  *big.Rat
	Start     float64 // seconds
	Stop      float64 // seconds
	Pitch     float64 // fractional MIDI key
	Frequency float64 // Hz
	Velocity  uint8
}

// Duration returns the note length in seconds.
func (n Note) Duration() float64 { return n.Stop - n.Start }

// MIDI returns the note's key when its pitch is a whole MIDI key.
func (n Note) MIDI() (uint8, error) { return MIDIKey(n.Pitch) }

func (n Note) String() string {
	return fmt.Sprintf("%s %.3f Hz [%s, %s)", n.Word.Name, n.Frequency, n.StartBeat.RatString(), n.StopBeat.RatString())
}

// Composition is an evaluated source text: the abstract result plus the
// notes resolved against a scale and tempo.
type Composition struct {
	Scale      *Scale
	BPM        float64
	Beats      *big.Rat
	Scope      *abstract.Scope
	Collection *abstract.Collection
	Abstract   []abstract.AbstractNote
	Notes      []Note
}

// NewComposition resolves every abstract note. Errors raised for a note are
// *abstract.Error values carrying the collection's source line.
func NewComposition(scale *Scale, bpm float64, coll *abstract.Collection, beats *big.Rat, notes []abstract.AbstractNote, scope *abstract.Scope) (*Composition, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("bpm must be positive, got %v", bpm)
	}
	c := &Composition{
		Scale:      scale,
		BPM:        bpm,
		Beats:      beats,
		Scope:      scope,
		Collection: coll,
		Abstract:   notes,
		Notes:      make([]Note, 0, len(notes)),
	}
	for _, an := range notes {
		pitch, err := scale.Pitch(an)
		if err != nil {
			if e, ok := err.(*abstract.Error); ok && coll != nil {
				e.WithSource(coll.Source)
			}
			return nil, err
		}
		c.Notes = append(c.Notes, Note{
			Word:      an.Word,
			StartBeat: an.Start,
			StopBeat:  an.Stop,
			Start:     c.Seconds(an.Start),
			Stop:      c.Seconds(an.Stop),
			Pitch:     pitch,
			Frequency: Frequency(pitch),
			Velocity:  Velocity(an.Emphasis),
		})
	}
	return c, nil
}

// Seconds converts beats to seconds at the composition's tempo.
func (c *Composition) Seconds(beats *big.Rat) float64 {
	b, _ := beats.Float64()
	return b * 60 / c.BPM
}

// Duration returns the composition length in seconds.
func (c *Composition) Duration() float64 {
	if c.Beats == nil {
		return 0
	}
	return c.Seconds(c.Beats)
}
