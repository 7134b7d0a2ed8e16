package concrete

import (
	"fmt"
	"math"

	"fortio.org/safecast"

	"github.com/cbegin/doremi-go/internal/abstract"
)

// degreeNames name the seven degrees of a diatonic scale, movable do.
var degreeNames = map[string]int{
	"do": 0, "re": 1, "mi": 2, "fa": 3, "so": 4, "sol": 4, "la": 5, "ti": 6,
}

// chromaticNames are fixed semitone offsets from the tonic.
var chromaticNames = map[string]int{
	"di": 1, "ra": 1,
	"ri": 3, "me": 3,
	"fi": 6, "se": 6,
	"si": 8, "le": 8,
	"li": 10, "te": 10,
}

// majorDegrees places degree names in scales that do not have seven degrees.
var majorDegrees = modes["major"]

// NameOffset returns the semitone offset of a note name from the tonic.
func (s *Scale) NameOffset(name string) (int, bool) {
	if d, ok := degreeNames[name]; ok {
		if s.Size() == 7 {
			return s.Degrees[d], true
		}
		return majorDegrees[d], true
	}
	if off, ok := chromaticNames[name]; ok {
		return off, true
	}
	return 0, false
}

const pitchTolerance = 1e-9

// Pitch resolves an abstract note to a fractional MIDI pitch: name offset
// and octave first, then each augmentation oldest first.
func (s *Scale) Pitch(n abstract.AbstractNote) (float64, error) {
	offset, ok := s.NameOffset(n.Word.Name)
	if !ok {
		return 0, abstract.NewError(abstract.NoteNotInScale, n.Word.Pos, n.Word.Name,
			"%q is not a note name in %s", n.Word.Name, s.Name)
	}
	pitch := float64(s.Tonic + offset + 12*n.Octave)
	for _, aug := range n.Augmentations {
		switch a := aug.(type) {
		case abstract.AugmentStep:
			pitch += float64(a.Amount)
		case abstract.AugmentDegree:
			key := math.Round(pitch)
			if math.Abs(pitch-key) > pitchTolerance {
				return 0, abstract.NewError(abstract.NoteNotInScale, n.Word.Pos, n.Word.Name,
					"cannot move %q by scale degrees: it is detuned from %s", n.Word.Name, s.Name)
			}
			moved, ok := s.Step(int(key), a.Amount)
			if !ok {
				return 0, abstract.NewError(abstract.NoteNotInScale, n.Word.Pos, n.Word.Name,
					"cannot move %q by scale degrees: %s is not in %s", n.Word.Name, KeyName(int(key)), s.Name)
			}
			pitch = float64(moved)
		case abstract.AugmentRatio:
			r, _ := a.Ratio.Float64()
			pitch += 12 * math.Log2(r)
		}
	}
	return pitch, nil
}

// Frequency converts a fractional MIDI pitch to Hz with A4 = 440.
func Frequency(pitch float64) float64 {
	return 440 * math.Pow(2, (pitch-69)/12)
}

// Velocity maps an emphasis level to a MIDI velocity.
func Velocity(emphasis int) uint8 {
	v := 80 + 16*emphasis
	v = min(max(v, 1), 127)
	out, _ := safecast.Conv[uint8](v)
	return out
}

var keyNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// KeyName renders a MIDI key like "C4" or "F#2".
func KeyName(key int) string {
	return fmt.Sprintf("%s%d", keyNames[key-12*floorDiv(key, 12)], floorDiv(key, 12)-1)
}

// MIDIKey narrows a pitch to a MIDI key. It fails when the pitch is detuned
// or outside 0..127.
func MIDIKey(pitch float64) (uint8, error) {
	key := math.Round(pitch)
	if math.Abs(pitch-key) > pitchTolerance {
		return 0, fmt.Errorf("pitch %.3f is not a whole MIDI key", pitch)
	}
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("pitch %.0f is outside the MIDI range", pitch)
	}
	return safecast.Conv[uint8](int(key))
}
