package concrete

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// Scale is a tonic plus the semitone offsets of each degree within one
// octave. Tonic is a MIDI key, C4 = 60.
type Scale struct {
	Name    string
	Tonic   int
	Degrees []int
}

var modes = map[string][]int{
	"major":          {0, 2, 4, 5, 7, 9, 11},
	"minor":          {0, 2, 3, 5, 7, 8, 10},
	"dorian":         {0, 2, 3, 5, 7, 9, 10},
	"phrygian":       {0, 1, 3, 5, 7, 8, 10},
	"lydian":         {0, 2, 4, 6, 7, 9, 11},
	"mixolydian":     {0, 2, 4, 5, 7, 9, 10},
	"locrian":        {0, 1, 3, 5, 6, 8, 10},
	"harmonic-minor": {0, 2, 3, 5, 7, 8, 11},
	"melodic-minor":  {0, 2, 3, 5, 7, 9, 11},
	"chromatic":      {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

var modeAliases = map[string]string{
	"ionian":  "major",
	"aeolian": "minor",
}

var tonicOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

const scaleCacheSize = 64

var scaleCache *lru.ARCCache

func init() {
	var err error
	scaleCache, err = lru.NewARC(scaleCacheSize)
	if err != nil {
		panic(err)
	}
}

// DefaultScale is used when no scale is named.
const DefaultScale = "C major"

// GetScale parses names like "C major", "F# dorian" or "Bb3 minor". The
// tonic may carry an octave digit; without one it sits in octave 4.
func GetScale(name string) (*Scale, error) {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if v, ok := scaleCache.Get(key); ok {
		return v.(*Scale), nil
	}
	s, err := parseScale(name, key)
	if err != nil {
		return nil, err
	}
	scaleCache.Add(key, s)
	return s, nil
}

func parseScale(name, key string) (*Scale, error) {
	fields := strings.Fields(key)
	if len(fields) != 2 {
		return nil, fmt.Errorf("scale %q: want \"<tonic> <mode>\"", name)
	}
	tonic, err := parseTonic(fields[0])
	if err != nil {
		return nil, fmt.Errorf("scale %q: %w", name, err)
	}
	mode := fields[1]
	if alias, ok := modeAliases[mode]; ok {
		mode = alias
	}
	degrees, ok := modes[mode]
	if !ok {
		return nil, fmt.Errorf("scale %q: unknown mode %q", name, fields[1])
	}
	return &Scale{Name: strings.Join(strings.Fields(name), " "), Tonic: tonic, Degrees: degrees}, nil
}

func parseTonic(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty tonic")
	}
	offset, ok := tonicOffsets[s[0]]
	if !ok {
		return 0, fmt.Errorf("unknown tonic %q", s)
	}
	i := 1
	for i < len(s) && (s[i] == '#' || s[i] == 'b') {
		if s[i] == '#' {
			offset++
		} else {
			offset--
		}
		i++
	}
	octave := 4
	if i < len(s) {
		n, err := strconv.Atoi(s[i:])
		if err != nil || n < 0 || n > 9 {
			return 0, fmt.Errorf("bad octave in tonic %q", s)
		}
		octave = n
	}
	return 12*(octave+1) + offset, nil
}

// Size is the number of degrees per octave.
func (s *Scale) Size() int { return len(s.Degrees) }

// Contains reports whether the MIDI key is one of the scale's degrees in
// any octave.
func (s *Scale) Contains(key int) bool {
	_, _, ok := s.locate(key)
	return ok
}

// locate splits key into a degree index and octave relative to the tonic.
func (s *Scale) locate(key int) (degree, octave int, ok bool) {
	rel := key - s.Tonic
	octave = floorDiv(rel, 12)
	within := rel - 12*octave
	for i, d := range s.Degrees {
		if d == within {
			return i, octave, true
		}
	}
	return 0, 0, false
}

// Step moves key by n degrees along the scale. ok is false when key is not
// in the scale.
func (s *Scale) Step(key, n int) (int, bool) {
	degree, octave, ok := s.locate(key)
	if !ok {
		return 0, false
	}
	idx := degree + n
	octave += floorDiv(idx, s.Size())
	idx -= floorDiv(idx, s.Size()) * s.Size()
	return s.Tonic + 12*octave + s.Degrees[idx], true
}

func (s *Scale) String() string { return s.Name }

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
