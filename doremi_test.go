package doremi

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/doremi-go/internal/abstract"
)

func keys(t *testing.T, comp *Composition) []int {
	t.Helper()
	out := make([]int, len(comp.Notes))
	for i, n := range comp.Notes {
		k, err := n.MIDI()
		require.NoError(t, err)
		out[i] = int(k)
	}
	return out
}

func TestComposeDefaults(t *testing.T) {
	comp, err := Compose("do re mi")
	require.NoError(t, err)
	assert.Equal(t, "C major", comp.Scale.Name)
	assert.Equal(t, DefaultBPM, comp.BPM)
	assert.Equal(t, "3", comp.Beats.RatString())
	assert.Equal(t, []int{60, 62, 64}, keys(t, comp))
	assert.InDelta(t, 1.5, comp.Duration(), 1e-12)
	assert.InDelta(t, 0.5, comp.Notes[1].Start, 1e-12)
}

func TestComposeOptions(t *testing.T) {
	comp, err := Compose("do mi so", WithScale("A minor"), WithBPM(60))
	require.NoError(t, err)
	assert.Equal(t, []int{69, 72, 76}, keys(t, comp))
	assert.InDelta(t, 3.0, comp.Duration(), 1e-12)
}

func TestComposeThreadsScope(t *testing.T) {
	scope := NewScope()
	_, err := Compose("riff = do re\n\n\nriff", WithScope(scope))
	require.NoError(t, err)

	comp, err := Compose("riff * 2", WithScope(scope))
	require.NoError(t, err)
	assert.Equal(t, []int{60, 62, 60, 62}, keys(t, comp))
	assert.Same(t, scope, comp.Scope)
}

func TestComposeFailureLeavesScopeUntouched(t *testing.T) {
	scope := NewScope()
	_, err := Compose("a = do\n\nzz", WithScope(scope))
	require.Error(t, err)
	_, ok := scope.Lookup("a")
	assert.False(t, ok, "a failed compose must not define symbols")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, abstract.NoteNotInScale, e.Kind)
}

func TestComposeErrors(t *testing.T) {
	_, err := Compose("do ( re")
	var se *SyntaxError
	assert.True(t, errors.As(err, &se), "got %v", err)

	_, err = Compose("f(x) = x\n\nf")
	var e *Error
	require.True(t, errors.As(err, &e), "got %v", err)
	assert.Equal(t, abstract.MismatchingArguments, e.Kind)
	assert.Contains(t, err.Error(), "on line 3\nf\n^")

	_, err = Compose("do", WithScale("Q major"))
	assert.Error(t, err)

	_, err = Compose("do", WithBPM(0))
	assert.Error(t, err)

	_, err = Compose("{do * 100} * 100", WithNoteLimit(1000))
	require.True(t, errors.As(err, &e), "got %v", err)
	assert.Equal(t, abstract.TooManyNotes, e.Kind)
}

func TestComposeStepLimit(t *testing.T) {
	src := "f1(x1) = " + strings.Repeat("x1 ", 10) +
		"\n\n\nf2(x2) = " + strings.Repeat("f1(x2) ", 10) +
		"\n\n\nf2(_)\n"
	_, err := Compose(src, WithStepLimit(100))
	var e *Error
	require.True(t, errors.As(err, &e), "got %v", err)
	assert.Equal(t, abstract.TooManySteps, e.Kind)

	comp, err := Compose(src)
	require.NoError(t, err)
	assert.Empty(t, comp.Notes)
	assert.Equal(t, "100", comp.Beats.RatString())
}

func TestParse(t *testing.T) {
	coll, err := Parse("| tune\nmel = do\n\n\nmel")
	require.NoError(t, err)
	assert.Len(t, coll.Passages, 2)
	assert.Len(t, coll.Comments, 1)
}
