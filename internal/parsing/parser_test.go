package parsing

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbegin/doremi-go/internal/abstract"
)

var treeOpts = cmp.Options{
	cmpopts.IgnoreTypes(abstract.Pos{}),
	cmp.Comparer(func(a, b *big.Rat) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	}),
}

func mustParse(t *testing.T, src string) *abstract.Collection {
	t.Helper()
	coll, err := Parse(src)
	if err != nil {
		t.Fatalf("parse %q failed: %v", src, err)
	}
	return coll
}

func onlyModified(t *testing.T, src string) *abstract.Modified {
	t.Helper()
	coll := mustParse(t, src)
	if len(coll.Passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(coll.Passages))
	}
	p, ok := coll.Passages[0].(*abstract.UnnamedPassage)
	if !ok || len(p.Lines) != 1 || len(p.Lines[0].Modified) != 1 {
		t.Fatalf("expected a single modified expression in %q", src)
	}
	return p.Lines[0].Modified[0]
}

func la(m abstract.Modified) *abstract.Modified {
	m.Expr = abstract.Word{Name: "la"}
	if m.Repetition == 0 {
		m.Repetition = 1
	}
	return &m
}

func TestParseDecorations(t *testing.T) {
	tests := []struct {
		src  string
		want *abstract.Modified
	}{
		{"la", la(abstract.Modified{})},
		{"!la", la(abstract.Modified{Emphasis: 1})},
		{"!! la", la(abstract.Modified{Emphasis: 2})},
		{"@la", la(abstract.Modified{Absolute: 1})},
		{"@ @ la", la(abstract.Modified{Absolute: 2})},
		{"'la", la(abstract.Modified{Octave: 1})},
		{",,la", la(abstract.Modified{Octave: -2})},
		{"'3 la", la(abstract.Modified{Octave: 3})},
		{",3la", la(abstract.Modified{Octave: -3})},
		{"la+", la(abstract.Modified{Augmentation: abstract.AugmentStep{Amount: 1}})},
		{"la + +", la(abstract.Modified{Augmentation: abstract.AugmentStep{Amount: 2}})},
		{"la+2", la(abstract.Modified{Augmentation: abstract.AugmentStep{Amount: 2}})},
		{"la-2", la(abstract.Modified{Augmentation: abstract.AugmentStep{Amount: -2}})},
		{"la- 3", la(abstract.Modified{Augmentation: abstract.AugmentStep{Amount: -3}})},
		{"la>", la(abstract.Modified{Augmentation: abstract.AugmentDegree{Amount: 1}})},
		{"la>>", la(abstract.Modified{Augmentation: abstract.AugmentDegree{Amount: 2}})},
		{"la<2", la(abstract.Modified{Augmentation: abstract.AugmentDegree{Amount: -2}})},
		{"la < < <", la(abstract.Modified{Augmentation: abstract.AugmentDegree{Amount: -3}})},
		{"la~3/2", la(abstract.Modified{Augmentation: abstract.AugmentRatio{Ratio: big.NewRat(3, 2)}})},
		{"la...", la(abstract.Modified{Duration: &abstract.Duration{Amount: big.NewRat(3, 1)}})},
		{"la:3/2", la(abstract.Modified{Duration: &abstract.Duration{Amount: big.NewRat(3, 2)}})},
		{"la:*2", la(abstract.Modified{Duration: &abstract.Duration{Amount: big.NewRat(2, 1), Scaling: true}})},
		{"la * 3", la(abstract.Modified{Repetition: 3})},
		{"!@'la+..*2", la(abstract.Modified{
			Emphasis:     1,
			Absolute:     1,
			Octave:       1,
			Augmentation: abstract.AugmentStep{Amount: 1},
			Duration:     &abstract.Duration{Amount: big.NewRat(2, 1)},
			Repetition:   2,
		})},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			got := onlyModified(t, tc.src)
			if diff := cmp.Diff(tc.want, got, treeOpts); diff != "" {
				t.Fatalf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCallsAndGroups(t *testing.T) {
	m := onlyModified(t, "f(mi re)")
	c, ok := m.Expr.(*abstract.Call)
	require.True(t, ok, "expected a call, got %T", m.Expr)
	assert.Equal(t, "f", c.Function.Name)
	require.Len(t, c.Args, 2)
	assert.Equal(t, abstract.Word{Name: "mi", Pos: abstract.Pos{Line: 1, Column: 3}}, c.Args[0].Expr)

	m = onlyModified(t, "f()")
	assert.Equal(t, "f", m.Expr.(abstract.Word).Name)

	m = onlyModified(t, "{do 're}:2*2")
	g, ok := m.Expr.(abstract.Group)
	require.True(t, ok, "expected a group, got %T", m.Expr)
	require.Len(t, g, 2)
	assert.Equal(t, 1, g[1].Octave)
	assert.Equal(t, 2, m.Repetition)
	assert.Equal(t, "2", m.Duration.Amount.RatString())

	m = onlyModified(t, "f({do re} ,mi+)")
	c = m.Expr.(*abstract.Call)
	require.Len(t, c.Args, 2)
	assert.Equal(t, -1, c.Args[1].Octave)
	assert.Equal(t, abstract.AugmentStep{Amount: 1}, c.Args[1].Augmentation)

	m = onlyModified(t, "f(,mi ,,re)")
	c = m.Expr.(*abstract.Call)
	require.Len(t, c.Args, 2)
	assert.Equal(t, -1, c.Args[0].Octave)
	assert.Equal(t, -2, c.Args[1].Octave)
}

func TestCommaGluedToNoteIsRejected(t *testing.T) {
	_, err := Parse("f(mi, re)")
	var se *SyntaxError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Contains(t, se.Message, "separate notes with spaces")
}

func TestParsePassagesAndLines(t *testing.T) {
	coll := mustParse(t, "\ndo re\nmi\n\n\nfa\n")
	require.Len(t, coll.Passages, 2)
	first := coll.Passages[0].(*abstract.UnnamedPassage)
	require.Len(t, first.Lines, 2)
	assert.Len(t, first.Lines[0].Modified, 2)
	assert.Equal(t, abstract.Pos{Line: 3, Column: 1}, first.Lines[1].Pos)
	second := coll.Passages[1].(*abstract.UnnamedPassage)
	assert.Equal(t, "fa", second.Lines[0].Modified[0].Expr.(abstract.Word).Name)
}

func TestParseAssignments(t *testing.T) {
	tests := []struct {
		src    string
		name   string
		params []string
		lines  int
	}{
		{"f = do re", "f", nil, 1},
		{"f() = do", "f", nil, 1},
		{"f(x y) = y x", "f", []string{"x", "y"}, 1},
		{"motif =\ndo re\nmi", "motif", nil, 2},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			coll := mustParse(t, tc.src)
			require.Len(t, coll.Passages, 1)
			p, ok := coll.Passages[0].(*abstract.NamedPassage)
			require.True(t, ok, "expected a named passage, got %T", coll.Passages[0])
			assert.Equal(t, tc.name, p.Name())
			var params []string
			for _, w := range p.Assignment.Parameters {
				params = append(params, w.Name)
			}
			assert.Equal(t, tc.params, params)
			assert.Len(t, p.Lines, tc.lines)
		})
	}
}

func TestParseDefinitionThenUse(t *testing.T) {
	coll := mustParse(t, "f(x y) = y x\n\ndo f(mi re) fa so")
	require.Len(t, coll.Passages, 2)
	_, ok := coll.Passages[0].(*abstract.NamedPassage)
	assert.True(t, ok)
	use := coll.Passages[1].(*abstract.UnnamedPassage)
	assert.Len(t, use.Lines[0].Modified, 4)
}

func TestParseComments(t *testing.T) {
	coll := mustParse(t, "do re | first\nmi\n| second\n\nfa | last")
	assert.Equal(t, []abstract.Comment{
		{Text: "first", Line: 1},
		{Text: "second", Line: 3},
		{Text: "last", Line: 5},
	}, coll.Comments)
	require.Len(t, coll.Passages, 2)
	assert.Len(t, coll.Passages[0].(*abstract.UnnamedPassage).Lines, 2)
}

func TestParseNormalizesToNFC(t *testing.T) {
	composed := onlyModified(t, "caf\u00e9")
	decomposed := onlyModified(t, "cafe\u0301")
	assert.Equal(t, "caf\u00e9", decomposed.Expr.(abstract.Word).Name)
	assert.Equal(t, composed.Expr, decomposed.Expr)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src string
		pos abstract.Pos
	}{
		{"do )", abstract.Pos{Line: 1, Column: 4}},
		{"do $", abstract.Pos{Line: 1, Column: 4}},
		{"f(x x) = x", abstract.Pos{Line: 1, Column: 5}},
		{"{}", abstract.Pos{Line: 1, Column: 1}},
		{"do+++2", abstract.Pos{Line: 1, Column: 6}},
		{"do:0", abstract.Pos{Line: 1, Column: 4}},
		{"do~2/0", abstract.Pos{Line: 1, Column: 4}},
		{"do*0", abstract.Pos{Line: 1, Column: 4}},
		{"do\nf(do re", abstract.Pos{Line: 2, Column: 1}},
		{"f =\n\ndo", abstract.Pos{Line: 2, Column: 1}},
		{"do*99999999999999999999", abstract.Pos{Line: 1, Column: 4}},
		{"f(mi, re)", abstract.Pos{Line: 1, Column: 5}},
		{"do, re", abstract.Pos{Line: 1, Column: 3}},
		{"{do re},mi", abstract.Pos{Line: 1, Column: 8}},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			_, err := Parse(tc.src)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected a syntax error, got %v", err)
			}
			if se.Pos != tc.pos {
				t.Fatalf("error at %v, want %v (%v)", se.Pos, tc.pos, err)
			}
		})
	}
}

func TestSyntaxErrorRendering(t *testing.T) {
	_, err := Parse("do re\nmi ) fa")
	require.Error(t, err)
	want := "expected a note, rest, call or group, found \")\" on line 2\nmi ) fa\n   ^"
	assert.Equal(t, want, err.Error())
}
