package abstract

import (
	"fmt"
	"math/big"
	"strings"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is implemented by every syntax tree shape the evaluator accepts.
type Node interface {
	nodeTag()
}

// Expression is the payload of a Modified node: a Word, a *Call or a Group.
type Expression interface {
	Node
	expressionTag()
}

type Word struct {
	Name string
	Pos  Pos
}

// IsRest reports whether the word is made entirely of underscores.
func (w Word) IsRest() bool {
	return isAllUnderscores(w.Name)
}

func (w Word) String() string { return w.Name }

type Call struct {
	Function Word
	Args     []*Modified
}

// Group is a braced sequence of modified expressions.
type Group []*Modified

type Augmentation interface {
	augmentationTag()
	String() string
}

// AugmentStep shifts a pitch by semitones.
type AugmentStep struct {
	Amount int
}

// AugmentDegree shifts a pitch along the active scale.
type AugmentDegree struct {
	Amount int
}

// AugmentRatio multiplies a pitch's frequency.
type AugmentRatio struct {
	Ratio *big.Rat
}

func (a AugmentStep) String() string   { return fmt.Sprintf("AugmentStep(%d)", a.Amount) }
func (a AugmentDegree) String() string { return fmt.Sprintf("AugmentDegree(%d)", a.Amount) }
func (a AugmentRatio) String() string  { return fmt.Sprintf("AugmentRatio(%s)", a.Ratio.RatString()) }

// Duration overrides the natural duration of a Modified node. With Scaling
// set, Amount multiplies the natural duration; otherwise the node lasts
// exactly Amount beats.
type Duration struct {
	Amount  *big.Rat
	Scaling bool
}

func (d Duration) String() string {
	if d.Scaling {
		return "Duration(*" + d.Amount.RatString() + ")"
	}
	return "Duration(" + d.Amount.RatString() + ")"
}

// Modified decorates an expression with accent, octave, augmentation,
// duration and repetition. A nil Augmentation or Duration means none.
type Modified struct {
	Expr         Expression
	Emphasis     int
	Absolute     int
	Octave       int
	Augmentation Augmentation
	Duration     *Duration
	Repetition   int
	Pos          Pos
}

type Line struct {
	Modified []*Modified
	Pos      Pos
}

type Assignment struct {
	Function   Word
	Parameters []Word
}

// Passage is either a *NamedPassage or an *UnnamedPassage.
type Passage interface {
	Node
	passageLines() []*Line
}

type NamedPassage struct {
	Assignment Assignment
	Lines      []*Line
}

// Name returns the declared symbol.
func (p *NamedPassage) Name() string { return p.Assignment.Function.Name }

// Arity returns the number of formal parameters.
func (p *NamedPassage) Arity() int { return len(p.Assignment.Parameters) }

type UnnamedPassage struct {
	Lines []*Line
}

func (p *NamedPassage) passageLines() []*Line   { return p.Lines }
func (p *UnnamedPassage) passageLines() []*Line { return p.Lines }

// Comment is a "|" comment or blank line captured by the parser.
type Comment struct {
	Text string
	Line int
}

// Collection is the top-level tree: passages in source order plus the text
// they were parsed from.
type Collection struct {
	Passages []Passage
	Comments []Comment
	Source   string
}

func (Word) nodeTag()            {}
func (*Call) nodeTag()           {}
func (Group) nodeTag()           {}
func (*Modified) nodeTag()       {}
func (*Line) nodeTag()           {}
func (*NamedPassage) nodeTag()   {}
func (*UnnamedPassage) nodeTag() {}

func (Word) expressionTag()  {}
func (*Call) expressionTag() {}
func (Group) expressionTag() {}

func (AugmentStep) augmentationTag()   {}
func (AugmentDegree) augmentationTag() {}
func (AugmentRatio) augmentationTag()  {}

func isAllUnderscores(s string) bool {
	return s != "" && strings.Trim(s, "_") == ""
}
