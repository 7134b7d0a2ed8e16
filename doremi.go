// Package doremi composes music from solfege text: it parses a source,
// evaluates it to notes measured in beats, places those notes on a scale and
// a tempo, and renders or plays the result.
package doremi

import (
	"github.com/cbegin/doremi-go/internal/abstract"
	"github.com/cbegin/doremi-go/internal/concrete"
	"github.com/cbegin/doremi-go/internal/parsing"
)

type (
	Composition  = concrete.Composition
	Note         = concrete.Note
	Scale        = concrete.Scale
	Scope        = abstract.Scope
	AbstractNote = abstract.AbstractNote

	// Error is an evaluation error; SyntaxError is a parse error. Both carry
	// the offending source line.
	Error       = abstract.Error
	ErrorKind   = abstract.ErrorKind
	SyntaxError = parsing.SyntaxError
)

const (
	DefaultScale = concrete.DefaultScale
	DefaultBPM   = 120.0
)

// NewScope returns an empty scope for threading definitions through
// successive Compose calls.
func NewScope() *Scope { return abstract.NewScope() }

type Option func(*composeConfig)

type composeConfig struct {
	scale     string
	bpm       float64
	scope     *Scope
	noteLimit int
	stepLimit int
	parser    parsing.ParserConfig
}

func defaultComposeConfig() composeConfig {
	return composeConfig{
		scale:  DefaultScale,
		bpm:    DefaultBPM,
		parser: parsing.DefaultParserConfig(),
	}
}

// WithScale names the scale, e.g. "C major" or "F# dorian".
func WithScale(name string) Option {
	return func(cfg *composeConfig) {
		cfg.scale = name
	}
}

func WithBPM(bpm float64) Option {
	return func(cfg *composeConfig) {
		cfg.bpm = bpm
	}
}

// WithScope evaluates against an existing scope. Definitions made by the
// source are added to it when Compose succeeds.
func WithScope(scope *Scope) Option {
	return func(cfg *composeConfig) {
		cfg.scope = scope
	}
}

// WithNoteLimit bounds how many notes a source may expand to.
func WithNoteLimit(n int) Option {
	return func(cfg *composeConfig) {
		cfg.noteLimit = n
	}
}

// WithStepLimit bounds how much evaluation work a source may cause.
func WithStepLimit(n int) Option {
	return func(cfg *composeConfig) {
		cfg.stepLimit = n
	}
}

// Compose parses and evaluates source. Errors are *SyntaxError or *Error
// values, or plain errors for a bad scale or tempo.
func Compose(source string, opts ...Option) (*Composition, error) {
	cfg := defaultComposeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	scale, err := concrete.GetScale(cfg.scale)
	if err != nil {
		return nil, err
	}
	coll, err := parsing.NewParser(cfg.parser).Parse(source)
	if err != nil {
		return nil, err
	}
	scope := cfg.scope
	if scope == nil {
		scope = abstract.NewScope()
	}
	// Definitions reach the caller's scope only once the notes resolve.
	staged := scope.Child()
	beats, notes, _, err := coll.EvaluateState(staged, abstract.State{NoteLimit: cfg.noteLimit, StepLimit: cfg.stepLimit})
	if err != nil {
		return nil, err
	}
	comp, err := concrete.NewComposition(scale, cfg.bpm, coll, beats, notes, scope)
	if err != nil {
		return nil, err
	}
	staged.Commit()
	return comp, nil
}

// Parse returns the syntax tree of source without evaluating it.
func Parse(source string) (*abstract.Collection, error) {
	return parsing.Parse(source)
}
