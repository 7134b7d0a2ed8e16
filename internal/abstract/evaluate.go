package abstract

import (
	"fmt"
	"math/big"
	"slices"
)

// DefaultNoteLimit caps the number of notes a single evaluation may produce.
const DefaultNoteLimit = 1 << 20

// DefaultStepLimit caps how many words and calls a single evaluation may
// visit. Rests and re-evaluated arguments count even though they emit no
// notes.
const DefaultStepLimit = 1 << 22

// State is the context inherited by every node during evaluation. It is
// passed by value; slices are never appended to in place.
type State struct {
	Emphasis      int
	Octave        int
	Augmentations []Augmentation
	CallStack     []string
	// NoteLimit bounds the note count; zero or less means DefaultNoteLimit.
	NoteLimit int
	// StepLimit bounds the work done; zero or less means DefaultStepLimit.
	StepLimit int

	// steps is the budget left, shared by every copy of the state made
	// below the entry point.
	steps *int
}

// withBudget starts the step budget unless an enclosing call already has.
func (st State) withBudget() State {
	if st.steps == nil {
		n := st.StepLimit
		if n <= 0 {
			n = DefaultStepLimit
		}
		st.steps = &n
	}
	return st
}

func (st State) step(pos Pos, name string) error {
	if st.steps == nil {
		return nil
	}
	*st.steps--
	if *st.steps < 0 {
		return NewError(TooManySteps, pos, name,
			"evaluation exceeds the limit of %d steps", st.stepLimit())
	}
	return nil
}

func (st State) stepLimit() int {
	if st.StepLimit <= 0 {
		return DefaultStepLimit
	}
	return st.StepLimit
}

func (st State) limit() int {
	if st.NoteLimit <= 0 {
		return DefaultNoteLimit
	}
	return st.NoteLimit
}

// Evaluate walks node and returns its duration in beats together with its
// notes, timed from zero.
func Evaluate(node Node, scope *Scope, st State) (*big.Rat, []AbstractNote, error) {
	if scope == nil {
		scope = NewScope()
	}
	st = st.withBudget()
	switch n := node.(type) {
	case Word:
		return evaluateWord(n, scope, st)
	case *Call:
		return evaluateCall(n, scope, st)
	case Group:
		return evaluateSequence(n, scope, st)
	case *Modified:
		return evaluateModified(n, scope, st)
	case *Line:
		return evaluateSequence(n.Modified, scope, st)
	case *NamedPassage:
		return evaluateLines(n.Lines, scope, st)
	case *UnnamedPassage:
		return evaluateLines(n.Lines, scope, st)
	default:
		panic(fmt.Sprintf("abstract: unexpected node %T", node))
	}
}

func evaluateWord(w Word, scope *Scope, st State) (*big.Rat, []AbstractNote, error) {
	if err := st.step(w.Pos, w.Name); err != nil {
		return nil, nil, err
	}
	if _, ok := scope.Lookup(w.Name); ok {
		return evaluateCall(&Call{Function: w}, scope, st)
	}
	if w.IsRest() {
		return big.NewRat(int64(len([]rune(w.Name))), 1), nil, nil
	}
	note := AbstractNote{
		Start:         new(big.Rat),
		Stop:          big.NewRat(1, 1),
		Word:          w,
		Emphasis:      st.Emphasis,
		Octave:        st.Octave,
		Augmentations: st.Augmentations,
	}
	return big.NewRat(1, 1), []AbstractNote{note}, nil
}

func evaluateCall(c *Call, scope *Scope, st State) (*big.Rat, []AbstractNote, error) {
	name := c.Function.Name
	if err := st.step(c.Function.Pos, name); err != nil {
		return nil, nil, err
	}
	fn, ok := scope.Lookup(name)
	if !ok {
		return nil, nil, NewError(UndefinedSymbol, c.Function.Pos, name, "undefined symbol %q", name)
	}
	if slices.Contains(st.CallStack, name) {
		return nil, nil, NewError(RecursiveFunction, c.Function.Pos, name,
			"recursive call to %q (call stack %v)", name, st.CallStack)
	}
	if len(c.Args) != fn.Arity() {
		return nil, nil, NewError(MismatchingArguments, c.Function.Pos, name,
			"%q takes %d arguments but %d were given", name, fn.Arity(), len(c.Args))
	}

	// Arguments are bound unevaluated; each use re-evaluates them in the
	// callee's context.
	frame := scope.Child()
	for i, param := range fn.Assignment.Parameters {
		arg := c.Args[i]
		frame.Define(&NamedPassage{
			Assignment: Assignment{Function: param},
			Lines:      []*Line{{Modified: []*Modified{arg}, Pos: arg.Pos}},
		})
	}
	st.CallStack = append(slices.Clip(st.CallStack), name)
	return evaluateLines(fn.Lines, frame, st)
}

func evaluateModified(m *Modified, scope *Scope, st State) (*big.Rat, []AbstractNote, error) {
	augs := st.Augmentations
	if m.Absolute > 0 {
		augs = augs[:max(len(augs)-m.Absolute, 0)]
	}
	if m.Augmentation != nil {
		augs = append(slices.Clip(augs), m.Augmentation)
	}
	inner := st
	inner.Emphasis += m.Emphasis
	inner.Octave += m.Octave
	inner.Augmentations = augs

	dur, notes, err := Evaluate(m.Expr, scope, inner)
	if err != nil {
		return nil, nil, err
	}

	if d := m.Duration; d != nil {
		var factor *big.Rat
		if d.Scaling {
			factor = d.Amount
			dur = new(big.Rat).Mul(dur, d.Amount)
		} else {
			if dur.Sign() == 0 {
				return nil, nil, NewError(ZeroDuration, m.Pos, "",
					"cannot set duration %s on an expression with no duration", d.Amount.RatString())
			}
			factor = new(big.Rat).Quo(d.Amount, dur)
			dur = new(big.Rat).Set(d.Amount)
		}
		for i := range notes {
			notes[i] = notes[i].scaled(factor)
		}
	}

	if m.Repetition > 1 && len(notes) > 0 {
		if len(notes) > st.limit()/m.Repetition {
			return nil, nil, NewError(TooManyNotes, m.Pos, "",
				"repeating %d notes %d times exceeds the limit of %d notes", len(notes), m.Repetition, st.limit())
		}
		repeated := make([]AbstractNote, 0, len(notes)*m.Repetition)
		repeated = append(repeated, notes...)
		for i := 1; i < m.Repetition; i++ {
			offset := new(big.Rat).Mul(dur, big.NewRat(int64(i), 1))
			for _, n := range notes {
				repeated = append(repeated, n.shifted(offset))
			}
		}
		notes = repeated
	}
	if m.Repetition > 1 {
		dur = new(big.Rat).Mul(dur, big.NewRat(int64(m.Repetition), 1))
	}
	return dur, notes, nil
}

// evaluateSequence concatenates items in time.
func evaluateSequence(items []*Modified, scope *Scope, st State) (*big.Rat, []AbstractNote, error) {
	total := new(big.Rat)
	var notes []AbstractNote
	for _, item := range items {
		dur, sub, err := evaluateModified(item, scope, st)
		if err != nil {
			return nil, nil, err
		}
		if len(notes)+len(sub) > st.limit() {
			return nil, nil, NewError(TooManyNotes, item.Pos, "",
				"sequence exceeds the limit of %d notes", st.limit())
		}
		for _, n := range sub {
			notes = append(notes, n.shifted(total))
		}
		total.Add(total, dur)
	}
	return total, notes, nil
}

// evaluateLines plays lines in parallel: every line starts at zero and the
// result lasts as long as the longest one.
func evaluateLines(lines []*Line, scope *Scope, st State) (*big.Rat, []AbstractNote, error) {
	longest := new(big.Rat)
	var notes []AbstractNote
	for _, line := range lines {
		dur, sub, err := evaluateSequence(line.Modified, scope, st)
		if err != nil {
			return nil, nil, err
		}
		if len(notes)+len(sub) > st.limit() {
			return nil, nil, NewError(TooManyNotes, line.Pos, "",
				"passage exceeds the limit of %d notes", st.limit())
		}
		notes = append(notes, sub...)
		if dur.Cmp(longest) > 0 {
			longest = dur
		}
	}
	return longest, notes, nil
}
