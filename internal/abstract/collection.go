package abstract

import (
	"errors"
	"math/big"
)

// Evaluate registers every named passage into scope, then plays the unnamed
// passages one after another. A nil scope starts from an empty one. The
// returned scope is the one passed in (or created) and can be threaded into
// the next call.
//
// On error the scope is left as it was.
func (c *Collection) Evaluate(scope *Scope) (*big.Rat, []AbstractNote, *Scope, error) {
	return c.EvaluateState(scope, State{})
}

// EvaluateState is Evaluate with an explicit initial state.
func (c *Collection) EvaluateState(scope *Scope, st State) (*big.Rat, []AbstractNote, *Scope, error) {
	if scope == nil {
		scope = NewScope()
	}
	st = st.withBudget()

	staged := scope.Child()
	var unnamed []*UnnamedPassage
	for _, p := range c.Passages {
		switch p := p.(type) {
		case *NamedPassage:
			if err := checkAssignment(p.Assignment); err != nil {
				return nil, nil, scope, c.attach(err)
			}
			staged.Define(p)
		case *UnnamedPassage:
			unnamed = append(unnamed, p)
		}
	}

	total := new(big.Rat)
	var notes []AbstractNote
	for _, p := range unnamed {
		dur, sub, err := evaluateLines(p.Lines, staged, st)
		if err != nil {
			return nil, nil, scope, c.attach(err)
		}
		if len(notes)+len(sub) > st.limit() {
			return nil, nil, scope, c.attach(NewError(TooManyNotes, passagePos(p), "",
				"composition exceeds the limit of %d notes", st.limit()))
		}
		for _, n := range sub {
			notes = append(notes, n.shifted(total))
		}
		total.Add(total, dur)
	}

	staged.Commit()
	return total, notes, scope, nil
}

func checkAssignment(a Assignment) error {
	if a.Function.IsRest() {
		return NewError(SymbolAllUnderscores, a.Function.Pos, a.Function.Name,
			"symbol %q is reserved for rests", a.Function.Name)
	}
	for _, param := range a.Parameters {
		if param.IsRest() {
			return NewError(SymbolAllUnderscores, param.Pos, param.Name,
				"parameter %q of %q is reserved for rests", param.Name, a.Function.Name)
		}
	}
	return nil
}

func (c *Collection) attach(err error) error {
	var e *Error
	if errors.As(err, &e) {
		e.WithSource(c.Source)
	}
	return err
}

func passagePos(p *UnnamedPassage) Pos {
	if len(p.Lines) == 0 {
		return Pos{}
	}
	return p.Lines[0].Pos
}
