package abstract

import "sort"

// Scope maps symbol names to named passages. Child scopes shadow their
// parent without modifying it; several children may share one parent.
type Scope struct {
	symbols map[string]*NamedPassage
	parent  *Scope
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return &Scope{symbols: make(map[string]*NamedPassage)}
}

// Child creates a frame whose lookups fall back to s.
func (s *Scope) Child() *Scope {
	return &Scope{symbols: make(map[string]*NamedPassage), parent: s}
}

// Parent returns the enclosing scope, or nil for a root.
func (s *Scope) Parent() *Scope { return s.parent }

// Define binds the passage under its declared name in this frame. An
// existing binding of the same name in this frame is replaced.
func (s *Scope) Define(p *NamedPassage) {
	s.symbols[p.Name()] = p
}

// Lookup walks outward from s to the root.
func (s *Scope) Lookup(name string) (*NamedPassage, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if p, ok := cur.symbols[name]; ok {
			return p, true
		}
	}
	return nil, false
}

// Names lists every visible symbol, sorted.
func (s *Scope) Names() []string {
	seen := make(map[string]struct{})
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.symbols {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bindings in this frame only.
func (s *Scope) Len() int { return len(s.symbols) }

// Commit copies this frame's bindings into its parent, replacing any of the
// same name. It does nothing on a root scope.
func (s *Scope) Commit() {
	if s.parent == nil {
		return
	}
	for name, p := range s.symbols {
		s.parent.symbols[name] = p
	}
}
