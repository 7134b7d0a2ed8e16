package abstract

import "testing"

func TestScopeChildShadowsWithoutMutatingParent(t *testing.T) {
	root := NewScope()
	root.Define(define("a", nil, line(word("do"))))
	root.Define(define("b", nil, line(word("re"))))

	left := root.Child()
	left.Define(define("a", nil, line(word("mi"))))
	right := root.Child()

	p, ok := left.Lookup("a")
	if !ok || p.Lines[0].Modified[0].Expr.(Word).Name != "mi" {
		t.Fatalf("left lookup of a = %v, want the shadowing binding", p)
	}
	p, ok = right.Lookup("a")
	if !ok || p.Lines[0].Modified[0].Expr.(Word).Name != "do" {
		t.Fatalf("right lookup of a = %v, want the root binding", p)
	}
	if _, ok := left.Lookup("b"); !ok {
		t.Fatalf("expected b to resolve through the parent")
	}
	if _, ok := root.Lookup("zz"); ok {
		t.Fatalf("unexpected binding for zz")
	}
	if root.Len() != 2 || left.Len() != 1 || right.Len() != 0 {
		t.Fatalf("frame sizes = %d/%d/%d, want 2/1/0", root.Len(), left.Len(), right.Len())
	}
	if left.Parent() != root {
		t.Fatalf("left parent is not root")
	}
}

func TestScopeNamesAreSortedAndUnique(t *testing.T) {
	root := NewScope()
	root.Define(define("zeta", nil))
	root.Define(define("alpha", nil))
	child := root.Child()
	child.Define(define("alpha", []string{"x"}))
	child.Define(define("mid", nil))

	got := child.Names()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

func TestScopeCommit(t *testing.T) {
	root := NewScope()
	root.Define(define("a", nil, line(word("do"))))
	child := root.Child()
	child.Define(define("a", nil, line(word("mi"))))
	child.Define(define("b", nil, line(word("re"))))

	if _, ok := root.Lookup("b"); ok {
		t.Fatalf("child bindings leaked before commit")
	}
	child.Commit()
	p, ok := root.Lookup("a")
	if !ok || p.Lines[0].Modified[0].Expr.(Word).Name != "mi" {
		t.Fatalf("commit should replace a, got %v", p)
	}
	if _, ok := root.Lookup("b"); !ok {
		t.Fatalf("commit should add b")
	}
	root.Commit()
	if root.Len() != 2 {
		t.Fatalf("root frame size = %d, want 2", root.Len())
	}
}
