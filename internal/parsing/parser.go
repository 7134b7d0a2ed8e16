package parsing

import (
	"errors"
	"math/big"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/cbegin/doremi-go/internal/abstract"
)

type ParserConfig struct {
	// MaxNumber bounds every integer literal.
	MaxNumber int
	// MaxRepetition bounds "*N".
	MaxRepetition int
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		MaxNumber:     1 << 20,
		MaxRepetition: 1 << 16,
	}
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

// Parse parses source with the default configuration.
func Parse(source string) (*abstract.Collection, error) {
	return NewParser(DefaultParserConfig()).Parse(source)
}

// Parse normalizes source to NFC and builds the syntax tree. The returned
// collection's Source is the normalized text.
func (p *Parser) Parse(source string) (*abstract.Collection, error) {
	src := norm.NFC.String(source)
	coll, err := p.parse(src)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) && se.Line == "" {
			se.Line = sourceLine(src, se.Pos.Line)
		}
		return nil, err
	}
	coll.Source = src
	return coll, nil
}

func (p *Parser) parse(src string) (*abstract.Collection, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	st := &parseState{cfg: p.cfg, toks: toks}
	return st.collection()
}

type parseState struct {
	cfg      ParserConfig
	toks     []token
	i        int
	comments []abstract.Comment
}

func (st *parseState) peek() token { return st.toks[st.i] }

func (st *parseState) peekAt(n int) token {
	if st.i+n >= len(st.toks) {
		return st.toks[len(st.toks)-1]
	}
	return st.toks[st.i+n]
}

func (st *parseState) next() token {
	t := st.toks[st.i]
	if t.kind != tokEOF {
		st.i++
	}
	return t
}

func (st *parseState) accept(kind tokenKind) bool {
	if st.peek().kind == kind {
		st.next()
		return true
	}
	return false
}

// blanks consumes consecutive blank tokens and returns how many there were.
func (st *parseState) blanks() int {
	n := 0
	for st.peek().kind == tokBlank {
		st.blank()
		n++
	}
	return n
}

func (st *parseState) blank() {
	t := st.next()
	if t.kind == tokBlank && t.text != "\n" {
		st.comments = append(st.comments, abstract.Comment{Text: t.comment, Line: t.pos.Line})
	}
}

func (st *parseState) collection() (*abstract.Collection, error) {
	coll := &abstract.Collection{}
	st.blanks()
	for st.peek().kind != tokEOF {
		passage, err := st.passage()
		if err != nil {
			return nil, err
		}
		coll.Passages = append(coll.Passages, passage)
		if st.blanks() == 0 && st.peek().kind != tokEOF {
			t := st.peek()
			return nil, errorf(t.pos, "unexpected %s", t.describe())
		}
	}
	coll.Comments = st.comments
	return coll, nil
}

func (st *parseState) passage() (abstract.Passage, error) {
	assign, named, err := st.assignment()
	if err != nil {
		return nil, err
	}
	if named && st.peek().kind == tokBlank {
		st.blank()
	}
	var lines []*abstract.Line
	for {
		line, err := st.line()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
		// A single blank continues the passage; two or more end it.
		if st.peek().kind != tokBlank {
			break
		}
		if k := st.peekAt(1).kind; k == tokBlank || k == tokEOF {
			break
		}
		st.blank()
	}
	if named {
		return &abstract.NamedPassage{Assignment: assign, Lines: lines}, nil
	}
	return &abstract.UnnamedPassage{Lines: lines}, nil
}

// assignment recognizes "f =" and "f(x y) =". When the tokens do not form an
// assignment the position is restored and named is false.
func (st *parseState) assignment() (assign abstract.Assignment, named bool, err error) {
	save := st.i
	defer func() {
		if !named {
			st.i = save
		}
	}()
	if st.peek().kind != tokWord {
		return assign, false, nil
	}
	name := st.next()
	assign.Function = abstract.Word{Name: name.text, Pos: name.pos}
	if st.accept(tokLParen) {
		for st.peek().kind == tokWord {
			t := st.next()
			assign.Parameters = append(assign.Parameters, abstract.Word{Name: t.text, Pos: t.pos})
		}
		if !st.accept(tokRParen) {
			return abstract.Assignment{}, false, nil
		}
	}
	if !st.accept(tokEquals) {
		return abstract.Assignment{}, false, nil
	}
	seen := make(map[string]bool, len(assign.Parameters))
	for _, param := range assign.Parameters {
		if seen[param.Name] {
			return assign, true, errorf(param.Pos, "duplicate parameter %q in definition of %q", param.Name, assign.Function.Name)
		}
		seen[param.Name] = true
	}
	return assign, true, nil
}

func (st *parseState) line() (*abstract.Line, error) {
	line := &abstract.Line{Pos: st.peek().pos}
	for {
		switch st.peek().kind {
		case tokBlank, tokEOF:
			if len(line.Modified) == 0 {
				t := st.peek()
				return nil, errorf(t.pos, "expected a note, found %s", t.describe())
			}
			return line, nil
		}
		m, err := st.modified()
		if err != nil {
			return nil, err
		}
		line.Modified = append(line.Modified, m)
	}
}

// endsNote reports whether a token of kind k can close a modified
// expression, so that a comma glued to it cannot start the next one.
func endsNote(k tokenKind) bool {
	switch k {
	case tokBlank, tokBang, tokAt, tokLParen, tokLBrace, tokEquals:
		return false
	}
	return true
}

func (st *parseState) modified() (*abstract.Modified, error) {
	m := &abstract.Modified{Pos: st.peek().pos, Repetition: 1}
	for st.accept(tokBang) {
		m.Emphasis++
	}
	for st.accept(tokAt) {
		m.Absolute++
	}

	if t := st.peek(); t.kind == tokComma && !t.spaced && st.i > 0 && endsNote(st.toks[st.i-1].kind) {
		return nil, errorf(t.pos, "unexpected \",\" after %s: separate notes with spaces; \",\" lowers the note that follows it",
			st.toks[st.i-1].describe())
	}
	switch st.peek().kind {
	case tokQuote, tokComma:
		sign := 1
		if st.peek().kind == tokComma {
			sign = -1
		}
		n, err := st.marks(st.peek().kind)
		if err != nil {
			return nil, err
		}
		m.Octave = sign * n
	}

	expr, err := st.expression()
	if err != nil {
		return nil, err
	}
	m.Expr = expr

	switch kind := st.peek().kind; kind {
	case tokPlus, tokMinus:
		n, err := st.marks(kind)
		if err != nil {
			return nil, err
		}
		if kind == tokMinus {
			n = -n
		}
		m.Augmentation = abstract.AugmentStep{Amount: n}
	case tokGreater, tokLess:
		n, err := st.marks(kind)
		if err != nil {
			return nil, err
		}
		if kind == tokLess {
			n = -n
		}
		m.Augmentation = abstract.AugmentDegree{Amount: n}
	case tokTilde:
		st.next()
		r, err := st.ratio()
		if err != nil {
			return nil, err
		}
		m.Augmentation = abstract.AugmentRatio{Ratio: r}
	}

	switch st.peek().kind {
	case tokDot:
		n := int64(0)
		for st.accept(tokDot) {
			n++
		}
		m.Duration = &abstract.Duration{Amount: big.NewRat(n, 1)}
	case tokColon:
		st.next()
		scaling := st.accept(tokStar)
		r, err := st.ratio()
		if err != nil {
			return nil, err
		}
		m.Duration = &abstract.Duration{Amount: r, Scaling: scaling}
	}

	if st.peek().kind == tokStar {
		st.next()
		t := st.peek()
		n, err := st.number()
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, errorf(t.pos, "repetition must be at least 1")
		}
		if n > st.cfg.MaxRepetition {
			return nil, errorf(t.pos, "repetition %d exceeds the maximum of %d", n, st.cfg.MaxRepetition)
		}
		m.Repetition = n
	}
	return m, nil
}

// marks reads either a run of one mark ("+++") or a single mark followed by
// a count ("+3").
func (st *parseState) marks(kind tokenKind) (int, error) {
	n := 0
	for st.accept(kind) {
		n++
	}
	if st.peek().kind != tokInt {
		return n, nil
	}
	if n > 1 {
		t := st.peek()
		return 0, errorf(t.pos, "a count can only follow a single %s", kind)
	}
	return st.number()
}

func (st *parseState) expression() (abstract.Expression, error) {
	t := st.peek()
	switch t.kind {
	case tokWord:
		st.next()
		w := abstract.Word{Name: t.text, Pos: t.pos}
		if !st.accept(tokLParen) {
			return w, nil
		}
		args, err := st.until(tokRParen, t.pos, "(")
		if err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return w, nil
		}
		return &abstract.Call{Function: w, Args: args}, nil
	case tokLBrace:
		st.next()
		items, err := st.until(tokRBrace, t.pos, "{")
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, errorf(t.pos, "empty group")
		}
		return abstract.Group(items), nil
	}
	return nil, errorf(t.pos, "expected a note, rest, call or group, found %s", t.describe())
}

// until parses modified expressions up to the closing token.
func (st *parseState) until(closing tokenKind, open abstract.Pos, opener string) ([]*abstract.Modified, error) {
	var items []*abstract.Modified
	for !st.accept(closing) {
		switch st.peek().kind {
		case tokBlank, tokEOF:
			return nil, errorf(open, "unclosed %q", opener)
		}
		m, err := st.modified()
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, nil
}

func (st *parseState) ratio() (*big.Rat, error) {
	t := st.peek()
	num, err := st.number()
	if err != nil {
		return nil, err
	}
	den := 1
	if st.accept(tokSlash) {
		if den, err = st.number(); err != nil {
			return nil, err
		}
	}
	if num == 0 || den == 0 {
		return nil, errorf(t.pos, "ratio must be positive")
	}
	return big.NewRat(int64(num), int64(den)), nil
}

func (st *parseState) number() (int, error) {
	t := st.peek()
	if t.kind != tokInt {
		return 0, errorf(t.pos, "expected a number, found %s", t.describe())
	}
	st.next()
	n, err := strconv.Atoi(t.text)
	if err != nil || n > st.cfg.MaxNumber {
		return 0, errorf(t.pos, "number %s is too large", t.text)
	}
	return n, nil
}
