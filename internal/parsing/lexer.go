package parsing

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cbegin/doremi-go/internal/abstract"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokBlank
	tokWord
	tokInt
	tokBang
	tokAt
	tokQuote
	tokComma
	tokPlus
	tokMinus
	tokGreater
	tokLess
	tokTilde
	tokDot
	tokColon
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokLBrace
	tokRBrace
	tokEquals
)

var punctuation = map[rune]tokenKind{
	'!':  tokBang,
	'@':  tokAt,
	'\'': tokQuote,
	',':  tokComma,
	'+':  tokPlus,
	'-':  tokMinus,
	'>':  tokGreater,
	'<':  tokLess,
	'~':  tokTilde,
	'.':  tokDot,
	':':  tokColon,
	'*':  tokStar,
	'/':  tokSlash,
	'(':  tokLParen,
	')':  tokRParen,
	'{':  tokLBrace,
	'}':  tokRBrace,
	'=':  tokEquals,
}

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokBlank:
		return "end of line"
	case tokWord:
		return "word"
	case tokInt:
		return "number"
	}
	for r, kind := range punctuation {
		if kind == k {
			return fmt.Sprintf("%q", string(r))
		}
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	text string
	pos  abstract.Pos
	// comment holds the text after "|" when a blank token came from a comment.
	comment string
	// spaced is set when whitespace separates the token from the one before.
	spaced bool
}

func (t token) describe() string {
	switch t.kind {
	case tokWord, tokInt:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	}
	return t.kind.String()
}

func isWordStart(r rune) bool { return unicode.IsLetter(r) || r == '_' || r == '#' }
func isWordPart(r rune) bool  { return isWordStart(r) || isDigit(r) }
func isDigit(r rune) bool     { return r >= '0' && r <= '9' }
func isSpace(r rune) bool     { return r == ' ' || r == '\t' || r == '\r' }

// lex splits normalized source into tokens. Spaces and tabs separate tokens
// and are otherwise ignored; newlines and comments become blank tokens.
func lex(src string) ([]token, error) {
	toks := make([]token, 0, len(src)/2+1)
	line, col := 1, 1
	i := 0
	spaced := false
	emit := func(t token) {
		t.spaced = spaced
		toks = append(toks, t)
		spaced = false
	}
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		pos := abstract.Pos{Line: line, Column: col}
		switch {
		case r == utf8.RuneError && size == 1:
			return nil, &SyntaxError{Pos: pos, Message: "invalid UTF-8"}
		case isSpace(r):
			i += size
			col++
			spaced = true
		case r == '\n':
			emit(token{kind: tokBlank, text: "\n", pos: pos})
			i += size
			line++
			col = 1
		case r == '|':
			end := strings.IndexByte(src[i:], '\n')
			text := src[i+1:]
			next := len(src)
			if end >= 0 {
				text = src[i+1 : i+end]
				next = i + end + 1
			}
			emit(token{kind: tokBlank, text: src[i:next], pos: pos, comment: strings.TrimSpace(text)})
			i = next
			line++
			col = 1
		case isDigit(r):
			start := i
			for i < len(src) && isDigit(rune(src[i])) {
				i++
			}
			emit(token{kind: tokInt, text: src[start:i], pos: pos})
			col += i - start
		case isWordStart(r):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !isWordPart(r) {
					break
				}
				i += size
				col++
			}
			emit(token{kind: tokWord, text: src[start:i], pos: pos})
		default:
			kind, ok := punctuation[r]
			if !ok {
				return nil, &SyntaxError{Pos: pos, Message: fmt.Sprintf("unexpected character %q", r)}
			}
			emit(token{kind: kind, text: string(r), pos: pos})
			i += size
			col++
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: abstract.Pos{Line: line, Column: col}})
	return toks, nil
}
