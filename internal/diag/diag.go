// Package diag renders compose errors for terminals: a headline, the file
// position, and the offending line with a caret under the column.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/cbegin/doremi-go/internal/abstract"
	"github.com/cbegin/doremi-go/internal/parsing"
)

// Diagnostic is the renderable part of an error.
type Diagnostic struct {
	Code    string // "syntax" or the evaluation error kind
	Message string
	Line    int
	Column  int
	Source  string // the offending line, if known
}

// FromError extracts a diagnostic. ok is false for errors that carry no
// position; those render as a plain headline.
func FromError(err error) (d Diagnostic, ok bool) {
	var se *parsing.SyntaxError
	if errors.As(err, &se) {
		return Diagnostic{Code: "syntax", Message: se.Message, Line: se.Pos.Line, Column: se.Pos.Column, Source: se.Line}, true
	}
	var ae *abstract.Error
	if errors.As(err, &ae) {
		return Diagnostic{Code: kebab(ae.Kind.String()), Message: ae.Message, Line: ae.Pos.Line, Column: ae.Pos.Column, Source: ae.Line}, true
	}
	return Diagnostic{Message: err.Error()}, false
}

type Printer struct {
	w        io.Writer
	headline *color.Color
	code     *color.Color
	gutter   *color.Color
	caret    *color.Color
}

// NewPrinter writes to w. Color escapes are emitted only when useColor is
// set.
func NewPrinter(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:        w,
		headline: color.New(color.FgRed, color.Bold),
		code:     color.New(color.Bold),
		gutter:   color.New(color.FgBlue, color.Bold),
		caret:    color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.headline, p.code, p.gutter, p.caret} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Print renders err as it relates to file.
func (p *Printer) Print(file string, err error) {
	d, ok := FromError(err)
	label := "error"
	if d.Code != "" {
		label += "[" + d.Code + "]"
	}
	fmt.Fprintf(p.w, "%s: %s\n", p.headline.Sprint(label), p.code.Sprint(d.Message))
	if !ok {
		return
	}
	fmt.Fprintf(p.w, "  %s %s:%d:%d\n", p.gutter.Sprint("-->"), file, d.Line, d.Column)
	if d.Source == "" {
		return
	}
	num := strconv.Itoa(d.Line)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(p.w, "%s %s\n", pad, p.gutter.Sprint("|"))
	fmt.Fprintf(p.w, "%s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), d.Source)
	fmt.Fprintf(p.w, "%s %s %s%s\n", pad, p.gutter.Sprint("|"), CaretPadding(d.Source, d.Column), p.caret.Sprint("^"))
}

// CaretPadding is the whitespace that puts a caret under the 1-based rune
// column of line. Tabs are kept and wide runes count double so the caret
// lines up in a terminal.
func CaretPadding(line string, column int) string {
	var b strings.Builder
	i := 1
	for _, r := range line {
		if i >= column {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
		}
		i++
	}
	if i < column {
		b.WriteString(strings.Repeat(" ", column-i))
	}
	return b.String()
}

// kebab turns an identifier like NoteNotInScale into note-not-in-scale.
func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
