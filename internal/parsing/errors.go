package parsing

import (
	"fmt"
	"strings"

	"github.com/cbegin/doremi-go/internal/abstract"
)

// SyntaxError reports source text the grammar does not accept.
type SyntaxError struct {
	Pos     abstract.Pos
	Message string
	Line    string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on line %d", e.Message, e.Pos.Line)
	if e.Line != "" {
		fmt.Fprintf(&b, "\n%s\n%s^", e.Line, strings.Repeat(" ", max(e.Pos.Column-1, 0)))
	}
	return b.String()
}

func errorf(pos abstract.Pos, format string, args ...any) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func sourceLine(src string, n int) string {
	if n < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}
