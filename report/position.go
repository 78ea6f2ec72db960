package report

import (
	"fmt"
	"runtime"
)

// Position identifies where in the host program a piece of the DSL was
// declared. The control program is recorded from ordinary Go call sites, so
// a Position is a Go source location rather than an offset into a script
// file: there is no separate DSL source text for it to point into.
type Position struct {
	File string
	Line int
}

// Here captures the call site skip frames above its own caller. skip 0
// means "whoever called Here".
func Here(skip int) *Position {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return nil
	}
	return &Position{File: file, Line: line}
}

func (p *Position) String() string {
	if p == nil {
		return "<unknown position>"
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Span joins two positions into a range description, used when an error
// spans more than one recorded node (e.g. an If whose condition and body
// were declared several lines apart).
func Span(start, end *Position) string {
	if start == nil {
		return end.String()
	}
	if end == nil || (start.File == end.File && start.Line == end.Line) {
		return start.String()
	}
	if start.File == end.File {
		return fmt.Sprintf("%s:%d-%d", start.File, start.Line, end.Line)
	}
	return fmt.Sprintf("%s-%s", start, end)
}
