package codegen

import (
	"fmt"
	"strings"
)

// Writer accumulates indented source lines.
type Writer struct {
	tab   string
	level int
	buf   strings.Builder
}

func NewWriter(tab string) *Writer { return &Writer{tab: tab} }

func (w *Writer) Indent() { w.level++ }

// Dedent panics when it would move left of column zero.
func (w *Writer) Dedent() {
	if w.level == 0 {
		panic("internal error in code generator: dedent below zero")
	}
	w.level--
}

func (w *Writer) Level() int { return w.level }

// Line writes one formatted line at the current indentation.
func (w *Writer) Line(format string, args ...any) {
	w.Text(fmt.Sprintf(format, args...))
}

// Text writes s verbatim at the current indentation.
func (w *Writer) Text(text string) {
	if text == "" {
		w.buf.WriteByte('\n')
		return
	}
	w.buf.WriteString(strings.Repeat(w.tab, w.level))
	w.buf.WriteString(text)
	w.buf.WriteByte('\n')
}

func (w *Writer) Blank() { w.buf.WriteByte('\n') }

func (w *Writer) String() string { return w.buf.String() }
