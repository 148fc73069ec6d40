package codegen

import (
	"fmt"
	"strings"
)

// Argument is a parameter of a generated function.
type Argument struct {
	Name string
	Type string
}

type stmtKind int

const (
	stmtLine stmtKind = iota
	stmtIndent
	stmtDedent
)

type stmt struct {
	kind stmtKind
	text string
}

// Function is a generated method (Receiver set) or free function.
type Function struct {
	Name     string
	Receiver string
	Doc      []string
	Args     []*Argument
	Results  []string

	locals *Scope
	body   []stmt
	depth  int
}

// NewFunction returns a function whose argument scope starts with reserved
// already taken.
func NewFunction(name string, reserved ...string) *Function {
	f := &Function{Name: name, locals: NewScope(ArgumentScope)}
	f.locals.Reserve(reserved...)
	return f
}

// AddArgument allocates an argument identifier from raw and records the
// mapping so later code can find it with Arg.
func (f *Function) AddArgument(raw, goType string) *Argument {
	a := &Argument{Name: f.locals.Allocate(raw), Type: goType}
	f.Args = append(f.Args, a)
	return a
}

// Arg returns the identifier allocated for the raw argument name.
func (f *Function) Arg(raw string) string { return f.locals.MustLookup(raw) }

// Local allocates a body-local identifier that cannot shadow an argument.
func (f *Function) Local(raw string) string { return f.locals.Fresh(raw) }

func (f *Function) Line(format string, args ...any) {
	f.Text(fmt.Sprintf(format, args...))
}

// Text appends s to the body verbatim.
func (f *Function) Text(s string) {
	f.body = append(f.body, stmt{kind: stmtLine, text: s})
}

func (f *Function) Indent() {
	f.depth++
	f.body = append(f.body, stmt{kind: stmtIndent})
}

func (f *Function) Dedent() {
	if f.depth == 0 {
		panic(fmt.Sprintf("internal error in code generator: dedent below zero in %s", f.Name))
	}
	f.depth--
	f.body = append(f.body, stmt{kind: stmtDedent})
}

// Block writes header followed by "{" and indents; End closes it.
func (f *Function) Block(format string, args ...any) {
	f.Line(format+" {", args...)
	f.Indent()
}

func (f *Function) End() {
	f.Dedent()
	f.Line("}")
}

// Signature renders the function header without the opening brace.
func (f *Function) Signature() string {
	var b strings.Builder
	b.WriteString("func ")
	if f.Receiver != "" {
		b.WriteString("(" + f.Receiver + ") ")
	}
	b.WriteString(f.Name)
	b.WriteByte('(')
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Name + " " + a.Type)
	}
	b.WriteByte(')')
	switch len(f.Results) {
	case 0:
	case 1:
		b.WriteString(" " + f.Results[0])
	default:
		b.WriteString(" (" + strings.Join(f.Results, ", ") + ")")
	}
	return b.String()
}

func (f *Function) Render(w *Writer) {
	writeDoc(w, f.Doc)
	w.Text(f.Signature() + " {")
	w.Indent()
	for _, s := range f.body {
		switch s.kind {
		case stmtIndent:
			w.Indent()
		case stmtDedent:
			w.Dedent()
		default:
			w.Text(s.text)
		}
	}
	w.Dedent()
	w.Line("}")
}

func writeDoc(w *Writer, doc []string) {
	for _, d := range doc {
		if d == "" {
			w.Line("//")
			continue
		}
		w.Text("// " + d)
	}
}

// Field is a struct field of a generated type.
type Field struct {
	Name string
	Type string
	Tag  string
	Doc  string
}

// Type is a generated struct with its constructor and methods.
type Type struct {
	Name        string
	Doc         []string
	Embeds      []string
	Fields      []*Field
	Constructor *Function
	Methods     []*Function

	methods *Scope
}

func NewType(name string) *Type {
	return &Type{Name: name, methods: NewScope(MethodScope)}
}

// ReserveMethods keeps method identifiers such as promoted methods of
// embedded types out of allocation.
func (t *Type) ReserveMethods(names ...string) { t.methods.Reserve(names...) }

// AddMethod allocates a method identifier from raw. The receiver is recv
// followed by a pointer to the type; recv is reserved in the method's
// argument scope.
func (t *Type) AddMethod(raw, recv string, reserved ...string) *Function {
	fn := NewFunction(t.methods.Allocate(raw), append([]string{recv}, reserved...)...)
	fn.Receiver = recv + " *" + t.Name
	t.Methods = append(t.Methods, fn)
	return fn
}

func (t *Type) Render(w *Writer) {
	writeDoc(w, t.Doc)
	w.Line("type %s struct {", t.Name)
	w.Indent()
	for _, e := range t.Embeds {
		w.Text(e)
	}
	for _, fld := range t.Fields {
		if fld.Doc != "" {
			w.Text("// " + fld.Doc)
		}
		line := fld.Name + " " + fld.Type
		if fld.Tag != "" {
			line += " `" + fld.Tag + "`"
		}
		w.Text(line)
	}
	w.Dedent()
	w.Line("}")
	if t.Constructor != nil {
		w.Blank()
		t.Constructor.Render(w)
	}
	for _, m := range t.Methods {
		w.Blank()
		m.Render(w)
	}
}

// DocLines splits free text into comment lines.
func DocLines(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}

// OneLine collapses free text onto a single comment line.
func OneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
