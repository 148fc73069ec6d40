package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/hiranya911/rest-coder/internal/codegen"
	"github.com/hiranya911/rest-coder/internal/spec"
)

const (
	generatedHeader = "// Code generated by restcoder. DO NOT EDIT."
	baseURLsVar     = "BaseURLs"
)

// NewContext validates api and registers its data types.
func NewContext(api *spec.API, opts Options) (*Context, error) {
	if api == nil {
		return nil, fmt.Errorf("compiler: nil API")
	}
	if err := api.Validate(); err != nil {
		return nil, err
	}
	if opts.Package == "" {
		opts.Package = PackageName(api.Name)
	}
	c := newContext(api, opts)
	c.registerTypes()
	return c, nil
}

// Compile generates the client package for api: a struct and constructor per
// data type, a client per resource and the codec functions they use.
func Compile(api *spec.API, opts Options) (*Output, error) {
	c, err := NewContext(api, opts)
	if err != nil {
		return nil, err
	}
	for _, r := range api.Resources {
		if err := c.CompileResource(r); err != nil {
			return nil, err
		}
	}
	out := c.Output()
	c.log.Debug().
		Str("package", out.Package).
		Int("types", len(out.Types)).
		Int("clients", len(out.Clients)).
		Int("functions", len(out.Functions)).
		Msg("compiled client")
	return out, nil
}

// Output is the result of a compilation run.
type Output struct {
	Package   string
	Types     []string
	Clients   []string
	Functions []string

	source string
}

// Output assembles everything generated so far.
func (c *Context) Output() *Output {
	out := &Output{Package: c.opts.Package}
	w := codegen.NewWriter("\t")
	w.Text(generatedHeader)
	w.Blank()
	w.Line("// Package %s is a client for the %s API.", c.opts.Package, codegen.OneLine(c.api.Name))
	if doc := codegen.DocLines(c.api.Description); len(doc) > 0 {
		w.Line("//")
		for _, l := range doc {
			if l == "" {
				w.Line("//")
				continue
			}
			w.Text("// " + l)
		}
	}
	w.Text("package " + c.opts.Package)
	w.Blank()
	w.Line("import (")
	w.Indent()
	w.Line(`"context"`)
	w.Line(`"fmt"`)
	w.Blank()
	w.Text(strconv.Quote(RuntimeImport))
	w.Dedent()
	w.Line(")")
	w.Blank()

	w.Line("// %s lists the endpoints declared by the API.", baseURLsVar)
	w.Line("var %s = []string{", baseURLsVar)
	w.Indent()
	for _, u := range c.api.Base {
		w.Line("%s,", strconv.Quote(u))
	}
	w.Dedent()
	w.Line("}")

	for _, info := range c.order {
		w.Blank()
		info.decl.Render(w)
		out.Types = append(out.Types, info.Name())
	}
	for _, decl := range c.clients {
		w.Blank()
		decl.Render(w)
		out.Clients = append(out.Clients, decl.Name)
	}
	for _, fn := range c.bodies {
		w.Blank()
		fn.Render(w)
		out.Functions = append(out.Functions, fn.Name)
	}
	out.source = w.String()
	return out
}

// Source is the generated text before formatting.
func (o *Output) Source() string { return o.source }

// Render formats the generated source and drops unused imports.
func (o *Output) Render() ([]byte, error) {
	formatted, err := imports.Process("client.go", []byte(o.source), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("compiler: format generated source: %w", err)
	}
	return formatted, nil
}

// PackageName derives a Go package name from an API name.
func PackageName(apiName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(apiName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "client" + name
	}
	if codegen.Sanitize(name, codegen.FuncScope) != name {
		name += "api"
	}
	return name
}
