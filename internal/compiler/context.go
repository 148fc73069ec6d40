// Package compiler turns a validated API description into the Go source of
// a client package.
package compiler

import (
	"github.com/rs/zerolog"

	"github.com/hiranya911/rest-coder/internal/codegen"
	"github.com/hiranya911/rest-coder/internal/spec"
)

// RuntimeImport is the import path of the package generated clients call
// into.
const RuntimeImport = "github.com/hiranya911/rest-coder/pkg/clientrt"

// Options configures a compilation run.
type Options struct {
	// Package is the generated package name. It defaults to one derived from
	// the API name.
	Package string
	// Deserializer is the preferred media kind for decoding responses. It is
	// used by every operation that declares a matching output content type.
	Deserializer string
	Logger       zerolog.Logger
}

// Context holds all mutable state of one compilation run.
type Context struct {
	api  *spec.API
	opts Options
	log  zerolog.Logger

	names   *codegen.Scope
	types   map[string]*typeInfo
	order   []*typeInfo
	clients []*codegen.Type
	funcs   *codegen.FuncRegistry
	bodies  []*codegen.Function
}

func newContext(api *spec.API, opts Options) *Context {
	c := &Context{
		api:   api,
		opts:  opts,
		log:   opts.Logger,
		names: codegen.NewScope(codegen.TypeScope),
		types: make(map[string]*typeInfo, len(api.DataTypes)),
		funcs: codegen.NewFuncRegistry(),
	}
	c.names.Reserve(baseURLsVar)
	return c
}

// claim registers a free function. It returns nil when the function was
// generated before for the same key.
func (c *Context) claim(raw, key string) (*codegen.Function, string, error) {
	name, fresh, err := c.funcs.Claim(raw, key)
	if err != nil {
		return nil, "", err
	}
	if !fresh {
		return nil, name, nil
	}
	fn := codegen.NewFunction(name, "clientrt", "context", "fmt", "err")
	c.bodies = append(c.bodies, fn)
	return fn, name, nil
}
