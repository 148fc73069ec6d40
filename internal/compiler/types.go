package compiler

import (
	"fmt"
	"strings"

	"github.com/hiranya911/rest-coder/internal/codegen"
	"github.com/hiranya911/rest-coder/internal/spec"
)

type typeInfo struct {
	def    *spec.NamedType
	decl   *codegen.Type
	fields *codegen.Scope
}

// Name is the Go identifier of the generated struct.
func (t *typeInfo) Name() string { return t.decl.Name }

// Field returns the struct field holding the schema field raw.
func (t *typeInfo) Field(raw string) string { return t.fields.MustLookup(raw) }

// registerTypes allocates identifiers for every named type and builds its
// struct and constructor. All names are allocated before any type is built so
// field types can refer to types declared later.
func (c *Context) registerTypes() {
	for _, nt := range c.api.DataTypes {
		info := &typeInfo{
			def:    nt,
			decl:   codegen.NewType(c.names.Allocate(nt.Name)),
			fields: codegen.NewScope(codegen.MethodScope),
		}
		c.types[nt.Name] = info
		c.order = append(c.order, info)
	}
	for _, info := range c.order {
		c.buildType(info)
	}
}

func (c *Context) buildType(info *typeInfo) {
	decl := info.decl
	decl.Doc = codegen.DocLines(info.def.Description)
	ctor := codegen.NewFunction(c.names.Fresh("New" + decl.Name))
	ctor.Doc = []string{fmt.Sprintf("%s returns a %s with every field set.", ctor.Name, decl.Name)}
	ctor.Results = []string{"*" + decl.Name}

	inits := make([]string, 0, len(info.def.Fields))
	for _, f := range info.def.Fields {
		goType := c.goType(f.Type.TypeRef)
		name := info.fields.Allocate(f.Name)
		decl.Fields = append(decl.Fields, &codegen.Field{
			Name: name,
			Type: goType,
			Tag:  fieldTag(f.Name, goType),
			Doc:  codegen.OneLine(f.Description),
		})
		arg := ctor.AddArgument(f.Name, goType)
		inits = append(inits, name+": "+arg.Name)
	}
	ctor.Line("return &%s{%s}", decl.Name, strings.Join(inits, ", "))
	decl.Constructor = ctor
	c.log.Debug().Str("type", info.def.Name).Str("go", decl.Name).Bool("synthetic", info.def.Synthetic).Msg("registered type")
}

func fieldTag(key, goType string) string {
	form := key
	if goType == mapType {
		form = "-"
	}
	return fmt.Sprintf(`json:"%s,omitempty" form:"%s"`, key, form)
}

const mapType = "map[string]any"

// lookup returns the registered type behind a named reference.
func (c *Context) lookup(name string) *typeInfo {
	info, ok := c.types[name]
	if !ok {
		panic(fmt.Sprintf("internal error in code generator: type %q was not registered", name))
	}
	return info
}

var primitiveGoTypes = map[spec.PrimitiveKind]string{
	spec.Short:   "int16",
	spec.Int:     "int32",
	spec.Long:    "int64",
	spec.String:  "string",
	spec.Boolean: "bool",
	spec.Double:  "float64",
	spec.Byte:    "int8",
	spec.Binary:  "[]byte",
	spec.Href:    "string",
}

// goType renders the Go type of ref. _NONE_ has no value and renders as "".
func (c *Context) goType(ref spec.TypeRef) string {
	switch r := ref.(type) {
	case *spec.Primitive:
		t, ok := primitiveGoTypes[r.Kind]
		if !ok {
			panic(fmt.Sprintf("internal error in code generator: unknown primitive %q", r.Kind))
		}
		return t
	case *spec.Container:
		return "[]" + c.goType(r.Elem)
	case *spec.CustomRef:
		switch r.Name {
		case spec.APIType:
			return mapType
		case spec.NoneType:
			return ""
		}
		return "*" + c.lookup(r.Name).Name()
	case *spec.Composite:
		panic("internal error in code generator: inline composite survived interning")
	default:
		panic(fmt.Sprintf("internal error in code generator: unexpected type reference %T", ref))
	}
}

// zeroValue is the literal returned alongside an error.
func zeroValue(goType string) string {
	switch goType {
	case "int8", "int16", "int32", "int64", "float64":
		return "0"
	case "string":
		return `""`
	case "bool":
		return "false"
	}
	return "nil"
}

// plain types are embedded into encoded structures as they are.
func plain(ref spec.TypeRef) bool {
	switch r := ref.(type) {
	case *spec.Primitive:
		return true
	case *spec.CustomRef:
		return r.Name == spec.APIType
	case *spec.Container:
		switch e := r.Elem.(type) {
		case *spec.Primitive:
			return true
		case *spec.CustomRef:
			return e.Name == spec.APIType
		}
	}
	return false
}

func isNone(t *spec.TypeExpr) bool {
	if t == nil || t.TypeRef == nil {
		return true
	}
	r, ok := t.TypeRef.(*spec.CustomRef)
	return ok && r.Name == spec.NoneType
}

func isBoolean(t *spec.TypeExpr) bool {
	if t == nil {
		return false
	}
	p, ok := t.TypeRef.(*spec.Primitive)
	return ok && p.Kind == spec.Boolean
}

// funcPart is the type segment of a codec function name: list(Pet) becomes
// list_Pet.
func funcPart(ref spec.TypeRef) string {
	if r, ok := ref.(*spec.Container); ok {
		return string(r.Kind) + "_" + funcPart(r.Elem)
	}
	return ref.RefName()
}
