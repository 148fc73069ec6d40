package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hiranya911/rest-coder/internal/codegen"
	"github.com/hiranya911/rest-coder/internal/spec"
)

// Codec names the generated functions for one type and media kind.
type Codec struct {
	Media        string
	Serializer   string
	Deserializer string
	Finalizer    string
}

// CompileCodecs generates the serializer, deserializer and finalizer of ref
// for the media kind of every content type. Functions that already exist are
// reused.
func (c *Context) CompileCodecs(ref spec.TypeRef, contentTypes []string) ([]Codec, error) {
	var out []Codec
	seen := make(map[string]bool)
	for _, ct := range contentTypesOrDefault(contentTypes) {
		media := MediaKind(ct)
		if seen[media] {
			continue
		}
		seen[media] = true
		ser, err := c.serializer(ref, media)
		if err != nil {
			return nil, err
		}
		de, err := c.deserializer(ref, media)
		if err != nil {
			return nil, err
		}
		final, err := c.finalizer(media)
		if err != nil {
			return nil, err
		}
		out = append(out, Codec{Media: media, Serializer: ser, Deserializer: de, Finalizer: final})
	}
	return out, nil
}

func (c *Context) serializer(ref spec.TypeRef, media string) (string, error) {
	fn, name, err := c.claim("serialize_"+funcPart(ref)+"_"+media, "serialize "+ref.RefName()+" as "+media)
	if err != nil || fn == nil {
		return name, err
	}
	obj := fn.AddArgument("obj", c.goType(ref)).Name
	fn.Results = []string{"any", "error"}

	switch strategyFor(media) {
	case jsonStrategy, formStrategy:
		return name, c.encode(fn, obj, ref, media)
	default:
		fn.Line("return clientrt.Unsupported[any](%q)", media)
		return name, nil
	}
}

func (c *Context) encode(fn *codegen.Function, obj string, ref spec.TypeRef, media string) error {
	if plain(ref) {
		if media == MediaForm {
			fn.Line("return map[string]any{%q: %s}, nil", "value", obj)
		} else {
			fn.Line("return %s, nil", obj)
		}
		return nil
	}
	switch r := ref.(type) {
	case *spec.Container:
		elem, err := c.serializer(r.Elem, media)
		if err != nil {
			return err
		}
		output, item, v := fn.Local("output"), fn.Local("item"), fn.Local("v")
		fn.Line("%s := make([]any, 0, len(%s))", output, obj)
		fn.Block("for _, %s := range %s", item, obj)
		fn.Line("%s, err := %s(%s)", v, elem, item)
		returnOnErr(fn, "nil")
		fn.Line("%s = append(%s, %s)", output, output, v)
		fn.End()
		fn.Line("return %s, nil", output)
	case *spec.CustomRef:
		return c.encodeComposite(fn, obj, c.lookup(r.Name), media)
	default:
		panic(fmt.Sprintf("internal error in code generator: cannot encode %T", ref))
	}
	return nil
}

// encodeComposite writes fields in declared order. Optional fields are only
// written when they hold a truthy value.
func (c *Context) encodeComposite(fn *codegen.Function, obj string, info *typeInfo, media string) error {
	fn.Block("if %s == nil", obj)
	fn.Line("return nil, nil")
	fn.End()
	output := fn.Local("output")
	fn.Line("%s := map[string]any{}", output)
	for _, f := range info.def.Fields {
		access := obj + "." + info.Field(f.Name)
		key := strconv.Quote(f.Name)
		if f.Optional {
			fn.Block("if clientrt.Truthy(%s)", access)
		}
		if plain(f.Type.TypeRef) {
			fn.Line("%s[%s] = %s", output, key, access)
		} else {
			child, err := c.serializer(f.Type.TypeRef, media)
			if err != nil {
				return err
			}
			v := fn.Local("v")
			fn.Line("%s, err := %s(%s)", v, child, access)
			returnOnErr(fn, "nil")
			fn.Line("%s[%s] = %s", output, key, v)
		}
		if f.Optional {
			fn.End()
		}
	}
	fn.Line("return %s, nil", output)
	return nil
}

func (c *Context) deserializer(ref spec.TypeRef, media string) (string, error) {
	fn, name, err := c.claim("deserialize_"+funcPart(ref)+"_"+media, "deserialize "+ref.RefName()+" as "+media)
	if err != nil || fn == nil {
		return name, err
	}
	goType := c.goType(ref)
	obj := fn.AddArgument("obj", "any").Name
	fn.Results = []string{goType, "error"}

	switch strategyFor(media) {
	case jsonStrategy:
		return name, c.decodeJSON(fn, obj, ref, goType)
	case formStrategy:
		c.decodeForm(fn, obj, ref, goType)
	default:
		fn.Line("return clientrt.Unsupported[%s](%q)", goType, media)
	}
	return name, nil
}

func (c *Context) decodeJSON(fn *codegen.Function, obj string, ref spec.TypeRef, goType string) error {
	switch r := ref.(type) {
	case *spec.Primitive:
		data := fn.Local("data")
		fn.Line("%s, err := clientrt.JSONValue(%s)", data, obj)
		returnOnErr(fn, zeroValue(goType))
		fn.Line("return clientrt.Convert[%s](%s)", goType, data)
	case *spec.Container:
		if plain(r) {
			data := fn.Local("data")
			fn.Line("%s, err := clientrt.JSONValue(%s)", data, obj)
			returnOnErr(fn, "nil")
			fn.Line("return clientrt.ConvertSlice[%s](%s)", c.goType(r.Elem), data)
			return nil
		}
		elem, err := c.deserializer(r.Elem, MediaJSON)
		if err != nil {
			return err
		}
		data, container, item, v := fn.Local("data"), fn.Local("container"), fn.Local("item"), fn.Local("v")
		fn.Line("%s, err := clientrt.JSONArray(%s)", data, obj)
		returnOnErr(fn, "nil")
		fn.Block("if %s == nil", data)
		fn.Line("return nil, nil")
		fn.End()
		fn.Line("%s := make(%s, 0, len(%s))", container, goType, data)
		fn.Block("for _, %s := range %s", item, data)
		fn.Line("%s, err := %s(%s)", v, elem, item)
		returnOnErr(fn, "nil")
		fn.Line("%s = append(%s, %s)", container, container, v)
		fn.End()
		fn.Line("return %s, nil", container)
	case *spec.CustomRef:
		if r.Name == spec.APIType {
			fn.Line("return clientrt.JSONObject(%s)", obj)
			return nil
		}
		return c.decodeComposite(fn, obj, c.lookup(r.Name))
	default:
		panic(fmt.Sprintf("internal error in code generator: cannot decode %T", ref))
	}
	return nil
}

// decodeComposite reads every field by its schema key, a missing key leaving
// the zero value, and builds the result with the type's constructor.
func (c *Context) decodeComposite(fn *codegen.Function, obj string, info *typeInfo) error {
	data := fn.Local("data")
	fn.Line("%s, err := clientrt.JSONObject(%s)", data, obj)
	returnOnErr(fn, "nil")
	fn.Block("if %s == nil", data)
	fn.Line("return nil, nil")
	fn.End()

	ctor := info.decl.Constructor
	args := make([]string, 0, len(info.def.Fields))
	for _, f := range info.def.Fields {
		local := fn.Local(ctor.Arg(f.Name))
		get := fmt.Sprintf("%s[%s]", data, strconv.Quote(f.Name))
		var expr string
		switch {
		case plain(f.Type.TypeRef):
			if r, ok := f.Type.TypeRef.(*spec.Container); ok {
				expr = fmt.Sprintf("clientrt.ConvertSlice[%s](%s)", c.goType(r.Elem), get)
			} else {
				expr = fmt.Sprintf("clientrt.Convert[%s](%s)", c.goType(f.Type.TypeRef), get)
			}
		default:
			child, err := c.deserializer(f.Type.TypeRef, MediaJSON)
			if err != nil {
				return err
			}
			expr = fmt.Sprintf("%s(%s)", child, get)
		}
		fn.Line("%s, err := %s", local, expr)
		fn.Block("if err != nil")
		fn.Line("return nil, fmt.Errorf(%q, err)", strings.ReplaceAll(info.def.Name+"."+f.Name, "%", "%%")+": %w")
		fn.End()
		args = append(args, local)
	}
	fn.Line("return %s(%s), nil", ctor.Name, strings.Join(args, ", "))
	return nil
}

// decodeForm fills the generated struct from url-encoded text. Values that
// are not structs travel under the "value" key and decode through a wrapper.
func (c *Context) decodeForm(fn *codegen.Function, obj string, ref spec.TypeRef, goType string) {
	if r, ok := ref.(*spec.CustomRef); ok {
		if r.Name == spec.APIType {
			fn.Line("return clientrt.FormObject(%s)", obj)
			return
		}
		result := fn.Local("result")
		fn.Block("if %s == nil", obj)
		fn.Line("return nil, nil")
		fn.End()
		fn.Line("%s := &%s{}", result, c.lookup(r.Name).Name())
		fn.Block("if err := clientrt.DecodeForm(%s, %s); err != nil", obj, result)
		fn.Line("return nil, err")
		fn.End()
		fn.Line("return %s, nil", result)
		return
	}
	wrapper := fn.Local("wrapper")
	fn.Block("var %s struct", wrapper)
	fn.Line("Value %s `form:\"value\"`", goType)
	fn.End()
	fn.Block("if %s == nil", obj)
	fn.Line("return %s.Value, nil", wrapper)
	fn.End()
	fn.Block("if err := clientrt.DecodeForm(%s, &%s); err != nil", obj, wrapper)
	fn.Line("return %s.Value, err", wrapper)
	fn.End()
	fn.Line("return %s.Value, nil", wrapper)
}

func (c *Context) finalizer(media string) (string, error) {
	fn, name, err := c.claim("serialize_final_"+media, "finalize "+media)
	if err != nil || fn == nil {
		return name, err
	}
	obj := fn.AddArgument("obj", "any").Name
	fn.Results = []string{"[]byte", "error"}
	switch strategyFor(media) {
	case jsonStrategy:
		fn.Line("return clientrt.FinalizeJSON(%s)", obj)
	case formStrategy:
		fn.Line("return clientrt.FinalizeForm(%s)", obj)
	default:
		fn.Line("return clientrt.Unsupported[[]byte](%q)", media)
	}
	return name, nil
}

func returnOnErr(fn *codegen.Function, zero string) {
	fn.Block("if err != nil")
	fn.Line("return %s, err", zero)
	fn.End()
}
