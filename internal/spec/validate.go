package spec

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hiranya911/rest-coder/internal/contract"
)

var structural = newStructuralValidator()

func newStructuralValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	return v
}

// checkStruct runs the required-attribute rules declared on the model's tags.
func checkStruct(path string, v any) error {
	err := structural.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &SpecError{Code: ValidationError, Message: err.Error(), Path: path, Cause: err}
	}
	fe := verrs[0]
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if path != "" {
		ns = path + "." + ns
	}
	return &SpecError{
		Code:    ValidationError,
		Message: fmt.Sprintf("attribute %s is required", fe.Field()),
		Path:    ns,
		Cause:   err,
	}
}

// Validate checks the whole description and promotes anonymous composites to
// synthetic named types. It runs once; later calls return nil.
func (a *API) Validate() error {
	if a.validated {
		return nil
	}
	if err := a.check(); err != nil {
		return err
	}
	if err := a.intern(); err != nil {
		return err
	}
	a.validated = true
	return nil
}

func (a *API) check() error {
	if err := checkStruct("", a); err != nil {
		return err
	}
	names := make(map[string]bool, len(a.DataTypes))
	for _, t := range a.DataTypes {
		path := "dataTypes[" + t.Name + "]"
		if names[t.Name] {
			return invalid(path, "duplicate type definitions for %s", t.Name)
		}
		if _, ok := primitiveKinds[t.Name]; ok || t.Name == APIType || t.Name == NoneType {
			return invalid(path, "type name %s is reserved", t.Name)
		}
		if strings.ContainsAny(t.Name, "()") {
			return invalid(path, "invalid type name %s", t.Name)
		}
		names[t.Name] = true
	}
	for _, t := range a.DataTypes {
		if err := checkComposite("dataTypes["+t.Name+"]", &t.Composite, names); err != nil {
			return err
		}
	}
	for _, r := range a.Resources {
		if err := checkResource(r, names); err != nil {
			return err
		}
	}
	return nil
}

func checkComposite(path string, c *Composite, names map[string]bool) error {
	if err := checkStruct(path, c); err != nil {
		return err
	}
	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		fpath := path + ".fields[" + f.Name + "]"
		if seen[f.Name] {
			return invalid(fpath, "duplicate field %s in type", f.Name)
		}
		seen[f.Name] = true
		if err := checkType(fpath, f.Type, f.Ref, names, false); err != nil {
			return err
		}
	}
	for _, cond := range c.Constraints {
		if err := contract.Check(cond); err != nil {
			return invalid(path+".constraints", "invalid constraint %q: %v", cond, err)
		}
	}
	return nil
}

// checkType resolves references and validates inline composites. allowNone
// permits the _NONE_ sentinel, which only makes sense for message bodies.
func checkType(path string, t *TypeExpr, ref string, names map[string]bool, allowNone bool) error {
	if t == nil || t.TypeRef == nil {
		return invalid(path, "attribute type is required")
	}
	if ref != "" {
		if p, ok := t.TypeRef.(*Primitive); !ok || p.Kind != Href {
			return invalid(path, "invalid reference to %s from non-href type", ref)
		}
	}
	return checkRef(path, t.TypeRef, names, allowNone)
}

func checkRef(path string, ref TypeRef, names map[string]bool, allowNone bool) error {
	switch r := ref.(type) {
	case *Primitive:
		return nil
	case *Container:
		return checkRef(path, r.Elem, names, false)
	case *CustomRef:
		switch {
		case r.Name == NoneType && !allowNone:
			return invalid(path, "%s is only allowed as an input or output type", NoneType)
		case r.IsSentinel():
			return nil
		case !names[r.Name]:
			return invalid(path, "reference to unknown data type: %s", r.Name)
		}
		return nil
	case *Composite:
		return checkComposite(path, r, names)
	default:
		panic(fmt.Sprintf("internal error in schema model: unexpected type reference %T", ref))
	}
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// Placeholders returns the {name} segments of a path template in order.
func Placeholders(path string) []string {
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(path, -1) {
		out = append(out, m[1])
	}
	return out
}

func checkResource(r *Resource, names map[string]bool) error {
	path := "resources[" + r.Name + "]"
	ids := make(map[string]bool, len(r.Bindings))
	for _, b := range r.Bindings {
		bpath := path + ".inputBindings[" + b.ID + "]"
		if ids[b.ID] {
			return invalid(bpath, "duplicate binding %s", b.ID)
		}
		ids[b.ID] = true
		if err := checkType(bpath, b.Type, b.Ref, names, false); err != nil {
			return err
		}
	}
	ops := make(map[string]bool, len(r.Operations))
	for _, op := range r.Operations {
		opath := path + ".operations[" + op.Name + "]"
		if err := checkOperation(opath, r, op, names); err != nil {
			return err
		}
		if ops[op.Name] {
			return invalid(opath, "duplicate operation %s in resource %s", op.Name, r.Name)
		}
		ops[op.Name] = true
	}
	return nil
}

func checkOperation(path string, r *Resource, op *Operation, names map[string]bool) error {
	op.Method = strings.ToUpper(strings.TrimSpace(op.Method))
	if op.HasBody() && op.Input == nil {
		return invalid(path, "input field undefined for entity enclosing request")
	}
	bound := make(map[string]bool)
	if in := op.Input; in != nil {
		if in.Type != nil {
			if err := checkType(path+".input", in.Type, in.Ref, names, true); err != nil {
				return err
			}
		}
		for i, p := range in.Params {
			ppath := fmt.Sprintf("%s.input.params[%d]", path, i)
			if err := checkParameter(ppath, r, p, names); err != nil {
				return err
			}
			bound[p.Resolved().Name] = true
		}
	}
	for _, ph := range Placeholders(r.Path) {
		if !bound[ph] {
			return invalid(path, "path placeholder {%s} has no matching parameter", ph)
		}
	}
	if out := op.Output; out.Type != nil {
		if err := checkType(path+".output", out.Type, out.Ref, names, true); err != nil {
			return err
		}
	}
	for _, h := range op.Output.Headers {
		if err := checkType(path+".output.headers["+h.Name+"]", h.Type, h.Ref, names, false); err != nil {
			return err
		}
	}
	for _, cond := range op.Requires {
		if err := contract.Check(cond); err != nil {
			return invalid(path+".requires", "invalid condition %q: %v", cond, err)
		}
	}
	for _, cond := range op.Ensures {
		if err := contract.Check(cond); err != nil {
			return invalid(path+".ensures", "invalid condition %q: %v", cond, err)
		}
	}
	return nil
}

func checkParameter(path string, r *Resource, p *Parameter, names map[string]bool) error {
	if p.BindingID == "" {
		if p.Name == "" {
			return invalid(path, "attribute name is required")
		}
		if p.Mode == "" {
			return invalid(path, "attribute mode is required")
		}
		return checkType(path, p.Type, p.Ref, names, false)
	}
	if p.Name != "" || p.Type != nil || p.Mode != "" {
		return invalid(path, "binding %s cannot be combined with mode, name or type", p.BindingID)
	}
	b, ok := r.BindingByID(p.BindingID)
	if !ok {
		return invalid(path, "reference to unknown binding: %s", p.BindingID)
	}
	p.resolved = &b.Binding
	return nil
}
