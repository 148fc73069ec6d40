package spec

import "fmt"

// intern promotes every anonymous composite to a synthetic named type and
// replaces the inline definition with a reference to it. Field types are
// registered directly after their owner in depth-first pre-order; types found
// on resources follow the declared types in discovery order.
func (a *API) intern() error {
	in := &interner{taken: make(map[string]bool, len(a.DataTypes))}
	for _, t := range a.DataTypes {
		in.taken[t.Name] = true
	}
	for _, t := range a.DataTypes {
		in.out = append(in.out, t)
		if err := in.fields(t); err != nil {
			return err
		}
	}
	for _, r := range a.Resources {
		for _, b := range r.Bindings {
			if err := in.promote(b.Type, r.Name+"_"+b.ID); err != nil {
				return err
			}
		}
		for _, op := range r.Operations {
			prefix := r.Name + "_" + op.Name
			if op.Input != nil {
				if err := in.promote(op.Input.Type, prefix+"_InputType"); err != nil {
					return err
				}
				for _, p := range op.Input.Params {
					if err := in.promote(p.Type, prefix+"_"+p.Name); err != nil {
						return err
					}
				}
			}
			if err := in.promote(op.Output.Type, prefix+"_OutputType"); err != nil {
				return err
			}
			for _, h := range op.Output.Headers {
				if err := in.promote(h.Type, prefix+"_"+h.Name); err != nil {
					return err
				}
			}
		}
	}
	a.DataTypes = in.out
	a.types = nil
	return nil
}

type interner struct {
	taken map[string]bool
	out   []*NamedType
}

func (in *interner) fields(owner *NamedType) error {
	for _, f := range owner.Fields {
		if err := in.promote(f.Type, owner.Name+"_"+f.Name); err != nil {
			return err
		}
	}
	return nil
}

// promote registers t under name when it holds an inline composite.
func (in *interner) promote(t *TypeExpr, name string) error {
	if t == nil {
		return nil
	}
	c, ok := t.TypeRef.(*Composite)
	if !ok {
		return nil
	}
	if in.taken[name] {
		return &SpecError{
			Code:    ValidationError,
			Message: fmt.Sprintf("synthetic type name %s collides with an existing type", name),
			Path:    "dataTypes[" + name + "]",
		}
	}
	in.taken[name] = true
	nt := &NamedType{Name: name, Composite: *c, Synthetic: true}
	t.TypeRef = &CustomRef{Name: name}
	in.out = append(in.out, nt)
	return in.fields(nt)
}
