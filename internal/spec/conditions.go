package spec

import (
	"strings"

	"github.com/hiranya911/rest-coder/internal/contract"
)

// PreConditions returns the operation's requires clauses followed by the
// constraints of its input type, rewritten to refer to "input".
func (a *API) PreConditions(op *Operation) []string {
	out := append([]string(nil), op.Requires...)
	if op.Input != nil && op.Input.Type != nil {
		out = append(out, a.constraints(op.Input.Type.TypeRef, "input", map[string]bool{})...)
	}
	return out
}

// PostConditions returns the operation's ensures clauses followed by the
// constraints of its output type, rewritten to refer to "output".
func (a *API) PostConditions(op *Operation) []string {
	out := append([]string(nil), op.Ensures...)
	if op.Output != nil && op.Output.Type != nil {
		out = append(out, a.constraints(op.Output.Type.TypeRef, "output", map[string]bool{})...)
	}
	return out
}

// constraints collects the constraints reachable from ref. Each constraint is
// written against "self"; ctx is the expression self stands for.
func (a *API) constraints(ref TypeRef, ctx string, active map[string]bool) []string {
	switch r := ref.(type) {
	case *Composite:
		out := append([]string(nil), r.Constraints...)
		for _, f := range r.Fields {
			for _, c := range a.constraints(f.Type.TypeRef, ctx+"."+f.Name, active) {
				out = append(out, requalify(c, "self", "self."+f.Name))
			}
		}
		return out
	case *CustomRef:
		t, ok := a.TypeByName(r.Name)
		if !ok || active[r.Name] {
			return nil
		}
		active[r.Name] = true
		defer delete(active, r.Name)
		var out []string
		for _, c := range a.constraints(&t.Composite, ctx, active) {
			out = append(out, requalify(c, "self", ctx))
		}
		return out
	case *Container:
		v := "_item"
		switch {
		case strings.HasSuffix(ctx, "_item"):
			v = "_" + ctx
		case strings.HasPrefix(ctx, "_item."):
			v = "_" + strings.ReplaceAll(ctx, ".", "_")
		}
		var out []string
		for _, c := range a.constraints(r.Elem, v, active) {
			out = append(out, "forall("+v+", "+ctx+", "+c+")")
		}
		return out
	}
	return nil
}

// requalify replaces the name old in the expression with the expression
// repl. Text that does not parse is returned unchanged.
func requalify(expr, old, repl string) string {
	n, err := contract.Parse(expr)
	if err != nil {
		return expr
	}
	r, err := contract.Parse(repl)
	if err != nil {
		return expr
	}
	return contract.Qualify(n, old, r).String()
}
