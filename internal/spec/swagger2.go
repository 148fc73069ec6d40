package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

var swagger2Methods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "options": true, "head": true,
}

// repairSwagger2 rewrites operations that openapi2conv rejects:
//   - several body parameters are merged into one object-typed body;
//   - body parameters next to formData ones become formData fields, and the
//     operation consumes application/x-www-form-urlencoded.
//
// It returns the original bytes unchanged when nothing needed fixing.
func repairSwagger2(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return data, false, err
	}
	paths, _ := doc["paths"].(map[string]any)
	changed := false
	for _, item := range paths {
		ops, _ := item.(map[string]any)
		for method, raw := range ops {
			op, _ := raw.(map[string]any)
			if op == nil || !swagger2Methods[strings.ToLower(method)] {
				continue
			}
			if repairOperation(op) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func repairOperation(op map[string]any) bool {
	params, _ := op["parameters"].([]any)
	var bodies, rest []map[string]any
	form := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch in := str(pm["in"]); {
		case strings.EqualFold(in, "body"):
			bodies = append(bodies, pm)
			continue
		case strings.EqualFold(in, "formData"):
			form = true
		}
		rest = append(rest, pm)
	}
	switch {
	case len(bodies) == 0:
		return false
	case form:
		for _, b := range bodies {
			rest = append(rest, bodyAsFormField(b))
		}
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, formMediaType) {
			op["consumes"] = append(consumes, formMediaType)
		}
	case len(bodies) > 1:
		rest = append([]map[string]any{mergeBodies(bodies)}, rest...)
	default:
		return false
	}
	out := make([]any, len(rest))
	for i, p := range rest {
		out[i] = p
	}
	op["parameters"] = out
	return true
}

const formMediaType = "application/x-www-form-urlencoded"

func mergeBodies(bodies []map[string]any) map[string]any {
	props := map[string]any{}
	var required []any
	for _, b := range bodies {
		name := str(b["name"])
		if name == "" {
			name = "field"
		}
		schema := paramSchema(b)
		if schema == nil {
			schema = map[string]any{"type": "string"}
		}
		props[name] = schema
		if req, _ := b["required"].(bool); req {
			required = append(required, name)
		}
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return map[string]any{"in": "body", "name": "body", "schema": schema}
}

// bodyAsFormField degrades a body parameter to a scalar form field. A
// referenced object has no form representation and becomes a string.
func bodyAsFormField(b map[string]any) map[string]any {
	name := str(b["name"])
	if name == "" {
		name = "field"
	}
	out := map[string]any{"in": "formData", "name": name, "type": "string"}
	if d := str(b["description"]); d != "" {
		out["description"] = d
	}
	if req, ok := b["required"].(bool); ok {
		out["required"] = req
	}
	if schema := paramSchema(b); schema != nil {
		if t := str(schema["type"]); t != "" && t != "object" {
			out["type"] = t
		}
		if f := str(schema["format"]); f != "" {
			out["format"] = f
		}
		if items, ok := schema["items"].(map[string]any); ok {
			out["items"] = items
		}
	}
	return out
}

// paramSchema returns the parameter's schema, synthesizing one from the
// type, items and format keys of non-body parameters.
func paramSchema(p map[string]any) map[string]any {
	if s, ok := p["schema"].(map[string]any); ok {
		return s
	}
	t := str(p["type"])
	if t == "" {
		return nil
	}
	s := map[string]any{"type": t}
	if items, ok := p["items"].(map[string]any); ok {
		s["items"] = items
	}
	if f := str(p["format"]); f != "" {
		s["format"] = f
	}
	return s
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}
