package spec

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ImportOption configures how an OpenAPI document is mapped to an API.
type ImportOption func(*importConfig)

type importConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	pathRes     []*regexp.Regexp
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) ImportOption {
	return func(c *importConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.includeTags == nil {
				c.includeTags = make(map[string]struct{}, len(tags))
			}
			c.includeTags[t] = struct{}{}
		}
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) ImportOption {
	return func(c *importConfig) {
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if c.excludeTags == nil {
				c.excludeTags = make(map[string]struct{}, len(tags))
			}
			c.excludeTags[t] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only paths matching at least one of the regular
// expressions. An invalid pattern matches nothing.
func WithPathPatterns(patterns []string) ImportOption {
	return func(c *importConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

const componentPrefix = "#/components/schemas/"

// FromOpenAPI maps an OpenAPI v3 document onto an API description and
// validates the result. Object-like component schemas become data types,
// paths become resources and responses become the output and error table.
func FromOpenAPI(doc *openapi3.T, opts ...ImportOption) (*API, error) {
	if doc == nil {
		return nil, &SpecError{Code: InputError, Message: "spec: nil OpenAPI document"}
	}
	cfg := &importConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	c := &converter{named: map[string]bool{}, taken: map[string]bool{}}
	api := &API{Name: "api"}
	if doc.Info != nil {
		if t := strings.TrimSpace(doc.Info.Title); t != "" {
			api.Name = t
		}
		api.Description = strings.TrimSpace(doc.Info.Description)
		if v := strings.TrimSpace(doc.Info.Version); v != "" {
			api.Version = &Version{ID: v}
		}
		if doc.Info.License != nil {
			api.License = doc.Info.License.Name
		}
	}
	for _, s := range doc.Servers {
		if s != nil && strings.TrimSpace(s.URL) != "" {
			api.Base = append(api.Base, strings.TrimSpace(s.URL))
		}
	}
	for _, t := range doc.Tags {
		if t != nil && t.Name != "" {
			api.Tags = append(api.Tags, t.Name)
		}
	}

	if doc.Components != nil {
		names := make([]string, 0, len(doc.Components.Schemas))
		for name, ref := range doc.Components.Schemas {
			if ref != nil && ref.Value != nil && objectLike(ref.Value) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			c.named[name] = true
			c.taken[name] = true
		}
		for _, name := range names {
			comp := c.composite(doc.Components.Schemas[name].Value, name)
			api.DataTypes = append(api.DataTypes, &NamedType{Name: name, Composite: *comp})
		}
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		r := &Resource{Name: resourceName(p), Path: p}
		for _, pair := range []struct {
			method string
			op     *openapi3.Operation
		}{
			{http.MethodGet, item.Get},
			{http.MethodPost, item.Post},
			{http.MethodPut, item.Put},
			{http.MethodDelete, item.Delete},
			{http.MethodPatch, item.Patch},
			{http.MethodHead, item.Head},
			{http.MethodOptions, item.Options},
			{http.MethodTrace, item.Trace},
		} {
			if pair.op == nil || !cfg.allowTags(pair.op.Tags) {
				continue
			}
			r.Operations = append(r.Operations, c.operation(r, pair.method, item.Parameters, pair.op))
		}
		if len(r.Operations) > 0 {
			api.Resources = append(api.Resources, r)
		}
	}
	api.DataTypes = append(api.DataTypes, c.extra...)

	if err := api.Validate(); err != nil {
		return nil, &SpecError{
			Code:    ConversionError,
			Message: fmt.Sprintf("openapi import produced an invalid description: %v", err),
			Cause:   err,
		}
	}
	return api, nil
}

func (c *importConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *importConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[strings.TrimSpace(t)]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[strings.TrimSpace(t)]; blocked {
			return false
		}
	}
	return true
}

// resourceName derives a resource name from a path: "/pets/{petId}" becomes
// "pets_petId" and "/" becomes "root".
func resourceName(path string) string {
	var parts []string
	for _, seg := range strings.Split(path, "/") {
		seg = strings.Trim(seg, "{}")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return "root"
	}
	return strings.Join(parts, "_")
}

type converter struct {
	named map[string]bool
	taken map[string]bool
	extra []*NamedType
}

func paramKey(in, name string) string { return in + ":" + name }

func (c *converter) operation(r *Resource, method string, shared openapi3.Parameters, o *openapi3.Operation) *Operation {
	op := &Operation{
		Name:        strings.TrimSpace(o.OperationID),
		Method:      method,
		Description: strings.TrimSpace(o.Summary),
	}
	if op.Name == "" {
		op.Name = strings.ToLower(method) + "_" + r.Name
	}
	if d := strings.TrimSpace(o.Description); d != "" {
		if op.Description != "" {
			op.Description += "\n\n"
		}
		op.Description += d
	}

	// Operation-level parameters override path-level ones.
	merged := make(map[string]*openapi3.Parameter)
	for _, list := range []openapi3.Parameters{shared, o.Parameters} {
		for _, pref := range list {
			if pref == nil || pref.Value == nil {
				continue
			}
			p := pref.Value
			switch p.In {
			case openapi3.ParameterInPath, openapi3.ParameterInQuery, openapi3.ParameterInHeader:
				merged[paramKey(p.In, p.Name)] = p
			}
		}
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var params []*Parameter
	for _, k := range keys {
		p := merged[k]
		params = append(params, &Parameter{
			Mode:        p.In,
			Name:        p.Name,
			Type:        c.typeOf(p.Schema, r.Name+"_"+op.Name+"_"+p.Name),
			Optional:    !p.Required && p.In != openapi3.ParameterInPath,
			Description: strings.TrimSpace(p.Description),
		})
	}
	for _, p := range params {
		if p.Type == nil {
			p.Type = Of(&Primitive{Kind: String})
		}
	}

	hasBody := o.RequestBody != nil && o.RequestBody.Value != nil && len(o.RequestBody.Value.Content) > 0
	if len(params) > 0 || hasBody || method == http.MethodPost || method == http.MethodPut {
		op.Input = &Input{Params: params}
		if hasBody {
			body := o.RequestBody.Value
			op.Input.ContentTypes = mediaTypes(body.Content)
			op.Input.Description = strings.TrimSpace(body.Description)
			if mt := body.Content[op.Input.ContentTypes[0]]; mt != nil {
				op.Input.Type = c.typeOf(mt.Schema, r.Name+"_"+op.Name+"_InputType")
			}
		}
	}

	codes := make([]string, 0, len(o.Responses))
	for code := range o.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		rref := o.Responses[code]
		status, err := strconv.Atoi(code)
		if err != nil || rref == nil || rref.Value == nil {
			continue
		}
		resp := rref.Value
		desc := ""
		if resp.Description != nil {
			desc = strings.TrimSpace(*resp.Description)
		}
		switch {
		case status >= 200 && status < 300 && op.Output == nil:
			op.Output = &Output{Status: status, Description: desc}
			if len(resp.Content) > 0 {
				op.Output.ContentTypes = mediaTypes(resp.Content)
				if mt := resp.Content[op.Output.ContentTypes[0]]; mt != nil {
					op.Output.Type = c.typeOf(mt.Schema, r.Name+"_"+op.Name+"_OutputType")
				}
			}
		case status >= 400:
			if desc == "" {
				desc = http.StatusText(status)
			}
			op.Errors = append(op.Errors, &ErrorCase{Status: status, Cause: desc})
		}
	}
	if op.Output == nil {
		op.Output = &Output{Status: http.StatusOK}
	}
	return op
}

// mediaTypes returns the content types sorted, with JSON first.
func mediaTypes(content openapi3.Content) []string {
	out := make([]string, 0, len(content))
	for k := range content {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		ji, jj := out[i] == "application/json", out[j] == "application/json"
		if ji != jj {
			return ji
		}
		return out[i] < out[j]
	})
	return out
}

func objectLike(s *openapi3.Schema) bool {
	if len(s.AllOf) > 0 {
		return true
	}
	return (s.Type == "object" || s.Type == "") && len(s.Properties) > 0
}

// typeOf maps a schema onto a type expression. owner is the base name of the
// synthetic type created for an array of inline objects.
func (c *converter) typeOf(ref *openapi3.SchemaRef, owner string) *TypeExpr {
	if ref == nil {
		return nil
	}
	if name := strings.TrimPrefix(ref.Ref, componentPrefix); ref.Ref != "" && c.named[name] {
		return Of(&CustomRef{Name: name})
	}
	s := ref.Value
	if s == nil {
		return Of(&CustomRef{Name: APIType})
	}
	if len(s.OneOf) > 0 {
		return c.typeOf(s.OneOf[0], owner)
	}
	if len(s.AnyOf) > 0 {
		return c.typeOf(s.AnyOf[0], owner)
	}
	if objectLike(s) {
		return Of(c.composite(s, owner))
	}
	switch s.Type {
	case "integer":
		if s.Format == "int64" {
			return Of(&Primitive{Kind: Long})
		}
		return Of(&Primitive{Kind: Int})
	case "number":
		return Of(&Primitive{Kind: Double})
	case "boolean":
		return Of(&Primitive{Kind: Boolean})
	case "string":
		if s.Format == "binary" || s.Format == "byte" {
			return Of(&Primitive{Kind: Binary})
		}
		return Of(&Primitive{Kind: String})
	case "array":
		elem := c.typeOf(s.Items, owner+"_item")
		if elem == nil {
			return Of(&Container{Kind: List, Elem: &CustomRef{Name: APIType}})
		}
		if comp, ok := elem.TypeRef.(*Composite); ok {
			elem = Of(&CustomRef{Name: c.register(owner+"_item", comp)})
		}
		return Of(&Container{Kind: List, Elem: elem.TypeRef})
	}
	return Of(&CustomRef{Name: APIType})
}

// register adds an extra named type, suffixing the name until it is unique.
func (c *converter) register(name string, comp *Composite) string {
	base, n := name, 0
	for c.taken[name] {
		n++
		name = base + strconv.Itoa(n)
	}
	c.taken[name] = true
	c.extra = append(c.extra, &NamedType{Name: name, Composite: *comp, Synthetic: true})
	return name
}

// composite merges allOf members and the schema's own properties into one
// field list, sorted by property name within each member.
func (c *converter) composite(s *openapi3.Schema, owner string) *Composite {
	comp := &Composite{Description: strings.TrimSpace(s.Description)}
	seen := map[string]bool{}
	c.mergeInto(comp, s, owner, seen)
	if comp.Fields == nil {
		comp.Fields = []*Field{}
	}
	return comp
}

func (c *converter) mergeInto(comp *Composite, s *openapi3.Schema, owner string, seen map[string]bool) {
	for _, member := range s.AllOf {
		if member != nil && member.Value != nil {
			c.mergeInto(comp, member.Value, owner, seen)
		}
	}
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		prop := s.Properties[name]
		f := &Field{Name: name, Optional: !required[name], Type: c.typeOf(prop, owner+"_"+name)}
		if f.Type == nil {
			f.Type = Of(&CustomRef{Name: APIType})
		}
		if prop != nil && prop.Value != nil {
			f.Description = strings.TrimSpace(prop.Value.Description)
		}
		comp.Fields = append(comp.Fields, f)
	}
}
