package compiler

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hiranya911/rest-coder/internal/codegen"
	"github.com/hiranya911/rest-coder/internal/spec"
)

// Identifiers used inside generated methods. Schema parameters never take
// them.
var methodLocals = []string{"clientrt", "context", "fmt", "err", "query", "payload", "data", "body"}

// Methods promoted from the embedded runtime client, and the embedded field.
var clientMethods = []string{"Invoke", "Endpoint", "Client"}

// CompileResource generates the client type of r with one method per
// operation.
func (c *Context) CompileResource(r *spec.Resource) error {
	name := c.names.Allocate(r.Name + "Client")
	decl := codegen.NewType(name)
	decl.Doc = []string{fmt.Sprintf("%s calls the operations of the %s resource at %s.", name, r.Name, r.Path)}
	decl.Embeds = []string{"*clientrt.Client"}
	decl.ReserveMethods(clientMethods...)

	ctor := codegen.NewFunction(c.names.Fresh("New"+name), "clientrt")
	ctor.Doc = []string{
		fmt.Sprintf("%s returns a client for endpoint. An empty endpoint selects the", ctor.Name),
		"first of BaseURLs.",
	}
	endpoint := ctor.AddArgument("endpoint", "string").Name
	opts := ctor.AddArgument("opts", "...clientrt.Option").Name
	ctor.Results = []string{"*" + name}
	ctor.Line("return &%s{Client: clientrt.NewClient(%s, %s, %s...)}", name, endpoint, baseURLsVar, opts)
	decl.Constructor = ctor

	for _, op := range r.Operations {
		if err := c.compileOperation(decl, r, op); err != nil {
			return err
		}
	}
	c.clients = append(c.clients, decl)
	return nil
}

type boundParam struct {
	binding *spec.Binding
	arg     string
	pointer bool
}

func (c *Context) compileOperation(decl *codegen.Type, r *spec.Resource, op *spec.Operation) error {
	fn := decl.AddMethod(op.Name, "c", methodLocals...)
	ctx := fn.AddArgument("ctx", "context.Context").Name

	// arguments
	var params []boundParam
	if op.Input != nil {
		for _, p := range op.Input.Params {
			b := p.Resolved()
			goType := c.goType(b.Type.TypeRef)
			pointer := p.Optional && isQuery(b) && isBoolean(b.Type)
			if pointer {
				goType = "*bool"
			}
			params = append(params, boundParam{binding: b, arg: fn.AddArgument(b.Name, goType).Name, pointer: pointer})
		}
	}

	// entity body
	var (
		body        string
		bodyRef     spec.TypeRef
		contentType string
	)
	if op.HasBody() && op.Input != nil && !isNone(op.Input.Type) {
		bodyRef = op.Input.Type.TypeRef
		body = fn.AddArgument(c.bodyArgName(r, op, bodyRef), c.goType(bodyRef)).Name
		cts := contentTypesOrDefault(op.Input.ContentTypes)
		contentType = cts[0]
		for _, ct := range cts {
			if _, err := c.serializer(bodyRef, MediaKind(ct)); err != nil {
				return err
			}
			if _, err := c.finalizer(MediaKind(ct)); err != nil {
				return err
			}
		}
	}

	// result
	var (
		outRef  spec.TypeRef
		outType string
		decoder string
	)
	if !isNone(op.Output.Type) {
		outRef = op.Output.Type.TypeRef
		outType = c.goType(outRef)
		cts := contentTypesOrDefault(op.Output.ContentTypes)
		for _, ct := range cts {
			if _, err := c.deserializer(outRef, MediaKind(ct)); err != nil {
				return err
			}
		}
		name, err := c.deserializer(outRef, SelectMedia(cts, c.opts.Deserializer))
		if err != nil {
			return err
		}
		decoder = name
		fn.Results = []string{outType, "error"}
	} else {
		fn.Results = []string{"error"}
	}
	fn.Doc = c.methodDoc(fn.Name, op)

	fail := func() {
		fn.Block("if err != nil")
		if outRef != nil {
			fn.Line("return %s, err", zeroValue(outType))
		} else {
			fn.Line("return err")
		}
		fn.End()
	}

	hasQuery := false
	for _, p := range params {
		if isQuery(p.binding) {
			if !hasQuery {
				fn.Line("query := clientrt.NewQuery()")
				hasQuery = true
			}
			switch {
			case p.pointer:
				fn.Line("query.Bool(%q, %s)", p.binding.Name, p.arg)
			case isBoolean(p.binding.Type):
				fn.Line("query.Bool(%q, &%s)", p.binding.Name, p.arg)
			default:
				fn.Line("query.Add(%q, %s)", p.binding.Name, p.arg)
			}
		}
	}

	errDeclared := false
	if bodyRef != nil {
		media := MediaKind(contentType)
		ser, err := c.serializer(bodyRef, media)
		if err != nil {
			return err
		}
		final, err := c.finalizer(media)
		if err != nil {
			return err
		}
		fn.Line("data, err := %s(%s)", ser, body)
		fail()
		fn.Line("body, err := %s(data)", final)
		fail()
		errDeclared = true
	}

	call := []string{
		fmt.Sprintf("Method: %q,", strings.ToUpper(op.Method)),
		fmt.Sprintf("Path: %s,", pathExpr(r.Path, params)),
	}
	if hasQuery {
		call = append(call, "Query: query.Encode(),")
	}
	if bodyRef != nil {
		call = append(call, fmt.Sprintf("ContentType: %q,", contentType), "Body: body,")
	}
	call = append(call, fmt.Sprintf("Expected: %d,", op.Output.Status))
	if errs := errorTable(op); errs != "" {
		call = append(call, "Errors: "+errs+",")
	}

	switch {
	case outRef != nil:
		fn.Line("payload, err := c.Invoke(%s, clientrt.Call{", ctx)
	case errDeclared:
		fn.Line("_, err = c.Invoke(%s, clientrt.Call{", ctx)
	default:
		fn.Line("_, err := c.Invoke(%s, clientrt.Call{", ctx)
	}
	fn.Indent()
	for _, l := range call {
		fn.Text(l)
	}
	fn.Dedent()
	fn.Line("})")
	if outRef == nil {
		fn.Line("return err")
	} else {
		fail()
		fn.Line("return %s(payload)", decoder)
	}

	c.log.Debug().Str("resource", r.Name).Str("operation", op.Name).Str("method", fn.Name).Msg("compiled operation")
	return nil
}

func isQuery(b *spec.Binding) bool { return strings.EqualFold(b.Mode, "query") }

// bodyArgName is the raw name of the entity body argument: "request" for a
// promoted inline type, <elem>_<kind> for containers and the type name for
// references.
func (c *Context) bodyArgName(r *spec.Resource, op *spec.Operation, ref spec.TypeRef) string {
	switch x := ref.(type) {
	case *spec.Container:
		return x.Elem.RefName() + "_" + string(x.Kind)
	case *spec.CustomRef:
		if info, ok := c.types[x.Name]; ok && info.def.Synthetic && x.Name == r.Name+"_"+op.Name+"_InputType" {
			return "request"
		}
	}
	return ref.RefName()
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// pathExpr renders the Go expression of a resource path with every
// placeholder replaced by its argument.
func pathExpr(path string, params []boundParam) string {
	args := make(map[string]string, len(params))
	for _, p := range params {
		args[p.binding.Name] = p.arg
	}
	var parts []string
	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(path, -1) {
		arg, ok := args[path[m[2]:m[3]]]
		if !ok {
			continue
		}
		if lit := path[last:m[0]]; lit != "" {
			parts = append(parts, strconv.Quote(lit))
		}
		parts = append(parts, "clientrt.PathParam("+arg+")")
		last = m[1]
	}
	if lit := path[last:]; lit != "" || len(parts) == 0 {
		parts = append(parts, strconv.Quote(lit))
	}
	return strings.Join(parts, " + ")
}

func errorTable(op *spec.Operation) string {
	table := op.ErrorTable()
	if len(table) == 0 {
		return ""
	}
	statuses := make([]int, 0, len(table))
	for s := range table {
		statuses = append(statuses, s)
	}
	sort.Ints(statuses)
	entries := make([]string, len(statuses))
	for i, s := range statuses {
		entries[i] = fmt.Sprintf("%d: %q", s, table[s])
	}
	return "map[int]string{" + strings.Join(entries, ", ") + "}"
}

func (c *Context) methodDoc(name string, op *spec.Operation) []string {
	doc := codegen.DocLines(op.Description)
	if len(doc) == 0 {
		doc = []string{fmt.Sprintf("%s sends %s.", name, strings.ToUpper(op.Method))}
	}
	for _, section := range []struct {
		title string
		exprs []string
	}{
		{"Requires:", c.api.PreConditions(op)},
		{"Ensures:", c.api.PostConditions(op)},
	} {
		if len(section.exprs) == 0 {
			continue
		}
		doc = append(doc, "", section.title)
		for _, e := range section.exprs {
			doc = append(doc, "  "+e)
		}
	}
	return doc
}
