package spec

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/hiranya911/rest-coder/internal/testutil"
)

func loadPetstore(t *testing.T) *API {
	t.Helper()
	data, err := os.ReadFile("testdata/petstore.yaml")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	api, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return api
}

func typeNames(api *API) []string {
	names := make([]string, len(api.DataTypes))
	for i, dt := range api.DataTypes {
		names[i] = dt.Name
	}
	return names
}

func TestParse_Petstore(t *testing.T) {
	t.Parallel()
	api := loadPetstore(t)
	testutil.ExpectEq(t, "Petstore", api.Name)
	testutil.ExpectSliceEq(t, []string{"http://localhost:8080/petstore", "https://pets.example.com"}, api.Base)
	testutil.ExpectEq(t, 2, len(api.Resources))
	testutil.ExpectEq(t, "1.0", api.Version.ID)
	testutil.ExpectEq(t, "tech", api.Ownership[0].OwnerType)

	create := api.Resources[0].Operations[1]
	testutil.ExpectEq(t, "POST", create.Method)
	testutil.ExpectSliceEq(t, []string{"application/json", "application/x-www-form-urlencoded"}, create.Input.ContentTypes)
	testutil.ExpectEq(t, "Pet already exists", create.ErrorTable()[409])
	testutil.ExpectTrue(t, create.HasBody())

	get := api.Resources[1].Operations[0]
	b := get.Input.Params[0].Resolved()
	testutil.ExpectEq(t, "path", b.Mode)
	testutil.ExpectEq(t, "petId", b.Name)
	testutil.ExpectEq(t, "long", b.Type.RefName())
}

func TestParse_InternsAnonymousTypes(t *testing.T) {
	t.Parallel()
	api := loadPetstore(t)
	want := []string{
		"Pet",
		"Pet_owner",
		"Pet_owner_address",
		"PetList",
		"Pet_UpdatePet_InputType",
		"Pet_UpdatePet_OutputType",
	}
	testutil.ExpectSliceEq(t, want, typeNames(api))

	owner, ok := api.TypeByName("Pet_owner")
	if !ok {
		t.Fatalf("Pet_owner not registered")
	}
	testutil.ExpectTrue(t, owner.Synthetic)
	pet, _ := api.TypeByName("Pet")
	testutil.ExpectFalse(t, pet.Synthetic)
	testutil.ExpectEq(t, "Pet_owner", pet.Fields[3].Type.RefName())

	update := api.Resources[1].Operations[1]
	testutil.ExpectEq(t, "Pet_UpdatePet_InputType", update.Input.Type.RefName())
	testutil.ExpectEq(t, "Pet_UpdatePet_OutputType", update.Output.Type.RefName())
}

func TestValidate_Idempotent(t *testing.T) {
	t.Parallel()
	api := loadPetstore(t)
	before := len(api.DataTypes)
	testutil.AssertNoError(t, api.Validate())
	testutil.ExpectEq(t, before, len(api.DataTypes))
}

func TestParseTypeRef(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"int":              "*spec.Primitive",
		"href":             "*spec.Primitive",
		"list(string)":     "*spec.Container",
		"set(list(Pet))":   "*spec.Container",
		"Pet":              "*spec.CustomRef",
		"_API_":            "*spec.CustomRef",
		" list( double ) ": "*spec.Container",
	}
	for in, want := range cases {
		ref, err := ParseTypeRef(in)
		if err != nil {
			t.Errorf("ParseTypeRef(%q): %v", in, err)
			continue
		}
		if got := typeName(ref); got != want {
			t.Errorf("ParseTypeRef(%q) = %s, want %s", in, got, want)
		}
	}

	ref, err := ParseTypeRef("set(list(Pet))")
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "set(list(Pet))", ref.RefName())
	inner := ref.(*Container).Elem.(*Container)
	testutil.ExpectEq(t, List, inner.Kind)
	testutil.ExpectEq(t, "Pet", inner.Elem.RefName())

	for _, bad := range []string{"", "map(string)", "list(int", "(int)", "list()", "Pet)"} {
		if _, err := ParseTypeRef(bad); err == nil {
			t.Errorf("ParseTypeRef(%q) succeeded, want error", bad)
		}
	}
}

func typeName(ref TypeRef) string {
	switch ref.(type) {
	case *Primitive:
		return "*spec.Primitive"
	case *Container:
		return "*spec.Container"
	case *CustomRef:
		return "*spec.CustomRef"
	case *Composite:
		return "*spec.Composite"
	}
	return "unknown"
}

const minimalOp = `
    operations:
      - name: Get
        method: GET
        output:
          status: 200
`

func TestParse_ValidationErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing api name",
			doc:  "resources: []\n",
			want: "attribute name is required",
		},
		{
			name: "duplicate types",
			doc: `name: x
dataTypes:
  - name: A
    fields: [{name: a, type: int}]
  - name: A
    fields: [{name: b, type: int}]
`,
			want: "duplicate type definitions for A",
		},
		{
			name: "duplicate field",
			doc: `name: x
dataTypes:
  - name: A
    fields: [{name: a, type: int}, {name: a, type: string}]
`,
			want: "duplicate field a in type",
		},
		{
			name: "unknown type",
			doc: `name: x
dataTypes:
  - name: A
    fields: [{name: b, type: list(Missing)}]
`,
			want: "reference to unknown data type: Missing",
		},
		{
			name: "ref on non-href",
			doc: `name: x
dataTypes:
  - name: A
    fields: [{name: b, type: string, ref: A}]
`,
			want: "invalid reference to A from non-href type",
		},
		{
			name: "reserved name",
			doc: `name: x
dataTypes:
  - name: string
    fields: [{name: b, type: int}]
`,
			want: "type name string is reserved",
		},
		{
			name: "none in field",
			doc: `name: x
dataTypes:
  - name: A
    fields: [{name: b, type: _NONE_}]
`,
			want: "_NONE_ is only allowed",
		},
		{
			name: "post without input",
			doc: `name: x
resources:
  - name: R
    path: /r
    operations:
      - name: Create
        method: POST
        output:
          status: 201
`,
			want: "input field undefined for entity enclosing request",
		},
		{
			name: "unknown binding",
			doc: `name: x
resources:
  - name: R
    path: /r
    operations:
      - name: Get
        method: GET
        input:
          params: [{binding: nope}]
        output:
          status: 200
`,
			want: "reference to unknown binding: nope",
		},
		{
			name: "duplicate operation",
			doc: `name: x
resources:
  - name: R
    path: /r
    operations:
      - name: Get
        method: GET
        output: {status: 200}
      - name: Get
        method: DELETE
        output: {status: 204}
`,
			want: "duplicate operation Get in resource R",
		},
		{
			name: "missing output",
			doc: `name: x
resources:
  - name: R
    path: /r
    operations:
      - name: Get
        method: GET
`,
			want: "attribute output is required",
		},
		{
			name: "missing operation name",
			doc: `name: x
resources:
  - name: R
    path: /r
    operations:
      - method: GET
        output: {status: 200}
`,
			want: "attribute name is required",
		},
		{
			name: "unbound placeholder",
			doc: `name: x
resources:
  - name: R
    path: /r/{id}` + minimalOp,
			want: "path placeholder {id} has no matching parameter",
		},
		{
			name: "bad condition",
			doc: `name: x
resources:
  - name: R
    path: /r
    operations:
      - name: Get
        method: GET
        output: {status: 200}
        requires: ["a =="]
`,
			want: "invalid condition",
		},
		{
			name: "sla time unit",
			doc: `name: x
sla:
  - name: gold
    rateLimit: 10
`,
			want: "attribute timeUnit is required",
		},
		{
			name: "synthetic collision",
			doc: `name: x
dataTypes:
  - name: A
    fields:
      - name: b
        type:
          fields: [{name: c, type: int}]
  - name: A_b
    fields: [{name: d, type: int}]
`,
			want: "synthetic type name A_b collides",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			api, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected error, got API %q", api.Name)
			}
			var se *SpecError
			if !errors.As(err, &se) || se.Code != ValidationError {
				t.Fatalf("expected ValidationError, got %v (%T)", err, err)
			}
			testutil.ExpectContains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte("name: [unclosed"))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError, got %v", err)
	}
	_, err = Parse([]byte("name: x\ndataTypes:\n  - name: A\n    fields: [{name: a, type: map(int)}]\n"))
	if !errors.As(err, &se) || se.Code != ParseError {
		t.Fatalf("expected ParseError for bad container, got %v", err)
	}
	_, err = Parse([]byte("  \n"))
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError for empty input, got %v", err)
	}
}

func TestParse_ErrorNamesElement(t *testing.T) {
	t.Parallel()
	_, err := Parse([]byte(`name: x
resources:
  - name: R
    path: /r
    operations:
      - name: Get
        method: GET
        output:
          status: 200
          type: Nope
`))
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %v", err)
	}
	testutil.ExpectEq(t, "resources[R].operations[Get].output", se.Path)
}

func TestParse_JSONInput(t *testing.T) {
	t.Parallel()
	doc := `{"name": "j", "base": "http://h", "resources": [{"name": "R", "path": "/r", "operations": [{"name": "Ping", "method": "get", "output": {"status": 200, "type": "_API_"}}]}]}`
	api, err := Parse([]byte(doc))
	testutil.AssertNoError(t, err)
	testutil.ExpectSliceEq(t, []string{"http://h"}, api.Base)
	testutil.ExpectEq(t, "GET", api.Resources[0].Operations[0].Method)
}

func TestTypeExpr_MarshalJSON(t *testing.T) {
	t.Parallel()
	api := loadPetstore(t)
	out, err := json.Marshal(api.DataTypes[0])
	testutil.AssertNoError(t, err)
	s := string(out)
	testutil.ExpectContains(t, s, `"name":"Pet"`)
	testutil.ExpectContains(t, s, `"type":"list(string)"`)
	testutil.ExpectContains(t, s, `"type":"Pet_owner"`)
	testutil.ExpectContains(t, s, `"constraints":["self.id`)
}

func TestConditions(t *testing.T) {
	t.Parallel()
	api := loadPetstore(t)
	create := api.Resources[0].Operations[1]
	testutil.ExpectSliceEq(t, []string{
		"len(input.name) < 64",
		"input.id > 0",
		"len(input.owner.email) > 0",
	}, api.PreConditions(create))
	testutil.ExpectSliceEq(t, []string{
		"output.id == input.id",
		"output.id > 0",
		"len(output.owner.email) > 0",
	}, api.PostConditions(create))

	list := api.Resources[0].Operations[0]
	testutil.ExpectEq(t, 0, len(api.PreConditions(list)))
	testutil.ExpectSliceEq(t, []string{
		"forall(_item, output.items, _item.id > 0)",
		"forall(_item, output.items, len(_item.owner.email) > 0)",
	}, api.PostConditions(list))
}

func TestConditions_RecursiveType(t *testing.T) {
	t.Parallel()
	api, err := Parse([]byte(`name: x
dataTypes:
  - name: Node
    constraints: [self.value >= 0]
    fields:
      - name: value
        type: int
      - name: next
        type: Node
        optional: true
resources:
  - name: R
    path: /r
    operations:
      - name: Get
        method: GET
        output: {status: 200, type: Node}
`))
	testutil.AssertNoError(t, err)
	got := api.PostConditions(api.Resources[0].Operations[0])
	testutil.ExpectSliceEq(t, []string{"output.value >= 0"}, got)
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()
	testutil.ExpectSliceEq(t, []string{"a", "b"}, Placeholders("/x/{a}/y/{b}"))
	testutil.ExpectEq(t, 0, len(Placeholders("/plain")))
}
