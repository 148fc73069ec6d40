package spec

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/hiranya911/rest-coder/internal/testutil"
)

const sampleSpec = `openapi: 3.0.0
info:
  title: Sample API
  version: "1.0.0"
  description: Demo
  license:
    name: MIT
servers:
  - url: http://localhost:9000/v1
paths:
  /pets:
    parameters:
      - in: query
        name: limit
        required: false
        schema:
          type: integer
    get:
      operationId: listPets
      summary: List pets
      description: Returns all pets
      tags: [read, animal]
      parameters:
        - in: query
          name: limit
          required: true
          schema:
            type: integer
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: array
                items:
                  $ref: '#/components/schemas/Pet'
        "500":
          description: server exploded
    post:
      summary: Create pet
      tags: [write, animal]
      requestBody:
        required: true
        content:
          application/x-www-form-urlencoded:
            schema:
              $ref: '#/components/schemas/Pet'
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pet'
  /pets/{petId}:
    get:
      operationId: getPet
      tags: [read]
      parameters:
        - in: path
          name: petId
          required: true
          schema:
            type: integer
            format: int64
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                type: object
                properties:
                  id:
                    type: integer
                    format: int64
                  owner:
                    type: object
                    properties:
                      email:
                        type: string
                  visits:
                    type: array
                    items:
                      type: object
                      properties:
                        when:
                          type: string
        "404":
          description: not found
  /admin:
    get:
      summary: Admin only
      tags: [admin]
      responses:
        "200": { description: ok }
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
          format: int64
        name:
          type: string
        photo:
          type: string
          format: binary
        meta:
          type: object
        status:
          $ref: '#/components/schemas/Status'
    Status:
      type: string
      enum: [available, sold]
    Cat:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          properties:
            indoor:
              type: boolean
`

func loadDoc(t *testing.T, spec string) *openapi3.T {
	t.Helper()
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData([]byte(strings.TrimSpace(spec)))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return doc
}

func fieldTypes(nt *NamedType) map[string]string {
	out := make(map[string]string, len(nt.Fields))
	for _, f := range nt.Fields {
		out[f.Name] = f.Type.RefName()
	}
	return out
}

func TestFromOpenAPI_Basic(t *testing.T) {
	t.Parallel()
	api, err := FromOpenAPI(loadDoc(t, sampleSpec))
	testutil.AssertNoError(t, err)

	testutil.ExpectEq(t, "Sample API", api.Name)
	testutil.ExpectEq(t, "1.0.0", api.Version.ID)
	testutil.ExpectEq(t, "MIT", api.License)
	testutil.ExpectSliceEq(t, []string{"http://localhost:9000/v1"}, api.Base)

	testutil.ExpectSliceEq(t, []string{
		"Cat",
		"Pet",
		"pets_petId_getPet_OutputType_visits_item",
		"pets_petId_getPet_OutputType",
		"pets_petId_getPet_OutputType_owner",
	}, typeNames(api))

	pet, _ := api.TypeByName("Pet")
	testutil.ExpectEq(t, "id", pet.Fields[0].Name)
	testutil.ExpectFalse(t, pet.Fields[0].Optional)
	testutil.ExpectEq(t, "long", fieldTypes(pet)["id"])
	testutil.ExpectEq(t, "binary", fieldTypes(pet)["photo"])
	testutil.ExpectEq(t, APIType, fieldTypes(pet)["meta"])
	testutil.ExpectEq(t, "string", fieldTypes(pet)["status"])
	testutil.ExpectTrue(t, pet.Fields[1].Optional)

	cat, _ := api.TypeByName("Cat")
	testutil.ExpectEq(t, 6, len(cat.Fields))
	testutil.ExpectEq(t, "boolean", fieldTypes(cat)["indoor"])

	out, _ := api.TypeByName("pets_petId_getPet_OutputType")
	testutil.ExpectEq(t, "pets_petId_getPet_OutputType_owner", fieldTypes(out)["owner"])
	testutil.ExpectEq(t, "list(pets_petId_getPet_OutputType_visits_item)", fieldTypes(out)["visits"])
}

func TestFromOpenAPI_Resources(t *testing.T) {
	t.Parallel()
	api, err := FromOpenAPI(loadDoc(t, sampleSpec))
	testutil.AssertNoError(t, err)

	names := make([]string, len(api.Resources))
	for i, r := range api.Resources {
		names[i] = r.Name
	}
	testutil.ExpectSliceEq(t, []string{"admin", "pets", "pets_petId"}, names)

	admin := api.Resources[0].Operations[0]
	testutil.ExpectEq(t, "get_admin", admin.Name)
	testutil.ExpectEq(t, 200, admin.Output.Status)
	if admin.Input != nil {
		t.Fatalf("admin: expected no input")
	}

	pets := api.Resources[1]
	list := pets.Operations[0]
	testutil.ExpectEq(t, "listPets", list.Name)
	testutil.ExpectEq(t, "List pets\n\nReturns all pets", list.Description)
	// operation-level limit overrides the path-level one
	testutil.ExpectEq(t, 1, len(list.Input.Params))
	testutil.ExpectFalse(t, list.Input.Params[0].Optional)
	testutil.ExpectEq(t, "query", list.Input.Params[0].Mode)
	testutil.ExpectEq(t, "int", list.Input.Params[0].Type.RefName())
	testutil.ExpectEq(t, "list(Pet)", list.Output.Type.RefName())
	testutil.ExpectEq(t, "server exploded", list.ErrorTable()[500])

	create := pets.Operations[1]
	testutil.ExpectEq(t, "post_pets", create.Name)
	testutil.ExpectEq(t, "POST", create.Method)
	testutil.ExpectSliceEq(t, []string{"application/json", "application/x-www-form-urlencoded"}, create.Input.ContentTypes)
	testutil.ExpectEq(t, "Pet", create.Input.Type.RefName())
	testutil.ExpectEq(t, 201, create.Output.Status)

	get := api.Resources[2].Operations[0]
	testutil.ExpectEq(t, "long", get.Input.Params[0].Type.RefName())
	testutil.ExpectEq(t, "path", get.Input.Params[0].Mode)
	testutil.ExpectEq(t, "not found", get.ErrorTable()[404])
}

func TestFromOpenAPI_TagFiltering(t *testing.T) {
	t.Parallel()
	doc := loadDoc(t, sampleSpec)

	api, err := FromOpenAPI(doc, WithIncludeTags([]string{"read"}))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 2, len(api.Resources))
	testutil.ExpectEq(t, 1, len(api.Resources[0].Operations))
	testutil.ExpectEq(t, "listPets", api.Resources[0].Operations[0].Name)

	api, err = FromOpenAPI(loadDoc(t, sampleSpec), WithExcludeTags([]string{"admin"}))
	testutil.AssertNoError(t, err)
	for _, r := range api.Resources {
		if r.Path == "/admin" {
			t.Fatalf("exclude tags: /admin should be filtered out")
		}
	}
}

func TestFromOpenAPI_PathFilter(t *testing.T) {
	t.Parallel()
	api, err := FromOpenAPI(loadDoc(t, sampleSpec), WithPathPatterns([]string{"^/pets$"}))
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, 1, len(api.Resources))
	testutil.ExpectEq(t, "/pets", api.Resources[0].Path)
}

func TestResourceName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"/":                 "root",
		"/pets":             "pets",
		"/pets/{petId}":     "pets_petId",
		"/a/{b}/c/":         "a_b_c",
		"/store/inventory/": "store_inventory",
	}
	for in, want := range cases {
		testutil.ExpectEq(t, want, resourceName(in))
	}
}
