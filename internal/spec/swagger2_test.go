package spec

import (
	"strings"
	"testing"
)

func TestRepairSwagger2_MultipleBodiesMerged(t *testing.T) {
	t.Parallel()
	in := []byte(`swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /x:
    post:
      parameters:
      - in: body
        name: a
        required: true
        schema: { type: string }
      - in: body
        name: b
        schema: { type: integer }
      responses: { '200': { description: ok } }
`)
	out, changed, err := repairSwagger2(in)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !changed {
		t.Fatalf("expected changes")
	}
	s := string(out)
	if !strings.Contains(s, "in: body") || !strings.Contains(s, "name: body") {
		t.Fatalf("expected merged single body parameter, got:\n%s", s)
	}
	if strings.Count(s, "in: body") != 1 {
		t.Fatalf("expected exactly one body parameter, got:\n%s", s)
	}
}

func TestRepairSwagger2_BodyAndFormData(t *testing.T) {
	t.Parallel()
	in := []byte(`swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /upload:
    post:
      parameters:
      - in: body
        name: desc
        schema: { type: string }
      - in: formData
        name: file
        type: string
        required: true
      responses: { '200': { description: ok } }
`)
	out, changed, err := repairSwagger2(in)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if !changed {
		t.Fatalf("expected changes")
	}
	s := string(out)
	if strings.Contains(s, "in: body") {
		t.Fatalf("expected no body params after conversion, got:\n%s", s)
	}
	if !strings.Contains(s, "application/x-www-form-urlencoded") {
		t.Fatalf("expected consumes form media type, got:\n%s", s)
	}
}

func TestRepairSwagger2_Untouched(t *testing.T) {
	t.Parallel()
	in := []byte(`swagger: "2.0"
info: { title: t, version: "1.0.0" }
paths:
  /x:
    post:
      parameters:
      - in: body
        name: a
        schema: { type: string }
      responses: { '200': { description: ok } }
`)
	out, changed, err := repairSwagger2(in)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if changed || string(out) != string(in) {
		t.Fatalf("expected input to be returned unchanged")
	}
}
