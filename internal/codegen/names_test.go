package codegen

import (
	"errors"
	"testing"

	"github.com/hiranya911/rest-coder/internal/testutil"
)

func TestSanitize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		kind ScopeKind
		want string
	}{
		{"Pet Store", TypeScope, "PetStore"},
		{"pet-store", TypeScope, "Petstore"},
		{"12345", TypeScope, "DataType12345"},
		{"", TypeScope, "DataType"},
		{"!!", MethodScope, "Method"},
		{"get pets", MethodScope, "Getpets"},
		{"1st", MethodScope, "Method_1st"},
		{"PetId", ArgumentScope, "petId"},
		{"9lives", ArgumentScope, "param_9lives"},
		{"type", ArgumentScope, "type_"},
		{"String", ArgumentScope, "string_"},
		{"_", ArgumentScope, "param"},
		{"Serialize_Pet_json", FuncScope, "serialize_Pet_json"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.raw, tc.kind); got != tc.want {
			t.Errorf("Sanitize(%q, %s) = %q, want %q", tc.raw, tc.kind, got, tc.want)
		}
	}
}

func TestScope_CollisionSuffixes(t *testing.T) {
	t.Parallel()
	s := NewScope(TypeScope)
	testutil.ExpectEq(t, "Pet", s.Allocate("Pet"))
	testutil.ExpectEq(t, "Pet1", s.Allocate("pet"))
	testutil.ExpectEq(t, "Pet2", s.Allocate("P-e-t"))
	testutil.ExpectEq(t, "DataType", s.Allocate(""))
	testutil.ExpectEq(t, "DataType1", s.Allocate("%%"))

	name, ok := s.Lookup("pet")
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "Pet1", name)
	_, ok = s.Lookup("Owner")
	testutil.ExpectFalse(t, ok)
}

func TestScope_SkipsTakenSuffix(t *testing.T) {
	t.Parallel()
	s := NewScope(ArgumentScope)
	testutil.ExpectEq(t, "id1", s.Allocate("id1"))
	testutil.ExpectEq(t, "id", s.Allocate("id"))
	testutil.ExpectEq(t, "id2", s.Allocate("Id"))
}

func TestScope_Reserve(t *testing.T) {
	t.Parallel()
	s := NewScope(ArgumentScope)
	s.Reserve("ctx", "c")
	testutil.ExpectEq(t, "ctx1", s.Allocate("ctx"))
	testutil.ExpectEq(t, "c1", s.Fresh("C"))
	testutil.ExpectTrue(t, s.Taken("ctx"))
	if _, ok := s.Lookup("C"); ok {
		t.Fatalf("Fresh must not record a mapping")
	}
}

func TestScope_IndependentInstances(t *testing.T) {
	t.Parallel()
	a := NewScope(MethodScope)
	b := NewScope(MethodScope)
	testutil.ExpectEq(t, "List", a.Allocate("list"))
	testutil.ExpectEq(t, "List", b.Allocate("list"))
}

func TestScope_MustLookupPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unregistered name")
		}
	}()
	NewScope(ArgumentScope).MustLookup("missing")
}

func TestFuncRegistry_Claim(t *testing.T) {
	t.Parallel()
	r := NewFuncRegistry()
	name, fresh, err := r.Claim("serialize_Pet_json", "Pet|json")
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, fresh)
	testutil.ExpectEq(t, "serialize_Pet_json", name)

	name, fresh, err = r.Claim("serialize_Pet_json", "Pet|json")
	testutil.AssertNoError(t, err)
	testutil.ExpectFalse(t, fresh)
	testutil.ExpectEq(t, "serialize_Pet_json", name)

	name, fresh, err = r.Claim("serialize_Pet json", "Pet json|json")
	testutil.AssertNoError(t, err)
	testutil.ExpectTrue(t, fresh)
	testutil.ExpectEq(t, "serialize_Petjson", name)

	_, _, err = r.Claim("serialize_Pet-json", "Pet-json|json")
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	testutil.ExpectEq(t, "serialize_Petjson", ce.Name)
	testutil.ExpectEq(t, "Pet json|json", ce.Existing)
	testutil.AssertErrorContains(t, err, "derived from both")
}
