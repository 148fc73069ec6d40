// Package codegen allocates identifiers and assembles generated Go source.
package codegen

import (
	"fmt"
	"go/token"
	"go/types"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ScopeKind selects the naming rules of a Scope.
type ScopeKind int

const (
	TypeScope ScopeKind = iota
	MethodScope
	ArgumentScope
	FuncScope
)

func (k ScopeKind) String() string {
	switch k {
	case TypeScope:
		return "type"
	case MethodScope:
		return "method"
	case ArgumentScope:
		return "argument"
	case FuncScope:
		return "function"
	}
	return "unknown"
}

func (k ScopeKind) base() string {
	switch k {
	case TypeScope:
		return "DataType"
	case MethodScope:
		return "Method"
	case ArgumentScope:
		return "param"
	default:
		return "fn"
	}
}

// exported scopes produce identifiers visible outside the generated package.
func (k ScopeKind) exported() bool { return k == TypeScope || k == MethodScope }

// Sanitize turns raw into a valid identifier for kind without checking for
// collisions.
func Sanitize(raw string, kind ScopeKind) string {
	var b strings.Builder
	for _, r := range raw {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	name := b.String()
	switch {
	case name == "" || name == "_":
		name = kind.base()
	case unicode.IsDigit(firstRune(name)):
		if kind == TypeScope {
			name = kind.base() + name
		} else {
			name = kind.base() + "_" + name
		}
	}

	first, size := utf8.DecodeRuneInString(name)
	if kind.exported() {
		name = string(unicode.ToUpper(first)) + name[size:]
	} else {
		name = string(unicode.ToLower(first)) + name[size:]
	}
	if isReservedWord(name) {
		name += "_"
	}
	return name
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func isReservedWord(name string) bool {
	return token.IsKeyword(name) || types.Universe.Lookup(name) != nil
}

// Scope hands out collision-free identifiers and remembers which raw name
// each one was derived from.
type Scope struct {
	kind    ScopeKind
	taken   map[string]bool
	mapping map[string]string
}

func NewScope(kind ScopeKind) *Scope {
	return &Scope{
		kind:    kind,
		taken:   make(map[string]bool),
		mapping: make(map[string]string),
	}
}

func (s *Scope) Kind() ScopeKind { return s.kind }

// Reserve marks identifiers as taken without recording a mapping.
func (s *Scope) Reserve(names ...string) {
	for _, n := range names {
		s.taken[n] = true
	}
}

// Taken reports whether name has been handed out or reserved.
func (s *Scope) Taken(name string) bool { return s.taken[name] }

// Allocate derives a fresh identifier from raw and records raw -> identifier.
func (s *Scope) Allocate(raw string) string {
	name := s.Fresh(raw)
	s.mapping[raw] = name
	return name
}

// Fresh derives a fresh identifier from raw without recording a mapping.
func (s *Scope) Fresh(raw string) string {
	base := Sanitize(raw, s.kind)
	name := base
	for i := 1; s.taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	s.taken[name] = true
	return name
}

// Lookup returns the identifier allocated for raw.
func (s *Scope) Lookup(raw string) (string, bool) {
	name, ok := s.mapping[raw]
	return name, ok
}

// MustLookup is Lookup for names the caller registered itself. A miss is a
// bug in the code generator.
func (s *Scope) MustLookup(raw string) string {
	name, ok := s.Lookup(raw)
	if !ok {
		panic(fmt.Sprintf("internal error in code generator: no %s identifier recorded for %q", s.kind, raw))
	}
	return name
}

// FuncRegistry is the free-function namespace. A derived name is generated
// once and reused afterwards; deriving it again for a different subject is a
// ConflictError.
type FuncRegistry struct {
	owners map[string]string
}

func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{owners: make(map[string]string)}
}

// Claim sanitizes raw and binds it to key. fresh is false when the same key
// claimed the name before, in which case no new function must be generated.
func (r *FuncRegistry) Claim(raw, key string) (name string, fresh bool, err error) {
	name = Sanitize(raw, FuncScope)
	if owner, ok := r.owners[name]; ok {
		if owner != key {
			return "", false, &ConflictError{Name: name, Existing: owner, Requested: key}
		}
		return name, false, nil
	}
	r.owners[name] = key
	return name, true, nil
}

// ConflictError reports two different codecs deriving the same function name.
type ConflictError struct {
	Name      string
	Existing  string
	Requested string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("codegen: function %s is derived from both %s and %s", e.Name, e.Existing, e.Requested)
}
