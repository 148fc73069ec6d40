package spec

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel type names. APIType stands for the API description document
// itself; NoneType marks an absent body.
const (
	APIType  = "_API_"
	NoneType = "_NONE_"
)

type PrimitiveKind string

const (
	Short   PrimitiveKind = "short"
	Int     PrimitiveKind = "int"
	Long    PrimitiveKind = "long"
	String  PrimitiveKind = "string"
	Boolean PrimitiveKind = "boolean"
	Double  PrimitiveKind = "double"
	Byte    PrimitiveKind = "byte"
	Binary  PrimitiveKind = "binary"
	Href    PrimitiveKind = "href"
)

var primitiveKinds = map[string]PrimitiveKind{
	"short":   Short,
	"int":     Int,
	"long":    Long,
	"string":  String,
	"boolean": Boolean,
	"double":  Double,
	"byte":    Byte,
	"binary":  Binary,
	"href":    Href,
}

type ContainerKind string

const (
	List ContainerKind = "list"
	Set  ContainerKind = "set"
)

// TypeRef is the closed set of type expressions: *Primitive, *Container,
// *CustomRef and *Composite.
type TypeRef interface {
	// RefName is the textual reference form, "" for inline composites.
	RefName() string
	isTypeRef()
}

type Primitive struct{ Kind PrimitiveKind }

type Container struct {
	Kind ContainerKind
	Elem TypeRef
}

// CustomRef names a declared data type or one of the sentinels.
type CustomRef struct{ Name string }

// Composite is an inline record definition.
type Composite struct {
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Fields      []*Field   `yaml:"fields" json:"fields" validate:"required,dive"`
	Constraints StringList `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

func (*Primitive) isTypeRef() {}
func (*Container) isTypeRef() {}
func (*CustomRef) isTypeRef() {}
func (*Composite) isTypeRef() {}

func (p *Primitive) RefName() string { return string(p.Kind) }
func (c *Container) RefName() string { return string(c.Kind) + "(" + c.Elem.RefName() + ")" }
func (c *CustomRef) RefName() string { return c.Name }
func (*Composite) RefName() string   { return "" }

// IsSentinel reports whether the reference is _API_ or _NONE_.
func (c *CustomRef) IsSentinel() bool { return c.Name == APIType || c.Name == NoneType }

// ParseTypeRef parses the textual form of a type reference: a primitive name,
// list(T) / set(T), or the name of a custom type.
func ParseTypeRef(s string) (TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type reference")
	}
	if kind, ok := primitiveKinds[s]; ok {
		return &Primitive{Kind: kind}, nil
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if strings.ContainsAny(s, ")") {
			return nil, fmt.Errorf("malformed type reference %q", s)
		}
		return &CustomRef{Name: s}, nil
	}
	if !strings.HasSuffix(s, ")") || open == 0 {
		return nil, fmt.Errorf("malformed container type %q", s)
	}
	kind := ContainerKind(strings.TrimSpace(s[:open]))
	if kind != List && kind != Set {
		return nil, fmt.Errorf("unknown container kind %q in %q", kind, s)
	}
	elem, err := ParseTypeRef(s[open+1 : len(s)-1])
	if err != nil {
		return nil, fmt.Errorf("container %q: %w", s, err)
	}
	return &Container{Kind: kind, Elem: elem}, nil
}

// TypeExpr is the value of a "type" attribute: a reference string or an
// inline composite definition.
type TypeExpr struct{ TypeRef }

// Of wraps ref for use in the model.
func Of(ref TypeRef) *TypeExpr { return &TypeExpr{TypeRef: ref} }

func (t *TypeExpr) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		ref, err := ParseTypeRef(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		t.TypeRef = ref
	case yaml.MappingNode:
		c := new(Composite)
		if err := node.Decode(c); err != nil {
			return err
		}
		t.TypeRef = c
	default:
		return fmt.Errorf("line %d: type must be a reference or an inline definition", node.Line)
	}
	return nil
}

func (t TypeExpr) MarshalYAML() (any, error) {
	if c, ok := t.TypeRef.(*Composite); ok {
		return c, nil
	}
	return t.RefName(), nil
}

func (t TypeExpr) MarshalJSON() ([]byte, error) {
	if c, ok := t.TypeRef.(*Composite); ok {
		return json.Marshal(c)
	}
	return json.Marshal(t.RefName())
}

// StringList accepts either a single scalar or a sequence of scalars.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(node.Content))
		for _, n := range node.Content {
			if n.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar list item", n.Line)
			}
			items = append(items, n.Value)
		}
		*l = items
		return nil
	}
	return fmt.Errorf("line %d: expected a scalar or a list", node.Line)
}
