package contract

import (
	"strconv"
	"strings"
)

// Node is a parsed contract expression. String renders canonical text that
// parses back to an equal tree.
type Node interface {
	String() string
	node()
}

type (
	Name    struct{ Ident string }
	Number  struct{ Text string }
	Str     struct{ Value string }
	Literal struct{ Value string } // true, false or null

	Unary struct {
		Op string
		X  Node
	}
	Binary struct {
		Op          string
		Left, Right Node
	}
	Attr struct {
		X    Node
		Name string
	}
	Index struct{ X, Key Node }
	Call  struct {
		Func string
		Args []Node
	}
	List  struct{ Elems []Node }
	Tuple struct{ Elems []Node }
	Dict  struct{ Keys, Values []Node }
)

func (*Name) node()    {}
func (*Number) node()  {}
func (*Str) node()     {}
func (*Literal) node() {}
func (*Unary) node()   {}
func (*Binary) node()  {}
func (*Attr) node()    {}
func (*Index) node()   {}
func (*Call) node()    {}
func (*List) node()    {}
func (*Tuple) node()   {}
func (*Dict) node()    {}

func (n *Name) String() string    { return n.Ident }
func (n *Number) String() string  { return n.Text }
func (n *Str) String() string     { return strconv.Quote(n.Value) }
func (n *Literal) String() string { return n.Value }

func (n *Unary) String() string {
	if n.Op == "not" {
		return "not " + operand(n.X)
	}
	return n.Op + operand(n.X)
}

func (n *Binary) String() string {
	return operand(n.Left) + " " + n.Op + " " + operand(n.Right)
}

func (n *Attr) String() string  { return operand(n.X) + "." + n.Name }
func (n *Index) String() string { return operand(n.X) + "[" + n.Key.String() + "]" }
func (n *Call) String() string  { return n.Func + "(" + join(n.Args) + ")" }
func (n *List) String() string  { return "[" + join(n.Elems) + "]" }

func (n *Tuple) String() string {
	if len(n.Elems) == 1 {
		return "(" + n.Elems[0].String() + ",)"
	}
	return "(" + join(n.Elems) + ")"
}

func (n *Dict) String() string {
	parts := make([]string, len(n.Keys))
	for i := range n.Keys {
		parts[i] = n.Keys[i].String() + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// operand parenthesizes compound children.
func operand(n Node) string {
	switch n.(type) {
	case *Binary, *Unary:
		return "(" + n.String() + ")"
	}
	return n.String()
}

func join(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

// Rewrite rebuilds n bottom-up, replacing every node with fn's result.
func Rewrite(n Node, fn func(Node) Node) Node {
	switch x := n.(type) {
	case *Unary:
		return fn(&Unary{Op: x.Op, X: Rewrite(x.X, fn)})
	case *Binary:
		return fn(&Binary{Op: x.Op, Left: Rewrite(x.Left, fn), Right: Rewrite(x.Right, fn)})
	case *Attr:
		return fn(&Attr{X: Rewrite(x.X, fn), Name: x.Name})
	case *Index:
		return fn(&Index{X: Rewrite(x.X, fn), Key: Rewrite(x.Key, fn)})
	case *Call:
		return fn(&Call{Func: x.Func, Args: rewriteAll(x.Args, fn)})
	case *List:
		return fn(&List{Elems: rewriteAll(x.Elems, fn)})
	case *Tuple:
		return fn(&Tuple{Elems: rewriteAll(x.Elems, fn)})
	case *Dict:
		return fn(&Dict{Keys: rewriteAll(x.Keys, fn), Values: rewriteAll(x.Values, fn)})
	default:
		return fn(n)
	}
}

func rewriteAll(nodes []Node, fn func(Node) Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Rewrite(n, fn)
	}
	return out
}

// Qualify replaces every reference to the name old with repl.
func Qualify(n Node, old string, repl Node) Node {
	return Rewrite(n, func(x Node) Node {
		if name, ok := x.(*Name); ok && name.Ident == old {
			return repl
		}
		return x
	})
}
