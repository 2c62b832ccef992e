package starlark

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/nebulasql/pkg/format"
	"github.com/leapstack-labs/nebulasql/pkg/lint"
)

// Node exposes a syntax tree node to scripts. Its attributes are read-only:
//
//	kind, value               node type and the text it carries ("" if none)
//	line, column, offset      start position (1-based line and column)
//	end_line, end_column      end position, exclusive
//	end_offset
//	children                  tuple of child nodes
type Node struct {
	tree *format.TreeNode
}

var (
	_ starlark.HasAttrs = (*Node)(nil)
	_ starlark.Value    = (*Diagnostic)(nil)
)

var nodeAttrs = []string{
	"children", "column", "end_column", "end_line", "end_offset", "kind", "line", "offset", "value",
}

// NewNode wraps tree.
func NewNode(tree *format.TreeNode) *Node { return &Node{tree: tree} }

func (n *Node) String() string {
	if n.tree.Value == "" {
		return fmt.Sprintf("node(%s @%s)", n.tree.Kind, n.tree.Pos)
	}
	return fmt.Sprintf("node(%s %q @%s)", n.tree.Kind, n.tree.Value, n.tree.Pos)
}
func (n *Node) Type() string          { return "node" }
func (n *Node) Freeze()               {}
func (n *Node) Truth() starlark.Bool  { return starlark.True }
func (n *Node) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: node") }
func (n *Node) AttrNames() []string   { return nodeAttrs }

// Attr returns the named attribute, or nil for an unknown name.
func (n *Node) Attr(name string) (starlark.Value, error) {
	span := n.tree.Span
	switch name {
	case "kind":
		return starlark.String(n.tree.Kind), nil
	case "value":
		return starlark.String(n.tree.Value), nil
	case "line":
		return starlark.MakeInt(span.Start.Line), nil
	case "column":
		return starlark.MakeInt(span.Start.Column), nil
	case "offset":
		return starlark.MakeInt(span.Start.Offset), nil
	case "end_line":
		return starlark.MakeInt(span.End.Line), nil
	case "end_column":
		return starlark.MakeInt(span.End.Column), nil
	case "end_offset":
		return starlark.MakeInt(span.End.Offset), nil
	case "children":
		children := make(starlark.Tuple, len(n.tree.Children))
		for i, c := range n.tree.Children {
			children[i] = NewNode(c)
		}
		return children, nil
	}
	return nil, nil
}

// walk returns n and every node below it, depth first.
func (n *Node) walk() []starlark.Value {
	out := []starlark.Value{n}
	for _, c := range n.tree.Children {
		out = append(out, NewNode(c).walk()...)
	}
	return out
}

// Diagnostic is the value scripts build with diagnostic() and return from
// their check function.
type Diagnostic struct {
	diag lint.Diagnostic
}

func (d *Diagnostic) String() string        { return fmt.Sprintf("diagnostic(%q)", d.diag.Message) }
func (d *Diagnostic) Type() string          { return "diagnostic" }
func (d *Diagnostic) Freeze()               {}
func (d *Diagnostic) Truth() starlark.Bool  { return starlark.True }
func (d *Diagnostic) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: diagnostic") }

// GoToStarlark converts a Go value to a Starlark value.
// Supported types: string, int, int64, float64, bool, []string, []any, map[string]any
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := GoToStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			// Too large for int64
			return val.String(), nil
		}
		return i64, nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case *starlark.Dict:
		result := make(map[string]any)
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %T", item[0])
			}
			gv, err := ToGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			result[string(key)] = gv
		}
		return result, nil

	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	default:
		return val.String(), nil
	}
}
