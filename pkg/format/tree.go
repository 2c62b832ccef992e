package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// TreeNode is a serializable view of an AST node.
type TreeNode struct {
	Kind     string      `json:"kind" yaml:"kind"`
	Value    string      `json:"value,omitempty" yaml:"value,omitempty"`
	Pos      string      `json:"pos,omitempty" yaml:"pos,omitempty"`
	Children []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`

	Span token.Span `json:"-" yaml:"-"`
}

// Tree converts node and everything under it. Names that a node already
// shows in its Value are not repeated as children.
func Tree(node parser.Node) *TreeNode {
	if node == nil {
		return nil
	}
	t := &TreeNode{
		Kind:  strings.TrimPrefix(fmt.Sprintf("%T", node), "*parser."),
		Value: nodeValue(node),
		Span:  node.GetSpan(),
	}
	if start := node.GetSpan().Start; start.IsValid() {
		t.Pos = start.String()
	}
	if isLeaf(node) {
		return t
	}
	absorbs := absorbsNames(node)
	parser.Walk(node, func(n parser.Node) bool {
		if n == node {
			return true
		}
		if _, isName := n.(parser.Name); !(absorbs && isName) {
			t.Children = append(t.Children, Tree(n))
		}
		return false
	})
	return t
}

// Text renders the tree as an indented list.
func (t *TreeNode) Text() string {
	if t == nil {
		return ""
	}
	w := list.NewWriter()
	w.SetStyle(list.StyleConnectedRounded)
	t.appendTo(w)
	return w.Render() + "\n"
}

func (t *TreeNode) appendTo(w list.Writer) {
	label := t.Kind
	if t.Value != "" {
		label += " " + t.Value
	}
	w.AppendItem(label)
	if len(t.Children) == 0 {
		return
	}
	w.Indent()
	for _, c := range t.Children {
		c.appendTo(w)
	}
	w.UnIndent()
}

func isLeaf(node parser.Node) bool {
	switch node.(type) {
	case *parser.Identifier, *parser.ErrorIdent, *parser.MultipartIdentifier,
		*parser.ColumnRef, *parser.QualifiedStar, *parser.TableAlias:
		return true
	}
	return false
}

func absorbsNames(node parser.Node) bool {
	switch node.(type) {
	case *parser.NamedExpression, *parser.FunctionCall, *parser.TypeConstructor,
		*parser.HintStatement, *parser.FunctionTable, *parser.Dereference,
		*parser.WatermarkClause, *parser.TumblingWindow, *parser.SlidingWindow:
		return true
	}
	return false
}

//nolint:gocyclo // one case per node type
func nodeValue(node parser.Node) string {
	switch n := node.(type) {
	case *parser.Query:
		var parts []string
		if n.Limit != nil {
			if n.Limit.All {
				parts = append(parts, "LIMIT ALL")
			} else {
				parts = append(parts, "LIMIT "+strconv.FormatInt(n.Limit.Count, 10))
			}
		}
		if n.Offset != nil {
			parts = append(parts, "OFFSET "+strconv.FormatInt(*n.Offset, 10))
		}
		return strings.Join(parts, " ")
	case *parser.SetOperation:
		return string(n.Op)
	case *parser.SortItem:
		return sortSuffix(n)
	case *parser.NamedExpression:
		switch {
		case n.Alias != nil:
			return "AS " + n.Alias.Text()
		case len(n.Aliases) > 0:
			return "AS (" + nameList(n.Aliases) + ")"
		}
	case *parser.HintStatement:
		return n.Name.Value
	case *parser.SinkClause:
		if n.As {
			return "AS"
		}
	case *parser.FileSink:
		return fmt.Sprintf("%s %s append=%s", strconv.Quote(n.Path), n.Format, n.Append)

	case *parser.JoinRelation:
		var parts []string
		if n.Natural {
			parts = append(parts, "NATURAL")
		}
		if n.Inner {
			parts = append(parts, "INNER")
		}
		return strings.Join(append(parts, "JOIN"), " ")
	case *parser.FunctionTable:
		return n.Name.Text()
	case *parser.TableAlias:
		if len(n.Columns) > 0 {
			return n.Name.Value + "(" + nameList(n.Columns) + ")"
		}
		return n.Name.Value
	case *parser.Identifier:
		return n.Value
	case *parser.ErrorIdent:
		return n.Text()
	case *parser.MultipartIdentifier:
		return n.String()

	case *parser.AggregationClause:
		return n.Kind.String()
	case *parser.GroupingSet:
		if n.Parenthesized {
			return "()"
		}
	case *parser.CountWindow:
		return strconv.FormatInt(n.Count, 10)
	case *parser.TumblingWindow:
		return timestampPrefix(n.Timestamp) + "SIZE " + measure(n.Size)
	case *parser.SlidingWindow:
		return timestampPrefix(n.Timestamp) + "SIZE " + measure(n.Size) + ", ADVANCE BY " + measure(n.Advance)
	case *parser.ThresholdWindow:
		if n.MinCount != nil {
			return "MIN COUNT " + strconv.FormatInt(*n.MinCount, 10)
		}
	case *parser.WatermarkClause:
		return n.Column.Value + ", " + measure(n.Delay)

	case *parser.LogicalExpr:
		return string(n.Op)
	case *parser.UnaryExpr:
		return string(n.Op)
	case *parser.BinaryExpr:
		return string(n.Op)
	case *parser.ComparisonExpr:
		return string(n.Op)
	case *parser.BetweenPredicate, *parser.InListPredicate, *parser.InSubqueryPredicate,
		*parser.RLikePredicate, *parser.IsNullPredicate:
		return negation(n.(parser.Predicate))
	case *parser.LikePredicate:
		if n.Escape != nil {
			return strings.TrimSpace(negation(n) + " ESCAPE " + quoteString(*n.Escape))
		}
		return negation(n)
	case *parser.LikeQuantifiedPredicate:
		return strings.TrimSpace(negation(n) + " " + string(n.Quantifier))
	case *parser.IsTruthPredicate:
		return strings.TrimSpace(negation(n) + " " + string(n.Value))
	case *parser.IsDistinctFromPredicate:
		return negation(n)
	case *parser.ColumnRef:
		return n.Name.Value
	case *parser.QualifiedStar:
		parts := make([]string, len(n.Qualifier))
		for i, q := range n.Qualifier {
			parts[i] = q.Value
		}
		return strings.Join(parts, ".") + ".*"
	case *parser.FunctionCall:
		return n.Name.Value
	case *parser.Dereference:
		return "." + n.Field.Value
	case *parser.NullLiteral:
		return "NULL"
	case *parser.BooleanLiteral:
		return strings.ToUpper(strconv.FormatBool(n.Value))
	case *parser.StringLiteral:
		return quoteString(n.Value())
	case *parser.TypeConstructor:
		return n.Type.Value + " " + quoteString(n.Value)
	case *parser.NumericLiteral:
		return n.SQL() + " (" + n.Kind.String() + ")"
	}
	return ""
}

func sortSuffix(n *parser.SortItem) string {
	var parts []string
	switch n.Ordering {
	case parser.OrderAsc:
		parts = append(parts, "ASC")
	case parser.OrderDesc:
		parts = append(parts, "DESC")
	}
	switch n.Nulls {
	case parser.NullsFirst:
		parts = append(parts, "NULLS FIRST")
	case parser.NullsLast:
		parts = append(parts, "NULLS LAST")
	}
	return strings.Join(parts, " ")
}

func negation(p parser.Predicate) string {
	if p.Negated() {
		return "NOT"
	}
	return ""
}

func nameList(names []parser.Name) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.Text()
	}
	return strings.Join(parts, ", ")
}

func timestampPrefix(id *parser.Identifier) string {
	if id == nil {
		return ""
	}
	return id.Value + ", "
}

func measure(m parser.TimeMeasure) string {
	return strconv.FormatInt(m.Value, 10) + " " + m.Unit.String()
}
