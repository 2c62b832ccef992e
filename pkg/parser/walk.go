package parser

// Walk traverses an AST depth-first and calls fn for each node.
// If fn returns false, the children of that node are skipped.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	walkChildren(node, fn)
}

// Inspect calls fn for every node under root, in source order, and stops
// descending wherever fn returns false. It is shorthand for Walk.
func Inspect(root Node, fn func(Node) bool) {
	Walk(root, fn)
}

// Collect returns every node of type T under root, in source order.
func Collect[T Node](root Node) []T {
	var out []T
	Walk(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

func walkList[T Node](list []T, fn func(Node) bool) {
	for _, n := range list {
		Walk(n, fn)
	}
}

//nolint:gocyclo // one case per node type
func walkChildren(node Node, fn func(Node) bool) {
	switch n := node.(type) {
	// Statements and queries
	case *SingleStatement:
		if n.Query != nil {
			Walk(n.Query, fn)
		}
	case *Query:
		Walk(n.Term, fn)
		walkList(n.OrderBy, fn)
	case *SetOperation:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *QuerySpecification:
		if n.Select != nil {
			Walk(n.Select, fn)
		}
		if n.From != nil {
			Walk(n.From, fn)
		}
		Walk(n.Where, fn)
		if n.Aggregation != nil {
			Walk(n.Aggregation, fn)
		}
		Walk(n.Having, fn)
		if n.Sink != nil {
			Walk(n.Sink, fn)
		}
	case *FromStatement:
		if n.From != nil {
			Walk(n.From, fn)
		}
		walkList(n.Bodies, fn)
	case *FromStatementBody:
		if n.Select != nil {
			Walk(n.Select, fn)
		}
		Walk(n.Where, fn)
		if n.GroupBy != nil {
			Walk(n.GroupBy, fn)
		}
	case *TableQuery:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
	case *SubqueryPrimary:
		if n.Query != nil {
			Walk(n.Query, fn)
		}
	case *SelectClause:
		walkList(n.Hints, fn)
		walkList(n.Items, fn)
	case *Hint:
		walkList(n.Statements, fn)
	case *HintStatement:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		walkList(n.Params, fn)
	case *NamedExpression:
		Walk(n.Expr, fn)
		Walk(n.Alias, fn)
		walkList(n.Aliases, fn)
	case *SortItem:
		Walk(n.Expr, fn)
	case *SinkClause:
		Walk(n.Sink, fn)

	// Relations
	case *FromClause:
		walkList(n.Relations, fn)
	case *Relation:
		Walk(n.Primary, fn)
		walkList(n.Joins, fn)
	case *JoinRelation:
		Walk(n.Right, fn)
		Walk(n.On, fn)
	case *TableName:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		walkAlias(n.Alias, fn)
	case *AliasedQuery:
		if n.Query != nil {
			Walk(n.Query, fn)
		}
		walkAlias(n.Alias, fn)
	case *AliasedRelation:
		if n.Relation != nil {
			Walk(n.Relation, fn)
		}
		walkAlias(n.Alias, fn)
	case *InlineTable:
		walkList(n.Rows, fn)
		walkAlias(n.Alias, fn)
	case *FunctionTable:
		Walk(n.Name, fn)
		walkList(n.Args, fn)
		walkAlias(n.Alias, fn)
	case *TableAlias:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		walkList(n.Columns, fn)
	case *ErrorIdent:
		walkList(n.Parts, fn)
	case *MultipartIdentifier:
		walkList(n.Parts, fn)

	// Windowed aggregation
	case *WindowedAggregation:
		if n.GroupBy != nil {
			Walk(n.GroupBy, fn)
		}
		if n.Window != nil {
			Walk(n.Window, fn)
		}
		if n.Watermark != nil {
			Walk(n.Watermark, fn)
		}
	case *AggregationClause:
		walkList(n.Exprs, fn)
		walkList(n.Sets, fn)
	case *GroupingSet:
		walkList(n.Exprs, fn)
	case *WindowClause:
		Walk(n.Spec, fn)
	case *TumblingWindow:
		if n.Timestamp != nil {
			Walk(n.Timestamp, fn)
		}
	case *SlidingWindow:
		if n.Timestamp != nil {
			Walk(n.Timestamp, fn)
		}
	case *ThresholdWindow:
		Walk(n.Condition, fn)
	case *WatermarkClause:
		if n.Column != nil {
			Walk(n.Column, fn)
		}

	// Expressions
	case *LogicalExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *NotExpr:
		Walk(n.Operand, fn)
	case *ExistsExpr:
		if n.Query != nil {
			Walk(n.Query, fn)
		}
	case *PredicatedExpr:
		Walk(n.Value, fn)
		Walk(n.Predicate, fn)
	case *BetweenPredicate:
		Walk(n.Lower, fn)
		Walk(n.Upper, fn)
	case *InListPredicate:
		walkList(n.Values, fn)
	case *InSubqueryPredicate:
		if n.Query != nil {
			Walk(n.Query, fn)
		}
	case *RLikePredicate:
		Walk(n.Pattern, fn)
	case *LikeQuantifiedPredicate:
		walkList(n.Patterns, fn)
	case *LikePredicate:
		Walk(n.Pattern, fn)
	case *IsDistinctFromPredicate:
		Walk(n.Right, fn)
	case *UnaryExpr:
		Walk(n.Operand, fn)
	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *ComparisonExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *QualifiedStar:
		walkList(n.Qualifier, fn)
	case *SubqueryExpr:
		if n.Query != nil {
			Walk(n.Query, fn)
		}
	case *RowConstructor:
		walkList(n.Items, fn)
	case *FunctionCall:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
		walkList(n.Args, fn)
	case *ParenExpr:
		Walk(n.Expr, fn)
	case *ColumnRef:
		if n.Name != nil {
			Walk(n.Name, fn)
		}
	case *Dereference:
		Walk(n.Base, fn)
		if n.Field != nil {
			Walk(n.Field, fn)
		}
	case *TypeConstructor:
		if n.Type != nil {
			Walk(n.Type, fn)
		}
	}
}

func walkAlias(a *TableAlias, fn func(Node) bool) {
	if a != nil {
		Walk(a, fn)
	}
}
