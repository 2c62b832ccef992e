package lint

import (
	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// RuleSingleSink reports statements that write to more than one sink.
const RuleSingleSink = "single-sink"

func init() {
	Register(RuleDef{
		ID:          RuleSingleSink,
		Description: "A statement writes to exactly one sink, on its outermost query.",
		Severity:    SeverityError,
		Check:       checkSingleSink,
		Rationale: `The grammar allows INTO on every SELECT, so each UNION branch and each
subquery may name a sink. A plan has one output, and the extra sinks cannot be honored.`,
		BadExample:  "SELECT a FROM s INTO PRINT UNION SELECT a FROM t INTO PRINT",
		GoodExample: "SELECT a FROM s UNION SELECT a FROM t INTO PRINT",
	})
}

func checkSingleSink(stmt *parser.SingleStatement, _ map[string]any) []Diagnostic {
	nested := make(map[*parser.SinkClause]bool)
	for _, q := range parser.Collect[*parser.Query](stmt) {
		if q == stmt.Query {
			continue
		}
		for _, s := range parser.Collect[*parser.SinkClause](q) {
			nested[s] = true
		}
	}

	var diags []Diagnostic
	outer := 0
	for _, s := range parser.Collect[*parser.SinkClause](stmt) {
		switch {
		case nested[s]:
			diags = append(diags, at(s, "sink inside a subquery is never written"))
		case outer > 0:
			diags = append(diags, at(s, "statement already writes to a sink"))
		default:
			outer++
		}
	}
	return diags
}
