package lint

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// RuleHyphenatedIdentifier reports names captured as ErrorIdent.
const RuleHyphenatedIdentifier = "hyphenated-identifier"

func init() {
	Register(RuleDef{
		ID:          RuleHyphenatedIdentifier,
		Description: "Hyphenated names are parsed as one name but are not valid identifiers.",
		Severity:    SeverityWarning,
		Check:       checkHyphenatedIdentifier,
		Rationale: `In a name position the parser accepts a-b-c and keeps the parts, so a query
with a dashed stream or column name still parses. Other engines read the same text as
subtraction. Backquoting the name makes the intent explicit.`,
		BadExample:  "SELECT a AS my-col FROM sensor-data",
		GoodExample: "SELECT a AS `my-col` FROM `sensor-data`",
	})
}

func checkHyphenatedIdentifier(stmt *parser.SingleStatement, _ map[string]any) []Diagnostic {
	var diags []Diagnostic
	for _, ei := range parser.Collect[*parser.ErrorIdent](stmt) {
		span := ei.GetSpan()
		quoted := "`" + strings.ReplaceAll(ei.Text(), "`", "``") + "`"
		diags = append(diags, Diagnostic{
			Message: fmt.Sprintf("%q is not a valid identifier; quote it as %s", ei.Text(), quoted),
			Pos:     span.Start,
			EndPos:  span.End,
			Fixes: []Fix{{
				Description: "Quote identifier",
				TextEdits:   []TextEdit{{Pos: span.Start, EndPos: span.End, NewText: quoted}},
			}},
		})
	}
	return diags
}
