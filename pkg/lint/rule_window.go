package lint

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

// Window rule IDs.
const (
	RuleSlidingAdvance  = "sliding-advance"
	RuleZeroWindow      = "zero-window"
	RuleWindowSizeLimit = "window-size-limit"
)

const defaultMaxWindowSize = 24 * time.Hour

func init() {
	Register(RuleDef{
		ID:          RuleSlidingAdvance,
		Description: "A sliding window should not advance further than its size.",
		Severity:    SeverityWarning,
		Check:       checkSlidingAdvance,
		Rationale:   "Rows that fall between two windows are never aggregated.",
		BadExample:  "WINDOW SLIDING(SIZE 1 MIN, ADVANCE BY 5 MIN)",
		GoodExample: "WINDOW SLIDING(SIZE 5 MIN, ADVANCE BY 1 MIN)",
	})
	Register(RuleDef{
		ID:          RuleZeroWindow,
		Description: "Window sizes, counts and advances must be positive.",
		Severity:    SeverityError,
		Check:       checkZeroWindow,
		Rationale:   "A window of size 0 never closes with any rows.",
		BadExample:  "WINDOW TUMBLING(0)",
		GoodExample: "WINDOW TUMBLING(100)",
	})
	Register(RuleDef{
		ID:          RuleWindowSizeLimit,
		Description: "Time windows should not exceed max_size (default 24h).",
		Severity:    SeverityInfo,
		Check:       checkWindowSizeLimit,
		ConfigKeys:  []string{"max_size"},
		Rationale:   "Long windows hold their state in memory until they close.",
		BadExample:  "WINDOW TUMBLING(SIZE 7 DAY)",
		GoodExample: "WINDOW TUMBLING(SIZE 1 HOUR)",
	})
}

func measure(m parser.TimeMeasure) string {
	return fmt.Sprintf("%d %s", m.Value, m.Unit)
}

func at(n parser.Node, message string) Diagnostic {
	span := n.GetSpan()
	return Diagnostic{Message: message, Pos: span.Start, EndPos: span.End}
}

func checkSlidingAdvance(stmt *parser.SingleStatement, _ map[string]any) []Diagnostic {
	var diags []Diagnostic
	for _, w := range parser.Collect[*parser.SlidingWindow](stmt) {
		if w.Advance.Compare(w.Size) > 0 {
			diags = append(diags, at(w, fmt.Sprintf(
				"sliding window advances by %s but covers only %s; rows in between are skipped",
				measure(w.Advance), measure(w.Size))))
		}
	}
	return diags
}

func checkZeroWindow(stmt *parser.SingleStatement, _ map[string]any) []Diagnostic {
	var diags []Diagnostic
	parser.Inspect(stmt, func(n parser.Node) bool {
		switch w := n.(type) {
		case *parser.CountWindow:
			if w.Count == 0 {
				diags = append(diags, at(w, "count window of 0 rows"))
			}
		case *parser.TumblingWindow:
			if w.Size.Value == 0 {
				diags = append(diags, at(w, "tumbling window of size 0"))
			}
		case *parser.SlidingWindow:
			if w.Size.Value == 0 {
				diags = append(diags, at(w, "sliding window of size 0"))
			}
			if w.Advance.Value == 0 {
				diags = append(diags, at(w, "sliding window that advances by 0"))
			}
		}
		return true
	})
	return diags
}

func checkWindowSizeLimit(stmt *parser.SingleStatement, opts map[string]any) []Diagnostic {
	limit := GetDurationOption(opts, "max_size", defaultMaxWindowSize)
	var diags []Diagnostic
	parser.Inspect(stmt, func(n parser.Node) bool {
		var size parser.TimeMeasure
		switch w := n.(type) {
		case *parser.TumblingWindow:
			size = w.Size
		case *parser.SlidingWindow:
			size = w.Size
		default:
			return true
		}
		if size.Duration() > limit {
			diags = append(diags, at(n, fmt.Sprintf("window of %s exceeds max_size %s", measure(size), limit)))
		}
		return true
	})
	return diags
}
