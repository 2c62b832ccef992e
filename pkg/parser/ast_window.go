package parser

import (
	"cmp"
	"math"
	"math/bits"
	"time"

	"github.com/leapstack-labs/nebulasql/pkg/token"
)

// WindowedAggregation is [GROUP BY ...] WINDOW spec [WATERMARK(...)].
type WindowedAggregation struct {
	NodeInfo
	GroupBy   *AggregationClause // nil when absent
	Window    *WindowClause
	Watermark *WatermarkClause // nil when absent
}

// GroupingKind distinguishes the grouping specifications.
type GroupingKind int

// Grouping kinds.
const (
	GroupingPlain    GroupingKind = iota // GROUP BY a, b
	GroupingRollup                       // GROUP BY a, b WITH ROLLUP
	GroupingCube                         // GROUP BY a, b WITH CUBE
	GroupingSetsKind                     // GROUP BY [a, b] GROUPING SETS (...)
)

func (k GroupingKind) String() string {
	switch k {
	case GroupingRollup:
		return "ROLLUP"
	case GroupingCube:
		return "CUBE"
	case GroupingSetsKind:
		return "GROUPING SETS"
	}
	return "PLAIN"
}

// AggregationClause is a GROUP BY clause. Exprs is empty for the
// GROUP BY GROUPING SETS (...) form.
type AggregationClause struct {
	NodeInfo
	Exprs []Expr
	Kind  GroupingKind
	Sets  []*GroupingSet // only for GroupingSetsKind
}

// GroupingSet is (a, b), () or a bare expression.
type GroupingSet struct {
	NodeInfo
	Exprs         []Expr
	Parenthesized bool
}

// WindowClause is WINDOW spec.
type WindowClause struct {
	NodeInfo
	Spec WindowSpec
}

// WindowSpec is TumblingWindow, SlidingWindow, CountWindow or ThresholdWindow.
type WindowSpec interface {
	Node
	windowSpec()
}

// TumblingWindow is TUMBLING([ts,] SIZE n unit).
type TumblingWindow struct {
	NodeInfo
	Timestamp *Identifier // nil when absent
	Size      TimeMeasure
}

// SlidingWindow is SLIDING([ts,] SIZE n unit, ADVANCE BY n unit).
type SlidingWindow struct {
	NodeInfo
	Timestamp *Identifier
	Size      TimeMeasure
	Advance   TimeMeasure
}

// CountWindow is TUMBLING(n): a tumbling window of n rows.
type CountWindow struct {
	NodeInfo
	Count int64
}

// ThresholdWindow is THRESHOLD(condition [, minCount]).
type ThresholdWindow struct {
	NodeInfo
	Condition Expr
	MinCount  *int64 // nil when absent
}

func (*TumblingWindow) windowSpec()  {}
func (*SlidingWindow) windowSpec()   {}
func (*CountWindow) windowSpec()     {}
func (*ThresholdWindow) windowSpec() {}

// WatermarkClause is WATERMARK(column, n unit).
type WatermarkClause struct {
	NodeInfo
	Column *Identifier
	Delay  TimeMeasure
}

// TimeUnit is a window time unit.
type TimeUnit int

// Time units.
const (
	UnitMillisecond TimeUnit = iota // MS
	UnitSecond                      // SEC
	UnitMinute                      // MIN
	UnitHour                        // HOUR
	UnitDay                         // DAY
)

var timeUnits = map[token.TokenType]TimeUnit{
	token.MS:   UnitMillisecond,
	token.SEC:  UnitSecond,
	token.MIN:  UnitMinute,
	token.HOUR: UnitHour,
	token.DAY:  UnitDay,
}

// String returns the keyword spelling of the unit.
func (u TimeUnit) String() string {
	switch u {
	case UnitMillisecond:
		return "MS"
	case UnitSecond:
		return "SEC"
	case UnitMinute:
		return "MIN"
	case UnitHour:
		return "HOUR"
	case UnitDay:
		return "DAY"
	}
	return "UNKNOWN"
}

// Duration returns the length of one unit.
func (u TimeUnit) Duration() time.Duration {
	switch u {
	case UnitMillisecond:
		return time.Millisecond
	case UnitSecond:
		return time.Second
	case UnitMinute:
		return time.Minute
	case UnitHour:
		return time.Hour
	case UnitDay:
		return 24 * time.Hour
	}
	return 0
}

// TimeMeasure is an integer amount of a time unit.
type TimeMeasure struct {
	Value int64
	Unit  TimeUnit
}

// Duration returns the measure as a time.Duration, saturating at the
// largest Duration when the product does not fit.
func (m TimeMeasure) Duration() time.Duration {
	unit := m.Unit.Duration()
	if unit == 0 || m.Value == 0 {
		return 0
	}
	if m.Value > math.MaxInt64/int64(unit) {
		return time.Duration(math.MaxInt64)
	}
	if m.Value < math.MinInt64/int64(unit) {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(m.Value) * unit
}

// Compare orders two non-negative measures by their exact length and
// returns -1, 0 or +1. Unlike Duration it never saturates.
func (m TimeMeasure) Compare(o TimeMeasure) int {
	hi1, lo1 := bits.Mul64(uint64(max(m.Value, 0)), uint64(m.Unit.Duration()))
	hi2, lo2 := bits.Mul64(uint64(max(o.Value, 0)), uint64(o.Unit.Duration()))
	if hi1 != hi2 {
		return cmp.Compare(hi1, hi2)
	}
	return cmp.Compare(lo1, lo2)
}
