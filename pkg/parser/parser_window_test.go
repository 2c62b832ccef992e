package parser_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/nebulasql/pkg/parser"
)

func windowOf(t *testing.T, sql string) *parser.WindowedAggregation {
	t.Helper()
	spec := querySpec(t, mustParse(t, sql))
	require.NotNil(t, spec.Aggregation)
	require.NotNil(t, spec.Aggregation.Window)
	return spec.Aggregation
}

func TestTumblingCountVersusTime(t *testing.T) {
	count := windowOf(t, "SELECT * FROM s WINDOW TUMBLING(10)")
	cw, ok := count.Window.Spec.(*parser.CountWindow)
	require.True(t, ok, "got %T", count.Window.Spec)
	assert.Equal(t, int64(10), cw.Count)

	timed := windowOf(t, "SELECT * FROM s WINDOW TUMBLING(SIZE 10 SEC)")
	tw, ok := timed.Window.Spec.(*parser.TumblingWindow)
	require.True(t, ok, "got %T", timed.Window.Spec)
	assert.Nil(t, tw.Timestamp)
	assert.Equal(t, parser.TimeMeasure{Value: 10, Unit: parser.UnitSecond}, tw.Size)
	assert.Equal(t, 10*time.Second, tw.Size.Duration())
}

func TestTimeWindows(t *testing.T) {
	tumbling := windowOf(t, "SELECT * FROM s WINDOW TUMBLING(ts, SIZE 5 MIN)")
	tw := tumbling.Window.Spec.(*parser.TumblingWindow)
	require.NotNil(t, tw.Timestamp)
	assert.Equal(t, "ts", tw.Timestamp.Value)
	assert.Equal(t, 5*time.Minute, tw.Size.Duration())

	sliding := windowOf(t, "SELECT * FROM s WINDOW SLIDING(ts, SIZE 1 HOUR, ADVANCE BY 30 MS)")
	sw, ok := sliding.Window.Spec.(*parser.SlidingWindow)
	require.True(t, ok)
	assert.Equal(t, "ts", sw.Timestamp.Value)
	assert.Equal(t, parser.TimeMeasure{Value: 1, Unit: parser.UnitHour}, sw.Size)
	assert.Equal(t, parser.TimeMeasure{Value: 30, Unit: parser.UnitMillisecond}, sw.Advance)

	noTS := windowOf(t, "SELECT * FROM s WINDOW SLIDING(SIZE 2 DAY, ADVANCE BY 1 DAY)")
	assert.Nil(t, noTS.Window.Spec.(*parser.SlidingWindow).Timestamp)
	assert.Equal(t, 48*time.Hour, noTS.Window.Spec.(*parser.SlidingWindow).Size.Duration())
}

func TestTimeMeasureRange(t *testing.T) {
	huge := parser.TimeMeasure{Value: 200000, Unit: parser.UnitDay}
	assert.Equal(t, time.Duration(math.MaxInt64), huge.Duration())

	tests := []struct {
		name string
		a, b parser.TimeMeasure
		want int
	}{
		{"equal across units", parser.TimeMeasure{Value: 60, Unit: parser.UnitSecond}, parser.TimeMeasure{Value: 1, Unit: parser.UnitMinute}, 0},
		{"smaller", parser.TimeMeasure{Value: 1, Unit: parser.UnitSecond}, huge, -1},
		{"both past duration range", parser.TimeMeasure{Value: 300000, Unit: parser.UnitDay}, huge, 1},
		{"max int64 days", parser.TimeMeasure{Value: math.MaxInt64, Unit: parser.UnitDay}, parser.TimeMeasure{Value: math.MaxInt64, Unit: parser.UnitHour}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}

	sw := windowOf(t, "SELECT * FROM s WINDOW SLIDING(SIZE 200000 DAY, ADVANCE BY 1 SEC)").Window.Spec.(*parser.SlidingWindow)
	assert.Positive(t, sw.Size.Duration())
	assert.Equal(t, 1, sw.Size.Compare(sw.Advance))
}

func TestThresholdWindow(t *testing.T) {
	plain := windowOf(t, "SELECT * FROM s WINDOW THRESHOLD(temp > 30)")
	tw, ok := plain.Window.Spec.(*parser.ThresholdWindow)
	require.True(t, ok)
	assert.IsType(t, &parser.ComparisonExpr{}, tw.Condition)
	assert.Nil(t, tw.MinCount)

	withMin := windowOf(t, "SELECT * FROM s WINDOW THRESHOLD(temp > 30 AND ok, 5)")
	tw = withMin.Window.Spec.(*parser.ThresholdWindow)
	assert.IsType(t, &parser.LogicalExpr{}, tw.Condition)
	require.NotNil(t, tw.MinCount)
	assert.Equal(t, int64(5), *tw.MinCount)
}

func TestWatermark(t *testing.T) {
	agg := windowOf(t, "SELECT * FROM s WINDOW TUMBLING(ts, SIZE 10 SEC) WATERMARK(ts, 2 SEC)")
	require.NotNil(t, agg.Watermark)
	assert.Equal(t, "ts", agg.Watermark.Column.Value)
	assert.Equal(t, 2*time.Second, agg.Watermark.Delay.Duration())
}

func TestGroupByBeforeWindow(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		kind parser.GroupingKind
		n    int
		sets int
	}{
		{"plain", "SELECT id, count(*) FROM s GROUP BY id, region WINDOW TUMBLING(10)", parser.GroupingPlain, 2, 0},
		{"rollup", "SELECT * FROM s GROUP BY a, b WITH ROLLUP WINDOW TUMBLING(10)", parser.GroupingRollup, 2, 0},
		{"cube", "SELECT * FROM s GROUP BY a WITH CUBE WINDOW TUMBLING(10)", parser.GroupingCube, 1, 0},
		{"sets after exprs", "SELECT * FROM s GROUP BY a, b GROUPING SETS ((a, b), a, ()) WINDOW TUMBLING(10)", parser.GroupingSetsKind, 2, 3},
		{"sets only", "SELECT * FROM s GROUP BY GROUPING SETS ((a), (b)) WINDOW TUMBLING(10)", parser.GroupingSetsKind, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := windowOf(t, tt.sql)
			require.NotNil(t, agg.GroupBy)
			assert.Equal(t, tt.kind, agg.GroupBy.Kind)
			assert.Len(t, agg.GroupBy.Exprs, tt.n)
			assert.Len(t, agg.GroupBy.Sets, tt.sets)
		})
	}
}

func TestGroupingSetShapes(t *testing.T) {
	agg := windowOf(t, "SELECT * FROM s GROUP BY GROUPING SETS ((a, b), c, (), (d)) WINDOW TUMBLING(10)")
	sets := agg.GroupBy.Sets
	require.Len(t, sets, 4)

	assert.True(t, sets[0].Parenthesized)
	assert.Len(t, sets[0].Exprs, 2)
	assert.False(t, sets[1].Parenthesized)
	assert.Len(t, sets[1].Exprs, 1)
	assert.True(t, sets[2].Parenthesized)
	assert.Empty(t, sets[2].Exprs)
	assert.True(t, sets[3].Parenthesized)
	assert.Len(t, sets[3].Exprs, 1)
}

func TestGroupingSetFallsBackToExpression(t *testing.T) {
	agg := windowOf(t, "SELECT * FROM s GROUP BY GROUPING SETS ((a) + 1) WINDOW TUMBLING(10)")
	require.Len(t, agg.GroupBy.Sets, 1)
	set := agg.GroupBy.Sets[0]
	assert.False(t, set.Parenthesized)
	require.Len(t, set.Exprs, 1)
	assert.IsType(t, &parser.BinaryExpr{}, set.Exprs[0])
}

func TestHavingRequiresWindow(t *testing.T) {
	spec := querySpec(t, mustParse(t, "SELECT id, count(*) FROM s GROUP BY id WINDOW TUMBLING(10) HAVING count(*) > 5"))
	assert.NotNil(t, spec.Having)

	_, err := parser.Parse("SELECT a FROM s HAVING a > 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrSyntax)
	assert.Contains(t, err.Error(), parser.ErrHavingWithoutWindow)
}

func TestWatermarkRequiresWindow(t *testing.T) {
	_, err := parser.Parse("SELECT a FROM s WATERMARK(ts, 1 SEC)")
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrSyntax)
	assert.Contains(t, err.Error(), parser.ErrWatermarkNoWindow)
}

func TestGroupByRequiresWindow(t *testing.T) {
	_, err := parser.Parse("SELECT a FROM s GROUP BY a")
	require.Error(t, err)

	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parser.KindSyntax, pe.Kind)
	assert.Contains(t, pe.Expected, "WINDOW")
}

func TestFromStatementGroupByNeedsNoWindow(t *testing.T) {
	fs, ok := mustParse(t, "FROM s SELECT a GROUP BY a").Query.Term.(*parser.FromStatement)
	require.True(t, ok)
	require.Len(t, fs.Bodies, 1)
	assert.NotNil(t, fs.Bodies[0].GroupBy)
}

func TestWindowErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"missing unit", "SELECT * FROM s WINDOW TUMBLING(SIZE 10)"},
		{"unknown unit", "SELECT * FROM s WINDOW TUMBLING(SIZE 10 WEEKS)"},
		{"sliding without advance", "SELECT * FROM s WINDOW SLIDING(SIZE 10 SEC)"},
		{"unknown window kind", "SELECT * FROM s WINDOW SESSION(10)"},
		{"quoted timestamp column", "SELECT * FROM s WINDOW TUMBLING(`ts`, SIZE 1 SEC)"},
		{"count out of range", "SELECT * FROM s WINDOW TUMBLING(99999999999999999999)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.sql)
			require.Error(t, err)
			assert.ErrorIs(t, err, parser.ErrSyntax)
		})
	}
}

func TestTimeUnitExpectedSet(t *testing.T) {
	_, err := parser.Parse("SELECT * FROM s WINDOW TUMBLING(SIZE 10 WEEKS)")
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"DAY", "HOUR", "MIN", "MS", "SEC"}, pe.Expected)
	assert.Equal(t, "IDENTIFIER WEEKS", pe.Found)
}
