package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
)

var readings = database.NewTableRef("", "readings", []database.Column{
	{Name: "deviceid"},
	{Name: "evt_timestamp"},
	{Name: "temp"},
})

func TestResolveGrainPushDown(t *testing.T) {
	tests := []struct {
		grain string
		unit  plan.BucketUnit
		step  int
	}{
		{"1min", plan.Minute, 1},
		{"15min", plan.Minute, 15},
		{"90min", plan.Minute, 90},
		{"1H", plan.Hour, 1},
		{"6H", plan.Hour, 6},
		{"day", plan.Day, 1},
		{"week", plan.Week, 1},
		{"month", plan.Month, 1},
		{"year", plan.Year, 1},
	}
	for _, tt := range tests {
		t.Run(tt.grain, func(t *testing.T) {
			bp, err := ResolveGrain(readings, "evt_timestamp", tt.grain)
			require.NoError(t, err)
			assert.Equal(t, PushDown, bp.Kind)
			assert.Empty(t, bp.Frequency)
			assert.Equal(t, "evt_timestamp", bp.Label.Alias)
			b, ok := bp.Label.Expr.(plan.BucketExpr)
			require.True(t, ok)
			assert.Equal(t, tt.unit, b.Unit)
			assert.Equal(t, tt.step, b.Step)
		})
	}
}

func TestResolveGrainFallback(t *testing.T) {
	for _, grain := range []string{"W-MON", "15T", "D", "MS", "min", "0min", "1h", "15 min", "Day", "quarter", "-5min"} {
		t.Run(grain, func(t *testing.T) {
			bp, err := ResolveGrain(readings, "evt_timestamp", grain)
			require.NoError(t, err)
			assert.Equal(t, Fallback, bp.Kind)
			assert.Equal(t, grain, bp.Frequency)
			assert.Nil(t, bp.Label.Expr)
		})
	}
}

func TestResolveGrainNoBucket(t *testing.T) {
	bp, err := ResolveGrain(readings, "evt_timestamp", "evt_timestamp")
	require.NoError(t, err)
	assert.Equal(t, NoBucket, bp.Kind)
	assert.Equal(t, plan.Labeled{Expr: plan.ColumnRef{Table: readings, Name: "evt_timestamp"}, Alias: "evt_timestamp"}, bp.Label)
}

func TestResolveGrainUnknownTimestamp(t *testing.T) {
	_, err := ResolveGrain(readings, "ts", "day")
	var nf *ColumnNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestBuildAggregateDefaults(t *testing.T) {
	tests := []struct {
		column string
		kind   string
		alias  string
		want   string
	}{
		{"temp", "mean", "", "temp"},
		{"temp", "mean", "avg", "avg"},
		{"evt_timestamp", "min", "", "first_evt_timestamp"},
		{"evt_timestamp", "max", "", "last_evt_timestamp"},
		{"evt_timestamp", "count", "", "count_evt_timestamp"},
		{"evt_timestamp", "max", "latest", "latest"},
	}
	for _, tt := range tests {
		t.Run(tt.column+"/"+tt.kind, func(t *testing.T) {
			kind := mustKind(t, tt.kind)
			l, err := BuildAggregate(readings, nil, tt.column, kind, tt.alias, "evt_timestamp")
			require.NoError(t, err)
			assert.Equal(t, tt.want, l.Name())
			assert.Equal(t, kind, l.Expr.(plan.AggregateExpr).Kind)
		})
	}
}

func TestNotNullFilterResolution(t *testing.T) {
	dim := database.NewTableRef("", "devices", []database.Column{{Name: "deviceid"}, {Name: "model"}})

	p, err := NotNullFilter(readings, dim, "model")
	require.NoError(t, err)
	assert.Equal(t, "devices.model IS NOT NULL", p.String())

	_, err = NotNullFilter(readings, nil, "model")
	var nf *ColumnNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"readings"}, nf.Sources)

	_, err = NotNullFilter(readings, dim, "zone")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, []string{"readings", "devices"}, nf.Sources)
}
