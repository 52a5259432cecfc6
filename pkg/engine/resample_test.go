package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdyer28/LSPI/pkg/database"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

func utc(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFrequencyBin(t *testing.T) {
	tests := []struct {
		freq string
		in   string
		want string
	}{
		{"15T", "2023-01-01 10:44:59", "2023-01-01 10:30:00"},
		{"15min", "2023-01-01 10:45:00", "2023-01-01 10:45:00"},
		{"90min", "2023-01-01 02:59:00", "2023-01-01 01:30:00"},
		{"30S", "2023-01-01 10:00:45", "2023-01-01 10:00:30"},
		{"2H", "2023-01-01 03:10:00", "2023-01-01 02:00:00"},
		{"H", "2023-01-01 03:10:00", "2023-01-01 03:00:00"},
		{"D", "2023-03-05 23:59:59", "2023-03-05 00:00:00"},
		{"W", "2023-01-02 08:00:00", "2023-01-08 00:00:00"},
		{"W-SUN", "2023-01-08 08:00:00", "2023-01-08 00:00:00"},
		{"W-MON", "2023-01-01 08:00:00", "2023-01-02 00:00:00"},
		{"W-MON", "2023-01-02 08:00:00", "2023-01-02 00:00:00"},
		{"MS", "2023-02-17 08:00:00", "2023-02-01 00:00:00"},
		{"M", "2024-02-17 08:00:00", "2024-02-29 00:00:00"},
		{"ME", "2023-12-17 08:00:00", "2023-12-31 00:00:00"},
		{"YS", "2023-06-17 08:00:00", "2023-01-01 00:00:00"},
		{"A", "2023-06-17 08:00:00", "2023-12-31 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.freq+"/"+tt.in, func(t *testing.T) {
			f, err := ParseFrequency(tt.freq)
			require.NoError(t, err)
			assert.Equal(t, utc(tt.want), f.Bin(utc(tt.in)))
		})
	}
}

func TestFrequencyBinFromOrigin(t *testing.T) {
	origin := utc("2023-01-01 00:00:00")
	tests := []struct {
		freq string
		in   string
		want string
	}{
		{"7min", "2023-01-01 00:13:00", "2023-01-01 00:07:00"},
		{"7min", "2023-01-02 00:03:00", "2023-01-02 00:02:00"},
		{"2D", "2023-01-02 12:00:00", "2023-01-01 00:00:00"},
		{"2D", "2023-01-03 00:00:00", "2023-01-03 00:00:00"},
		{"2D", "2023-01-06 09:00:00", "2023-01-05 00:00:00"},
		{"5H", "2022-12-31 23:00:00", "2022-12-31 19:00:00"},
		{"MS", "2023-02-17 08:00:00", "2023-02-01 00:00:00"},
		{"W-MON", "2023-01-04 08:00:00", "2023-01-09 00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.freq+"/"+tt.in, func(t *testing.T) {
			f, err := ParseFrequency(tt.freq)
			require.NoError(t, err)
			assert.Equal(t, utc(tt.want), f.BinFrom(origin, utc(tt.in)))
		})
	}
}

func TestParseFrequencyRejects(t *testing.T) {
	for _, s := range []string{"", "Q", "0min", "2W", "3M", "W-FOO", "15 min", "day"} {
		_, err := ParseFrequency(s)
		var uf *UnsupportedFrequencyError
		assert.ErrorAs(t, err, &uf, s)
	}
}

func aggregates(tbl *database.TableRef) []plan.Labeled {
	col := func(n string) plan.ColumnRef { return plan.ColumnRef{Table: tbl, Name: n} }
	return []plan.Labeled{
		{Expr: plan.AggregateExpr{Kind: query.Count, Arg: col("temp")}, Alias: "temp_count"},
		{Expr: plan.AggregateExpr{Kind: query.Sum, Arg: col("temp")}, Alias: "temp_sum"},
		{Expr: plan.AggregateExpr{Kind: query.Std, Arg: col("temp")}, Alias: "temp_std"},
		{Expr: plan.AggregateExpr{Kind: query.Min, Arg: col("ts")}, Alias: "first_ts"},
		{Expr: plan.AggregateExpr{Kind: query.Max, Arg: col("ts")}, Alias: "last_ts"},
	}
}

func TestFrameResampler(t *testing.T) {
	tbl := database.NewTableRef("", "readings", []database.Column{{Name: "ts"}, {Name: "temp"}, {Name: "site"}})
	rows := database.NewRowSet([]string{"ts", "temp", "site"})
	for _, r := range [][]interface{}{
		{"2023-01-01 00:10:00", 2.0, "north"},
		{utc("2023-01-01 00:40:00"), 4.0, "north"},
		{"2023-01-01 00:20:00", nil, "north"},
		{"2023-01-01 01:05:00", 7.0, "south"},
		{"2023-01-01 00:05:00", int64(1), "south"},
		{nil, 100.0, "south"},
	} {
		require.NoError(t, rows.Append(r))
	}

	out, err := FrameResampler{}.Resample(rows, "1H", "ts", []string{"site"}, aggregates(tbl))
	require.NoError(t, err)
	assert.Equal(t, []string{"temp_count", "temp_sum", "temp_std", "first_ts", "last_ts", "ts", "site"}, out.Columns())
	require.Equal(t, 3, out.Len())

	north, _ := out.Rows()[0].Get("site")
	assert.Equal(t, "north", north)
	r := out.Rows()[0].ToMap()
	assert.Equal(t, int64(2), r["temp_count"])
	assert.Equal(t, 6.0, r["temp_sum"])
	assert.InDelta(t, math.Sqrt2, r["temp_std"], 1e-9)
	assert.Equal(t, "2023-01-01 00:10:00", r["first_ts"])
	assert.Equal(t, utc("2023-01-01 00:40:00"), r["last_ts"])
	assert.Equal(t, utc("2023-01-01 00:00:00"), r["ts"])

	r = out.Rows()[1].ToMap()
	assert.Equal(t, "south", r["site"])
	assert.Equal(t, 1.0, r["temp_sum"])
	assert.Nil(t, r["temp_std"])

	r = out.Rows()[2].ToMap()
	assert.Equal(t, utc("2023-01-01 01:00:00"), r["ts"])
	assert.Equal(t, 7.0, r["temp_sum"])
}

func TestFrameResamplerStartDayOrigin(t *testing.T) {
	tbl := database.NewTableRef("", "readings", []database.Column{{Name: "ts"}, {Name: "temp"}})
	count := []plan.Labeled{{Expr: plan.AggregateExpr{Kind: query.Count, Arg: plan.ColumnRef{Table: tbl, Name: "temp"}}, Alias: "n"}}

	tests := []struct {
		freq string
		in   []string
		want []string
	}{
		{"7min", []string{"2023-01-02 00:03:00", "2023-01-01 00:01:00"}, []string{"2023-01-01 00:00:00", "2023-01-02 00:02:00"}},
		{"2D", []string{"2023-01-04 08:00:00", "2023-01-02 10:00:00", "2023-01-03 23:00:00"}, []string{"2023-01-02 00:00:00", "2023-01-04 00:00:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			rows := database.NewRowSet([]string{"ts", "temp"})
			for _, ts := range tt.in {
				require.NoError(t, rows.Append([]interface{}{ts, 1.0}))
			}
			out, err := FrameResampler{}.Resample(rows, tt.freq, "ts", nil, count)
			require.NoError(t, err)

			var got []time.Time
			for _, r := range out.Rows() {
				got = append(got, r.ToMap()["ts"].(time.Time))
			}
			var want []time.Time
			for _, w := range tt.want {
				want = append(want, utc(w))
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestFrameResamplerErrors(t *testing.T) {
	tbl := database.NewTableRef("", "readings", []database.Column{{Name: "ts"}, {Name: "temp"}})
	rows := database.NewRowSet([]string{"ts", "temp"})
	require.NoError(t, rows.Append([]interface{}{"not a time", 1.0}))

	_, err := FrameResampler{}.Resample(rows, "1H", "ts", nil, aggregates(tbl))
	assert.Error(t, err)

	_, err = FrameResampler{}.Resample(rows, "1H", "missing", nil, aggregates(tbl))
	assert.Error(t, err)

	_, err = FrameResampler{}.Resample(rows, "1H", "ts", nil, []plan.Labeled{{Expr: plan.ColumnRef{Name: "temp"}}})
	assert.Error(t, err)
}
