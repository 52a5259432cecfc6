package parser_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdyer28/LSPI/pkg/engine"
	"github.com/jdyer28/LSPI/pkg/parser"
	"github.com/jdyer28/LSPI/pkg/plan"
	"github.com/jdyer28/LSPI/pkg/query"
)

func TestFileTableResampleJSONArray(t *testing.T) {
	tests := map[string]string{
		"compact":  `[{"ts":"2023-01-01 00:05:00","temp":1},{"ts":"2023-01-01 00:20:00","temp":3},{"ts":"2023-01-02 08:00:00","temp":10}]`,
		"indented": "[\n  {\"ts\": \"2023-01-01 00:05:00\", \"temp\": 1},\n  {\"ts\": \"2023-01-01 00:20:00\", \"temp\": 3},\n  {\"ts\": \"2023-01-02 08:00:00\", \"temp\": 10}\n]\n",
	}
	mean := []plan.Labeled{{Expr: plan.AggregateExpr{Kind: query.Mean, Arg: plan.ColumnRef{Name: "temp"}}, Alias: "temp"}}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			rs, err := engine.FrameResampler{}.Resample(parser.NewFileTable(input), "D", "ts", nil, mean)
			require.NoError(t, err)
			require.Equal(t, 2, rs.Len())

			first := rs.Rows()[0].ToMap()
			assert.Equal(t, 2.0, first["temp"])
			assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), first["ts"])
			assert.Equal(t, 10.0, rs.Rows()[1].ToMap()["temp"])
		})
	}
}
