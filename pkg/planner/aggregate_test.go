package planner

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdyer28/LSPI/pkg/query"
)

func TestAggregateAlias(t *testing.T) {
	tests := []struct {
		name string
		ca   query.ColumnAggregate
		kind query.AggregateKind
		want string
		warn bool
	}{
		{"configured", query.SingleAs("temp", query.Mean, "avg"), query.Mean, "avg", false},
		{"single", query.Single("temp", query.Mean), query.Mean, "", false},
		{"list default", query.List("pressure", query.Min, query.Max), query.Max, "pressure_max", false},
		{"list configured", query.List("pressure", query.Min, query.Max).WithAlias(query.Min, "pmin"), query.Min, "pmin", false},
		{"list partly configured", query.List("pressure", query.Min, query.Max).WithAlias(query.Min, "pmin"), query.Max, "pressure_max", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			assert.Equal(t, tt.want, AggregateAlias(tt.ca, tt.kind, logger))
			if tt.warn {
				assert.Contains(t, buf.String(), "no alias configured for aggregate")
				assert.Contains(t, buf.String(), "alias=pressure_max")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
	assert.Equal(t, "pressure_min", AggregateAlias(query.List("pressure", query.Min), query.Min, nil))
}
