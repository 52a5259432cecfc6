package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatement(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, st *Statement)
	}{
		{
			name:  "single aggregate",
			input: "SELECT mean(temp) FROM readings",
			check: func(t *testing.T, st *Statement) {
				assert.Equal(t, "readings", st.Table)
				assert.Empty(t, st.Schema)
				assert.Equal(t, AggregateSpec{Single("temp", Mean)}, st.Aggregates)
			},
		},
		{
			name:  "schema dimension group grain timestamp",
			input: "select sum(energy) as total from iot.readings join devices group by site, floor every 15min on evt_timestamp",
			check: func(t *testing.T, st *Statement) {
				assert.Equal(t, "iot", st.Schema)
				assert.Equal(t, "readings", st.Table)
				assert.Equal(t, "devices", st.Dimension)
				assert.Equal(t, []string{"site", "floor"}, st.GroupBy)
				assert.Equal(t, "15min", st.Grain)
				assert.Equal(t, "evt_timestamp", st.Timestamp)
				assert.Equal(t, AggregateSpec{SingleAs("energy", Sum, "total")}, st.Aggregates)
			},
		},
		{
			name:  "repeated column becomes list form",
			input: "SELECT min(pressure) AS pmin, max(pressure), count(temp) FROM readings",
			check: func(t *testing.T, st *Statement) {
				require.Len(t, st.Aggregates, 2)
				p := st.Aggregates[0]
				assert.True(t, p.List)
				assert.Equal(t, []AggregateKind{Min, Max}, p.Kinds)
				a, ok := p.Alias(Min)
				assert.True(t, ok)
				assert.Equal(t, "pmin", a)
				assert.Equal(t, Single("temp", Count), st.Aggregates[1])
			},
		},
		{
			name:  "anchored frequency token",
			input: "SELECT max(temp) FROM readings EVERY W-MON ON ts",
			check: func(t *testing.T, st *Statement) {
				assert.Equal(t, "W-MON", st.Grain)
			},
		},
		{
			name:  "quoted grain",
			input: "SELECT max(temp) FROM readings EVERY '2H' ON ts",
			check: func(t *testing.T, st *Statement) {
				assert.Equal(t, "2H", st.Grain)
			},
		},
		{
			name:  "calendar grain",
			input: "SELECT count(temp) FROM readings EVERY day ON ts",
			check: func(t *testing.T, st *Statement) {
				assert.Equal(t, "day", st.Grain)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := ParseStatement(tt.input)
			require.NoError(t, err)
			tt.check(t, st)
		})
	}
}

func TestParseStatementErrors(t *testing.T) {
	_, err := ParseStatement("   ")
	assert.Error(t, err)

	_, err = ParseStatement("SELECT temp FROM readings")
	assert.Error(t, err)

	_, err = ParseStatement("SELECT median(temp) FROM readings")
	var ua *UnsupportedAggregateError
	assert.ErrorAs(t, err, &ua)
}

func TestStatementString(t *testing.T) {
	st, err := ParseStatement("SELECT mean(temp) FROM iot.readings JOIN devices GROUP BY site EVERY 1H ON ts")
	require.NoError(t, err)
	assert.Equal(t, "SELECT mean(temp) FROM iot.readings JOIN devices GROUP BY site EVERY 1H ON ts", st.String())
}
