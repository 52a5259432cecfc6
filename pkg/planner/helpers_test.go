package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdyer28/LSPI/pkg/query"
)

func mustKind(t *testing.T, name string) query.AggregateKind {
	t.Helper()
	k, err := query.ParseAggregateKind(name)
	require.NoError(t, err)
	return k
}
