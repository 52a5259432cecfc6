package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readingsTable(schema string) *TableRef {
	return NewTableRef(schema, "readings", []Column{
		{Name: "deviceid", Type: TypeText},
		{Name: "evt_timestamp", Type: TypeTimestamp},
		{Name: "temp", Type: TypeNumeric},
	})
}

func TestCatalogRegisteredTable(t *testing.T) {
	c := NewCatalog(nil)
	c.RegisterTable(readingsTable("public"))

	got, err := c.GetTable(context.Background(), "readings", "public")
	require.NoError(t, err)
	assert.Equal(t, "public.readings", got.QualifiedName())

	_, err = c.GetTable(context.Background(), "readings", "other")
	var nf *TableNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "other", nf.Schema)
	assert.Equal(t, "table 'other.readings' not found", err.Error())
}

func TestCatalogLoadsOnceAndCaches(t *testing.T) {
	var calls atomic.Int32
	c := NewCatalog(LoaderFunc(func(ctx context.Context, name, schema string) (*TableRef, error) {
		calls.Add(1)
		return readingsTable(schema), nil
	}))

	first, err := c.GetTable(context.Background(), "readings", "")
	require.NoError(t, err)
	second, err := c.GetTable(context.Background(), "readings", "")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCatalogLoaderError(t *testing.T) {
	boom := errors.New("boom")
	c := NewCatalog(LoaderFunc(func(ctx context.Context, name, schema string) (*TableRef, error) {
		return nil, boom
	}))
	_, err := c.GetTable(context.Background(), "readings", "")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCatalogConcurrentResolveKeepsFirst(t *testing.T) {
	c := NewCatalog(LoaderFunc(func(ctx context.Context, name, schema string) (*TableRef, error) {
		return readingsTable(schema), nil
	}))

	const workers = 16
	results := make([]*TableRef, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := c.GetTable(context.Background(), "readings", "public")
			if err == nil {
				results[i] = tbl
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Same(t, results[0], r)
	}
}

func TestCatalogPreload(t *testing.T) {
	var calls atomic.Int32
	c := NewCatalog(LoaderFunc(func(ctx context.Context, name, schema string) (*TableRef, error) {
		calls.Add(1)
		if name == "missing" {
			return nil, &TableNotFoundError{Schema: schema, Name: name}
		}
		return NewTableRef(schema, name, nil), nil
	}))

	require.NoError(t, c.Preload(context.Background(), "main", "a", "b", "c"))
	assert.Equal(t, 3, c.Len())

	err := c.Preload(context.Background(), "main", "a", "missing")
	var nf *TableNotFoundError
	assert.ErrorAs(t, err, &nf)
}
