package database

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TableNotFoundError is returned when a table cannot be resolved in the store.
type TableNotFoundError struct {
	Schema string
	Name   string
}

func (e *TableNotFoundError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("table '%s' not found", e.Name)
	}
	return fmt.Sprintf("table '%s.%s' not found", e.Schema, e.Name)
}

// Loader resolves table metadata from a backing store.
type Loader interface {
	LoadTable(ctx context.Context, name, schema string) (*TableRef, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, name, schema string) (*TableRef, error)

func (f LoaderFunc) LoadTable(ctx context.Context, name, schema string) (*TableRef, error) {
	return f(ctx, name, schema)
}

type tableKey struct {
	schema string
	name   string
}

// Catalog caches resolved tables keyed by (schema, name).
// Entries are written once; a concurrent second load of the same table
// keeps the first stored value.
type Catalog struct {
	loader Loader
	tables map[tableKey]*TableRef
	mu     sync.RWMutex
}

// NewCatalog creates a catalog. A nil loader makes the catalog resolve only
// tables added with RegisterTable.
func NewCatalog(loader Loader) *Catalog {
	return &Catalog{
		loader: loader,
		tables: make(map[tableKey]*TableRef),
	}
}

// RegisterTable adds a resolved table to the catalog.
func (c *Catalog) RegisterTable(t *TableRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := tableKey{schema: t.Schema, name: t.Name}
	if _, ok := c.tables[k]; !ok {
		c.tables[k] = t
	}
}

// GetTable returns the table for (name, schema), loading it on first use.
func (c *Catalog) GetTable(ctx context.Context, name, schema string) (*TableRef, error) {
	k := tableKey{schema: schema, name: name}

	c.mu.RLock()
	t, ok := c.tables[k]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	if c.loader == nil {
		return nil, &TableNotFoundError{Schema: schema, Name: name}
	}
	loaded, err := c.loader.LoadTable(ctx, name, schema)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.tables[k]; ok {
		return existing, nil
	}
	c.tables[k] = loaded
	return loaded, nil
}

// Preload resolves several tables of one schema concurrently.
func (c *Catalog) Preload(ctx context.Context, schema string, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, name := range names {
		g.Go(func() error {
			_, err := c.GetTable(ctx, name, schema)
			return err
		})
	}
	return g.Wait()
}

// Len reports how many tables are cached.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}
