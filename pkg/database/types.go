package database

// Row is a single result record.
type Row interface {
	// Get returns the value of a column.
	Get(field string) (interface{}, error)
	// Primitive returns the underlying data structure.
	Primitive() interface{}
}

// RowIterator allows iterating over rows in a table.
type RowIterator interface {
	// Next advances the iterator. Returns false if no more rows or error.
	Next() bool
	// Row returns the current row.
	Row() Row
	// Error returns any error that occurred during iteration.
	Error() error
	// Close releases resources.
	Close() error
}

// Table is a row source that can be scanned, either a query result held in
// memory or a file of records.
type Table interface {
	Iterate() (RowIterator, error)
}
