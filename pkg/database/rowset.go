package database

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyVal is one column/value pair of a Record.
type KeyVal struct {
	Key string
	Val interface{}
}

// Record is a row whose columns keep the order of the query projection.
type Record []KeyVal

// Get implements Row.
func (r Record) Get(field string) (interface{}, error) {
	for _, kv := range r {
		if kv.Key == field {
			return kv.Val, nil
		}
	}
	return nil, fmt.Errorf("column '%s' not present in row", field)
}

// Primitive implements Row.
func (r Record) Primitive() interface{} {
	return r
}

// Lookup returns the value for a key and whether it was present.
func (r Record) Lookup(key string) (interface{}, bool) {
	for _, kv := range r {
		if kv.Key == key {
			return kv.Val, true
		}
	}
	return nil, false
}

// MarshalJSON encodes the record as an object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(kv.Val)
		if err != nil {
			return nil, fmt.Errorf("column '%s': %w", kv.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToMap converts to a standard map (losing order).
func (r Record) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(r))
	for _, kv := range r {
		m[kv.Key] = kv.Val
	}
	return m
}

func (r Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", []KeyVal(r))
	}
	return string(b)
}

// RowSet is an in-memory tabular result with a fixed column list.
type RowSet struct {
	columns []string
	rows    []Record
}

// NewRowSet creates an empty result with the given columns.
func NewRowSet(columns []string) *RowSet {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &RowSet{columns: cols}
}

// Append adds one row. values must line up with the result columns.
func (s *RowSet) Append(values []interface{}) error {
	if len(values) != len(s.columns) {
		return fmt.Errorf("row has %d values, result has %d columns", len(values), len(s.columns))
	}
	rec := make(Record, len(values))
	for i, v := range values {
		rec[i] = KeyVal{Key: s.columns[i], Val: v}
	}
	s.rows = append(s.rows, rec)
	return nil
}

// Columns returns the result's column names.
func (s *RowSet) Columns() []string {
	cols := make([]string, len(s.columns))
	copy(cols, s.columns)
	return cols
}

// Rows returns the records.
func (s *RowSet) Rows() []Record {
	return s.rows
}

func (s *RowSet) Len() int {
	return len(s.rows)
}

// Iterate implements Table.
func (s *RowSet) Iterate() (RowIterator, error) {
	return &rowSetIterator{rows: s.rows, pos: -1}, nil
}

type rowSetIterator struct {
	rows []Record
	pos  int
}

func (it *rowSetIterator) Next() bool {
	if it.pos+1 >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}

func (it *rowSetIterator) Row() Row {
	return it.rows[it.pos]
}

func (it *rowSetIterator) Error() error { return nil }

func (it *rowSetIterator) Close() error { return nil }
