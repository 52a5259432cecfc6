package database

import (
	"fmt"
	"strings"
)

// ColumnType is the semantic type of a column, independent of the driver's type name.
type ColumnType int

const (
	TypeOther ColumnType = iota
	TypeNumeric
	TypeText
	TypeTimestamp
	TypeBoolean
)

func (t ColumnType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	case TypeBoolean:
		return "boolean"
	default:
		return "other"
	}
}

// ClassifyType maps a driver-reported data type name (e.g. "DOUBLE PRECISION",
// "VARCHAR(64)", "TIMESTAMP WITH TIME ZONE") to a ColumnType.
func ClassifyType(dataType string) ColumnType {
	t := strings.ToUpper(strings.TrimSpace(dataType))
	switch {
	case t == "":
		return TypeOther
	case strings.Contains(t, "INTERVAL"), strings.Contains(t, "POINT"):
		return TypeOther
	case strings.Contains(t, "TIMESTAMP"), strings.Contains(t, "DATE"), strings.HasPrefix(t, "TIME"):
		return TypeTimestamp
	case strings.HasPrefix(t, "BOOL"):
		return TypeBoolean
	case strings.Contains(t, "INT"), strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"),
		strings.Contains(t, "REAL"), strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"),
		strings.Contains(t, "NUMBER"):
		return TypeNumeric
	case strings.Contains(t, "CHAR"), strings.Contains(t, "TEXT"), strings.Contains(t, "STRING"),
		strings.Contains(t, "CLOB"):
		return TypeText
	default:
		return TypeOther
	}
}

// Column describes one column of a resolved table.
type Column struct {
	Name     string
	Type     ColumnType
	DataType string // type name as reported by the store
}

// TableRef identifies a fact or dimension table and exposes its columns.
// A TableRef is read-only once constructed.
type TableRef struct {
	Name   string
	Schema string

	columns []Column
	index   map[string]int
}

// NewTableRef builds a TableRef. Column order is preserved.
func NewTableRef(schema, name string, columns []Column) *TableRef {
	t := &TableRef{
		Name:    name,
		Schema:  schema,
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	copy(t.columns, columns)
	for i, c := range t.columns {
		t.index[c.Name] = i
	}
	return t
}

// Column looks up a column by name.
func (t *TableRef) Column(name string) (Column, bool) {
	if t == nil {
		return Column{}, false
	}
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Columns returns a copy of the table's columns in declaration order.
func (t *TableRef) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in declaration order.
func (t *TableRef) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// QualifiedName returns "schema.name", or just the name when no schema is set.
func (t *TableRef) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

func (t *TableRef) String() string {
	return fmt.Sprintf("%s(%d columns)", t.QualifiedName(), len(t.columns))
}

// ColumnsByType groups column names by semantic type, skipping any excluded names.
func (t *TableRef) ColumnsByType(exclude ...string) map[ColumnType][]string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	out := make(map[ColumnType][]string)
	for _, c := range t.columns {
		if skip[c.Name] {
			continue
		}
		out[c.Type] = append(out[c.Type], c.Name)
	}
	return out
}
