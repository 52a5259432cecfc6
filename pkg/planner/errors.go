package planner

import (
	"fmt"
	"strings"

	"github.com/jdyer28/LSPI/pkg/query"
)

// UnsupportedAggregateError is returned for aggregate kinds outside
// count, max, mean, min, std and sum.
type UnsupportedAggregateError = query.UnsupportedAggregateError

// ColumnNotFoundError reports a column missing from every searched source.
type ColumnNotFoundError struct {
	Column  string
	Sources []string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column '%s' not found in %s", e.Column, strings.Join(e.Sources, " or "))
}

// GroupColumnNotFoundError reports an unresolvable group-by column.
// NoDimension is set when no dimension table was supplied to search.
type GroupColumnNotFoundError struct {
	Column      string
	NoDimension bool
}

func (e *GroupColumnNotFoundError) Error() string {
	if e.NoDimension {
		return fmt.Sprintf("group-by column '%s' not found in table and no dimension was given", e.Column)
	}
	return fmt.Sprintf("group-by column '%s' not found in table or dimension", e.Column)
}

// MissingTimestampColumnError is returned when a time grain or a date
// range is requested without naming the timestamp column.
type MissingTimestampColumnError struct {
	Reason string
}

func (e *MissingTimestampColumnError) Error() string {
	return fmt.Sprintf("timestamp column required: %s", e.Reason)
}

// DuplicateAliasError is returned when two outputs of one plan share a name.
type DuplicateAliasError struct {
	Alias string
}

func (e *DuplicateAliasError) Error() string {
	return fmt.Sprintf("duplicate output column '%s'", e.Alias)
}

// InvalidTimeAggregateError is returned for an extreme other than first or last.
type InvalidTimeAggregateError struct {
	Extreme string
}

func (e *InvalidTimeAggregateError) Error() string {
	return fmt.Sprintf("invalid time aggregate %q (expected first or last)", e.Extreme)
}

// FallbackNotJoinableError is returned when a join side needs resampling.
type FallbackNotJoinableError struct {
	Side      string
	Frequency string
}

func (e *FallbackNotJoinableError) Error() string {
	return fmt.Sprintf("%s side of join uses time grain %q that cannot be computed in SQL", e.Side, e.Frequency)
}
