// Package dataset defines the minimal tabular capability interface the
// engine evaluates against, plus an in-memory column-typed implementation.
//
// The engine never assumes an on-disk format or a concrete table library:
// anything exposing named columns with typed, null-aware access can back a
// validation run.
package dataset

import (
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

// Dataset is the capability interface consumed by the validation, snapshot
// and inference engines.
type Dataset interface {
	// ColumnNames returns the column names in dataset order.
	ColumnNames() []string
	// Column returns the named column, or false if absent.
	Column(name string) (Column, bool)
	// RowCount returns the number of rows.
	RowCount() int
}

// Column provides typed, null-aware access to one column's values.
// Accessors return false when the value is null or not coercible to the
// requested representation.
type Column interface {
	Name() string
	// DType is the observed semantic type of the column's storage.
	DType() contract.DType
	Len() int
	IsNull(i int) bool
	// Value returns the raw value (int64, float64, string, bool or
	// time.Time) and false when null.
	Value(i int) (any, bool)
	// Float coerces the value at i to float64. Integers coerce; datetimes
	// coerce to Unix seconds so bound and quantile math has one code path.
	Float(i int) (float64, bool)
	// String renders the value at i as a string.
	String(i int) (string, bool)
	// Time returns the value at i as a time, for datetime columns only.
	Time(i int) (time.Time, bool)
}

// NullRatio returns the fraction of null values in col.
func NullRatio(col Column) float64 {
	n := col.Len()
	if n == 0 {
		return 0
	}
	nulls := 0
	for i := 0; i < n; i++ {
		if col.IsNull(i) {
			nulls++
		}
	}
	return float64(nulls) / float64(n)
}

// DistinctCount returns the number of distinct non-null values in col,
// compared by string rendering.
func DistinctCount(col Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < col.Len(); i++ {
		if s, ok := col.String(i); ok {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}
