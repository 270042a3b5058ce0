package dataset

import (
	"fmt"
	"strconv"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

// Table is the in-memory Dataset implementation: typed column vectors with
// optional null masks, immutable once constructed.
type Table struct {
	names []string
	cols  map[string]Column
	rows  int
}

// Col is a column under construction, produced by Ints, Floats, Strings,
// Categories, Bools or Times and consumed by New.
type Col struct {
	col Column
	err error
}

// New builds a Table from columns. All columns must have the same length and
// distinct names.
func New(cols ...Col) (*Table, error) {
	t := &Table{cols: make(map[string]Column, len(cols))}
	for i, c := range cols {
		if c.err != nil {
			return nil, c.err
		}
		name := c.col.Name()
		if _, dup := t.cols[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		if i == 0 {
			t.rows = c.col.Len()
		} else if c.col.Len() != t.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", name, c.col.Len(), t.rows)
		}
		t.names = append(t.names, name)
		t.cols[name] = c.col
	}
	return t, nil
}

// MustNew is New for tests and fixtures; it panics on error.
func MustNew(cols ...Col) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// ColumnNames implements Dataset.
func (t *Table) ColumnNames() []string { return append([]string(nil), t.names...) }

// Column implements Dataset.
func (t *Table) Column(name string) (Column, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// RowCount implements Dataset.
func (t *Table) RowCount() int { return t.rows }

func checkNulls(name string, n int, nulls []bool) error {
	if nulls != nil && len(nulls) != n {
		return fmt.Errorf("column %q: null mask has %d entries, want %d", name, len(nulls), n)
	}
	return nil
}

// Ints builds an integer column. nulls may be nil for a fully non-null column.
func Ints(name string, values []int64, nulls []bool) Col {
	if err := checkNulls(name, len(values), nulls); err != nil {
		return Col{err: err}
	}
	return Col{col: &intColumn{name: name, values: values, nulls: nulls}}
}

// Floats builds a float column.
func Floats(name string, values []float64, nulls []bool) Col {
	if err := checkNulls(name, len(values), nulls); err != nil {
		return Col{err: err}
	}
	return Col{col: &floatColumn{name: name, values: values, nulls: nulls}}
}

// Strings builds a string column.
func Strings(name string, values []string, nulls []bool) Col {
	if err := checkNulls(name, len(values), nulls); err != nil {
		return Col{err: err}
	}
	return Col{col: &stringColumn{name: name, dtype: contract.String, values: values, nulls: nulls}}
}

// Categories builds a categorical column (string storage, categorical tag).
func Categories(name string, values []string, nulls []bool) Col {
	if err := checkNulls(name, len(values), nulls); err != nil {
		return Col{err: err}
	}
	return Col{col: &stringColumn{name: name, dtype: contract.Categorical, values: values, nulls: nulls}}
}

// Bools builds a boolean column.
func Bools(name string, values []bool, nulls []bool) Col {
	if err := checkNulls(name, len(values), nulls); err != nil {
		return Col{err: err}
	}
	return Col{col: &boolColumn{name: name, values: values, nulls: nulls}}
}

// Times builds a datetime column.
func Times(name string, values []time.Time, nulls []bool) Col {
	if err := checkNulls(name, len(values), nulls); err != nil {
		return Col{err: err}
	}
	return Col{col: &timeColumn{name: name, values: values, nulls: nulls}}
}

// =============================================================================
// Column implementations
// =============================================================================

type intColumn struct {
	name   string
	values []int64
	nulls  []bool
}

func (c *intColumn) Name() string          { return c.name }
func (c *intColumn) DType() contract.DType { return contract.Integer }
func (c *intColumn) Len() int              { return len(c.values) }
func (c *intColumn) IsNull(i int) bool     { return c.nulls != nil && c.nulls[i] }

func (c *intColumn) Value(i int) (any, bool) {
	if c.IsNull(i) {
		return nil, false
	}
	return c.values[i], true
}

func (c *intColumn) Float(i int) (float64, bool) {
	if c.IsNull(i) {
		return 0, false
	}
	return float64(c.values[i]), true
}

func (c *intColumn) String(i int) (string, bool) {
	if c.IsNull(i) {
		return "", false
	}
	return strconv.FormatInt(c.values[i], 10), true
}

func (c *intColumn) Time(int) (time.Time, bool) { return time.Time{}, false }

type floatColumn struct {
	name   string
	values []float64
	nulls  []bool
}

func (c *floatColumn) Name() string          { return c.name }
func (c *floatColumn) DType() contract.DType { return contract.Float }
func (c *floatColumn) Len() int              { return len(c.values) }
func (c *floatColumn) IsNull(i int) bool     { return c.nulls != nil && c.nulls[i] }

func (c *floatColumn) Value(i int) (any, bool) {
	if c.IsNull(i) {
		return nil, false
	}
	return c.values[i], true
}

func (c *floatColumn) Float(i int) (float64, bool) {
	if c.IsNull(i) {
		return 0, false
	}
	return c.values[i], true
}

func (c *floatColumn) String(i int) (string, bool) {
	if c.IsNull(i) {
		return "", false
	}
	return strconv.FormatFloat(c.values[i], 'g', -1, 64), true
}

func (c *floatColumn) Time(int) (time.Time, bool) { return time.Time{}, false }

type stringColumn struct {
	name   string
	dtype  contract.DType
	values []string
	nulls  []bool
}

func (c *stringColumn) Name() string          { return c.name }
func (c *stringColumn) DType() contract.DType { return c.dtype }
func (c *stringColumn) Len() int              { return len(c.values) }
func (c *stringColumn) IsNull(i int) bool     { return c.nulls != nil && c.nulls[i] }

func (c *stringColumn) Value(i int) (any, bool) {
	if c.IsNull(i) {
		return nil, false
	}
	return c.values[i], true
}

// Float attempts numeric coercion, supporting best-effort evaluation of
// numeric rules against mistyped string data.
func (c *stringColumn) Float(i int) (float64, bool) {
	if c.IsNull(i) {
		return 0, false
	}
	v, err := strconv.ParseFloat(c.values[i], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c *stringColumn) String(i int) (string, bool) {
	if c.IsNull(i) {
		return "", false
	}
	return c.values[i], true
}

func (c *stringColumn) Time(i int) (time.Time, bool) {
	if c.IsNull(i) {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, c.values[i]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type boolColumn struct {
	name   string
	values []bool
	nulls  []bool
}

func (c *boolColumn) Name() string          { return c.name }
func (c *boolColumn) DType() contract.DType { return contract.Boolean }
func (c *boolColumn) Len() int              { return len(c.values) }
func (c *boolColumn) IsNull(i int) bool     { return c.nulls != nil && c.nulls[i] }

func (c *boolColumn) Value(i int) (any, bool) {
	if c.IsNull(i) {
		return nil, false
	}
	return c.values[i], true
}

func (c *boolColumn) Float(int) (float64, bool) { return 0, false }

func (c *boolColumn) String(i int) (string, bool) {
	if c.IsNull(i) {
		return "", false
	}
	return strconv.FormatBool(c.values[i]), true
}

func (c *boolColumn) Time(int) (time.Time, bool) { return time.Time{}, false }

type timeColumn struct {
	name   string
	values []time.Time
	nulls  []bool
}

func (c *timeColumn) Name() string          { return c.name }
func (c *timeColumn) DType() contract.DType { return contract.Datetime }
func (c *timeColumn) Len() int              { return len(c.values) }
func (c *timeColumn) IsNull(i int) bool     { return c.nulls != nil && c.nulls[i] }

func (c *timeColumn) Value(i int) (any, bool) {
	if c.IsNull(i) {
		return nil, false
	}
	return c.values[i], true
}

// Float coerces to Unix seconds so datetime bounds and quantiles share the
// numeric code path.
func (c *timeColumn) Float(i int) (float64, bool) {
	if c.IsNull(i) {
		return 0, false
	}
	return float64(c.values[i].Unix()), true
}

func (c *timeColumn) String(i int) (string, bool) {
	if c.IsNull(i) {
		return "", false
	}
	return c.values[i].UTC().Format(time.RFC3339), true
}

func (c *timeColumn) Time(i int) (time.Time, bool) {
	if c.IsNull(i) {
		return time.Time{}, false
	}
	return c.values[i], true
}
