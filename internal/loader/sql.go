package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/dataset"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// sqlDrivers maps source scheme names to database/sql driver names.
var sqlDrivers = map[string]string{
	"postgres": "pgx",
	"duckdb":   "duckdb",
	"sqlite":   "sqlite",
}

// OpenSQL opens a database handle for a source of the form scheme://dsn.
// Supported schemes: postgres, duckdb, sqlite.
func OpenSQL(source string) (*sql.DB, error) {
	scheme, dsn, ok := strings.Cut(source, "://")
	if !ok {
		return nil, fmt.Errorf("sql source %q: want scheme://dsn", source)
	}
	driver, ok := sqlDrivers[scheme]
	if !ok {
		return nil, fmt.Errorf("unsupported sql scheme %q", scheme)
	}
	if scheme == "postgres" {
		// pgx wants the full URL back.
		dsn = source
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", scheme, err)
	}
	return db, nil
}

// QueryDataset runs query and materializes the result set as an in-memory
// dataset. Column types follow the scanned Go values; a column with mixed or
// driver-specific values falls back to strings.
func QueryDataset(ctx context.Context, db *sql.DB, query string) (*dataset.Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	values := make([][]any, len(names))
	nulls := make([][]bool, len(names))
	scan := make([]any, len(names))
	for rows.Next() {
		cells := make([]any, len(names))
		for i := range cells {
			scan[i] = &cells[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		for i, cell := range cells {
			if b, ok := cell.([]byte); ok {
				cell = string(b)
			}
			values[i] = append(values[i], cell)
			nulls[i] = append(nulls[i], cell == nil)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	cols := make([]dataset.Col, len(names))
	for i, name := range names {
		cols[i] = columnFromValues(name, values[i], nulls[i])
	}
	return dataset.New(cols...)
}

// columnFromValues builds a typed column when every non-null value shares a
// scan type, strings otherwise.
func columnFromValues(name string, values []any, nulls []bool) dataset.Col {
	isInt, isFloat, isBool, isTime := true, true, true, true
	for i, v := range values {
		if nulls[i] {
			continue
		}
		if _, ok := v.(int64); !ok {
			isInt = false
		}
		if !isFloatValue(v) {
			isFloat = false
		}
		if _, ok := v.(bool); !ok {
			isBool = false
		}
		if _, ok := v.(time.Time); !ok {
			isTime = false
		}
	}

	switch {
	case isInt:
		out := make([]int64, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = v.(int64)
			}
		}
		return dataset.Ints(name, out, nulls)
	case isFloat:
		out := make([]float64, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = asFloat(v)
			}
		}
		return dataset.Floats(name, out, nulls)
	case isBool:
		out := make([]bool, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = v.(bool)
			}
		}
		return dataset.Bools(name, out, nulls)
	case isTime:
		out := make([]time.Time, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = v.(time.Time)
			}
		}
		return dataset.Times(name, out, nulls)
	default:
		out := make([]string, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = fmt.Sprint(v)
			}
		}
		return dataset.Strings(name, out, nulls)
	}
}

// Integer-typed scans still satisfy a float column; drivers disagree on
// numeric column mappings.
func isFloatValue(v any) bool {
	switch v.(type) {
	case float64, float32, int64:
		return true
	default:
		return false
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
