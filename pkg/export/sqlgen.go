// Package export generates external artifacts from a contract's public
// structure: SQL DDL, Go types, dbt schema tests and a Great Expectations
// suite. Exporters never reach into evaluation internals; everything they
// need is on the contract itself.
package export

import (
	"fmt"
	"strings"

	"github.com/framecheck-labs/framecheck/pkg/contract"
)

// Dialect selects the SQL flavor of DDL generation.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	DuckDB   Dialect = "duckdb"
	BigQuery Dialect = "bigquery"
)

// ParseDialect resolves a dialect name.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(s)) {
	case Postgres:
		return Postgres, nil
	case SQLite:
		return SQLite, nil
	case DuckDB:
		return DuckDB, nil
	case BigQuery:
		return BigQuery, nil
	default:
		return "", fmt.Errorf("unknown sql dialect %q", s)
	}
}

var sqlTypes = map[Dialect]map[contract.DType]string{
	Postgres: {
		contract.Integer: "BIGINT", contract.Float: "DOUBLE PRECISION",
		contract.String: "TEXT", contract.Boolean: "BOOLEAN",
		contract.Datetime: "TIMESTAMPTZ", contract.Categorical: "TEXT",
	},
	SQLite: {
		contract.Integer: "INTEGER", contract.Float: "REAL",
		contract.String: "TEXT", contract.Boolean: "INTEGER",
		contract.Datetime: "TEXT", contract.Categorical: "TEXT",
	},
	DuckDB: {
		contract.Integer: "BIGINT", contract.Float: "DOUBLE",
		contract.String: "VARCHAR", contract.Boolean: "BOOLEAN",
		contract.Datetime: "TIMESTAMP", contract.Categorical: "VARCHAR",
	},
	BigQuery: {
		contract.Integer: "INT64", contract.Float: "FLOAT64",
		contract.String: "STRING", contract.Boolean: "BOOL",
		contract.Datetime: "TIMESTAMP", contract.Categorical: "STRING",
	},
}

// SQL renders a CREATE TABLE statement for the contract, expressing rules as
// column and table constraints where the dialect supports them.
func SQL(c *contract.Contract, dialect Dialect) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	types, ok := sqlTypes[dialect]
	if !ok {
		return "", fmt.Errorf("unknown sql dialect %q", dialect)
	}
	checksSupported := dialect != BigQuery

	var b strings.Builder
	fmt.Fprintf(&b, "-- generated from contract %s@%s\n", c.Name, c.Version)
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quoteIdent(dialect, c.Name))

	var lines []string
	for _, col := range c.Columns {
		line := fmt.Sprintf("    %s %s", quoteIdent(dialect, col.Name), types[col.DType])
		if !col.Nullable {
			line += " NOT NULL"
		}
		if checksSupported {
			for i := range col.Rules {
				if expr := checkExpr(dialect, col.Name, &col.Rules[i]); expr != "" {
					line += fmt.Sprintf(" CHECK (%s)", expr)
				}
				if col.Rules[i].Kind == contract.UniquenessRule && len(col.Rules[i].Uniqueness.Columns) == 0 {
					line += " UNIQUE"
				}
			}
		}
		lines = append(lines, line)
	}
	if checksSupported {
		for i := range c.TableRules {
			r := &c.TableRules[i]
			switch {
			case r.Kind == contract.UniquenessRule:
				keys := make([]string, len(r.Uniqueness.Columns))
				for j, k := range r.Uniqueness.Columns {
					keys[j] = quoteIdent(dialect, k)
				}
				lines = append(lines, fmt.Sprintf("    UNIQUE (%s)", strings.Join(keys, ", ")))
			case r.Kind == contract.CrossColumnRule && r.CrossColumn.Check == contract.CheckStartLeEnd:
				lines = append(lines, fmt.Sprintf("    CHECK (%s <= %s)",
					quoteIdent(dialect, r.CrossColumn.Start), quoteIdent(dialect, r.CrossColumn.End)))
			}
		}
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);\n")
	return b.String(), nil
}

// checkExpr renders a column rule as a CHECK expression, or "" when the rule
// has no SQL equivalent.
func checkExpr(dialect Dialect, column string, r *contract.Rule) string {
	if r.Disabled {
		return ""
	}
	q := quoteIdent(dialect, column)
	switch r.Kind {
	case contract.RangeRule:
		p := r.Range
		target := q
		if p.OfLength {
			target = fmt.Sprintf("LENGTH(%s)", q)
		}
		var parts []string
		if p.Min != nil {
			parts = append(parts, fmt.Sprintf("%s >= %v", target, *p.Min))
		}
		if p.Max != nil {
			parts = append(parts, fmt.Sprintf("%s <= %v", target, *p.Max))
		}
		return strings.Join(parts, " AND ")
	case contract.EnumRule:
		if r.Enum.AllowUnknown {
			return ""
		}
		members := make([]string, len(r.Enum.Values))
		for i, v := range r.Enum.Values {
			members[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
		}
		return fmt.Sprintf("%s IN (%s)", q, strings.Join(members, ", "))
	default:
		return ""
	}
}

func quoteIdent(dialect Dialect, name string) string {
	if dialect == BigQuery {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}
