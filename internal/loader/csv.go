// Package loader reads tabular data into the in-memory dataset used by the
// engine: CSV files with dtype sniffing, and SQL query results over any
// registered database/sql driver.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/dataset"
)

// timeLayouts are tried in order when sniffing datetime columns.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// LoadCSV reads a headered CSV file and sniffs a column type for each field:
// integer, float, boolean or datetime when every non-empty value parses as
// one, string otherwise. Empty fields are nulls.
func LoadCSV(path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV is LoadCSV over an already-open reader.
func ReadCSV(r io.Reader) (*dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	raw := make([][]string, len(header))
	nulls := make([][]bool, len(header))

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		for i, field := range record {
			raw[i] = append(raw[i], field)
			nulls[i] = append(nulls[i], field == "")
		}
	}

	cols := make([]dataset.Col, len(header))
	for i, name := range header {
		cols[i] = sniffColumn(name, raw[i], nulls[i])
	}
	return dataset.New(cols...)
}

// sniffColumn picks the narrowest type every non-null value fits.
func sniffColumn(name string, values []string, nulls []bool) dataset.Col {
	isInt, isFloat, isBool, isTime := true, true, true, true
	seen := false
	for i, v := range values {
		if nulls[i] {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isFloat = false
		}
		if !isBoolLiteral(v) {
			isBool = false
		}
		if !parsesAsTime(v) {
			isTime = false
		}
	}
	if !seen {
		return dataset.Strings(name, values, nulls)
	}

	switch {
	case isInt:
		out := make([]int64, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i], _ = strconv.ParseInt(v, 10, 64)
			}
		}
		return dataset.Ints(name, out, nulls)
	case isFloat:
		out := make([]float64, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i], _ = strconv.ParseFloat(v, 64)
			}
		}
		return dataset.Floats(name, out, nulls)
	case isBool:
		out := make([]bool, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = strings.EqualFold(v, "true") || v == "1"
			}
		}
		return dataset.Bools(name, out, nulls)
	case isTime:
		out := make([]time.Time, len(values))
		for i, v := range values {
			if !nulls[i] {
				out[i] = parseTime(v)
			}
		}
		return dataset.Times(name, out, nulls)
	default:
		return dataset.Strings(name, values, nulls)
	}
}

func isBoolLiteral(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false":
		return true
	default:
		return false
	}
}

func parsesAsTime(v string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

func parseTime(v string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
