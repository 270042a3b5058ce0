// Package infer derives a candidate contract from a sample dataset.
//
// Inference is conservative: numeric bounds are widened beyond the observed
// extremes so the contract does not overfit the sample, enum rules are only
// emitted for genuinely low-cardinality columns, and a column is nullable iff
// the sample actually contained nulls. Identical inputs always produce
// identical contracts.
package infer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
)

// Defaults for Options zero values.
const (
	// DefaultEnumMaxCardinality is the largest distinct-value count that
	// still earns an enum rule.
	DefaultEnumMaxCardinality = 50
	// DefaultEnumMinCoverage is the minimum row fraction the enum members
	// must cover; below it the column is treated as free-form text.
	DefaultEnumMinCoverage = 0.95
	// DefaultBoundSlack is the relative slack added to observed numeric
	// bounds, with an absolute floor of one unit.
	DefaultBoundSlack = 0.01
)

// Options tune inference. Zero values mean the defaults above.
type Options struct {
	EnumMaxCardinality int
	EnumMinCoverage    float64
	BoundSlack         float64
	// Name and Version seed the inferred contract's identity; empty means
	// "inferred" at version 0.1.0.
	Name    string
	Version string
}

func (o Options) withDefaults() Options {
	if o.EnumMaxCardinality == 0 {
		o.EnumMaxCardinality = DefaultEnumMaxCardinality
	}
	if o.EnumMinCoverage == 0 {
		o.EnumMinCoverage = DefaultEnumMinCoverage
	}
	if o.BoundSlack == 0 {
		o.BoundSlack = DefaultBoundSlack
	}
	if o.Name == "" {
		o.Name = "inferred"
	}
	if o.Version == "" {
		o.Version = "0.1.0"
	}
	return o
}

// Result is an inferred contract plus human-readable notes about the choices
// made along the way.
type Result struct {
	Contract    *contract.Contract
	Suggestions []string
}

// Infer profiles ds and derives a conservative contract for it.
func Infer(ds dataset.Dataset, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	res := &Result{Contract: &contract.Contract{Name: opts.Name, Version: opts.Version}}

	for _, name := range ds.ColumnNames() {
		col, ok := ds.Column(name)
		if !ok {
			continue
		}
		spec := inferColumn(res, col, opts)
		res.Contract.Columns = append(res.Contract.Columns, spec)
	}
	inferCrossColumn(res, ds)

	if err := res.Contract.Validate(); err != nil {
		return nil, fmt.Errorf("inferred contract is invalid: %w", err)
	}
	return res, nil
}

func inferColumn(res *Result, col dataset.Column, opts Options) contract.ColumnSpec {
	name := col.Name()
	nullRatio := dataset.NullRatio(col)
	spec := contract.ColumnSpec{
		Name:     name,
		DType:    col.DType(),
		Nullable: nullRatio > 0,
	}
	if spec.Nullable {
		res.note("column %s has nulls (ratio %.4f); marked nullable", name, nullRatio)
	}

	switch {
	case col.DType().Numeric():
		if r := numericRange(col, opts); r != nil {
			spec.Rules = append(spec.Rules, contract.Rule{
				ID: name + ".range", Kind: contract.RangeRule, Severity: contract.SeverityError, Range: r,
			})
			if *r.Min >= 0 {
				res.note("column %s is non-negative in the sample", name)
			}
		}
	case col.DType() == contract.Datetime:
		if r := timeRange(col); r != nil {
			spec.Rules = append(spec.Rules, contract.Rule{
				ID: name + ".range", Kind: contract.RangeRule, Severity: contract.SeverityWarning, Range: r,
			})
		}
	case col.DType().Textual():
		if e := enumRule(col, opts); e != nil {
			spec.Rules = append(spec.Rules, contract.Rule{
				ID: name + ".enum", Kind: contract.EnumRule, Severity: contract.SeverityError, Enum: e,
			})
			res.note("column %s has %d distinct values; treated as categorical", name, len(e.Values))
		}
	}

	if uniqueColumn(col) {
		spec.Rules = append(spec.Rules, contract.Rule{
			ID: name + ".unique", Kind: contract.UniquenessRule, Severity: contract.SeverityError,
			Uniqueness: &contract.UniquenessParams{},
		})
		res.note("column %s is unique in the sample", name)
	}
	return spec
}

// numericRange computes observed min/max widened by the slack policy: one
// unit or the relative slack of the observed range, whichever is larger.
func numericRange(col dataset.Column, opts Options) *contract.RangeParams {
	lo, hi := math.Inf(1), math.Inf(-1)
	seen := false
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Float(i); ok {
			seen = true
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if !seen {
		return nil
	}
	slack := math.Max(1, opts.BoundSlack*(hi-lo))
	min := lo - slack
	max := hi + slack
	if lo >= 0 && min < 0 {
		// Do not invent negative values for a sample that had none.
		min = 0
	}
	return &contract.RangeParams{Min: &min, Max: &max}
}

func timeRange(col dataset.Column) *contract.RangeParams {
	var lo, hi time.Time
	seen := false
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Time(i)
		if !ok {
			continue
		}
		if !seen || v.Before(lo) {
			lo = v
		}
		if !seen || v.After(hi) {
			hi = v
		}
		seen = true
	}
	if !seen {
		return nil
	}
	// A day of slack on each side; timestamps overfit even harder than
	// numerics.
	min := lo.Add(-24 * time.Hour)
	max := hi.Add(24 * time.Hour)
	return &contract.RangeParams{MinTime: &min, MaxTime: &max}
}

// enumRule emits a membership rule when the column is low-cardinality and the
// members cover enough of the sample.
func enumRule(col dataset.Column, opts Options) *contract.EnumParams {
	counts := make(map[string]int)
	total := 0
	for i := 0; i < col.Len(); i++ {
		if s, ok := col.String(i); ok {
			counts[s]++
			total++
		}
	}
	if total == 0 || len(counts) > opts.EnumMaxCardinality {
		return nil
	}
	if float64(total)/float64(col.Len()) < opts.EnumMinCoverage {
		// Too many nulls to trust the member set.
		return nil
	}
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Strings(values)
	return &contract.EnumParams{Values: values}
}

func uniqueColumn(col dataset.Column) bool {
	if col.Len() < 2 {
		return false
	}
	seen := make(map[string]struct{}, col.Len())
	for i := 0; i < col.Len(); i++ {
		s, ok := col.String(i)
		if !ok {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}

// inferCrossColumn proposes start_le_end rules for column pairs that look
// like interval endpoints and already satisfy the ordering in the sample.
func inferCrossColumn(res *Result, ds dataset.Dataset) {
	names := ds.ColumnNames()
	for _, startName := range names {
		endName, ok := intervalPartner(startName, names)
		if !ok {
			continue
		}
		start, sok := ds.Column(startName)
		end, eok := ds.Column(endName)
		if !sok || !eok || !start.DType().Ordered() || start.DType() != end.DType() {
			continue
		}
		if !pairOrdered(start, end) {
			continue
		}
		res.Contract.TableRules = append(res.Contract.TableRules, contract.Rule{
			ID: startName + "_le_" + endName, Kind: contract.CrossColumnRule, Severity: contract.SeverityError,
			CrossColumn: &contract.CrossColumnParams{
				Check: contract.CheckStartLeEnd, Start: startName, End: endName,
			},
		})
		res.note("columns %s/%s look like interval endpoints", startName, endName)
	}
}

// intervalPartner maps a start-like column name to its end-like sibling when
// both exist.
func intervalPartner(name string, names []string) (string, bool) {
	pairs := [][2]string{{"start", "end"}, {"begin", "finish"}, {"from", "to"}}
	for _, p := range pairs {
		if !strings.Contains(name, p[0]) {
			continue
		}
		want := strings.Replace(name, p[0], p[1], 1)
		for _, candidate := range names {
			if candidate == want {
				return candidate, true
			}
		}
	}
	return "", false
}

func pairOrdered(start, end dataset.Column) bool {
	for i := 0; i < start.Len(); i++ {
		s, sok := start.Float(i)
		e, eok := end.Float(i)
		if sok && eok && s > e {
			return false
		}
	}
	return true
}

func (r *Result) note(format string, args ...any) {
	r.Suggestions = append(r.Suggestions, fmt.Sprintf(format, args...))
}
