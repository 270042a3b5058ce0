package validate

import (
	"fmt"
	"strings"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/framecheck-labs/framecheck/pkg/report"
)

// Predicate is a pure per-row check over one or more columns. cols holds the
// rule's columns in declaration order; row is the index into each of them.
// Returning false marks the row as a violation; returning an error aborts the
// rule (captured as an isolated evaluation finding, never the run).
type Predicate func(cols []dataset.Column, row int, args map[string]float64) (bool, error)

// builtinPredicates is the static table consulted after caller-supplied
// predicates. All of them skip rows whose values are null.
var builtinPredicates = map[string]Predicate{
	"non_negative": func(cols []dataset.Column, row int, _ map[string]float64) (bool, error) {
		for _, c := range cols {
			if v, ok := c.Float(row); ok && v < 0 {
				return false, nil
			}
		}
		return true, nil
	},
	"positive": func(cols []dataset.Column, row int, _ map[string]float64) (bool, error) {
		for _, c := range cols {
			if v, ok := c.Float(row); ok && v <= 0 {
				return false, nil
			}
		}
		return true, nil
	},
	"not_blank": func(cols []dataset.Column, row int, _ map[string]float64) (bool, error) {
		for _, c := range cols {
			if s, ok := c.String(row); ok && strings.TrimSpace(s) == "" {
				return false, nil
			}
		}
		return true, nil
	},
}

// lookupPredicate resolves a predicate name, caller-supplied first.
func (ev *evaluator) lookupPredicate(name string) (Predicate, bool) {
	if p, ok := ev.predicates[name]; ok {
		return p, true
	}
	p, ok := builtinPredicates[name]
	return p, ok
}

// evalPredicate runs a predicate rule row by row. scopeColumn is empty for
// table-scoped predicate rules.
func (ev *evaluator) evalPredicate(r *contract.Rule, scopeColumn string, colNames []string) report.Finding {
	pred, ok := ev.lookupPredicate(r.Predicate.Name)
	if !ok {
		return evalErrorFinding(r, scopeColumn, fmt.Errorf("unknown predicate %q", r.Predicate.Name))
	}
	cols := make([]dataset.Column, 0, len(colNames))
	for _, name := range colNames {
		c, ok := ev.ds.Column(name)
		if !ok {
			return evalErrorFinding(r, scopeColumn, fmt.Errorf("predicate column %q missing from dataset", name))
		}
		cols = append(cols, c)
	}

	f := baseFinding(r, scopeColumn, fmt.Sprintf("predicate %q violated", r.Predicate.Name))
	violations := 0
	var examples []map[string]any
	for row := 0; row < ev.ds.RowCount(); row++ {
		ok, err := pred(cols, row, r.Predicate.Args)
		if err != nil {
			return evalErrorFinding(r, scopeColumn, err)
		}
		if ok {
			continue
		}
		violations++
		if len(examples) < ev.maxExamples {
			ex := map[string]any{"row": row}
			for _, c := range cols {
				if v, present := c.Value(row); present {
					ex[c.Name()] = v
				}
			}
			examples = append(examples, ex)
		}
	}
	if violations > 0 {
		f.Passed = false
		f.Count = violations
		f.Observed = fmt.Sprintf("%d violating rows", violations)
		f.Examples = examples
	}
	return f
}
