package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/framecheck-labs/framecheck/pkg/report"
)

// evalTableRule dispatches one table-scoped rule. Row-count rules fan out to
// one finding per group when the run is stratified; everything else yields a
// single finding.
func (ev *evaluator) evalTableRule(r *contract.Rule) []report.Finding {
	if r.Disabled {
		return []report.Finding{{
			RuleID: r.ID, Kind: r.Kind, Severity: r.Severity,
			Passed: true, Skipped: true, Message: "disabled by profile",
		}}
	}
	switch r.Kind {
	case contract.UniquenessRule:
		return []report.Finding{ev.evalCompositeUnique(r)}
	case contract.TableRowCountRule:
		return ev.evalRowCount(r)
	case contract.CrossColumnRule:
		return []report.Finding{ev.evalCrossColumn(r)}
	case contract.CustomPredicateRule:
		return []report.Finding{ev.evalPredicate(r, "", r.Predicate.Columns)}
	default:
		return []report.Finding{evalErrorFinding(r, "", fmt.Errorf("kind %q not evaluable on the table", r.Kind))}
	}
}

// evalCompositeUnique requires the composite key to be distinct. Rows with a
// null in any key column do not participate.
func (ev *evaluator) evalCompositeUnique(r *contract.Rule) report.Finding {
	keyCols := make([]dataset.Column, 0, len(r.Uniqueness.Columns))
	for _, name := range r.Uniqueness.Columns {
		c, ok := ev.ds.Column(name)
		if !ok {
			return evalErrorFinding(r, "", fmt.Errorf("key column %q missing from dataset", name))
		}
		keyCols = append(keyCols, c)
	}

	f := baseFinding(r, "", fmt.Sprintf("duplicate keys over (%s)", strings.Join(r.Uniqueness.Columns, ", ")))
	keys := make([]string, ev.ds.RowCount())
	valid := make([]bool, ev.ds.RowCount())
	counts := make(map[string]int, ev.ds.RowCount())
	for row := 0; row < ev.ds.RowCount(); row++ {
		key, ok := compositeKey(keyCols, row)
		if !ok {
			continue
		}
		keys[row], valid[row] = key, true
		counts[key]++
	}

	dupRows := 0
	var examples []map[string]any
	for row := 0; row < ev.ds.RowCount(); row++ {
		if !valid[row] || counts[keys[row]] < 2 {
			continue
		}
		dupRows++
		if len(examples) < ev.maxExamples {
			ex := map[string]any{"row": row}
			for _, c := range keyCols {
				if v, present := c.Value(row); present {
					ex[c.Name()] = v
				}
			}
			examples = append(examples, ex)
		}
	}
	if dupRows > 0 {
		f.Passed = false
		f.Count = dupRows
		f.Observed = fmt.Sprintf("%d rows share duplicated keys", dupRows)
		f.Examples = examples
	}
	return f
}

// compositeKey renders the key tuple for one row. ok is false when any key
// column is null there.
func compositeKey(cols []dataset.Column, row int) (string, bool) {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		s, ok := c.String(row)
		if !ok {
			return "", false
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\x1f"), true
}

// evalRowCount bounds the size of the evaluated slice. With a stratified run
// the bounds apply per group and each group gets its own finding.
func (ev *evaluator) evalRowCount(r *contract.Rule) []report.Finding {
	if ev.by == "" {
		return []report.Finding{ev.rowCountFinding(r, "", ev.ds.RowCount())}
	}
	order, groups, ok := groupIndices(ev.ds, ev.by)
	if !ok {
		return []report.Finding{evalErrorFinding(r, "", fmt.Errorf("grouping column %q missing from dataset", ev.by))}
	}
	out := make([]report.Finding, 0, len(order))
	for _, key := range order {
		out = append(out, ev.rowCountFinding(r, key, len(groups[key])))
	}
	return out
}

func (ev *evaluator) rowCountFinding(r *contract.Rule, group string, n int) report.Finding {
	p := r.RowCount
	f := baseFinding(r, "", "row count out of bounds")
	f.Group = group
	f.Observed = fmt.Sprintf("%d rows", n)
	if (p.Min != nil && n < *p.Min) || (p.Max != nil && n > *p.Max) {
		f.Passed = false
		f.Count = n
	}
	return f
}

// evalCrossColumn dispatches the built-in cross-column checks.
func (ev *evaluator) evalCrossColumn(r *contract.Rule) report.Finding {
	p := r.CrossColumn
	switch p.Check {
	case contract.CheckStartLeEnd:
		return ev.evalStartLeEnd(r)
	case contract.CheckNonDecreasingByKey:
		return ev.evalNonDecreasing(r)
	case contract.CheckWithinTolerance:
		return ev.evalWithinTolerance(r)
	case contract.CheckFunctionalDependency:
		return ev.evalFunctionalDependency(r)
	default:
		return evalErrorFinding(r, "", fmt.Errorf("unknown cross-column check %q", p.Check))
	}
}

// evalStartLeEnd requires start <= end on every row where both are present.
func (ev *evaluator) evalStartLeEnd(r *contract.Rule) report.Finding {
	p := r.CrossColumn
	start, ok := ev.ds.Column(p.Start)
	if !ok {
		return evalErrorFinding(r, "", fmt.Errorf("column %q missing from dataset", p.Start))
	}
	end, ok := ev.ds.Column(p.End)
	if !ok {
		return evalErrorFinding(r, "", fmt.Errorf("column %q missing from dataset", p.End))
	}

	f := baseFinding(r, "", fmt.Sprintf("%s exceeds %s", p.Start, p.End))
	violations := 0
	var examples []map[string]any
	for row := 0; row < ev.ds.RowCount(); row++ {
		s, sok := start.Float(row)
		e, eok := end.Float(row)
		if !sok || !eok || s <= e {
			continue
		}
		violations++
		if len(examples) < ev.maxExamples {
			sv, _ := start.Value(row)
			evv, _ := end.Value(row)
			examples = append(examples, map[string]any{"row": row, p.Start: sv, p.End: evv})
		}
	}
	if violations > 0 {
		f.Passed = false
		f.Count = violations
		f.Observed = fmt.Sprintf("%d rows with %s > %s", violations, p.Start, p.End)
		f.Examples = examples
	}
	return f
}

// evalNonDecreasing requires the column to never decrease in row order,
// within each key group when By is set. Null values break no ordering.
func (ev *evaluator) evalNonDecreasing(r *contract.Rule) report.Finding {
	p := r.CrossColumn
	col, ok := ev.ds.Column(p.Column)
	if !ok {
		return evalErrorFinding(r, "", fmt.Errorf("column %q missing from dataset", p.Column))
	}
	keyCols := make([]dataset.Column, 0, len(p.By))
	for _, name := range p.By {
		c, ok := ev.ds.Column(name)
		if !ok {
			return evalErrorFinding(r, "", fmt.Errorf("key column %q missing from dataset", name))
		}
		keyCols = append(keyCols, c)
	}

	f := baseFinding(r, "", fmt.Sprintf("%s decreases in row order", p.Column))
	last := make(map[string]float64)
	violations := 0
	var examples []map[string]any
	for row := 0; row < ev.ds.RowCount(); row++ {
		v, ok := col.Float(row)
		if !ok {
			continue
		}
		key := ""
		if len(keyCols) > 0 {
			if key, ok = compositeKey(keyCols, row); !ok {
				continue
			}
		}
		if prev, seen := last[key]; seen && v < prev {
			violations++
			if len(examples) < ev.maxExamples {
				raw, _ := col.Value(row)
				examples = append(examples, map[string]any{"row": row, p.Column: raw})
			}
		}
		last[key] = v
	}
	if violations > 0 {
		f.Passed = false
		f.Count = violations
		f.Observed = fmt.Sprintf("%d decreasing steps", violations)
		f.Examples = examples
	}
	return f
}

// evalWithinTolerance requires |left - right| <= tolerance per row.
func (ev *evaluator) evalWithinTolerance(r *contract.Rule) report.Finding {
	p := r.CrossColumn
	left, ok := ev.ds.Column(p.Left)
	if !ok {
		return evalErrorFinding(r, "", fmt.Errorf("column %q missing from dataset", p.Left))
	}
	right, ok := ev.ds.Column(p.Right)
	if !ok {
		return evalErrorFinding(r, "", fmt.Errorf("column %q missing from dataset", p.Right))
	}

	f := baseFinding(r, "", fmt.Sprintf("|%s - %s| exceeds %v", p.Left, p.Right, p.Tolerance))
	violations := 0
	var examples []map[string]any
	for row := 0; row < ev.ds.RowCount(); row++ {
		l, lok := left.Float(row)
		rv, rok := right.Float(row)
		if !lok || !rok || math.Abs(l-rv) <= p.Tolerance {
			continue
		}
		violations++
		if len(examples) < ev.maxExamples {
			examples = append(examples, map[string]any{"row": row, p.Left: l, p.Right: rv})
		}
	}
	if violations > 0 {
		f.Passed = false
		f.Count = violations
		f.Observed = fmt.Sprintf("%d rows outside tolerance", violations)
		f.Examples = examples
	}
	return f
}

// evalFunctionalDependency requires the determinant tuple to map to a single
// dependent tuple. Every row of a determinant with conflicting dependents
// counts as a violation.
func (ev *evaluator) evalFunctionalDependency(r *contract.Rule) report.Finding {
	p := r.CrossColumn
	det := make([]dataset.Column, 0, len(p.Determinant))
	for _, name := range p.Determinant {
		c, ok := ev.ds.Column(name)
		if !ok {
			return evalErrorFinding(r, "", fmt.Errorf("determinant column %q missing from dataset", name))
		}
		det = append(det, c)
	}
	dep := make([]dataset.Column, 0, len(p.Dependent))
	for _, name := range p.Dependent {
		c, ok := ev.ds.Column(name)
		if !ok {
			return evalErrorFinding(r, "", fmt.Errorf("dependent column %q missing from dataset", name))
		}
		dep = append(dep, c)
	}

	f := baseFinding(r, "", fmt.Sprintf("(%s) does not determine (%s)",
		strings.Join(p.Determinant, ", "), strings.Join(p.Dependent, ", ")))

	detKeys := make([]string, ev.ds.RowCount())
	valid := make([]bool, ev.ds.RowCount())
	seen := make(map[string]string)
	conflicted := make(map[string]bool)
	for row := 0; row < ev.ds.RowCount(); row++ {
		dk, ok := compositeKey(det, row)
		if !ok {
			continue
		}
		pk, ok := compositeKey(dep, row)
		if !ok {
			continue
		}
		detKeys[row], valid[row] = dk, true
		if prev, found := seen[dk]; found {
			if prev != pk {
				conflicted[dk] = true
			}
		} else {
			seen[dk] = pk
		}
	}

	violations := 0
	var examples []map[string]any
	for row := 0; row < ev.ds.RowCount(); row++ {
		if !valid[row] || !conflicted[detKeys[row]] {
			continue
		}
		violations++
		if len(examples) < ev.maxExamples {
			ex := map[string]any{"row": row}
			for _, c := range det {
				if v, present := c.Value(row); present {
					ex[c.Name()] = v
				}
			}
			for _, c := range dep {
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
		f.Observed = fmt.Sprintf("%d rows in conflicting dependencies", violations)
		f.Examples = examples
	}
	return f
}
