package validate

import (
	"fmt"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/framecheck-labs/framecheck/pkg/report"
)

// coercionProbe is how many non-null values are inspected to decide whether
// a mistyped column can still be evaluated against coerced values.
const coercionProbe = 100

// evalColumn produces the findings for one column spec: schema checks first
// (presence, dtype, nullability), then the declared rules in order. Every
// declared rule yields exactly one finding, even when it has to be skipped.
func (ev *evaluator) evalColumn(spec *contract.ColumnSpec) []report.Finding {
	var out []report.Finding

	col, ok := ev.ds.Column(spec.Name)
	if !ok {
		out = append(out, report.Finding{
			RuleID:   "column." + spec.Name + ".missing",
			Kind:     kindSchema,
			Column:   spec.Name,
			Severity: contract.SeverityError,
			Passed:   false,
			Count:    ev.ds.RowCount(),
			Message:  fmt.Sprintf("column %q missing from dataset", spec.Name),
		})
		return append(out, ev.skipRules(spec, "column missing from dataset")...)
	}

	actual := col.DType()
	if !contract.Compatible(actual, spec.DType) {
		mismatch := report.Finding{
			RuleID:   "column." + spec.Name + ".dtype",
			Kind:     kindSchema,
			Column:   spec.Name,
			Severity: contract.SeverityError,
			Passed:   false,
			Count:    col.Len(),
			Observed: string(actual),
			Message:  fmt.Sprintf("expected dtype %q, got %q", spec.DType, actual),
		}
		out = append(out, mismatch)
		if !coercible(col, spec.DType) {
			return append(out, ev.skipRules(spec, "dtype mismatch")...)
		}
		// Coercible mismatch: the rules below evaluate best-effort through
		// the column's coercing accessors.
	}

	if !spec.Nullable {
		out = append(out, ev.nullabilityFinding(spec, col))
	}

	for i := range spec.Rules {
		r := &spec.Rules[i]
		if r.Disabled {
			out = append(out, report.Finding{
				RuleID: r.ID, Kind: r.Kind, Column: spec.Name, Severity: r.Severity,
				Passed: true, Skipped: true, Message: "disabled by profile",
			})
			continue
		}
		out = append(out, ev.evalColumnRule(spec, col, r))
	}
	return out
}

// skipRules emits the explicit skip finding every unevaluable rule owes the
// report.
func (ev *evaluator) skipRules(spec *contract.ColumnSpec, reason string) []report.Finding {
	out := make([]report.Finding, 0, len(spec.Rules))
	for _, r := range spec.Rules {
		out = append(out, report.Finding{
			RuleID: r.ID, Kind: r.Kind, Column: spec.Name, Severity: r.Severity,
			Passed: true, Skipped: true, Message: "skipped: " + reason,
		})
	}
	return out
}

// nullabilityFinding checks the implicit no-nulls constraint of a
// non-nullable column.
func (ev *evaluator) nullabilityFinding(spec *contract.ColumnSpec, col dataset.Column) report.Finding {
	f := report.Finding{
		RuleID:   "column." + spec.Name + ".nulls",
		Kind:     contract.NullRatioRule,
		Column:   spec.Name,
		Severity: contract.SeverityError,
		Passed:   true,
		Message:  fmt.Sprintf("column %q is not nullable", spec.Name),
	}
	nulls := 0
	var examples []map[string]any
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			nulls++
			if len(examples) < ev.maxExamples {
				examples = append(examples, map[string]any{"row": i})
			}
		}
	}
	if nulls > 0 {
		f.Passed = false
		f.Count = nulls
		f.Observed = fmt.Sprintf("null_ratio=%.4f", float64(nulls)/float64(col.Len()))
		f.Examples = examples
	}
	return f
}

// evalColumnRule dispatches one column-scoped rule. The switch is total over
// the column-legal kinds; contract validation rejects the rest.
func (ev *evaluator) evalColumnRule(spec *contract.ColumnSpec, col dataset.Column, r *contract.Rule) report.Finding {
	switch r.Kind {
	case contract.RangeRule:
		return ev.evalRange(spec, col, r)
	case contract.EnumRule:
		return ev.evalEnum(spec, col, r)
	case contract.PatternRule:
		return ev.evalPattern(spec, col, r)
	case contract.NullRatioRule:
		return ev.evalNullRatio(spec, col, r)
	case contract.UniquenessRule:
		return ev.evalColumnUnique(spec, col, r)
	case contract.CustomPredicateRule:
		cols := append([]string{spec.Name}, r.Predicate.Columns...)
		return ev.evalPredicate(r, spec.Name, cols)
	default:
		return evalErrorFinding(r, spec.Name, fmt.Errorf("kind %q not evaluable on a column", r.Kind))
	}
}

// coercible probes whether a mistyped column still yields usable values for
// the declared dtype, so evaluation can continue best-effort.
func coercible(col dataset.Column, want contract.DType) bool {
	probed, usable := 0, 0
	for i := 0; i < col.Len() && probed < coercionProbe; i++ {
		if col.IsNull(i) {
			continue
		}
		probed++
		switch {
		case want.Numeric():
			if _, ok := col.Float(i); ok {
				usable++
			}
		case want == contract.Datetime:
			if _, ok := col.Time(i); ok {
				usable++
			}
		default:
			if _, ok := col.String(i); ok {
				usable++
			}
		}
	}
	return probed > 0 && usable == probed
}

// evalErrorFinding captures a rule whose predicate itself failed, isolated
// per the error model: error severity, failed, never aborts the run.
func evalErrorFinding(r *contract.Rule, column string, err error) report.Finding {
	e := &contract.RuleEvaluationError{Rule: r.ID, Column: column, Err: err}
	return report.Finding{
		RuleID:   r.ID,
		Kind:     r.Kind,
		Column:   column,
		Severity: contract.SeverityError,
		Passed:   false,
		Message:  "rule evaluation failed: " + e.Error(),
	}
}
