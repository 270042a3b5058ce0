package validate

import (
	"fmt"
	"math"
	"regexp"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/framecheck-labs/framecheck/pkg/report"
)

func baseFinding(r *contract.Rule, column, defaultMsg string) report.Finding {
	msg := r.Message
	if msg == "" {
		msg = defaultMsg
	}
	return report.Finding{
		RuleID:   r.ID,
		Kind:     r.Kind,
		Column:   column,
		Severity: r.Severity,
		Passed:   true,
		Message:  msg,
	}
}

// evalRange checks value (or string-length) bounds over non-null values.
func (ev *evaluator) evalRange(spec *contract.ColumnSpec, col dataset.Column, r *contract.Rule) report.Finding {
	p := r.Range
	lo, hi := math.Inf(-1), math.Inf(1)
	if p.Min != nil {
		lo = *p.Min
	}
	if p.Max != nil {
		hi = *p.Max
	}
	if p.MinTime != nil {
		lo = float64(p.MinTime.Unix())
	}
	if p.MaxTime != nil {
		hi = float64(p.MaxTime.Unix())
	}

	f := baseFinding(r, spec.Name, fmt.Sprintf("values outside range [%v, %v]", lo, hi))
	if p.OfLength {
		f.Message = orDefault(r.Message, fmt.Sprintf("string lengths outside [%v, %v]", lo, hi))
	}

	violations := 0
	var examples []map[string]any
	for i := 0; i < col.Len(); i++ {
		var v float64
		var ok bool
		if p.OfLength {
			var s string
			if s, ok = col.String(i); ok {
				v = float64(len(s))
			}
		} else {
			v, ok = col.Float(i)
		}
		if !ok {
			continue
		}
		if v < lo || v > hi {
			violations++
			if len(examples) < ev.maxExamples {
				raw, _ := col.Value(i)
				examples = append(examples, map[string]any{"row": i, spec.Name: raw})
			}
		}
	}
	if violations > 0 {
		f.Passed = false
		f.Count = violations
		f.Observed = fmt.Sprintf("%d of %d values out of bounds", violations, col.Len())
		f.Examples = examples
	}
	return f
}

// evalEnum checks set membership of non-null values. AllowUnknown keeps the
// member set as documentation only: the rule always passes, but the finding
// still records how many values fell outside the set.
func (ev *evaluator) evalEnum(spec *contract.ColumnSpec, col dataset.Column, r *contract.Rule) report.Finding {
	allowed := make(map[string]struct{}, len(r.Enum.Values))
	for _, v := range r.Enum.Values {
		allowed[v] = struct{}{}
	}
	f := baseFinding(r, spec.Name, fmt.Sprintf("values outside enum of %d members", len(r.Enum.Values)))

	unknown := 0
	var examples []map[string]any
	for i := 0; i < col.Len(); i++ {
		s, ok := col.String(i)
		if !ok {
			continue
		}
		if _, member := allowed[s]; !member {
			unknown++
			if len(examples) < ev.maxExamples {
				examples = append(examples, map[string]any{"row": i, spec.Name: s})
			}
		}
	}
	if unknown > 0 {
		f.Count = unknown
		f.Observed = fmt.Sprintf("%d unknown values", unknown)
		f.Examples = examples
		if !r.Enum.AllowUnknown {
			f.Passed = false
		}
	}
	return f
}

// evalPattern requires every non-null value to fully match the rule's regex.
// A regex that does not compile is an isolated evaluation error.
func (ev *evaluator) evalPattern(spec *contract.ColumnSpec, col dataset.Column, r *contract.Rule) report.Finding {
	re, err := regexp.Compile("^(?:" + r.Pattern.Regex + ")$")
	if err != nil {
		return evalErrorFinding(r, spec.Name, err)
	}
	f := baseFinding(r, spec.Name, fmt.Sprintf("values do not match pattern %q", r.Pattern.Regex))

	misses := 0
	var examples []map[string]any
	for i := 0; i < col.Len(); i++ {
		s, ok := col.String(i)
		if !ok {
			continue
		}
		if !re.MatchString(s) {
			misses++
			if len(examples) < ev.maxExamples {
				examples = append(examples, map[string]any{"row": i, spec.Name: s})
			}
		}
	}
	if misses > 0 {
		f.Passed = false
		f.Count = misses
		f.Observed = fmt.Sprintf("%d non-matching values", misses)
		f.Examples = examples
	}
	return f
}

// evalNullRatio caps the null fraction of the column.
func (ev *evaluator) evalNullRatio(spec *contract.ColumnSpec, col dataset.Column, r *contract.Rule) report.Finding {
	ratio := dataset.NullRatio(col)
	f := baseFinding(r, spec.Name, fmt.Sprintf("null ratio above %.4f", r.NullRatio.MaxRatio))
	f.Observed = fmt.Sprintf("null_ratio=%.4f", ratio)
	if ratio > r.NullRatio.MaxRatio {
		f.Passed = false
		f.Count = int(math.Round(ratio * float64(col.Len())))
	}
	return f
}

// evalColumnUnique flags duplicated non-null values. The count covers every
// row involved in a duplicate group, not just the extras.
func (ev *evaluator) evalColumnUnique(spec *contract.ColumnSpec, col dataset.Column, r *contract.Rule) report.Finding {
	f := baseFinding(r, spec.Name, "duplicate values found")
	firstSeen := make(map[string]int, col.Len())
	counts := make(map[string]int, col.Len())
	for i := 0; i < col.Len(); i++ {
		if s, ok := col.String(i); ok {
			if _, seen := firstSeen[s]; !seen {
				firstSeen[s] = i
			}
			counts[s]++
		}
	}
	dupRows := 0
	var examples []map[string]any
	for i := 0; i < col.Len(); i++ {
		s, ok := col.String(i)
		if !ok || counts[s] < 2 {
			continue
		}
		dupRows++
		if len(examples) < ev.maxExamples {
			examples = append(examples, map[string]any{"row": i, spec.Name: s})
		}
	}
	if dupRows > 0 {
		f.Passed = false
		f.Count = dupRows
		f.Observed = fmt.Sprintf("%d rows share duplicated values", dupRows)
		f.Examples = examples
	}
	return f
}

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
