// Package report defines the validation report produced by a rule evaluation
// run, plus its renderings: JSON, row-per-finding tables for CI artifacts,
// JUnit XML and GitHub-flavored Markdown.
//
// A Report is created once per evaluation and never mutated afterwards;
// exporters and renderers only read it.
package report

import (
	"fmt"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/snapshot"
)

// SampleSpec records how the evaluated slice was drawn. Fraction 1 with an
// empty By means the full dataset.
type SampleSpec struct {
	Fraction float64 `json:"fraction" yaml:"fraction"`
	By       string  `json:"by,omitempty" yaml:"by,omitempty"`
	Seed     int64   `json:"seed" yaml:"seed"`
}

// Full reports whether the spec describes a full-dataset evaluation.
func (s SampleSpec) Full() bool { return s.Fraction >= 1 && s.By == "" }

// Finding is a single rule-evaluation outcome. Every rule in the effective
// contract produces at least one Finding per run; nothing is silently
// dropped. Skipped rules (dtype mismatch, disabled) carry Skipped=true.
type Finding struct {
	RuleID   string            `json:"rule_id" yaml:"rule_id"`
	Kind     contract.RuleKind `json:"kind" yaml:"kind"`
	Column   string            `json:"column,omitempty" yaml:"column,omitempty"`
	Group    string            `json:"group,omitempty" yaml:"group,omitempty"`
	Severity contract.Severity `json:"severity" yaml:"severity"`
	Passed   bool              `json:"passed" yaml:"passed"`
	Skipped  bool              `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Observed string            `json:"observed,omitempty" yaml:"observed,omitempty"`
	Count    int               `json:"count,omitempty" yaml:"count,omitempty"`
	Message  string            `json:"message" yaml:"message"`
	Examples []map[string]any  `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// Failed reports whether the finding is an actual failure (not a pass, not
// an explicit skip).
func (f *Finding) Failed() bool { return !f.Passed && !f.Skipped }

// Summary aggregates findings. Passed is false iff any error-severity
// finding failed; warning failures never flip it.
type Summary struct {
	Passed        bool `json:"passed" yaml:"passed"`
	Total         int  `json:"total" yaml:"total"`
	PassedCount   int  `json:"passed_count" yaml:"passed_count"`
	FailedErrors  int  `json:"failed_errors" yaml:"failed_errors"`
	FailedWarns   int  `json:"failed_warnings" yaml:"failed_warnings"`
	SkippedCount  int  `json:"skipped" yaml:"skipped"`
	Rows          int  `json:"rows" yaml:"rows"`
	Columns       int  `json:"columns" yaml:"columns"`
	DurationMilli int64 `json:"duration_ms" yaml:"duration_ms"`
}

// Report is the result of one validation run.
type Report struct {
	RunID           string             `json:"run_id" yaml:"run_id"`
	ContractName    string             `json:"contract_name" yaml:"contract_name"`
	ContractVersion string             `json:"contract_version" yaml:"contract_version"`
	Profile         string             `json:"profile,omitempty" yaml:"profile,omitempty"`
	Sample          SampleSpec         `json:"sample" yaml:"sample"`
	Timestamp       time.Time          `json:"timestamp" yaml:"timestamp"`
	Findings        []Finding          `json:"findings" yaml:"findings"`
	Summary         Summary            `json:"summary" yaml:"summary"`
	Snapshot        *snapshot.Snapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

// Finalize computes the summary from the findings. Called exactly once by
// the evaluator before the report is handed out.
func (r *Report) Finalize(rows, cols int, elapsed time.Duration) {
	s := Summary{Passed: true, Rows: rows, Columns: cols, DurationMilli: elapsed.Milliseconds()}
	for i := range r.Findings {
		f := &r.Findings[i]
		s.Total++
		switch {
		case f.Skipped:
			// Skips never fail the run by themselves; the schema finding
			// that caused them carries the failure.
			s.SkippedCount++
		case f.Passed:
			s.PassedCount++
		case f.Severity == contract.SeverityError:
			s.FailedErrors++
		default:
			s.FailedWarns++
		}
	}
	s.Passed = s.FailedErrors == 0
	r.Summary = s
}

// FailedFindings returns the findings that actually failed, in report order.
func (r *Report) FailedFindings() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Failed() {
			out = append(out, f)
		}
	}
	return out
}

// String gives a one-line human summary, handy for logs and errors.
func (r *Report) String() string {
	status := "passed"
	if !r.Summary.Passed {
		status = "failed"
	}
	return fmt.Sprintf("contract %s@%s %s: %d findings (%d errors, %d warnings, %d skipped)",
		r.ContractName, r.ContractVersion, status,
		r.Summary.Total, r.Summary.FailedErrors, r.Summary.FailedWarns, r.Summary.SkippedCount)
}
