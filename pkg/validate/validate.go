// Package validate executes a contract's rules against a dataset and
// produces a validation report.
//
// Evaluation is pure: no I/O, no shared state across calls. Rules are
// evaluated in isolation: a failing or even broken rule (bad regex, unknown
// predicate) is captured as a finding and never halts the rest of the run.
// Columns are evaluated concurrently, but findings are assembled in
// declaration order (columns, then rules within a column, then table rules)
// so reports are byte-for-byte reproducible for identical inputs and seeds.
package validate

import (
	"fmt"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/framecheck-labs/framecheck/pkg/report"
	"github.com/framecheck-labs/framecheck/pkg/snapshot"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// kindSchema tags findings about dataset shape (missing column, dtype
// mismatch, unexpected column) that do not correspond to a declared rule.
const kindSchema = contract.RuleKind("schema")

// DefaultMaxExamples caps the failing-value examples attached to a finding
// unless the caller or the active profile overrides it.
const DefaultMaxExamples = 20

// Options tune a single validation run.
type Options struct {
	// Profile names a contract profile overlay. Empty means no overlay.
	Profile string
	// Sample draws a reproducible random fraction of rows in (0, 1].
	// Zero means full evaluation.
	Sample float64
	// By stratifies sampling by the named column, drawing the fraction
	// independently within each group. Group-aware table rules are also
	// evaluated per group.
	By string
	// Seed drives the sampler. The same dataset, contract and seed always
	// yield the same report.
	Seed int64
	// MaxExamples caps per-finding examples; 0 means the profile's cap or
	// DefaultMaxExamples.
	MaxExamples int
	// WithSnapshot embeds a statistical snapshot of the evaluated slice.
	WithSnapshot bool
	// Predicates supplies caller-defined predicates for predicate rules,
	// consulted before the built-in table.
	Predicates map[string]Predicate
}

// Run validates ds against c and returns the report. Fatal errors are
// limited to a malformed contract, an unknown profile and an unusable
// sampling spec; everything else is expressed as findings.
func Run(ds dataset.Dataset, c *contract.Contract, opts Options) (*report.Report, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	eff, err := c.WithProfile(opts.Profile)
	if err != nil {
		return nil, err
	}

	spec := report.SampleSpec{Fraction: 1, Seed: opts.Seed}
	slice := ds
	if opts.Sample != 0 {
		if opts.Sample < 0 || opts.Sample > 1 {
			return nil, fmt.Errorf("sample fraction %v outside (0, 1]", opts.Sample)
		}
		indices, err := sampleIndices(ds, opts.Sample, opts.By, opts.Seed)
		if err != nil {
			return nil, err
		}
		slice = dataset.Select(ds, indices)
		spec.Fraction = opts.Sample
		spec.By = opts.By
	}

	maxExamples := opts.MaxExamples
	if maxExamples == 0 {
		maxExamples = DefaultMaxExamples
		if opts.Profile != "" {
			if p, ok := eff.Profiles[opts.Profile]; ok && p.MaxExamples > 0 {
				maxExamples = p.MaxExamples
			}
		}
	}

	start := time.Now()
	rep := &report.Report{
		RunID:           uuid.NewString(),
		ContractName:    c.Name,
		ContractVersion: c.Version,
		Profile:         opts.Profile,
		Sample:          spec,
		Timestamp:       start.UTC(),
	}

	ev := &evaluator{
		ds:          slice,
		contract:    eff,
		maxExamples: maxExamples,
		by:          opts.By,
		predicates:  opts.Predicates,
	}

	// One goroutine per column; results land in per-column slots so the
	// report order never depends on scheduling.
	perColumn := make([][]report.Finding, len(eff.Columns))
	var g errgroup.Group
	for i := range eff.Columns {
		g.Go(func() error {
			perColumn[i] = ev.evalColumn(&eff.Columns[i])
			return nil
		})
	}
	_ = g.Wait() // column evaluation reports through findings, never errors

	for _, findings := range perColumn {
		rep.Findings = append(rep.Findings, findings...)
	}
	rep.Findings = append(rep.Findings, ev.extraColumnFindings()...)
	for i := range eff.TableRules {
		rep.Findings = append(rep.Findings, ev.evalTableRule(&eff.TableRules[i])...)
	}

	if opts.WithSnapshot {
		rep.Snapshot = snapshot.Take(slice)
	}
	rep.Finalize(slice.RowCount(), len(slice.ColumnNames()), time.Since(start))
	return rep, nil
}

type evaluator struct {
	ds          dataset.Dataset
	contract    *contract.Contract
	maxExamples int
	by          string
	predicates  map[string]Predicate
}

// extraColumnFindings flags dataset columns the contract does not declare,
// at warning severity, when the contract is strict about its column set.
func (ev *evaluator) extraColumnFindings() []report.Finding {
	if !ev.contract.StrictColumns {
		return nil
	}
	declared := ev.contract.ColumnMap()
	var out []report.Finding
	for _, name := range ev.ds.ColumnNames() {
		if _, ok := declared[name]; ok {
			continue
		}
		out = append(out, report.Finding{
			RuleID:   "column." + name + ".unexpected",
			Kind:     kindSchema,
			Column:   name,
			Severity: contract.SeverityWarning,
			Passed:   false,
			Count:    ev.ds.RowCount(),
			Message:  fmt.Sprintf("column %q is present but not declared", name),
		})
	}
	return out
}
