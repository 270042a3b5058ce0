package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"testing"
	"time"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	r := &Report{
		RunID:           "run-1",
		ContractName:    "orders",
		ContractVersion: "1.0.0",
		Sample:          SampleSpec{Fraction: 1},
		Timestamp:       time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Findings: []Finding{
			{RuleID: "order_id.unique", Kind: contract.UniquenessRule, Column: "order_id",
				Severity: contract.SeverityError, Passed: true, Message: "values are unique"},
			{RuleID: "amount.range", Kind: contract.RangeRule, Column: "amount",
				Severity: contract.SeverityError, Passed: false, Count: 2,
				Observed: "min=-5", Message: "2 values outside [0, 10000]"},
			{RuleID: "status.enum", Kind: contract.EnumRule, Column: "status",
				Severity: contract.SeverityWarning, Passed: false, Count: 1,
				Message: "1 value outside the enum"},
			{RuleID: "note.pattern", Kind: contract.PatternRule, Column: "note",
				Severity: contract.SeverityError, Skipped: true, Message: "column missing"},
		},
	}
	r.Finalize(100, 4, 42*time.Millisecond)
	return r
}

func TestFinalizeCountsBySeverity(t *testing.T) {
	r := sampleReport()
	s := r.Summary

	assert.False(t, s.Passed)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.PassedCount)
	assert.Equal(t, 1, s.FailedErrors)
	assert.Equal(t, 1, s.FailedWarns)
	assert.Equal(t, 1, s.SkippedCount)
	assert.Equal(t, 100, s.Rows)
	assert.Equal(t, int64(42), s.DurationMilli)
}

func TestFinalizeWarningFailuresDoNotFailTheRun(t *testing.T) {
	r := &Report{Findings: []Finding{
		{RuleID: "w", Severity: contract.SeverityWarning, Passed: false},
		{RuleID: "s", Severity: contract.SeverityError, Skipped: true},
	}}
	r.Finalize(10, 1, 0)
	assert.True(t, r.Summary.Passed)
}

func TestFailedFindingsExcludesSkips(t *testing.T) {
	failed := sampleReport().FailedFindings()
	require.Len(t, failed, 2)
	assert.Equal(t, "amount.range", failed[0].RuleID)
	assert.Equal(t, "status.enum", failed[1].RuleID)
}

func TestToJSONRoundTrips(t *testing.T) {
	r := sampleReport()
	raw, err := r.ToJSON()
	require.NoError(t, err)

	var back Report
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, r.Findings, back.Findings)
	assert.Equal(t, r.Summary, back.Summary)
}

func TestRowsOnePerFinding(t *testing.T) {
	rows := sampleReport().Rows()
	require.Len(t, rows, 5)
	assert.Equal(t, rowHeader, rows[0])
	assert.Equal(t, "amount.range", rows[2][0])
	assert.Equal(t, "failed", rows[2][5])
	assert.Equal(t, "2", rows[2][6])
	assert.Equal(t, "skipped", rows[4][5])
}

func TestToJUnitClassifiesCases(t *testing.T) {
	raw, err := sampleReport().ToJUnit()
	require.NoError(t, err)

	var suite struct {
		Tests    int `xml:"tests,attr"`
		Failures int `xml:"failures,attr"`
		Skipped  int `xml:"skipped,attr"`
		Cases    []struct {
			Name    string    `xml:"name,attr"`
			Failure *struct{} `xml:"failure"`
		} `xml:"testcase"`
	}
	require.NoError(t, xml.Unmarshal(raw, &suite))

	assert.Equal(t, 4, suite.Tests)
	// Only the failed error finding is a JUnit failure; the warning failure
	// and the explicit skip both map to skips.
	assert.Equal(t, 1, suite.Failures)
	assert.Equal(t, 2, suite.Skipped)
	require.Len(t, suite.Cases, 4)
	assert.Equal(t, "amount.amount.range", suite.Cases[1].Name)
	assert.NotNil(t, suite.Cases[1].Failure)
	assert.Nil(t, suite.Cases[0].Failure)
}

func TestToMarkdownListsFailures(t *testing.T) {
	md := sampleReport().ToMarkdown()
	assert.Contains(t, md, "## framecheck: orders@1.0.0")
	assert.Contains(t, md, "❌ Validation failed - 100 rows, 4 findings")
	assert.Contains(t, md, "| amount.range | amount | error | 2 |")
	assert.NotContains(t, md, "note.pattern")
}

func TestToMarkdownPassingReportHasNoTable(t *testing.T) {
	r := &Report{ContractName: "orders", ContractVersion: "1.0.0"}
	r.Finalize(10, 1, 0)
	md := r.ToMarkdown()
	assert.Contains(t, md, "✅ Validation passed")
	assert.NotContains(t, md, "| Rule |")
}

func TestRenderWritesStatusAndTable(t *testing.T) {
	var buf bytes.Buffer
	sampleReport().Render(&buf)
	out := buf.String()
	assert.Contains(t, out, "VALIDATION FAILED")
	assert.Contains(t, out, "contract orders@1.0.0")
	assert.Contains(t, out, "amount.range")

	buf.Reset()
	r := &Report{ContractName: "orders", ContractVersion: "1.0.0", Sample: SampleSpec{Fraction: 1}}
	r.Finalize(10, 1, 0)
	r.Render(&buf)
	assert.Contains(t, buf.String(), "no violations detected")
}

func TestStringSummaryLine(t *testing.T) {
	assert.Equal(t,
		"contract orders@1.0.0 failed: 4 findings (1 errors, 1 warnings, 1 skipped)",
		sampleReport().String())
}
