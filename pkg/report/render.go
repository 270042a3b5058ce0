package report

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/jedib0t/go-pretty/v6/table"
)

// ToJSON encodes the full report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

// Header and rows of the row-per-finding tabular export.
var rowHeader = []string{"rule_id", "kind", "column", "group", "severity", "status", "count", "observed", "message"}

// Rows renders one row per finding, for CSV-style CI artifacts. The first
// row is the header.
func (r *Report) Rows() [][]string {
	out := make([][]string, 0, len(r.Findings)+1)
	out = append(out, rowHeader)
	for _, f := range r.Findings {
		out = append(out, []string{
			f.RuleID, string(f.Kind), f.Column, f.Group, string(f.Severity),
			findingStatus(&f), strconv.Itoa(f.Count), f.Observed, f.Message,
		})
	}
	return out
}

func findingStatus(f *Finding) string {
	switch {
	case f.Skipped:
		return "skipped"
	case f.Passed:
		return "passed"
	default:
		return "failed"
	}
}

// =============================================================================
// JUnit
// =============================================================================

type junitSuite struct {
	XMLName   xml.Name    `xml:"testsuite"`
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Failure   *junitMessage `xml:"failure,omitempty"`
	Skip      *junitMessage `xml:"skipped,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// ToJUnit renders the report as a JUnit XML test suite: one test case per
// finding, failures for failed error findings, skips for warnings and
// explicit skips. CI systems ingest this directly.
func (r *Report) ToJUnit() ([]byte, error) {
	suite := junitSuite{
		Name:      fmt.Sprintf("framecheck:%s", r.ContractName),
		Tests:     len(r.Findings),
		Timestamp: r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
	for _, f := range r.Findings {
		c := junitCase{ClassName: string(f.Kind), Name: caseName(&f)}
		switch {
		case f.Failed() && f.Severity == contract.SeverityError:
			suite.Failures++
			c.Failure = &junitMessage{Message: f.Message, Body: fmt.Sprintf("count: %d, observed: %s", f.Count, f.Observed)}
		case f.Failed() || f.Skipped:
			suite.Skipped++
			c.Skip = &junitMessage{Message: f.Message}
		}
		suite.Cases = append(suite.Cases, c)
	}
	raw, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding junit report: %w", err)
	}
	return append([]byte(xml.Header), raw...), nil
}

func caseName(f *Finding) string {
	if f.Column != "" {
		return f.Column + "." + f.RuleID
	}
	return f.RuleID
}

// =============================================================================
// Markdown
// =============================================================================

// ToMarkdown renders a GitHub-flavored Markdown summary suitable for posting
// on a pull request.
func (r *Report) ToMarkdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## framecheck: %s@%s\n\n", r.ContractName, r.ContractVersion)
	if r.Summary.Passed {
		b.WriteString("✅ Validation passed")
	} else {
		b.WriteString("❌ Validation failed")
	}
	fmt.Fprintf(&b, " - %d rows, %d findings (%d errors, %d warnings, %d skipped)\n",
		r.Summary.Rows, r.Summary.Total, r.Summary.FailedErrors, r.Summary.FailedWarns, r.Summary.SkippedCount)
	failed := r.FailedFindings()
	if len(failed) == 0 {
		return b.String()
	}
	b.WriteString("\n| Rule | Column | Severity | Count | Message |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, f := range failed {
		fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n", f.RuleID, f.Column, f.Severity, f.Count, f.Message)
	}
	return b.String()
}

// =============================================================================
// Terminal
// =============================================================================

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// Render writes a styled human-readable report to w: a status line, run
// metadata and a table of non-passing findings.
func (r *Report) Render(w io.Writer) {
	if r.Summary.Passed {
		fmt.Fprintln(w, passStyle.Render("VALIDATION PASSED"))
	} else {
		fmt.Fprintln(w, failStyle.Render("VALIDATION FAILED"))
	}
	meta := fmt.Sprintf("contract %s@%s", r.ContractName, r.ContractVersion)
	if r.Profile != "" {
		meta += ", profile " + r.Profile
	}
	if !r.Sample.Full() {
		meta += fmt.Sprintf(", sample %.0f%%", r.Sample.Fraction*100)
		if r.Sample.By != "" {
			meta += " by " + r.Sample.By
		}
	}
	fmt.Fprintln(w, dimStyle.Render(meta))
	fmt.Fprintf(w, "rows: %d  columns: %d  duration: %dms\n",
		r.Summary.Rows, r.Summary.Columns, r.Summary.DurationMilli)

	interesting := make([]Finding, 0, len(r.Findings))
	for _, f := range r.Findings {
		if !f.Passed {
			interesting = append(interesting, f)
		}
	}
	if len(interesting) == 0 {
		fmt.Fprintln(w, "no violations detected")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rule", "Column", "Severity", "Status", "Count", "Message"})
	for _, f := range interesting {
		t.AppendRow(table.Row{f.RuleID, f.Column, string(f.Severity), findingStatus(&f), f.Count, f.Message})
	}
	t.Render()
}
