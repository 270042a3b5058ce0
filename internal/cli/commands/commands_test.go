package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/framecheck-labs/framecheck/internal/cli/config"
	"github.com/framecheck-labs/framecheck/internal/cli/output"
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCheckCommand(t *testing.T) {
	cmd := NewCheckCommand()

	assert.Equal(t, "check <dataset>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"query", "profile", "sample", "by", "seed", "max-examples", "with-snapshot", "format", "report"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewInitCommand(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init <dataset>", cmd.Use)
	for _, flag := range []string{"query", "name", "out", "force", "max-enum"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewDiffCommand(t *testing.T) {
	cmd := NewDiffCommand()

	assert.Equal(t, "diff <old-contract> <new-contract>", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("additions-breaking"))
}

func TestNewDriftCommand(t *testing.T) {
	cmd := NewDriftCommand()

	assert.Equal(t, "drift <baseline> <current>", cmd.Use)
	for _, flag := range []string{"null-ratio-threshold", "quantile-threshold", "distinct-threshold", "churn-threshold"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewExportCommand(t *testing.T) {
	cmd := NewExportCommand()

	assert.Equal(t, "export [contract]", cmd.Use)
	for _, flag := range []string{"format", "dialect", "package", "out"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

// testContext wires a config and a buffer-backed markdown renderer the way
// the root command's PersistentPreRunE does.
func testContext(cfg *config.Config) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	ctx := WithConfig(context.Background(), cfg)
	ctx = WithRenderer(ctx, output.NewRenderer(&buf, &buf, output.ModeMarkdown))
	return ctx, &buf
}

func fp(v float64) *float64 { return &v }

func writeOrdersContract(t *testing.T, dir string) string {
	t.Helper()
	c := &contract.Contract{
		Name:    "orders",
		Version: "1.0.0",
		Columns: []contract.ColumnSpec{
			{Name: "order_id", DType: contract.Integer, Rules: []contract.Rule{
				{ID: "order_id.unique", Kind: contract.UniquenessRule,
					Severity: contract.SeverityError, Uniqueness: &contract.UniquenessParams{}},
			}},
			{Name: "amount", DType: contract.Float, Rules: []contract.Rule{
				{ID: "amount.range", Kind: contract.RangeRule, Severity: contract.SeverityError,
					Range: &contract.RangeParams{Min: fp(0), Max: fp(10000)}},
			}},
		},
	}
	path := filepath.Join(dir, "contract.yaml")
	require.NoError(t, contract.Save(c, path))
	return path
}

func writeCSV(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCheckRunsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	contractPath := writeOrdersContract(t, dir)
	csvPath := writeCSV(t, dir, "order_id,amount\n1,10.5\n2,20.0\n3,0.5\n")

	ctx, buf := testContext(&config.Config{Contract: contractPath})
	cmd := NewCheckCommand()
	cmd.SetArgs([]string{csvPath, "--format", "markdown"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), "Validation passed")
}

func TestCheckFailsOnViolations(t *testing.T) {
	dir := t.TempDir()
	contractPath := writeOrdersContract(t, dir)
	csvPath := writeCSV(t, dir, "order_id,amount\n1,10.5\n1,-3.0\n")

	ctx, buf := testContext(&config.Config{Contract: contractPath})
	cmd := NewCheckCommand()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs([]string{csvPath, "--format", "markdown"})

	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, buf.String(), "amount.range")
}

func TestCheckRendersJUnit(t *testing.T) {
	dir := t.TempDir()
	contractPath := writeOrdersContract(t, dir)
	csvPath := writeCSV(t, dir, "order_id,amount\n1,10.5\n")

	ctx, buf := testContext(&config.Config{Contract: contractPath})
	cmd := NewCheckCommand()
	cmd.SetArgs([]string{csvPath, "--format", string(output.ModeJUnit)})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, buf.String(), "<testsuite")
}

func TestCheckWritesReportArtifact(t *testing.T) {
	dir := t.TempDir()
	contractPath := writeOrdersContract(t, dir)
	csvPath := writeCSV(t, dir, "order_id,amount\n1,10.5\n")
	reportPath := filepath.Join(dir, "report.json")

	ctx, _ := testContext(&config.Config{Contract: contractPath})
	cmd := NewCheckCommand()
	cmd.SetArgs([]string{csvPath, "--format", "markdown", "--report", reportPath})

	require.NoError(t, cmd.ExecuteContext(ctx))
	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"contract_name": "orders"`)
}

func TestSnapshotThenDriftEndToEnd(t *testing.T) {
	dir := t.TempDir()
	baseCSV := writeCSV(t, dir, "order_id,amount\n1,10.5\n2,11.0\n3,10.0\n")

	ctx, _ := testContext(&config.Config{})
	basePath := filepath.Join(dir, "base.json")
	snapCmd := NewSnapshotCommand()
	snapCmd.SetArgs([]string{baseCSV, "--out", basePath})
	require.NoError(t, snapCmd.ExecuteContext(ctx))

	// Same data drifts against itself not at all.
	driftCmd := NewDriftCommand()
	driftCmd.SetArgs([]string{basePath, basePath})
	require.NoError(t, driftCmd.ExecuteContext(ctx))
}

func TestInitInfersContractFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "order_id,amount\n1,10.5\n2,20.0\n")
	outPath := filepath.Join(dir, "inferred.yaml")

	ctx, _ := testContext(&config.Config{})
	cmd := NewInitCommand()
	cmd.SetArgs([]string{csvPath, "--name", "orders", "--out", outPath})
	require.NoError(t, cmd.ExecuteContext(ctx))

	c, err := contract.Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, "orders", c.Name)
	assert.NotNil(t, c.Column("amount"))

	// A second run without --force refuses to clobber the file.
	again := NewInitCommand()
	again.SilenceUsage = true
	again.SilenceErrors = true
	again.SetArgs([]string{csvPath, "--out", outPath})
	require.Error(t, again.ExecuteContext(ctx))
}
