package commands

import (
	"fmt"
	"os"

	"github.com/framecheck-labs/framecheck/internal/cli/output"
	"github.com/framecheck-labs/framecheck/internal/loader"
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/report"
	"github.com/framecheck-labs/framecheck/pkg/validate"
	"github.com/spf13/cobra"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Contract     string  // Contract file path
	Query        string  // SQL query for database sources
	Profile      string  // Contract profile overlay
	Sample       float64 // Sampling fraction in (0, 1]
	By           string  // Stratification column
	Seed         int64   // Sampling seed
	MaxExamples  int     // Per-finding example cap
	WithSnapshot bool    // Embed a statistical snapshot in the report
	Format       string  // Output format: text, json, junit, markdown
	ReportPath   string  // Write the full JSON report here
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check <dataset>",
		Short: "Validate a dataset against its contract",
		Long: `Validate a dataset against a contract and report every finding.

The dataset is a CSV path or a SQL source URL (postgres://, duckdb://,
sqlite://) combined with --query. The command exits non-zero when any
error-severity finding fails; warning failures are reported but do not
affect the exit code.`,
		Example: `  # Validate a CSV against the default contract file
  framecheck check orders.csv

  # Validate with a profile, on a 10% sample, stratified by country
  framecheck check orders.csv --profile dev --sample 0.1 --by country

  # Validate a query result and emit JUnit XML for CI
  framecheck check "postgres://db/prod" --query "SELECT * FROM orders" --format junit`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query for database sources")
	cmd.Flags().StringVarP(&opts.Profile, "profile", "p", "", "Contract profile overlay")
	cmd.Flags().Float64Var(&opts.Sample, "sample", 0, "Sampling fraction in (0, 1]")
	cmd.Flags().StringVar(&opts.By, "by", "", "Stratify sampling and table rules by this column")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Sampling seed")
	cmd.Flags().IntVar(&opts.MaxExamples, "max-examples", 0, "Per-finding example cap")
	cmd.Flags().BoolVar(&opts.WithSnapshot, "with-snapshot", false, "Embed a statistical snapshot in the report")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, junit, markdown")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "Write the full JSON report to this path")

	return cmd
}

func runCheck(cmd *cobra.Command, source string, opts *CheckOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)
	log := GetLogger(ctx)

	contractPath := firstNonEmpty(opts.Contract, flagString(cmd, "contract"), cfg.Contract)
	c, err := contract.Load(contractPath)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}

	ds, err := loader.Load(ctx, source, opts.Query)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	log.Debug("dataset loaded", "source", source, "rows", ds.RowCount(), "columns", len(ds.ColumnNames()))

	runOpts := validate.Options{
		Profile:      firstNonEmpty(opts.Profile, cfg.Profile),
		Sample:       opts.Sample,
		By:           firstNonEmpty(opts.By, cfg.By),
		Seed:         opts.Seed,
		MaxExamples:  opts.MaxExamples,
		WithSnapshot: opts.WithSnapshot,
	}
	if runOpts.Sample == 0 {
		runOpts.Sample = cfg.Sample
	}
	if runOpts.Seed == 0 {
		runOpts.Seed = cfg.Seed
	}
	if runOpts.MaxExamples == 0 {
		runOpts.MaxExamples = cfg.MaxExamples
	}

	rep, err := validate.Run(ds, c, runOpts)
	if err != nil {
		return err
	}

	if opts.ReportPath != "" {
		raw, err := rep.ToJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.ReportPath, raw, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if err := renderReport(r, rep, opts.Format); err != nil {
		return err
	}
	if !rep.Summary.Passed {
		return fmt.Errorf("validation failed: %s", rep)
	}
	return nil
}

func renderReport(r *output.Renderer, rep *report.Report, format string) error {
	mode := output.Mode(format)
	if format == "" {
		mode = r.EffectiveMode()
	}
	switch mode {
	case output.ModeJSON:
		raw, err := rep.ToJSON()
		if err != nil {
			return err
		}
		r.Println(string(raw))
	case output.ModeJUnit:
		raw, err := rep.ToJUnit()
		if err != nil {
			return err
		}
		r.Println(string(raw))
	case output.ModeMarkdown:
		r.Println(rep.ToMarkdown())
	default:
		rep.Render(r.Out())
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
