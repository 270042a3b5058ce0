package commands

import (
	"fmt"
	"os"

	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/export"
	"github.com/spf13/cobra"
)

// ExportOptions holds options for the export command.
type ExportOptions struct {
	Format  string // Target format: sql, go, dbt, gx
	Dialect string // SQL dialect for --format sql
	Package string // Go package name for --format go
	Out     string // Output path, empty for stdout
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export [contract]",
		Short: "Export a contract to another toolchain",
		Long: `Render a contract as SQL DDL, Go struct definitions, a dbt schema
file or a Great Expectations suite. Every export consumes only the
contract itself, so the outputs stay in lockstep with validation.`,
		Example: `  # CREATE TABLE statement for Postgres
  framecheck export orders.yaml --format sql --dialect postgres

  # Go structs for the ingestion service
  framecheck export orders.yaml --format go --package orders --out orders_gen.go

  # dbt schema tests
  framecheck export orders.yaml --format dbt --out models/schema.yml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runExport(cmd, path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "sql", "Target format: sql, go, dbt, gx")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "postgres", "SQL dialect: postgres, sqlite, duckdb, bigquery")
	cmd.Flags().StringVar(&opts.Package, "package", "contracts", "Package name for Go exports")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output path (default: stdout)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sql", "go", "dbt", "gx"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "sqlite", "duckdb", "bigquery"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runExport(cmd *cobra.Command, path string, opts *ExportOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)

	contractPath := firstNonEmpty(path, flagString(cmd, "contract"), cfg.Contract)
	c, err := contract.Load(contractPath)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}

	var rendered []byte
	switch opts.Format {
	case "sql":
		dialect, err := export.ParseDialect(opts.Dialect)
		if err != nil {
			return err
		}
		out, err := export.SQL(c, dialect)
		if err != nil {
			return err
		}
		rendered = []byte(out)
	case "go":
		out, err := export.GoTypes(c, opts.Package)
		if err != nil {
			return err
		}
		rendered = []byte(out)
	case "dbt":
		rendered, err = export.Dbt(c)
		if err != nil {
			return err
		}
	case "gx":
		rendered, err = export.GreatExpectations(c)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown export format %q (want sql, go, dbt or gx)", opts.Format)
	}

	if opts.Out == "" {
		r.Printf("%s", rendered)
		return nil
	}
	if err := os.WriteFile(opts.Out, rendered, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	r.Success(fmt.Sprintf("%s export of %s written to %s", opts.Format, c.Name, opts.Out))
	return nil
}
