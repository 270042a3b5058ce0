package commands

import (
	"fmt"
	"os"

	"github.com/framecheck-labs/framecheck/internal/loader"
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/infer"
	"github.com/spf13/cobra"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Query       string // SQL query for database sources
	Name        string // Contract name
	Out         string // Output contract path
	Force       bool   // Overwrite an existing contract file
	MaxEnum     int    // Enum cardinality cutoff
	ShowChoices bool   // Print inference notes
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}
	cmd := &cobra.Command{
		Use:   "init <dataset>",
		Short: "Infer a contract from a dataset",
		Long: `Profile a dataset and write a conservative starter contract.

Inferred bounds are widened beyond the observed extremes, enum rules are
only emitted for low-cardinality columns, and columns are nullable only
when the sample actually contains nulls. The result is a starting point
meant to be reviewed, not a finished contract.`,
		Example: `  # Infer from a CSV into the default contract file
  framecheck init orders.csv

  # Infer from a query, with a custom name and destination
  framecheck init "duckdb://warehouse.db" --query "SELECT * FROM orders" --name orders -o json > orders.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query for database sources")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Contract name (default: derived from output path)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Output contract path (default: the configured contract file)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing contract file")
	cmd.Flags().IntVar(&opts.MaxEnum, "max-enum", 0, "Enum cardinality cutoff")
	cmd.Flags().BoolVar(&opts.ShowChoices, "explain", false, "Print the choices inference made")

	return cmd
}

func runInit(cmd *cobra.Command, source string, opts *InitOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)

	ds, err := loader.Load(ctx, source, opts.Query)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	res, err := infer.Infer(ds, infer.Options{
		Name:               opts.Name,
		EnumMaxCardinality: opts.MaxEnum,
	})
	if err != nil {
		return err
	}

	out := firstNonEmpty(opts.Out, flagString(cmd, "contract"), cfg.Contract)
	if !opts.Force {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("contract file %s already exists (use --force to overwrite)", out)
		}
	}
	if err := contract.Save(res.Contract, out); err != nil {
		return fmt.Errorf("write contract: %w", err)
	}

	r.Success(fmt.Sprintf("inferred contract %s with %d columns written to %s",
		res.Contract.Name, len(res.Contract.Columns), out))
	if opts.ShowChoices {
		for _, s := range res.Suggestions {
			r.Println("  " + s)
		}
	}
	return nil
}
