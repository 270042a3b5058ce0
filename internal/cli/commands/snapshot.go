package commands

import (
	"fmt"

	"github.com/framecheck-labs/framecheck/internal/loader"
	"github.com/framecheck-labs/framecheck/pkg/snapshot"
	"github.com/spf13/cobra"
)

// SnapshotOptions holds options for the snapshot command.
type SnapshotOptions struct {
	Query string // SQL query for database sources
	Out   string // Snapshot output path
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand() *cobra.Command {
	opts := &SnapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot <dataset>",
		Short: "Fingerprint a dataset into a snapshot file",
		Long: `Compute a compact statistical fingerprint of a dataset: per-column
null ratios, distinct counts, quantiles for ordered columns and top-value
frequencies for the rest. Snapshots are the input to the drift command.`,
		Example: `  # Snapshot a CSV
  framecheck snapshot orders.csv --out snapshots/orders-2026-08-30.json

  # Snapshot a query result
  framecheck snapshot "postgres://db/prod" --query "SELECT * FROM orders" --out baseline.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query for database sources")
	cmd.Flags().StringVar(&opts.Out, "out", "snapshot.json", "Snapshot output path")

	return cmd
}

func runSnapshot(cmd *cobra.Command, source string, opts *SnapshotOptions) error {
	ctx := cmd.Context()
	r := GetRenderer(ctx)

	ds, err := loader.Load(ctx, source, opts.Query)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	snap := snapshot.Take(ds)
	if err := snapshot.Save(snap, opts.Out); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	r.Success(fmt.Sprintf("snapshot of %d rows, %d columns written to %s",
		snap.RowCount, len(snap.Columns), opts.Out))
	return nil
}
