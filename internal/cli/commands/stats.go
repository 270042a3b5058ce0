package commands

import (
	"fmt"

	"github.com/framecheck-labs/framecheck/internal/cli/output"
	"github.com/framecheck-labs/framecheck/internal/loader"
	"github.com/framecheck-labs/framecheck/pkg/snapshot"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// StatsOptions holds options for the stats command.
type StatsOptions struct {
	Query string // SQL query for database sources
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &StatsOptions{}
	cmd := &cobra.Command{
		Use:   "stats <dataset>",
		Short: "Print per-column statistics of a dataset",
		Long: `Profile a dataset and print its per-column statistics: the same
numbers a snapshot records, rendered for humans instead of files.`,
		Example: `  framecheck stats orders.csv
  framecheck stats "sqlite://orders.db" --query "SELECT * FROM orders"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query for database sources")

	return cmd
}

func runStats(cmd *cobra.Command, source string, opts *StatsOptions) error {
	ctx := cmd.Context()
	r := GetRenderer(ctx)

	ds, err := loader.Load(ctx, source, opts.Query)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	snap := snapshot.Take(ds)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(snap)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Out())
	t.AppendHeader(table.Row{"column", "dtype", "nulls", "distinct", "mean", "p50", "top value"})
	for _, cs := range snap.Columns {
		t.AppendRow(table.Row{
			cs.Name,
			cs.DType,
			fmt.Sprintf("%.2f%%", cs.NullRatio*100),
			cs.DistinctCount,
			formatMean(&cs),
			formatMedian(&cs),
			formatTopValue(&cs),
		})
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.SetStyle(table.StyleRounded)
		t.Render()
	}
	r.Printf("%d rows\n", snap.RowCount)
	return nil
}

func formatMean(cs *snapshot.ColumnStats) string {
	if len(cs.Quantiles) == 0 {
		return "-"
	}
	return fmt.Sprintf("%.4g", cs.Mean)
}

func formatMedian(cs *snapshot.ColumnStats) string {
	for _, q := range cs.Quantiles {
		if q.P == 0.5 {
			return fmt.Sprintf("%.4g", q.Value)
		}
	}
	return "-"
}

func formatTopValue(cs *snapshot.ColumnStats) string {
	if len(cs.TopValues) == 0 {
		return "-"
	}
	tv := cs.TopValues[0]
	return fmt.Sprintf("%s (%.0f%%)", tv.Value, tv.Ratio*100)
}
