package commands

import (
	"fmt"

	"github.com/framecheck-labs/framecheck/pkg/diff"
	"github.com/framecheck-labs/framecheck/pkg/snapshot"
	"github.com/spf13/cobra"
)

// DriftOptions holds options for the drift command.
type DriftOptions struct {
	NullRatio     float64 // Absolute null-ratio delta threshold
	Quantile      float64 // Relative quantile delta threshold
	DistinctCount float64 // Relative distinct-count delta threshold
	Churn         float64 // Top-value churn threshold
}

// NewDriftCommand creates the drift command.
func NewDriftCommand() *cobra.Command {
	opts := &DriftOptions{}
	cmd := &cobra.Command{
		Use:   "drift <baseline> <current>",
		Short: "Compare two snapshots for statistical drift",
		Long: `Compare a baseline snapshot against a newer one and report every
column whose statistics crossed a drift threshold. The command exits
non-zero when any drift is found, making it suitable as a CI gate.`,
		Example: `  # Compare yesterday's snapshot against today's
  framecheck drift baseline.json current.json

  # Loosen the quantile threshold to 25%
  framecheck drift baseline.json current.json --quantile-threshold 0.25`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrift(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.NullRatio, "null-ratio-threshold", 0, "Absolute null-ratio delta before drift breaks")
	cmd.Flags().Float64Var(&opts.Quantile, "quantile-threshold", 0, "Relative quantile delta before drift breaks")
	cmd.Flags().Float64Var(&opts.DistinctCount, "distinct-threshold", 0, "Relative distinct-count delta before drift breaks")
	cmd.Flags().Float64Var(&opts.Churn, "churn-threshold", 0, "Top-value churn before drift breaks")

	return cmd
}

func runDrift(cmd *cobra.Command, oldPath, newPath string, opts *DriftOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)

	oldSnap, err := snapshot.Load(oldPath)
	if err != nil {
		return fmt.Errorf("load baseline snapshot: %w", err)
	}
	newSnap, err := snapshot.Load(newPath)
	if err != nil {
		return fmt.Errorf("load current snapshot: %w", err)
	}

	thresholds := diff.Thresholds{
		NullRatio:     firstNonZero(opts.NullRatio, cfg.NullRatioThreshold),
		Quantile:      firstNonZero(opts.Quantile, cfg.QuantileThreshold),
		DistinctCount: opts.DistinctCount,
		CategoryChurn: firstNonZero(opts.Churn, cfg.ChurnThreshold),
	}
	rep, err := diff.Snapshots(oldSnap, newSnap, thresholds)
	if err != nil {
		return err
	}

	renderChanges(r, rep)
	if rep.IsBreaking() {
		return fmt.Errorf("drift detected: %d of %d changes crossed a threshold",
			len(rep.BreakingChanges()), len(rep.Changes))
	}
	return nil
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
