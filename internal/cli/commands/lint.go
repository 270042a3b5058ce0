package commands

import (
	"fmt"

	"github.com/framecheck-labs/framecheck/internal/cli/output"
	"github.com/framecheck-labs/framecheck/internal/loader"
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/dataset"
	"github.com/framecheck-labs/framecheck/pkg/lint"
	"github.com/spf13/cobra"
)

// LintOptions holds options for the lint command.
type LintOptions struct {
	Data  string // Dataset for dataset-aware checks
	Query string // SQL query for database sources
	Apply bool   // Apply fixable suggestions and bump the version
	Out   string // Where to write the fixed contract (default: in place)
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint [contract]",
		Short: "Lint a contract for smells and fixable issues",
		Long: `Check a contract for duplicate rules, single-member enums, disabled
rules and, when a dataset is supplied, rules that disagree with the data:
nullable columns that never contain nulls, bounds far wider than anything
observed. With --apply the fixable suggestions are applied and the
contract's minor version is bumped.`,
		Example: `  # Static lint of the default contract
  framecheck lint

  # Dataset-aware lint
  framecheck lint orders.yaml --data orders.csv

  # Apply fixes in place, bumping the version
  framecheck lint orders.yaml --data orders.csv --apply`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runLint(cmd, path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Data, "data", "", "Dataset for dataset-aware checks")
	cmd.Flags().StringVar(&opts.Query, "query", "", "SQL query for database sources")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "Apply fixable suggestions and bump the minor version")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the fixed contract here instead of in place")

	return cmd
}

func runLint(cmd *cobra.Command, path string, opts *LintOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)

	contractPath := firstNonEmpty(path, flagString(cmd, "contract"), cfg.Contract)
	c, err := contract.Load(contractPath)
	if err != nil {
		return fmt.Errorf("load contract: %w", err)
	}

	var ds dataset.Dataset
	if opts.Data != "" {
		ds, err = loader.Load(ctx, opts.Data, opts.Query)
		if err != nil {
			return fmt.Errorf("load dataset: %w", err)
		}
	}

	res, err := lint.Check(c, ds)
	if err != nil {
		return err
	}

	renderSuggestions(r, res)
	if !opts.Apply || len(res.Suggestions) == 0 {
		return nil
	}

	fixed, err := res.Apply(c)
	if err != nil {
		return err
	}
	out := firstNonEmpty(opts.Out, contractPath)
	if err := contract.Save(fixed, out); err != nil {
		return fmt.Errorf("write contract: %w", err)
	}
	r.Success(fmt.Sprintf("applied fixes, %s is now version %s", out, fixed.Version))
	return nil
}

func renderSuggestions(r *output.Renderer, res *lint.Result) {
	if r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(res.Suggestions)
		return
	}
	if len(res.Suggestions) == 0 {
		r.Success("no lint findings")
		return
	}
	styles := r.Styles()
	for i := range res.Suggestions {
		s := &res.Suggestions[i]
		label := styles.Warning.Render("fixable ")
		if s.Advisory() {
			label = styles.Muted.Render("advisory")
		}
		r.Printf("  %s  %-20s %s\n", label, s.Check, s.Message)
	}
}
