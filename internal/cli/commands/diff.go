package commands

import (
	"fmt"

	"github.com/framecheck-labs/framecheck/internal/cli/output"
	"github.com/framecheck-labs/framecheck/pkg/contract"
	"github.com/framecheck-labs/framecheck/pkg/diff"
	"github.com/spf13/cobra"
)

// DiffOptions holds options for the diff command.
type DiffOptions struct {
	AdditionsBreaking bool // Treat new non-nullable columns as breaking
}

// NewDiffCommand creates the diff command.
func NewDiffCommand() *cobra.Command {
	opts := &DiffOptions{}
	cmd := &cobra.Command{
		Use:   "diff <old-contract> <new-contract>",
		Short: "Compare two contract versions for breaking changes",
		Long: `Compare two contract files and classify every difference as breaking
or informational, judged from a consumer's point of view: removing a
column or tightening a rule breaks readers of the old contract, while
loosening does not. The command exits non-zero on any breaking change.`,
		Example: `  # Gate a contract change in CI
  framecheck diff contract.yaml contract-new.yaml

  # Consumer-facing dataset: new required columns also break
  framecheck diff contract.yaml contract-new.yaml --additions-breaking`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args[0], args[1], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.AdditionsBreaking, "additions-breaking", false, "Treat new non-nullable columns as breaking")

	return cmd
}

func runDiff(cmd *cobra.Command, oldPath, newPath string, opts *DiffOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	r := GetRenderer(ctx)

	oldC, err := contract.Load(oldPath)
	if err != nil {
		return fmt.Errorf("load old contract: %w", err)
	}
	newC, err := contract.Load(newPath)
	if err != nil {
		return fmt.Errorf("load new contract: %w", err)
	}

	policy := diff.Policy{AdditionsBreaking: opts.AdditionsBreaking || cfg.AdditionsBreaking}
	rep := diff.Contracts(oldC, newC, policy)

	renderChanges(r, rep)
	if rep.IsBreaking() {
		return fmt.Errorf("%s -> %s: %d breaking changes",
			oldC.Version, newC.Version, len(rep.BreakingChanges()))
	}
	return nil
}

// renderChanges prints a diff report in the renderer's mode. Shared by the
// diff and drift commands.
func renderChanges(r *output.Renderer, rep *diff.Report) {
	if r.EffectiveMode() == output.ModeJSON {
		_ = r.JSON(rep)
		return
	}
	if len(rep.Changes) == 0 {
		r.Success("no changes")
		return
	}
	styles := r.Styles()
	for _, c := range rep.Changes {
		label := styles.Muted.Render("  info    ")
		if c.Breaking {
			label = styles.Error.Render("  BREAKING")
		}
		target := c.Column
		if c.RuleID != "" {
			target = c.RuleID
		}
		line := fmt.Sprintf("%s  %-16s %-24s %s", label, c.Kind, target, c.Detail)
		if c.From != "" || c.To != "" {
			line += fmt.Sprintf(" (%s -> %s)", c.From, c.To)
		}
		r.Println(line)
	}
}
