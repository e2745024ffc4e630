package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rackscore/internal/rules"
)

// RulesResult is the variant catalog.
type RulesResult struct {
	Variants []rules.Rules `json:"variants"`
}

// Text implements Texter.
func (r RulesResult) Text(w io.Writer) {
	for _, v := range r.Variants {
		fmt.Fprintf(w, "%-10s %s\n", v.Variant, v.DisplayName)
		fmt.Fprintf(w, "  race to %d %s, end ball %d\n", v.DefaultTarget, v.Unit, v.EndBall)
		fmt.Fprintf(w, "  hill-hill: %s  three-foul: %s  re-rack on end ball: %s\n",
			yesNo(v.HillHillEligible), yesNo(v.ThreeFoulSupported), yesNo(v.ResetsOnEndBall))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [variant]",
		Short: "List the supported variants",
		Long: `List the rule variants and what each one scores.

Examples:
  rackscore rules
  rackscore rules jcl9 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			result := RulesResult{Variants: rules.All()}
			if len(args) == 1 {
				v, err := rules.ParseVariant(args[0])
				if err != nil {
					return f.Error(ExitCommandError, CodeNotFound, err.Error(), nil)
				}
				result.Variants = []rules.Rules{rules.MustLookup(v)}
			}
			return f.Success(result)
		},
	}
}
