package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/harness"
)

// PresetCheck is the validation outcome for one preset file.
type PresetCheck struct {
	Path   string                   `json:"path"`
	Valid  bool                     `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
	Match  *config.Match            `json:"match,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Presets []PresetCheck `json:"presets"`
}

// Text implements Texter.
func (r ValidationResult) Text(w io.Writer) {
	for _, p := range r.Presets {
		if p.Valid {
			m := p.Match
			fmt.Fprintf(w, "✓ %s: %s race %d-%d, %s breaks\n",
				p.Path, m.Variant, m.Targets[0], m.Targets[1], m.BreakRule)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", p.Path)
		for _, e := range p.Errors {
			fmt.Fprintf(w, "  %s: %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <preset.yaml>...",
		Short: "Validate match presets",
		Long: `Check preset files against the preset schema, then resolve each one
over the RACKSCORE_* environment defaults and validate the resulting match.

Exit codes:
  0 - All presets valid
  1 - One or more presets invalid
  2 - Command error (environment unreadable, etc.)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	defaults, err := config.LoadDefaults()
	if err != nil {
		return f.Error(ExitCommandError, CodeGeneric, err.Error(), nil)
	}

	result := ValidationResult{Valid: true, Presets: make([]PresetCheck, 0, len(paths))}
	for _, path := range paths {
		f.VerboseLog("Validating %s", path)
		check := checkPreset(defaults, path)
		if !check.Valid {
			result.Valid = false
		}
		result.Presets = append(result.Presets, check)
	}

	if !result.Valid {
		return f.Failure(ExitFailure, CodeInvalidPreset, "preset validation failed", result)
	}
	return f.Success(result)
}

func checkPreset(d config.Defaults, path string) PresetCheck {
	check := PresetCheck{Path: path}

	p, err := config.LoadPreset(path)
	if err == nil {
		seats := config.Preset{Players: harness.DefaultSeats[:]}
		var m config.Match
		if m, err = config.Resolve(d, seats, p); err == nil {
			check.Valid = true
			check.Match = &m
			return check
		}
	}

	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		check.Errors = verrs
	} else {
		check.Errors = []config.ValidationError{{Field: "preset", Code: config.ErrMalformedDocument, Message: err.Error()}}
	}
	return check
}
