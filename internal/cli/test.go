package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rackscore/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // defaults to ../golden next to the scenarios
}

// TestResult holds the overall test result.
type TestResult struct {
	*harness.SuiteResult
}

// Text implements Texter.
func (r TestResult) Text(w io.Writer) {
	for _, s := range r.Scenarios {
		name := s.Scenario
		if name == "" {
			name = filepath.Base(s.Path)
		}
		if s.Pass {
			fmt.Fprintf(w, "✓ %s\n", name)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", name)
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
	if r.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run rule scenarios",
		Long: `Run every scenario in a directory against the rules engine.

Each scenario's steps must produce their expected outcomes and its
assertions must hold. When a golden trace exists for a scenario the
trace must match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  rackscore test ./scenarios
  rackscore test ./scenarios --filter "jcl9_*"
  rackscore test ./scenarios --update
  rackscore test ./scenarios --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden trace directory (default <scenarios-dir>/../golden)")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, dir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return f.Error(ExitCommandError, CodeNotFound, fmt.Sprintf("scenarios directory not found: %s", dir), nil)
	}

	paths, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return f.Error(ExitCommandError, CodeGeneric, err.Error(), nil)
	}
	if len(paths) == 0 {
		if f.JSON() {
			return f.Success(TestResult{&harness.SuiteResult{Scenarios: []harness.ScenarioOutcome{}}})
		}
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	}

	golden := opts.GoldenDir
	if golden == "" {
		golden = filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	}
	f.VerboseLog("Running %d scenario(s), golden traces in %s", len(paths), golden)

	suite, err := harness.RunSuite(ctx, paths, harness.GoldenCheck(golden, opts.Update))
	if err != nil {
		return f.Error(ExitCommandError, CodeGeneric, err.Error(), nil)
	}

	result := TestResult{suite}
	if suite.Failed > 0 {
		return f.Failure(ExitFailure, CodeTestFailed, fmt.Sprintf("%d scenario(s) failed", suite.Failed), result)
	}
	return f.Success(result)
}

// findScenarioFiles lists the scenarios in dir whose base name matches
// filter.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	paths, err := harness.FindScenarios(dir)
	if err != nil || filter == "" {
		return paths, err
	}

	var matched []string
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ok, err := filepath.Match(filter, name)
		if err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
		if ok {
			matched = append(matched, path)
		}
	}
	return matched, nil
}
