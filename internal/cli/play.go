package cli

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/engine"
	"github.com/roach88/rackscore/internal/harness"
	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/metrics"
	"github.com/roach88/rackscore/internal/store"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string
	Metrics  bool
}

// PlayResult is a played scenario.
type PlayResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Errors   []string             `json:"errors,omitempty"`
	MatchID  string               `json:"match_id"`
	Trace    []harness.TraceEvent `json:"trace"`
	Result   *match.Result        `json:"result,omitempty"`
	Metrics  map[string]float64   `json:"metrics,omitempty"`

	trace []byte
}

// Text implements Texter.
func (r PlayResult) Text(w io.Writer) {
	_, _ = w.Write(r.trace)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "✗ %s\n", e)
	}
	if len(r.Metrics) > 0 {
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w, "metrics:")
		for _, name := range names {
			fmt.Fprintf(w, "  %s %g\n", name, r.Metrics[name])
		}
	}
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <scenario.yaml>",
		Short: "Play a scripted match",
		Long: `Play the steps of a scenario file through the match engine and print
the trace. The scenario's preset is layered over the RACKSCORE_*
environment defaults.

With --db the match is journaled to a SQLite database and the decided
result is merged into the player records kept there.

Exit codes:
  0 - Every step and assertion held
  1 - A step or assertion failed
  2 - Command error (scenario unreadable, database error, etc.)

Examples:
  rackscore play match.yaml
  rackscore play match.yaml --db ./rackscore.db --metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database for the journal and roster")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report match metrics")

	return cmd
}

func runPlay(ctx context.Context, opts *PlayOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return f.Error(ExitCommandError, CodeNotFound, err.Error(), nil)
	}

	defaults, err := config.LoadDefaults()
	if err != nil {
		return f.Error(ExitCommandError, CodeGeneric, err.Error(), nil)
	}

	registry := prometheus.NewRegistry()
	runOpts := harness.Options{
		Defaults:  &defaults,
		Observers: []engine.Observer{metrics.NewMetrics(registry)},
	}

	if opts.Database != "" {
		st, err := openStore(ctx, opts.Database)
		if err != nil {
			return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
		}
		defer st.Close()
		last, err := st.LastSeq(ctx)
		if err != nil {
			return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
		}
		runOpts.Roster = st
		runOpts.Journal = st
		runOpts.IDs = engine.UUIDv7Generator{}
		runOpts.Sequencer = engine.NewSequencerAt(last)
		f.VerboseLog("Journaling to %s", opts.Database)
	}

	result, err := harness.RunWithOptions(ctx, scenario, runOpts)
	if err != nil {
		return f.Error(ExitCommandError, CodeGeneric, err.Error(), nil)
	}

	out := PlayResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Errors:   result.Errors,
		MatchID:  result.State.MatchID,
		Trace:    result.Trace,
		Result:   result.State.Result,
		trace:    harness.FormatTrace(scenario.Name, result),
	}
	if opts.Metrics {
		if out.Metrics, err = summarize(registry); err != nil {
			return f.Error(ExitCommandError, CodeGeneric, err.Error(), nil)
		}
	}

	if !result.Pass {
		return f.Failure(ExitFailure, CodeTestFailed,
			fmt.Sprintf("scenario %s failed with %d error(s)", scenario.Name, len(result.Errors)), out)
	}
	return f.Success(out)
}

// openStore opens the database and makes sure the default seats exist.
func openStore(ctx context.Context, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.SeedBuiltin(ctx, harness.DefaultSeats[:]...); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// summarize totals each gathered family: counter values, histogram
// sample counts.
func summarize(registry *prometheus.Registry) (map[string]float64, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	totals := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				totals[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				totals[mf.GetName()+"_count"] += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return totals, nil
}
