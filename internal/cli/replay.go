package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	MatchID  string // optional - one match only
}

// ReplayMatchResult holds the replay result for a single match.
type ReplayMatchResult struct {
	MatchID  string             `json:"match_id"`
	Commands int                `json:"commands"`
	Declined int                `json:"declined"`
	Phase    match.Phase        `json:"phase"`
	Scores   [2]int             `json:"scores"`
	Winner   string             `json:"winner,omitempty"`
	Reason   match.WinCondition `json:"win_condition,omitempty"`

	// ClockDeclined counts clock commands declined on replay. Ticks are
	// not journaled, so these are expected and do not fail verification.
	ClockDeclined int `json:"clock_declined,omitempty"`

	// Deterministic is true when two replays reach the same state.
	Deterministic bool `json:"deterministic"`

	// MatchesArchive is true when the replayed outcome agrees with the
	// archived result (or neither has one).
	MatchesArchive bool   `json:"matches_archive"`
	Problem        string `json:"problem,omitempty"`
}

// OK reports whether the match replayed cleanly.
func (r ReplayMatchResult) OK() bool {
	return r.Deterministic && r.MatchesArchive && r.Declined == 0
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Matches      []ReplayMatchResult `json:"matches"`
	TotalMatches int                 `json:"total_matches"`
	AllVerified  bool                `json:"all_verified"`

	verbose bool
}

// Text implements Texter.
func (r ReplayResult) Text(w io.Writer) {
	if r.TotalMatches == 0 {
		fmt.Fprintln(w, "No matches found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d match(es)\n", r.TotalMatches)
	fmt.Fprintln(w)

	for _, m := range r.Matches {
		status := "✓"
		if !m.OK() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Match: %s\n", status, m.MatchID)
		fmt.Fprintf(w, "  %d command(s), %s, score %d-%d\n", m.Commands, m.Phase, m.Scores[0], m.Scores[1])
		if m.Winner != "" {
			fmt.Fprintf(w, "  Winner: %s (%s)\n", m.Winner, m.Reason)
		}
		if r.verbose {
			fmt.Fprintf(w, "  Deterministic: %v\n", m.Deterministic)
			fmt.Fprintf(w, "  Matches archive: %v\n", m.MatchesArchive)
		}
		if m.Problem != "" {
			fmt.Fprintf(w, "  Warning: %s\n", m.Problem)
		}
		fmt.Fprintln(w)
	}

	if r.AllVerified {
		fmt.Fprintln(w, "✓ All matches verified")
		return
	}
	fmt.Fprintln(w, "✗ Replay verification failed")
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journaled matches and verify their results",
		Long: `Re-execute the accepted commands journaled for each match, twice,
and check that both runs agree with each other and with the archived
result.

Exit codes:
  0 - All matches verified
  1 - A replay diverged from itself or from the archive
  2 - Command error (database not found, etc.)

Examples:
  rackscore replay --db ./rackscore.db
  rackscore replay --db ./rackscore.db --match 0190a1b2-...
  rackscore replay --db ./rackscore.db --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.MatchID, "match", "", "replay one match only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.Error(ExitCommandError, CodeDatabase, "failed to open database: "+err.Error(), nil)
	}
	defer st.Close()

	ids := []string{opts.MatchID}
	if opts.MatchID == "" {
		if ids, err = st.MatchIDs(ctx); err != nil {
			return f.Error(ExitCommandError, CodeDatabase, "failed to list matches: "+err.Error(), nil)
		}
	}

	result := ReplayResult{
		Matches:      make([]ReplayMatchResult, 0, len(ids)),
		TotalMatches: len(ids),
		AllVerified:  true,
		verbose:      opts.Verbose,
	}

	for _, id := range ids {
		f.VerboseLog("Replaying %s", id)
		m, err := replayMatch(ctx, st, id)
		if errors.Is(err, store.ErrNoMatch) {
			return f.Error(ExitCommandError, CodeNotFound, err.Error(), nil)
		}
		if err != nil {
			return f.Error(ExitCommandError, CodeGeneric, fmt.Sprintf("failed to replay match %s: %v", id, err), nil)
		}
		if !m.OK() {
			result.AllVerified = false
		}
		result.Matches = append(result.Matches, m)
	}

	if !result.AllVerified {
		return f.Failure(ExitFailure, CodeReplayDiverged, "replay verification failed", result)
	}
	return f.Success(result)
}

// replayMatch re-executes one match twice and checks it against the
// archive.
func replayMatch(ctx context.Context, st *store.Store, id string) (ReplayMatchResult, error) {
	cfg, cmds, err := st.MatchCommands(ctx, id)
	if err != nil {
		return ReplayMatchResult{}, err
	}

	first, errs, err := match.Replay(cfg, cmds)
	if err != nil {
		return ReplayMatchResult{}, fmt.Errorf("first replay failed: %w", err)
	}
	second, _, err := match.Replay(cfg, cmds)
	if err != nil {
		return ReplayMatchResult{}, fmt.Errorf("second replay failed: %w", err)
	}

	st1 := first.State()
	out := ReplayMatchResult{
		MatchID:       id,
		Commands:      len(cmds),
		Phase:         st1.Table.Phase,
		Scores:        st1.Table.Scores,
		Deterministic: reflect.DeepEqual(st1, second.State()),
	}
	for i, e := range errs {
		if e == nil {
			continue
		}
		if isClockAction(cmds[i].Action) {
			out.ClockDeclined++
			continue
		}
		out.Declined++
		if out.Problem == "" {
			out.Problem = fmt.Sprintf("journaled command %d (%s) was declined on replay: %v", i+1, cmds[i], e)
		}
	}

	replayed := first.Result()
	if replayed != nil {
		out.Winner = replayed.Winner.ID
		out.Reason = replayed.WinCondition
	}

	archived, err := st.ReadResult(ctx, id)
	switch {
	case errors.Is(err, store.ErrNoMatch):
		out.MatchesArchive = replayed == nil
		if !out.MatchesArchive {
			out.Problem = "replay decided a match that has no archived result"
		}
	case err != nil:
		return ReplayMatchResult{}, err
	case replayed == nil:
		// Resumed after the archive was written and not decided again.
		out.MatchesArchive = true
	default:
		out.MatchesArchive = sameOutcome(*replayed, archived)
		if !out.MatchesArchive {
			out.Problem = fmt.Sprintf("archive says %s won %d-%d (%s)",
				archived.Winner.ID, archived.FinalScore[0], archived.FinalScore[1], archived.WinCondition)
		}
	}

	if !out.Deterministic && out.Problem == "" {
		out.Problem = "two replays reached different states"
	}
	return out, nil
}

func isClockAction(a match.Action) bool {
	return a == match.ActionUseExtension || a == match.ActionTogglePause
}

func sameOutcome(a, b match.Result) bool {
	return a.Winner.ID == b.Winner.ID &&
		a.FinalScore == b.FinalScore &&
		a.WinCondition == b.WinCondition &&
		a.TotalRacks == b.TotalRacks &&
		a.TotalInnings == b.TotalInnings
}
