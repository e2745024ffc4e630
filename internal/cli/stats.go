package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/roster"
)

// DatabaseOptions holds the --db flag shared by the roster commands.
type DatabaseOptions struct {
	*RootOptions
	Database string
}

// PlayerRecord is a roster entry with its derived ratios.
type PlayerRecord struct {
	roster.Player
	Derived roster.Derived `json:"derived"`
}

// StatsResult is the roster report.
type StatsResult struct {
	Players []PlayerRecord `json:"players"`
}

// Text implements Texter.
func (r StatsResult) Text(w io.Writer) {
	if len(r.Players) == 0 {
		fmt.Fprintln(w, "No players registered.")
		return
	}
	for _, p := range r.Players {
		s, d := p.Stats, p.Derived
		fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
		fmt.Fprintf(w, "  games %d won %d (%.1f%%)\n", s.GamesPlayed, s.GamesWon, d.WinRate)
		fmt.Fprintf(w, "  shots %d pocketed %d accuracy %.1f%%\n", s.TotalShots, s.TotalBallsPocketed, d.Accuracy)
		fmt.Fprintf(w, "  per game %.2f per inning %.2f perfect clears %d\n",
			d.AverageBallsPerGame, d.AverageBallsPerInning, s.PerfectClears)
		fmt.Fprintf(w, "  safeties %d fouls %d\n", s.TotalSafeties, s.TotalFouls)
	}
}

func newRecord(p roster.Player) PlayerRecord {
	return PlayerRecord{Player: p, Derived: p.Stats.Derived()}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DatabaseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats [player-id]...",
		Short: "Show lifetime player records",
		Long: `Show each player's lifetime record and derived ratios: accuracy,
win rate, balls per game and balls per inning.

Examples:
  rackscore stats --db ./rackscore.db
  rackscore stats --db ./rackscore.db p1 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newRegisterCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))

	return cmd
}

func runStats(ctx context.Context, opts *DatabaseOptions, ids []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(ctx, opts.Database)
	if err != nil {
		return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
	}
	defer st.Close()

	var players []roster.Player
	if len(ids) == 0 {
		if players, err = st.Players(ctx); err != nil {
			return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
		}
	}
	for _, id := range ids {
		p, err := st.Player(ctx, id)
		if errors.Is(err, roster.ErrNotFound) {
			return f.Error(ExitCommandError, CodeNotFound, fmt.Sprintf("player %s not found", id), nil)
		}
		if err != nil {
			return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
		}
		players = append(players, p)
	}

	result := StatsResult{Players: make([]PlayerRecord, 0, len(players))}
	for _, p := range players {
		result.Players = append(result.Players, newRecord(p))
	}
	return f.Success(result)
}

func newRegisterCommand(opts *DatabaseOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <player-id> <name>",
		Short: "Add a player or rename one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

			st, err := openStore(ctx, opts.Database)
			if err != nil {
				return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
			}
			defer st.Close()

			p, err := st.Register(ctx, config.PlayerRef{ID: args[0], Name: args[1]})
			if err != nil {
				return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
			}
			return f.Success(StatsResult{Players: []PlayerRecord{newRecord(p)}})
		},
	}
}

func newDeleteCommand(opts *DatabaseOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <player-id>",
		Short: "Remove a registered player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

			st, err := openStore(ctx, opts.Database)
			if err != nil {
				return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
			}
			defer st.Close()

			switch err := st.Delete(ctx, args[0]); {
			case errors.Is(err, roster.ErrNotFound):
				return f.Error(ExitCommandError, CodeNotFound, fmt.Sprintf("player %s not found", args[0]), nil)
			case errors.Is(err, roster.ErrBuiltin):
				return f.Error(ExitFailure, CodeGeneric, err.Error(), nil)
			case err != nil:
				return f.Error(ExitCommandError, CodeDatabase, err.Error(), nil)
			}

			if f.JSON() {
				return f.Success(map[string]string{"deleted": args[0]})
			}
			return f.Success(fmt.Sprintf("✓ Deleted %s", args[0]))
		},
	}
}
