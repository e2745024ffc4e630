// Package roster keeps lifetime player records and folds finished
// matches into them.
//
// Roster is the port the match host talks to. Memory is the in-process
// implementation; store.Store provides a SQLite-backed one.
package roster

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/match"
)

var (
	// ErrNotFound is returned for an unknown player ID.
	ErrNotFound = errors.New("player not found")

	// ErrBuiltin is returned when deleting one of the default players.
	ErrBuiltin = errors.New("default players cannot be deleted")
)

// Roster stores players and their lifetime statistics.
type Roster interface {
	Register(ctx context.Context, ref config.PlayerRef) (Player, error)
	Player(ctx context.Context, id string) (Player, error)
	Players(ctx context.Context) ([]Player, error)
	Delete(ctx context.Context, id string) error
	ApplyMatchResult(ctx context.Context, res match.Result) error

	// RevertMatchResult takes back a result merged earlier, for a match
	// that was reopened after it was decided.
	RevertMatchResult(ctx context.Context, res match.Result) error
}

// Player is a roster entry.
type Player struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Builtin bool     `json:"builtin"`
	Stats   Lifetime `json:"stats"`
}

// Ref returns the seat reference for this player.
func (p Player) Ref() config.PlayerRef {
	return config.PlayerRef{ID: p.ID, Name: p.Name}
}

// Lifetime is a player's accumulated record across matches.
type Lifetime struct {
	GamesPlayed        int `json:"games_played"`
	GamesWon           int `json:"games_won"`
	TotalShots         int `json:"total_shots"`
	SuccessfulShots    int `json:"successful_shots"`
	PerfectClears      int `json:"perfect_clears"`
	TotalBallsPocketed int `json:"total_balls_pocketed"`
	TotalInnings       int `json:"total_innings"`
	TotalSafeties      int `json:"total_safeties"`
	TotalFouls         int `json:"total_fouls"`
}

// Merge adds one match to the record.
func (l Lifetime) Merge(won bool, s match.PlayerStats) Lifetime {
	l.GamesPlayed++
	if won {
		l.GamesWon++
	}
	l.TotalShots += s.Shots
	l.SuccessfulShots += s.BallsPocketed
	l.PerfectClears += s.PerfectClears
	l.TotalBallsPocketed += s.BallsPocketed
	l.TotalInnings += s.Innings
	l.TotalSafeties += s.Safeties
	l.TotalFouls += s.Fouls
	return l
}

// Unmerge removes one match previously added with Merge.
func (l Lifetime) Unmerge(won bool, s match.PlayerStats) Lifetime {
	l.GamesPlayed--
	if won {
		l.GamesWon--
	}
	l.TotalShots -= s.Shots
	l.SuccessfulShots -= s.BallsPocketed
	l.PerfectClears -= s.PerfectClears
	l.TotalBallsPocketed -= s.BallsPocketed
	l.TotalInnings -= s.Innings
	l.TotalSafeties -= s.Safeties
	l.TotalFouls -= s.Fouls
	return l
}

// Derived holds ratios computed from a Lifetime. Percentages are 0-100.
type Derived struct {
	Accuracy              float64 `json:"accuracy"`
	WinRate               float64 `json:"win_rate"`
	AverageBallsPerGame   float64 `json:"average_balls_per_game"`
	AverageBallsPerInning float64 `json:"average_balls_per_inning"`
}

// Derived computes the ratios; a ratio with a zero denominator is 0.
func (l Lifetime) Derived() Derived {
	return Derived{
		Accuracy:              percent(l.SuccessfulShots, l.TotalShots),
		WinRate:               percent(l.GamesWon, l.GamesPlayed),
		AverageBallsPerGame:   ratio(l.SuccessfulShots, l.GamesPlayed),
		AverageBallsPerInning: ratio(l.TotalBallsPocketed, l.TotalInnings),
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func percent(n, d int) float64 {
	return ratio(n, d) * 100
}

// NormalizeName puts a display name in NFC form with single spaces, so
// the same name typed on different keyboards compares equal.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// Seats returns the per-seat updates a result implies, in seat order.
// A result from a match without statistics implies none.
func Seats(res match.Result) []SeatUpdate {
	if !res.TrackStats {
		return nil
	}
	updates := make([]SeatUpdate, 0, 2)
	for _, seat := range []match.Player{match.Player1, match.Player2} {
		updates = append(updates, SeatUpdate{
			Ref:   res.Players[int(seat)-1],
			Won:   seat == res.WinnerSeat,
			Stats: res.StatsFor(seat),
		})
	}
	return updates
}

// SeatUpdate is one player's share of a match result.
type SeatUpdate struct {
	Ref   config.PlayerRef
	Won   bool
	Stats match.PlayerStats
}
