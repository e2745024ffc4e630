package match

import (
	"fmt"

	"github.com/elliotchance/pie/v2"

	"github.com/roach88/rackscore/internal/rules"
)

// Player is a seat: 1 or 2.
type Player int

const (
	Player1 Player = 1
	Player2 Player = 2
)

// Other returns the opponent's seat.
func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) idx() int { return int(p) - 1 }

// Phase is the lifecycle of a match.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// PlayerStats accumulates one player's numbers for the current match.
type PlayerStats struct {
	BallsPocketed int   `json:"balls_pocketed"`
	Innings       int   `json:"innings"`
	InningPockets []int `json:"inning_pockets"`
	PerfectClears int   `json:"perfect_clears"`
	Shots         int   `json:"shots"`
	Safeties      int   `json:"safeties"`
	Fouls         int   `json:"fouls"`
}

// RackReason says how a rack was settled.
type RackReason string

const (
	RackEndBall   RackReason = "end_ball"
	RackThreeFoul RackReason = "three_foul"
)

// RackOutcome describes the most recently settled rack, for display.
// Rack is 0 until the first rack is settled.
type RackOutcome struct {
	Rack         int        `json:"rack"`
	Winner       Player     `json:"winner"`
	Points       [2]int     `json:"points"`
	Reason       RackReason `json:"reason"`
	PerfectClear bool       `json:"perfect_clear"`
}

// Table is the undoable slice of match state. All fields are exported so
// the history can deep-copy it.
type Table struct {
	Phase   Phase  `json:"phase"`
	Current Player `json:"current"`
	Scores  [2]int `json:"scores"`

	OnTable     []int          `json:"on_table"`
	Dead        []int          `json:"dead"`
	PendingDead []int          `json:"pending_dead"`
	DeadMode    bool           `json:"dead_mode"`
	PocketedBy  map[int]Player `json:"pocketed_by"`

	ShotActive bool  `json:"shot_active"`
	ShotBalls  []int `json:"shot_balls"`

	Fouls     [2]int `json:"fouls"`
	Rack      int    `json:"rack"`
	Inning    int    `json:"inning"`
	RackBalls [2]int `json:"rack_balls"`

	// Per-inning tracking for the player at the table.
	InningBalls      int  `json:"inning_balls"`
	InningOpen       bool `json:"inning_open"`
	InningPerfect    bool `json:"inning_perfect"`
	InningStartCount int  `json:"inning_start_count"`

	Stats          [2]PlayerStats `json:"stats"`
	HillHill       bool           `json:"hill_hill"`
	LastRackWinner Player         `json:"last_rack_winner,omitempty"`
	LastRack       RackOutcome    `json:"last_rack"`
	TotalShots     int            `json:"total_shots"`
}

// Score returns p's score.
func (t Table) Score(p Player) int { return t.Scores[p.idx()] }

// FoulCount returns p's consecutive foul count.
func (t Table) FoulCount(p Player) int { return t.Fouls[p.idx()] }

// StatsFor returns p's match statistics.
func (t Table) StatsFor(p Player) PlayerStats { return t.Stats[p.idx()] }

// IsOnTable reports whether ball n is live on the table.
func (t Table) IsOnTable(n int) bool { return pie.Contains(t.OnTable, n) }

// IsDead reports whether ball n is marked dead.
func (t Table) IsDead(n int) bool { return pie.Contains(t.Dead, n) }

// Check verifies the structural invariants of a table in play.
func (t Table) Check(r rules.Rules) error {
	if t.Phase == PhaseIdle {
		return nil
	}
	if t.Current != Player1 && t.Current != Player2 {
		return fmt.Errorf("current player %d is not a seat", t.Current)
	}

	seen := map[int]string{}
	claim := func(n int, where string) error {
		if prev, ok := seen[n]; ok {
			return fmt.Errorf("ball %d is both %s and %s", n, prev, where)
		}
		seen[n] = where
		return nil
	}
	for _, n := range t.OnTable {
		if err := claim(n, "on table"); err != nil {
			return err
		}
	}
	for _, n := range t.Dead {
		if err := claim(n, "dead"); err != nil {
			return err
		}
	}
	for n := range t.PocketedBy {
		if err := claim(n, "pocketed"); err != nil {
			return err
		}
	}
	if t.Phase == PhasePlaying && len(seen) != r.BallCount {
		return fmt.Errorf("%d balls accounted for, want %d", len(seen), r.BallCount)
	}
	if t.IsDead(r.EndBall) {
		return fmt.Errorf("end ball %d is dead", r.EndBall)
	}
	for _, n := range t.PendingDead {
		if !t.IsOnTable(n) {
			return fmt.Errorf("pending dead ball %d is not on the table", n)
		}
	}
	for _, n := range t.ShotBalls {
		if !t.IsOnTable(n) {
			return fmt.Errorf("ball %d selected in shot is not on the table", n)
		}
	}
	if !t.ShotActive && len(t.ShotBalls) > 0 {
		return fmt.Errorf("%d balls selected with no shot in progress", len(t.ShotBalls))
	}
	if len(t.PocketedBy) != t.RackBalls[0]+t.RackBalls[1] {
		return fmt.Errorf("rack ball counts %v do not match %d pocketed balls", t.RackBalls, len(t.PocketedBy))
	}
	if t.Rack < 1 || t.Inning < 1 {
		return fmt.Errorf("rack %d / inning %d must start at 1", t.Rack, t.Inning)
	}
	return nil
}

// remove returns ss without the given balls. The result is never nil.
func remove(ss []int, drop ...int) []int {
	out := make([]int, 0, len(ss))
	for _, n := range ss {
		if !pie.Contains(drop, n) {
			out = append(out, n)
		}
	}
	return out
}

// insert returns ss plus n, kept ascending.
func insert(ss []int, n int) []int {
	if pie.Contains(ss, n) {
		return ss
	}
	return pie.Sort(append(append(make([]int, 0, len(ss)+1), ss...), n))
}
