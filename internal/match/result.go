package match

import (
	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/rules"
)

// WinCondition tags how a match was decided.
type WinCondition string

const (
	WinNormal            WinCondition = "normal"
	WinHillHill          WinCondition = "hill_hill"
	WinThreeFoul         WinCondition = "three_foul"
	WinThreeFoulHillHill WinCondition = "three_foul_hill_hill"
)

// Result is the summary of a decided match.
type Result struct {
	MatchID      string              `json:"match_id"`
	Variant      rules.Variant       `json:"variant"`
	Players      [2]config.PlayerRef `json:"players"`
	Targets      [2]int              `json:"targets"`
	WinnerSeat   Player              `json:"winner_seat"`
	Winner       config.PlayerRef    `json:"winner"`
	Loser        config.PlayerRef    `json:"loser"`
	FinalScore   [2]int              `json:"final_score"`
	TotalShots   int                 `json:"total_shots"`
	TotalRacks   int                 `json:"total_racks"`
	TotalInnings int                 `json:"total_innings"`
	Stats        [2]PlayerStats      `json:"stats"`
	WinCondition WinCondition        `json:"win_condition"`

	// TrackStats is false in simple mode; Stats are then all zero and the
	// roster should not be updated.
	TrackStats bool `json:"track_stats"`

	// Snapshot is the table immediately before the winning action.
	Snapshot Table `json:"-"`
}

// StatsFor returns the match statistics for seat p.
func (r Result) StatsFor(p Player) PlayerStats { return r.Stats[p.idx()] }
