package match

import (
	"log/slog"

	"github.com/elliotchance/pie/v2"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/rules"
)

// ThreeFoulLimit is the number of consecutive fouls that loses a rack.
const ThreeFoulLimit = 3

func containsBall(balls []int, n int) bool { return pie.Contains(balls, n) }

// pocket resolves balls dropped by the player at the table as one
// scoring event, then settles the rack and the match if they end.
func (c *Controller) pocket(balls []int) {
	t := &c.table
	r := c.rules
	p := t.Current
	before := t.Scores

	t.OnTable = remove(t.OnTable, balls...)
	t.PendingDead = remove(t.PendingDead, balls...)
	for _, n := range balls {
		t.PocketedBy[n] = p
	}
	t.RackBalls[p.idx()] += len(balls)
	t.InningBalls += len(balls)
	t.Fouls[p.idx()] = 0
	c.stat(p, func(s *PlayerStats) { s.BallsPocketed += len(balls) })

	perfect := t.InningPerfect && t.InningStartCount == r.BallCount && t.InningBalls >= r.BallCount
	if perfect {
		c.stat(p, func(s *PlayerStats) { s.PerfectClears++ })
	}

	t.Scores[p.idx()] = r.ScoreForPocketedBalls(t.Scores[p.idx()], balls)

	rackEnd := r.IsRackEnd(balls)
	settled := rackEnd || (r.ResetsOnEndBall && containsBall(balls, r.EndBall))
	wasHillHill := t.HillHill

	if rackEnd && r.RackScore != nil {
		award := r.RackScore(t.RackBalls[p.Other().idx()])
		t.Scores[p.idx()] += award.Winner
		t.Scores[p.Other().idx()] += award.Loser
	}
	c.updateHillHill()

	if settled {
		t.LastRackWinner = p
		t.LastRack = RackOutcome{
			Rack:         t.Rack,
			Winner:       p,
			Points:       scoreDelta(before, t.Scores),
			Reason:       RackEndBall,
			PerfectClear: perfect,
		}
	}

	switch {
	case rackEnd && wasHillHill:
		c.finish(p, WinHillHill)
	case c.reached(p):
		c.finish(p, WinNormal)
	case c.reached(p.Other()):
		c.finish(p.Other(), WinNormal)
	case settled:
		c.rerack(p)
	}
}

// threeFoul settles the rack against offender after a third
// consecutive foul.
func (c *Controller) threeFoul(offender Player) {
	t := &c.table
	opp := offender.Other()
	before := t.Scores
	wasHillHill := t.HillHill

	award := c.rules.ThreeFoulAward(t.RackBalls[offender.idx()])
	t.Scores[opp.idx()] += award.Winner
	t.Scores[offender.idx()] += award.Loser
	c.updateHillHill()

	t.LastRackWinner = opp
	t.LastRack = RackOutcome{
		Rack:   t.Rack,
		Winner: opp,
		Points: scoreDelta(before, t.Scores),
		Reason: RackThreeFoul,
	}

	switch {
	case wasHillHill:
		c.finish(opp, WinThreeFoulHillHill)
	case c.reached(opp):
		c.finish(opp, WinThreeFoul)
	case c.reached(offender):
		c.finish(offender, WinThreeFoul)
	default:
		// The foul still hands the table over, so a third foul by
		// player 2 closes the inning.
		if offender == Player2 {
			t.Inning++
		}
		c.rerack(opp)
	}
}

func (c *Controller) updateHillHill() {
	if c.rules.HillHillEligible {
		c.table.HillHill = rules.InHillRange(c.table.Scores, c.cfg.Targets)
	}
}

func (c *Controller) reached(p Player) bool {
	return c.table.Scores[p.idx()] >= c.cfg.Targets[p.idx()]
}

// rerack clears the table for the next rack. The inning number carries
// over; the breaker follows the configured break rule.
func (c *Controller) rerack(winner Player) {
	t := &c.table
	c.closeInning(t.Current)

	t.Rack++
	t.OnTable = c.rules.InitialBalls()
	t.Dead = []int{}
	t.PendingDead = []int{}
	t.DeadMode = false
	t.PocketedBy = map[int]Player{}
	t.ShotActive = false
	t.ShotBalls = []int{}
	t.RackBalls = [2]int{}
	t.Fouls = [2]int{}
	t.Current = c.nextBreaker(winner)
	c.openInning(c.rules.BallCount)

	c.clock.ResetShot(c.cfg.Clock)
	c.clock.Replenish(c.cfg.Clock)

	slog.Info("rack settled",
		"match_id", c.matchID,
		"rack", t.LastRack.Rack,
		"winner", t.LastRack.Winner,
		"reason", t.LastRack.Reason,
		"points", t.LastRack.Points,
		"scores", t.Scores,
	)
}

// nextBreaker picks who breaks rack t.Rack.
func (c *Controller) nextBreaker(winner Player) Player {
	if c.cfg.BreakRule == config.BreakAlternate {
		if c.table.Rack%2 == 1 {
			return Player1
		}
		return Player2
	}
	return winner
}

// finish decides the match. The result carries the table as it was
// before the deciding action.
func (c *Controller) finish(winner Player, cond WinCondition) {
	t := &c.table
	c.closeInning(t.Current)
	t.Phase = PhaseFinished
	t.ShotActive = false
	t.ShotBalls = []int{}

	res := Result{
		MatchID:      c.matchID,
		Variant:      c.cfg.Variant,
		Players:      c.cfg.Players,
		Targets:      c.cfg.Targets,
		WinnerSeat:   winner,
		Winner:       c.cfg.Players[winner.idx()],
		Loser:        c.cfg.Players[winner.Other().idx()],
		FinalScore:   t.Scores,
		TotalShots:   t.TotalShots,
		TotalRacks:   t.Rack,
		TotalInnings: t.Inning,
		Stats:        clone(t.Stats),
		WinCondition: cond,
		TrackStats:   c.cfg.TrackStats,
	}
	if c.prior != nil {
		res.Snapshot = clone(*c.prior)
	}
	c.result = &res

	slog.Info("match decided",
		"match_id", c.matchID,
		"winner", res.Winner.ID,
		"condition", cond,
		"score", res.FinalScore,
		"racks", res.TotalRacks,
	)
}

func scoreDelta(before, after [2]int) [2]int {
	return [2]int{after[0] - before[0], after[1] - before[1]}
}
