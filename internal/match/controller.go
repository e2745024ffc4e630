package match

import (
	"log/slog"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/rules"
)

// IDGenerator assigns match IDs.
type IDGenerator interface {
	Generate() string
}

// Option configures a Controller.
type Option func(*Controller)

// WithIDGenerator sets the source of match IDs. Without one, matches
// have an empty ID.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// Controller runs one match at a time.
type Controller struct {
	cfg     config.Match
	rules   rules.Rules
	table   Table
	clock   ClockState
	history History
	result  *Result
	matchID string
	ids     IDGenerator

	// prior is the table before the action being applied, set only
	// while apply runs.
	prior *Table
}

// NewController returns a controller with no match in play.
func NewController(opts ...Option) *Controller {
	c := &Controller{table: Table{Phase: PhaseIdle}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State is a point-in-time view of the controller. It shares nothing
// with the live match.
type State struct {
	MatchID  string       `json:"match_id"`
	Config   config.Match `json:"config"`
	Table    Table        `json:"table"`
	Clock    ClockState   `json:"clock"`
	Undoable int          `json:"undoable"`
	Result   *Result      `json:"result,omitempty"`
}

// State returns a deep copy of the current state.
func (c *Controller) State() State {
	st := State{
		MatchID:  c.matchID,
		Config:   c.cfg,
		Table:    clone(c.table),
		Clock:    c.clock,
		Undoable: c.history.Len(),
	}
	if c.result != nil {
		r := clone(*c.result)
		st.Result = &r
	}
	return st
}

// Result returns the outcome once the match is decided, else nil.
func (c *Controller) Result() *Result {
	if c.result == nil {
		return nil
	}
	r := clone(*c.result)
	return &r
}

// Phase returns the match lifecycle phase.
func (c *Controller) Phase() Phase { return c.table.Phase }

// MatchID returns the ID assigned at StartMatch.
func (c *Controller) MatchID() string { return c.matchID }

// Config returns the configuration of the current match.
func (c *Controller) Config() config.Match { return c.cfg }

// LastRack describes the most recently settled rack.
func (c *Controller) LastRack() RackOutcome { return c.table.LastRack }

// History returns the undoable actions, oldest first.
func (c *Controller) History() []Action { return c.history.Actions() }

// ClockRunning reports whether ticks currently move time.
func (c *Controller) ClockRunning() bool {
	return c.table.Phase == PhasePlaying && c.cfg.Clock.Enabled && !c.clock.Paused
}

// StartMatch validates cfg and begins a new match with player 1 to break.
// Any previous match and its history are discarded.
func (c *Controller) StartMatch(cfg config.Match) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return &RuleError{Code: ErrCodeInvalidConfig, Message: "match configuration is invalid", Err: errs}
	}

	r := cfg.Rules()
	c.cfg = cfg
	c.rules = r
	c.table = Table{
		Phase:       PhasePlaying,
		Current:     Player1,
		OnTable:     r.InitialBalls(),
		Dead:        []int{},
		PendingDead: []int{},
		PocketedBy:  map[int]Player{},
		ShotBalls:   []int{},
		Rack:        1,
		Inning:      1,
		Stats:       [2]PlayerStats{{InningPockets: []int{}}, {InningPockets: []int{}}},
		HillHill:    r.HillHillEligible && rules.InHillRange([2]int{}, cfg.Targets),
	}
	c.openInning(r.BallCount)
	c.clock = newClockState(cfg.Clock)
	c.history.Clear()
	c.result = nil
	c.matchID = ""
	if c.ids != nil {
		c.matchID = c.ids.Generate()
	}

	slog.Info("match started",
		"match_id", c.matchID,
		"variant", cfg.Variant,
		"player1", cfg.Players[0].ID,
		"player2", cfg.Players[1].ID,
		"targets", cfg.Targets,
	)
	return nil
}

// apply runs fn against the live table. On success the prior table is
// pushed to history; on failure it is restored.
func (c *Controller) apply(action Action, fn func() error) error {
	prior := clone(c.table)
	c.prior = &prior
	defer func() { c.prior = nil }()

	if err := fn(); err != nil {
		c.table = prior
		return err
	}
	c.history.Push(action, prior)
	return nil
}

func (c *Controller) requirePlaying() error {
	if c.table.Phase != PhasePlaying {
		return errNotActive(c.table.Phase)
	}
	return nil
}

// requireTurnAction guards actions that end the player's visit.
func (c *Controller) requireTurnAction() error {
	if err := c.requirePlaying(); err != nil {
		return err
	}
	if c.table.ShotActive {
		return errShotInProgress
	}
	return nil
}

// PocketBall is a tap on ball n. Outside any mode it pockets n for the
// player at the table. In shot mode it toggles n in the shot selection;
// in dead-ball mode it toggles n in the pending dead set, or revives n
// if it is already dead.
func (c *Controller) PocketBall(n int) error {
	if err := c.requirePlaying(); err != nil {
		return err
	}
	return c.apply(ActionPocketBall, func() error {
		t := &c.table
		switch {
		case t.DeadMode:
			return c.selectDead(n)
		case t.ShotActive:
			return c.selectShotBall(n)
		}
		if !t.IsOnTable(n) {
			return errBallNotOnTable(n)
		}
		c.countShot()
		c.pocket([]int{n})
		return nil
	})
}

func (c *Controller) selectShotBall(n int) error {
	t := &c.table
	switch {
	case containsBall(t.ShotBalls, n):
		t.ShotBalls = remove(t.ShotBalls, n)
	case t.IsOnTable(n):
		t.ShotBalls = insert(t.ShotBalls, n)
	default:
		return errBallNotOnTable(n)
	}
	return nil
}

func (c *Controller) selectDead(n int) error {
	t := &c.table
	switch {
	case n == c.rules.EndBall:
		return errEndBallDead(n)
	case t.IsDead(n):
		t.Dead = remove(t.Dead, n)
		t.OnTable = insert(t.OnTable, n)
	case containsBall(t.PendingDead, n):
		t.PendingDead = remove(t.PendingDead, n)
	case t.IsOnTable(n):
		t.PendingDead = insert(t.PendingDead, n)
	default:
		return errBallNotOnTable(n)
	}
	return nil
}

// ToggleShotMode opens a multi-ball shot, or closes it. Closing with no
// balls selected is a miss and passes the turn; otherwise the selected
// balls are pocketed together as one scoring event.
func (c *Controller) ToggleShotMode() error {
	if err := c.requirePlaying(); err != nil {
		return err
	}
	if c.table.DeadMode {
		return errDeadModeActive
	}
	return c.apply(ActionToggleShot, func() error {
		t := &c.table
		if !t.ShotActive {
			t.ShotActive = true
			t.ShotBalls = []int{}
			return nil
		}

		balls := t.ShotBalls
		t.ShotActive = false
		t.ShotBalls = []int{}
		c.countShot()
		if len(balls) == 0 {
			c.passTurn()
			return nil
		}
		c.pocket(balls)
		return nil
	})
}

// ToggleDeadBallMode enters or leaves dead-ball selection. Leaving
// commits every pending selection as dead.
func (c *Controller) ToggleDeadBallMode() error {
	if err := c.requireTurnAction(); err != nil {
		return err
	}
	return c.apply(ActionToggleDeadMode, func() error {
		t := &c.table
		if !t.DeadMode {
			t.DeadMode = true
			t.PendingDead = []int{}
			return nil
		}
		for _, n := range t.PendingDead {
			if n != c.rules.EndBall && t.IsOnTable(n) {
				t.OnTable = remove(t.OnTable, n)
				t.Dead = insert(t.Dead, n)
			}
		}
		t.PendingDead = []int{}
		t.DeadMode = false
		return nil
	})
}

// MarkDeadBall takes ball n off the table as dead.
func (c *Controller) MarkDeadBall(n int) error {
	if err := c.requireTurnAction(); err != nil {
		return err
	}
	return c.apply(ActionMarkDead, func() error {
		t := &c.table
		if n == c.rules.EndBall {
			return errEndBallDead(n)
		}
		if !t.IsOnTable(n) {
			return errBallNotOnTable(n)
		}
		t.OnTable = remove(t.OnTable, n)
		t.PendingDead = remove(t.PendingDead, n)
		t.Dead = insert(t.Dead, n)
		return nil
	})
}

// UnmarkDeadBall returns dead ball n to the table.
func (c *Controller) UnmarkDeadBall(n int) error {
	if err := c.requireTurnAction(); err != nil {
		return err
	}
	return c.apply(ActionUnmarkDead, func() error {
		t := &c.table
		if !t.IsDead(n) {
			return &RuleError{Code: ErrCodeBallNotDead, Message: "ball is not marked dead", Ball: n}
		}
		t.Dead = remove(t.Dead, n)
		t.OnTable = insert(t.OnTable, n)
		return nil
	})
}

// SwitchPlayer ends the visit without a foul. The outgoing player's
// consecutive foul count is cleared.
func (c *Controller) SwitchPlayer() error {
	if err := c.requireTurnAction(); err != nil {
		return err
	}
	return c.apply(ActionSwitchPlayer, func() error {
		c.table.Fouls[c.table.Current.idx()] = 0
		c.countShot()
		c.passTurn()
		return nil
	})
}

// Safety is a deliberate defensive shot. It clears the player's
// consecutive fouls and passes the turn.
func (c *Controller) Safety() error {
	if err := c.requireTurnAction(); err != nil {
		return err
	}
	return c.apply(ActionSafety, func() error {
		p := c.table.Current
		c.table.Fouls[p.idx()] = 0
		c.stat(p, func(s *PlayerStats) { s.Safeties++ })
		c.countShot()
		c.passTurn()
		return nil
	})
}

// Foul records a foul by the player at the table and passes the turn.
// With the three-foul rule active, a third consecutive foul loses the
// rack instead.
func (c *Controller) Foul() error {
	if err := c.requireTurnAction(); err != nil {
		return err
	}
	return c.apply(ActionFoul, func() error {
		t := &c.table
		p := t.Current
		t.Fouls[p.idx()]++
		t.InningPerfect = false
		c.stat(p, func(s *PlayerStats) { s.Fouls++ })
		c.countShot()

		if c.cfg.ThreeFoulActive() && t.Fouls[p.idx()] >= ThreeFoulLimit {
			c.threeFoul(p)
			return nil
		}
		c.passTurn()
		return nil
	})
}

// Undo restores the table as it was before the last accepted action.
// The clock is not rewound. Undoing the winning action reopens the match.
func (c *Controller) Undo() error {
	e, ok := c.history.Pop()
	if !ok {
		return errNothingToUndo
	}
	c.table = e.Prior
	if c.table.Phase != PhaseFinished {
		c.result = nil
	}
	slog.Debug("undo", "match_id", c.matchID, "action", e.Action, "remaining", c.history.Len())
	return nil
}

// Resume reopens a decided match at the moment before the winning action.
func (c *Controller) Resume() error {
	if c.table.Phase != PhaseFinished {
		return errNotFinished
	}
	return c.Undo()
}

// TogglePause stops or restarts the clock.
func (c *Controller) TogglePause() error {
	if err := c.requireClock(); err != nil {
		return err
	}
	c.clock.Paused = !c.clock.Paused
	return nil
}

// UseExtension spends one of the current player's extensions.
func (c *Controller) UseExtension() error {
	if err := c.requireClock(); err != nil {
		return err
	}
	return c.clock.UseExtension(c.cfg.Clock, c.table.Current)
}

// Tick advances the clock by one second for the player at the table.
// It reports whether time moved.
func (c *Controller) Tick() bool {
	if !c.ClockRunning() {
		return false
	}
	c.clock.Tick(c.cfg.Clock, c.table.Current)
	return true
}

func (c *Controller) requireClock() error {
	if err := c.requirePlaying(); err != nil {
		return err
	}
	if !c.cfg.Clock.Enabled {
		return errClockDisabled
	}
	return nil
}

// stat updates p's statistics unless the match runs in simple mode.
func (c *Controller) stat(p Player, fn func(s *PlayerStats)) {
	if c.cfg.TrackStats {
		fn(&c.table.Stats[p.idx()])
	}
}

func (c *Controller) countShot() {
	c.table.TotalShots++
	c.stat(c.table.Current, func(s *PlayerStats) { s.Shots++ })
}

// passTurn closes the current visit and hands the table over. The
// inning advances when player 2 hands back to player 1. The incoming
// player starts with a full shot clock and both extension allowances.
func (c *Controller) passTurn() {
	t := &c.table
	p := t.Current
	c.closeInning(p)
	if p == Player2 {
		t.Inning++
	}
	t.Current = p.Other()
	c.openInning(len(t.OnTable))
	c.clock.ResetShot(c.cfg.Clock)
	c.clock.Replenish(c.cfg.Clock)
}

func (c *Controller) openInning(startCount int) {
	t := &c.table
	t.InningBalls = 0
	t.InningOpen = true
	t.InningPerfect = true
	t.InningStartCount = startCount
}

func (c *Controller) closeInning(p Player) {
	t := &c.table
	if !t.InningOpen {
		return
	}
	balls := t.InningBalls
	c.stat(p, func(s *PlayerStats) {
		s.Innings++
		s.InningPockets = append(s.InningPockets, balls)
	})
	t.InningOpen = false
}
