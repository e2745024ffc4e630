package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/rules"
)

func TestStartMatch_InitialState(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	st := c.State()

	assert.Equal(t, "match-1", st.MatchID)
	assert.Equal(t, PhasePlaying, st.Table.Phase)
	assert.Equal(t, Player1, st.Table.Current)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, st.Table.OnTable)
	assert.Empty(t, st.Table.Dead)
	assert.Equal(t, 1, st.Table.Rack)
	assert.Equal(t, 1, st.Table.Inning)
	assert.Equal(t, [2]int{0, 0}, st.Table.Scores)
	assert.Equal(t, 0, st.Undoable)
	assert.Nil(t, st.Result)
	assert.NoError(t, st.Table.Check(rules.MustLookup(rules.Standard9)))
}

func TestStartMatch_InvalidConfig(t *testing.T) {
	c := NewController()
	cfg := matchConfig(rules.Standard9, withTargets(0, 3))

	err := c.StartMatch(cfg)
	requireCode(t, err, ErrCodeInvalidConfig)

	var errs config.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, config.ErrTargetTooLow, errs[0].Code)
	assert.Equal(t, PhaseIdle, c.Phase())
}

func TestStartMatch_ClearsHistory(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	pocketAll(t, c, 1, 2)
	require.Equal(t, 2, c.State().Undoable)

	require.NoError(t, c.StartMatch(matchConfig(rules.JPA9)))
	assert.Equal(t, 0, c.State().Undoable)
	assert.Equal(t, "match-2", c.MatchID())
	requireCode(t, c.Undo(), ErrCodeNothingToUndo)
}

func TestActions_RequireMatchInPlay(t *testing.T) {
	c := NewController()

	requireCode(t, c.PocketBall(1), ErrCodeMatchNotActive)
	requireCode(t, c.SwitchPlayer(), ErrCodeMatchNotActive)
	requireCode(t, c.Foul(), ErrCodeMatchNotActive)
	requireCode(t, c.ToggleShotMode(), ErrCodeMatchNotActive)
	requireCode(t, c.Undo(), ErrCodeNothingToUndo)
	assert.False(t, c.Tick())
}

func TestPocketBall_SameBallTwiceDeclined(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	require.NoError(t, c.PocketBall(3))
	before := c.State()

	requireCode(t, c.PocketBall(3), ErrCodeBallNotOnTable)
	requireCode(t, c.PocketBall(12), ErrCodeBallNotOnTable)

	assert.Equal(t, before, c.State(), "declined actions leave state and history unchanged")
}

func TestPocketBall_ClearsOwnFoulCount(t *testing.T) {
	c := startMatch(t, rules.Standard9)

	require.NoError(t, c.Foul())         // p1: 1 foul, p2 to table
	require.NoError(t, c.Foul())         // p2: 1 foul, p1 to table
	require.NoError(t, c.PocketBall(1)) // p1 pockets

	tbl := c.State().Table
	assert.Equal(t, 0, tbl.FoulCount(Player1))
	assert.Equal(t, 1, tbl.FoulCount(Player2))
}

func TestInning_AdvancesOnlyWhenPlayerOneReturns(t *testing.T) {
	c := startMatch(t, rules.Standard9)

	require.NoError(t, c.SwitchPlayer())
	tbl := c.State().Table
	assert.Equal(t, Player2, tbl.Current)
	assert.Equal(t, 1, tbl.Inning)

	require.NoError(t, c.PocketBall(3))
	assert.Equal(t, 1, c.State().Table.Inning, "pocket by non-breaker keeps the inning")

	require.NoError(t, c.SwitchPlayer())
	tbl = c.State().Table
	assert.Equal(t, Player1, tbl.Current)
	assert.Equal(t, 2, tbl.Inning)
}

func TestFoul_FirstAction(t *testing.T) {
	c := startMatch(t, rules.Standard9)

	require.NoError(t, c.Foul())

	tbl := c.State().Table
	assert.Equal(t, Player2, tbl.Current)
	assert.Equal(t, 1, tbl.FoulCount(Player1))
	assert.Equal(t, 1, tbl.StatsFor(Player1).Fouls)
	assert.Equal(t, 1, tbl.Inning)
}

func TestSwitchPlayer_ClearsOutgoingFouls(t *testing.T) {
	c := startMatch(t, rules.Standard9)

	require.NoError(t, c.Foul())         // p1 fouls
	require.NoError(t, c.Foul())         // p2 fouls
	require.NoError(t, c.SwitchPlayer()) // p1 plays a legal shot and misses

	tbl := c.State().Table
	assert.Equal(t, 0, tbl.FoulCount(Player1))
	assert.Equal(t, 1, tbl.FoulCount(Player2))
}

func TestSafety(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	require.NoError(t, c.Foul())
	require.NoError(t, c.SwitchPlayer())

	require.NoError(t, c.Safety())

	tbl := c.State().Table
	assert.Equal(t, Player2, tbl.Current)
	assert.Equal(t, 0, tbl.FoulCount(Player1))
	assert.Equal(t, 1, tbl.StatsFor(Player1).Safeties)
}

func TestShotMode_MultiBallShot(t *testing.T) {
	c := startMatch(t, rules.JPA9)

	require.NoError(t, c.ToggleShotMode())
	require.NoError(t, c.PocketBall(3))
	require.NoError(t, c.PocketBall(5))
	require.NoError(t, c.PocketBall(6))
	require.NoError(t, c.PocketBall(6)) // deselect
	assert.Equal(t, []int{3, 5}, c.State().Table.ShotBalls)
	assert.True(t, c.State().Table.IsOnTable(3), "selection does not pocket yet")

	require.NoError(t, c.ToggleShotMode())

	tbl := c.State().Table
	assert.False(t, tbl.ShotActive)
	assert.Empty(t, tbl.ShotBalls)
	assert.Equal(t, 2, tbl.Score(Player1))
	assert.Equal(t, Player1, tbl.Current, "a pocketing shot keeps the table")
	assert.Equal(t, Player1, tbl.PocketedBy[3])
	assert.Equal(t, 1, tbl.TotalShots)
}

func TestShotMode_EmptyShotIsMiss(t *testing.T) {
	c := startMatch(t, rules.Standard9, withClock(600, 30, 30, 1))
	for __i := 0; __i < 5; __i++ {
		c.Tick()
	}
	c.clock.UsingShotClock[0] = true
	c.clock.ShotRemaining = 3

	require.NoError(t, c.ToggleShotMode())
	require.NoError(t, c.ToggleShotMode())

	st := c.State()
	assert.Equal(t, Player2, st.Table.Current)
	assert.Equal(t, 1, st.Table.Inning)
	assert.Equal(t, 30, st.Clock.ShotRemaining, "miss resets the shot clock")
	assert.Equal(t, 1, st.Table.TotalShots)
}

func TestShotMode_BlocksTurnActions(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	require.NoError(t, c.ToggleShotMode())

	requireCode(t, c.SwitchPlayer(), ErrCodeShotInProgress)
	requireCode(t, c.Safety(), ErrCodeShotInProgress)
	requireCode(t, c.Foul(), ErrCodeShotInProgress)
	requireCode(t, c.MarkDeadBall(3), ErrCodeShotInProgress)
	requireCode(t, c.ToggleDeadBallMode(), ErrCodeShotInProgress)
}

func TestDeadBalls_MarkAndUnmark(t *testing.T) {
	c := startMatch(t, rules.Standard9)

	require.NoError(t, c.MarkDeadBall(4))
	tbl := c.State().Table
	assert.Equal(t, []int{4}, tbl.Dead)
	assert.False(t, tbl.IsOnTable(4))

	requireCode(t, c.PocketBall(4), ErrCodeBallNotOnTable)

	require.NoError(t, c.UnmarkDeadBall(4))
	tbl = c.State().Table
	assert.Empty(t, tbl.Dead)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, tbl.OnTable)

	requireCode(t, c.UnmarkDeadBall(4), ErrCodeBallNotDead)
}

func TestDeadBalls_EndBallRejected(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	before := c.State()

	requireCode(t, c.MarkDeadBall(9), ErrCodeEndBallDead)
	assert.Equal(t, before, c.State())

	require.NoError(t, c.ToggleDeadBallMode())
	requireCode(t, c.PocketBall(9), ErrCodeEndBallDead)
}

func TestDeadBalls_SelectionMode(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	require.NoError(t, c.MarkDeadBall(2))

	require.NoError(t, c.ToggleDeadBallMode())
	requireCode(t, c.ToggleShotMode(), ErrCodeDeadModeActive)
	require.NoError(t, c.PocketBall(5))
	require.NoError(t, c.PocketBall(6))
	require.NoError(t, c.PocketBall(6)) // deselect
	require.NoError(t, c.PocketBall(2)) // revive
	tbl := c.State().Table
	assert.Equal(t, []int{5}, tbl.PendingDead)
	assert.Empty(t, tbl.Dead)
	assert.True(t, tbl.IsOnTable(5), "pending balls stay on the table")

	require.NoError(t, c.ToggleDeadBallMode())
	tbl = c.State().Table
	assert.False(t, tbl.DeadMode)
	assert.Equal(t, []int{5}, tbl.Dead)
	assert.Empty(t, tbl.PendingDead)
	assert.Equal(t, []int{1, 2, 3, 4, 6, 7, 8, 9}, tbl.OnTable)
	assert.Equal(t, 0, tbl.TotalShots, "marking is not a shot")
}

func TestUndo_RestoresPriorTable(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	require.NoError(t, c.PocketBall(1))
	before := c.State()

	require.NoError(t, c.PocketBall(2))
	require.NoError(t, c.Undo())

	assert.Equal(t, before, c.State())
	assert.Equal(t, []Action{ActionPocketBall}, c.History())
}

func TestUndo_InvertsEachOperation(t *testing.T) {
	tests := []struct {
		name    string
		variant rules.Variant
		mutate  []func(*config.Match)
		setup   func(t *testing.T, c *Controller)
		op      func(c *Controller) error
	}{
		{name: "pocket", variant: rules.Standard9,
			op: func(c *Controller) error { return c.PocketBall(4) }},
		{name: "open shot", variant: rules.JPA9,
			op: (*Controller).ToggleShotMode},
		{name: "select ball in shot", variant: rules.JPA9,
			setup: func(t *testing.T, c *Controller) { require.NoError(t, c.ToggleShotMode()) },
			op:    func(c *Controller) error { return c.PocketBall(3) }},
		{name: "close shot as miss", variant: rules.JPA9,
			setup: func(t *testing.T, c *Controller) { require.NoError(t, c.ToggleShotMode()) },
			op:    (*Controller).ToggleShotMode},
		{name: "close shot with balls", variant: rules.JPA9,
			setup: func(t *testing.T, c *Controller) {
				require.NoError(t, c.ToggleShotMode())
				pocketAll(t, c, 3, 5)
			},
			op: (*Controller).ToggleShotMode},
		{name: "enter dead mode", variant: rules.JPA9,
			op: (*Controller).ToggleDeadBallMode},
		{name: "select dead ball", variant: rules.JPA9,
			setup: func(t *testing.T, c *Controller) { require.NoError(t, c.ToggleDeadBallMode()) },
			op:    func(c *Controller) error { return c.PocketBall(6) }},
		{name: "leave dead mode", variant: rules.JPA9,
			setup: func(t *testing.T, c *Controller) {
				require.NoError(t, c.ToggleDeadBallMode())
				pocketAll(t, c, 6, 7)
			},
			op: (*Controller).ToggleDeadBallMode},
		{name: "mark dead", variant: rules.Standard9,
			op: func(c *Controller) error { return c.MarkDeadBall(2) }},
		{name: "unmark dead", variant: rules.Standard9,
			setup: func(t *testing.T, c *Controller) { require.NoError(t, c.MarkDeadBall(2)) },
			op:    func(c *Controller) error { return c.UnmarkDeadBall(2) }},
		{name: "switch", variant: rules.JCL9,
			setup: func(t *testing.T, c *Controller) { pocketAll(t, c, 1, 2) },
			op:    (*Controller).SwitchPlayer},
		{name: "switch back advances inning", variant: rules.Standard9,
			setup: func(t *testing.T, c *Controller) { require.NoError(t, c.SwitchPlayer()) },
			op:    (*Controller).SwitchPlayer},
		{name: "safety", variant: rules.Standard9,
			op: (*Controller).Safety},
		{name: "foul", variant: rules.JCL9,
			op: (*Controller).Foul},
		{name: "third foul reracks", variant: rules.JCL9,
			setup: func(t *testing.T, c *Controller) {
				pocketAll(t, c, 1)
				for __i := 0; __i < 2; __i++ {
					require.NoError(t, c.Foul())
					require.NoError(t, c.SwitchPlayer())
				}
			},
			op: (*Controller).Foul},
		{name: "rack end", variant: rules.JCL9,
			setup: func(t *testing.T, c *Controller) { pocketAll(t, c, 1, 2, 3) },
			op:    func(c *Controller) error { return c.PocketBall(9) }},
		{name: "perfect clear", variant: rules.Standard9,
			setup: func(t *testing.T, c *Controller) { pocketAll(t, c, 1, 2, 3, 4, 5, 6, 7, 8) },
			op:    func(c *Controller) error { return c.PocketBall(9) }},
		{name: "winning pocket", variant: rules.Standard9,
			mutate: []func(*config.Match){withTargets(1, 1)},
			op:     func(c *Controller) error { return c.PocketBall(9) }},
		{name: "hill-hill win", variant: rules.JCL9,
			setup: func(t *testing.T, c *Controller) { setScores(c, 44, 36) },
			op:    func(c *Controller) error { return c.PocketBall(9) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startMatch(t, tt.variant, tt.mutate...)
			if tt.setup != nil {
				tt.setup(t, c)
			}
			before := c.State().Table
			depth := len(c.History())

			require.NoError(t, tt.op(c))
			require.NotEqual(t, before, c.State().Table, "operation changed nothing")
			require.NoError(t, c.Undo())

			assert.Equal(t, before, c.State().Table)
			assert.Nil(t, c.Result())
			assert.Len(t, c.History(), depth)
		})
	}
}

func TestUndo_EmptyHistory(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	before := c.State()

	requireCode(t, c.Undo(), ErrCodeNothingToUndo)
	assert.Equal(t, before, c.State())
}

func TestUndo_EachStepIsIndependent(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	initial := c.State().Table

	require.NoError(t, c.MarkDeadBall(3))
	require.NoError(t, c.MarkDeadBall(4))
	require.NoError(t, c.Undo())
	assert.Equal(t, []int{3}, c.State().Table.Dead)

	require.NoError(t, c.Undo())
	assert.Equal(t, initial, c.State().Table)
}

func TestClockOps_RequireClock(t *testing.T) {
	c := startMatch(t, rules.Standard9)

	requireCode(t, c.TogglePause(), ErrCodeClockDisabled)
	requireCode(t, c.UseExtension(), ErrCodeClockDisabled)
	assert.False(t, c.Tick())
}

func TestClockOps_NotRecordedInHistory(t *testing.T) {
	c := startMatch(t, rules.Standard9, withClock(1, 20, 10, 1))
	c.Tick()

	require.NoError(t, c.UseExtension())
	require.NoError(t, c.TogglePause())
	assert.Equal(t, 0, c.State().Undoable)
}

func TestApply_Dispatch(t *testing.T) {
	c := NewController()
	cfg := matchConfig(rules.JPA9)

	require.NoError(t, c.Apply(Command{Action: ActionStartMatch, Config: &cfg}))
	require.NoError(t, c.Apply(Command{Action: ActionPocketBall, Ball: 9}))
	assert.Equal(t, 2, c.State().Table.Score(Player1))

	requireCode(t, c.Apply(Command{Action: "jump_shot"}), ErrCodeUnknownAction)
	requireCode(t, c.Apply(Command{Action: ActionStartMatch}), ErrCodeInvalidConfig)
	assert.NoError(t, c.Apply(Command{Action: ActionTick}))
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "pocket_ball(9)", Command{Action: ActionPocketBall, Ball: 9}.String())
	assert.Equal(t, "foul", Command{Action: ActionFoul}.String())
}

func TestState_IsACopy(t *testing.T) {
	c := startMatch(t, rules.Standard9)
	st := c.State()
	st.Table.OnTable[0] = 99
	st.Table.PocketedBy[1] = Player2

	assert.Equal(t, 1, c.State().Table.OnTable[0])
	assert.Empty(t, c.State().Table.PocketedBy)
}

func TestInvariants_HoldThroughMixedPlay(t *testing.T) {
	c := startMatch(t, rules.JCL9, withTargets(30, 30), func(m *config.Match) { m.ThreeFoulRule = true })
	r := rules.MustLookup(rules.JCL9)

	script := []Command{
		{Action: ActionPocketBall, Ball: 1},
		{Action: ActionMarkDead, Ball: 2},
		{Action: ActionToggleShot},
		{Action: ActionPocketBall, Ball: 3},
		{Action: ActionPocketBall, Ball: 4},
		{Action: ActionToggleShot},
		{Action: ActionFoul},
		{Action: ActionToggleDeadMode},
		{Action: ActionPocketBall, Ball: 5},
		{Action: ActionToggleDeadMode},
		{Action: ActionPocketBall, Ball: 6},
		{Action: ActionUndo},
		{Action: ActionSafety},
		{Action: ActionPocketBall, Ball: 9},
		{Action: ActionPocketBall, Ball: 9},
		{Action: ActionUndo},
		{Action: ActionSwitchPlayer},
	}
	for i, cmd := range script {
		_ = c.Apply(cmd)
		tbl := c.State().Table
		require.NoError(t, tbl.Check(r), "after step %d (%s)", i, cmd)
	}
}
