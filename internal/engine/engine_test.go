package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/roster"
	"github.com/roach88/rackscore/internal/rules"
	"github.com/roach88/rackscore/internal/testutil"
)

// recorder is a Journal and Observer that keeps everything it is told.
type recorder struct {
	mu        sync.Mutex
	entries   []JournalEntry
	results   []match.Result
	actions   []match.Action
	racks     []match.RackOutcome
	decided   []match.Result
	failWrite error
}

func (r *recorder) RecordAction(_ context.Context, e JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *recorder) RecordResult(_ context.Context, res match.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.results = append(r.results, res)
	return nil
}

func (r *recorder) ActionProcessed(_ rules.Variant, a match.Action, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}

func (r *recorder) RackSettled(_ rules.Variant, o match.RackOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.racks = append(r.racks, o)
}

func (r *recorder) MatchDecided(res match.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decided = append(r.decided, res)
}

func (r *recorder) journal() []JournalEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]JournalEntry(nil), r.entries...)
}

// startEngine runs e until the test ends.
func startEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-e.Done()
	})
}

func start(cfg config.Match) match.Command {
	return match.Command{Action: match.ActionStartMatch, Config: &cfg}
}

func pocket(n int) match.Command {
	return match.Command{Action: match.ActionPocketBall, Ball: n}
}

func TestEngine_SubmitAppliesCommands(t *testing.T) {
	e := New(WithIDGenerator(NewFixedGenerator("match-1")))
	startEngine(t, e)
	ctx := context.Background()

	out, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Seq)
	assert.Equal(t, "match-1", out.State.MatchID)
	assert.Equal(t, match.PhasePlaying, out.State.Table.Phase)

	out, err = e.Submit(ctx, pocket(3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Seq)
	assert.False(t, out.State.Table.IsOnTable(3))
	assert.Equal(t, 1, out.State.Undoable)
}

func TestEngine_DeclinedCommandLeavesStateAlone(t *testing.T) {
	rec := &recorder{}
	e := New(WithIDGenerator(NewFixedGenerator("match-1")), WithJournal(rec))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9)))
	require.NoError(t, err)
	_, err = e.Submit(ctx, pocket(4))
	require.NoError(t, err)

	out, err := e.Submit(ctx, pocket(4))
	require.Error(t, err)
	assert.True(t, match.IsRuleError(err, match.ErrCodeBallNotOnTable))
	assert.Equal(t, 1, out.State.Undoable)

	entries := rec.journal()
	require.Len(t, entries, 3)
	assert.True(t, entries[1].Accepted)
	assert.False(t, entries[2].Accepted)
	assert.Equal(t, match.ErrCodeBallNotOnTable, entries[2].ErrorCode)
	assert.Equal(t, "match-1", entries[2].MatchID)
}

func TestEngine_SeqIsMonotonic(t *testing.T) {
	e := New(WithSequencer(NewSequencerAt(41)))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.JPA9)))
	require.NoError(t, err)

	var last int64 = 41
	for _, n := range []int{1, 2, 3} {
		out, err := e.Submit(ctx, pocket(n))
		require.NoError(t, err)
		assert.Greater(t, out.Seq, last)
		last = out.Seq
	}
	assert.Equal(t, int64(45), last)
}

func TestEngine_DecidedMatchReachesCollaborators(t *testing.T) {
	rec := &recorder{}
	ros := roster.NewMemory()
	e := New(
		WithIDGenerator(NewFixedGenerator("match-1")),
		WithRoster(ros),
		WithJournal(rec),
		WithObserver(rec),
	)
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9, testutil.WithTargets(1, 1))))
	require.NoError(t, err)
	out, err := e.Submit(ctx, pocket(9))
	require.NoError(t, err)

	require.NotNil(t, out.State.Result)
	assert.Equal(t, "p1", out.State.Result.Winner.ID)

	rec.mu.Lock()
	assert.Len(t, rec.results, 1)
	assert.Len(t, rec.decided, 1)
	assert.Len(t, rec.racks, 1)
	assert.Equal(t, []match.Action{match.ActionStartMatch, match.ActionPocketBall}, rec.actions)
	rec.mu.Unlock()

	winner, err := ros.Player(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, winner.Stats.GamesWon)
	loser, err := ros.Player(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, loser.Stats.GamesPlayed)
	assert.Equal(t, 0, loser.Stats.GamesWon)
}

func TestEngine_ResumedMatchCountsOnce(t *testing.T) {
	ros := roster.NewMemory()
	e := New(WithIDGenerator(NewFixedGenerator("match-1")), WithRoster(ros))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9, testutil.WithTargets(1, 1))))
	require.NoError(t, err)
	_, err = e.Submit(ctx, pocket(9))
	require.NoError(t, err)

	_, err = e.Submit(ctx, match.Command{Action: match.ActionResume})
	require.NoError(t, err)
	p1, err := ros.Player(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, roster.Lifetime{}, p1.Stats, "a reopened match is not counted")

	_, err = e.Submit(ctx, match.Command{Action: match.ActionSwitchPlayer})
	require.NoError(t, err)
	out, err := e.Submit(ctx, pocket(9))
	require.NoError(t, err)
	require.NotNil(t, out.State.Result)
	assert.Equal(t, "p2", out.State.Result.Winner.ID)

	p1, err = ros.Player(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Stats.GamesPlayed)
	assert.Equal(t, 0, p1.Stats.GamesWon)
	p2, err := ros.Player(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, 1, p2.Stats.GamesPlayed)
	assert.Equal(t, 1, p2.Stats.GamesWon)
}

func TestEngine_UndoOfWinWithdrawsResult(t *testing.T) {
	ros := roster.NewMemory()
	e := New(WithIDGenerator(NewFixedGenerator("match-1", "match-2")), WithRoster(ros))
	startEngine(t, e)
	ctx := context.Background()

	cfg := testutil.MatchConfig(rules.Standard9, testutil.WithTargets(1, 1))
	_, err := e.Submit(ctx, start(cfg))
	require.NoError(t, err)
	_, err = e.Submit(ctx, pocket(9))
	require.NoError(t, err)
	_, err = e.Submit(ctx, match.Command{Action: match.ActionUndo})
	require.NoError(t, err)
	_, err = e.Submit(ctx, pocket(9))
	require.NoError(t, err)

	p1, err := ros.Player(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Stats.GamesPlayed)
	assert.Equal(t, 1, p1.Stats.GamesWon)

	// A new match leaves the earlier result alone.
	_, err = e.Submit(ctx, start(cfg))
	require.NoError(t, err)
	p1, err = ros.Player(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p1.Stats.GamesPlayed)
}

func TestEngine_UndoDoesNotResettleRack(t *testing.T) {
	rec := &recorder{}
	e := New(WithObserver(rec))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9)))
	require.NoError(t, err)
	_, err = e.Submit(ctx, pocket(9))
	require.NoError(t, err)
	_, err = e.Submit(ctx, match.Command{Action: match.ActionUndo})
	require.NoError(t, err)
	_, err = e.Submit(ctx, pocket(9))
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.racks, 2, "the replayed rack is reported again, the undo is not")
	assert.Equal(t, 1, rec.racks[0].Rack)
	assert.Equal(t, 1, rec.racks[1].Rack)
}

func TestEngine_CollaboratorFailureDoesNotFailCommand(t *testing.T) {
	rec := &recorder{failWrite: errors.New("disk full")}
	e := New(WithJournal(rec))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9, testutil.WithTargets(1, 1))))
	require.NoError(t, err)
	out, err := e.Submit(ctx, pocket(9))
	require.NoError(t, err)
	assert.Equal(t, match.PhaseFinished, out.State.Table.Phase)
}

func TestEngine_ManualTicksMoveTheClock(t *testing.T) {
	var tickers testutil.ManualTickers
	e := New(WithTicker(func(d time.Duration) Ticker { return tickers.New(d) }))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9, testutil.WithClock(10, 30, 15, 1))))
	require.NoError(t, err)
	require.Equal(t, 1, tickers.Count(), "a running clock starts a ticker")

	tk := tickers.Latest()
	require.True(t, tk.Fire(time.Second))
	require.True(t, tk.Fire(time.Second))

	st, err := e.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, [2]int{8, 10}, st.Clock.MainRemaining)

	_, err = e.Submit(ctx, match.Command{Action: match.ActionTogglePause})
	require.NoError(t, err)
	assert.True(t, tk.Stopped(), "pausing stops the ticker")

	_, err = e.Submit(ctx, match.Command{Action: match.ActionTogglePause})
	require.NoError(t, err)
	assert.Equal(t, 2, tickers.Count(), "resuming starts a fresh ticker")
}

func TestEngine_NoTickerWithoutClock(t *testing.T) {
	var tickers testutil.ManualTickers
	e := New(WithTicker(func(d time.Duration) Ticker { return tickers.New(d) }))
	startEngine(t, e)

	_, err := e.Submit(context.Background(), start(testutil.MatchConfig(rules.Standard9)))
	require.NoError(t, err)
	assert.Equal(t, 0, tickers.Count())
}

func TestEngine_TicksAreNotJournaled(t *testing.T) {
	var tickers testutil.ManualTickers
	rec := &recorder{}
	e := New(WithJournal(rec), WithTicker(func(d time.Duration) Ticker { return tickers.New(d) }))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.JCL9, testutil.WithClock(10, 30, 15, 1))))
	require.NoError(t, err)
	require.True(t, tickers.Latest().Fire(time.Second))
	_, err = e.Submit(ctx, match.Command{Action: match.ActionTick})
	require.NoError(t, err)

	st, err := e.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, st.Clock.MainRemaining[0])
	assert.Len(t, rec.journal(), 1, "only start_match is recorded")
}

func TestEngine_RealTickerEventuallyTicks(t *testing.T) {
	g := gomega.NewWithT(t)
	e := New(WithTickInterval(5 * time.Millisecond))
	startEngine(t, e)
	ctx := context.Background()

	_, err := e.Submit(ctx, start(testutil.MatchConfig(rules.Standard9, testutil.WithClock(1000, 30, 15, 1))))
	require.NoError(t, err)

	g.Eventually(func() int {
		st, err := e.State(ctx)
		if err != nil {
			return -1
		}
		return st.Clock.MainRemaining[0]
	}, time.Second, 5*time.Millisecond).Should(gomega.BeNumerically("<", 1000))
}

func TestEngine_StopDrainsQueue(t *testing.T) {
	rec := &recorder{}
	e := New(WithJournal(rec))

	require.True(t, e.Enqueue(start(testutil.MatchConfig(rules.JPA9))))
	for _, n := range []int{1, 2, 3} {
		require.True(t, e.Enqueue(pocket(n)))
	}
	e.Stop()
	assert.False(t, e.Enqueue(pocket(4)), "stopped engine refuses work")

	require.NoError(t, e.Run(context.Background()))
	assert.Len(t, rec.journal(), 4)
}

func TestEngine_ContextCancelStopsRun(t *testing.T) {
	e := New()
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}

	_, err := e.Submit(context.Background(), pocket(1))
	assert.ErrorIs(t, err, ErrStopped)
	_, err = e.State(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestEngine_SubmitHonorsContext(t *testing.T) {
	e := New() // never run

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := e.Submit(ctx, pocket(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCollaboratorError(t *testing.T) {
	base := errors.New("locked")
	err := error(&CollaboratorError{Collaborator: "roster", MatchID: "m", Err: base})

	assert.True(t, IsCollaboratorError(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "roster (match=m): locked", err.Error())
	assert.False(t, IsCollaboratorError(base))
}
