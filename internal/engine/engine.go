package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/roster"
)

// DefaultTickInterval is one clock second.
const DefaultTickInterval = time.Second

// Outcome is the reply to a submitted command.
type Outcome struct {
	Seq     int64
	Command match.Command
	Err     error
	State   match.State
}

// Engine hosts one match controller behind the single-writer Run loop.
//
// Thread-safety model:
//   - Submit, Enqueue, Stop: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	ctrl      *match.Controller
	roster    roster.Roster
	journal   Journal
	observers []Observer
	seq       *Sequencer
	queue     *eventQueue
	done      chan struct{}

	newTicker    TickerFactory
	tickInterval time.Duration
	ticker       Ticker
	ids          match.IDGenerator

	// merged is the result currently counted in the roster, if any.
	merged *match.Result
}

// Option configures an Engine.
type Option func(*Engine)

// WithRoster sets where decided matches are merged.
func WithRoster(r roster.Roster) Option {
	return func(e *Engine) { e.roster = r }
}

// WithJournal records every processed command.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithObserver adds an observer, e.g. metrics.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithTicker replaces the clock ticker, typically with a manual one in tests.
func WithTicker(f TickerFactory) Option {
	return func(e *Engine) { e.newTicker = f }
}

// WithTickInterval changes the real duration of one clock second.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// WithIDGenerator sets the source of match IDs (default UUIDv7).
func WithIDGenerator(g match.IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithSequencer continues numbering from an existing sequencer.
func WithSequencer(s *Sequencer) Option {
	return func(e *Engine) { e.seq = s }
}

// New creates an engine with no match in play.
func New(opts ...Option) *Engine {
	e := &Engine{
		seq:          NewSequencer(),
		queue:        newEventQueue(),
		done:         make(chan struct{}),
		newTicker:    NewTimeTicker,
		tickInterval: DefaultTickInterval,
		ids:          UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ctrl = match.NewController(match.WithIDGenerator(e.ids))
	return e
}

// Enqueue submits a command without waiting for it.
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(cmd match.Command) bool {
	return e.queue.Enqueue(Event{Command: cmd})
}

// Submit applies cmd and waits for the outcome. A declined action is
// returned as the error, alongside the unchanged state.
func (e *Engine) Submit(ctx context.Context, cmd match.Command) (Outcome, error) {
	reply := make(chan Outcome, 1)
	if !e.queue.Enqueue(Event{Command: cmd, reply: reply}) {
		return Outcome{}, ErrStopped
	}

	select {
	case out := <-reply:
		return out, out.Err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	case <-e.done:
		select {
		case out := <-reply:
			return out, out.Err
		default:
			return Outcome{}, ErrStopped
		}
	}
}

// State returns a copy of the match state once every command queued
// before it has been processed.
func (e *Engine) State(ctx context.Context) (match.State, error) {
	reply := make(chan Outcome, 1)
	if !e.queue.Enqueue(Event{reply: reply, peek: true}) {
		return match.State{}, ErrStopped
	}
	select {
	case out := <-reply:
		return out.State, nil
	case <-ctx.Done():
		return match.State{}, ctx.Err()
	case <-e.done:
		select {
		case out := <-reply:
			return out.State, nil
		default:
			return match.State{}, ErrStopped
		}
	}
}

// Run processes commands and ticks until ctx is cancelled or Stop is
// called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// Collaborator failures (roster, journal) are logged and processing
// continues; the match itself has already moved on.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")
	defer close(e.done)
	defer e.stopTicker()

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				slog.Info("engine stopping: queue closed")
				return nil
			}

		case <-e.tickC():
			e.tick()
		}
	}
}

// Stop closes the queue. Commands already queued are still processed.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// tickC is nil while no ticker runs, which blocks that select case.
func (e *Engine) tickC() <-chan time.Time {
	if e.ticker == nil {
		return nil
	}
	return e.ticker.C()
}

// CRITICAL: Called only from Run() goroutine.
func (e *Engine) tick() {
	if e.ctrl.Tick() {
		slog.Debug("clock tick", "match_id", e.ctrl.MatchID(), "seq", e.seq.Current())
	}
	e.syncTicker()
}

// process applies one command.
// CRITICAL: Called only from Run() goroutine.
func (e *Engine) process(ctx context.Context, ev Event) {
	if ev.peek {
		ev.reply <- Outcome{Seq: e.seq.Current(), State: e.ctrl.State()}
		return
	}

	cmd := ev.Command
	seq := e.seq.Next()
	wasDecided := e.ctrl.Phase() == match.PhaseFinished
	lastRack := e.ctrl.LastRack()

	err := e.ctrl.Apply(cmd)

	variant := e.ctrl.Config().Variant
	slog.Debug("command processed",
		"seq", seq,
		"match_id", e.ctrl.MatchID(),
		"action", cmd.Action,
		"ball", cmd.Ball,
		"error_code", match.CodeOf(err),
	)

	if cmd.Action != match.ActionTick {
		e.record(ctx, seq, cmd, err)
	}
	for _, o := range e.observers {
		o.ActionProcessed(variant, cmd.Action, err)
	}

	if rack := e.ctrl.LastRack(); err == nil && settles(cmd.Action) && rack != lastRack && rack.Rack > 0 {
		for _, o := range e.observers {
			o.RackSettled(variant, rack)
		}
	}
	switch {
	case err != nil:
		// Declined; nothing moved.
	case cmd.Action == match.ActionStartMatch:
		e.merged = nil
	case wasDecided && e.ctrl.Phase() != match.PhaseFinished:
		e.reopened(ctx)
	case !wasDecided && e.ctrl.Phase() == match.PhaseFinished:
		e.decided(ctx)
	}

	e.syncTicker()

	if ev.reply != nil {
		ev.reply <- Outcome{Seq: seq, Command: cmd, Err: err, State: e.ctrl.State()}
	}
}

// settles reports whether action can move play forward into a new rack.
// Undo and resume only ever restore an earlier rack.
func settles(a match.Action) bool {
	return a != match.ActionUndo && a != match.ActionResume && a != match.ActionStartMatch
}

func (e *Engine) record(ctx context.Context, seq int64, cmd match.Command, err error) {
	if e.journal == nil {
		return
	}
	entry := JournalEntry{
		MatchID:   e.ctrl.MatchID(),
		Seq:       seq,
		Command:   cmd,
		Accepted:  err == nil,
		ErrorCode: match.CodeOf(err),
	}
	if jerr := e.journal.RecordAction(ctx, entry); jerr != nil {
		logCollaboratorError(&CollaboratorError{Collaborator: "journal", MatchID: entry.MatchID, Err: jerr})
	}
}

// decided hands a fresh result to the roster, journal and observers.
func (e *Engine) decided(ctx context.Context) {
	res := e.ctrl.Result()
	if res == nil {
		return
	}

	if e.roster != nil {
		if err := e.roster.ApplyMatchResult(ctx, *res); err != nil {
			logCollaboratorError(&CollaboratorError{Collaborator: "roster", MatchID: res.MatchID, Err: err})
		} else {
			merged := *res
			e.merged = &merged
		}
	}
	if e.journal != nil {
		if err := e.journal.RecordResult(ctx, *res); err != nil {
			logCollaboratorError(&CollaboratorError{Collaborator: "journal", MatchID: res.MatchID, Err: err})
		}
	}
	for _, o := range e.observers {
		o.MatchDecided(*res)
	}

	slog.Info("match result recorded",
		"match_id", res.MatchID,
		"winner", res.Winner.ID,
		"condition", res.WinCondition,
	)
}

// reopened takes the merged result back out of the roster after undo or
// resume returned a decided match to play. Deciding it again merges the
// new result.
func (e *Engine) reopened(ctx context.Context) {
	res := e.merged
	if res == nil || res.MatchID != e.ctrl.MatchID() {
		return
	}
	e.merged = nil
	if err := e.roster.RevertMatchResult(ctx, *res); err != nil {
		logCollaboratorError(&CollaboratorError{Collaborator: "roster", MatchID: res.MatchID, Err: err})
		return
	}
	slog.Info("match reopened, result withdrawn from roster", "match_id", res.MatchID)
}

// syncTicker runs the ticker exactly while the match clock is running.
func (e *Engine) syncTicker() {
	running := e.ctrl.ClockRunning()
	switch {
	case running && e.ticker == nil:
		e.ticker = e.newTicker(e.tickInterval)
		slog.Debug("clock ticker started", "match_id", e.ctrl.MatchID(), "interval", e.tickInterval)
	case !running && e.ticker != nil:
		e.stopTicker()
		slog.Debug("clock ticker stopped", "match_id", e.ctrl.MatchID())
	}
}

func (e *Engine) stopTicker() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func logCollaboratorError(err *CollaboratorError) {
	slog.Error("collaborator failed",
		"collaborator", err.Collaborator,
		"match_id", err.MatchID,
		"error", err.Err,
	)
}
