package harness

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/engine"
	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/roster"
	"github.com/roach88/rackscore/internal/rules"
	"github.com/roach88/rackscore/internal/testutil"
)

// DefaultSeats are the players every scenario starts with unless its
// preset names others.
var DefaultSeats = [2]config.PlayerRef{
	{ID: "p1", Name: "Player 1"},
	{ID: "p2", Name: "Player 2"},
}

// Options tunes a scenario run.
type Options struct {
	// Roster receives decided matches. Defaults to an in-memory roster
	// seeded with the scenario's seats.
	Roster roster.Roster

	// Journal, if set, records every processed command.
	Journal engine.Journal

	// Observers are attached to the engine.
	Observers []engine.Observer

	// IDs assigns match IDs. Defaults to match-1, match-2, ...
	IDs match.IDGenerator

	// Sequencer numbers processed commands. Defaults to one starting at 1;
	// pass one continuing a journal's last sequence to append to it.
	Sequencer *engine.Sequencer

	// Defaults is the bottom configuration layer. Nil means the builtin
	// defaults, so runs do not depend on the environment.
	Defaults *config.Defaults
}

// Config resolves the match configuration a scenario plays with over the
// builtin defaults.
func Config(s *Scenario) (config.Match, error) {
	return resolve(config.BuiltinDefaults(), s)
}

func resolve(d config.Defaults, s *Scenario) (config.Match, error) {
	data, err := yaml.Marshal(s.Preset)
	if err != nil {
		return config.Match{}, fmt.Errorf("encode preset: %w", err)
	}
	if err := config.CheckPreset(data); err != nil {
		return config.Match{}, err
	}

	seats := config.Preset{Players: DefaultSeats[:]}
	return config.Resolve(d, seats, s.Preset)
}

// Run executes a scenario with default options.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithOptions(context.Background(), scenario, Options{})
}

// RunWithOptions executes a scenario and returns the result.
//
// Execution flow:
// 1. Resolve the configuration and start an engine
// 2. Start the match
// 3. Submit each step, checking its outcome and the table invariants
// 4. Evaluate assertions against the final state, result and roster
//
// An error is returned only when the scenario cannot be executed; rule
// failures are reported in Result.Errors.
func RunWithOptions(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	defaults := config.BuiltinDefaults()
	if opts.Defaults != nil {
		defaults = *opts.Defaults
	}
	cfg, err := resolve(defaults, scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	ros := opts.Roster
	if ros == nil {
		ros = roster.NewMemory(cfg.Players[0], cfg.Players[1])
	}

	// Tickers never fire: time moves only on explicit tick steps.
	ids := opts.IDs
	if ids == nil {
		ids = testutil.NewSequentialIDs("match")
	}

	var tickers testutil.ManualTickers
	engineOpts := []engine.Option{
		engine.WithRoster(ros),
		engine.WithIDGenerator(ids),
		engine.WithTicker(func(d time.Duration) engine.Ticker { return tickers.New(d) }),
	}
	if opts.Sequencer != nil {
		engineOpts = append(engineOpts, engine.WithSequencer(opts.Sequencer))
	}
	if opts.Journal != nil {
		engineOpts = append(engineOpts, engine.WithJournal(opts.Journal))
	}
	for _, o := range opts.Observers {
		engineOpts = append(engineOpts, engine.WithObserver(o))
	}
	eng := engine.New(engineOpts...)

	runCtx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-eng.Done()
	}()
	go func() { _ = eng.Run(runCtx) }()

	result := NewResult()
	result.Config = cfg
	r := &runner{eng: eng, rules: cfg.Rules(), result: result}

	start := match.Command{Action: match.ActionStartMatch, Config: &cfg}
	if err := r.submit(runCtx, "start", start, ""); err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		c := step.Command()
		if c.Action == match.ActionStartMatch {
			c.Config = &cfg
		}
		for n := 0; n < step.Times(); n++ {
			if err := r.submit(runCtx, fmt.Sprintf("step %d", i), c, step.ExpectError); err != nil {
				return nil, err
			}
		}
	}

	st, err := eng.State(runCtx)
	if err != nil {
		return nil, fmt.Errorf("read final state: %w", err)
	}
	result.State = st

	players, err := ros.Players(runCtx)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	result.Players = players

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

type runner struct {
	eng    *engine.Engine
	rules  rules.Rules
	result *Result
}

// submit applies one command, records it and checks its outcome and the
// table invariants.
func (r *runner) submit(ctx context.Context, where string, c match.Command, want match.ErrorCode) error {
	out, err := r.eng.Submit(ctx, c)

	outcome := OutcomeOK
	if err != nil {
		code := match.CodeOf(err)
		if code == "" {
			return fmt.Errorf("submit %s: %w", c, err)
		}
		outcome = string(code)
	}
	r.result.AddTrace(out.Seq, c, outcome, out.State)

	wantOutcome := OutcomeOK
	if want != "" {
		wantOutcome = string(want)
	}
	if outcome != wantOutcome {
		detail := ""
		if err != nil {
			detail = ": " + err.Error()
		}
		r.result.AddError(fmt.Sprintf("%s (%s): expected %s, got %s%s", where, c, wantOutcome, outcome, detail))
	}

	if err := out.State.Table.Check(r.rules); err != nil {
		r.result.AddError(fmt.Sprintf("%s (%s): invariant broken at seq %d: %v", where, c, out.Seq, err))
	}
	return nil
}
