package engine

import (
	"context"
	"time"

	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/rules"
)

// JournalEntry is one processed command.
type JournalEntry struct {
	MatchID   string          `json:"match_id"`
	Seq       int64           `json:"seq"`
	Command   match.Command   `json:"command"`
	Accepted  bool            `json:"accepted"`
	ErrorCode match.ErrorCode `json:"error_code,omitempty"`
}

// Journal records processed commands and decided matches.
type Journal interface {
	RecordAction(ctx context.Context, entry JournalEntry) error
	RecordResult(ctx context.Context, res match.Result) error
}

// Observer is notified of processed events. Calls happen on the Run
// goroutine and must not block.
type Observer interface {
	ActionProcessed(variant rules.Variant, action match.Action, err error)
	RackSettled(variant rules.Variant, outcome match.RackOutcome)
	MatchDecided(res match.Result)
}

// Ticker delivers clock ticks to the loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every interval.
type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker is the production TickerFactory.
func NewTimeTicker(interval time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(interval)}
}
