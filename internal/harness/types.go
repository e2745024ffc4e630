package harness

import (
	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/roster"
)

// OutcomeOK marks an accepted step in the trace.
const OutcomeOK = "ok"

// TraceEvent is one processed step.
type TraceEvent struct {
	Seq     int64        `json:"seq"`
	Command string       `json:"command"`
	Action  match.Action `json:"action"`
	Outcome string       `json:"outcome"` // OutcomeOK or the error code
	Phase   match.Phase  `json:"phase"`
	Current match.Player `json:"current"`
	Scores  [2]int       `json:"scores"`
	Rack    int          `json:"rack"`
	Inning  int          `json:"inning"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step matched its expectation, no invariant
	// broke and every assertion held.
	Pass bool `json:"pass"`

	Config config.Match `json:"config"`

	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final match state.
	State match.State `json:"state"`

	// Players is the roster after the scenario.
	Players []roster.Player `json:"players"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records a processed step.
func (r *Result) AddTrace(seq int64, cmd match.Command, outcome string, st match.State) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     seq,
		Command: cmd.String(),
		Action:  cmd.Action,
		Outcome: outcome,
		Phase:   st.Table.Phase,
		Current: st.Table.Current,
		Scores:  st.Table.Scores,
		Rack:    st.Table.Rack,
		Inning:  st.Table.Inning,
	})
}
