package harness

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/rackscore/internal/match"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", formatEvent(event))
		}
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertFinalState:
			err = assertFields(AssertFinalState, stateFields(result.State), assertion.Expect)
		case AssertResult:
			if result.State.Result == nil {
				err = &AssertionError{
					Type:     AssertResult,
					Expected: "a decided match",
					Actual:   fmt.Sprintf("phase %s", result.State.Table.Phase),
					Trace:    result.Trace,
				}
			} else {
				err = assertFields(AssertResult, resultFields(*result.State.Result), assertion.Expect)
			}
		case AssertRoster:
			err = assertRoster(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// assertTraceCount checks if the action appears exactly the specified
// number of times with the given outcome.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	outcome := assertion.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}

	count := 0
	for _, event := range trace {
		if event.Action == assertion.Action && event.Outcome == outcome {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s (%s)", assertion.Count, assertion.Action, outcome),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceOrder checks if accepted actions appear in the specified
// order. Actions don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Actions) && event.Outcome == OutcomeOK && event.Action == assertion.Actions[next] {
			next++
		}
	}

	if next < len(assertion.Actions) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
			Actual:   fmt.Sprintf("stopped matching at %s", assertion.Actions[next]),
			Trace:    trace,
		}
	}

	return nil
}

func assertRoster(result *Result, assertion Assertion) error {
	for _, p := range result.Players {
		if p.ID != assertion.Player {
			continue
		}
		fields := structFields(p.Stats)
		for k, v := range structFields(p.Stats.Derived()) {
			fields[k] = v
		}
		fields["name"] = p.Name
		return assertFields(AssertRoster, fields, assertion.Expect)
	}

	return &AssertionError{
		Type:     AssertRoster,
		Expected: fmt.Sprintf("player %s in roster", assertion.Player),
		Actual:   "player not found",
	}
}

// stateFields flattens the state into the names final_state accepts.
func stateFields(st match.State) map[string]any {
	t := st.Table
	return map[string]any{
		"phase":                t.Phase,
		"current":              t.Current,
		"scores":               t.Scores,
		"on_table":             t.OnTable,
		"dead":                 t.Dead,
		"pending_dead":         t.PendingDead,
		"dead_mode":            t.DeadMode,
		"shot_active":          t.ShotActive,
		"shot_balls":           t.ShotBalls,
		"fouls":                t.Fouls,
		"rack":                 t.Rack,
		"inning":               t.Inning,
		"rack_balls":           t.RackBalls,
		"hill_hill":            t.HillHill,
		"total_shots":          t.TotalShots,
		"last_rack":            t.LastRack,
		"stats":                t.Stats,
		"undoable":             st.Undoable,
		"main_remaining":       st.Clock.MainRemaining,
		"shot_remaining":       st.Clock.ShotRemaining,
		"extensions_remaining": st.Clock.ExtensionsRemaining,
		"using_shot_clock":     st.Clock.UsingShotClock,
		"paused":               st.Clock.Paused,
	}
}

func resultFields(res match.Result) map[string]any {
	fields := structFields(res)
	fields["winner"] = res.Winner.ID
	fields["loser"] = res.Loser.ID
	fields["condition"] = res.WinCondition
	return fields
}

// structFields returns v's JSON fields by name.
func structFields(v any) map[string]any {
	fields := map[string]any{}
	data, err := json.Marshal(v)
	if err != nil {
		return fields
	}
	_ = json.Unmarshal(data, &fields)
	return fields
}

// assertFields checks each expected field (subset semantics).
func assertFields(kind string, actual, expected map[string]any) error {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q is not a %s field", key, kind),
			}
		}
		if !valuesEqual(actualValue, expected[key]) {
			return &AssertionError{
				Type:     kind,
				Expected: fmt.Sprintf("field %q = %v", key, expected[key]),
				Actual:   fmt.Sprintf("field %q = %v", key, actualValue),
			}
		}
	}
	return nil
}

// valuesEqual compares two values through their JSON form, so YAML ints
// match Go ints and typed strings match plain ones.
func valuesEqual(actual, expected any) bool {
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
