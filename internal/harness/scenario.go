package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/match"
)

// Scenario defines a rules test: a configuration, the steps played and
// the assertions on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Preset is layered over the builtin defaults.
	Preset config.Preset `yaml:"preset"`

	// Steps are played in order after the match starts.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state, result, roster and trace.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one command, optionally repeated.
type Step struct {
	Action match.Action `yaml:"action"`
	Ball   int          `yaml:"ball,omitempty"`

	// Repeat applies the command this many times (default 1).
	Repeat int `yaml:"repeat,omitempty"`

	// ExpectError is the error code every repetition must be declined
	// with. Empty means every repetition must be accepted.
	ExpectError match.ErrorCode `yaml:"expect_error,omitempty"`
}

// Command returns the match command for this step.
func (s Step) Command() match.Command {
	return match.Command{Action: s.Action, Ball: s.Ball}
}

// Times returns how often the step is applied.
func (s Step) Times() int {
	if s.Repeat < 1 {
		return 1
	}
	return s.Repeat
}

// Assertion validates trace, state, result or roster.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": Check action appears exactly N times with Outcome
	// - "trace_order": Check actions appear in order
	// - "final_state": Check fields of the final table and clock
	// - "result": Check fields of the match result
	// - "roster": Check a player's lifetime record
	Type string `yaml:"type"`

	// Action is the action name (used by trace_count).
	Action match.Action `yaml:"action,omitempty"`

	// Outcome filters trace_count: "ok" (default) or an error code.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (used by trace_order).
	Actions []match.Action `yaml:"actions,omitempty"`

	// Player is the roster ID (used by roster).
	Player string `yaml:"player,omitempty"`

	// Expect contains expected field values. Subset match - only the
	// listed fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
	AssertFinalState = "final_state"
	AssertResult     = "result"
	AssertRoster     = "roster"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required", i)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("steps[%d]: repeat must be non-negative", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertFinalState, AssertResult:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for %s", index, a.Type)
		}
	case AssertRoster:
		if a.Player == "" {
			return fmt.Errorf("assertions[%d]: player is required for roster", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for roster", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
