package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rackscore/internal/config"
)

// FormatTrace renders a result as stable text for golden comparison.
//
// Format:
//
//	scenario: <name>
//	config: variant=<v> targets=<a>-<b> break=<rule> three_foul=<bool> stats=<bool> clock=<on|off>
//	<seq> <command> -> <outcome> | <phase> turn=<p> score=<a>-<b> rack=<n> inning=<n>
//	...
//	result: winner=<id> condition=<c> score=<a>-<b> racks=<n> innings=<n>
//
// The result line is "result: none" for an undecided match.
func FormatTrace(name string, result *Result) []byte {
	var buf strings.Builder

	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "config: %s\n", formatConfig(result.Config))
	for _, event := range result.Trace {
		fmt.Fprintf(&buf, "%s\n", formatEvent(event))
	}

	if res := result.State.Result; res != nil {
		fmt.Fprintf(&buf, "result: winner=%s condition=%s score=%d-%d racks=%d innings=%d\n",
			res.Winner.ID, res.WinCondition, res.FinalScore[0], res.FinalScore[1], res.TotalRacks, res.TotalInnings)
	} else {
		buf.WriteString("result: none\n")
	}

	return []byte(buf.String())
}

func formatConfig(m config.Match) string {
	clock := "off"
	if m.Clock.Enabled {
		clock = "on"
	}
	return fmt.Sprintf("variant=%s targets=%d-%d break=%s three_foul=%t stats=%t clock=%s",
		m.Variant, m.Targets[0], m.Targets[1], m.BreakRule, m.ThreeFoulRule, m.TrackStats, clock)
}

func formatEvent(e TraceEvent) string {
	return fmt.Sprintf("%04d %s -> %s | %s turn=%d score=%d-%d rack=%d inning=%d",
		e.Seq, e.Command, e.Outcome, e.Phase, e.Current, e.Scores[0], e.Scores[1], e.Rack, e.Inning)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, FormatTrace(scenarioName, result))
}

// GoldenFile returns the golden path for a scenario in dir.
func GoldenFile(dir, scenarioName string) string {
	return filepath.Join(dir, scenarioName+".golden")
}

// GoldenCheck compares each scenario's trace with its golden file in dir.
// Scenarios without a golden file are judged on their assertions alone.
// With update set, the golden files are rewritten instead.
func GoldenCheck(dir string, update bool) Check {
	return func(_ string, s *Scenario, r *Result) []string {
		path := GoldenFile(dir, s.Name)
		got := FormatTrace(s.Name, r)

		if update {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return []string{fmt.Sprintf("create golden dir: %v", err)}
			}
			if err := os.WriteFile(path, got, 0o644); err != nil {
				return []string{fmt.Sprintf("write golden file: %v", err)}
			}
			return nil
		}

		want, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return []string{fmt.Sprintf("read golden file: %v", err)}
		}
		if !bytes.Equal(want, got) {
			return []string{fmt.Sprintf("trace does not match %s (run with --update to regenerate)", path)}
		}
		return nil
	}
}
