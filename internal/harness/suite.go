package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SuiteResult summarizes running every scenario in a directory.
type SuiteResult struct {
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Failures  []ScenarioOutcome `json:"failures,omitempty"`
}

// ScenarioOutcome is the verdict for one scenario file.
type ScenarioOutcome struct {
	Path     string   `json:"path"`
	Scenario string   `json:"scenario,omitempty"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors,omitempty"`
}

// Check inspects a finished scenario and returns extra failures, such as
// a golden trace mismatch.
type Check func(path string, s *Scenario, r *Result) []string

// FindScenarios returns the YAML files in dir, sorted by name.
func FindScenarios(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// RunSuite runs the scenarios at paths, each with fresh collaborators,
// then applies checks to every scenario that ran. A scenario that fails
// to load counts as failed.
func RunSuite(ctx context.Context, paths []string, checks ...Check) (*SuiteResult, error) {
	suite := &SuiteResult{Scenarios: []ScenarioOutcome{}}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return suite, err
		}
		suite.add(runOne(ctx, path, checks))
	}

	return suite, nil
}

func runOne(ctx context.Context, path string, checks []Check) ScenarioOutcome {
	scenario, err := LoadScenario(path)
	if err != nil {
		return ScenarioOutcome{Path: path, Errors: []string{err.Error()}}
	}

	out := ScenarioOutcome{Path: path, Scenario: scenario.Name}
	result, err := RunWithOptions(ctx, scenario, Options{})
	if err != nil {
		out.Errors = []string{err.Error()}
		return out
	}

	out.Errors = append(out.Errors, result.Errors...)
	for _, check := range checks {
		out.Errors = append(out.Errors, check(path, scenario, result)...)
	}
	out.Pass = len(out.Errors) == 0
	return out
}

func (s *SuiteResult) add(o ScenarioOutcome) {
	s.Total++
	s.Scenarios = append(s.Scenarios, o)
	if o.Pass {
		s.Passed++
		return
	}
	s.Failed++
	s.Failures = append(s.Failures, o)
}
