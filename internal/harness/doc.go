// Package harness runs match scenarios as executable rules tests.
//
// A scenario names a configuration preset, a list of steps and the
// assertions that must hold afterwards. Steps are submitted to a real
// engine, so a scenario exercises exactly the path a scoreboard takes.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	preset:
//	  variant: jcl9
//	  targets: [14, 14]
//	steps:
//	  - action: pocket_ball
//	    ball: 3
//	  - action: pocket_ball
//	    ball: 3
//	    expect_error: BALL_NOT_ON_TABLE
//	  - action: tick
//	    repeat: 5
//	assertions:
//	  - type: final_state
//	    expect: { scores: [0, 0], rack: 1 }
//	  - type: result
//	    expect: { winner: p1, condition: hill_hill }
//
// The preset is layered over the builtin defaults and two default seats,
// p1 and p2. The match is started before the first step.
//
// # Assertion Types
//
//   - trace_count: an action occurs exactly N times with a given outcome
//   - trace_order: actions occur in the given order
//   - final_state: fields of the final table and clock
//   - result: fields of the decided match
//   - roster: a player's lifetime record after the scenario
//
// # Deterministic Testing
//
// Match IDs come from a sequential generator and the clock only moves on
// explicit tick steps, so a scenario always produces the same trace. The
// trace is compared against testdata/golden/<name>.golden.
//
// After every step the table invariants are checked; a violation fails
// the scenario even if every assertion passes.
package harness
