// Package match is the rules engine for a single two-player match.
//
// A Controller owns the match state and exposes one method per player or
// referee action. Every method either applies the action completely or
// returns a *RuleError and leaves the state exactly as it was.
//
// State is split in two slices:
//
//   - Table: turns, balls, scores, fouls, innings and statistics. Every
//     accepted action pushes a deep copy of the prior Table onto the
//     history, and Undo restores it.
//   - ClockState: the chess clock and shot clock. Time only moves
//     forward, so Undo never touches it.
//
// A Controller is not safe for concurrent use. The engine package hosts
// it behind a single-writer loop that also delivers clock ticks.
package match
