// Package engine hosts a match behind a single-writer event loop.
//
// ARCHITECTURE:
//
// Commands arrive from any goroutine through a FIFO queue. Clock ticks
// arrive from a ticker owned by the loop. Run is the only goroutine that
// touches the match controller, so a tick is always applied entirely
// before or entirely after a command, never in the middle of one.
//
// Event Processing Flow:
// 1. Submit or Enqueue places a command on the queue
// 2. Run dequeues it and applies it to the controller
// 3. The processed command is journaled and observers are notified
// 4. If the action decided the match, the result goes to the roster
// 5. The ticker is started or stopped to match the clock's state
//
// Every processed command is stamped with a sequence number from the
// Sequencer, giving a total order for journals and traces. Wall-clock
// time never orders anything.
//
// Ticks are not journaled: the clock is advisory and replaying a
// journal reproduces the table, not the time.
package engine
