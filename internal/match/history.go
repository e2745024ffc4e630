package match

import (
	"fmt"
	"log/slog"

	"github.com/mitchellh/copystructure"
)

// Entry is one undo step: the action taken and the table before it.
type Entry struct {
	Action Action
	Prior  Table
}

// History is the undo stack of a match. It is unbounded and cleared
// when a new match starts.
type History struct {
	entries []Entry
}

// Push records prior as the state to return to when action is undone.
// prior must already be a private copy.
func (h *History) Push(action Action, prior Table) {
	h.entries = append(h.entries, Entry{Action: action, Prior: prior})
}

// Pop removes and returns the newest entry.
func (h *History) Pop() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	last := h.entries[len(h.entries)-1]
	h.entries[len(h.entries)-1] = Entry{}
	h.entries = h.entries[:len(h.entries)-1]
	return last, true
}

// Len returns the number of undoable steps.
func (h *History) Len() int { return len(h.entries) }

// Actions lists the recorded actions, oldest first.
func (h *History) Actions() []Action {
	out := make([]Action, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Action
	}
	return out
}

// Clear drops every entry.
func (h *History) Clear() { h.entries = nil }

// clone deep-copies v so later mutation of the original cannot reach it.
func clone[T any](v T) T {
	copied, err := copystructure.Copy(v)
	if err != nil {
		slog.Warn("failed to deep copy match state, sharing it", "type", fmt.Sprintf("%T", v), "error", err)
		return v
	}
	return copied.(T)
}
