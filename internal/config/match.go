package config

import (
	"fmt"
	"strings"

	"github.com/roach88/rackscore/internal/rules"
)

// BreakRule decides who breaks the next rack.
type BreakRule string

const (
	// BreakWinner gives the break to whoever won the previous rack.
	BreakWinner BreakRule = "winner"

	// BreakAlternate gives rack N to player 1 when N is odd, player 2 when even.
	BreakAlternate BreakRule = "alternate"
)

// PlayerRef identifies a seated player. ID is the roster key.
type PlayerRef struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Label is the display name, falling back to the ID.
func (p PlayerRef) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Clock configures the chess clock and shot clock.
type Clock struct {
	Enabled           bool `yaml:"enabled" json:"enabled"`
	MainSeconds       int  `yaml:"main_seconds" json:"main_seconds"`
	ShotClockSeconds  int  `yaml:"shot_clock_seconds" json:"shot_clock_seconds"`
	ExtensionSeconds  int  `yaml:"extension_seconds" json:"extension_seconds"`
	ExtensionsPerRack int  `yaml:"extensions_per_rack" json:"extensions_per_rack"`
}

// Match is the immutable configuration of one match.
type Match struct {
	Variant       rules.Variant `yaml:"variant" json:"variant"`
	Players       [2]PlayerRef  `yaml:"players" json:"players"`
	Targets       [2]int        `yaml:"targets" json:"targets"`
	BreakRule     BreakRule     `yaml:"break_rule" json:"break_rule"`
	ThreeFoulRule bool          `yaml:"three_foul_rule" json:"three_foul_rule"`
	// TrackStats off is the simple operation mode: no per-player
	// statistics and no roster update when the match ends.
	TrackStats bool  `yaml:"track_stats" json:"track_stats"`
	Clock      Clock `yaml:"clock" json:"clock"`
}

// Rules returns the catalog entry for the configured variant.
// Only call on a validated Match.
func (m Match) Rules() rules.Rules {
	return rules.MustLookup(m.Variant)
}

// ThreeFoulActive reports whether three consecutive fouls lose the rack.
func (m Match) ThreeFoulActive() bool {
	r, err := rules.Lookup(m.Variant)
	return err == nil && m.ThreeFoulRule && r.ThreeFoulSupported
}

// SwapPlayers exchanges the seats, keeping each player's target with them.
func (m Match) SwapPlayers() Match {
	m.Players[0], m.Players[1] = m.Players[1], m.Players[0]
	m.Targets[0], m.Targets[1] = m.Targets[1], m.Targets[0]
	return m
}

// SwapTargets exchanges only the handicap targets.
func (m Match) SwapTargets() Match {
	m.Targets[0], m.Targets[1] = m.Targets[1], m.Targets[0]
	return m
}

// Validation error codes (C100-C199)
const (
	ErrUnknownVariant    = "C101"
	ErrMissingPlayer     = "C102"
	ErrDuplicatePlayer   = "C103"
	ErrTargetTooLow      = "C104"
	ErrUnknownBreakRule  = "C105"
	ErrInvalidClock      = "C106"
	ErrSchemaViolation   = "C110"
	ErrMalformedDocument = "C111"
)

// MinTarget is the smallest race a match may be played to.
const MinTarget = 1

// ValidationError is one problem with a configuration.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "invalid match configuration: " + strings.Join(msgs, "; ")
}

// Validate returns all configuration errors; nil means the match can start.
func (m Match) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := rules.Lookup(m.Variant); err != nil {
		add("variant", ErrUnknownVariant, "%v", err)
	}

	for i, p := range m.Players {
		if strings.TrimSpace(p.ID) == "" {
			add(fmt.Sprintf("players[%d].id", i), ErrMissingPlayer, "player %d must be selected", i+1)
		}
	}
	if m.Players[0].ID != "" && m.Players[0].ID == m.Players[1].ID {
		add("players", ErrDuplicatePlayer, "player %q cannot play both seats", m.Players[0].ID)
	}

	for i, target := range m.Targets {
		if target < MinTarget {
			add(fmt.Sprintf("targets[%d]", i), ErrTargetTooLow, "target must be at least %d, got %d", MinTarget, target)
		}
	}

	switch m.BreakRule {
	case BreakWinner, BreakAlternate:
	default:
		add("break_rule", ErrUnknownBreakRule, "unknown break rule %q", m.BreakRule)
	}

	if m.Clock.Enabled {
		c := m.Clock
		if c.MainSeconds < 0 {
			add("clock.main_seconds", ErrInvalidClock, "must not be negative")
		}
		if c.ShotClockSeconds <= 0 {
			add("clock.shot_clock_seconds", ErrInvalidClock, "must be positive when the clock is enabled")
		}
		if c.ExtensionSeconds < 0 {
			add("clock.extension_seconds", ErrInvalidClock, "must not be negative")
		}
		if c.ExtensionsPerRack < 0 {
			add("clock.extensions_per_rack", ErrInvalidClock, "must not be negative")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
