package match

import (
	"fmt"

	"github.com/roach88/rackscore/internal/config"
)

// ClockState is the time slice of a match. It is never restored by Undo.
type ClockState struct {
	MainRemaining       [2]int  `json:"main_remaining"`
	ShotRemaining       int     `json:"shot_remaining"`
	ExtensionsRemaining [2]int  `json:"extensions_remaining"`
	UsingShotClock      [2]bool `json:"using_shot_clock"`
	Paused              bool    `json:"paused"`
}

func newClockState(cfg config.Clock) ClockState {
	return ClockState{
		MainRemaining:       [2]int{cfg.MainSeconds, cfg.MainSeconds},
		ShotRemaining:       cfg.ShotClockSeconds,
		ExtensionsRemaining: [2]int{cfg.ExtensionsPerRack, cfg.ExtensionsPerRack},
	}
}

// Tick advances one second against p. Main time runs down first; once
// it is exhausted p moves to the shot clock for the rest of the match.
func (s *ClockState) Tick(cfg config.Clock, p Player) {
	i := p.idx()
	if !s.UsingShotClock[i] {
		if s.MainRemaining[i] > 0 {
			s.MainRemaining[i]--
		}
		if s.MainRemaining[i] == 0 {
			s.UsingShotClock[i] = true
			s.ShotRemaining = cfg.ShotClockSeconds
		}
		return
	}
	if s.ShotRemaining > 0 {
		s.ShotRemaining--
	}
}

// UseExtension adds extension time for p, who must be on the shot clock
// with an extension left.
func (s *ClockState) UseExtension(cfg config.Clock, p Player) error {
	i := p.idx()
	if !s.UsingShotClock[i] {
		return &RuleError{Code: ErrCodeNotInShotClock, Message: fmt.Sprintf("player %d is still on main time", p)}
	}
	if s.ExtensionsRemaining[i] <= 0 {
		return &RuleError{Code: ErrCodeNoExtension, Message: fmt.Sprintf("player %d has no extension left this rack", p)}
	}
	s.ExtensionsRemaining[i]--
	s.ShotRemaining += cfg.ExtensionSeconds
	return nil
}

// ResetShot reloads the shot clock.
func (s *ClockState) ResetShot(cfg config.Clock) {
	s.ShotRemaining = cfg.ShotClockSeconds
}

// Replenish restores both players' per-rack extensions.
func (s *ClockState) Replenish(cfg config.Clock) {
	s.ExtensionsRemaining = [2]int{cfg.ExtensionsPerRack, cfg.ExtensionsPerRack}
}

// ShotExpired reports whether p is on the shot clock and it has run out.
func (s *ClockState) ShotExpired(p Player) bool {
	return s.UsingShotClock[p.idx()] && s.ShotRemaining == 0
}
