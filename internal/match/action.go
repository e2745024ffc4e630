package match

import (
	"fmt"

	"github.com/roach88/rackscore/internal/config"
)

// Action names an inbound operation.
type Action string

const (
	ActionStartMatch     Action = "start_match"
	ActionPocketBall     Action = "pocket_ball"
	ActionToggleShot     Action = "toggle_shot_mode"
	ActionToggleDeadMode Action = "toggle_dead_mode"
	ActionMarkDead       Action = "mark_dead"
	ActionUnmarkDead     Action = "unmark_dead"
	ActionSwitchPlayer   Action = "switch_player"
	ActionSafety         Action = "safety"
	ActionFoul           Action = "foul"
	ActionUndo           Action = "undo"
	ActionTogglePause    Action = "toggle_pause"
	ActionUseExtension   Action = "use_extension"
	ActionResume         Action = "resume"
	ActionTick           Action = "tick"
)

// Command is a serializable action, as stored in scripts and journals.
type Command struct {
	Action Action        `yaml:"action" json:"action"`
	Ball   int           `yaml:"ball,omitempty" json:"ball,omitempty"`
	Config *config.Match `yaml:"-" json:"config,omitempty"`
}

// String renders the command for logs and traces.
func (c Command) String() string {
	if c.Ball > 0 {
		return fmt.Sprintf("%s(%d)", c.Action, c.Ball)
	}
	return string(c.Action)
}

// Apply dispatches cmd to the matching Controller method.
func (c *Controller) Apply(cmd Command) error {
	switch cmd.Action {
	case ActionStartMatch:
		if cmd.Config == nil {
			return &RuleError{Code: ErrCodeInvalidConfig, Message: "start_match needs a configuration"}
		}
		return c.StartMatch(*cmd.Config)
	case ActionPocketBall:
		return c.PocketBall(cmd.Ball)
	case ActionToggleShot:
		return c.ToggleShotMode()
	case ActionToggleDeadMode:
		return c.ToggleDeadBallMode()
	case ActionMarkDead:
		return c.MarkDeadBall(cmd.Ball)
	case ActionUnmarkDead:
		return c.UnmarkDeadBall(cmd.Ball)
	case ActionSwitchPlayer:
		return c.SwitchPlayer()
	case ActionSafety:
		return c.Safety()
	case ActionFoul:
		return c.Foul()
	case ActionUndo:
		return c.Undo()
	case ActionTogglePause:
		return c.TogglePause()
	case ActionUseExtension:
		return c.UseExtension()
	case ActionResume:
		return c.Resume()
	case ActionTick:
		c.Tick()
		return nil
	default:
		return &RuleError{Code: ErrCodeUnknownAction, Message: fmt.Sprintf("unknown action %q", cmd.Action)}
	}
}
