package match

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes declined actions.
type ErrorCode string

const (
	ErrCodeBallNotOnTable   ErrorCode = "BALL_NOT_ON_TABLE"
	ErrCodeBallNotDead      ErrorCode = "BALL_NOT_DEAD"
	ErrCodeEndBallDead      ErrorCode = "END_BALL_DEAD"
	ErrCodeShotInProgress   ErrorCode = "SHOT_IN_PROGRESS"
	ErrCodeDeadModeActive   ErrorCode = "DEAD_MODE_ACTIVE"
	ErrCodeNoExtension      ErrorCode = "NO_EXTENSION"
	ErrCodeNotInShotClock   ErrorCode = "NOT_IN_SHOT_CLOCK"
	ErrCodeClockDisabled    ErrorCode = "CLOCK_DISABLED"
	ErrCodeNothingToUndo    ErrorCode = "NOTHING_TO_UNDO"
	ErrCodeMatchNotActive   ErrorCode = "MATCH_NOT_ACTIVE"
	ErrCodeMatchNotFinished ErrorCode = "MATCH_NOT_FINISHED"
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeUnknownAction    ErrorCode = "UNKNOWN_ACTION"
)

// RuleError is returned for an action the rules do not allow right now.
// The match state is unchanged when one is returned.
type RuleError struct {
	Code    ErrorCode
	Message string

	// Ball is the ball the action referred to, if any.
	Ball int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Ball > 0 {
		return fmt.Sprintf("%s: %s (ball=%d)", e.Code, e.Message, e.Ball)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of a RuleError anywhere in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsRuleError reports whether err is a RuleError with the given code.
func IsRuleError(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

func errBallNotOnTable(ball int) *RuleError {
	return &RuleError{Code: ErrCodeBallNotOnTable, Message: "ball is not on the table", Ball: ball}
}

func errEndBallDead(ball int) *RuleError {
	return &RuleError{Code: ErrCodeEndBallDead, Message: "the end ball cannot be marked dead", Ball: ball}
}

func errNotActive(phase Phase) *RuleError {
	return &RuleError{Code: ErrCodeMatchNotActive, Message: fmt.Sprintf("no match in play (phase=%s)", phase)}
}

var (
	errShotInProgress = &RuleError{Code: ErrCodeShotInProgress, Message: "finish the current shot first"}
	errDeadModeActive = &RuleError{Code: ErrCodeDeadModeActive, Message: "leave dead-ball selection first"}
	errClockDisabled  = &RuleError{Code: ErrCodeClockDisabled, Message: "the clock is not enabled for this match"}
	errNothingToUndo  = &RuleError{Code: ErrCodeNothingToUndo, Message: "history is empty"}
	errNotFinished    = &RuleError{Code: ErrCodeMatchNotFinished, Message: "the match has not been decided"}
)
