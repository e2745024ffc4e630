package match

import (
	"fmt"

	"github.com/roach88/rackscore/internal/config"
)

// Replay starts a match with cfg and applies cmds in order. The returned
// slice holds one entry per command: nil when accepted, the RuleError
// when declined. Replaying the same input always yields the same state.
func Replay(cfg config.Match, cmds []Command, opts ...Option) (*Controller, []error, error) {
	c := NewController(opts...)
	if err := c.StartMatch(cfg); err != nil {
		return nil, nil, fmt.Errorf("start replay: %w", err)
	}
	errs := make([]error, len(cmds))
	for i, cmd := range cmds {
		errs[i] = c.Apply(cmd)
	}
	return c, errs, nil
}
