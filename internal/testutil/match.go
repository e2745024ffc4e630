package testutil

import (
	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/rules"
)

// Aki and Ben are the default seats in tests.
var (
	Aki = config.PlayerRef{ID: "p1", Name: "Aki"}
	Ben = config.PlayerRef{ID: "p2", Name: "Ben"}
)

// MatchConfig builds a valid configuration from the builtin defaults for
// variant, with the variant's standard race for both seats. Mutators run
// last.
func MatchConfig(variant rules.Variant, mutate ...func(*config.Match)) config.Match {
	m, err := config.BuiltinDefaults().Match(Aki, Ben)
	if err != nil {
		panic(err)
	}
	m.Variant = variant
	target := rules.MustLookup(variant).DefaultTarget
	m.Targets = [2]int{target, target}
	for _, fn := range mutate {
		fn(&m)
	}
	return m
}

// WithClock enables the match clock.
func WithClock(main, shot, ext, perRack int) func(*config.Match) {
	return func(m *config.Match) {
		m.Clock = config.Clock{
			Enabled:           true,
			MainSeconds:       main,
			ShotClockSeconds:  shot,
			ExtensionSeconds:  ext,
			ExtensionsPerRack: perRack,
		}
	}
}

// WithTargets sets per-seat targets.
func WithTargets(p1, p2 int) func(*config.Match) {
	return func(m *config.Match) { m.Targets = [2]int{p1, p2} }
}
