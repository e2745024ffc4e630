package config

import (
	"fmt"

	"github.com/caarlos0/env"

	"github.com/roach88/rackscore/internal/rules"
)

// Defaults is the bottom configuration layer, read from the environment.
type Defaults struct {
	Variant           string `env:"RACKSCORE_VARIANT"             envDefault:"standard9"`
	BreakRule         string `env:"RACKSCORE_BREAK_RULE"          envDefault:"winner"`
	ThreeFoulRule     bool   `env:"RACKSCORE_THREE_FOUL"          envDefault:"true"`
	TrackStats        bool   `env:"RACKSCORE_TRACK_STATS"         envDefault:"true"`
	ClockEnabled      bool   `env:"RACKSCORE_CLOCK"               envDefault:"false"`
	MainSeconds       int    `env:"RACKSCORE_MAIN_SECONDS"        envDefault:"1800"`
	ShotClockSeconds  int    `env:"RACKSCORE_SHOT_CLOCK_SECONDS"  envDefault:"40"`
	ExtensionSeconds  int    `env:"RACKSCORE_EXTENSION_SECONDS"   envDefault:"30"`
	ExtensionsPerRack int    `env:"RACKSCORE_EXTENSIONS_PER_RACK" envDefault:"1"`
}

// BuiltinDefaults returns the values the environment falls back to.
// Scenario runs use these so results do not depend on the caller's shell.
func BuiltinDefaults() Defaults {
	return Defaults{
		Variant:           string(rules.Standard9),
		BreakRule:         string(BreakWinner),
		ThreeFoulRule:     true,
		TrackStats:        true,
		MainSeconds:       1800,
		ShotClockSeconds:  40,
		ExtensionSeconds:  30,
		ExtensionsPerRack: 1,
	}
}

// LoadDefaults reads RACKSCORE_* variables over the builtin values.
func LoadDefaults() (Defaults, error) {
	d := Defaults{}
	if err := env.Parse(&d); err != nil {
		return Defaults{}, fmt.Errorf("parse environment: %w", err)
	}
	return d, nil
}

// Match builds the base layer for the given seats. Targets default to the
// variant's standard race.
func (d Defaults) Match(p1, p2 PlayerRef) (Match, error) {
	v, err := rules.ParseVariant(d.Variant)
	if err != nil {
		return Match{}, err
	}
	r := rules.MustLookup(v)

	return Match{
		Variant:       v,
		Players:       [2]PlayerRef{p1, p2},
		Targets:       [2]int{r.DefaultTarget, r.DefaultTarget},
		BreakRule:     BreakRule(d.BreakRule),
		ThreeFoulRule: d.ThreeFoulRule,
		TrackStats:    d.TrackStats,
		Clock: Clock{
			Enabled:           d.ClockEnabled,
			MainSeconds:       d.MainSeconds,
			ShotClockSeconds:  d.ShotClockSeconds,
			ExtensionSeconds:  d.ExtensionSeconds,
			ExtensionsPerRack: d.ExtensionsPerRack,
		},
	}, nil
}
