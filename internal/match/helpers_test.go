package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rackscore/internal/config"
	"github.com/roach88/rackscore/internal/rules"
)

type fixedIDs struct{ ids []string }

func (f *fixedIDs) Generate() string {
	id := f.ids[0]
	f.ids = f.ids[1:]
	return id
}

func matchConfig(variant rules.Variant, mutate ...func(*config.Match)) config.Match {
	m, err := config.BuiltinDefaults().Match(
		config.PlayerRef{ID: "p1", Name: "Aki"},
		config.PlayerRef{ID: "p2", Name: "Ben"},
	)
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

func startMatch(t *testing.T, variant rules.Variant, mutate ...func(*config.Match)) *Controller {
	t.Helper()
	c := NewController(WithIDGenerator(&fixedIDs{ids: []string{"match-1", "match-2"}}))
	require.NoError(t, c.StartMatch(matchConfig(variant, mutate...)))
	return c
}

func withClock(main, shot, ext, perRack int) func(*config.Match) {
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

func withTargets(p1, p2 int) func(*config.Match) {
	return func(m *config.Match) { m.Targets = [2]int{p1, p2} }
}

func alternateBreak(m *config.Match) { m.BreakRule = config.BreakAlternate }

func noStats(m *config.Match) { m.TrackStats = false }

// pocketAll pockets each ball one at a time for whoever is at the table.
func pocketAll(t *testing.T, c *Controller, balls ...int) {
	t.Helper()
	for _, n := range balls {
		require.NoError(t, c.PocketBall(n), "pocket %d", n)
	}
}

// setScores places the match at a given score, as if earlier racks had
// been played.
func setScores(c *Controller, p1, p2 int) {
	c.table.Scores = [2]int{p1, p2}
	c.updateHillHill()
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, CodeOf(err), "got %v", err)
}
