package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rackscore/internal/rules"
)

func validMatch() Match {
	m, _ := BuiltinDefaults().Match(PlayerRef{ID: "p1", Name: "Aki"}, PlayerRef{ID: "p2", Name: "Ben"})
	return m
}

func codes(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Defaults(t *testing.T) {
	m := validMatch()
	assert.Nil(t, m.Validate())
	assert.Equal(t, rules.Standard9, m.Variant)
	assert.Equal(t, [2]int{3, 3}, m.Targets)
	assert.Equal(t, BreakWinner, m.BreakRule)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	m := Match{
		Variant:   "eightball",
		Targets:   [2]int{0, 5},
		BreakRule: "coin",
		Clock:     Clock{Enabled: true, MainSeconds: -1},
	}

	errs := m.Validate()
	assert.ElementsMatch(t, []string{
		ErrUnknownVariant,
		ErrMissingPlayer, ErrMissingPlayer,
		ErrTargetTooLow,
		ErrUnknownBreakRule,
		ErrInvalidClock, ErrInvalidClock,
	}, codes(errs))
	assert.Contains(t, errs.Error(), "invalid match configuration")
}

func TestValidate_DuplicatePlayer(t *testing.T) {
	m := validMatch()
	m.Players[1] = m.Players[0]
	assert.Equal(t, []string{ErrDuplicatePlayer}, codes(m.Validate()))
}

func TestValidate_ClockIgnoredWhenDisabled(t *testing.T) {
	m := validMatch()
	m.Clock = Clock{Enabled: false, ShotClockSeconds: 0}
	assert.Nil(t, m.Validate())
}

func TestThreeFoulActive(t *testing.T) {
	m := validMatch()
	assert.True(t, m.ThreeFoulActive())

	m.Variant = rules.JPA9
	assert.False(t, m.ThreeFoulActive(), "JPA9 has no three-foul rule")

	m.Variant = rules.JCL9
	m.ThreeFoulRule = false
	assert.False(t, m.ThreeFoulActive())
}

func TestSwap(t *testing.T) {
	m := validMatch()
	m.Targets = [2]int{5, 7}

	swapped := m.SwapPlayers()
	assert.Equal(t, "p2", swapped.Players[0].ID)
	assert.Equal(t, [2]int{7, 5}, swapped.Targets)

	targets := m.SwapTargets()
	assert.Equal(t, "p1", targets.Players[0].ID)
	assert.Equal(t, [2]int{7, 5}, targets.Targets)
}

func TestLoadDefaults_MatchesBuiltin(t *testing.T) {
	t.Setenv("RACKSCORE_VARIANT", "standard9")
	d, err := LoadDefaults()
	require.NoError(t, err)
	assert.Equal(t, BuiltinDefaults(), d)
}

func TestLoadDefaults_FromEnvironment(t *testing.T) {
	t.Setenv("RACKSCORE_VARIANT", "jcl9")
	t.Setenv("RACKSCORE_CLOCK", "true")
	t.Setenv("RACKSCORE_SHOT_CLOCK_SECONDS", "35")

	d, err := LoadDefaults()
	require.NoError(t, err)

	m, err := d.Match(PlayerRef{ID: "a"}, PlayerRef{ID: "b"})
	require.NoError(t, err)
	assert.Equal(t, rules.JCL9, m.Variant)
	assert.Equal(t, [2]int{50, 50}, m.Targets)
	assert.True(t, m.Clock.Enabled)
	assert.Equal(t, 35, m.Clock.ShotClockSeconds)
}

func TestCheckPreset(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
		field   string
	}{
		{"empty", "", false, ""},
		{"full", `
variant: jcl9
players:
  - {id: p1, name: Aki}
  - {id: p2}
targets: [50, 40]
break_rule: alternate
three_foul_rule: true
clock: {enabled: true, shot_clock_seconds: 40}
`, false, ""},
		{"bad variant", "variant: eightball\n", true, "variant"},
		{"target too low", "targets: [0, 3]\n", true, "targets.0"},
		{"one player", "players: [{id: p1}]\n", true, "players"},
		{"unknown field", "colour: red\n", true, "colour"},
		{"negative clock", "clock: {main_seconds: -5}\n", true, "clock.main_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPreset([]byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			fields := make([]string, len(errs))
			for i, e := range errs {
				fields[i] = e.Field
				assert.Equal(t, ErrSchemaViolation, e.Code)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCheckPreset_Malformed(t *testing.T) {
	err := CheckPreset([]byte("variant: [unclosed\n"))
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, ErrMalformedDocument, errs[0].Code)
}

func TestMerge_LaterLayerWins(t *testing.T) {
	on, off := true, false
	main, shot := 600, 30

	base := Preset{Variant: "jcl9", TrackStats: &on, Clock: &ClockPreset{Enabled: &on, MainSeconds: &main}}
	over := Preset{BreakRule: "alternate", TrackStats: &off, Clock: &ClockPreset{ShotClockSeconds: &shot}}

	got := Merge(base, over)
	assert.Equal(t, "jcl9", got.Variant)
	assert.Equal(t, "alternate", got.BreakRule)
	assert.False(t, *got.TrackStats)
	require.NotNil(t, got.Clock)
	assert.True(t, *got.Clock.Enabled)
	assert.Equal(t, 600, *got.Clock.MainSeconds)
	assert.Equal(t, 30, *got.Clock.ShotClockSeconds)

	// base is untouched
	assert.Nil(t, base.Clock.ShotClockSeconds)
}

func TestResolve_VariantChangeResetsTargets(t *testing.T) {
	seats := Preset{Players: []PlayerRef{{ID: "p1"}, {ID: "p2"}}}

	m, err := Resolve(BuiltinDefaults(), seats, Preset{Variant: "jpa9"})
	require.NoError(t, err)
	assert.Equal(t, rules.JPA9, m.Variant)
	assert.Equal(t, [2]int{50, 50}, m.Targets)

	m, err = Resolve(BuiltinDefaults(), seats, Preset{Variant: "jcl9", Targets: []int{30, 50}})
	require.NoError(t, err)
	assert.Equal(t, [2]int{30, 50}, m.Targets)
}

func TestResolve_SimpleJCL(t *testing.T) {
	seats := Preset{Players: []PlayerRef{{ID: "p1"}, {ID: "p2"}}}

	m, err := Resolve(BuiltinDefaults(), seats, SimpleJCL())
	require.NoError(t, err)
	assert.Equal(t, rules.JCL9, m.Variant)
	assert.Equal(t, BreakAlternate, m.BreakRule)
	assert.False(t, m.ThreeFoulRule)
	assert.False(t, m.TrackStats)
	assert.False(t, m.Clock.Enabled)
}

func TestResolve_ReportsValidationErrors(t *testing.T) {
	_, err := Resolve(BuiltinDefaults())
	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{ErrMissingPlayer, ErrMissingPlayer}, codes(errs))
}

func TestLoadPreset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "league.yaml")
	require.NoError(t, os.WriteFile(path, []byte("variant: jpa9\ntargets: [40, 60]\n"), 0o644))

	p, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, "jpa9", p.Variant)
	assert.Equal(t, []int{40, 60}, p.Targets)

	_, err = LoadPreset(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
