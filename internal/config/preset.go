package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rackscore/internal/rules"
)

//go:embed schema.cue
var presetSchema string

// Preset is one YAML configuration layer. Unset fields leave the layer
// below untouched.
type Preset struct {
	Name          string       `yaml:"name,omitempty"`
	Description   string       `yaml:"description,omitempty"`
	Variant       string       `yaml:"variant,omitempty"`
	Players       []PlayerRef  `yaml:"players,omitempty"`
	Targets       []int        `yaml:"targets,omitempty"`
	BreakRule     string       `yaml:"break_rule,omitempty"`
	ThreeFoulRule *bool        `yaml:"three_foul_rule,omitempty"`
	TrackStats    *bool        `yaml:"track_stats,omitempty"`
	Clock         *ClockPreset `yaml:"clock,omitempty"`
}

// ClockPreset is the optional form of Clock.
type ClockPreset struct {
	Enabled           *bool `yaml:"enabled,omitempty"`
	MainSeconds       *int  `yaml:"main_seconds,omitempty"`
	ShotClockSeconds  *int  `yaml:"shot_clock_seconds,omitempty"`
	ExtensionSeconds  *int  `yaml:"extension_seconds,omitempty"`
	ExtensionsPerRack *int  `yaml:"extensions_per_rack,omitempty"`
}

// SimpleJCL is the JCL9 simple operation mode: no clock, no foul
// tracking, no statistics, alternating break.
func SimpleJCL() Preset {
	off := false
	return Preset{
		Name:          "jcl9-simple",
		Description:   "JCL 9-Ball without clock, foul tracking or statistics",
		Variant:       string(rules.JCL9),
		BreakRule:     string(BreakAlternate),
		ThreeFoulRule: &off,
		TrackStats:    &off,
		Clock:         &ClockPreset{Enabled: &off},
	}
}

// CheckPreset validates a YAML document against the preset schema.
func CheckPreset(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ValidationErrors{{Field: "document", Code: ErrMalformedDocument, Message: err.Error()}}
	}
	if doc == nil {
		return nil
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(presetSchema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile preset schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Preset")).Unify(ctx.Encode(doc))
	err := value.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs ValidationErrors
	for _, e := range cueerrors.Errors(err) {
		field := strings.Join(e.Path(), ".")
		if field == "" {
			field = "document"
		}
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   field,
			Code:    ErrSchemaViolation,
			Message: fmt.Sprintf(format, args...),
		})
	}
	return errs
}

// ParsePreset checks and decodes one preset document.
func ParsePreset(data []byte) (Preset, error) {
	if err := CheckPreset(data); err != nil {
		return Preset{}, err
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	return p, nil
}

// LoadPreset reads a preset file.
func LoadPreset(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("read preset: %w", err)
	}
	p, err := ParsePreset(data)
	if err != nil {
		return Preset{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Merge layers b over a: b wins wherever it sets a field.
func Merge(a, b Preset) Preset {
	out := a

	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Description != "" {
		out.Description = b.Description
	}
	if b.Variant != "" {
		out.Variant = b.Variant
	}
	if len(b.Players) > 0 {
		out.Players = append([]PlayerRef(nil), b.Players...)
	}
	if len(b.Targets) > 0 {
		out.Targets = append([]int(nil), b.Targets...)
	}
	if b.BreakRule != "" {
		out.BreakRule = b.BreakRule
	}
	if b.ThreeFoulRule != nil {
		out.ThreeFoulRule = b.ThreeFoulRule
	}
	if b.TrackStats != nil {
		out.TrackStats = b.TrackStats
	}

	switch {
	case out.Clock == nil && b.Clock != nil:
		c := *b.Clock
		out.Clock = &c
	case out.Clock != nil && b.Clock != nil:
		c := *out.Clock
		if b.Clock.Enabled != nil {
			c.Enabled = b.Clock.Enabled
		}
		if b.Clock.MainSeconds != nil {
			c.MainSeconds = b.Clock.MainSeconds
		}
		if b.Clock.ShotClockSeconds != nil {
			c.ShotClockSeconds = b.Clock.ShotClockSeconds
		}
		if b.Clock.ExtensionSeconds != nil {
			c.ExtensionSeconds = b.Clock.ExtensionSeconds
		}
		if b.Clock.ExtensionsPerRack != nil {
			c.ExtensionsPerRack = b.Clock.ExtensionsPerRack
		}
		out.Clock = &c
	}

	return out
}

// Apply layers the preset over m. Changing the variant without naming
// targets resets both targets to the new variant's default race.
func (p Preset) Apply(m Match) (Match, error) {
	if p.Variant != "" {
		v, err := rules.ParseVariant(p.Variant)
		if err != nil {
			return m, err
		}
		if v != m.Variant && len(p.Targets) == 0 {
			target := rules.MustLookup(v).DefaultTarget
			m.Targets = [2]int{target, target}
		}
		m.Variant = v
	}

	switch len(p.Players) {
	case 0:
	case 2:
		m.Players = [2]PlayerRef{p.Players[0], p.Players[1]}
	default:
		return m, errors.New("preset must name exactly two players")
	}

	switch len(p.Targets) {
	case 0:
	case 2:
		m.Targets = [2]int{p.Targets[0], p.Targets[1]}
	default:
		return m, errors.New("preset must give exactly two targets")
	}

	if p.BreakRule != "" {
		m.BreakRule = BreakRule(p.BreakRule)
	}
	if p.ThreeFoulRule != nil {
		m.ThreeFoulRule = *p.ThreeFoulRule
	}
	if p.TrackStats != nil {
		m.TrackStats = *p.TrackStats
	}
	if c := p.Clock; c != nil {
		if c.Enabled != nil {
			m.Clock.Enabled = *c.Enabled
		}
		if c.MainSeconds != nil {
			m.Clock.MainSeconds = *c.MainSeconds
		}
		if c.ShotClockSeconds != nil {
			m.Clock.ShotClockSeconds = *c.ShotClockSeconds
		}
		if c.ExtensionSeconds != nil {
			m.Clock.ExtensionSeconds = *c.ExtensionSeconds
		}
		if c.ExtensionsPerRack != nil {
			m.Clock.ExtensionsPerRack = *c.ExtensionsPerRack
		}
	}
	return m, nil
}

// Resolve builds a validated Match: defaults, then each preset in order.
func Resolve(d Defaults, presets ...Preset) (Match, error) {
	m, err := d.Match(PlayerRef{}, PlayerRef{})
	if err != nil {
		return Match{}, err
	}

	var merged Preset
	for _, p := range presets {
		merged = Merge(merged, p)
	}
	if m, err = merged.Apply(m); err != nil {
		return Match{}, err
	}

	if errs := m.Validate(); len(errs) > 0 {
		return m, errs
	}
	return m, nil
}
