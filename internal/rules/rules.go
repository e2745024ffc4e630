package rules

import (
	"fmt"
	"strings"

	"github.com/elliotchance/pie/v2"
)

// Variant names a supported rule set.
type Variant string

const (
	// Standard9 is a race to N racks; a rack is won by pocketing the 9.
	Standard9 Variant = "standard9"

	// JPA9 scores every ball continuously: 1 point each, 2 for the 9.
	JPA9 Variant = "jpa9"

	// JCL9 awards 14 points per rack won plus the loser's own balls, and
	// finishes with hill-hill sudden death.
	JCL9 Variant = "jcl9"
)

// TargetUnit is what a player's target counts.
type TargetUnit string

const (
	UnitRacks  TargetUnit = "racks"
	UnitPoints TargetUnit = "points"
)

// HillRange is the remaining-points window that puts a JCL9 player "on the hill".
const HillRange = 14

// JCLRackWinPoints is what the winner of a JCL9 rack scores.
const JCLRackWinPoints = 14

// RackScore is the points awarded when a rack resolves.
type RackScore struct {
	Winner int `json:"winner"`
	Loser  int `json:"loser"`
}

// Rules is the capability table for one variant.
type Rules struct {
	Variant       Variant    `json:"variant"`
	DisplayName   string     `json:"display_name"`
	BallCount     int        `json:"ball_count"`
	EndBall       int        `json:"end_ball"`
	Unit          TargetUnit `json:"unit"`
	DefaultTarget int        `json:"default_target"`

	// HillHillEligible enables the sudden-death finish.
	HillHillEligible bool `json:"hill_hill"`

	// ThreeFoulSupported allows the three-consecutive-fouls rule to be enabled.
	ThreeFoulSupported bool `json:"three_foul"`

	// ResetsOnEndBall re-racks when the end ball drops even though the
	// variant does not score racks.
	ResetsOnEndBall bool `json:"resets_on_end_ball"`

	// ScoreForPocketedBalls returns the pocketing player's new score.
	ScoreForPocketedBalls func(prior int, balls []int) int `json:"-"`

	// IsRackEnd reports whether pocketing balls ends the rack with a score.
	IsRackEnd func(balls []int) bool `json:"-"`

	// RackScore resolves a won rack. Nil for variants without rack scoring.
	RackScore func(loserRackBalls int) RackScore `json:"-"`

	// ThreeFoulAward resolves a rack lost on three consecutive fouls.
	// Winner is the non-offender, Loser the offender. Nil when unsupported.
	ThreeFoulAward func(offenderRackBalls int) RackScore `json:"-"`
}

// InitialBalls returns a freshly racked table: 1..BallCount, ascending.
func (r Rules) InitialBalls() []int {
	balls := make([]int, r.BallCount)
	for i := range balls {
		balls[i] = i + 1
	}
	return balls
}

// IsValidBall reports whether n is a ball of this variant.
func (r Rules) IsValidBall(n int) bool {
	return n >= 1 && n <= r.BallCount
}

// ScoresPoints reports whether targets are measured in points.
func (r Rules) ScoresPoints() bool {
	return r.Unit == UnitPoints
}

func (r Rules) containsEnd(balls []int) bool {
	return pie.Contains(balls, r.EndBall)
}

var catalog = map[Variant]Rules{}

// order is the presentation order of the catalog.
var order = []Variant{Standard9, JPA9, JCL9}

func init() {
	std := Rules{
		Variant:            Standard9,
		DisplayName:        "9-Ball",
		BallCount:          9,
		EndBall:            9,
		Unit:               UnitRacks,
		DefaultTarget:      3,
		ThreeFoulSupported: true,
	}
	std.IsRackEnd = std.containsEnd
	std.ScoreForPocketedBalls = func(prior int, balls []int) int {
		if std.containsEnd(balls) {
			return prior + 1
		}
		return prior
	}
	std.ThreeFoulAward = func(int) RackScore {
		return RackScore{Winner: 1}
	}

	jpa := Rules{
		Variant:         JPA9,
		DisplayName:     "JPA 9-Ball",
		BallCount:       9,
		EndBall:         9,
		Unit:            UnitPoints,
		DefaultTarget:   50,
		ResetsOnEndBall: true,
	}
	jpa.IsRackEnd = func([]int) bool { return false }
	jpa.ScoreForPocketedBalls = func(prior int, balls []int) int {
		points := pie.Map(balls, func(n int) int {
			if n == jpa.EndBall {
				return 2
			}
			return 1
		})
		return prior + pie.Sum(points)
	}

	jcl := Rules{
		Variant:            JCL9,
		DisplayName:        "JCL 9-Ball",
		BallCount:          9,
		EndBall:            9,
		Unit:               UnitPoints,
		DefaultTarget:      50,
		HillHillEligible:   true,
		ThreeFoulSupported: true,
	}
	jcl.IsRackEnd = jcl.containsEnd
	// Points are settled by RackScore when the rack ends.
	jcl.ScoreForPocketedBalls = func(prior int, _ []int) int { return prior }
	jcl.RackScore = JCLRackScore
	jcl.ThreeFoulAward = JCLRackScore

	for _, r := range []Rules{std, jpa, jcl} {
		catalog[r.Variant] = r
	}
}

// JCLRackScore is the JCL9 rack settlement: the winner takes 14 and the
// other player keeps one point per ball they pocketed in the rack.
func JCLRackScore(loserRackBalls int) RackScore {
	return RackScore{Winner: JCLRackWinPoints, Loser: loserRackBalls}
}

// InHillRange reports whether both players are within HillRange of their
// targets.
func InHillRange(scores, targets [2]int) bool {
	return targets[0]-scores[0] <= HillRange && targets[1]-scores[1] <= HillRange
}

// Lookup returns the rules for v.
func Lookup(v Variant) (Rules, error) {
	r, ok := catalog[v]
	if !ok {
		return Rules{}, fmt.Errorf("unknown variant %q", v)
	}
	return r, nil
}

// MustLookup is Lookup for variants known at compile time.
func MustLookup(v Variant) Rules {
	r, err := Lookup(v)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every variant in presentation order.
func All() []Rules {
	return pie.Map(order, MustLookup)
}

// ParseVariant accepts a variant name case-insensitively, with or without
// a separator ("JCL9", "jcl-9", "jcl_9").
func ParseVariant(s string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for _, v := range order {
		if string(v) == key {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown variant %q (want one of %s)", s, strings.Join(pie.Map(order, func(v Variant) string { return string(v) }), ", "))
}
