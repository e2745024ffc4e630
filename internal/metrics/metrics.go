// Package metrics exports match activity as Prometheus series.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/rackscore/internal/engine"
	"github.com/roach88/rackscore/internal/match"
	"github.com/roach88/rackscore/internal/rules"
)

const namespace = "rackscore"

// Outcome label values for actions_total.
const (
	OutcomeAccepted = "accepted"
	OutcomeDeclined = "declined"
)

// Metrics is an engine.Observer backed by a Prometheus registry.
type Metrics struct {
	actions       *prometheus.CounterVec
	racks         *prometheus.CounterVec
	perfectClears *prometheus.CounterVec
	matches       *prometheus.CounterVec
	matchRacks    *prometheus.HistogramVec
}

var _ engine.Observer = (*Metrics)(nil)

// NewMetrics registers the collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Processed match actions by outcome",
			}, []string{"variant", "action", "outcome", "code"}),
		racks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "racks_total",
				Help:      "Settled racks by how they ended",
			}, []string{"variant", "reason"}),
		perfectClears: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "perfect_clears_total",
				Help:      "Racks cleared from the break in one inning",
			}, []string{"variant"}),
		matches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_total",
				Help:      "Decided matches by win condition",
			}, []string{"variant", "win_condition"}),
		matchRacks: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_racks",
				Help:      "Racks played per decided match",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 7),
			}, []string{"variant"}),
	}
}

// ActionProcessed counts one command.
func (m *Metrics) ActionProcessed(variant rules.Variant, action match.Action, err error) {
	outcome := OutcomeAccepted
	if err != nil {
		outcome = OutcomeDeclined
	}
	m.actions.With(prometheus.Labels{
		"variant": string(variant),
		"action":  string(action),
		"outcome": outcome,
		"code":    string(match.CodeOf(err)),
	}).Inc()
}

// RackSettled counts a rack and, if it was one, a perfect clear.
func (m *Metrics) RackSettled(variant rules.Variant, outcome match.RackOutcome) {
	m.racks.With(prometheus.Labels{"variant": string(variant), "reason": string(outcome.Reason)}).Inc()
	if outcome.PerfectClear {
		m.perfectClears.With(prometheus.Labels{"variant": string(variant)}).Inc()
	}
}

// MatchDecided counts a result.
func (m *Metrics) MatchDecided(res match.Result) {
	m.matches.With(prometheus.Labels{"variant": string(res.Variant), "win_condition": string(res.WinCondition)}).Inc()
	m.matchRacks.With(prometheus.Labels{"variant": string(res.Variant)}).Observe(float64(res.TotalRacks))
}
