package planner

import (
	"fmt"

	"github.com/oakfield-sports/clubquery/internal/stats"
)

// aggRule describes how one metric aggregates over match records. The rule
// table collapses what would otherwise be a per-metric special case in every
// template: each entry declares its aggregation expression and whether the
// expression itself needs the fixture relation bound.
type aggRule struct {
	expr         string // aggregation over the appearance relation `a` (and `g` when fixture-bound)
	needsFixture bool
}

// aggRules holds explicit rules for metrics whose aggregation is not
// derivable from their registry property.
var aggRules = map[string]aggRule{
	"appearances": {expr: "count(a)"},
	"wins":        {expr: "sum(CASE WHEN g.result = 'win' THEN 1 ELSE 0 END)", needsFixture: true},
}

// aggregation returns the aggregation expression for a metric and whether it
// forces the fixture join. Metrics without an explicit rule sum their
// registry property off the appearance relation.
func aggregation(m stats.Metric) (string, bool) {
	if rule, ok := aggRules[m.Key]; ok {
		return rule.expr, rule.needsFixture
	}
	if m.Property == "" {
		return "count(a)", m.FixtureDependent
	}
	return fmt.Sprintf("sum(coalesce(a.%s, 0))", m.Property), m.FixtureDependent
}

// involvementCondition returns the per-game condition meaning "the metric
// happened in this game", used by streak and temporal templates.
func involvementCondition(m stats.Metric) string {
	if m.Property == "" {
		return "true"
	}
	return fmt.Sprintf("coalesce(a.%s, 0) > 0", m.Property)
}
