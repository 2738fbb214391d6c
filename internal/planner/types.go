// Package planner compiles a resolved question analysis into an executable,
// filter-aware query plan against the club records graph.
package planner

import "sort"

// TemplateID identifies the query template family a plan was built from.
type TemplateID string

const (
	TemplatePlayerScalar    TemplateID = "player_scalar"
	TemplateTeamScalar      TemplateID = "team_scalar"
	TemplateClubScalar      TemplateID = "club_scalar"
	TemplateRatio           TemplateID = "ratio"
	TemplateSeasonBreakdown TemplateID = "season_breakdown"
	TemplateRanking         TemplateID = "ranking"
	TemplateStreak          TemplateID = "streak"
	TemplateComparison      TemplateID = "comparison"
	TemplateTemporal        TemplateID = "temporal"
	TemplateFixture         TemplateID = "fixture"
	TemplateDoubleGame      TemplateID = "double_game"
	TemplateMilestone       TemplateID = "milestone"
	TemplateLeagueTable     TemplateID = "league_table"
)

// ResultKind tags the shape of the rows a plan produces. The synthesizer
// dispatches on this tag, never on the question text.
type ResultKind string

const (
	ResultScalar          ResultKind = "scalar"
	ResultRatio           ResultKind = "ratio"
	ResultRankedList      ResultKind = "ranked_list"
	ResultSeasonBreakdown ResultKind = "season_breakdown"
	ResultStreak          ResultKind = "streak"
	ResultComparison      ResultKind = "comparison"
	ResultTemporal        ResultKind = "temporal"
	ResultFixture         ResultKind = "fixture"
	ResultDoubleGame      ResultKind = "double_game"
	ResultMilestone       ResultKind = "milestone"
	ResultLeagueTable     ResultKind = "league_table"
)

// Relation names the graph relations a plan may join.
type Relation string

const (
	// RelationAppearance is the per-player match record; the team attribute
	// lives at this granularity.
	RelationAppearance Relation = "appearance"
	// RelationFixture is the match context node: date, season, opposition,
	// location, competition, result.
	RelationFixture Relation = "fixture"
)

// PredicateKind is the closed set of predicate variants.
type PredicateKind int

const (
	PredicateEquality PredicateKind = iota
	PredicateRange
	PredicateMembership
	PredicateExistence
)

// selectivityClass orders predicate kinds for deterministic plan output:
// exact-match identity first, then ranges, then set-membership, then the
// rest. This is a readability guarantee, not a correctness one.
func (k PredicateKind) selectivityClass() int {
	switch k {
	case PredicateEquality:
		return 0
	case PredicateRange:
		return 1
	case PredicateMembership:
		return 2
	default:
		return 3
	}
}

// Predicate is one filter condition in a plan. Ownership is exclusive to the
// plan that contains it.
type Predicate struct {
	Kind  PredicateKind
	Field string // graph-side field, e.g. "a.team", "g.date"
	Param string // parameter name; range predicates use Param+"From"/"To"
}

// Statement is one executable query in a plan. Ratio templates carry a
// numerator and a denominator statement; everything else carries one.
type Statement struct {
	ID   string // "main", "numerator", "denominator"
	Text string
}

// Plan is the compiled representation of a question's data requirements.
type Plan struct {
	Template   TemplateID
	ResultKind ResultKind
	Metric     string // primary canonical metric key, may be "" for fixture/league plans
	Statements []Statement
	Predicates []Predicate
	Parameters map[string]any
	Joins      map[Relation]bool
	// GroupBySeason marks the per-season breakdown variant.
	GroupBySeason bool
	Limit         int
	Description   string
}

// RequiresFixtureJoin reports whether the fixture relation is in the join set.
func (p *Plan) RequiresFixtureJoin() bool {
	return p.Joins[RelationFixture]
}

// sortPredicates orders predicates by selectivity class, then field, then
// parameter name, so identical analyses always produce identical plans.
func sortPredicates(preds []Predicate) {
	sort.SliceStable(preds, func(i, j int) bool {
		ci, cj := preds[i].Kind.selectivityClass(), preds[j].Kind.selectivityClass()
		if ci != cj {
			return ci < cj
		}
		if preds[i].Field != preds[j].Field {
			return preds[i].Field < preds[j].Field
		}
		return preds[i].Param < preds[j].Param
	})
}
