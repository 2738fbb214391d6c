package planner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/stats"
)

// ErrUnsupportedMetric is returned when the question references no metric the
// registry knows. It is a typed plan outcome, not a panic.
var ErrUnsupportedMetric = errors.New("unsupported metric")

// ErrUnplannable is returned when the analysis lacks the slots its intent
// requires (e.g. a comparison with one name).
var ErrUnplannable = errors.New("question cannot be planned")

const defaultRankingLimit = 5

// Planner compiles analyses into plans. BuildPlan is a pure function of its
// input: identical analyses yield structurally identical plans.
type Planner struct {
	registry *stats.Registry
}

// New creates a planner over the metric registry.
func New(registry *stats.Registry) *Planner {
	return &Planner{registry: registry}
}

// BuildPlan compiles a resolved analysis into a query plan.
func (pl *Planner) BuildPlan(an *analyzer.Analysis) (*Plan, error) {
	switch an.Intent {
	case analyzer.IntentLeagueTable:
		return pl.buildLeagueTable(an), nil
	case analyzer.IntentFixture:
		return pl.buildFixture(an), nil
	case analyzer.IntentComparison:
		return pl.buildComparison(an)
	case analyzer.IntentRanking:
		return pl.buildRanking(an)
	case analyzer.IntentStreak:
		return pl.buildStreak(an)
	case analyzer.IntentTemporal:
		return pl.buildTemporal(an)
	case analyzer.IntentDoubleGame:
		return pl.buildDoubleGame(an)
	case analyzer.IntentMilestone:
		return pl.buildMilestone(an)
	case analyzer.IntentPlayer, analyzer.IntentTeam, analyzer.IntentClub:
		return pl.buildScalar(an)
	}
	return nil, fmt.Errorf("%w: intent %q", ErrUnplannable, an.Intent)
}

// metric resolves the primary metric or fails with the typed outcome.
func (pl *Planner) metric(an *analyzer.Analysis) (stats.Metric, error) {
	key := an.PrimaryMetric()
	if key == "" {
		return stats.Metric{}, fmt.Errorf("%w: no statistic recognized", ErrUnsupportedMetric)
	}
	m, ok := pl.registry.Lookup(key)
	if !ok {
		return stats.Metric{}, fmt.Errorf("%w: %q", ErrUnsupportedMetric, key)
	}
	return m, nil
}

// filterState is the shared predicate/parameter/join computation. The join
// set is the minimal one implied by the filters: the fixture relation is
// included only when a fixture-level filter is present or the metric itself
// needs it. A team filter alone never induces the fixture join: the team
// attribute lives at match-record granularity.
func (pl *Planner) filterState(an *analyzer.Analysis, metricNeedsFixture bool) ([]Predicate, map[string]any, map[Relation]bool) {
	preds := make([]Predicate, 0, 8)
	params := make(map[string]any)
	joins := map[Relation]bool{RelationAppearance: true}

	if an.HasFixtureFilter() || metricNeedsFixture {
		joins[RelationFixture] = true
	}

	if len(an.TeamEntities) > 0 {
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "a.team", Param: "team"})
		params["team"] = an.TeamEntities[0]
	}
	if len(an.OppositionEntities) > 0 {
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "g.opposition", Param: "opposition"})
		params["opposition"] = an.OppositionEntities[0]
	}
	if an.Season != "" {
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "g.season", Param: "season"})
		params["season"] = an.Season
	}
	if an.TimeRange != nil {
		preds = append(preds, Predicate{Kind: PredicateRange, Field: "g.date", Param: "date"})
		if an.TimeRange.From != nil {
			params["dateFrom"] = *an.TimeRange.From
		}
		if an.TimeRange.To != nil {
			params["dateTo"] = *an.TimeRange.To
		}
	}
	if len(an.Locations) > 0 {
		preds = append(preds, Predicate{Kind: PredicateMembership, Field: "g.location", Param: "locations"})
		params["locations"] = toStrings(an.Locations)
	}
	if len(an.Competitions) > 0 {
		preds = append(preds, Predicate{Kind: PredicateMembership, Field: "g.competition", Param: "competitions"})
		params["competitions"] = an.Competitions
	}
	if len(an.CompetitionTypes) > 0 {
		preds = append(preds, Predicate{Kind: PredicateMembership, Field: "g.competition_type", Param: "competitionTypes"})
		params["competitionTypes"] = an.CompetitionTypes
	}
	if len(an.Results) > 0 {
		preds = append(preds, Predicate{Kind: PredicateMembership, Field: "g.result", Param: "results"})
		params["results"] = toStrings(an.Results)
	}

	return preds, params, joins
}

func toStrings[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}

// buildScalar emits the cumulative-counter templates: player, team, and club
// scalars, plus the ratio and per-season variants.
func (pl *Planner) buildScalar(an *analyzer.Analysis) (*Plan, error) {
	m, err := pl.metric(an)
	if err != nil {
		return nil, err
	}

	if m.IsRatio() {
		return pl.buildRatio(an, m)
	}

	agg, needsFixture := aggregation(m)
	preds, params, joins := pl.filterState(an, needsFixture)

	template := TemplateClubScalar
	switch an.Intent {
	case analyzer.IntentPlayer:
		template = TemplatePlayerScalar
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "p.name", Param: "player"})
		params["player"] = an.PrimaryEntity()
	case analyzer.IntentTeam:
		// Team-scoped counters filter on the team attribute of the match
		// record; the team predicate was added by filterState already.
		template = TemplateTeamScalar
	}

	if an.PerSeason {
		joins[RelationFixture] = true
		sortPredicates(preds)
		query := renderQuery(
			matchClause(joins),
			whereClause(preds, params),
			fmt.Sprintf("RETURN g.season AS season, %s AS value ORDER BY season", agg),
		)
		return &Plan{
			Template:      TemplateSeasonBreakdown,
			ResultKind:    ResultSeasonBreakdown,
			Metric:        m.Key,
			Statements:    []Statement{{ID: "main", Text: query}},
			Predicates:    preds,
			Parameters:    params,
			Joins:         joins,
			GroupBySeason: true,
			Description:   fmt.Sprintf("per-season %s with %d filter(s)", m.Key, len(preds)),
		}, nil
	}

	sortPredicates(preds)
	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN %s AS value", agg),
	)
	return &Plan{
		Template:    template,
		ResultKind:  ResultScalar,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: fmt.Sprintf("%s %s with %d filter(s)", template, m.Key, len(preds)),
	}, nil
}

// buildRatio emits the two-stage template for derived ratio metrics: the
// numerator and denominator aggregate separately and the engine computes the
// ratio with a divide-by-zero guard returning 0.
func (pl *Planner) buildRatio(an *analyzer.Analysis, m stats.Metric) (*Plan, error) {
	num, ok := pl.registry.Lookup(m.Ratio.NumeratorKey)
	if !ok {
		return nil, fmt.Errorf("%w: ratio numerator %q", ErrUnsupportedMetric, m.Ratio.NumeratorKey)
	}
	den, ok := pl.registry.Lookup(m.Ratio.DenominatorKey)
	if !ok {
		return nil, fmt.Errorf("%w: ratio denominator %q", ErrUnsupportedMetric, m.Ratio.DenominatorKey)
	}

	numAgg, numFixture := aggregation(num)
	denAgg, denFixture := aggregation(den)

	preds, params, joins := pl.filterState(an, numFixture || denFixture)
	if an.Intent == analyzer.IntentPlayer {
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "p.name", Param: "player"})
		params["player"] = an.PrimaryEntity()
	}
	sortPredicates(preds)

	where := whereClause(preds, params)
	numQuery := renderQuery(matchClause(joins), where, fmt.Sprintf("RETURN %s AS value", numAgg))
	denQuery := renderQuery(matchClause(joins), where, fmt.Sprintf("RETURN %s AS value", denAgg))

	return &Plan{
		Template:   TemplateRatio,
		ResultKind: ResultRatio,
		Metric:     m.Key,
		Statements: []Statement{
			{ID: "numerator", Text: numQuery},
			{ID: "denominator", Text: denQuery},
		},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: fmt.Sprintf("ratio %s = %s / %s", m.Key, num.Key, den.Key),
	}, nil
}

// buildRanking emits the top-N template over all players.
func (pl *Planner) buildRanking(an *analyzer.Analysis) (*Plan, error) {
	m, err := pl.metric(an)
	if err != nil {
		return nil, err
	}
	if m.IsRatio() {
		// Ranking by a ratio needs both aggregates per player.
		return pl.buildRatioRanking(an, m)
	}

	agg, needsFixture := aggregation(m)
	preds, params, joins := pl.filterState(an, needsFixture)
	sortPredicates(preds)

	limit := an.TopN
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	params["limit"] = limit

	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN p.name AS name, %s AS value ORDER BY value DESC, name LIMIT $limit", agg),
	)
	return &Plan{
		Template:    TemplateRanking,
		ResultKind:  ResultRankedList,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Limit:       limit,
		Description: fmt.Sprintf("top %d players by %s", limit, m.Key),
	}, nil
}

func (pl *Planner) buildRatioRanking(an *analyzer.Analysis, m stats.Metric) (*Plan, error) {
	num, _ := pl.registry.Lookup(m.Ratio.NumeratorKey)
	den, _ := pl.registry.Lookup(m.Ratio.DenominatorKey)
	numAgg, numFixture := aggregation(num)
	denAgg, denFixture := aggregation(den)

	preds, params, joins := pl.filterState(an, numFixture || denFixture)
	sortPredicates(preds)

	limit := an.TopN
	if limit <= 0 {
		limit = defaultRankingLimit
	}
	params["limit"] = limit

	// The divide-by-zero guard lives in the query for the grouped variant.
	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN p.name AS name, CASE WHEN %[2]s = 0 THEN 0 ELSE toFloat(%[1]s) / %[2]s END AS value ORDER BY value DESC, name LIMIT $limit", numAgg, denAgg),
	)
	return &Plan{
		Template:    TemplateRanking,
		ResultKind:  ResultRankedList,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Limit:       limit,
		Description: fmt.Sprintf("top %d players by %s", limit, m.Key),
	}, nil
}

// buildComparison emits a grouped aggregate over the two named entities.
func (pl *Planner) buildComparison(an *analyzer.Analysis) (*Plan, error) {
	if len(an.Entities) < 2 {
		return nil, fmt.Errorf("%w: comparison needs two names", ErrUnplannable)
	}
	m, err := pl.metric(an)
	if err != nil {
		return nil, err
	}

	agg, needsFixture := aggregation(m)
	if m.IsRatio() {
		num, _ := pl.registry.Lookup(m.Ratio.NumeratorKey)
		den, _ := pl.registry.Lookup(m.Ratio.DenominatorKey)
		numAgg, numFixture := aggregation(num)
		denAgg, denFixture := aggregation(den)
		agg = fmt.Sprintf("CASE WHEN %[2]s = 0 THEN 0 ELSE toFloat(%[1]s) / %[2]s END", numAgg, denAgg)
		needsFixture = numFixture || denFixture
	}

	preds, params, joins := pl.filterState(an, needsFixture)
	preds = append(preds, Predicate{Kind: PredicateMembership, Field: "p.name", Param: "players"})
	params["players"] = an.Entities[:2]
	sortPredicates(preds)

	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN p.name AS name, %s AS value ORDER BY name", agg),
	)
	return &Plan{
		Template:    TemplateComparison,
		ResultKind:  ResultComparison,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: fmt.Sprintf("compare %s between %s", m.Key, strings.Join(an.Entities[:2], " and ")),
	}, nil
}

// buildStreak pulls the per-game involvement series; the run length itself
// is computed over the ordered rows after execution.
func (pl *Planner) buildStreak(an *analyzer.Analysis) (*Plan, error) {
	if an.PrimaryEntity() == "" {
		return nil, fmt.Errorf("%w: streak needs a player", ErrUnplannable)
	}
	m, err := pl.metric(an)
	if err != nil {
		return nil, err
	}

	preds, params, joins := pl.filterState(an, true)
	preds = append(preds,
		Predicate{Kind: PredicateEquality, Field: "p.name", Param: "player"},
	)
	params["player"] = an.PrimaryEntity()
	sortPredicates(preds)

	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN g.date AS date, %s AS involved ORDER BY date", involvementCondition(m)),
	)
	return &Plan{
		Template:    TemplateStreak,
		ResultKind:  ResultStreak,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: fmt.Sprintf("streak of games with %s", m.Key),
	}, nil
}

// buildTemporal answers "when did X last ..." via an existence predicate and
// a date-ordered limit-1 read.
func (pl *Planner) buildTemporal(an *analyzer.Analysis) (*Plan, error) {
	if an.PrimaryEntity() == "" {
		return nil, fmt.Errorf("%w: temporal question needs a player", ErrUnplannable)
	}
	m, err := pl.metric(an)
	if err != nil {
		return nil, err
	}

	preds, params, joins := pl.filterState(an, true)
	preds = append(preds,
		Predicate{Kind: PredicateEquality, Field: "p.name", Param: "player"},
		Predicate{Kind: PredicateExistence, Field: involvementCondition(m)},
	)
	params["player"] = an.PrimaryEntity()
	sortPredicates(preds)

	order := "DESC"
	if strings.Contains(an.Normalized, "first time") || strings.Contains(an.Normalized, "first ") {
		order = "ASC"
	}

	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN g.date AS date, g.opposition AS opposition ORDER BY date %s LIMIT 1", order),
	)
	return &Plan{
		Template:    TemplateTemporal,
		ResultKind:  ResultTemporal,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: fmt.Sprintf("most recent game with %s", m.Key),
	}, nil
}

// buildDoubleGame pulls a player's game dates; double-game weekends are
// counted over the rows after execution.
func (pl *Planner) buildDoubleGame(an *analyzer.Analysis) (*Plan, error) {
	if an.PrimaryEntity() == "" {
		return nil, fmt.Errorf("%w: double-game question needs a player", ErrUnplannable)
	}

	preds, params, joins := pl.filterState(an, true)
	preds = append(preds, Predicate{Kind: PredicateEquality, Field: "p.name", Param: "player"})
	params["player"] = an.PrimaryEntity()
	sortPredicates(preds)

	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		"RETURN g.date AS date, a.team AS team ORDER BY date",
	)
	return &Plan{
		Template:    TemplateDoubleGame,
		ResultKind:  ResultDoubleGame,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: "double game weekends",
	}, nil
}

// buildMilestone emits the scalar total; the next-milestone arithmetic
// happens during synthesis.
func (pl *Planner) buildMilestone(an *analyzer.Analysis) (*Plan, error) {
	if an.PrimaryEntity() == "" {
		return nil, fmt.Errorf("%w: milestone question needs a player", ErrUnplannable)
	}
	key := an.PrimaryMetric()
	if key == "" {
		key = "appearances"
	}
	m, ok := pl.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMetric, key)
	}

	agg, needsFixture := aggregation(m)
	preds, params, joins := pl.filterState(an, needsFixture)
	preds = append(preds, Predicate{Kind: PredicateEquality, Field: "p.name", Param: "player"})
	params["player"] = an.PrimaryEntity()
	sortPredicates(preds)

	query := renderQuery(
		matchClause(joins),
		whereClause(preds, params),
		fmt.Sprintf("RETURN %s AS value", agg),
	)
	return &Plan{
		Template:    TemplateMilestone,
		ResultKind:  ResultMilestone,
		Metric:      m.Key,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: fmt.Sprintf("milestone progress on %s", m.Key),
	}, nil
}

// buildFixture reads match context directly: the latest (or filtered) game.
func (pl *Planner) buildFixture(an *analyzer.Analysis) *Plan {
	all, params, _ := pl.filterState(an, true)
	joins := map[Relation]bool{RelationFixture: true}

	// Only the fixture node is bound here; appearance-level predicates
	// cannot apply.
	preds := all[:0]
	for _, p := range all {
		if strings.HasPrefix(p.Field, "g.") {
			preds = append(preds, p)
		} else if p.Param != "" {
			delete(params, p.Param)
		}
	}
	sortPredicates(preds)

	query := renderQuery(
		"MATCH (g:Game)",
		whereClause(preds, params),
		"RETURN g.date AS date, g.opposition AS opposition, g.result AS result, g.score AS score, g.competition AS competition ORDER BY date DESC LIMIT 1",
	)
	return &Plan{
		Template:    TemplateFixture,
		ResultKind:  ResultFixture,
		Statements:  []Statement{{ID: "main", Text: query}},
		Predicates:  preds,
		Parameters:  params,
		Joins:       joins,
		Description: "fixture lookup",
	}
}

// buildLeagueTable routes to the season archive; no graph statement is
// emitted.
func (pl *Planner) buildLeagueTable(an *analyzer.Analysis) *Plan {
	params := map[string]any{}
	var preds []Predicate
	if an.Season != "" {
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "season", Param: "season"})
		params["season"] = an.Season
	}
	if len(an.TeamEntities) > 0 {
		preds = append(preds, Predicate{Kind: PredicateEquality, Field: "team", Param: "team"})
		params["team"] = an.TeamEntities[0]
	}
	sortPredicates(preds)

	return &Plan{
		Template:    TemplateLeagueTable,
		ResultKind:  ResultLeagueTable,
		Predicates:  preds,
		Parameters:  params,
		Joins:       map[Relation]bool{},
		Description: "league table lookup",
	}
}
