// Package analyzer classifies free-text questions about the club's records
// and extracts the entities, statistics, and filters needed to plan a query.
package analyzer

import "time"

// Intent is the closed set of question intents.
type Intent string

const (
	IntentPlayer               Intent = "player"
	IntentTeam                 Intent = "team"
	IntentClub                 Intent = "club"
	IntentFixture              Intent = "fixture"
	IntentComparison           Intent = "comparison"
	IntentStreak               Intent = "streak"
	IntentTemporal             Intent = "temporal"
	IntentRanking              Intent = "ranking"
	IntentLeagueTable          Intent = "league_table"
	IntentDoubleGame           Intent = "double_game"
	IntentMilestone            Intent = "milestone"
	IntentGeneral              Intent = "general"
	IntentClarificationNeeded  Intent = "clarification_needed"
)

// Location is a home/away filter dimension.
type Location string

const (
	LocationHome Location = "home"
	LocationAway Location = "away"
)

// Outcome is a result filter dimension.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
	OutcomeLoss Outcome = "loss"
)

// TimeRange is an explicit date window. Either bound may be open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// Analysis is the structured representation of a question. It is created
// fresh per incoming question, mutated once by the context merge, and
// immutable through the rest of the pipeline.
type Analysis struct {
	Intent             Intent
	RawQuestion        string
	Normalized         string
	Entities           []string // extracted name-like spans, not yet typed
	TeamEntities       []string // canonical side labels, e.g. "2nd XI"
	OppositionEntities []string
	Metrics            []string // canonical metric keys, first is primary
	Season             string   // "2019/20" form
	TimeRange          *TimeRange
	Locations          []Location
	Competitions       []string
	CompetitionTypes   []string
	Results            []Outcome
	PerSeason          bool // "per season" / "each season" breakdown requested
	TopN               int  // ranking size, 0 when not a ranking question

	Confidence            float64
	RequiresClarification bool
	ClarificationMessage  string
}

// PrimaryEntity returns the first extracted entity, or "".
func (a *Analysis) PrimaryEntity() string {
	if len(a.Entities) == 0 {
		return ""
	}
	return a.Entities[0]
}

// PrimaryMetric returns the first resolved metric key, or "".
func (a *Analysis) PrimaryMetric() string {
	if len(a.Metrics) == 0 {
		return ""
	}
	return a.Metrics[0]
}

// HasFixtureFilter reports whether any filter dimension requiring the fixture
// relation is present: opposition, date/season, location, competition, result.
// A team filter on its own is handled at match-record granularity and is
// deliberately excluded here.
func (a *Analysis) HasFixtureFilter() bool {
	return len(a.OppositionEntities) > 0 ||
		a.Season != "" ||
		a.TimeRange != nil ||
		len(a.Locations) > 0 ||
		len(a.Competitions) > 0 ||
		len(a.CompetitionTypes) > 0 ||
		len(a.Results) > 0
}

// HasAnyFilter reports whether any filter beyond the base entity is present.
func (a *Analysis) HasAnyFilter() bool {
	return len(a.TeamEntities) > 0 || a.HasFixtureFilter()
}
