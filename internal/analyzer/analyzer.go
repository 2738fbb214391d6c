package analyzer

import (
	"fmt"

	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/stats"
)

// Analyzer turns free-text questions into a structured Analysis.
type Analyzer struct {
	registry *stats.Registry
	logger   *observability.Logger
}

// New creates an analyzer over the metric registry.
func New(registry *stats.Registry, logger *observability.Logger) *Analyzer {
	return &Analyzer{registry: registry, logger: logger}
}

// Analyze classifies a question and extracts entities, metrics, and filters.
// hintEntity, when non-empty, is prepended to the entity list; the host
// passes it when the caller already knows who the question is about.
// Malformed input never raises: the worst case is a low-confidence general
// analysis the engine will turn into a clarification.
func (a *Analyzer) Analyze(question, hintEntity string) *Analysis {
	normalized := Normalize(question)

	analysis := &Analysis{
		RawQuestion: question,
		Normalized:  normalized,
	}

	analysis.Entities = extractEntities(question)
	if hintEntity != "" && !contains(analysis.Entities, hintEntity) {
		analysis.Entities = append([]string{hintEntity}, analysis.Entities...)
	}
	analysis.TeamEntities = extractTeamRefs(normalized)
	analysis.OppositionEntities = extractOpposition(question)

	analysis.Metrics = a.registry.ResolvePhrases(normalized)

	analysis.Season = extractSeason(normalized)
	if analysis.Season == "" {
		analysis.TimeRange = extractTimeRange(normalized)
	}
	analysis.Locations = extractLocations(normalized)
	analysis.Competitions, analysis.CompetitionTypes = extractCompetitions(normalized)
	analysis.Results = extractResults(normalized)
	analysis.PerSeason = wantsPerSeason(normalized)
	analysis.TopN = extractTopN(normalized)

	intent, conf := detectIntent(normalized, extracted{
		entities: analysis.Entities,
		teams:    analysis.TeamEntities,
		metrics:  analysis.Metrics,
	})
	analysis.Intent = intent
	analysis.Confidence = a.scoreConfidence(analysis, conf)

	if intent == IntentClarificationNeeded {
		analysis.RequiresClarification = true
		analysis.ClarificationMessage = fmt.Sprintf(
			"What would you like to know about %s?", analysis.PrimaryEntity())
	}

	a.logger.Debug().
		Str("question", question).
		Str("intent", string(intent)).
		Strs("entities", analysis.Entities).
		Strs("teams", analysis.TeamEntities).
		Strs("metrics", analysis.Metrics).
		Float64("confidence", analysis.Confidence).
		Msg("Analyzed question")

	return analysis
}

// scoreConfidence combines the detector confidence with how many of the
// intent's required slots are filled.
func (a *Analyzer) scoreConfidence(an *Analysis, detectorConf float64) float64 {
	score := detectorConf

	switch an.Intent {
	case IntentPlayer, IntentComparison:
		if len(an.Entities) == 0 {
			score -= 0.3
		}
		if len(an.Metrics) == 0 {
			score -= 0.2
		}
	case IntentTeam, IntentClub:
		if len(an.Metrics) == 0 {
			score -= 0.2
		}
	case IntentRanking:
		if len(an.Metrics) == 0 {
			score -= 0.2
		}
	case IntentLeagueTable:
		if an.Season == "" && an.TimeRange == nil {
			score -= 0.1
		}
	}

	if an.HasAnyFilter() {
		score += 0.05
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
