package analyzer

import "strings"

// detector is one intent matcher. Detectors run in the order of the
// detectors slice; the first confident match wins. The ordering below is the
// documented precedence list, not an incidental if/else chain:
//
//  1. comparison   - "X or Y" style questions pre-empt everything
//  2. league_table - league/table phrasing, including "who won the league"
//  3. streak       - consecutive-game runs
//  4. double_game  - weekends where a player turned out for two sides
//  5. milestone    - approaching round-number totals
//  6. ranking      - "who has the most ..." top-N questions
//  7. temporal     - "when did ..." / "last time ..."
//  8. fixture      - individual match results and schedules
//  9. player       - a named player with a statistic; pre-empts team
// 10. team         - side-aggregate questions
// 11. club         - whole-club aggregates
// 12. general      - greetings, help, anything conversational
type detector struct {
	intent     Intent
	confidence float64
	match      func(q string, e extracted) bool
}

// extracted carries the spans the detectors need for precedence decisions.
type extracted struct {
	entities []string
	teams    []string
	metrics  []string
}

func containsAny(q string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

var detectors = []detector{
	{IntentComparison, 0.9, func(q string, e extracted) bool {
		if containsAny(q, "compare", "versus", " vs ", " vs. ") {
			return true
		}
		// "X or Y" with two named entities is an implicit comparison.
		return strings.Contains(q, " or ") && len(e.entities) >= 2
	}},
	{IntentLeagueTable, 0.9, func(q string, e extracted) bool {
		return containsAny(q, "league table", "won the league", "win the league",
			"league position", "top of the league", "where are we in the league",
			"where did we finish", "final standings")
	}},
	{IntentStreak, 0.85, func(q string, e extracted) bool {
		return containsAny(q, "in a row", "consecutive", "streak", "run of", "on the trot", "games running")
	}},
	{IntentDoubleGame, 0.85, func(q string, e extracted) bool {
		return containsAny(q, "double game", "doubled up", "both games", "two games in a weekend", "played twice")
	}},
	{IntentMilestone, 0.85, func(q string, e extracted) bool {
		return containsAny(q, "milestone", "closest to", "th appearance", "th goal", "century of")
	}},
	{IntentRanking, 0.85, func(q string, e extracted) bool {
		return containsAny(q, "who has the most", "who has scored the most", "most goals", "most appearances",
			"top scorer", "leading scorer", "top ", "highest", "who leads", "best record")
	}},
	{IntentTemporal, 0.8, func(q string, e extracted) bool {
		return containsAny(q, "when did", "when was", "last time", "first time", "most recent", "how long since")
	}},
	{IntentFixture, 0.8, func(q string, e extracted) bool {
		return containsAny(q, "what was the score", "final score", "result of", "result against",
			"who did we play", "who do we play", "next game", "next fixture", "last game", "kick off", "kick-off")
	}},
	// A player-specific phrase must pre-empt a team-aggregate phrase even if
	// both patterns match, so the player detector runs before team.
	{IntentPlayer, 0.8, func(q string, e extracted) bool {
		return len(e.entities) > 0 && len(e.metrics) > 0
	}},
	{IntentTeam, 0.8, func(q string, e extracted) bool {
		return len(e.teams) > 0 && len(e.metrics) > 0
	}},
	// "we" with no side named means the whole club.
	{IntentClub, 0.75, func(q string, e extracted) bool {
		return len(e.metrics) > 0 && containsAny(q, "the club", "all teams", "across the club",
			"club record", "overall", "did we ", "have we ", "do we ", " we keep", " we score")
	}},
	{IntentGeneral, 0.5, func(q string, e extracted) bool {
		return containsAny(q, "hello", "hi ", "help", "what can you", "thanks", "thank you")
	}},
}

// detectIntent runs the detector battery and returns the first confident
// match. Questions with an entity but no recognized pattern fall back to the
// player intent at low confidence; everything else falls back to general.
func detectIntent(normalized string, e extracted) (Intent, float64) {
	for _, d := range detectors {
		if d.match(normalized, e) {
			return d.intent, d.confidence
		}
	}
	if len(e.entities) > 0 {
		// A bare name fragment carries no askable statistic; the caller must
		// say what they want to know before anything can be planned.
		if len(e.metrics) == 0 && len(strings.Fields(normalized)) <= 3 {
			return IntentClarificationNeeded, 0.9
		}
		return IntentPlayer, 0.5
	}
	if len(e.teams) > 0 {
		return IntentTeam, 0.5
	}
	return IntentGeneral, 0.3
}
