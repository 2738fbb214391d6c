package analyzer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seasonPattern  = regexp.MustCompile(`\b(\d{4})\s*[/\-]\s*(\d{2})\b`)
	betweenPattern = regexp.MustCompile(`between\s+((?:19|20)\d{2})\s+and\s+((?:19|20)\d{2})`)
	sincePattern   = regexp.MustCompile(`since\s+((?:19|20)\d{2})`)
	beforePattern  = regexp.MustCompile(`before\s+((?:19|20)\d{2})`)
	topNPattern    = regexp.MustCompile(`top\s+(\d+)`)
)

// extractSeason finds a season reference in "YYYY/YY" or "YYYY-YY" form and
// returns it canonicalized as "YYYY/YY".
func extractSeason(normalized string) string {
	m := seasonPattern.FindStringSubmatch(normalized)
	if m == nil {
		return ""
	}
	return m[1] + "/" + m[2]
}

// extractTimeRange finds explicit date windows: "between X and Y", "since X",
// "before X". A bare season is handled separately and takes precedence.
func extractTimeRange(normalized string) *TimeRange {
	if m := betweenPattern.FindStringSubmatch(normalized); m != nil {
		from := yearStart(m[1])
		to := yearEnd(m[2])
		return &TimeRange{From: &from, To: &to}
	}
	if m := sincePattern.FindStringSubmatch(normalized); m != nil {
		from := yearStart(m[1])
		return &TimeRange{From: &from}
	}
	if m := beforePattern.FindStringSubmatch(normalized); m != nil {
		to := yearStart(m[1])
		return &TimeRange{To: &to}
	}
	return nil
}

func yearStart(y string) time.Time {
	n, _ := strconv.Atoi(y)
	return time.Date(n, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func yearEnd(y string) time.Time {
	n, _ := strconv.Atoi(y)
	return time.Date(n, time.December, 31, 23, 59, 59, 0, time.UTC)
}

// extractLocations finds home/away keywords.
func extractLocations(normalized string) []Location {
	var locs []Location
	if strings.Contains(normalized, "at home") || strings.Contains(normalized, "home games") || strings.Contains(normalized, "home matches") {
		locs = append(locs, LocationHome)
	}
	if strings.Contains(normalized, "away") {
		locs = append(locs, LocationAway)
	}
	return locs
}

// competitionTypes maps keywords to competition type filters.
var competitionTypeKeywords = []struct {
	keyword  string
	compType string
}{
	{"league games", "league"},
	{"league matches", "league"},
	{"in the league", "league"},
	{"cup games", "cup"},
	{"cup matches", "cup"},
	{"in the cup", "cup"},
	{"cup ties", "cup"},
	{"friendlies", "friendly"},
	{"friendly", "friendly"},
}

var namedCompetitionPattern = regexp.MustCompile(`in the ([a-z][a-z ]+?) (?:cup|trophy|shield|plate)\b`)

// extractCompetitions finds named competitions and competition types.
func extractCompetitions(normalized string) (names []string, types []string) {
	seenType := make(map[string]bool)
	for _, ct := range competitionTypeKeywords {
		if strings.Contains(normalized, ct.keyword) && !seenType[ct.compType] {
			seenType[ct.compType] = true
			types = append(types, ct.compType)
		}
	}
	if m := namedCompetitionPattern.FindStringSubmatch(normalized); m != nil {
		// Recover the trailing competition word the pattern consumed.
		for _, suffix := range []string{"cup", "trophy", "shield", "plate"} {
			phrase := m[1] + " " + suffix
			if strings.Contains(normalized, phrase) {
				names = append(names, titleCase(phrase))
				break
			}
		}
	}
	return names, types
}

func titleCase(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// resultKeywords maps phrasings to result outcomes. Only game-scoped
// phrasings count; "has X won" on its own is the wins metric, not a filter.
var resultKeywords = []struct {
	keyword string
	outcome Outcome
}{
	{"games we won", OutcomeWin},
	{"matches we won", OutcomeWin},
	{"games they won", OutcomeWin},
	{"in wins", OutcomeWin},
	{"in winning games", OutcomeWin},
	{"games we lost", OutcomeLoss},
	{"matches we lost", OutcomeLoss},
	{"games they lost", OutcomeLoss},
	{"in defeats", OutcomeLoss},
	{"in losses", OutcomeLoss},
	{"games we drew", OutcomeDraw},
	{"matches we drew", OutcomeDraw},
	{"in draws", OutcomeDraw},
	{"in drawn games", OutcomeDraw},
}

// extractResults finds win/draw/loss filter phrasings.
func extractResults(normalized string) []Outcome {
	var outcomes []Outcome
	seen := make(map[Outcome]bool)
	for _, rk := range resultKeywords {
		if strings.Contains(normalized, rk.keyword) && !seen[rk.outcome] {
			seen[rk.outcome] = true
			outcomes = append(outcomes, rk.outcome)
		}
	}
	return outcomes
}

// wantsPerSeason reports whether a per-season breakdown was asked for.
func wantsPerSeason(normalized string) bool {
	return strings.Contains(normalized, "per season") ||
		strings.Contains(normalized, "each season") ||
		strings.Contains(normalized, "by season") ||
		strings.Contains(normalized, "season by season") ||
		strings.Contains(normalized, "every season")
}

// extractTopN finds an explicit ranking size ("top 5"); defaults to 0.
func extractTopN(normalized string) int {
	if m := topNPattern.FindStringSubmatch(normalized); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
