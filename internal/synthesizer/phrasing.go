package synthesizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
)

// filterSuffix renders the question's filters back into the answer sentence,
// in a fixed order so phrasing is deterministic: team, opposition, season,
// date window, location, competition, result.
func filterSuffix(an *analyzer.Analysis) string {
	var parts []string

	// When the side is the sentence subject, repeating it as a filter reads
	// badly.
	if len(an.TeamEntities) > 0 && an.Intent != analyzer.IntentTeam {
		parts = append(parts, "for the "+an.TeamEntities[0])
	}
	if len(an.OppositionEntities) > 0 {
		parts = append(parts, "against "+an.OppositionEntities[0])
	}
	if an.Season != "" {
		parts = append(parts, "in the "+an.Season+" season")
	}
	if tr := an.TimeRange; tr != nil {
		switch {
		case tr.From != nil && tr.To != nil:
			parts = append(parts, fmt.Sprintf("between %d and %d", tr.From.Year(), tr.To.Year()))
		case tr.From != nil:
			parts = append(parts, fmt.Sprintf("since %d", tr.From.Year()))
		case tr.To != nil:
			parts = append(parts, fmt.Sprintf("before %d", tr.To.Year()))
		}
	}
	for _, loc := range an.Locations {
		if loc == analyzer.LocationHome {
			parts = append(parts, "at home")
		} else {
			parts = append(parts, "away from home")
		}
	}
	if len(an.Competitions) > 0 {
		parts = append(parts, "in the "+an.Competitions[0])
	} else if len(an.CompetitionTypes) > 0 {
		switch an.CompetitionTypes[0] {
		case "league":
			parts = append(parts, "in the league")
		case "cup":
			parts = append(parts, "in cup games")
		case "friendly":
			parts = append(parts, "in friendlies")
		}
	}
	for _, res := range an.Results {
		switch res {
		case analyzer.OutcomeWin:
			parts = append(parts, "in games we won")
		case analyzer.OutcomeDraw:
			parts = append(parts, "in games we drew")
		case analyzer.OutcomeLoss:
			parts = append(parts, "in games we lost")
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

// subjectFor returns the sentence subject and verb agreement for the plan's
// scope: a named player, a side, or the whole club.
func subjectFor(an *analyzer.Analysis) (subject string, plural bool) {
	switch an.Intent {
	case analyzer.IntentTeam:
		if len(an.TeamEntities) > 0 {
			return "The " + an.TeamEntities[0], true
		}
		return "The team", true
	case analyzer.IntentClub:
		return "The club", false
	default:
		if name := an.PrimaryEntity(); name != "" {
			return name, false
		}
		return "The club", false
	}
}

// haveHas returns the auxiliary verb agreeing with the subject.
func haveHas(plural bool) string {
	if plural {
		return "have"
	}
	return "has"
}

// asTime coerces a graph date value. The driver returns time.Time for
// temporal properties; fixtures loaded from CSV may carry ISO strings.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse("2006-01-02", t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}
