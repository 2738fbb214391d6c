package synthesizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/archive"
	"github.com/oakfield-sports/clubquery/internal/graph"
	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/planner"
	"github.com/oakfield-sports/clubquery/internal/stats"
)

const tableDisplayLimit = 3

// Input carries everything a formatting branch may need. Rows come from the
// executor; ratio plans carry the two stage values instead; league-table
// plans carry archived standings.
type Input struct {
	Analysis    *analyzer.Analysis
	Plan        *planner.Plan
	Rows        []graph.Row
	Numerator   *float64
	Denominator *float64
	Standings   []archive.Standing
	Winner      *archive.Standing
}

// Synthesizer renders results into response envelopes.
type Synthesizer struct {
	registry *stats.Registry
	logger   *observability.Logger
}

// New creates a synthesizer over the metric registry.
func New(registry *stats.Registry, logger *observability.Logger) *Synthesizer {
	return &Synthesizer{registry: registry, logger: logger}
}

// Synthesize dispatches on the plan's result kind. The kind is a tag carried
// through from planning, never re-inferred from the question text.
func (s *Synthesizer) Synthesize(in Input) *Envelope {
	var env *Envelope
	switch in.Plan.ResultKind {
	case planner.ResultScalar:
		env = s.scalar(in)
	case planner.ResultRatio:
		env = s.ratio(in)
	case planner.ResultRankedList:
		env = s.rankedList(in)
	case planner.ResultSeasonBreakdown:
		env = s.seasonBreakdown(in)
	case planner.ResultStreak:
		env = s.streak(in)
	case planner.ResultComparison:
		env = s.comparison(in)
	case planner.ResultTemporal:
		env = s.temporal(in)
	case planner.ResultFixture:
		env = s.fixture(in)
	case planner.ResultDoubleGame:
		env = s.doubleGame(in)
	case planner.ResultMilestone:
		env = s.milestone(in)
	case planner.ResultLeagueTable:
		env = s.leagueTable(in)
	default:
		env = &Envelope{Answer: "I could not make sense of that result."}
	}

	env.QueryPlanDescription = in.Plan.Description
	return env
}

// scalarValue extracts the single aggregate value. Aggregating queries
// return one row even when nothing matched, so an empty row set means the
// filters excluded every record rather than a zero total.
func scalarValue(rows []graph.Row) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	v, ok := graph.Float(rows[0]["value"])
	return v, ok
}

func (s *Synthesizer) scalar(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	subject, plural := subjectFor(in.Analysis)
	suffix := filterSuffix(in.Analysis)

	value, ok := scalarValue(in.Rows)
	if !ok {
		return &Envelope{
			Answer: fmt.Sprintf("I found no records%s for that question.", suffix),
		}
	}

	formatted := s.registry.FormatValue(m.Key, value)

	var answer string
	if value == 0 {
		// Zero-value phrasing: "has not scored any goals", never "has scored 0 goals".
		answer = fmt.Sprintf("%s %s not %s any %s%s.", subject, haveHas(plural), m.Verb, m.DisplayName, suffix)
	} else {
		answer = fmt.Sprintf("%s %s %s %s %s%s.", subject, haveHas(plural), m.Verb, formatted, s.registry.Noun(m.Key, value), suffix)
	}

	return &Envelope{
		Answer:      answer,
		AnswerValue: value,
		Visualization: &Visualization{
			Kind: VizSingleValue,
			Data: formatted,
			Config: VizConfig{
				Title: fmt.Sprintf("%s: %s", subject, m.DisplayName),
				Icon:  m.IconID,
			},
		},
	}
}

func (s *Synthesizer) ratio(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	subject, plural := subjectFor(in.Analysis)
	suffix := filterSuffix(in.Analysis)

	var num, den float64
	if in.Numerator != nil {
		num = *in.Numerator
	}
	if in.Denominator != nil {
		den = *in.Denominator
	}

	// Divide-by-zero guard: a denominator of zero yields exactly 0.
	value := 0.0
	if den != 0 {
		value = num / den
	}
	formatted := s.registry.FormatValue(m.Key, value)

	var answer string
	if den == 0 {
		answer = fmt.Sprintf("%s %s no recorded games to compute %s from%s.", subject, haveHas(plural), m.DisplayName, suffix)
	} else if m.IsPercentage {
		answer = fmt.Sprintf("%s %s %s a %s of %s%s.", subject, haveHas(plural), m.Verb, m.DisplayName, formatted, suffix)
	} else {
		answer = fmt.Sprintf("%s %s %s %s %s%s.", subject, haveHas(plural), m.Verb, formatted, m.DisplayName, suffix)
	}

	return &Envelope{
		Answer:      answer,
		AnswerValue: value,
		Visualization: &Visualization{
			Kind:   VizSingleValue,
			Data:   formatted,
			Config: VizConfig{Title: fmt.Sprintf("%s: %s", subject, m.DisplayName), Icon: m.IconID},
		},
	}
}

func aOrAn(noun string) string {
	if noun == "" {
		return "a value"
	}
	switch noun[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + noun
	}
	return "a " + noun
}

func (s *Synthesizer) rankedList(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	suffix := filterSuffix(in.Analysis)

	if len(in.Rows) == 0 {
		return &Envelope{Answer: fmt.Sprintf("I found no players with recorded %s%s.", m.DisplayName, suffix)}
	}

	rows := make([]TableRow, 0, len(in.Rows))
	for _, r := range in.Rows {
		name, _ := r["name"].(string)
		value, _ := graph.Float(r["value"])
		rows = append(rows, TableRow{Label: name, Value: s.registry.FormatValue(m.Key, value)})
	}

	leaderValue, _ := graph.Float(in.Rows[0]["value"])
	answer := fmt.Sprintf("%s leads with %s %s%s.",
		rows[0].Label, s.registry.FormatValue(m.Key, leaderValue), s.registry.Noun(m.Key, leaderValue), suffix)

	return &Envelope{
		Answer:      answer,
		AnswerValue: rows[0].Label,
		Visualization: &Visualization{
			Kind: VizTable,
			Data: rows,
			Config: VizConfig{
				Title:        fmt.Sprintf("Top %d by %s", in.Plan.Limit, m.DisplayName),
				Icon:         m.IconID,
				DisplayLimit: tableDisplayLimit,
				Expandable:   len(rows) > tableDisplayLimit,
			},
		},
	}
}

func (s *Synthesizer) seasonBreakdown(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	subject, plural := subjectFor(in.Analysis)
	suffix := filterSuffix(in.Analysis)

	if len(in.Rows) == 0 {
		return &Envelope{Answer: fmt.Sprintf("%s %s no recorded %s%s.", subject, haveHas(plural), m.DisplayName, suffix)}
	}

	points := make([]SeriesPoint, 0, len(in.Rows))
	total := 0.0
	best := SeriesPoint{}
	for _, r := range in.Rows {
		season, _ := r["season"].(string)
		value, _ := graph.Float(r["value"])
		p := SeriesPoint{Bucket: season, Value: value}
		points = append(points, p)
		total += value
		if value > best.Value {
			best = p
		}
	}

	answer := fmt.Sprintf("%s %s %s %s %s across %d seasons, with a best of %s in %s.",
		subject, haveHas(plural), m.Verb, s.registry.FormatValue(m.Key, total), s.registry.Noun(m.Key, total),
		len(points), s.registry.FormatValue(m.Key, best.Value), best.Bucket)
	if suffix != "" {
		answer = fmt.Sprintf("%s %s %s %s %s%s across %d seasons, with a best of %s in %s.",
			subject, haveHas(plural), m.Verb, s.registry.FormatValue(m.Key, total), s.registry.Noun(m.Key, total),
			suffix, len(points), s.registry.FormatValue(m.Key, best.Value), best.Bucket)
	}

	return &Envelope{
		Answer:      answer,
		AnswerValue: total,
		Visualization: &Visualization{
			Kind:   VizTimeSeries,
			Data:   points,
			Config: VizConfig{Title: fmt.Sprintf("%s per season", m.DisplayName), Icon: m.IconID},
		},
	}
}

func (s *Synthesizer) streak(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	subject, _ := subjectFor(in.Analysis)

	best, current := 0, 0
	for _, r := range in.Rows {
		involved, _ := r["involved"].(bool)
		if involved {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 0
		}
	}

	if best == 0 {
		return &Envelope{
			Answer:      fmt.Sprintf("%s has no run of consecutive games with %s.", subject, aStreakNoun(m)),
			AnswerValue: 0,
		}
	}

	games := "games"
	if best == 1 {
		games = "game"
	}
	return &Envelope{
		Answer:      fmt.Sprintf("%s's longest run is %d consecutive %s with %s.", subject, best, games, aStreakNoun(m)),
		AnswerValue: best,
		Visualization: &Visualization{
			Kind:   VizSingleValue,
			Data:   fmt.Sprintf("%d", best),
			Config: VizConfig{Title: "Longest streak", Icon: m.IconID},
		},
	}
}

func aStreakNoun(m stats.Metric) string {
	return aOrAn(m.Singular)
}

func (s *Synthesizer) comparison(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	suffix := filterSuffix(in.Analysis)

	if len(in.Rows) < 2 {
		return &Envelope{Answer: "I could not find records for both players to compare."}
	}

	type entry struct {
		name  string
		value float64
	}
	entries := make([]entry, 0, len(in.Rows))
	for _, r := range in.Rows {
		name, _ := r["name"].(string)
		value, _ := graph.Float(r["value"])
		entries = append(entries, entry{name, value})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].value > entries[j].value })

	var answer string
	if entries[0].value == entries[1].value {
		answer = fmt.Sprintf("%s and %s are level on %s %s%s.",
			entries[0].name, entries[1].name,
			s.registry.FormatValue(m.Key, entries[0].value), s.registry.Noun(m.Key, entries[0].value), suffix)
	} else {
		answer = fmt.Sprintf("%s edges it with %s %s to %s's %s%s.",
			entries[0].name,
			s.registry.FormatValue(m.Key, entries[0].value), s.registry.Noun(m.Key, entries[0].value),
			entries[1].name, s.registry.FormatValue(m.Key, entries[1].value), suffix)
	}

	rows := []TableRow{
		{Label: entries[0].name, Value: s.registry.FormatValue(m.Key, entries[0].value)},
		{Label: entries[1].name, Value: s.registry.FormatValue(m.Key, entries[1].value)},
	}
	return &Envelope{
		Answer:      answer,
		AnswerValue: entries[0].name,
		Visualization: &Visualization{
			Kind:   VizTable,
			Data:   rows,
			Config: VizConfig{Title: fmt.Sprintf("%s compared", m.DisplayName), Icon: m.IconID, DisplayLimit: 2},
		},
	}
}

func (s *Synthesizer) temporal(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	subject, _ := subjectFor(in.Analysis)

	if len(in.Rows) == 0 {
		return &Envelope{Answer: fmt.Sprintf("%s has never %s %s.", subject, m.Verb, aOrAn(m.Singular))}
	}

	row := in.Rows[0]
	when, ok := asTime(row["date"])
	opposition, _ := row["opposition"].(string)

	if !ok {
		return &Envelope{Answer: fmt.Sprintf("%s last %s %s, but the match date is not recorded.", subject, m.Verb, aOrAn(m.Singular))}
	}

	answer := fmt.Sprintf("%s last %s %s on %s", subject, m.Verb, aOrAn(m.Singular), formatDate(when))
	if opposition != "" {
		answer += " against " + opposition
	}
	answer += "."

	return &Envelope{
		Answer:      answer,
		AnswerValue: when.Format("2006-01-02"),
		Visualization: &Visualization{
			Kind:   VizSingleValue,
			Data:   formatDate(when),
			Config: VizConfig{Title: "Most recent", Icon: m.IconID},
		},
	}
}

func (s *Synthesizer) fixture(in Input) *Envelope {
	if len(in.Rows) == 0 {
		return &Envelope{Answer: "I found no fixture matching that."}
	}
	row := in.Rows[0]
	opposition, _ := row["opposition"].(string)
	result, _ := row["result"].(string)
	score, _ := row["score"].(string)
	when, hasDate := asTime(row["date"])

	var b strings.Builder
	b.WriteString("We played ")
	if opposition != "" {
		b.WriteString(opposition)
	} else {
		b.WriteString("an unrecorded opponent")
	}
	if hasDate {
		b.WriteString(" on " + formatDate(when))
	}
	switch result {
	case "win":
		b.WriteString(" and won")
	case "loss":
		b.WriteString(" and lost")
	case "draw":
		b.WriteString(" and drew")
	}
	if score != "" {
		b.WriteString(" " + score)
	}
	b.WriteString(".")

	return &Envelope{
		Answer:      b.String(),
		AnswerValue: score,
	}
}

func (s *Synthesizer) doubleGame(in Input) *Envelope {
	subject, _ := subjectFor(in.Analysis)

	// Bucket game dates by ISO week; two or more games in one week is a
	// double game week.
	weeks := make(map[string]int)
	for _, r := range in.Rows {
		when, ok := asTime(r["date"])
		if !ok {
			continue
		}
		year, week := when.ISOWeek()
		weeks[fmt.Sprintf("%d-%02d", year, week)]++
	}
	doubles := 0
	for _, count := range weeks {
		if count >= 2 {
			doubles++
		}
	}

	if doubles == 0 {
		return &Envelope{Answer: fmt.Sprintf("%s has not played a double game week.", subject), AnswerValue: 0}
	}
	weeksWord := "weeks"
	if doubles == 1 {
		weeksWord = "week"
	}
	return &Envelope{
		Answer:      fmt.Sprintf("%s has played %d double game %s.", subject, doubles, weeksWord),
		AnswerValue: doubles,
		Visualization: &Visualization{
			Kind:   VizSingleValue,
			Data:   fmt.Sprintf("%d", doubles),
			Config: VizConfig{Title: "Double game weeks"},
		},
	}
}

// milestoneStep is the round-number spacing milestones are measured against.
const milestoneStep = 50

func (s *Synthesizer) milestone(in Input) *Envelope {
	m, _ := s.registry.Lookup(in.Plan.Metric)
	subject, _ := subjectFor(in.Analysis)

	value, ok := scalarValue(in.Rows)
	if !ok {
		return &Envelope{Answer: fmt.Sprintf("I found no records for %s.", subject)}
	}

	current := int(value)
	next := ((current / milestoneStep) + 1) * milestoneStep
	remaining := next - current

	return &Envelope{
		Answer: fmt.Sprintf("%s is on %d %s, %d away from the %d milestone.",
			subject, current, s.registry.Noun(m.Key, float64(current)), remaining, next),
		AnswerValue: current,
		Visualization: &Visualization{
			Kind:   VizSingleValue,
			Data:   fmt.Sprintf("%d / %d", current, next),
			Config: VizConfig{Title: fmt.Sprintf("Progress to %d %s", next, m.DisplayName), Icon: m.IconID},
		},
	}
}

func (s *Synthesizer) leagueTable(in Input) *Envelope {
	an := in.Analysis
	if len(in.Standings) == 0 {
		season := an.Season
		if season == "" {
			return &Envelope{Answer: "Which season's league table are you after?"}
		}
		return &Envelope{Answer: fmt.Sprintf("I have no archived league table for the %s season.", season)}
	}

	rows := make([]TableRow, 0, len(in.Standings))
	for _, st := range in.Standings {
		rows = append(rows, TableRow{
			Label: fmt.Sprintf("%d. %s", st.Position, st.Team),
			Value: fmt.Sprintf("%d pts", st.Points),
		})
	}

	var answer string
	if len(an.TeamEntities) > 0 {
		st := in.Standings[0]
		answer = fmt.Sprintf("The %s finished %s in %s in the %s season with %d points.",
			st.Team, ordinal(st.Position), st.Division, st.Season, st.Points)
	} else {
		winner := in.Standings[0]
		if in.Winner != nil {
			winner = *in.Winner
		} else {
			for _, st := range in.Standings {
				if st.Position == 1 {
					winner = st
					break
				}
			}
		}
		answer = fmt.Sprintf("%s won %s in the %s season with %d points.",
			winner.Team, winner.Division, winner.Season, winner.Points)
	}

	return &Envelope{
		Answer:      answer,
		AnswerValue: in.Standings[0].Team,
		Visualization: &Visualization{
			Kind: VizTable,
			Data: rows,
			Config: VizConfig{
				Title:        fmt.Sprintf("League table %s", in.Standings[0].Season),
				DisplayLimit: tableDisplayLimit,
				Expandable:   len(rows) > tableDisplayLimit,
			},
		},
	}
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
