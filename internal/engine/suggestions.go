package engine

import (
	"sort"
	"strings"

	"github.com/oakfield-sports/clubquery/internal/resolver"
)

// questionTemplates are the example questions offered when a question cannot
// be understood. Ordering matters: with no input to rank against, the first
// entries are shown.
var questionTemplates = []string{
	"How many goals has Luke Bangs scored?",
	"How many appearances has Luke Bangs made for the 2nd XI?",
	"Who has the most assists this season?",
	"What is Luke Bangs' win rate?",
	"Has anyone scored more than Luke Bangs?",
	"When did Luke Bangs last score?",
	"Who won the league in 2019/20?",
	"How many clean sheets did we keep at home in 2021/22?",
	"Compare Luke Bangs and Tom Hardwick on goals",
	"How many games did the 3rd XI win against Rockford?",
}

// SuggestQuestions returns up to n example questions, ranked by similarity
// to the failed input so the examples stay close to what the user was
// reaching for. An empty input returns the leading templates.
func SuggestQuestions(normalized string, n int) []string {
	if n <= 0 || n > len(questionTemplates) {
		n = len(questionTemplates)
	}
	if strings.TrimSpace(normalized) == "" {
		return append([]string(nil), questionTemplates[:n]...)
	}

	type scored struct {
		question string
		score    float64
	}
	ranked := make([]scored, len(questionTemplates))
	for i, q := range questionTemplates {
		ranked[i] = scored{question: q, score: resolver.Similarity(normalized, strings.ToLower(q))}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].question
	}
	return out
}
