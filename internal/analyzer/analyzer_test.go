package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/stats"
)

func newTestAnalyzer() *Analyzer {
	return New(stats.NewRegistry(), observability.Nop())
}

func TestAnalyzer_IntentDetection(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		question       string
		expectedIntent Intent
		minConfidence  float64
	}{
		{"How many goals has Luke Bangs scored?", IntentPlayer, 0.7},
		{"How many appearances has Luke Bangs made for the 2nd XI?", IntentPlayer, 0.7},
		{"How many games have the 2s won?", IntentTeam, 0.7},
		{"How many clean sheets did we keep at home in 2021/22?", IntentClub, 0.7},

		{"Who has the most assists?", IntentRanking, 0.6},
		{"Who is the top scorer this season?", IntentRanking, 0.6},

		{"Compare Luke Bangs and Tom Hardwick on goals", IntentComparison, 0.6},
		{"Luke Bangs vs Tom Hardwick goals", IntentComparison, 0.6},

		{"When did Luke Bangs last score?", IntentTemporal, 0.6},
		{"What was the score against Rockford?", IntentFixture, 0.6},
		{"Who won the league in 2019/20?", IntentLeagueTable, 0.7},
		{"How many games in a row did Luke Bangs score?", IntentStreak, 0.6},
		{"Has Luke Bangs ever played two games in a weekend?", IntentDoubleGame, 0.6},
		{"How close is Luke Bangs to his 100th appearance?", IntentMilestone, 0.6},

		{"hello there", IntentGeneral, 0.0},

		{"Luke Bangs", IntentClarificationNeeded, 0.7},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			an := a.Analyze(tc.question, "")
			assert.Equal(t, tc.expectedIntent, an.Intent, "intent mismatch for: %s", tc.question)
			assert.GreaterOrEqual(t, an.Confidence, tc.minConfidence,
				"confidence too low for: %s (got %f)", tc.question, an.Confidence)
		})
	}
}

func TestAnalyzer_EntityExtraction(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		question string
		entities []string
	}{
		{"How many goals has Luke Bangs scored?", []string{"Luke Bangs"}},
		{"When did Luke Bangs last score?", []string{"Luke Bangs"}},
		{"Compare Luke Bangs and Tom Hardwick on goals", []string{"Luke Bangs", "Tom Hardwick"}},
		{"Who has the most goals?", nil},
		{"How many games have the 2s won?", nil},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			an := a.Analyze(tc.question, "")
			assert.Equal(t, tc.entities, an.Entities)
		})
	}
}

func TestAnalyzer_TeamAndOpposition(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("colloquial side reference", func(t *testing.T) {
		an := a.Analyze("How many games have the 2s won?", "")
		assert.Equal(t, []string{"2nd XI"}, an.TeamEntities)
	})

	t.Run("ordinal side reference", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored for the 2nd XI?", "")
		assert.Equal(t, []string{"2nd XI"}, an.TeamEntities)
		assert.Equal(t, []string{"Luke Bangs"}, an.Entities)
	})

	t.Run("opposition is not an entity", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored against Rockford?", "")
		assert.Equal(t, []string{"Luke Bangs"}, an.Entities)
		assert.Equal(t, []string{"Rockford"}, an.OppositionEntities)
	})

	t.Run("versus between two names is a comparison, not opposition", func(t *testing.T) {
		an := a.Analyze("Luke Bangs vs Tom Hardwick goals", "")
		assert.Equal(t, []string{"Luke Bangs", "Tom Hardwick"}, an.Entities)
		assert.Empty(t, an.OppositionEntities)
	})

	t.Run("versus without a leading name is opposition", func(t *testing.T) {
		an := a.Analyze("How did we do versus Rockford?", "")
		assert.Equal(t, []string{"Rockford"}, an.OppositionEntities)
	})

	t.Run("against our own side is not opposition", func(t *testing.T) {
		an := a.Analyze("How many goals did we score against the 2s?", "")
		assert.Empty(t, an.OppositionEntities)
		assert.Empty(t, an.TeamEntities)
	})
}

func TestAnalyzer_Filters(t *testing.T) {
	a := newTestAnalyzer()

	t.Run("season", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored in the 2019/20 season?", "")
		assert.Equal(t, "2019/20", an.Season)
		assert.Nil(t, an.TimeRange)
	})

	t.Run("season with dash", func(t *testing.T) {
		an := a.Analyze("Who won the league in 2019-20?", "")
		assert.Equal(t, "2019/20", an.Season)
	})

	t.Run("since year", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored since 2018?", "")
		require.NotNil(t, an.TimeRange)
		require.NotNil(t, an.TimeRange.From)
		assert.Equal(t, 2018, an.TimeRange.From.Year())
		assert.Nil(t, an.TimeRange.To)
	})

	t.Run("between years", func(t *testing.T) {
		an := a.Analyze("How many appearances did Luke Bangs make between 2018 and 2021?", "")
		require.NotNil(t, an.TimeRange)
		require.NotNil(t, an.TimeRange.From)
		require.NotNil(t, an.TimeRange.To)
		assert.Equal(t, 2018, an.TimeRange.From.Year())
		assert.Equal(t, 2021, an.TimeRange.To.Year())
	})

	t.Run("location", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored at home?", "")
		assert.Equal(t, []Location{LocationHome}, an.Locations)
	})

	t.Run("competition type", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored in cup games?", "")
		assert.Equal(t, []string{"cup"}, an.CompetitionTypes)
	})

	t.Run("result filter", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored in games we won?", "")
		assert.Equal(t, []Outcome{OutcomeWin}, an.Results)
	})

	t.Run("per season breakdown", func(t *testing.T) {
		an := a.Analyze("How many goals has Luke Bangs scored per season?", "")
		assert.True(t, an.PerSeason)
	})

	t.Run("top n", func(t *testing.T) {
		an := a.Analyze("Who are the top 3 scorers?", "")
		assert.Equal(t, 3, an.TopN)
	})
}

func TestAnalyzer_MetricResolution(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		question      string
		primaryMetric string
	}{
		{"How many goals has Luke Bangs scored?", "goals"},
		{"How many penalties has Luke Bangs scored?", "penalties_scored"},
		{"How many penalties has Luke Bangs missed?", "penalties_missed"},
		{"What is Luke Bangs' scoring rate?", "goals_per_game"},
		{"What is Luke Bangs' win rate?", "win_rate"},
		{"How many times has Luke Bangs been sent off?", "red_cards"},
		{"How many man of the match awards does Luke Bangs have?", "motm_awards"},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			an := a.Analyze(tc.question, "")
			assert.Equal(t, tc.primaryMetric, an.PrimaryMetric())
		})
	}
}

func TestAnalyzer_HintEntity(t *testing.T) {
	a := newTestAnalyzer()

	an := a.Analyze("How many goals this season?", "Luke Bangs")
	assert.Equal(t, "Luke Bangs", an.PrimaryEntity())
	assert.Equal(t, IntentPlayer, an.Intent)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"How many goals has Luke BANGED IN?", "how many goals has luke scored?"},
		{"Has Tom got booked this season?", "has tom received a yellow card this season?"},
		{"Who kept a shutout against Rockford?", "who kept a clean sheet against rockford?"},
		{"Did  anyone   score   twice?", "did anyone score twice?"},
		{"What’s the score?", "what's the score?"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Normalize(tc.in))
	}
}
