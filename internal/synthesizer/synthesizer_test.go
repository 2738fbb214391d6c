package synthesizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/archive"
	"github.com/oakfield-sports/clubquery/internal/graph"
	"github.com/oakfield-sports/clubquery/internal/observability"
	"github.com/oakfield-sports/clubquery/internal/planner"
	"github.com/oakfield-sports/clubquery/internal/stats"
)

func newTestSynthesizer() *Synthesizer {
	return New(stats.NewRegistry(), observability.Nop())
}

func playerInput(metric string, kind planner.ResultKind, rows []graph.Row) Input {
	return Input{
		Analysis: &analyzer.Analysis{
			Intent:   analyzer.IntentPlayer,
			Entities: []string{"Luke Bangs"},
			Metrics:  []string{metric},
		},
		Plan: &planner.Plan{ResultKind: kind, Metric: metric},
		Rows: rows,
	}
}

func TestSynthesize_Scalar(t *testing.T) {
	s := newTestSynthesizer()

	t.Run("positive value", func(t *testing.T) {
		env := s.Synthesize(playerInput("goals", planner.ResultScalar, []graph.Row{{"value": int64(27)}}))
		assert.Equal(t, "Luke Bangs has scored 27 goals.", env.Answer)
		assert.Equal(t, 27.0, env.AnswerValue)
		require.NotNil(t, env.Visualization)
		assert.Equal(t, VizSingleValue, env.Visualization.Kind)
	})

	t.Run("single value uses singular noun", func(t *testing.T) {
		env := s.Synthesize(playerInput("goals", planner.ResultScalar, []graph.Row{{"value": int64(1)}}))
		assert.Equal(t, "Luke Bangs has scored 1 goal.", env.Answer)
	})

	t.Run("zero phrased as not any", func(t *testing.T) {
		env := s.Synthesize(playerInput("goals", planner.ResultScalar, []graph.Row{{"value": int64(0)}}))
		assert.Equal(t, "Luke Bangs has not scored any goals.", env.Answer)
	})

	t.Run("zero with filters keeps the filter phrasing", func(t *testing.T) {
		in := playerInput("goals", planner.ResultScalar, []graph.Row{{"value": int64(0)}})
		in.Analysis.TeamEntities = []string{"2nd XI"}
		env := s.Synthesize(in)
		assert.Equal(t, "Luke Bangs has not scored any goals for the 2nd XI.", env.Answer)
	})

	t.Run("no rows means the filters matched nothing", func(t *testing.T) {
		in := playerInput("goals", planner.ResultScalar, nil)
		in.Analysis.Season = "2019/20"
		env := s.Synthesize(in)
		assert.Contains(t, env.Answer, "no records")
		assert.Contains(t, env.Answer, "2019/20")
	})

	t.Run("team subject takes plural agreement", func(t *testing.T) {
		in := Input{
			Analysis: &analyzer.Analysis{
				Intent:       analyzer.IntentTeam,
				TeamEntities: []string{"2nd XI"},
				Metrics:      []string{"wins"},
			},
			Plan: &planner.Plan{ResultKind: planner.ResultScalar, Metric: "wins"},
			Rows: []graph.Row{{"value": int64(12)}},
		}
		env := s.Synthesize(in)
		assert.Equal(t, "The 2nd XI have recorded 12 wins.", env.Answer)
	})
}

func TestSynthesize_Ratio(t *testing.T) {
	s := newTestSynthesizer()

	ratioInput := func(metric string, num, den float64) Input {
		in := playerInput(metric, planner.ResultRatio, nil)
		in.Numerator = &num
		in.Denominator = &den
		return in
	}

	t.Run("goals per game", func(t *testing.T) {
		env := s.Synthesize(ratioInput("goals_per_game", 27, 60))
		assert.Equal(t, "Luke Bangs has averaged 0.45 goals per game.", env.Answer)
		assert.InDelta(t, 0.45, env.AnswerValue, 0.001)
	})

	t.Run("win rate renders as a percentage", func(t *testing.T) {
		env := s.Synthesize(ratioInput("win_rate", 36, 60))
		assert.Equal(t, "Luke Bangs has achieved a win rate of 60.0%.", env.Answer)
	})

	t.Run("zero denominator yields zero, never an error", func(t *testing.T) {
		env := s.Synthesize(ratioInput("goals_per_game", 0, 0))
		assert.Equal(t, 0.0, env.AnswerValue)
		assert.Contains(t, env.Answer, "no recorded games")
		assert.Empty(t, env.ErrorKind)
	})
}

func TestSynthesize_RankedList(t *testing.T) {
	s := newTestSynthesizer()

	in := playerInput("goals", planner.ResultRankedList, []graph.Row{
		{"name": "Luke Bangs", "value": int64(27)},
		{"name": "Tom Hardwick", "value": int64(19)},
		{"name": "James Park", "value": int64(14)},
		{"name": "Danny O'Neill", "value": int64(9)},
	})
	in.Analysis.Entities = nil
	in.Plan.Limit = 5

	env := s.Synthesize(in)
	assert.Equal(t, "Luke Bangs leads with 27 goals.", env.Answer)
	require.NotNil(t, env.Visualization)
	assert.Equal(t, VizTable, env.Visualization.Kind)

	rows, ok := env.Visualization.Data.([]TableRow)
	require.True(t, ok)
	assert.Len(t, rows, 4)
	assert.Equal(t, tableDisplayLimit, env.Visualization.Config.DisplayLimit)
	assert.True(t, env.Visualization.Config.Expandable)
}

func TestSynthesize_SeasonBreakdown(t *testing.T) {
	s := newTestSynthesizer()

	in := playerInput("goals", planner.ResultSeasonBreakdown, []graph.Row{
		{"season": "2018/19", "value": int64(8)},
		{"season": "2019/20", "value": int64(12)},
		{"season": "2020/21", "value": int64(7)},
	})

	env := s.Synthesize(in)
	assert.Contains(t, env.Answer, "27 goals")
	assert.Contains(t, env.Answer, "best of 12 in 2019/20")
	require.NotNil(t, env.Visualization)
	assert.Equal(t, VizTimeSeries, env.Visualization.Kind)

	points, ok := env.Visualization.Data.([]SeriesPoint)
	require.True(t, ok)
	assert.Len(t, points, 3)
}

func TestSynthesize_Streak(t *testing.T) {
	s := newTestSynthesizer()

	t.Run("longest run", func(t *testing.T) {
		in := playerInput("goals", planner.ResultStreak, []graph.Row{
			{"involved": true}, {"involved": true}, {"involved": false},
			{"involved": true}, {"involved": true}, {"involved": true},
			{"involved": false},
		})
		env := s.Synthesize(in)
		assert.Equal(t, 3, env.AnswerValue)
		assert.Contains(t, env.Answer, "3 consecutive games")
	})

	t.Run("no run", func(t *testing.T) {
		in := playerInput("goals", planner.ResultStreak, []graph.Row{{"involved": false}})
		env := s.Synthesize(in)
		assert.Equal(t, 0, env.AnswerValue)
		assert.Contains(t, env.Answer, "no run")
	})
}

func TestSynthesize_Comparison(t *testing.T) {
	s := newTestSynthesizer()

	in := playerInput("goals", planner.ResultComparison, []graph.Row{
		{"name": "Luke Bangs", "value": int64(27)},
		{"name": "Tom Hardwick", "value": int64(19)},
	})
	in.Analysis.Entities = []string{"Luke Bangs", "Tom Hardwick"}

	env := s.Synthesize(in)
	assert.Contains(t, env.Answer, "Luke Bangs edges it with 27 goals")
	assert.Contains(t, env.Answer, "Tom Hardwick's 19")
	assert.Equal(t, "Luke Bangs", env.AnswerValue)
}

func TestSynthesize_Temporal(t *testing.T) {
	s := newTestSynthesizer()

	in := playerInput("goals", planner.ResultTemporal, []graph.Row{
		{"date": time.Date(2023, time.April, 15, 0, 0, 0, 0, time.UTC), "opposition": "Rockford"},
	})
	env := s.Synthesize(in)
	assert.Equal(t, "Luke Bangs last scored a goal on 15 April 2023 against Rockford.", env.Answer)
}

func TestSynthesize_DoubleGame(t *testing.T) {
	s := newTestSynthesizer()

	// Two games in the same ISO week count once; the lone game does not.
	in := playerInput("appearances", planner.ResultDoubleGame, []graph.Row{
		{"date": time.Date(2023, time.April, 15, 0, 0, 0, 0, time.UTC)},
		{"date": time.Date(2023, time.April, 16, 0, 0, 0, 0, time.UTC)},
		{"date": time.Date(2023, time.April, 22, 0, 0, 0, 0, time.UTC)},
	})
	env := s.Synthesize(in)
	assert.Equal(t, 1, env.AnswerValue)
	assert.Contains(t, env.Answer, "1 double game week")
}

func TestSynthesize_Milestone(t *testing.T) {
	s := newTestSynthesizer()

	in := playerInput("appearances", planner.ResultMilestone, []graph.Row{{"value": int64(93)}})
	env := s.Synthesize(in)
	assert.Contains(t, env.Answer, "93 appearances")
	assert.Contains(t, env.Answer, "7 away from the 100 milestone")
}

func TestSynthesize_LeagueTable(t *testing.T) {
	s := newTestSynthesizer()

	standings := []archive.Standing{
		{Season: "2019/20", Division: "Division Three", Position: 1, Team: "Oakfield 2nd XI", Points: 52},
		{Season: "2019/20", Division: "Division Three", Position: 2, Team: "Rockford", Points: 47},
	}

	t.Run("winner question", func(t *testing.T) {
		in := Input{
			Analysis:  &analyzer.Analysis{Intent: analyzer.IntentLeagueTable, Season: "2019/20"},
			Plan:      &planner.Plan{ResultKind: planner.ResultLeagueTable},
			Standings: standings,
		}
		env := s.Synthesize(in)
		assert.Equal(t, "Oakfield 2nd XI won Division Three in the 2019/20 season with 52 points.", env.Answer)
		require.NotNil(t, env.Visualization)
		assert.Equal(t, VizTable, env.Visualization.Kind)
	})

	t.Run("precomputed winner takes precedence", func(t *testing.T) {
		winner := archive.Standing{
			Season: "2019/20", Division: "Division Two", Position: 1, Team: "Oakfield 1st XI", Points: 58,
		}
		in := Input{
			Analysis:  &analyzer.Analysis{Intent: analyzer.IntentLeagueTable, Season: "2019/20"},
			Plan:      &planner.Plan{ResultKind: planner.ResultLeagueTable},
			Standings: standings,
			Winner:    &winner,
		}
		env := s.Synthesize(in)
		assert.Equal(t, "Oakfield 1st XI won Division Two in the 2019/20 season with 58 points.", env.Answer)
	})

	t.Run("position question", func(t *testing.T) {
		in := Input{
			Analysis: &analyzer.Analysis{
				Intent:       analyzer.IntentLeagueTable,
				Season:       "2019/20",
				TeamEntities: []string{"2nd XI"},
			},
			Plan:      &planner.Plan{ResultKind: planner.ResultLeagueTable},
			Standings: standings[:1],
		}
		env := s.Synthesize(in)
		assert.Equal(t, "The Oakfield 2nd XI finished 1st in Division Three in the 2019/20 season with 52 points.", env.Answer)
	})
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd"}
	for n, want := range tests {
		assert.Equal(t, want, ordinal(n))
	}
}
