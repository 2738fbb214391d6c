package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
	"github.com/oakfield-sports/clubquery/internal/stats"
)

func newTestPlanner() *Planner {
	return New(stats.NewRegistry())
}

func playerAnalysis(metric string) *analyzer.Analysis {
	return &analyzer.Analysis{
		Intent:   analyzer.IntentPlayer,
		Entities: []string{"Luke Bangs"},
		Metrics:  []string{metric},
	}
}

func TestBuildPlan_PlayerScalar(t *testing.T) {
	pl := newTestPlanner()

	plan, err := pl.BuildPlan(playerAnalysis("goals"))
	require.NoError(t, err)

	assert.Equal(t, TemplatePlayerScalar, plan.Template)
	assert.Equal(t, ResultScalar, plan.ResultKind)
	assert.Equal(t, "goals", plan.Metric)
	require.Len(t, plan.Statements, 1)
	assert.Equal(t, "Luke Bangs", plan.Parameters["player"])
}

func TestBuildPlan_JoinMinimization(t *testing.T) {
	pl := newTestPlanner()

	t.Run("no filters, no fixture join", func(t *testing.T) {
		plan, err := pl.BuildPlan(playerAnalysis("goals"))
		require.NoError(t, err)
		assert.False(t, plan.RequiresFixtureJoin())
		assert.Contains(t, plan.Statements[0].Text, "MATCH (p:Player)-[a:PLAYED_IN]->()")
	})

	t.Run("team filter alone stays on match records", func(t *testing.T) {
		an := playerAnalysis("goals")
		an.TeamEntities = []string{"2nd XI"}
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.False(t, plan.RequiresFixtureJoin())
		assert.Contains(t, plan.Statements[0].Text, "a.team = $team")
		assert.Equal(t, "2nd XI", plan.Parameters["team"])
	})

	t.Run("season filter induces the fixture join", func(t *testing.T) {
		an := playerAnalysis("goals")
		an.Season = "2019/20"
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.True(t, plan.RequiresFixtureJoin())
		assert.Contains(t, plan.Statements[0].Text, "MATCH (p:Player)-[a:PLAYED_IN]->(g:Game)")
		assert.Contains(t, plan.Statements[0].Text, "g.season = $season")
	})

	t.Run("opposition filter induces the fixture join", func(t *testing.T) {
		an := playerAnalysis("goals")
		an.OppositionEntities = []string{"Rockford"}
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.True(t, plan.RequiresFixtureJoin())
	})

	t.Run("fixture-dependent metric induces the join without filters", func(t *testing.T) {
		plan, err := pl.BuildPlan(playerAnalysis("wins"))
		require.NoError(t, err)
		assert.True(t, plan.RequiresFixtureJoin())
		assert.Contains(t, plan.Statements[0].Text, "g.result")
	})
}

func TestBuildPlan_Deterministic(t *testing.T) {
	pl := newTestPlanner()

	an := playerAnalysis("goals")
	an.TeamEntities = []string{"2nd XI"}
	an.Season = "2019/20"
	an.Locations = []analyzer.Location{analyzer.LocationHome}
	an.Results = []analyzer.Outcome{analyzer.OutcomeWin}

	first, err := pl.BuildPlan(an)
	require.NoError(t, err)
	second, err := pl.BuildPlan(an)
	require.NoError(t, err)

	assert.Equal(t, first.Statements, second.Statements)
	assert.Equal(t, first.Predicates, second.Predicates)
	assert.Equal(t, first.Parameters, second.Parameters)
}

func TestBuildPlan_PredicateOrdering(t *testing.T) {
	pl := newTestPlanner()

	an := playerAnalysis("goals")
	an.TeamEntities = []string{"2nd XI"}
	an.Locations = []analyzer.Location{analyzer.LocationHome}
	from := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)
	an.TimeRange = &analyzer.TimeRange{From: &from}

	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)

	// Equality predicates first, then ranges, then memberships.
	var classes []int
	for _, pred := range plan.Predicates {
		classes = append(classes, pred.Kind.selectivityClass())
	}
	for i := 1; i < len(classes); i++ {
		assert.LessOrEqual(t, classes[i-1], classes[i])
	}
}

func TestBuildPlan_Ratio(t *testing.T) {
	pl := newTestPlanner()

	plan, err := pl.BuildPlan(playerAnalysis("goals_per_game"))
	require.NoError(t, err)

	assert.Equal(t, TemplateRatio, plan.Template)
	assert.Equal(t, ResultRatio, plan.ResultKind)
	require.Len(t, plan.Statements, 2)
	assert.Equal(t, "numerator", plan.Statements[0].ID)
	assert.Equal(t, "denominator", plan.Statements[1].ID)
	assert.Contains(t, plan.Statements[0].Text, "sum(coalesce(a.goals, 0))")
	assert.Contains(t, plan.Statements[1].Text, "count(a)")
}

func TestBuildPlan_WinRateNeedsFixture(t *testing.T) {
	pl := newTestPlanner()

	plan, err := pl.BuildPlan(playerAnalysis("win_rate"))
	require.NoError(t, err)
	assert.True(t, plan.RequiresFixtureJoin())
}

func TestBuildPlan_PerSeasonBreakdown(t *testing.T) {
	pl := newTestPlanner()

	an := playerAnalysis("goals")
	an.PerSeason = true
	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)

	assert.Equal(t, ResultSeasonBreakdown, plan.ResultKind)
	assert.True(t, plan.GroupBySeason)
	assert.Contains(t, plan.Statements[0].Text, "g.season AS season")
	assert.True(t, plan.RequiresFixtureJoin())
}

func TestBuildPlan_Ranking(t *testing.T) {
	pl := newTestPlanner()

	t.Run("default limit", func(t *testing.T) {
		an := &analyzer.Analysis{Intent: analyzer.IntentRanking, Metrics: []string{"goals"}}
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.Equal(t, ResultRankedList, plan.ResultKind)
		assert.Equal(t, defaultRankingLimit, plan.Limit)
		assert.Contains(t, plan.Statements[0].Text, "ORDER BY value DESC, name LIMIT $limit")
	})

	t.Run("explicit top n", func(t *testing.T) {
		an := &analyzer.Analysis{Intent: analyzer.IntentRanking, Metrics: []string{"goals"}, TopN: 3}
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.Equal(t, 3, plan.Limit)
	})

	t.Run("ratio ranking guards division in the query", func(t *testing.T) {
		an := &analyzer.Analysis{Intent: analyzer.IntentRanking, Metrics: []string{"goals_per_game"}}
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.Contains(t, plan.Statements[0].Text, "CASE WHEN count(a) = 0 THEN 0")
	})
}

func TestBuildPlan_Comparison(t *testing.T) {
	pl := newTestPlanner()

	t.Run("two names", func(t *testing.T) {
		an := &analyzer.Analysis{
			Intent:   analyzer.IntentComparison,
			Entities: []string{"Luke Bangs", "Tom Hardwick"},
			Metrics:  []string{"goals"},
		}
		plan, err := pl.BuildPlan(an)
		require.NoError(t, err)
		assert.Equal(t, ResultComparison, plan.ResultKind)
		assert.Equal(t, []string{"Luke Bangs", "Tom Hardwick"}, plan.Parameters["players"])
		assert.Contains(t, plan.Statements[0].Text, "p.name IN $players")
	})

	t.Run("one name fails", func(t *testing.T) {
		an := &analyzer.Analysis{
			Intent:   analyzer.IntentComparison,
			Entities: []string{"Luke Bangs"},
			Metrics:  []string{"goals"},
		}
		_, err := pl.BuildPlan(an)
		assert.ErrorIs(t, err, ErrUnplannable)
	})
}

func TestBuildPlan_Streak(t *testing.T) {
	pl := newTestPlanner()

	an := &analyzer.Analysis{
		Intent:   analyzer.IntentStreak,
		Entities: []string{"Luke Bangs"},
		Metrics:  []string{"goals"},
	}
	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)
	assert.Equal(t, ResultStreak, plan.ResultKind)
	assert.Contains(t, plan.Statements[0].Text, "coalesce(a.goals, 0) > 0 AS involved")
	assert.Contains(t, plan.Statements[0].Text, "ORDER BY date")
}

func TestBuildPlan_Temporal(t *testing.T) {
	pl := newTestPlanner()

	an := &analyzer.Analysis{
		Intent:     analyzer.IntentTemporal,
		Normalized: "when did luke bangs last score?",
		Entities:   []string{"Luke Bangs"},
		Metrics:    []string{"goals"},
	}
	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)
	assert.Equal(t, ResultTemporal, plan.ResultKind)
	assert.Contains(t, plan.Statements[0].Text, "ORDER BY date DESC LIMIT 1")
	assert.Contains(t, plan.Statements[0].Text, "coalesce(a.goals, 0) > 0")
}

func TestBuildPlan_Milestone(t *testing.T) {
	pl := newTestPlanner()

	// With no metric named, milestones default to appearances.
	an := &analyzer.Analysis{Intent: analyzer.IntentMilestone, Entities: []string{"Luke Bangs"}}
	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)
	assert.Equal(t, ResultMilestone, plan.ResultKind)
	assert.Equal(t, "appearances", plan.Metric)
}

func TestBuildPlan_LeagueTable(t *testing.T) {
	pl := newTestPlanner()

	an := &analyzer.Analysis{Intent: analyzer.IntentLeagueTable, Season: "2019/20"}
	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)

	assert.Equal(t, ResultLeagueTable, plan.ResultKind)
	assert.Empty(t, plan.Statements, "league tables come from the archive, not the graph")
	assert.Equal(t, "2019/20", plan.Parameters["season"])
}

func TestBuildPlan_Fixture_DropsAppearancePredicates(t *testing.T) {
	pl := newTestPlanner()

	an := &analyzer.Analysis{
		Intent:             analyzer.IntentFixture,
		TeamEntities:       []string{"2nd XI"},
		OppositionEntities: []string{"Rockford"},
	}
	plan, err := pl.BuildPlan(an)
	require.NoError(t, err)

	assert.Contains(t, plan.Statements[0].Text, "MATCH (g:Game)")
	assert.NotContains(t, plan.Statements[0].Text, "a.team")
	assert.Equal(t, "Rockford", plan.Parameters["opposition"])
	_, hasTeam := plan.Parameters["team"]
	assert.False(t, hasTeam)
}

func TestBuildPlan_UnsupportedMetric(t *testing.T) {
	pl := newTestPlanner()

	an := &analyzer.Analysis{Intent: analyzer.IntentPlayer, Entities: []string{"Luke Bangs"}}
	_, err := pl.BuildPlan(an)
	assert.ErrorIs(t, err, ErrUnsupportedMetric)
}
