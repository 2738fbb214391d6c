package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolvePhrases(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		question string
		keys     []string
	}{
		{"how many goals has luke bangs scored?", []string{"goals"}},
		{"how many penalties scored does luke bangs have?", []string{"penalties_scored", "goals"}},
		{"how many missed penalties does luke bangs have?", []string{"penalties_missed", "penalties_scored"}},
		{"what is luke bangs' win rate?", []string{"win_rate"}},
		{"goals per game for luke bangs", []string{"goals_per_game", "goals"}},
		{"how many times was luke bangs sent off?", []string{"red_cards"}},
		{"nothing statistical here", nil},
	}

	for _, tc := range tests {
		t.Run(tc.question, func(t *testing.T) {
			got := r.ResolvePhrases(tc.question)
			require.Equal(t, len(tc.keys), len(got), "keys: %v", got)
			if len(tc.keys) > 0 {
				// The primary metric is the first match in precedence order.
				assert.Equal(t, tc.keys[0], got[0])
			}
		})
	}
}

func TestRegistry_SpecificPhrasesPrecedeUmbrellaTerms(t *testing.T) {
	r := NewRegistry()

	// "penalties scored" must not classify as plain goals.
	got := r.ResolvePhrases("penalties scored this season")
	require.NotEmpty(t, got)
	assert.Equal(t, "penalties_scored", got[0])
}

func TestRegistry_FormatValue(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		key   string
		value float64
		want  string
	}{
		{"goals", 27, "27"},
		{"goals", 26.9999, "27"},
		{"goals_per_game", 0.4523, "0.45"},
		{"win_rate", 0.625, "62.5%"},
		{"win_rate", 62.5, "62.5%"}, // already a percentage, no double conversion
		{"win_rate", 0, "0.0%"},
		{"win_rate", 1, "100.0%"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, r.FormatValue(tc.key, tc.value), "%s(%v)", tc.key, tc.value)
	}
}

func TestRegistry_Noun(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "goal", r.Noun("goals", 1))
	assert.Equal(t, "goals", r.Noun("goals", 0))
	assert.Equal(t, "goals", r.Noun("goals", 27))
	assert.Equal(t, "clean sheet", r.Noun("clean_sheets", 1))
}

func TestRegistry_RatioMetrics(t *testing.T) {
	r := NewRegistry()

	m, ok := r.Lookup("goals_per_game")
	require.True(t, ok)
	require.True(t, m.IsRatio())
	assert.Equal(t, "goals", m.Ratio.NumeratorKey)
	assert.Equal(t, "appearances", m.Ratio.DenominatorKey)

	m, ok = r.Lookup("win_rate")
	require.True(t, ok)
	require.True(t, m.IsRatio())
	assert.True(t, m.IsPercentage)
	assert.True(t, m.FixtureDependent)
}
