package conversation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield-sports/clubquery/internal/analyzer"
)

func TestMergeContext(t *testing.T) {
	history := []Turn{{
		Question: "How many goals has Luke Bangs scored?",
		Entities: []string{"Luke Bangs"},
		Metrics:  []string{"goals"},
	}}

	t.Run("pronoun carries the entity forward", func(t *testing.T) {
		an := &analyzer.Analysis{
			Intent:     analyzer.IntentGeneral,
			Normalized: "how many assists does he have?",
			Metrics:    []string{"assists"},
		}
		merged := MergeContext(an, history)
		assert.Equal(t, []string{"Luke Bangs"}, merged.Entities)
		assert.Equal(t, analyzer.IntentPlayer, merged.Intent)
		assert.Equal(t, []string{"assists"}, merged.Metrics, "new metric is kept")
	})

	t.Run("bare metric question is a continuation", func(t *testing.T) {
		an := &analyzer.Analysis{
			Intent:     analyzer.IntentGeneral,
			Normalized: "and assists?",
			Metrics:    []string{"assists"},
		}
		merged := MergeContext(an, history)
		assert.Equal(t, []string{"Luke Bangs"}, merged.Entities)
	})

	t.Run("named entity is never overwritten", func(t *testing.T) {
		an := &analyzer.Analysis{
			Intent:     analyzer.IntentPlayer,
			Normalized: "what about tom hardwick?",
			Entities:   []string{"Tom Hardwick"},
		}
		merged := MergeContext(an, history)
		assert.Equal(t, []string{"Tom Hardwick"}, merged.Entities)
		assert.Equal(t, []string{"goals"}, merged.Metrics, "metric carries forward")
	})

	t.Run("fresh subject does not continue", func(t *testing.T) {
		an := &analyzer.Analysis{
			Intent:     analyzer.IntentRanking,
			Normalized: "who has the most appearances?",
			Metrics:    []string{"appearances"},
		}
		merged := MergeContext(an, history)
		assert.Empty(t, merged.Entities)
	})

	t.Run("no history is a no-op", func(t *testing.T) {
		an := &analyzer.Analysis{Normalized: "how many assists does he have?", Metrics: []string{"assists"}}
		merged := MergeContext(an, nil)
		assert.Empty(t, merged.Entities)
	})
}

func TestLooksLikeNameReply(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Hardwick", true},
		{"Tom Hardwick", true},
		{"Danny O'Neill", true},
		{"the one who plays up front", false},
		{"How many goals has Luke Bangs scored?", false},
		{"", false},
		{"42", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, LooksLikeNameReply(tc.input), "input: %q", tc.input)
	}
}

func TestSpliceClarification(t *testing.T) {
	pending := &PendingClarification{
		OriginalQuestion: "How many goals has Tom scored?",
		PartialName:      "Tom",
	}

	t.Run("surname reply extends the fragment", func(t *testing.T) {
		got := SpliceClarification(pending, "Hardwick")
		assert.Equal(t, "How many goals has Tom Hardwick scored?", got)
	})

	t.Run("full name reply replaces the fragment", func(t *testing.T) {
		got := SpliceClarification(pending, "Tom Hardwick")
		assert.Equal(t, "How many goals has Tom Hardwick scored?", got)
	})

	t.Run("lowercase reply picks the matching candidate", func(t *testing.T) {
		withCandidates := &PendingClarification{
			OriginalQuestion: "How many goals has Tom scored?",
			PartialName:      "Tom",
			Candidates:       []string{"Tom Hardwick", "Tom Smith"},
		}
		got := SpliceClarification(withCandidates, "hardwick")
		assert.Equal(t, "How many goals has Tom Hardwick scored?", got)
	})

	t.Run("reply matching several candidates falls back to extending", func(t *testing.T) {
		withCandidates := &PendingClarification{
			OriginalQuestion: "How many goals has Tom scored?",
			PartialName:      "Tom",
			Candidates:       []string{"Tom Hardwick", "Tom Smith"},
		}
		got := SpliceClarification(withCandidates, "Hardwick")
		assert.Equal(t, "How many goals has Tom Hardwick scored?", got)
		got = SpliceClarification(withCandidates, "tom")
		assert.Equal(t, "How many goals has tom scored?", got)
	})

	t.Run("no partial name passes the reply through", func(t *testing.T) {
		got := SpliceClarification(&PendingClarification{OriginalQuestion: "something"}, "Tom Hardwick")
		assert.Equal(t, "Tom Hardwick", got)
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("history is most recent first and bounded", func(t *testing.T) {
		s := NewMemoryStore(Config{HistoryLen: 3, TTL: time.Minute})
		for i := 1; i <= 5; i++ {
			err := s.AddTurn(ctx, "s1", Turn{Question: fmt.Sprintf("q%d", i)})
			require.NoError(t, err)
		}

		history, err := s.History(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "q5", history[0].Question)
		assert.Equal(t, "q3", history[2].Question)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		s := NewMemoryStore(DefaultConfig())
		require.NoError(t, s.AddTurn(ctx, "a", Turn{Question: "qa"}))

		history, err := s.History(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("pending clarification round trip", func(t *testing.T) {
		s := NewMemoryStore(DefaultConfig())

		pending, err := s.Pending(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, pending)

		require.NoError(t, s.SetPending(ctx, "s1", &PendingClarification{
			OriginalQuestion: "How many goals has Tom scored?",
			PartialName:      "Tom",
		}))

		pending, err = s.Pending(ctx, "s1")
		require.NoError(t, err)
		require.NotNil(t, pending)
		assert.Equal(t, "Tom", pending.PartialName)

		require.NoError(t, s.ClearPending(ctx, "s1"))
		pending, err = s.Pending(ctx, "s1")
		require.NoError(t, err)
		assert.Nil(t, pending)
	})
}
