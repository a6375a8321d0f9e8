package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRAGStatusNormalizesSpellings(t *testing.T) {
	for _, raw := range []string{"Not Started", "Not_Started", "not started", "NOT-STARTED"} {
		got, err := ParseRAGStatus(raw)
		require.NoError(t, err, raw)
		require.Equal(t, RAGNotStarted, got, raw)
	}
	got, err := ParseRAGStatus(" amber ")
	require.NoError(t, err)
	require.Equal(t, RAGAmber, got)

	_, err = ParseRAGStatus("Purple")
	require.Error(t, err)
}

func TestRAGSeverityOrder(t *testing.T) {
	order := []RAGStatus{RAGComplete, RAGGreen, RAGNotStarted, RAGAmber, RAGRed}
	for i := 1; i < len(order); i++ {
		require.Greater(t, order[i].Severity(), order[i-1].Severity())
	}
	require.False(t, RAGStatus("Blue").Valid())
}

func TestParseAlignmentTypeAcceptsHyphen(t *testing.T) {
	got, err := ParseAlignmentType("Cross-Cutting")
	require.NoError(t, err)
	require.Equal(t, AlignCrossCutting, got)

	_, err = ParseAlignmentType("tertiary")
	require.Error(t, err)
}

func TestGoalLevelRank(t *testing.T) {
	require.Less(t, LevelPillar.Rank(), LevelCategory.Rank())
	require.Less(t, LevelCategory.Rank(), LevelGoal.Rank())
	require.Less(t, LevelGoal.Rank(), LevelProgram.Rank())
	require.False(t, GoalLevel("Initiative").Valid())
}

func TestMetricsKeepsUnknownKeys(t *testing.T) {
	in := `{"enrolled":42,"sites":["Boston","Basel"],"decisions":[{"title":"Add site","decided_by":"PMO","timestamp":"2026-02-01T00:00:00Z"}]}`
	var m Metrics
	require.NoError(t, json.Unmarshal([]byte(in), &m))
	require.Len(t, m.Decisions, 1)
	require.Equal(t, "Add site", m.Decisions[0].Title)
	require.Equal(t, "PMO", m.Decisions[0].DecidedBy)
	require.Contains(t, m.Values, "enrolled")
	require.NotContains(t, m.Values, "decisions")

	out, err := json.Marshal(m)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
}

func TestMetricsRejectsNonObject(t *testing.T) {
	var m Metrics
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
	require.Error(t, json.Unmarshal([]byte(`{"decisions":"nope"}`), &m))
	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	require.True(t, m.IsZero())
}
