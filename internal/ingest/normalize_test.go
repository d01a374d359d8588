package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUpcoming() map[string]any {
	return map[string]any{
		"id":              float64(42),
		"slug":            "t1-vs-gen",
		"status":          "not_started",
		"number_of_games": float64(5),
		"begin_at":        "2025-01-01T10:00:00Z",
		"league":          map[string]any{"id": float64(293), "slug": "lck", "name": "LCK"},
		"tournament":      map[string]any{"id": float64(9001), "slug": "spring", "name": "Spring"},
		"opponents": []any{
			map[string]any{"opponent": map[string]any{"id": float64(1), "slug": "t1", "name": "T1"}},
			map[string]any{"opponent": map[string]any{"id": float64(2), "slug": "gen", "name": "GEN"}},
		},
	}
}

func TestNormalizeMatchUpcoming(t *testing.T) {
	m := NormalizeMatch(sampleUpcoming())
	require.NotNil(t, m)

	assert.Equal(t, int64(42), m.ID)
	assert.Equal(t, "not_started", m.Status)
	assert.False(t, m.Live)
	require.NotNil(t, m.BestOf)
	assert.Equal(t, int64(5), *m.BestOf)
	require.NotNil(t, m.Opponent1)
	assert.Equal(t, "T1", *m.Opponent1)
	require.NotNil(t, m.Opponent2)
	assert.Equal(t, "GEN", *m.Opponent2)
	require.NotNil(t, m.League)
	assert.Equal(t, "LCK", *m.League)
	require.NotNil(t, m.LeagueSlug)
	assert.Equal(t, "lck", *m.LeagueSlug)
	require.NotNil(t, m.Tournament)
	assert.Equal(t, "Spring", *m.Tournament)
	require.NotNil(t, m.BeginAt)
	assert.Equal(t, "2025-01-01T10:00:00Z", m.BeginAt.Format("2006-01-02T15:04:05Z07:00"))
}

func TestNormalizeLiveMirrorsRunningStatus(t *testing.T) {
	raw := sampleUpcoming()
	raw["status"] = "running"
	m := NormalizeMatch(raw)
	require.NotNil(t, m)
	assert.True(t, m.Live)

	raw["status"] = "finished"
	m = NormalizeMatch(raw)
	require.NotNil(t, m)
	assert.False(t, m.Live)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first := NormalizeMatch(sampleUpcoming())
	require.NotNil(t, first)

	// feed the normalized shape back through
	b, err := json.Marshal(first)
	require.NoError(t, err)
	var flat map[string]any
	require.NoError(t, json.Unmarshal(b, &flat))

	second := NormalizeMatch(flat)
	require.NotNil(t, second)
	assert.Equal(t, first, second)
}

func TestNormalizeMissingIDIsRejected(t *testing.T) {
	assert.Nil(t, NormalizeMatch(map[string]any{"slug": "no-id"}))
}

func TestNormalizePartialOpponents(t *testing.T) {
	raw := sampleUpcoming()
	raw["opponents"] = []any{
		map[string]any{"opponent": map[string]any{"id": float64(1), "name": "T1"}},
	}
	m := NormalizeMatch(raw)
	require.NotNil(t, m)
	require.NotNil(t, m.Opponent1)
	assert.Equal(t, "T1", *m.Opponent1)
	assert.Nil(t, m.Opponent2, "second opponent unknown stays null")
}

func TestNormalizeResultFields(t *testing.T) {
	raw := sampleUpcoming()
	raw["status"] = "finished"
	raw["end_at"] = "2025-01-01T13:30:00Z"
	raw["winner_id"] = float64(1)
	raw["forfeit"] = false
	raw["draw"] = false

	m := NormalizeMatch(raw)
	require.NotNil(t, m)
	require.NotNil(t, m.EndAt)
	require.NotNil(t, m.WinnerID)
	assert.Equal(t, int64(1), *m.WinnerID)
	require.NotNil(t, m.Forfeit)
	assert.False(t, *m.Forfeit)
}
