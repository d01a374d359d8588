package ingest

import (
	"time"
)

// Match is the normalized schedule/result payload. Nullable provider fields
// stay pointers so "unknown" survives the round trip to JSON and SQL.
type Match struct {
	ID     int64   `json:"id"`
	Slug   *string `json:"slug"`
	Name   *string `json:"name"`
	Status string  `json:"status"`
	Live   bool    `json:"live"`
	BestOf *int64  `json:"best_of"`

	LeagueID   *int64  `json:"league_id"`
	LeagueSlug *string `json:"league_slug"`
	League     *string `json:"league"`

	TournamentID   *int64  `json:"tournament_id"`
	TournamentSlug *string `json:"tournament_slug"`
	Tournament     *string `json:"tournament"`

	SerieID *int64 `json:"serie_id"`

	Opponent1ID   *int64  `json:"opponent1_id"`
	Opponent1Slug *string `json:"opponent1_slug"`
	Opponent1     *string `json:"opponent1"`
	Opponent2ID   *int64  `json:"opponent2_id"`
	Opponent2Slug *string `json:"opponent2_slug"`
	Opponent2     *string `json:"opponent2"`

	ScheduledAt *time.Time `json:"scheduled_at"`
	BeginAt     *time.Time `json:"begin_at"`
	EndAt       *time.Time `json:"end_at"`

	// Result fields, present only on finished matches.
	WinnerID *int64 `json:"winner_id,omitempty"`
	Forfeit  *bool  `json:"forfeit,omitempty"`
	Draw     *bool  `json:"draw,omitempty"`
}

// NormalizeMatch flattens a PandaScore match object. It reads both the
// provider shape (nested league/tournament/opponents) and its own output
// shape (flat keys), so normalizing twice is a no-op.
func NormalizeMatch(raw map[string]any) *Match {
	id, ok := asInt64(raw["id"])
	if !ok {
		return nil
	}

	status := strOr(raw["status"], "")
	m := &Match{
		ID:     id,
		Slug:   asStringPtr(raw["slug"]),
		Name:   asStringPtr(raw["name"]),
		Status: status,
		Live:   status == "running",
		BestOf: firstInt64(raw["number_of_games"], raw["best_of"]),

		SerieID: firstInt64(raw["serie_id"]),

		ScheduledAt: asTimePtr(raw["scheduled_at"]),
		BeginAt:     asTimePtr(raw["begin_at"]),
		EndAt:       asTimePtr(raw["end_at"]),

		WinnerID: firstInt64(raw["winner_id"]),
		Forfeit:  asBoolPtr(raw["forfeit"]),
		Draw:     asBoolPtr(raw["draw"]),
	}

	if league, ok := raw["league"].(map[string]any); ok {
		m.LeagueID = firstInt64(league["id"])
		m.LeagueSlug = asStringPtr(league["slug"])
		m.League = asStringPtr(league["name"])
	} else {
		m.LeagueID = firstInt64(raw["league_id"])
		m.LeagueSlug = asStringPtr(raw["league_slug"])
		m.League = asStringPtr(raw["league"])
	}

	if tour, ok := raw["tournament"].(map[string]any); ok {
		m.TournamentID = firstInt64(raw["tournament_id"], tour["id"])
		m.TournamentSlug = asStringPtr(tour["slug"])
		m.Tournament = asStringPtr(tour["name"])
	} else {
		m.TournamentID = firstInt64(raw["tournament_id"])
		m.TournamentSlug = asStringPtr(raw["tournament_slug"])
		m.Tournament = asStringPtr(raw["tournament"])
	}

	if opps, ok := raw["opponents"].([]any); ok && len(opps) > 0 {
		if oid, oslug, oname := opponentAt(opps, 0); oname != nil || oid != nil {
			m.Opponent1ID, m.Opponent1Slug, m.Opponent1 = oid, oslug, oname
		}
		if oid, oslug, oname := opponentAt(opps, 1); oname != nil || oid != nil {
			m.Opponent2ID, m.Opponent2Slug, m.Opponent2 = oid, oslug, oname
		}
	} else {
		m.Opponent1ID = firstInt64(raw["opponent1_id"])
		m.Opponent1Slug = asStringPtr(raw["opponent1_slug"])
		m.Opponent1 = asStringPtr(raw["opponent1"])
		m.Opponent2ID = firstInt64(raw["opponent2_id"])
		m.Opponent2Slug = asStringPtr(raw["opponent2_slug"])
		m.Opponent2 = asStringPtr(raw["opponent2"])
	}

	return m
}

func opponentAt(opps []any, i int) (id *int64, slug, name *string) {
	if i >= len(opps) {
		return nil, nil, nil
	}
	wrapper, ok := opps[i].(map[string]any)
	if !ok {
		return nil, nil, nil
	}
	opp, ok := wrapper["opponent"].(map[string]any)
	if !ok {
		return nil, nil, nil
	}
	return firstInt64(opp["id"]), asStringPtr(opp["slug"]), asStringPtr(opp["name"])
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func firstInt64(vs ...any) *int64 {
	for _, v := range vs {
		if n, ok := asInt64(v); ok {
			return &n
		}
	}
	return nil
}

func asStringPtr(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func strOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func asBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}

func asTimePtr(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}
