package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/ingest"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS raw_events (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL,
		at TIMESTAMPTZ NOT NULL,
		key TEXT NOT NULL,
		source TEXT NOT NULL,
		version TEXT NOT NULL,
		payload JSONB NOT NULL,
		payload_hash BYTEA NOT NULL,
		received_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (type, key, payload_hash)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		match_id BIGINT PRIMARY KEY,
		game TEXT NOT NULL DEFAULT 'lol',
		slug TEXT,
		name TEXT,
		status TEXT,
		live BOOLEAN NOT NULL DEFAULT false,
		best_of INT,
		league_id BIGINT,
		league_slug TEXT,
		league TEXT,
		tournament_id BIGINT,
		tournament_slug TEXT,
		tournament TEXT,
		serie_id BIGINT,
		opponent1_id BIGINT,
		opponent1_slug TEXT,
		opponent1 TEXT,
		opponent2_id BIGINT,
		opponent2_slug TEXT,
		opponent2 TEXT,
		scheduled_at TIMESTAMPTZ,
		begin_at TIMESTAMPTZ,
		end_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		match_id BIGINT PRIMARY KEY,
		winner_id BIGINT,
		forfeit BOOLEAN,
		draw BOOLEAN,
		end_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// PGSink lands every envelope in raw_events (content-hash dedup) and routes
// schedule/result payloads into their typed tables, all in one transaction
// per event.
type PGSink struct {
	db *sql.DB
}

func NewPGSink(dsn string) (*PGSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)

	s := &PGSink{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	telemetry.Infof("pg sink: schema ready")
	return s, nil
}

// NewPGSinkFromDB wraps an existing handle; schema creation is the caller's
// problem. Used by tests and by the highlights agent sharing a pool.
func NewPGSinkFromDB(db *sql.DB) *PGSink {
	return &PGSink{db: db}
}

func (s *PGSink) ensureSchema() error {
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *PGSink) Name() string { return "postgres" }

func (s *PGSink) Close() error { return s.db.Close() }

func (s *PGSink) Write(ctx context.Context, ev events.Envelope) error {
	payloadJSON, err := events.CanonicalJSON(ev.Payload)
	if err != nil {
		return err
	}
	hash, err := events.PayloadHash(ev.Payload)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO raw_events(type, at, key, source, version, payload, payload_hash)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (type, key, payload_hash) DO NOTHING`,
		ev.Type, ev.At, ev.Key, ev.Source, ev.Version, string(payloadJSON), hash,
	); err != nil {
		return fmt.Errorf("raw landing: %w", err)
	}

	switch {
	case strings.HasSuffix(ev.Type, "schedule.upsert"), strings.HasSuffix(ev.Type, "match.status"):
		if m := matchPayload(ev.Payload); m != nil {
			if err := upsertMatch(ctx, tx, m); err != nil {
				return err
			}
		}
	case strings.HasSuffix(ev.Type, "result.upsert"):
		if m := matchPayload(ev.Payload); m != nil {
			if err := upsertResult(ctx, tx, m); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// matchPayload accepts either the typed payload published by the streams or
// an untyped map (replays through the raw log arrive as maps).
func matchPayload(payload any) *ingest.Match {
	switch p := payload.(type) {
	case *ingest.Match:
		return p
	case map[string]any:
		return ingest.NormalizeMatch(p)
	}
	return nil
}

func upsertMatch(ctx context.Context, tx *sql.Tx, m *ingest.Match) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO matches(
			match_id, game, slug, name, status, live, best_of,
			league_id, league_slug, league,
			tournament_id, tournament_slug, tournament,
			serie_id,
			opponent1_id, opponent1_slug, opponent1,
			opponent2_id, opponent2_slug, opponent2,
			scheduled_at, begin_at, end_at, updated_at
		) VALUES (
			$1,'lol',$2,$3,$4,$5,$6,
			$7,$8,$9,
			$10,$11,$12,
			$13,
			$14,$15,$16,
			$17,$18,$19,
			$20,$21,$22, now()
		)
		ON CONFLICT (match_id) DO UPDATE SET
			slug=EXCLUDED.slug, name=EXCLUDED.name, status=EXCLUDED.status,
			live=EXCLUDED.live, best_of=EXCLUDED.best_of,
			league_id=EXCLUDED.league_id, league_slug=EXCLUDED.league_slug, league=EXCLUDED.league,
			tournament_id=EXCLUDED.tournament_id, tournament_slug=EXCLUDED.tournament_slug, tournament=EXCLUDED.tournament,
			serie_id=EXCLUDED.serie_id,
			opponent1_id=EXCLUDED.opponent1_id, opponent1_slug=EXCLUDED.opponent1_slug, opponent1=EXCLUDED.opponent1,
			opponent2_id=EXCLUDED.opponent2_id, opponent2_slug=EXCLUDED.opponent2_slug, opponent2=EXCLUDED.opponent2,
			scheduled_at=EXCLUDED.scheduled_at, begin_at=EXCLUDED.begin_at, end_at=EXCLUDED.end_at,
			updated_at=now()`,
		m.ID, m.Slug, m.Name, m.Status, m.Live, m.BestOf,
		m.LeagueID, m.LeagueSlug, m.League,
		m.TournamentID, m.TournamentSlug, m.Tournament,
		m.SerieID,
		m.Opponent1ID, m.Opponent1Slug, m.Opponent1,
		m.Opponent2ID, m.Opponent2Slug, m.Opponent2,
		m.ScheduledAt, m.BeginAt, m.EndAt,
	)
	if err != nil {
		return fmt.Errorf("upsert match %d: %w", m.ID, err)
	}
	return nil
}

func upsertResult(ctx context.Context, tx *sql.Tx, m *ingest.Match) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (match_id, game, status, end_at, updated_at)
		 VALUES ($1,'lol',$2,$3, now())
		 ON CONFLICT (match_id) DO UPDATE SET
			status=EXCLUDED.status, end_at=EXCLUDED.end_at, updated_at=now()`,
		m.ID, m.Status, m.EndAt,
	); err != nil {
		return fmt.Errorf("upsert match status %d: %w", m.ID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO results(match_id, winner_id, forfeit, draw, end_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5, now())
		 ON CONFLICT (match_id) DO UPDATE SET
			winner_id=EXCLUDED.winner_id, forfeit=EXCLUDED.forfeit,
			draw=EXCLUDED.draw, end_at=EXCLUDED.end_at, updated_at=now()`,
		m.ID, m.WinnerID, m.Forfeit, m.Draw, m.EndAt,
	); err != nil {
		return fmt.Errorf("upsert result %d: %w", m.ID, err)
	}
	return nil
}
