package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// PastLister is the slice of the PandaScore client the results stream needs.
type PastLister interface {
	PastMatches(ctx context.Context, page, perPage int, sinceISO string) ([]map[string]any, error)
}

// ResultsStream polls recently finished matches. It keeps a single cursor:
// after any tick that returned data, the end_at lower bound advances to
// now-1h. The hour of overlap re-observes late result corrections; the
// sinks' idempotent upserts absorb the repeats.
type ResultsStream struct {
	client   PastLister
	bus      *events.Bus
	period   time.Duration
	pageSize int

	sinceISO string
	now      func() time.Time
}

func NewResultsStream(client PastLister, bus *events.Bus, period time.Duration, pageSize int) *ResultsStream {
	return &ResultsStream{
		client:   client,
		bus:      bus,
		period:   period,
		pageSize: pageSize,
		now:      time.Now,
	}
}

func (s *ResultsStream) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *ResultsStream) tick(ctx context.Context) {
	page := 1
	gotAny := false
	for {
		matches, err := s.client.PastMatches(ctx, page, s.pageSize, s.sinceISO)
		if err != nil {
			telemetry.Warnf("results: page %d: %v", page, err)
			return
		}
		if len(matches) == 0 {
			break
		}
		gotAny = true

		for _, raw := range matches {
			m := NormalizeMatch(raw)
			if m == nil {
				continue
			}
			s.bus.Publish(events.New(events.TypeResultUpsert, fmt.Sprintf("match:%d", m.ID), m, "pandascore"))
		}

		if len(matches) < s.pageSize {
			break
		}
		page++
	}

	if gotAny {
		s.sinceISO = s.now().UTC().Add(-time.Hour).Format(time.RFC3339)
	}
}

// Cursor exposes the current end_at lower bound, empty until the first
// data-bearing tick.
func (s *ResultsStream) Cursor() string {
	return s.sinceISO
}
