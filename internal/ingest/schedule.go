package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// MatchLister is the slice of the PandaScore client the schedule stream
// needs.
type MatchLister interface {
	UpcomingMatches(ctx context.Context, page, perPage int) ([]map[string]any, error)
	RunningMatches(ctx context.Context, page, perPage int) ([]map[string]any, error)
}

// ScheduleStream polls upcoming and running matches each tick and publishes
// schedule upserts. A match id seen under upcoming is not republished from
// running within the same tick.
type ScheduleStream struct {
	client    MatchLister
	bus       *events.Bus
	period    time.Duration
	pageSize  int
	whitelist map[string]struct{} // league slugs; empty means everything
}

func NewScheduleStream(client MatchLister, bus *events.Bus, period time.Duration, pageSize int, leagueWhitelist []string) *ScheduleStream {
	wl := make(map[string]struct{}, len(leagueWhitelist))
	for _, slug := range leagueWhitelist {
		wl[slug] = struct{}{}
	}
	return &ScheduleStream{
		client:    client,
		bus:       bus,
		period:    period,
		pageSize:  pageSize,
		whitelist: wl,
	}
}

// Run polls until ctx is cancelled. A failed tick is logged and the next
// tick starts clean; no state outlives a tick.
func (s *ScheduleStream) Run(ctx context.Context) {
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

func (s *ScheduleStream) tick(ctx context.Context) {
	seen := make(map[int64]struct{})

	if err := s.drain(ctx, "upcoming", s.client.UpcomingMatches, seen); err != nil {
		telemetry.Warnf("schedule: drain upcoming: %v", err)
	}
	if err := s.drain(ctx, "running", s.client.RunningMatches, seen); err != nil {
		telemetry.Warnf("schedule: drain running: %v", err)
	}
}

func (s *ScheduleStream) drain(ctx context.Context, label string, fetch func(context.Context, int, int) ([]map[string]any, error), seen map[int64]struct{}) error {
	page := 1
	for {
		matches, err := fetch(ctx, page, s.pageSize)
		if err != nil {
			return fmt.Errorf("%s page %d: %w", label, page, err)
		}
		if len(matches) == 0 {
			break
		}

		for _, raw := range matches {
			m := NormalizeMatch(raw)
			if m == nil {
				continue
			}
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}

			if !s.allowed(m) {
				continue
			}
			s.bus.Publish(events.New(events.TypeScheduleUpsert, fmt.Sprintf("match:%d", m.ID), m, "pandascore"))
		}

		if len(matches) < s.pageSize {
			break
		}
		page++
	}
	telemetry.Debugf("schedule: drained %s (pages=%d)", label, page)
	return nil
}

func (s *ScheduleStream) allowed(m *Match) bool {
	if len(s.whitelist) == 0 {
		return true
	}
	if m.LeagueSlug == nil {
		return false
	}
	_, ok := s.whitelist[*m.LeagueSlug]
	return ok
}
