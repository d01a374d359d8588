package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seneca-gg/riftfeed/internal/events"
)

type fakeLister struct {
	upcoming [][]map[string]any // pages
	running  [][]map[string]any
}

func pageAt(pages [][]map[string]any, page int) []map[string]any {
	if page-1 < len(pages) {
		return pages[page-1]
	}
	return nil
}

func (f *fakeLister) UpcomingMatches(_ context.Context, page, _ int) ([]map[string]any, error) {
	return pageAt(f.upcoming, page), nil
}

func (f *fakeLister) RunningMatches(_ context.Context, page, _ int) ([]map[string]any, error) {
	return pageAt(f.running, page), nil
}

func drainBus(bus *events.Bus) []events.Envelope {
	bus.Close()
	var out []events.Envelope
	for ev := range bus.Subscribe() {
		out = append(out, ev)
	}
	return out
}

func TestScheduleTickPublishesUpsert(t *testing.T) {
	bus := events.NewBus(64)
	client := &fakeLister{upcoming: [][]map[string]any{{sampleUpcoming()}}}
	s := NewScheduleStream(client, bus, time.Minute, 50, nil)

	s.tick(context.Background())

	evs := drainBus(bus)
	require.Len(t, evs, 1)
	assert.Equal(t, events.TypeScheduleUpsert, evs[0].Type)
	assert.Equal(t, "match:42", evs[0].Key)
	m, ok := evs[0].Payload.(*Match)
	require.True(t, ok)
	assert.False(t, m.Live)
	assert.Equal(t, int64(5), *m.BestOf)
	assert.Equal(t, "T1", *m.Opponent1)
	assert.Equal(t, "GEN", *m.Opponent2)
	assert.Equal(t, "pandascore", evs[0].Source)
}

func TestScheduleTickDeDupsAcrossStatuses(t *testing.T) {
	upcoming := map[string]any{"id": float64(1), "status": "not_started"}
	running := map[string]any{"id": float64(1), "status": "running"}
	bus := events.NewBus(64)
	client := &fakeLister{
		upcoming: [][]map[string]any{{upcoming}},
		running:  [][]map[string]any{{running}},
	}
	s := NewScheduleStream(client, bus, time.Minute, 50, nil)

	s.tick(context.Background())

	evs := drainBus(bus)
	require.Len(t, evs, 1, "a match straddling upcoming+running publishes once")
	m := evs[0].Payload.(*Match)
	assert.Equal(t, "not_started", m.Status, "first observation wins")
}

func TestSchedulePagination(t *testing.T) {
	// page size 2: full page then a short page means three fetches max
	p1 := []map[string]any{
		{"id": float64(1), "status": "not_started"},
		{"id": float64(2), "status": "not_started"},
	}
	p2 := []map[string]any{
		{"id": float64(3), "status": "not_started"},
	}
	bus := events.NewBus(64)
	client := &fakeLister{upcoming: [][]map[string]any{p1, p2}}
	s := NewScheduleStream(client, bus, time.Minute, 2, nil)

	s.tick(context.Background())

	evs := drainBus(bus)
	assert.Len(t, evs, 3)
}

func TestScheduleLeagueWhitelist(t *testing.T) {
	lck := sampleUpcoming()
	other := map[string]any{
		"id":     float64(7),
		"status": "not_started",
		"league": map[string]any{"id": float64(1), "slug": "ljl", "name": "LJL"},
	}
	bus := events.NewBus(64)
	client := &fakeLister{upcoming: [][]map[string]any{{lck, other}}}
	s := NewScheduleStream(client, bus, time.Minute, 50, []string{"lck"})

	s.tick(context.Background())

	evs := drainBus(bus)
	require.Len(t, evs, 1)
	assert.Equal(t, "match:42", evs[0].Key)
}
