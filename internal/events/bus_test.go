package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

func TestBusPreservesPublishOrder(t *testing.T) {
	bus := NewBus(16)
	for i := 0; i < 10; i++ {
		bus.Publish(New(TypeScheduleUpsert, fmt.Sprintf("match:%d", i), nil, "pandascore"))
	}
	bus.Close()

	var keys []string
	for ev := range bus.Subscribe() {
		keys = append(keys, ev.Key)
	}
	require.Len(t, keys, 10)
	for i, k := range keys {
		assert.Equal(t, fmt.Sprintf("match:%d", i), k)
	}
}

func TestBusDropsOldestWhenFull(t *testing.T) {
	bus := NewBus(2)
	bus.Publish(New(TypeLiveWindow, "a", nil, "lolesports"))
	bus.Publish(New(TypeLiveWindow, "b", nil, "lolesports"))
	bus.Publish(New(TypeLiveWindow, "c", nil, "lolesports")) // evicts "a"
	bus.Close()

	var keys []string
	for ev := range bus.Subscribe() {
		keys = append(keys, ev.Key)
	}
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestPublishAfterCloseIsDroppedNotPanic(t *testing.T) {
	bus := NewBus(4)
	bus.Publish(New(TypeLiveWindow, "a", nil, "lolesports"))
	bus.Close()

	// a tailer mid-tick may still publish during shutdown
	assert.NotPanics(t, func() {
		bus.Publish(New(TypeLiveWindow, "b", nil, "lolesports"))
	})

	var keys []string
	for ev := range bus.Subscribe() {
		keys = append(keys, ev.Key)
	}
	assert.Equal(t, []string{"a"}, keys)
}

func TestPublishAccounting(t *testing.T) {
	dropped0 := testutil.ToFloat64(telemetry.Metrics.BusDropped)
	out0 := testutil.ToFloat64(telemetry.Metrics.EventsOut.WithLabelValues(TypeLiveWindow))

	bus := NewBus(1)
	bus.Publish(New(TypeLiveWindow, "a", nil, "lolesports"))
	bus.Publish(New(TypeLiveWindow, "b", nil, "lolesports")) // evicts "a"

	assert.Equal(t, dropped0+1, testutil.ToFloat64(telemetry.Metrics.BusDropped))
	assert.Equal(t, out0+2, testutil.ToFloat64(telemetry.Metrics.EventsOut.WithLabelValues(TypeLiveWindow)))

	// a publish after close is a drop, never an out
	bus.Close()
	bus.Publish(New(TypeLiveWindow, "c", nil, "lolesports"))
	assert.Equal(t, dropped0+2, testutil.ToFloat64(telemetry.Metrics.BusDropped))
	assert.Equal(t, out0+2, testutil.ToFloat64(telemetry.Metrics.EventsOut.WithLabelValues(TypeLiveWindow)))
}

type recordingSink struct {
	name string
	fail bool

	mu   sync.Mutex
	seen []string
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Write(_ context.Context, ev Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, ev.Key)
	if r.fail {
		return errors.New("boom")
	}
	return nil
}

func TestDispatcherFanOutIsolatesFailures(t *testing.T) {
	bus := NewBus(8)
	good := &recordingSink{name: "good"}
	bad := &recordingSink{name: "bad", fail: true}
	d := NewDispatcher(bus, good, bad)

	bus.Publish(New(TypeResultUpsert, "match:1", nil, "pandascore"))
	bus.Publish(New(TypeResultUpsert, "match:2", nil, "pandascore"))
	bus.Close()

	d.Run(context.Background())

	assert.Equal(t, []string{"match:1", "match:2"}, good.seen,
		"a failing sink must not starve the other")
	assert.Equal(t, []string{"match:1", "match:2"}, bad.seen)
}
