package events

import (
	"context"
	"sync"

	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// Sink consumes envelopes pulled off the bus.
type Sink interface {
	Name() string
	Write(ctx context.Context, ev Envelope) error
}

// Dispatcher drains the bus and fans each event out to every sink
// concurrently. A failing sink is logged and counted; the others still get
// the event. Durability under partial failure comes from raw-landing dedup
// plus the streams' overlap polling, not from retries here.
type Dispatcher struct {
	bus   *Bus
	sinks []Sink
}

func NewDispatcher(bus *Bus, sinks ...Sink) *Dispatcher {
	return &Dispatcher{bus: bus, sinks: sinks}
}

// Run consumes until ctx is cancelled or the bus closes.
func (d *Dispatcher) Run(ctx context.Context) {
	sub := d.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			d.fanout(ctx, ev)
		}
	}
}

func (d *Dispatcher) fanout(ctx context.Context, ev Envelope) {
	var wg sync.WaitGroup
	for _, s := range d.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			if err := s.Write(ctx, ev); err != nil {
				telemetry.Metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
				telemetry.Warnf("sink %s: %s: %v", s.Name(), ev.Type, err)
			}
		}(s)
	}
	wg.Wait()
}
