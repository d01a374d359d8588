package events

import (
	"sync"

	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

const DefaultBusSize = 4096

// Bus is a bounded multi-producer/single-consumer queue. Publish never
// blocks a producer: when the queue is full the oldest event is dropped and
// counted. The live tailers are latency-critical and must not stall on a
// slow sink.
type Bus struct {
	mu        sync.Mutex
	ch        chan Envelope
	closed    bool
	closeOnce sync.Once
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = DefaultBusSize
	}
	return &Bus{ch: make(chan Envelope, size)}
}

// Publish enqueues ev, evicting the oldest queued event if full. After Close
// a publish is dropped; producer goroutines may still be mid-tick while the
// process shuts down.
func (b *Bus) Publish(ev Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		telemetry.Metrics.BusDropped.Inc()
		return
	}

	select {
	case b.ch <- ev:
	default:
		select {
		case <-b.ch:
			telemetry.Metrics.BusDropped.Inc()
		default:
		}
		select {
		case b.ch <- ev:
		default:
			// ev itself is lost, so it counts as dropped, not out
			telemetry.Metrics.BusDropped.Inc()
			telemetry.Metrics.BusDepth.Set(float64(len(b.ch)))
			return
		}
	}
	telemetry.Metrics.BusDepth.Set(float64(len(b.ch)))
	telemetry.Metrics.EventsOut.WithLabelValues(ev.Type).Inc()
}

// Subscribe returns the consume side of the queue. Single consumer: the
// dispatcher owns fan-out to sinks.
func (b *Bus) Subscribe() <-chan Envelope {
	return b.ch
}

func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true
		close(b.ch)
	})
}
