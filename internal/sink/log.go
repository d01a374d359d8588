package sink

import (
	"context"

	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// LogSink is the degraded mode when neither PG_DSN nor KAFKA_BOOTSTRAP is
// configured: events are logged for inspection and nothing else.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Write(_ context.Context, ev events.Envelope) error {
	telemetry.Infof("event %s key=%s source=%s", ev.Type, ev.Key, ev.Source)
	return nil
}
