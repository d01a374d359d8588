package sink

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/ingest"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// topicMap routes envelope types to broker topics. Types without a mapping
// are dropped silently.
var topicMap = map[string]string{
	events.TypeScheduleUpsert: "esports.lol.schedule.upsert",
	events.TypeMatchStatus:    "esports.lol.match.status",
	events.TypeResultUpsert:   "esports.lol.result.upsert",
	events.TypeLiveWindow:     "esports.lol.live.window",
	events.TypeLiveDetails:    "esports.lol.live.details",
	events.TypeHighlight:      "esports.lol.highlights",
}

// KafkaSink publishes envelopes keyed by entity id so per-entity ordering
// survives partitioning. The producer is created lazily on first write,
// guarded by a mutex; acks=all, idempotent, LZ4, small linger to batch.
type KafkaSink struct {
	bootstrap string

	mu     sync.Mutex
	client *kgo.Client
}

func NewKafkaSink(bootstrap string) *KafkaSink {
	return &KafkaSink{bootstrap: bootstrap}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) start() (*kgo.Client, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.client != nil {
		return k.client, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(k.bootstrap, ",")...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.Lz4Compression()),
		kgo.ProducerLinger(15*time.Millisecond),
		kgo.ProduceRequestTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	k.client = client
	telemetry.Infof("kafka sink: connected to %s", k.bootstrap)
	return client, nil
}

func (k *KafkaSink) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.client != nil {
		k.client.Close()
		k.client = nil
	}
}

func (k *KafkaSink) Write(ctx context.Context, ev events.Envelope) error {
	topic, ok := topicMap[ev.Type]
	if !ok {
		return nil
	}

	client, err := k.start()
	if err != nil {
		return err
	}

	value, err := events.CanonicalJSON(ev)
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic: topic,
		Key:   messageKey(ev),
		Value: value,
	}
	if err := client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", topic, err)
	}
	return nil
}

// messageKey prefers the payload's own id so all events for one match/game
// land on one partition; the envelope key is the fallback.
func messageKey(ev events.Envelope) []byte {
	switch p := ev.Payload.(type) {
	case *ingest.Match:
		return []byte(strconv.FormatInt(p.ID, 10))
	case map[string]any:
		if id, ok := p["id"]; ok && id != nil {
			return []byte(fmt.Sprintf("%v", id))
		}
	}
	return []byte(ev.Key)
}
