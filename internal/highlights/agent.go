package highlights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/seneca-gg/riftfeed/internal/config"
	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/sink"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// Agent tails the live window topic, feeds frames through the detector and
// publishes anything that fires back to the broker. Detected highlights also
// land in Postgres when a sink is attached.
type Agent struct {
	cfg       config.Agent
	bootstrap string
	group     string

	detector *Detector
	games    map[string]*GameState
	pg       *sink.PGSink

	client *kgo.Client
}

func NewAgent(cfg config.Agent, bootstrap string) *Agent {
	return &Agent{
		cfg:       cfg,
		bootstrap: bootstrap,
		group:     "riftfeed-highlights",
		detector:  NewDetector(cfg),
		games:     make(map[string]*GameState),
	}
}

// AttachPG lands emitted highlights in the raw_events table as well.
func (a *Agent) AttachPG(pg *sink.PGSink) { a.pg = pg }

// clientOpts configures one client for both directions: the group consumer
// on the live topic and the highlights producer, with the same producer
// guarantees as the pipeline's kafka sink.
func (a *Agent) clientOpts() []kgo.Opt {
	return []kgo.Opt{
		kgo.SeedBrokers(strings.Split(a.bootstrap, ",")...),
		kgo.ConsumerGroup(a.group),
		kgo.ConsumeTopics(a.cfg.LiveTopic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.FetchMaxWait(500 * time.Millisecond),
		kgo.SessionTimeout(30 * time.Second),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.Lz4Compression()),
		kgo.ProducerLinger(10 * time.Millisecond),
	}
}

func (a *Agent) Run(ctx context.Context) error {
	client, err := kgo.NewClient(a.clientOpts()...)
	if err != nil {
		return fmt.Errorf("highlights consumer: %w", err)
	}
	a.client = client
	defer client.Close()

	telemetry.Infof("highlights agent: consuming %s as group %s", a.cfg.LiveTopic, a.group)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		for _, fe := range fetches.Errors() {
			if fe.Err == context.Canceled {
				return nil
			}
			telemetry.Errorf("highlights fetch %s/%d: %v", fe.Topic, fe.Partition, fe.Err)
		}

		// one detector pass per game per poll, on the freshest frame only
		latest := map[string]*kgo.Record{}
		fetches.EachRecord(func(rec *kgo.Record) {
			if id := gameIDFor(rec); id != "" {
				latest[id] = rec
			}
		})
		for gameID, rec := range latest {
			for _, h := range a.handleWindow(gameID, rec.Value) {
				a.emit(ctx, h)
			}
		}
	}
}

// handleWindow decodes one live-window record and runs the detector on the
// newest frame it carries. Windows with no frames yet are skipped.
func (a *Agent) handleWindow(gameID string, value []byte) []Highlight {
	payload, ok := decodeFrame(value)
	if !ok {
		telemetry.Warnf("highlights: undecodable window for game %s", gameID)
		return nil
	}
	frame, ok := latestFrame(payload)
	if !ok {
		return nil
	}

	g, ok := a.games[gameID]
	if !ok {
		g = NewGameState(gameID)
		a.games[gameID] = g
		telemetry.Infof("highlights: tracking game %s", gameID)
	}

	return a.detector.Process(g, frame)
}

// latestFrame pulls the last entry of the window's frames array; counters are
// cumulative so earlier frames in the same window add nothing.
func latestFrame(payload map[string]any) (map[string]any, bool) {
	frames, _ := payload["frames"].([]any)
	if len(frames) == 0 {
		return nil, false
	}
	frame, ok := frames[len(frames)-1].(map[string]any)
	return frame, ok
}

func (a *Agent) emit(ctx context.Context, h Highlight) {
	telemetry.Infof("highlight %s game=%s %s vs %s", h.Kind, h.GameID,
		h.Teams[SideBlue], h.Teams[SideRed])
	telemetry.Metrics.Highlights.WithLabelValues(h.Kind).Inc()

	ev := events.New(a.cfg.Game+".highlight", fmt.Sprintf("highlight:%s:%s", h.GameID, h.Kind), h, "highlights")

	value, err := events.CanonicalJSON(ev)
	if err != nil {
		telemetry.Errorf("highlight encode: %v", err)
		return
	}
	rec := &kgo.Record{
		Topic: a.cfg.HighlightsTopic,
		Key:   []byte(h.GameID),
		Value: value,
	}
	if err := a.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		telemetry.Errorf("highlight produce: %v", err)
	}

	if a.pg != nil {
		if err := a.pg.Write(ctx, ev); err != nil {
			telemetry.Errorf("highlight pg landing: %v", err)
		}
	}
}

// gameIDFor prefers the record key, which the producer sets to the game id.
// Envelope keys of the form "lolesports:game:<id>" are the fallback.
func gameIDFor(rec *kgo.Record) string {
	if len(rec.Key) > 0 {
		return string(rec.Key)
	}
	var env struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(rec.Value, &env); err == nil && env.Key != "" {
		if i := strings.LastIndex(env.Key, ":"); i >= 0 {
			return env.Key[i+1:]
		}
		return env.Key
	}
	return ""
}

// decodeFrame accepts either a published envelope wrapping the window
// payload or a bare window object.
func decodeFrame(value []byte) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal(value, &m); err != nil {
		return nil, false
	}
	if p, ok := m["payload"].(map[string]any); ok {
		if _, isEnv := m["type"]; isEnv {
			return p, true
		}
	}
	return m, true
}
