package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

// LiveClient is the slice of the LoL Esports client the live stream needs.
type LiveClient interface {
	GetLive(ctx context.Context) (map[string]any, error)
	Window(ctx context.Context, gameID, startingTime string) (map[string]any, error)
	Details(ctx context.Context, gameID, startingTime, participantIDs string) (map[string]any, error)
}

// LiveStream discovers in-progress games and tails each one. Discovery
// diffs the live set every discoverPeriod; each newly live game gets its own
// tailer goroutine, cancelled when the game drops out of the set.
type LiveStream struct {
	client         LiveClient
	bus            *events.Bus
	discoverPeriod time.Duration
	windowPeriod   time.Duration
	detailsPeriod  time.Duration

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

func NewLiveStream(client LiveClient, bus *events.Bus, discoverPeriod, windowPeriod, detailsPeriod time.Duration) *LiveStream {
	return &LiveStream{
		client:         client,
		bus:            bus,
		discoverPeriod: discoverPeriod,
		windowPeriod:   windowPeriod,
		detailsPeriod:  detailsPeriod,
		active:         make(map[string]context.CancelFunc),
	}
}

// Run owns the discovery loop; tailers are children of ctx and also exit
// when discovery removes them from the active set.
func (s *LiveStream) Run(ctx context.Context) {
	ticker := time.NewTicker(s.discoverPeriod)
	defer ticker.Stop()

	s.discover(ctx)
	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return
		case <-ticker.C:
			s.discover(ctx)
		}
	}
}

func (s *LiveStream) discover(ctx context.Context) {
	data, err := s.client.GetLive(ctx)
	if err != nil {
		telemetry.Warnf("live: discover: %v", err)
		return
	}
	liveNow := liveGameIDs(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	for gameID := range liveNow {
		if _, tailing := s.active[gameID]; tailing {
			continue
		}
		tailCtx, cancel := context.WithCancel(ctx)
		s.active[gameID] = cancel
		go s.tailGame(tailCtx, gameID)
		telemetry.Infof("live: start tailing game %s", gameID)
	}
	for gameID, cancel := range s.active {
		if _, still := liveNow[gameID]; !still {
			cancel()
			delete(s.active, gameID)
			telemetry.Infof("live: game ended %s", gameID)
		}
	}
	telemetry.Metrics.ActiveGames.Set(float64(len(s.active)))
}

func (s *LiveStream) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for gameID, cancel := range s.active {
		cancel()
		delete(s.active, gameID)
	}
	telemetry.Metrics.ActiveGames.Set(0)
}

// liveGameIDs walks getLive's events → match → games and keeps games whose
// state marks them in progress.
func liveGameIDs(data map[string]any) map[string]struct{} {
	out := make(map[string]struct{})
	schedule, _ := dig(data, "data", "schedule").(map[string]any)
	evs, _ := schedule["events"].([]any)
	for _, e := range evs {
		ev, ok := e.(map[string]any)
		if !ok {
			continue
		}
		match, _ := ev["match"].(map[string]any)
		games, _ := match["games"].([]any)
		for _, g := range games {
			game, ok := g.(map[string]any)
			if !ok {
				continue
			}
			state, _ := game["state"].(string)
			if state != "inProgress" && state != "inProgressMedia" {
				continue
			}
			if id, ok := game["id"].(string); ok && id != "" {
				out[id] = struct{}{}
			}
		}
	}
	return out
}

func dig(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

// tailGame polls window every windowPeriod and details every detailsPeriod,
// tracked per game rather than gated on the wall clock so scheduler jitter
// cannot skip a details poll. Poll failures are logged and the loop keeps
// going; a 404 just means no frames yet.
func (s *LiveStream) tailGame(ctx context.Context, gameID string) {
	ticker := time.NewTicker(s.windowPeriod)
	defer ticker.Stop()

	var cursor string
	var lastDetails time.Time

	for {
		win, err := s.client.Window(ctx, gameID, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			telemetry.Warnf("live: window[%s]: %v", gameID, err)
		} else {
			s.publish(events.TypeLiveWindow, gameID, win)
			if ts := lastFrameTimestamp(win); ts != "" {
				cursor = ts
			}
		}

		if time.Since(lastDetails) >= s.detailsPeriod {
			det, err := s.client.Details(ctx, gameID, cursor, "")
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				telemetry.Debugf("live: details[%s]: %v", gameID, err)
			} else {
				s.publish(events.TypeLiveDetails, gameID, det)
			}
			lastDetails = time.Now()
		}

		select {
		case <-ctx.Done():
			telemetry.Infof("live: stopped tailing game %s", gameID)
			return
		case <-ticker.C:
		}
	}
}

func (s *LiveStream) publish(evType, gameID string, payload map[string]any) {
	s.bus.Publish(events.New(evType, "lolesports:game:"+gameID, payload, "lolesports"))
}

func lastFrameTimestamp(win map[string]any) string {
	frames, _ := win["frames"].([]any)
	if len(frames) == 0 {
		return ""
	}
	last, _ := frames[len(frames)-1].(map[string]any)
	ts, _ := last["rfc460Timestamp"].(string)
	return ts
}
