package events

import "time"

// Envelope is the canonical event that flows through the bus and both sinks.
// Payload is *ingest.Match for schedule/result events and the raw provider
// JSON (map[string]any) for live frames and highlights.
type Envelope struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Key     string    `json:"key"`
	Payload any       `json:"payload"`
	Source  string    `json:"source"`
	Version string    `json:"version"`
}

const (
	TypeScheduleUpsert = "lol.schedule.upsert"
	TypeMatchStatus    = "lol.match.status"
	TypeResultUpsert   = "lol.result.upsert"
	TypeLiveWindow     = "lol.live.window"
	TypeLiveDetails    = "lol.live.details"
	TypeHighlight      = "lol.highlight"
)

// New builds an envelope stamped with the current UTC instant.
func New(evType, key string, payload any, source string) Envelope {
	return Envelope{
		Type:    evType,
		At:      time.Now().UTC(),
		Key:     key,
		Payload: payload,
		Source:  source,
		Version: "1.0",
	}
}
