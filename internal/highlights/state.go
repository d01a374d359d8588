package highlights

import "time"

const (
	SideBlue = "blue"
	SideRed  = "red"
)

var sides = [2]string{SideBlue, SideRed}

// SideCounts is one team's aggregate counter snapshot from a window frame.
type SideCounts struct {
	Kills   int
	Gold    int
	Barons  int
	Dragons int
	Towers  int
	Inhibs  int
}

type killEntry struct {
	at   time.Time
	side string
}

type goldEntry struct {
	at   time.Time
	diff int // blue gold minus red gold
}

// GameState is the detector's memory for one game. It lives from the first
// window frame until the process ends; access is serialized by handling one
// frame at a time per game.
type GameState struct {
	ID     string
	LastTS string
	Teams  map[string]string
	Counts map[string]SideCounts

	cooldownUntil     map[string]time.Time
	firstBloodEmitted bool
	killBuffer        []killEntry
	goldWindow        []goldEntry
}

func NewGameState(gameID string) *GameState {
	return &GameState{
		ID:    gameID,
		Teams: map[string]string{SideBlue: "Blue", SideRed: "Red"},
		Counts: map[string]SideCounts{
			SideBlue: {},
			SideRed:  {},
		},
		cooldownUntil: make(map[string]time.Time),
	}
}

func (g *GameState) onCooldown(key string, now time.Time) bool {
	return g.cooldownUntil[key].After(now)
}

func (g *GameState) armCooldown(key string, seconds int, now time.Time) {
	g.cooldownUntil[key] = now.Add(time.Duration(seconds) * time.Second)
}

// pruneKills drops kill entries older than the window and returns per-side
// counts of what remains.
func (g *GameState) pruneKills(now time.Time, window time.Duration) map[string]int {
	cutoff := now.Add(-window)
	kept := g.killBuffer[:0]
	counts := map[string]int{SideBlue: 0, SideRed: 0}
	for _, e := range g.killBuffer {
		if e.at.After(cutoff) {
			kept = append(kept, e)
			counts[e.side]++
		}
	}
	g.killBuffer = kept
	return counts
}

// pruneGold drops gold-diff entries older than the window.
func (g *GameState) pruneGold(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	kept := g.goldWindow[:0]
	for _, e := range g.goldWindow {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	g.goldWindow = kept
}
