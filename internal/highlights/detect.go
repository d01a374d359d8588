package highlights

import (
	"time"

	"github.com/seneca-gg/riftfeed/internal/config"
)

// Highlight is the payload emitted for a detected moment.
type Highlight struct {
	GameID string            `json:"game_id"`
	Kind   string            `json:"kind"`
	At     time.Time         `json:"at"`
	Teams  map[string]string `json:"teams"`
	Meta   map[string]any    `json:"meta"`
}

var multikillKinds = map[int]string{
	2: "double_kill",
	3: "triple_kill",
	4: "quadra_kill",
	5: "penta_kill",
}

// Detector runs every rule against one frame and returns what fired. All
// deltas compare against the previous snapshot; the snapshot and cursor are
// overwritten at the end of the pass.
type Detector struct {
	cfg config.Agent
	now func() time.Time
}

func NewDetector(cfg config.Agent) *Detector {
	return &Detector{cfg: cfg, now: time.Now}
}

func (d *Detector) Process(g *GameState, frame map[string]any) []Highlight {
	now := d.now()

	g.Teams[SideBlue] = pickString(frame, "blue_name", "Blue")
	g.Teams[SideRed] = pickString(frame, "red_name", "Red")

	cur := map[string]SideCounts{
		SideBlue: readSide(frame, SideBlue),
		SideRed:  readSide(frame, SideRed),
	}

	var out []Highlight
	emit := func(kind string, meta map[string]any) {
		teams := map[string]string{SideBlue: g.Teams[SideBlue], SideRed: g.Teams[SideRed]}
		out = append(out, Highlight{
			GameID: g.ID,
			Kind:   kind,
			At:     now,
			Teams:  teams,
			Meta:   meta,
		})
	}

	d.firstBlood(g, cur, now, emit)
	d.multiKills(g, cur, now, emit)
	d.objectives(g, cur, now, emit)
	d.ace(g, cur, now, emit)
	d.comeback(g, cur, now, emit)

	if ts := pick(frame, fieldPaths["timestamp"]); ts != nil {
		if s, ok := ts.(string); ok {
			g.LastTS = s
		}
	}
	g.Counts = cur
	return out
}

func readSide(frame map[string]any, side string) SideCounts {
	return SideCounts{
		Kills:   pickInt(frame, side+"_kills"),
		Gold:    pickInt(frame, side+"_gold"),
		Barons:  pickInt(frame, side+"_barons"),
		Dragons: pickInt(frame, side+"_dragons"),
		Towers:  pickInt(frame, side+"_towers"),
		Inhibs:  pickInt(frame, side+"_inhibs"),
	}
}

type emitFunc func(kind string, meta map[string]any)

func (d *Detector) firstBlood(g *GameState, cur map[string]SideCounts, now time.Time, emit emitFunc) {
	if g.firstBloodEmitted {
		return
	}
	if cur[SideBlue].Kills+cur[SideRed].Kills < 1 {
		return
	}
	side := SideRed
	if cur[SideBlue].Kills > 0 {
		side = SideBlue
	}
	emit("first_blood", map[string]any{"side": side, "team": g.Teams[side]})
	g.firstBloodEmitted = true
	g.armCooldown("first_blood", d.cfg.Cooldowns.FirstBlood, now)
}

func (d *Detector) multiKills(g *GameState, cur map[string]SideCounts, now time.Time, emit emitFunc) {
	for _, side := range sides {
		dk := cur[side].Kills - g.Counts[side].Kills
		for i := 0; i < dk; i++ {
			g.killBuffer = append(g.killBuffer, killEntry{at: now, side: side})
		}
	}

	window := time.Duration(d.cfg.MultikillWindowS) * time.Second
	counts := g.pruneKills(now, window)

	for _, side := range sides {
		k := counts[side]
		if k < 2 || g.onCooldown("multikill_"+side, now) {
			continue
		}
		kind, ok := multikillKinds[min(k, 5)]
		if !ok {
			kind = "multi_kill"
		}
		emit(kind, map[string]any{"side": side, "team": g.Teams[side], "kills_in_window": k})
		g.armCooldown("multikill_"+side, d.cfg.Cooldowns.Multikill, now)
	}
}

func (d *Detector) objectives(g *GameState, cur map[string]SideCounts, now time.Time, emit emitFunc) {
	for _, side := range sides {
		if delta := cur[side].Barons - g.Counts[side].Barons; delta > 0 && !g.onCooldown("baron_"+side, now) {
			emit("baron_taken", map[string]any{"side": side, "team": g.Teams[side], "delta": delta})
			g.armCooldown("baron_"+side, d.cfg.Cooldowns.Baron, now)
		}
	}

	// fourth dragon for a side is the soul take
	for _, side := range sides {
		if cur[side].Dragons > g.Counts[side].Dragons && !g.onCooldown("dragon_"+side, now) {
			kind := "dragon_taken"
			if cur[side].Dragons >= 4 {
				kind = "dragon_soul"
			}
			emit(kind, map[string]any{"side": side, "team": g.Teams[side], "total_dragons": cur[side].Dragons})
			g.armCooldown("dragon_"+side, d.cfg.Cooldowns.Dragon, now)
		}
	}

	for _, side := range sides {
		if delta := cur[side].Towers - g.Counts[side].Towers; delta > 0 && !g.onCooldown("tower_"+side, now) {
			emit("tower_taken", map[string]any{"side": side, "team": g.Teams[side], "delta": delta})
			g.armCooldown("tower_"+side, d.cfg.Cooldowns.Tower, now)
		}
	}

	for _, side := range sides {
		if delta := cur[side].Inhibs - g.Counts[side].Inhibs; delta > 0 && !g.onCooldown("inhibitor_"+side, now) {
			emit("inhibitor_taken", map[string]any{"side": side, "team": g.Teams[side], "delta": delta})
			g.armCooldown("inhibitor_"+side, d.cfg.Cooldowns.Inhibitor, now)
		}
	}
}

// ace fires when one side gains five or more kills in a single poll interval
// while the other side gains none. Team-total counters are the only signal
// available, so fifth kills that slip into the next poll are missed.
func (d *Detector) ace(g *GameState, cur map[string]SideCounts, now time.Time, emit emitFunc) {
	for _, pair := range [][2]string{{SideBlue, SideRed}, {SideRed, SideBlue}} {
		side, opp := pair[0], pair[1]
		dkSide := cur[side].Kills - g.Counts[side].Kills
		dkOpp := cur[opp].Kills - g.Counts[opp].Kills
		if dkSide >= 5 && dkOpp == 0 && !g.onCooldown("ace_"+side, now) {
			emit("ace", map[string]any{"side": side, "team": g.Teams[side]})
			g.armCooldown("ace_"+side, d.cfg.Cooldowns.Ace, now)
		}
	}
}

func (d *Detector) comeback(g *GameState, cur map[string]SideCounts, now time.Time, emit emitFunc) {
	diff := cur[SideBlue].Gold - cur[SideRed].Gold
	g.goldWindow = append(g.goldWindow, goldEntry{at: now, diff: diff})
	g.pruneGold(now, time.Duration(d.cfg.ComebackWindowS)*time.Second)

	if len(g.goldWindow) < 2 {
		return
	}
	first := g.goldWindow[0].diff
	signFlip := (first <= 0 && diff > 0) || (first >= 0 && diff < 0)
	bigSwing := abs(diff-first) >= d.cfg.ComebackSwingGold
	if (signFlip || bigSwing) && !g.onCooldown("comeback", now) {
		emit("comeback_swing", map[string]any{"from": first, "to": diff})
		g.armCooldown("comeback", d.cfg.Cooldowns.Dragon, now)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
