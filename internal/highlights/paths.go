package highlights

import "strings"

// fieldPaths lists candidate JSON paths per logical field, tried in order.
// The upstream window schema has drifted more than once; the first non-null
// hit wins and anything missing coerces to zero.
var fieldPaths = map[string][]string{
	"game_state": {"gameState", "gameMetadata.gameState"},
	"timestamp":  {"rfc460Timestamp", "gameMetadata.ESportsGameId"},

	"blue_name": {"blueTeam.name", "gameMetadata.blueTeamName"},
	"red_name":  {"redTeam.name", "gameMetadata.redTeamName"},

	"blue_kills": {"blueTeam.totalKills", "blueTeam.kills", "blueTeam.score.kills"},
	"red_kills":  {"redTeam.totalKills", "redTeam.kills", "redTeam.score.kills"},

	"blue_gold": {"blueTeam.totalGold", "blueTeam.gold.total", "blueTeam.score.gold"},
	"red_gold":  {"redTeam.totalGold", "redTeam.gold.total", "redTeam.score.gold"},

	"blue_barons": {"blueTeam.barons", "blueTeam.objectives.baron", "blueTeam.score.barons"},
	"red_barons":  {"redTeam.barons", "redTeam.objectives.baron", "redTeam.score.barons"},

	"blue_dragons": {"blueTeam.dragons", "blueTeam.objectives.dragon.total", "blueTeam.score.dragons"},
	"red_dragons":  {"redTeam.dragons", "redTeam.objectives.dragon.total", "redTeam.score.dragons"},

	"blue_towers": {"blueTeam.towers", "blueTeam.objectives.tower", "blueTeam.score.towers"},
	"red_towers":  {"redTeam.towers", "redTeam.objectives.tower", "redTeam.score.towers"},

	"blue_inhibs": {"blueTeam.inhibitors", "blueTeam.objectives.inhibitor", "blueTeam.score.inhibitors"},
	"red_inhibs":  {"redTeam.inhibitors", "redTeam.objectives.inhibitor", "redTeam.score.inhibitors"},
}

// walkPath follows a dotted path through nested maps, nil if any hop is
// missing or not an object.
func walkPath(m map[string]any, path string) any {
	var cur any = m
	for _, p := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := mm[p]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// pick returns the first non-null value among the candidate paths.
func pick(m map[string]any, candidates []string) any {
	for _, path := range candidates {
		if v := walkPath(m, path); v != nil {
			return v
		}
	}
	return nil
}

// pickInt reads a counter field: first candidate wins, anything that is not
// a number (or numeric string) becomes 0.
func pickInt(m map[string]any, field string) int {
	switch v := pick(m, fieldPaths[field]).(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		n := 0
		for _, r := range v {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int(r-'0')
		}
		return n
	}
	return 0
}

// pickString reads a name field with a fallback.
func pickString(m map[string]any, field, fallback string) string {
	if s, ok := pick(m, fieldPaths[field]).(string); ok && s != "" {
		return s
	}
	return fallback
}
