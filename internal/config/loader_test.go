package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPipelineDefaults(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", "pandascore:\n  pagesize: 25\n")

	p, err := LoadPipeline(path)
	require.NoError(t, err)

	assert.Equal(t, 25, p.PandaScore.PageSize)
	assert.Equal(t, "https://api.pandascore.co", p.PandaScore.BaseURL)
	assert.Equal(t, 950, p.PandaScore.RequestsPerHour)
	assert.Equal(t, 60, p.PandaScore.Poll.ScheduleSeconds)
	assert.Equal(t, 90, p.PandaScore.Poll.ResultsSeconds)
	assert.Equal(t, 2, p.LolEsports.Poll.WindowSeconds)
	assert.Equal(t, "en-US", p.LolEsports.HL)
}

func TestLoadPipelineWhitelist(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `
pandascore:
  leagues_whitelist: [lck, lec]
`)

	p, err := LoadPipeline(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lck", "lec"}, p.PandaScore.LeaguesWhitelist)
}

func TestLoadPipelineMissingFile(t *testing.T) {
	_, err := LoadPipeline(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadAgentDefaults(t *testing.T) {
	path := writeFile(t, "agent.yaml", `
agent:
  comeback_swing_gold: 2500
  cooldowns_s:
    baron: 90
`)

	a, err := LoadAgent(path)
	require.NoError(t, err)

	assert.Equal(t, 2500, a.ComebackSwingGold)
	assert.Equal(t, 90, a.Cooldowns.Baron)
	// untouched fields fall back
	assert.Equal(t, "lol", a.Game)
	assert.Equal(t, "esports.lol.live.window", a.LiveTopic)
	assert.Equal(t, 10, a.MultikillWindowS)
	assert.Equal(t, 3600, a.Cooldowns.FirstBlood)
	assert.Equal(t, 60, a.Cooldowns.Dragon)
}

func TestLoadAgentMalformed(t *testing.T) {
	path := writeFile(t, "agent.yaml", "agent: [not a map\n")
	_, err := LoadAgent(path)
	assert.Error(t, err)
}
