package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type PollConfig struct {
	ScheduleSeconds int `yaml:"schedule_seconds"`
	ResultsSeconds  int `yaml:"results_seconds"`
}

type PandaScoreConfig struct {
	BaseURL          string     `yaml:"base_url"`
	RequestsPerHour  int        `yaml:"requests_per_hour"`
	PageSize         int        `yaml:"pagesize"`
	Poll             PollConfig `yaml:"poll"`
	LeaguesWhitelist []string   `yaml:"leagues_whitelist"`
}

type LivePollConfig struct {
	DiscoverSeconds int `yaml:"discover_seconds"`
	WindowSeconds   int `yaml:"window_seconds"`
	DetailsSeconds  int `yaml:"details_seconds"`
}

type LolEsportsConfig struct {
	GWBase   string         `yaml:"gw_base"`
	FeedBase string         `yaml:"feed_base"`
	HL       string         `yaml:"hl"`
	Poll     LivePollConfig `yaml:"poll"`
}

// Pipeline is the ingestion-side YAML config.
type Pipeline struct {
	PandaScore PandaScoreConfig `yaml:"pandascore"`
	LolEsports LolEsportsConfig `yaml:"lolesports"`
}

func LoadPipeline(path string) (Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline config: %w", err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pipeline{}, fmt.Errorf("parse pipeline config: %w", err)
	}
	p.applyDefaults()
	return p, nil
}

func (p *Pipeline) applyDefaults() {
	ps := &p.PandaScore
	if ps.BaseURL == "" {
		ps.BaseURL = "https://api.pandascore.co"
	}
	if ps.RequestsPerHour == 0 {
		ps.RequestsPerHour = 950
	}
	if ps.PageSize == 0 {
		ps.PageSize = 50
	}
	if ps.Poll.ScheduleSeconds == 0 {
		ps.Poll.ScheduleSeconds = 60
	}
	if ps.Poll.ResultsSeconds == 0 {
		ps.Poll.ResultsSeconds = 90
	}

	le := &p.LolEsports
	if le.GWBase == "" {
		le.GWBase = "https://esports-api.lolesports.com/persisted/gw"
	}
	if le.FeedBase == "" {
		le.FeedBase = "https://feed.lolesports.com/livestats/v1"
	}
	if le.HL == "" {
		le.HL = "en-US"
	}
	if le.Poll.DiscoverSeconds == 0 {
		le.Poll.DiscoverSeconds = 20
	}
	if le.Poll.WindowSeconds == 0 {
		le.Poll.WindowSeconds = 2
	}
	if le.Poll.DetailsSeconds == 0 {
		le.Poll.DetailsSeconds = 5
	}
}

type CooldownConfig struct {
	FirstBlood int `yaml:"first_blood"`
	Multikill  int `yaml:"multikill"`
	Baron      int `yaml:"baron"`
	Dragon     int `yaml:"dragon"`
	Tower      int `yaml:"tower"`
	Inhibitor  int `yaml:"inhibitor"`
	Ace        int `yaml:"ace"`
}

// Agent configures the highlights detector.
type Agent struct {
	Game              string         `yaml:"game"`
	LiveTopic         string         `yaml:"live_topic"`
	HighlightsTopic   string         `yaml:"highlights_topic"`
	MultikillWindowS  int            `yaml:"multikill_window_s"`
	ComebackWindowS   int            `yaml:"comeback_window_s"`
	ComebackSwingGold int            `yaml:"comeback_swing_gold"`
	Cooldowns         CooldownConfig `yaml:"cooldowns_s"`
}

type agentFile struct {
	Agent Agent `yaml:"agent"`
}

func LoadAgent(path string) (Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Agent{}, fmt.Errorf("read agent config: %w", err)
	}

	var f agentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Agent{}, fmt.Errorf("parse agent config: %w", err)
	}
	f.Agent.applyDefaults()
	return f.Agent, nil
}

func (a *Agent) applyDefaults() {
	if a.Game == "" {
		a.Game = "lol"
	}
	if a.LiveTopic == "" {
		a.LiveTopic = "esports.lol.live.window"
	}
	if a.HighlightsTopic == "" {
		a.HighlightsTopic = "esports.lol.highlights"
	}
	if a.MultikillWindowS == 0 {
		a.MultikillWindowS = 10
	}
	if a.ComebackWindowS == 0 {
		a.ComebackWindowS = 30
	}
	if a.ComebackSwingGold == 0 {
		a.ComebackSwingGold = 3000
	}
	cd := &a.Cooldowns
	if cd.FirstBlood == 0 {
		cd.FirstBlood = 3600
	}
	if cd.Multikill == 0 {
		cd.Multikill = 30
	}
	if cd.Baron == 0 {
		cd.Baron = 60
	}
	if cd.Dragon == 0 {
		cd.Dragon = 60
	}
	if cd.Tower == 0 {
		cd.Tower = 20
	}
	if cd.Inhibitor == 0 {
		cd.Inhibitor = 30
	}
	if cd.Ace == 0 {
		cd.Ace = 60
	}
}
