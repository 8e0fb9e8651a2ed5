package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all decayd configuration. Defaults are overridden by
// DECAY_-prefixed environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Campaign CampaignConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Bind string `env:"DECAY_BIND"`
	Port int    `env:"DECAY_PORT"`
}

type DatabaseConfig struct {
	Path string `env:"DECAY_DB_PATH"` // empty: resolved via store.DefaultDBPath()
}

type CampaignConfig struct {
	// Start is the first day of the campaign window, RFC 3339 date.
	Start string `env:"DECAY_CAMPAIGN_START"`
	Days  int    `env:"DECAY_CAMPAIGN_DAYS"`
}

type EngineConfig struct {
	TickInterval     time.Duration `env:"DECAY_TICK_INTERVAL"`
	ChallengeTimeout time.Duration `env:"DECAY_CHALLENGE_TIMEOUT"`
	PeakStart        int           `env:"DECAY_PEAK_START"` // local hour
	PeakEnd          int           `env:"DECAY_PEAK_END"`
}

// Default returns a Config with sensible defaults: a 31-day campaign
// starting on the next October 1st, five-minute ticks, and the original
// evening peak window.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37666,
		},
		Campaign: CampaignConfig{
			Start: nextOctober().Format("2006-01-02"),
			Days:  31,
		},
		Engine: EngineConfig{
			TickInterval:     5 * time.Minute,
			ChallengeTimeout: 5 * time.Minute,
			PeakStart:        18,
			PeakEnd:          23,
		},
	}
}

// Load returns the defaults with environment overrides applied.
func Load() (Config, error) {
	cfg := Default()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// CampaignStart parses the configured start date in the local timezone.
func (c *Config) CampaignStart() (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", c.Campaign.Start, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse campaign start %q: %w", c.Campaign.Start, err)
	}
	return t, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

func nextOctober() time.Time {
	now := time.Now()
	oct := time.Date(now.Year(), time.October, 1, 0, 0, 0, 0, time.Local)
	if now.After(oct.AddDate(0, 1, 0)) {
		oct = oct.AddDate(1, 0, 0)
	}
	return oct
}
