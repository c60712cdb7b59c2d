package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Play struct {
		// StaleCutoff prunes schedules whose window closed longer ago than
		// this during bulk scans (default 4 months, expressed as a duration).
		StaleCutoff string `yaml:"staleCutoff"`
		// SurveyGrace is how long after the window closes surveys stay open.
		SurveyGrace string `yaml:"surveyGrace"`
		// BatchSize bounds concurrent evaluations per chunk in bulk scans.
		BatchSize int `yaml:"batchSize"`
		// WatchInterval is the websocket status push period.
		WatchInterval string `yaml:"watchInterval"`
	} `yaml:"play"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty or invalid.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// BatchSize returns the configured bulk-evaluation batch size or the fallback.
func (c Config) BatchSize(fallback int) int {
	if c.Play.BatchSize > 0 {
		return c.Play.BatchSize
	}
	return fallback
}
