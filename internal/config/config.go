package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"jobportal-engine/internal/domain"

	"gopkg.in/yaml.v3"
)

type Company struct {
	Slug string `yaml:"slug" json:"slug"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

type Platform struct {
	Enabled   bool      `yaml:"enabled" json:"enabled"`
	BaseURL   string    `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Companies []Company `yaml:"companies" json:"companies"`
}

type Database struct {
	Driver         string `yaml:"driver" json:"driver"` // sqlite | postgres
	Path           string `yaml:"path" json:"path"`     // sqlite file, relative to data_dir
	URL            string `yaml:"url,omitempty" json:"url,omitempty"`
	KeyringAccount string `yaml:"keyring_account,omitempty" json:"keyring_account,omitempty"`
}

type Ingest struct {
	Workers               int     `yaml:"workers" json:"workers"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds" json:"request_timeout_seconds"`
	UserAgent             string  `yaml:"user_agent" json:"user_agent"`
	RatePerSecond         float64 `yaml:"rate_per_second" json:"rate_per_second"`
	Burst                 int     `yaml:"burst" json:"burst"`
	Schedule              string  `yaml:"schedule" json:"schedule"`
}

func (i Ingest) RequestTimeout() time.Duration {
	return time.Duration(i.RequestTimeoutSeconds) * time.Second
}

type Query struct {
	DefaultDays int `yaml:"default_days" json:"default_days"`
	SearchLimit int `yaml:"search_limit" json:"search_limit"`
	TodayLimit  int `yaml:"today_limit" json:"today_limit"`
}

type Logging struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Database Database `yaml:"database" json:"database"`

	Sources struct {
		Greenhouse Platform `yaml:"greenhouse" json:"greenhouse"`
		Lever      Platform `yaml:"lever" json:"lever"`
	} `yaml:"sources" json:"sources"`

	Ingest  Ingest  `yaml:"ingest" json:"ingest"`
	Query   Query   `yaml:"query" json:"query"`
	Logging Logging `yaml:"logging" json:"logging"`
}

// Default is the configuration written on first run.
func Default() Config {
	var cfg Config
	cfg.App.Port = 5050
	cfg.App.DataDir = "."

	cfg.Database = Database{Driver: "sqlite", Path: "jobportal.db"}

	cfg.Sources.Greenhouse = Platform{
		Enabled: true,
		Companies: []Company{
			{Slug: "stripe", Name: "Stripe"},
			{Slug: "airbnb", Name: "Airbnb"},
			{Slug: "databricks", Name: "Databricks"},
			{Slug: "coinbase", Name: "Coinbase"},
		},
	}
	cfg.Sources.Lever = Platform{Enabled: true}

	cfg.Ingest = Ingest{
		Workers:               4,
		RequestTimeoutSeconds: 30,
		UserAgent:             "job-portal-bot/1.0 (+https://github.com/jobportal-engine)",
		RatePerSecond:         2,
		Burst:                 2,
		Schedule:              "@every 1h",
	}
	cfg.Query = Query{DefaultDays: 30, SearchLimit: 500, TodayLimit: 200}
	cfg.Logging = Logging{Level: "info"}
	return cfg
}

// Load reads path on top of Default, so a partial file keeps sane values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// ApplyEnv overlays process environment. DATABASE_URL switches the store to postgres.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv("DATABASE_URL")); v != "" {
		cfg.Database.Driver = "postgres"
		cfg.Database.URL = v
	}
	if v := strings.TrimSpace(getenv("JOBPORTAL_DATA_DIR")); v != "" {
		cfg.App.DataDir = v
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.App.Port = p
		}
	}
	if v := strings.TrimSpace(getenv("LOG_LEVEL")); v != "" {
		cfg.Logging.Level = v
	}
}

// SourceRefs flattens the enabled platforms into one list of ingest units.
func (c Config) SourceRefs() []domain.SourceRef {
	var out []domain.SourceRef
	add := func(platform string, p Platform) {
		if !p.Enabled {
			return
		}
		for _, co := range p.Companies {
			slug := strings.TrimSpace(co.Slug)
			if slug == "" {
				continue
			}
			out = append(out, domain.SourceRef{
				Platform: platform,
				Company:  domain.Company{Slug: slug, Name: strings.TrimSpace(co.Name)},
			})
		}
	}
	add(domain.SourceLever, c.Sources.Lever)
	add(domain.SourceGreenhouse, c.Sources.Greenhouse)
	return out
}
