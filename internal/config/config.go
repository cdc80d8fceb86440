// Package config holds the configuration shared by vplan-server and
// vplan-cli and turns it into the options of the individual components.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"vplan-backend/lib/configutil"
	"vplan-backend/lib/restyutil"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/lib/sqliteutil"
	"vplan-backend/lib/topics"
	"vplan-backend/services/ingest"
	"vplan-backend/services/notify"
)

const (
	DefaultFile     = "config.json5"
	DefaultDatabase = "<dev_state>/vplan.db"
)

type NtfyConfig struct {
	Url      string `json:"url"`
	Token    string `json:"token"`
	Priority int    `json:"priority"`
}

type Config struct {
	BaseUrl         string `json:"base_url"`
	WeekIndexPath   string `json:"week_index_path"`
	WeekPagePattern string `json:"week_page_pattern"`
	BannerSelector  string `json:"banner_selector"`
	TableSelector   string `json:"table_selector"`
	LessonPattern   string `json:"lesson_pattern"`
	RoomPlaceholder string `json:"room_placeholder"`

	Schedule            string `json:"schedule"`
	CycleTimeoutSeconds int    `json:"cycle_timeout_seconds"`
	FetchConcurrency    int    `json:"fetch_concurrency"`
	LockFile            string `json:"lock_file"`

	// Database is a sqlite path or a libsql url.
	Database          string `json:"database"`
	DatabaseAuthToken string `json:"database_auth_token"`

	TopicNamespace string     `json:"topic_namespace"`
	Ntfy           NtfyConfig `json:"ntfy"`

	CloudflareBypass bool `json:"cloudflare_bypass"`
}

// Load reads `path` (merged with its .local variant), then applies .env
// files and VPLAN_* environment variables. A missing config file is fine
// as long as the environment supplies a base url.
func Load(path string, dotenv ...string) (Config, error) {
	if path == "" {
		path = DefaultFile
	}
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = configutil.LoadDotenv(dotenv...)
	if err != nil {
		return Config{}, err
	}
	err = cfg.ApplyEnv()
	if err != nil {
		return Config{}, err
	}

	if cfg.BaseUrl == "" {
		return Config{}, fmt.Errorf("base_url is not configured (set it in %s or VPLAN_BASE_URL)", path)
	}
	return cfg, nil
}

// ApplyEnv overrides the deployment specific settings from the
// environment.
func (c *Config) ApplyEnv() error {
	configutil.EnvString(&c.BaseUrl, "VPLAN_BASE_URL")
	configutil.EnvString(&c.Database, "VPLAN_DATABASE")
	configutil.EnvString(&c.DatabaseAuthToken, "VPLAN_DATABASE_AUTH_TOKEN")
	configutil.EnvString(&c.Ntfy.Url, "VPLAN_NTFY_URL")
	configutil.EnvString(&c.Ntfy.Token, "VPLAN_NTFY_TOKEN")
	configutil.EnvString(&c.Schedule, "VPLAN_SCHEDULE")
	configutil.EnvString(&c.LockFile, "VPLAN_LOCK_FILE")

	var priority string
	configutil.EnvString(&priority, "VPLAN_NTFY_PRIORITY")
	if priority != "" {
		value, err := strconv.Atoi(priority)
		if err != nil {
			return fmt.Errorf("VPLAN_NTFY_PRIORITY: %w", err)
		}
		c.Ntfy.Priority = value
	}
	return nil
}

func (c Config) ParseOptions() (untis.ParseOptions, error) {
	return untis.CompileParseOptions(
		c.BannerSelector,
		c.TableSelector,
		c.LessonPattern,
		c.RoomPlaceholder,
	)
}

// ClientOptions returns the fetcher options, dump may be nil.
func (c Config) ClientOptions(dump restyutil.Output) untis.ClientOptions {
	return untis.ClientOptions{
		BaseUrl:          c.BaseUrl,
		WeekIndexPath:    c.WeekIndexPath,
		WeekPagePattern:  c.WeekPagePattern,
		CloudflareBypass: c.CloudflareBypass,
		Dump:             dump,
	}
}

func (c Config) IngestOptions() (ingest.Options, error) {
	parse, err := c.ParseOptions()
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{
		Parse:            parse,
		FetchConcurrency: c.FetchConcurrency,
		CycleTimeout:     time.Duration(c.CycleTimeoutSeconds) * time.Second,
		LockFile:         c.LockFile,
	}, nil
}

func (c Config) DatabaseConfig() sqliteutil.Config {
	dsn := c.Database
	if dsn == "" {
		dsn = DefaultDatabase
	}
	out := sqliteutil.FromDSN(dsn)
	out.AuthToken = c.DatabaseAuthToken
	return out
}

func (c Config) Expander() topics.Expander {
	return topics.Expander{Namespace: c.TopicNamespace}
}

func (c Config) NtfyOptions() notify.NtfyOptions {
	return notify.NtfyOptions{
		Url:      c.Ntfy.Url,
		Token:    c.Ntfy.Token,
		Priority: c.Ntfy.Priority,
	}
}
