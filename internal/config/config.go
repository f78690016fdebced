package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct {
	Env           string
	Port          string
	LogLevel      zerolog.Level
	RequireBearer bool // reject API calls that carry no bearer token
}

type GraphQLCfg struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
}

type DBCfg struct{ DSN string }

type RedisCfg struct {
	Addr    string
	Channel string
}

type PagingCfg struct {
	DefaultSize    int
	MaxSize        int
	SelectListSize int // page size of the "load everything" select-list filter
}

type SessionCfg struct {
	IdleTTL   time.Duration
	ReapEvery time.Duration
}

type Cfg struct {
	App      AppCfg
	GraphQL  GraphQLCfg
	DB       DBCfg
	Redis    RedisCfg
	Paging   PagingCfg
	Sessions SessionCfg
}

// Dev reports whether human-readable console logging is wanted
func (c Cfg) Dev() bool {
	return c.App.Env == "dev" || c.App.Env == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "sandbox")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUIRE_BEARER", true)
	v.SetDefault("GRAPHQL_ENDPOINT", "")
	v.SetDefault("GRAPHQL_TIMEOUT_SEC", 30)
	v.SetDefault("GRAPHQL_MAX_RETRIES", 2)
	v.SetDefault("DB_DSN", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("NOTIFY_CHANNEL", "catalogview:errors")
	v.SetDefault("PAGE_SIZE_DEFAULT", 10)
	v.SetDefault("PAGE_SIZE_MAX", 100)
	v.SetDefault("SELECT_LIST_PAGE_SIZE", 10000)
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("SESSION_REAP_EVERY", "1m")
}

// Load reads .env (if present) and the process environment. Invalid settings are fatal.
func Load() Cfg {
	// 1) Load .env into process env; real env vars win
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	// 2) Read from env via viper
	v := viper.New()
	v.AutomaticEnv()

	// 3) Fail fast
	cfg, err := FromViper(v)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

// FromViper builds a Cfg from v after applying defaults, without touching the process
func FromViper(v *viper.Viper) (Cfg, error) {
	setDefaults(v)

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))))
	if err != nil {
		return Cfg{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := Cfg{
		App: AppCfg{
			Env:           v.GetString("APP_ENV"),
			Port:          v.GetString("APP_PORT"),
			LogLevel:      level,
			RequireBearer: v.GetBool("REQUIRE_BEARER"),
		},
		GraphQL: GraphQLCfg{
			Endpoint:   strings.TrimSpace(v.GetString("GRAPHQL_ENDPOINT")),
			Timeout:    time.Duration(v.GetInt("GRAPHQL_TIMEOUT_SEC")) * time.Second,
			MaxRetries: v.GetInt("GRAPHQL_MAX_RETRIES"),
		},
		DB: DBCfg{DSN: v.GetString("DB_DSN")},
		Redis: RedisCfg{
			Addr:    v.GetString("REDIS_ADDR"),
			Channel: v.GetString("NOTIFY_CHANNEL"),
		},
		Paging: PagingCfg{
			DefaultSize:    v.GetInt("PAGE_SIZE_DEFAULT"),
			MaxSize:        v.GetInt("PAGE_SIZE_MAX"),
			SelectListSize: v.GetInt("SELECT_LIST_PAGE_SIZE"),
		},
		Sessions: SessionCfg{
			IdleTTL:   v.GetDuration("SESSION_IDLE_TTL"),
			ReapEvery: v.GetDuration("SESSION_REAP_EVERY"),
		},
	}

	if cfg.GraphQL.Endpoint == "" {
		return Cfg{}, errors.New("GRAPHQL_ENDPOINT is required")
	}
	if u, err := url.Parse(cfg.GraphQL.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return Cfg{}, fmt.Errorf("GRAPHQL_ENDPOINT must be an absolute URL, got %q", cfg.GraphQL.Endpoint)
	}
	if cfg.GraphQL.Timeout <= 0 {
		return Cfg{}, errors.New("GRAPHQL_TIMEOUT_SEC must be positive")
	}
	if cfg.GraphQL.MaxRetries < 0 {
		return Cfg{}, errors.New("GRAPHQL_MAX_RETRIES must not be negative")
	}
	if cfg.Paging.DefaultSize < 1 || cfg.Paging.MaxSize < cfg.Paging.DefaultSize {
		return Cfg{}, fmt.Errorf("PAGE_SIZE_DEFAULT (%d) must be between 1 and PAGE_SIZE_MAX (%d)",
			cfg.Paging.DefaultSize, cfg.Paging.MaxSize)
	}
	if cfg.Paging.SelectListSize < 1 {
		return Cfg{}, errors.New("SELECT_LIST_PAGE_SIZE must be positive")
	}
	if cfg.Sessions.IdleTTL <= 0 || cfg.Sessions.ReapEvery <= 0 {
		return Cfg{}, errors.New("SESSION_IDLE_TTL and SESSION_REAP_EVERY must be positive durations")
	}
	return cfg, nil
}

// SetupLogging applies the level and output format to the global zerolog logger
func SetupLogging(cfg Cfg) {
	zerolog.SetGlobalLevel(cfg.App.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Dev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
