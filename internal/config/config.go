package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Google       GoogleConfig       `yaml:"google" mapstructure:"google"`
	RocketScrape RocketScrapeConfig `yaml:"rocketscrape" mapstructure:"rocketscrape"`
	Basic        BasicConfig        `yaml:"basic" mapstructure:"basic"`
	Resolver     ResolverConfig     `yaml:"resolver" mapstructure:"resolver"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	OpenAI       OpenAIConfig       `yaml:"openai" mapstructure:"openai"`
	Contact      ContactConfig      `yaml:"contact" mapstructure:"contact"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Pipeline     PipelineConfig     `yaml:"pipeline" mapstructure:"pipeline"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Places API settings.
type GoogleConfig struct {
	Key              string `yaml:"key" mapstructure:"key"`
	BaseURL          string `yaml:"base_url" mapstructure:"base_url"`
	PageTokenDelayMS int    `yaml:"page_token_delay_ms" mapstructure:"page_token_delay_ms"`
}

// PageTokenDelay is how long a continuation token needs before it is valid.
func (g GoogleConfig) PageTokenDelay() time.Duration {
	return time.Duration(g.PageTokenDelayMS) * time.Millisecond
}

// RocketScrapeConfig holds premium search API settings. An empty key
// disables the premium provider.
type RocketScrapeConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	NumResults int    `yaml:"num_results" mapstructure:"num_results"`
	Country    string `yaml:"country" mapstructure:"country"`
	Language   string `yaml:"language" mapstructure:"language"`
}

// BasicConfig configures the search-engine scraping fallback.
type BasicConfig struct {
	Engines         []string `yaml:"engines" mapstructure:"engines"`
	ProxyURL        string   `yaml:"proxy_url" mapstructure:"proxy_url"`
	UserAgents      []string `yaml:"user_agents" mapstructure:"user_agents"`
	MinContentChars int      `yaml:"min_content_chars" mapstructure:"min_content_chars"`
	TimeoutSecs     int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ResolverConfig configures AI field resolution.
type ResolverConfig struct {
	Provider      string  `yaml:"provider" mapstructure:"provider"`
	MaxInputChars int     `yaml:"max_input_chars" mapstructure:"max_input_chars"`
	Temperature   float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens     int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ContactConfig configures contact extraction and query pacing.
type ContactConfig struct {
	Locale       string `yaml:"locale" mapstructure:"locale"`
	LocaleFile   string `yaml:"locale_file" mapstructure:"locale_file"`
	QueryDelayMS int    `yaml:"query_delay_ms" mapstructure:"query_delay_ms"`
}

// QueryDelay is the minimum gap between consecutive search queries.
func (c ContactConfig) QueryDelay() time.Duration {
	return time.Duration(c.QueryDelayMS) * time.Millisecond
}

// CacheConfig configures the optional Redis hit cache.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLSecs  int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// PipelineConfig configures per-place orchestration.
type PipelineConfig struct {
	PlaceDelayMS     int  `yaml:"place_delay_ms" mapstructure:"place_delay_ms"`
	PlaceTimeoutSecs int  `yaml:"place_timeout_secs" mapstructure:"place_timeout_secs"`
	MinResolveChars  int  `yaml:"min_resolve_chars" mapstructure:"min_resolve_chars"`
	PersonFollowup   bool `yaml:"person_followup" mapstructure:"person_followup"`
	RegistryLookup   bool `yaml:"registry_lookup" mapstructure:"registry_lookup"`
}

// PlaceDelay is the pause between two places.
func (p PipelineConfig) PlaceDelay() time.Duration {
	return time.Duration(p.PlaceDelayMS) * time.Millisecond
}

// PlaceTimeout is the per-place time budget; zero disables it.
func (p PipelineConfig) PlaceTimeout() time.Duration {
	return time.Duration(p.PlaceTimeoutSecs) * time.Second
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string        `yaml:"level" mapstructure:"level"`
	Format string        `yaml:"format" mapstructure:"format"`
	File   LogFileConfig `yaml:"file" mapstructure:"file"`
}

// LogFileConfig enables a rotating log file alongside stderr.
type LogFileConfig struct {
	Filename   string `yaml:"filename" mapstructure:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys without a default still need registering so AutomaticEnv can
	// populate them through Unmarshal.
	for _, k := range []string{
		"google.key", "rocketscrape.key", "anthropic.key", "openai.key",
		"anthropic.base_url", "openai.base_url", "basic.proxy_url",
		"contact.locale_file", "cache.redis_url", "store.database_url",
		"log.file.filename",
	} {
		v.SetDefault(k, "")
	}

	v.SetDefault("google.base_url", "https://maps.googleapis.com/maps/api/place")
	v.SetDefault("google.page_token_delay_ms", 2000)
	v.SetDefault("rocketscrape.base_url", "https://api.rocketscrape.com/v1")
	v.SetDefault("rocketscrape.num_results", 15)
	v.SetDefault("rocketscrape.country", "TH")
	v.SetDefault("rocketscrape.language", "th")
	v.SetDefault("basic.engines", []string{"https://www.google.com/search", "https://www.bing.com/search"})
	v.SetDefault("basic.min_content_chars", 100)
	v.SetDefault("basic.timeout_secs", 15)
	v.SetDefault("resolver.provider", "anthropic")
	v.SetDefault("resolver.max_input_chars", 4000)
	v.SetDefault("resolver.temperature", 0.1)
	v.SetDefault("resolver.max_tokens", 300)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("contact.locale", "th")
	v.SetDefault("contact.query_delay_ms", 1000)
	v.SetDefault("cache.ttl_secs", 86400)
	v.SetDefault("pipeline.place_delay_ms", 2000)
	v.SetDefault("pipeline.place_timeout_secs", 0)
	v.SetDefault("pipeline.min_resolve_chars", 50)
	v.SetDefault("pipeline.person_followup", true)
	v.SetDefault("pipeline.registry_lookup", true)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)
}

// DatabaseDSN returns the DSN for the configured store driver, using a
// local file for SQLite when none is set.
func (c *Config) DatabaseDSN() string {
	if c.Store.DatabaseURL == "" && c.Store.Driver == "sqlite" {
		return "leadfinder.db"
	}
	return c.Store.DatabaseURL
}
