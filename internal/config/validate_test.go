package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validSearch() *Config {
	cfg := &Config{}
	cfg.Google.Key = "g-key"
	cfg.Resolver.Provider = "anthropic"
	cfg.Anthropic.Key = "sk-ant"
	cfg.Store.Driver = "sqlite"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateSearch_AllPresent(t *testing.T) {
	assert.NoError(t, validSearch().Validate("search"))
	assert.NoError(t, validSearch().Validate("serve"))
}

func TestValidateSearch_MissingKeys(t *testing.T) {
	cfg := validSearch()
	cfg.Google.Key = ""
	cfg.Anthropic.Key = ""

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "google.key is required")
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateOpenAIProvider(t *testing.T) {
	cfg := validSearch()
	cfg.Resolver.Provider = "openai"

	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key is required")

	cfg.OpenAI.Key = "sk-openai"
	assert.NoError(t, cfg.Validate("search"))
}

func TestValidateNoResolver(t *testing.T) {
	cfg := validSearch()
	cfg.Resolver.Provider = "none"
	cfg.Anthropic.Key = ""
	assert.NoError(t, cfg.Validate("search"))
}

func TestValidateUnknownProvider(t *testing.T) {
	cfg := validSearch()
	cfg.Resolver.Provider = "gemini"
	err := cfg.Validate("search")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "resolver.provider")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validSearch()
	cfg.Server.Port = 0

	assert.NoError(t, cfg.Validate("search"))
	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidatePostgresNeedsURL(t *testing.T) {
	cfg := validSearch()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("history")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/leads"
	assert.NoError(t, cfg.Validate("history"))
}

func TestValidateHistoryNeedsNoKeys(t *testing.T) {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	assert.NoError(t, cfg.Validate("history"))
}

func TestValidateUnknownMode(t *testing.T) {
	err := validSearch().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
