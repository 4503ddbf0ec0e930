package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the settings a command needs are present. Mode is
// one of "search", "serve", or "history".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "search", "serve":
		if c.Google.Key == "" {
			problems = append(problems, "google.key is required")
		}
		switch c.Resolver.Provider {
		case "anthropic":
			if c.Anthropic.Key == "" {
				problems = append(problems, "anthropic.key is required for resolver.provider=anthropic")
			}
		case "openai":
			if c.OpenAI.Key == "" {
				problems = append(problems, "openai.key is required for resolver.provider=openai")
			}
		case "none":
		default:
			problems = append(problems, "resolver.provider must be anthropic, openai, or none")
		}
		if c.Pipeline.PlaceTimeoutSecs < 0 {
			problems = append(problems, "pipeline.place_timeout_secs must be >= 0")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "history":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for postgres")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
