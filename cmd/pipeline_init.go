package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/config"
	"github.com/sells-group/lead-finder/internal/contact"
	"github.com/sells-group/lead-finder/internal/pipeline"
	"github.com/sells-group/lead-finder/internal/places"
	"github.com/sells-group/lead-finder/internal/resolver"
	"github.com/sells-group/lead-finder/internal/store"
	anthropicpkg "github.com/sells-group/lead-finder/pkg/anthropic"
	"github.com/sells-group/lead-finder/pkg/google"
	"github.com/sells-group/lead-finder/pkg/rocketscrape"
)

// leadEnv holds the initialized store, pipeline, and optional cache needed
// by the search and serve commands.
type leadEnv struct {
	Store    store.Store
	Pipeline *pipeline.LeadPipeline
	Cache    *contact.RedisCache // may be nil
}

// Close releases resources held by the environment.
func (e *leadEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initStore opens and migrates the configured store.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initLocale returns the configured locale, overlaid with the locale file
// when one is set.
func initLocale(c *config.Config) (*contact.Locale, error) {
	loc, err := contact.LookupLocale(c.Contact.Locale)
	if err != nil {
		return nil, err
	}
	if c.Contact.LocaleFile != "" {
		loc, err = contact.LoadLocaleFile(c.Contact.LocaleFile, loc)
		if err != nil {
			return nil, eris.Wrap(err, "load locale file")
		}
	}
	return loc, nil
}

// initPipeline validates config for mode, then builds the store, all
// clients, and the LeadPipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*leadEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	loc, err := initLocale(cfg)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	env := &leadEnv{Store: st}

	googleClient := google.NewClient(cfg.Google.Key, google.WithBaseURL(cfg.Google.BaseURL))
	finder := places.NewFinder(googleClient, places.WithPageTokenDelay(cfg.Google.PageTokenDelay()))

	var cache contact.HitCache
	if cfg.Cache.RedisURL != "" {
		rc, err := contact.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			zap.L().Warn("redis cache unavailable, continuing without it", zap.Error(err))
		} else {
			env.Cache = rc
			cache = rc
			zap.L().Info("search hit cache enabled", zap.Duration("ttl", cfg.Cache.TTL()))
		}
	}

	var premium contact.Source
	if cfg.RocketScrape.Key != "" {
		rsClient := rocketscrape.NewClient(cfg.RocketScrape.Key,
			rocketscrape.WithBaseURL(cfg.RocketScrape.BaseURL),
			rocketscrape.WithLocale(cfg.RocketScrape.Country, cfg.RocketScrape.Language),
		)
		premium = contact.NewPremium(rsClient, loc,
			contact.WithQueryGap(cfg.Contact.QueryDelay()),
			contact.WithBusinessResults(cfg.RocketScrape.NumResults),
		)
		if cache != nil {
			premium = cachedPremium{
				CachedSource: contact.NewCachedSource(premium, cache, cfg.Cache.TTL()),
				verifier:     premium.(pipeline.Verifier),
			}
		}
		zap.L().Info("premium search enabled")
	} else {
		zap.L().Info("LEADFINDER_ROCKETSCRAPE_KEY not set, using basic web search only")
	}

	basicOpts := []contact.BasicOption{
		contact.WithBasicQueryGap(cfg.Contact.QueryDelay()),
		contact.WithMinContent(cfg.Basic.MinContentChars),
		contact.WithUserAgents(cfg.Basic.UserAgents),
		contact.WithBasicHTTPClient(&http.Client{Timeout: time.Duration(cfg.Basic.TimeoutSecs) * time.Second}),
	}
	if len(cfg.Basic.Engines) > 0 {
		basicOpts = append(basicOpts, contact.WithEngines(cfg.Basic.Engines...))
	}
	if cfg.Basic.ProxyURL != "" {
		basicOpts = append(basicOpts, contact.WithProxy(cfg.Basic.ProxyURL))
	}
	basic := contact.NewBasic(loc, basicOpts...)
	loc.ExcludeEngines(basic.Engines()...)

	deps := pipeline.Deps{
		Places:    finder,
		Premium:   premium,
		Basic:     basic,
		Extractor: contact.NewExtractor(loc),
		Store:     st,
		Locale:    loc,
	}
	if res := initResolver(cfg); res != nil {
		deps.Resolver = res
	}

	opts := pipeline.DefaultOptions()
	opts.PlaceDelay = cfg.Pipeline.PlaceDelay()
	opts.PlaceTimeout = cfg.Pipeline.PlaceTimeout()
	opts.MinResolveChars = cfg.Pipeline.MinResolveChars
	opts.PersonFollowup = cfg.Pipeline.PersonFollowup
	opts.RegistryLookup = cfg.Pipeline.RegistryLookup

	p, err := pipeline.New(ctx, deps, opts)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Pipeline = p
	return env, nil
}

// initResolver builds the configured resolver, or nil for provider "none".
func initResolver(c *config.Config) *resolver.Resolver {
	params := resolver.Params{
		MaxTokens:   c.Resolver.MaxTokens,
		Temperature: c.Resolver.Temperature,
	}
	var completer resolver.Completer
	switch c.Resolver.Provider {
	case "anthropic":
		params.Model = c.Anthropic.Model
		var opts []anthropicpkg.Option
		if c.Anthropic.BaseURL != "" {
			opts = append(opts, anthropicpkg.WithBaseURL(c.Anthropic.BaseURL))
		}
		completer = resolver.NewAnthropicCompleter(anthropicpkg.NewClient(c.Anthropic.Key, opts...), params)
	case "openai":
		params.Model = c.OpenAI.Model
		completer = resolver.NewOpenAICompleter(resolver.NewOpenAIClient(c.OpenAI.Key, c.OpenAI.BaseURL), params)
	default:
		zap.L().Info("resolver disabled, leads come from extracted signals only")
		return nil
	}
	zap.L().Info("resolver enabled", zap.String("provider", c.Resolver.Provider), zap.String("model", params.Model))
	return resolver.New(completer, resolver.WithMaxInputChars(c.Resolver.MaxInputChars))
}

// cachedPremium keeps the credential probe reachable through the cache
// wrapper.
type cachedPremium struct {
	*contact.CachedSource
	verifier pipeline.Verifier
}

func (c cachedPremium) Verify(ctx context.Context) error { return c.verifier.Verify(ctx) }
