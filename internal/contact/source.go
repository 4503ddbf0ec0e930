// Package contact finds and extracts contact signals for a business: it
// issues targeted web searches through a premium or basic provider and
// pattern-matches emails, phones, names, and links out of the results.
package contact

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-finder/internal/model"
)

// Intent selects the business-level query shape.
type Intent string

const (
	IntentContact   Intent = "contact"
	IntentGeneral   Intent = "general"
	IntentDirectors Intent = "directors"
)

// Source is a text-search provider for contact hits.
type Source interface {
	// Name identifies the provider in hits and logs.
	Name() string
	// SearchForBusiness issues one business-level query.
	SearchForBusiness(ctx context.Context, name string, intent Intent) ([]model.RawSearchHit, error)
	// SearchForPerson issues the person+business variants and unions them.
	SearchForPerson(ctx context.Context, person, business string) ([]model.RawSearchHit, error)
	// SearchForDirectorsViaRegistry queries the government business registry.
	SearchForDirectorsViaRegistry(ctx context.Context, business string) ([]model.RawSearchHit, error)
}

// queryFunc runs a single query returning at most n hits.
type queryFunc func(ctx context.Context, query string, n int) ([]model.RawSearchHit, error)

// batch runs queries in order with a pause between consecutive queries
// (never before the first), unions the hits, and drops repeat URLs. A query
// that fails is skipped; the batch fails only when every query failed.
func batch(ctx context.Context, provider string, gap time.Duration, queries []string, n int, run queryFunc) ([]model.RawSearchHit, error) {
	limit := rate.Inf
	if gap > 0 {
		limit = rate.Every(gap)
	}
	lim := rate.NewLimiter(limit, 1)

	seen := newOrderedSet(URLKey)
	var hits []model.RawSearchHit
	var errs []error

	for _, q := range queries {
		if err := lim.Wait(ctx); err != nil {
			return hits, err
		}
		got, err := run(ctx, q, n)
		if err != nil {
			if ctx.Err() != nil {
				return hits, ctx.Err()
			}
			zap.L().Warn("contact: query failed",
				zap.String("provider", provider),
				zap.String("query", q),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		for _, h := range got {
			if h.URL == "" || seen.Add(h.URL) {
				hits = append(hits, h)
			}
		}
	}

	if len(errs) == len(queries) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return hits, nil
}

// dedupe drops hits whose URL was already seen, keeping order.
func dedupe(hits []model.RawSearchHit) []model.RawSearchHit {
	seen := newOrderedSet(URLKey)
	out := make([]model.RawSearchHit, 0, len(hits))
	for _, h := range hits {
		if h.URL == "" || seen.Add(h.URL) {
			out = append(out, h)
		}
	}
	return out
}

// Merge appends extra hits to base, dropping URLs already present.
func Merge(base []model.RawSearchHit, extra ...[]model.RawSearchHit) []model.RawSearchHit {
	all := append([]model.RawSearchHit(nil), base...)
	for _, e := range extra {
		all = append(all, e...)
	}
	return dedupe(all)
}
