package contact

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/pkg/rocketscrape"
)

// PremiumName labels hits from the structured search API.
const PremiumName = "premium"

// Result counts per query kind.
const (
	businessResults = 15
	personResults   = 8
	registryResults = 5
)

// Premium searches through the RocketScrape API.
type Premium struct {
	client          rocketscrape.Client
	locale          *Locale
	gap             time.Duration
	businessResults int
}

// PremiumOption configures a Premium source.
type PremiumOption func(*Premium)

// WithQueryGap sets the pause between consecutive queries of one batch.
func WithQueryGap(d time.Duration) PremiumOption {
	return func(p *Premium) { p.gap = d }
}

// WithBusinessResults sets how many results a business query requests.
func WithBusinessResults(n int) PremiumOption {
	return func(p *Premium) {
		if n > 0 {
			p.businessResults = n
		}
	}
}

// NewPremium returns a premium source over client.
func NewPremium(client rocketscrape.Client, locale *Locale, opts ...PremiumOption) *Premium {
	p := &Premium{
		client:          client,
		locale:          locale,
		gap:             time.Second,
		businessResults: businessResults,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements Source.
func (p *Premium) Name() string { return PremiumName }

// Verify probes the API key. It returns rocketscrape.ErrInvalidKey when the
// key is rejected.
func (p *Premium) Verify(ctx context.Context) error {
	return p.client.TestAPIKey(ctx)
}

// SearchForBusiness implements Source. Errors are returned so the caller
// can fall back to another provider.
func (p *Premium) SearchForBusiness(ctx context.Context, name string, intent Intent) ([]model.RawSearchHit, error) {
	q := p.locale.BusinessQuery(name, intent)
	hits, err := p.query(ctx, q, p.businessResults)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: premium business search for %q", name)
	}
	return dedupe(hits), nil
}

// SearchForPerson implements Source.
func (p *Premium) SearchForPerson(ctx context.Context, person, business string) ([]model.RawSearchHit, error) {
	hits, err := batch(ctx, PremiumName, p.gap, p.locale.PersonQueries(person, business), personResults, p.query)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: premium person search for %q", person)
	}
	return hits, nil
}

// SearchForDirectorsViaRegistry implements Source.
func (p *Premium) SearchForDirectorsViaRegistry(ctx context.Context, business string) ([]model.RawSearchHit, error) {
	hits, err := batch(ctx, PremiumName, p.gap, p.locale.RegistryQueries(business), registryResults, p.query)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: premium registry search for %q", business)
	}
	return hits, nil
}

func (p *Premium) query(ctx context.Context, q string, n int) ([]model.RawSearchHit, error) {
	resp, err := p.client.Search(ctx, rocketscrape.SearchRequest{Query: q, NumResults: n})
	if err != nil {
		return nil, err
	}
	zap.L().Debug("contact: premium query done",
		zap.String("query", q),
		zap.Int("results", len(resp.Results)),
		zap.Int("search_time_ms", resp.SearchTimeMS),
	)
	hits := make([]model.RawSearchHit, 0, len(resp.Results))
	for _, r := range resp.Results {
		hits = append(hits, model.RawSearchHit{
			Title:    r.Title,
			Snippet:  r.Snippet,
			URL:      r.URL,
			Query:    q,
			Provider: PremiumName,
		})
	}
	return hits, nil
}
