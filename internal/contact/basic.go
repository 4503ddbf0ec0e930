package contact

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

// BasicName labels hits scraped from search engine result pages.
const BasicName = "basic"

const maxPageBytes = 1 << 20

// Basic searches by fetching raw search engine result pages, optionally
// through a retrieval proxy, and parsing them. It gives weaker results than
// Premium and needs no credentials.
type Basic struct {
	http     *http.Client
	engines  []string
	proxy    string
	agents   *userAgents
	minChars int
	locale   *Locale
	gap      time.Duration
}

// BasicOption configures a Basic source.
type BasicOption func(*Basic)

// WithEngines sets the search endpoints tried in order. Each must accept
// a q query parameter.
func WithEngines(engines ...string) BasicOption {
	return func(b *Basic) {
		if len(engines) > 0 {
			b.engines = engines
		}
	}
}

// WithProxy routes requests through a retrieval proxy. The target URL is
// query-escaped and appended to prefix.
func WithProxy(prefix string) BasicOption {
	return func(b *Basic) { b.proxy = prefix }
}

// WithUserAgents overrides the rotated user agents.
func WithUserAgents(list []string) BasicOption {
	return func(b *Basic) { b.agents = newUserAgents(list) }
}

// WithMinContent sets the page-text length treated as a usable response.
func WithMinContent(n int) BasicOption {
	return func(b *Basic) {
		if n > 0 {
			b.minChars = n
		}
	}
}

// WithBasicQueryGap sets the pause between consecutive queries of one batch.
func WithBasicQueryGap(d time.Duration) BasicOption {
	return func(b *Basic) { b.gap = d }
}

// WithBasicHTTPClient overrides the HTTP client.
func WithBasicHTTPClient(hc *http.Client) BasicOption {
	return func(b *Basic) { b.http = hc }
}

// Engines returns the search endpoints in the order they are tried.
func (b *Basic) Engines() []string { return append([]string(nil), b.engines...) }

// NewBasic returns a basic source.
func NewBasic(locale *Locale, opts ...BasicOption) *Basic {
	b := &Basic{
		http:     &http.Client{Timeout: 15 * time.Second},
		engines:  []string{"https://www.google.com/search", "https://www.bing.com/search"},
		agents:   newUserAgents(nil),
		minChars: 100,
		locale:   locale,
		gap:      time.Second,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Name implements Source.
func (b *Basic) Name() string { return BasicName }

// SearchForBusiness implements Source with a single query.
func (b *Basic) SearchForBusiness(ctx context.Context, name string, intent Intent) ([]model.RawSearchHit, error) {
	hits, err := b.query(ctx, b.locale.BusinessQuery(name, intent), 0)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: basic business search for %q", name)
	}
	return dedupe(hits), nil
}

// SearchForPerson implements Source.
func (b *Basic) SearchForPerson(ctx context.Context, person, business string) ([]model.RawSearchHit, error) {
	hits, err := batch(ctx, BasicName, b.gap, b.locale.PersonQueries(person, business), 0, b.query)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: basic person search for %q", person)
	}
	return hits, nil
}

// SearchForDirectorsViaRegistry implements Source.
func (b *Basic) SearchForDirectorsViaRegistry(ctx context.Context, business string) ([]model.RawSearchHit, error) {
	hits, err := batch(ctx, BasicName, b.gap, b.locale.RegistryQueries(business), 0, b.query)
	if err != nil {
		return nil, eris.Wrapf(err, "contact: basic registry search for %q", business)
	}
	return hits, nil
}

// query tries each engine in order and returns the hits of the first one
// that answers with usable content. Unreachable engines and thin pages both
// yield zero hits; only cancellation is returned as an error.
func (b *Basic) query(ctx context.Context, q string, n int) ([]model.RawSearchHit, error) {
	var failed int
	for _, engine := range b.engines {
		target := engine + "?q=" + url.QueryEscape(q)
		content, err := b.fetch(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			zap.L().Debug("contact: basic engine failed",
				zap.String("engine", engine),
				zap.Error(err),
			)
			failed++
			continue
		}

		hits, err := b.parse(content, q, target)
		if err != nil {
			zap.L().Debug("contact: basic page unparseable", zap.String("engine", engine), zap.Error(err))
			continue
		}
		if len(hits) == 0 {
			continue
		}
		if n > 0 && len(hits) > n {
			hits = hits[:n]
		}
		return hits, nil
	}

	if failed > 0 && failed == len(b.engines) {
		zap.L().Warn("contact: no search engine reachable",
			zap.String("query", q),
			zap.Int("engines", failed),
		)
	}
	return nil, nil
}

func (b *Basic) fetch(ctx context.Context, target string) (string, error) {
	reqURL := target
	if b.proxy != "" {
		reqURL = b.proxy + url.QueryEscape(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "contact: create request")
	}
	req.Header.Set("User-Agent", b.agents.Next())
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := b.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "contact: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("contact: fetch %s: status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", eris.Wrap(err, "contact: read page")
	}

	// Retrieval proxies may wrap the page as {"contents": "<html>..."}.
	if gjson.ValidBytes(body) {
		if c := gjson.GetBytes(body, "contents"); c.Type == gjson.String {
			return c.String(), nil
		}
	}
	return string(body), nil
}

// parse turns a result page into hits. Recognised result blocks become one
// hit each; otherwise the page text becomes a single weak hit when it is
// long enough to be worth extracting from.
func (b *Basic) parse(content, q, target string) ([]model.RawSearchHit, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, eris.Wrap(err, "contact: parse page")
	}

	var hits []model.RawSearchHit
	add := func(title, link, snippet string) {
		link = resolveResultLink(link)
		if link == "" && title == "" {
			return
		}
		hits = append(hits, model.RawSearchHit{
			Title:    strings.TrimSpace(title),
			Snippet:  normalize(snippet),
			URL:      link,
			Query:    q,
			Provider: BasicName,
		})
	}

	// Google organic results.
	doc.Find("div.g").Each(func(_ int, s *goquery.Selection) {
		title := s.Find("h3").First().Text()
		link, _ := s.Find("a[href]").First().Attr("href")
		snippet := s.Find("div.VwiC3b, span.st, div[data-sncf]").First().Text()
		if snippet == "" {
			snippet = s.Text()
		}
		add(title, link, snippet)
	})

	// Bing organic results.
	doc.Find("li.b_algo").Each(func(_ int, s *goquery.Selection) {
		a := s.Find("h2 a").First()
		link, _ := a.Attr("href")
		snippet := s.Find(".b_caption p, p").First().Text()
		add(a.Text(), link, snippet)
	})

	if len(hits) > 0 {
		return hits, nil
	}

	doc.Find("script, style, noscript").Remove()
	text := normalize(doc.Text())
	if len([]rune(text)) <= b.minChars {
		return nil, nil
	}
	return []model.RawSearchHit{{
		Title:    q,
		Snippet:  text,
		URL:      target,
		Query:    q,
		Provider: BasicName,
	}}, nil
}

// resolveResultLink unwraps Google's /url?q= redirect links and drops
// relative in-page links.
func resolveResultLink(link string) string {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "/url?") {
		if u, err := url.Parse(link); err == nil {
			if q := u.Query().Get("q"); q != "" {
				return q
			}
		}
		return ""
	}
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return ""
}
