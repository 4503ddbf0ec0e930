package contact

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/pkg/rocketscrape"
)

// --- RocketScrape Mock ---

type mockRocketClient struct {
	mock.Mock
}

func (m *mockRocketClient) Search(ctx context.Context, req rocketscrape.SearchRequest) (*rocketscrape.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rocketscrape.SearchResponse), args.Error(1)
}

func (m *mockRocketClient) TestAPIKey(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Source Mock ---

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) SearchForBusiness(ctx context.Context, name string, intent Intent) ([]model.RawSearchHit, error) {
	args := m.Called(ctx, name, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawSearchHit), args.Error(1)
}

func (m *mockSource) SearchForPerson(ctx context.Context, person, business string) ([]model.RawSearchHit, error) {
	args := m.Called(ctx, person, business)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawSearchHit), args.Error(1)
}

func (m *mockSource) SearchForDirectorsViaRegistry(ctx context.Context, business string) ([]model.RawSearchHit, error) {
	args := m.Called(ctx, business)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawSearchHit), args.Error(1)
}

// --- In-memory HitCache ---

type memCache struct {
	mu      sync.Mutex
	entries map[string][]model.RawSearchHit
	getErr  error
	setErr  error
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]model.RawSearchHit)}
}

func (c *memCache) Get(_ context.Context, key string) ([]model.RawSearchHit, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	hits, ok := c.entries[key]
	return hits, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, hits []model.RawSearchHit, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = hits
	return nil
}
