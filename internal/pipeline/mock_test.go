package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/lead-finder/internal/contact"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/resolver"
)

type mockFinder struct{ mock.Mock }

func (m *mockFinder) FindPlaces(ctx context.Context, keywords string, center model.LatLng, radius float64, limit int) ([]model.Place, error) {
	args := m.Called(ctx, keywords, center, radius, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Place), args.Error(1)
}

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) SearchForBusiness(ctx context.Context, name string, intent contact.Intent) ([]model.RawSearchHit, error) {
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

// mockVerifyingSource adds the credential probe.
type mockVerifyingSource struct {
	mockSource
}

func (m *mockVerifyingSource) Verify(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockResolver struct{ mock.Mock }

func (m *mockResolver) Resolve(ctx context.Context, rawText string, targetTitles []string, companyName string) (*resolver.Resolution, error) {
	args := m.Called(ctx, rawText, targetTitles, companyName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resolver.Resolution), args.Error(1)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) SaveLead(ctx context.Context, lead *model.StoredLead) error {
	return m.Called(ctx, lead).Error(0)
}

func (m *mockRecorder) SaveLog(ctx context.Context, entry *model.SearchLog) error {
	return m.Called(ctx, entry).Error(0)
}

func newPremium() *mockSource { return &mockSource{name: contact.PremiumName} }

func newBasic() *mockSource { return &mockSource{name: contact.BasicName} }
