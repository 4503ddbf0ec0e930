package contact

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/pkg/rocketscrape"
)

func searchResp(urls ...string) *rocketscrape.SearchResponse {
	resp := &rocketscrape.SearchResponse{}
	for i, u := range urls {
		resp.Results = append(resp.Results, rocketscrape.Result{
			Title:    "result",
			URL:      u,
			Snippet:  "snippet",
			Position: i + 1,
		})
	}
	return resp
}

func TestPremium_SearchForBusiness(t *testing.T) {
	rc := &mockRocketClient{}
	l := Thai()
	want := l.BusinessQuery("Cafe A", IntentContact)
	rc.On("Search", mock.Anything, rocketscrape.SearchRequest{Query: want, NumResults: 15}).
		Return(searchResp("https://a.example", "https://a.example/", "https://b.example"), nil)

	p := NewPremium(rc, l, WithQueryGap(0))
	hits, err := p.SearchForBusiness(context.Background(), "Cafe A", IntentContact)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, PremiumName, hits[0].Provider)
	assert.Equal(t, want, hits[0].Query)
	assert.Equal(t, "https://b.example", hits[1].URL)
	rc.AssertExpectations(t)
}

func TestPremium_SearchForBusinessError(t *testing.T) {
	rc := &mockRocketClient{}
	rc.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("upstream down"))

	p := NewPremium(rc, Thai(), WithBusinessResults(20))
	_, err := p.SearchForBusiness(context.Background(), "Cafe A", IntentGeneral)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "premium business search")
	assert.Contains(t, err.Error(), "upstream down")
}

func TestPremium_SearchForPerson(t *testing.T) {
	rc := &mockRocketClient{}
	l := Thai()
	queries := l.PersonQueries("สมชาย", "Cafe A")
	rc.On("Search", mock.Anything, rocketscrape.SearchRequest{Query: queries[0], NumResults: 8}).
		Return(searchResp("https://p1.example"), nil).Once()
	rc.On("Search", mock.Anything, rocketscrape.SearchRequest{Query: queries[1], NumResults: 8}).
		Return(nil, errors.New("flaky")).Once()
	rc.On("Search", mock.Anything, rocketscrape.SearchRequest{Query: queries[2], NumResults: 8}).
		Return(searchResp("https://p1.example", "https://p2.example"), nil).Once()

	p := NewPremium(rc, l, WithQueryGap(0))
	hits, err := p.SearchForPerson(context.Background(), "สมชาย", "Cafe A")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://p1.example", hits[0].URL)
	assert.Equal(t, "https://p2.example", hits[1].URL)
	rc.AssertExpectations(t)
}

func TestPremium_SearchForDirectorsViaRegistry(t *testing.T) {
	rc := &mockRocketClient{}
	rc.On("Search", mock.Anything, mock.MatchedBy(func(r rocketscrape.SearchRequest) bool {
		return r.NumResults == 5
	})).Return(searchResp("https://dbd.go.th/x"), nil).Times(4)

	p := NewPremium(rc, Thai(), WithQueryGap(0))
	hits, err := p.SearchForDirectorsViaRegistry(context.Background(), "บริษัท เอ จำกัด")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	rc.AssertExpectations(t)
}

func TestPremium_RegistryAllFail(t *testing.T) {
	rc := &mockRocketClient{}
	rc.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("down"))

	p := NewPremium(rc, Thai(), WithQueryGap(0))
	_, err := p.SearchForDirectorsViaRegistry(context.Background(), "บริษัท เอ จำกัด")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "premium registry search")
}

func TestPremium_Verify(t *testing.T) {
	rc := &mockRocketClient{}
	rc.On("TestAPIKey", mock.Anything).Return(rocketscrape.ErrInvalidKey)

	p := NewPremium(rc, Thai())
	assert.ErrorIs(t, p.Verify(context.Background()), rocketscrape.ErrInvalidKey)
	assert.Equal(t, PremiumName, p.Name())
}
