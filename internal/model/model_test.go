package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() SearchRequest {
	return SearchRequest{
		Keywords:     "ร้านกาแฟ",
		TargetTitles: []string{"เจ้าของ", "ผู้จัดการ"},
		Location:     LatLng{Lat: 13.75, Lng: 100.50},
		RadiusMeters: 5000,
		ResultLimit:  2,
	}
}

func TestSearchRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(r *SearchRequest)
		wantErr string
	}{
		{name: "valid", mutate: func(*SearchRequest) {}},
		{name: "no keywords", mutate: func(r *SearchRequest) { r.Keywords = "" }, wantErr: "keywords"},
		{name: "no titles", mutate: func(r *SearchRequest) { r.TargetTitles = nil }, wantErr: "target title"},
		{name: "zero radius", mutate: func(r *SearchRequest) { r.RadiusMeters = 0 }, wantErr: "radius"},
		{name: "zero limit", mutate: func(r *SearchRequest) { r.ResultLimit = 0 }, wantErr: "result limit"},
		{name: "bad latitude", mutate: func(r *SearchRequest) { r.Location.Lat = 91 }, wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSearchRequestRadiusKm(t *testing.T) {
	r := validRequest()
	assert.InDelta(t, 5.0, r.RadiusKm(), 0.0001)
}

func TestLatLngString(t *testing.T) {
	assert.Equal(t, "13.75,100.5", LatLng{Lat: 13.75, Lng: 100.5}.String())
}

func TestErrorLead(t *testing.T) {
	lead := ErrorLead("Cafe A")

	assert.Equal(t, "Cafe A", lead.CompanyName)
	assert.Equal(t, NotAvailable, lead.LeadName)
	assert.Equal(t, NotAvailable, lead.LeadTitle)
	assert.Equal(t, NoEmail, lead.Email)
	assert.Equal(t, NotAvailable, lead.Phone)
	assert.Equal(t, NotAvailable, lead.TargetURL)
	assert.Equal(t, 0, lead.SearchStep)
	assert.True(t, lead.IsError())
	assert.False(t, lead.HasEmail())
}

func TestResultEventCopiesRecord(t *testing.T) {
	lead := LeadRecord{CompanyName: "Cafe A", Email: "a@cafe.co.th"}
	ev := ResultEvent(lead)
	lead.Email = NoEmail

	require.NotNil(t, ev.Data)
	assert.Equal(t, EventResult, ev.Type)
	assert.Equal(t, "a@cafe.co.th", ev.Data.Email)
	assert.True(t, ev.Data.HasEmail())
}
