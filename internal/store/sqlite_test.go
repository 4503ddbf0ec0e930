package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleLead(searchID, company string, at time.Time) *model.StoredLead {
	return &model.StoredLead{
		SearchID: searchID,
		Lead: model.LeadRecord{
			CompanyName: company,
			LeadName:    "สมชาย ใจดี",
			LeadTitle:   "ผู้จัดการ",
			Email:       "info@cafea.co.th",
			Phone:       "081-234-5678",
			SearchPhase: "premium API direct (3 sources)",
			TargetURL:   "https://cafea.co.th",
			SearchStep:  1,
		},
		Keywords:    "ร้านกาแฟ",
		Location:    "13.75,100.5",
		RadiusKm:    5,
		PremiumUsed: true,
		CreatedAt:   at,
	}
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_SaveAndRecentLeads(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first := sampleLead("s1", "Cafe A", base)
	second := sampleLead("s1", "Cafe B", base.Add(time.Minute))
	require.NoError(t, s.SaveLead(ctx, first))
	require.NoError(t, s.SaveLead(ctx, second))
	assert.NotEmpty(t, first.ID)

	leads, err := s.RecentLeads(ctx, 0)
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "Cafe B", leads[0].Lead.CompanyName)
	assert.Equal(t, "Cafe A", leads[1].Lead.CompanyName)

	got := leads[1]
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, first.Lead, got.Lead)
	assert.Equal(t, "ร้านกาแฟ", got.Keywords)
	assert.Equal(t, "13.75,100.5", got.Location)
	assert.Equal(t, 5.0, got.RadiusKm)
	assert.True(t, got.PremiumUsed)
	assert.True(t, base.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)
}

func TestSQLite_RecentLeadsLimit(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveLead(ctx, sampleLead("s1", "Cafe", base.Add(time.Duration(i)*time.Second))))
	}

	leads, err := s.RecentLeads(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, leads, 3)
}

func TestSQLite_RecentLeadsEmpty(t *testing.T) {
	s := newTestSQLite(t)
	leads, err := s.RecentLeads(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestSQLite_Logs(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.SaveLog(ctx, &model.SearchLog{
		SearchID:  "s1",
		Level:     model.LogInfo,
		Message:   "search started",
		Details:   json.RawMessage(`{"places":2}`),
		CreatedAt: base,
	}))
	require.NoError(t, s.SaveLog(ctx, &model.SearchLog{
		SearchID:    "s1",
		CompanyName: "Cafe A",
		Level:       model.LogWarning,
		Message:     "premium failed",
		CreatedAt:   base.Add(time.Second),
	}))
	require.NoError(t, s.SaveLog(ctx, &model.SearchLog{SearchID: "other", Message: "unrelated"}))

	logs, err := s.LogsBySearch(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "search started", logs[0].Message)
	assert.Equal(t, model.LogInfo, logs[0].Level)
	assert.JSONEq(t, `{"places":2}`, string(logs[0].Details))

	assert.Equal(t, "Cafe A", logs[1].CompanyName)
	assert.Equal(t, model.LogWarning, logs[1].Level)
	assert.Nil(t, logs[1].Details)

	other, err := s.LogsBySearch(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, model.LogInfo, other[0].Level, "level defaults to info")
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	require.NoError(t, s.SaveLead(context.Background(), sampleLead("s1", "Cafe A", time.Time{})))
	leads, err := s.RecentLeads(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "://bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: parse config")
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "leads.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}
