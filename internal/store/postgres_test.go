package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-finder/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var leadColumns = []string{
	"id", "search_id", "company_name", "lead_name", "lead_title", "email", "phone",
	"search_phase", "target_url", "search_step", "keywords", "location", "radius_km", "premium_used", "created_at",
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLead(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	lead := sampleLead("s1", "Cafe A", time.Time{})

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(
			pgxmock.AnyArg(), "s1", "Cafe A", "สมชาย ใจดี", "ผู้จัดการ", "info@cafea.co.th", "081-234-5678",
			"premium API direct (3 sources)", "https://cafea.co.th", 1, "ร้านกาแฟ", "13.75,100.5", 5.0, true, pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveLead(context.Background(), lead))
	assert.NotEmpty(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLead_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection refused"))

	err := s.SaveLead(context.Background(), sampleLead("s1", "Cafe A", time.Time{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert lead")
	assert.Contains(t, err.Error(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecentLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := pgxmock.NewRows(leadColumns).
		AddRow("id-2", "s1", "Cafe B", "N/A", "N/A", "none", "N/A", "basic fallback (0 sources)", "N/A", 1, "cafe", "13.75,100.5", 5.0, false, now).
		AddRow("id-1", "s1", "Cafe A", "สมชาย", "ผู้จัดการ", "a@b.co", "02-123-4567", "premium API direct (2 sources)", "https://a.co", 1, "cafe", "13.75,100.5", 5.0, true, now.Add(-time.Minute))
	mock.ExpectQuery(`SELECT .+ FROM leads ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(DefaultRecentLimit).
		WillReturnRows(rows)

	leads, err := s.RecentLeads(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "id-2", leads[0].ID)
	assert.Equal(t, "Cafe A", leads[1].Lead.CompanyName)
	assert.True(t, leads[1].PremiumUsed)
	assert.Equal(t, now, leads[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecentLeads_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM leads`).WithArgs(10).WillReturnError(errors.New("timeout"))

	_, err := s.RecentLeads(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recent leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO search_logs`).
		WithArgs(pgxmock.AnyArg(), "s1", "Cafe A", "warning", "premium failed", []byte(`{"err":"401"}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveLog(context.Background(), &model.SearchLog{
		SearchID:    "s1",
		CompanyName: "Cafe A",
		Level:       model.LogWarning,
		Message:     "premium failed",
		Details:     json.RawMessage(`{"err":"401"}`),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LogsBySearch(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "search_id", "company_name", "log_level", "message", "details", "created_at"}).
		AddRow("l1", "s1", "", "info", "search started", []byte(`{"places":2}`), now).
		AddRow("l2", "s1", "Cafe A", "error", "place failed", []byte{}, now.Add(time.Second))
	mock.ExpectQuery(`SELECT .+ FROM search_logs WHERE search_id = \$1 ORDER BY created_at ASC`).
		WithArgs("s1").
		WillReturnRows(rows)

	logs, err := s.LogsBySearch(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.LogInfo, logs[0].Level)
	assert.JSONEq(t, `{"places":2}`, string(logs[0].Details))
	assert.Equal(t, model.LogError, logs[1].Level)
	assert.Nil(t, logs[1].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	called := false
	s := &PostgresStore{closeFn: func() { called = true }}
	require.NoError(t, s.Close())
	assert.True(t, called)
}
