package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-finder/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	search_id    TEXT NOT NULL,
	company_name TEXT NOT NULL,
	lead_name    TEXT NOT NULL,
	lead_title   TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone        TEXT NOT NULL,
	search_phase TEXT NOT NULL,
	target_url   TEXT NOT NULL,
	search_step  INTEGER NOT NULL DEFAULT 0,
	keywords     TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	radius_km    REAL NOT NULL DEFAULT 0,
	premium_used INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS search_logs (
	id           TEXT PRIMARY KEY,
	search_id    TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	log_level    TEXT NOT NULL,
	message      TEXT NOT NULL,
	details      TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_search_id ON leads(search_id);
CREATE INDEX IF NOT EXISTS idx_search_logs_search_id ON search_logs(search_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLead(ctx context.Context, l *model.StoredLead) error {
	fillLead(l)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, search_id, company_name, lead_name, lead_title, email, phone, search_phase, target_url, search_step, keywords, location, radius_km, premium_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.SearchID, l.Lead.CompanyName, l.Lead.LeadName, l.Lead.LeadTitle, l.Lead.Email, l.Lead.Phone,
		l.Lead.SearchPhase, l.Lead.TargetURL, l.Lead.SearchStep, l.Keywords, l.Location, l.RadiusKm, l.PremiumUsed, l.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert lead for %s", l.SearchID)
}

func (s *SQLiteStore) RecentLeads(ctx context.Context, limit int) ([]model.StoredLead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, search_id, company_name, lead_name, lead_title, email, phone, search_phase, target_url, search_step, keywords, location, radius_km, premium_used, created_at
		 FROM leads ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		recentLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: recent leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.StoredLead
	for rows.Next() {
		var l model.StoredLead
		if err := rows.Scan(
			&l.ID, &l.SearchID, &l.Lead.CompanyName, &l.Lead.LeadName, &l.Lead.LeadTitle, &l.Lead.Email, &l.Lead.Phone,
			&l.Lead.SearchPhase, &l.Lead.TargetURL, &l.Lead.SearchStep, &l.Keywords, &l.Location, &l.RadiusKm, &l.PremiumUsed, &l.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: recent leads iterate")
}

func (s *SQLiteStore) SaveLog(ctx context.Context, e *model.SearchLog) error {
	fillLog(e)
	var details sql.NullString
	if len(e.Details) > 0 {
		details = sql.NullString{String: string(e.Details), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_logs (id, search_id, company_name, log_level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SearchID, e.CompanyName, string(e.Level), e.Message, details, e.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert log for %s", e.SearchID)
}

func (s *SQLiteStore) LogsBySearch(ctx context.Context, searchID string) ([]model.SearchLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, search_id, company_name, log_level, message, details, created_at
		 FROM search_logs WHERE search_id = ? ORDER BY created_at ASC, rowid ASC`,
		searchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: logs for %s", searchID)
	}
	defer rows.Close() //nolint:errcheck

	var logs []model.SearchLog
	for rows.Next() {
		var (
			e       model.SearchLog
			level   string
			details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SearchID, &e.CompanyName, &level, &e.Message, &details, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan log")
		}
		e.Level = model.LogLevel(level)
		if details.Valid && details.String != "" {
			e.Details = json.RawMessage(details.String)
		}
		logs = append(logs, e)
	}
	return logs, eris.Wrap(rows.Err(), "sqlite: logs iterate")
}
