package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/db"
	"github.com/sells-group/lead-finder/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	insertLeadSQL = `INSERT INTO leads (id, search_id, company_name, lead_name, lead_title, email, phone, search_phase, target_url, search_step, keywords, location, radius_km, premium_used, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	recentLeadsSQL = `SELECT id, search_id, company_name, lead_name, lead_title, email, phone, search_phase, target_url, search_step, keywords, location, radius_km, premium_used, created_at
FROM leads ORDER BY created_at DESC LIMIT $1`
	insertLogSQL    = `INSERT INTO search_logs (id, search_id, company_name, log_level, message, details, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	logsBySearchSQL = `SELECT id, search_id, company_name, log_level, message, details, created_at FROM search_logs WHERE search_id = $1 ORDER BY created_at ASC`
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(5)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	radius_km    DOUBLE PRECISION NOT NULL DEFAULT 0,
	premium_used BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS search_logs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	search_id    TEXT NOT NULL,
	company_name TEXT NOT NULL DEFAULT '',
	log_level    TEXT NOT NULL CHECK (log_level IN ('info', 'warning', 'error', 'debug')),
	message      TEXT NOT NULL,
	details      JSONB,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_search_id ON leads(search_id);
CREATE INDEX IF NOT EXISTS idx_search_logs_search_id ON search_logs(search_id, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
		return nil
	}
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, l *model.StoredLead) error {
	fillLead(l)
	_, err := s.pool.Exec(ctx, insertLeadSQL,
		l.ID, l.SearchID, l.Lead.CompanyName, l.Lead.LeadName, l.Lead.LeadTitle, l.Lead.Email, l.Lead.Phone,
		l.Lead.SearchPhase, l.Lead.TargetURL, l.Lead.SearchStep, l.Keywords, l.Location, l.RadiusKm, l.PremiumUsed, l.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert lead for %s", l.SearchID)
}

func (s *PostgresStore) RecentLeads(ctx context.Context, limit int) ([]model.StoredLead, error) {
	rows, err := s.pool.Query(ctx, recentLeadsSQL, recentLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: recent leads")
	}
	defer rows.Close()

	var leads []model.StoredLead
	for rows.Next() {
		var l model.StoredLead
		if err := rows.Scan(
			&l.ID, &l.SearchID, &l.Lead.CompanyName, &l.Lead.LeadName, &l.Lead.LeadTitle, &l.Lead.Email, &l.Lead.Phone,
			&l.Lead.SearchPhase, &l.Lead.TargetURL, &l.Lead.SearchStep, &l.Keywords, &l.Location, &l.RadiusKm, &l.PremiumUsed, &l.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: recent leads iterate")
}

func (s *PostgresStore) SaveLog(ctx context.Context, e *model.SearchLog) error {
	fillLog(e)
	var details []byte
	if len(e.Details) > 0 {
		details = e.Details
	}
	_, err := s.pool.Exec(ctx, insertLogSQL,
		e.ID, e.SearchID, e.CompanyName, string(e.Level), e.Message, details, e.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert log for %s", e.SearchID)
}

func (s *PostgresStore) LogsBySearch(ctx context.Context, searchID string) ([]model.SearchLog, error) {
	rows, err := s.pool.Query(ctx, logsBySearchSQL, searchID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: logs for %s", searchID)
	}
	defer rows.Close()

	var logs []model.SearchLog
	for rows.Next() {
		var (
			e       model.SearchLog
			level   string
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.SearchID, &e.CompanyName, &level, &e.Message, &details, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan log")
		}
		e.Level = model.LogLevel(level)
		if len(details) > 0 {
			e.Details = details
		}
		logs = append(logs, e)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: logs iterate")
}
