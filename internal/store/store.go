// Package store persists lead rows and search audit logs.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-finder/internal/model"
)

// DefaultRecentLimit is the history page size used when none is given.
const DefaultRecentLimit = 100

// Store defines the persistence interface for lead searches.
type Store interface {
	// Leads
	SaveLead(ctx context.Context, lead *model.StoredLead) error
	RecentLeads(ctx context.Context, limit int) ([]model.StoredLead, error)

	// Audit logs
	SaveLog(ctx context.Context, entry *model.SearchLog) error
	LogsBySearch(ctx context.Context, searchID string) ([]model.SearchLog, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver ("sqlite" or "postgres"), migrated and
// ready for use. Any other driver is an error.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch driver {
	case "postgres":
		s, err = NewPostgres(ctx, dsn, nil)
	case "sqlite":
		s, err = NewSQLite(dsn)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// fillLead assigns an ID and timestamp to rows that lack them.
func fillLead(l *model.StoredLead) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
}

func fillLog(e *model.SearchLog) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Level == "" {
		e.Level = model.LogInfo
	}
}

func recentLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
