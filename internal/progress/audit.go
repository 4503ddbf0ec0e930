package progress

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/model"
)

// LogWriter persists audit log entries.
type LogWriter interface {
	SaveLog(ctx context.Context, entry *model.SearchLog) error
}

// AuditSink writes status, error, and stopped events to the search log.
// Result events are recorded as a short info entry. Write failures are
// logged and otherwise ignored.
type AuditSink struct {
	w       LogWriter
	timeout time.Duration
}

// NewAuditSink returns an AuditSink over w.
func NewAuditSink(w LogWriter) *AuditSink {
	return &AuditSink{w: w, timeout: 5 * time.Second}
}

// Emit implements Sink.
func (a *AuditSink) Emit(ev model.Event) {
	entry := &model.SearchLog{
		SearchID: ev.SearchID,
		Message:  ev.Message,
		Level:    levelFor(ev.Type),
	}
	if ev.Type == model.EventResult && ev.Data != nil {
		entry.CompanyName = ev.Data.CompanyName
		entry.Message = "lead emitted"
		if details, err := json.Marshal(ev.Data); err == nil {
			entry.Details = details
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()
	if err := a.w.SaveLog(ctx, entry); err != nil {
		zap.L().Warn("progress: audit log write failed",
			zap.String("search_id", ev.SearchID),
			zap.String("event", string(ev.Type)),
			zap.Error(err),
		)
	}
}

func levelFor(t model.EventType) model.LogLevel {
	switch t {
	case model.EventError:
		return model.LogError
	case model.EventStopped:
		return model.LogWarning
	default:
		return model.LogInfo
	}
}
