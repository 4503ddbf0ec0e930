package model

import (
	"encoding/json"
	"time"
)

// LogLevel is the severity of a search audit log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
	LogDebug   LogLevel = "debug"
)

// SearchLog is one audit log entry for a search run.
type SearchLog struct {
	ID          string          `json:"id"`
	SearchID    string          `json:"search_id"`
	CompanyName string          `json:"company_name"`
	Level       LogLevel        `json:"log_level"`
	Message     string          `json:"message"`
	Details     json.RawMessage `json:"details,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
