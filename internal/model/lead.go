package model

import "time"

// Sentinel values for fields that were intentionally left empty.
const (
	NotAvailable = "N/A"
	NoEmail      = "none"
)

// Search phase labels.
const (
	PhaseError = "Error"
)

// LeadRecord is the final contact record produced for one place.
type LeadRecord struct {
	CompanyName string `json:"companyName"`
	LeadName    string `json:"leadName"`
	LeadTitle   string `json:"leadTitle"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SearchPhase string `json:"searchPhase"`
	TargetURL   string `json:"targetUrl"`
	SearchStep  int    `json:"searchStep"`
}

// ErrorLead returns the all-sentinel record emitted when a place fails.
func ErrorLead(companyName string) LeadRecord {
	return LeadRecord{
		CompanyName: companyName,
		LeadName:    NotAvailable,
		LeadTitle:   NotAvailable,
		Email:       NoEmail,
		Phone:       NotAvailable,
		SearchPhase: PhaseError,
		TargetURL:   NotAvailable,
		SearchStep:  0,
	}
}

// HasEmail reports whether the record carries a real email address.
func (l LeadRecord) HasEmail() bool {
	return l.Email != "" && l.Email != NoEmail
}

// IsError reports whether the record is an error placeholder.
func (l LeadRecord) IsError() bool {
	return l.SearchPhase == PhaseError
}

// StoredLead is a persisted lead row with its run metadata.
type StoredLead struct {
	ID          string     `json:"id"`
	SearchID    string     `json:"search_id"`
	Lead        LeadRecord `json:"lead"`
	Keywords    string     `json:"keywords"`
	Location    string     `json:"location"`
	RadiusKm    float64    `json:"radius_km"`
	PremiumUsed bool       `json:"premium_used"`
	CreatedAt   time.Time  `json:"created_at"`
}
