package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeStoreCreated   ActivityType = "store_created"
	TypePeriodAdmitted ActivityType = "period_admitted"
	TypePeriodRevised  ActivityType = "period_revised"
	TypePeriodRetired  ActivityType = "period_retired"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeStoreCreated, TypePeriodAdmitted, TypePeriodRevised, TypePeriodRetired:
		return true
	}
	return false
}

// ActivityEntry represents an event in the audit log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	StoreID      *int64       `json:"store_id,omitempty"`
	PeriodID     *string      `json:"period_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
