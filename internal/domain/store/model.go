package store

import "time"

// Store is a physical outlet of the chain. Periods are recorded per store.
type Store struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
