package shared

import "time"

// BaseEntity carries the identity and timestamps shared by ledger records.
// IDs are assigned by the store on insert, so zero means not yet persisted.
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity stamped with the current time
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{CreatedAt: now, UpdatedAt: now}
}

// Touch sets UpdatedAt to now
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
