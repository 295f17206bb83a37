package domain

import "time"

// Idempotency records the outcome of a completed message append, keyed by
// (session_id, key). A retried POST carrying the same Idempotency-Key replays
// the originally persisted user/model pair instead of re-running generation.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	SessionID      string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_session_key,priority:1"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_session_key,priority:2"`
	UserMessageID  string    `gorm:"type:TEXT NOT NULL"`
	ModelMessageID string    `gorm:"type:TEXT NOT NULL"`
	// GenerationFailed records whether the original pair carried the failure
	// notice, so a replay reports the same outcome.
	GenerationFailed bool `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
