// Package domain defines the persistence models for subscribers, conversation
// sessions, messages, feedback, analytics events, and articles. These types
// are mapped with GORM and form the data layer of the up2d8 backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Message roles. A session log alternates user turns and model turns; every
// append produces exactly one of each.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Source is a grounding citation attached to a model message: a reference the
// generative provider returned to support its answer. Citations without a URI
// are dropped before persistence.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// User represents a subscriber. Users are created once via subscription and
// mutated only by partial update; they are never deleted.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), generated server-side.
//   - Email: unique, format-validated at the service layer.
//   - Topics: set of tracked topics, non-empty at creation.
//   - Preferences: opaque key/value preference map, replaced wholesale on update.
type User struct {
	ID          string                       `json:"user_id"     gorm:"type:char(36);primaryKey"`
	Email       string                       `json:"email"       gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Topics      datatypes.JSONSlice[string]  `json:"topics"      gorm:"not null"`
	Preferences datatypes.JSONMap            `json:"preferences"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Session is a named conversation thread. It belongs to exactly one user for
// its entire lifetime and is never mutated after creation.
type Session struct {
	ID        string    `json:"session_id" gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index:idx_user_sessions"`
	Title     string    `json:"title"      gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`

	// User is the owning subscriber.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// Message is a single turn within a session, authored by either the user or
// the model. Messages are immutable once persisted.
//
// Within a session, CreatedAt is strictly increasing in insertion order (the
// store layer enforces this), so the persisted order is never ambiguous.
// Sources is populated only on model turns and may be empty.
type Message struct {
	ID        string                      `json:"message_id" gorm:"type:char(36);primaryKey"`
	SessionID string                      `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Role      string                      `json:"role"       gorm:"type:varchar(8);not null;check:role IN ('user','model')"`
	Content   string                      `json:"content"    gorm:"type:text"`
	Sources   datatypes.JSONSlice[Source] `json:"sources,omitempty"`
	CreatedAt time.Time                   `json:"timestamp"  gorm:"index:idx_session_msgs,priority:2"`

	// Session is the parent thread. Messages are cascade-deleted with it.
	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Feedback is a user-submitted rating on a specific message. Feedback intake
// is a single independent insert with no ordering or atomicity requirement.
type Feedback struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MessageID string    `json:"message_id" gorm:"type:char(36);not null;index"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index"`
	Rating    string    `json:"rating"     gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// AnalyticsEvent is a product-analytics record: one independent insert per
// reported event.
type AnalyticsEvent struct {
	ID        string            `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string            `json:"user_id"    gorm:"type:char(36);not null;index"`
	EventType string            `json:"event_type" gorm:"type:varchar(64);not null"`
	Details   datatypes.JSONMap `json:"details"`
	CreatedAt time.Time         `json:"created_at"`
}

// TableName returns the database table name for AnalyticsEvent.
func (AnalyticsEvent) TableName() string { return "analytics_events" }

// Article is a curated, read-only catalogue entry served by the articles API.
type Article struct {
	ID          string                      `json:"id"        gorm:"type:char(36);primaryKey"`
	Title       string                      `json:"title"     gorm:"type:varchar(255);not null"`
	Summary     string                      `json:"summary"   gorm:"type:text"`
	URL         string                      `json:"url"       gorm:"type:varchar(2048)"`
	Topics      datatypes.JSONSlice[string] `json:"topics"`
	PublishedAt time.Time                   `json:"published_at"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string { return "articles" }
