// Package domain defines the persistence models for logged Telegram users
// and messages, plus the derived analytics types computed from them. The
// persisted types are mapped with GORM and form the core data layer of the
// chat logger.
package domain

import (
	"time"
)

// User represents a Telegram account observed in a logged group chat.
// The primary key is the platform-assigned identifier, so a user row is
// shared across every chat the bot logs. Rows are upserted on every observed
// message and never deleted by the application.
//
// Fields:
//   - ID: Telegram user id (int64, assigned by the platform).
//   - Username: optional @handle; may change over time and is refreshed on upsert.
//   - FirstName / LastName: optional display names, refreshed on upsert.
//   - CreatedAt: when the user was first observed.
type User struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement:false"`
	Username  string    `json:"username"   gorm:"type:varchar(64);index"`
	FirstName string    `json:"first_name" gorm:"type:varchar(128)"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(128)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Message represents a single logged group-chat message. Messages are the
// source of truth for every statistic and search result; cache entries must
// always be reproducible from this table alone.
//
// Fields:
//   - ID: monotonic autoincrement primary key.
//   - UserID: sender (FK to users, cascade delete with the user).
//   - ChatID: Telegram chat id; the scope for all aggregation and search.
//   - Text: non-empty message body.
//   - CreatedAt: server-assigned timestamp, indexed together with ChatID for
//     descending recency scans.
type Message struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	UserID    int64     `json:"user_id"    gorm:"not null;index"`
	ChatID    int64     `json:"chat_id"    gorm:"not null;index:idx_chat_created,priority:1"`
	Text      string    `json:"text"       gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_chat_created,priority:2"`

	// User is the sender. Messages are cascade-deleted if the user row is
	// ever removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// StatsSnapshot is the derived activity window for one user: how many
// messages matched the requested period and when the first and last of them
// were sent. It is computed on demand and only ever serialized inside cache
// entries, never persisted as a table.
type StatsSnapshot struct {
	MessageCount int64      `json:"message_count"`
	FirstMessage *time.Time `json:"first_message,omitempty"`
	LastMessage  *time.Time `json:"last_message,omitempty"`
}

// UserCount is one row of a per-chat activity ranking: a sender and the
// number of messages they produced within the requested period.
type UserCount struct {
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Count     int64  `json:"count"`
}

// DisplayName returns the friendliest available identifier for the ranked
// user: the @handle when set, otherwise the first name. Callers fall back to
// the raw id when both are empty.
func (u UserCount) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}
