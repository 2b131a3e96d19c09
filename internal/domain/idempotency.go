// Idempotency record backing the HTTP ingestion endpoint. The Telegram
// long-polling transport deduplicates by update id on its own; the HTTP
// endpoint instead honors an Idempotency-Key header so that client retries
// do not double-log a message.
package domain

import "time"

// Idempotency stores the outcome of a previously processed ingestion
// request, keyed by (chat_id, key). Replays within the TTL window return the
// originally created message id without re-inserting.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ChatID    int64     `gorm:"not null;uniqueIndex:ux_chat_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_chat_key,priority:2"`
	MessageID uint      `gorm:"not null"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
