// Package repo implements the data persistence layer for logged users and
// messages, backed by GORM. This file provides the aggregate queries behind
// chat and user statistics. Each function takes an optional lower time bound
// (nil means unbounded) produced from a domain.Period.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/domain"
)

// withSince applies the optional created_at lower bound.
func withSince(q *gorm.DB, since *time.Time) *gorm.DB {
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	return q
}

// statsWindow computes count/first/last over whatever scope base selects.
// It returns nil (no error) when the scope is empty.
//
// The first/last timestamps are fetched with ORDER BY + LIMIT 1 instead of
// MIN()/MAX(), which SQLite would degrade to TEXT. base must return a fresh
// chain on every call: reusing one chain across several finishers would
// accumulate ORDER BY clauses.
func statsWindow(base func() *gorm.DB) (*domain.StatsSnapshot, error) {
	var count int64
	if err := base().Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	var first, last struct {
		CreatedAt time.Time
	}
	if err := base().Select("created_at").Order("created_at ASC, id ASC").Limit(1).Scan(&first).Error; err != nil {
		return nil, err
	}
	if err := base().Select("created_at").Order("created_at DESC, id DESC").Limit(1).Scan(&last).Error; err != nil {
		return nil, err
	}

	return &domain.StatsSnapshot{
		MessageCount: count,
		FirstMessage: &first.CreatedAt,
		LastMessage:  &last.CreatedAt,
	}, nil
}

// ChatStats computes the activity window of an entire chat: message count
// plus the timestamps of the earliest and latest messages inside the
// optional time bound. Empty chats yield nil.
func ChatStats(ctx context.Context, db *gorm.DB, chatID int64, since *time.Time) (*domain.StatsSnapshot, error) {
	return statsWindow(func() *gorm.DB {
		return withSince(
			db.WithContext(ctx).Model(&domain.Message{}).Where("chat_id = ?", chatID),
			since,
		)
	})
}

// UserStats computes the activity window for one user within one chat.
// It returns nil (no error) when the user has no matching messages.
func UserStats(ctx context.Context, db *gorm.DB, chatID, userID int64, since *time.Time) (*domain.StatsSnapshot, error) {
	return statsWindow(func() *gorm.DB {
		return withSince(
			db.WithContext(ctx).Model(&domain.Message{}).
				Where("chat_id = ? AND user_id = ?", chatID, userID),
			since,
		)
	})
}

// TopUsers ranks every sender in the chat by message count within the
// optional window. Ties break by ascending user id so the ranking is
// deterministic.
func TopUsers(ctx context.Context, db *gorm.DB, chatID int64, since *time.Time) ([]domain.UserCount, error) {
	q := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.user_id AS user_id, users.username AS username, users.first_name AS first_name, COUNT(*) AS count").
		Joins("JOIN users ON users.id = messages.user_id").
		Where("messages.chat_id = ?", chatID)
	if since != nil {
		q = q.Where("messages.created_at >= ?", *since)
	}

	var out []domain.UserCount
	err := q.
		Group("messages.user_id, users.username, users.first_name").
		Order("count DESC, messages.user_id ASC").
		Scan(&out).Error
	return out, err
}
