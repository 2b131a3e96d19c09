// Package repo implements the data persistence layer for logged users and
// messages, backed by GORM. This file provides repository functions for the
// Message model, including the SQL half of the search engine: literal
// (substring) matching is pushed down as a LIKE predicate, while regex
// matching is served by a bounded descending scan filtered in Go (SQLite has
// no built-in REGEXP function).
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/domain"
)

// CreateMessage inserts a new message row. Callers are responsible for
// upserting the sender first (a message must always reference an existing
// user); the ingestion service does both inside one transaction.
func CreateMessage(ctx context.Context, db *gorm.DB, userID, chatID int64, text string) (*domain.Message, error) {
	m := &domain.Message{
		UserID:    userID,
		ChatID:    chatID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	return m, db.WithContext(ctx).Create(m).Error
}

// GetMessage fetches one message by primary key, with its sender attached.
func GetMessage(ctx context.Context, db *gorm.DB, id uint) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Preload("User").First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// escapeLike neutralizes LIKE metacharacters so a literal query containing
// '%' or '_' matches only verbatim occurrences.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// likePattern builds the case-folded containment pattern for a literal query.
func likePattern(query string) string {
	return "%" + escapeLike(strings.ToLower(query)) + "%"
}

// SearchMessagesLike returns one page of messages in the chat whose text
// contains query (case-insensitive), ordered by descending creation time.
// Ordering ties on identical timestamps break by descending id so pages
// never overlap.
func SearchMessagesLike(ctx context.Context, db *gorm.DB, chatID int64, query string, limit, offset int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Preload("User").
		Where("chat_id = ? AND LOWER(text) LIKE ? ESCAPE '\\'", chatID, likePattern(query)).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

// CountMessagesLike returns the total number of literal matches for query in
// the chat.
func CountMessagesLike(ctx context.Context, db *gorm.DB, chatID int64, query string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("chat_id = ? AND LOWER(text) LIKE ? ESCAPE '\\'", chatID, likePattern(query)).
		Count(&total).Error
	return total, err
}

// ListChatMessages returns up to scanCap messages of the chat in descending
// creation order. The regex search path filters this scan in Go, so scanCap
// bounds both memory and the window regex totals are exact within.
func ListChatMessages(ctx context.Context, db *gorm.DB, chatID int64, scanCap int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Preload("User").
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC")
	if scanCap > 0 {
		q = q.Limit(scanCap)
	}
	err := q.Find(&out).Error
	return out, err
}

// RecentUserMessages returns the newest messages a user sent in the chat,
// newest first. Used to assemble the history window for behavioral
// summaries.
func RecentUserMessages(ctx context.Context, db *gorm.DB, chatID, userID int64, limit int) ([]domain.Message, error) {
	var out []domain.Message
	q := db.WithContext(ctx).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
