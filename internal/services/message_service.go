// Package services – MessageService
//
// This file implements MessageService, the write path of the logger. Every
// incoming group message is persisted together with a refreshed snapshot of
// its sender's identity, atomically, so the analytics queries never observe
// a message whose sender row is missing or stale.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// IncomingMessage carries one message to be logged, as received from the
// transport (bot update or HTTP request).
type IncomingMessage struct {
	ChatID    int64
	UserID    int64
	Username  string
	FirstName string
	LastName  string
	Text      string
}

// MessageService owns message persistence.
type MessageService struct {
	DB *gorm.DB

	// MaxTextRunes caps stored message text by rune length; longer texts are
	// clipped, not rejected, because a log must not drop real traffic.
	// Zero means unlimited.
	MaxTextRunes int
}

// Log validates and persists one message. The sender row is upserted first so
// username changes propagate, then the message is inserted; both happen in
// one transaction.
func (s *MessageService) Log(ctx context.Context, in IncomingMessage) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Log",
		trace.WithAttributes(
			attribute.Int64("chat.id", in.ChatID),
			attribute.Int64("user.id", in.UserID),
		),
	)
	defer span.End()

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(text) > s.MaxTextRunes {
		text = string([]rune(text)[:s.MaxTextRunes])
	}

	var msg *domain.Message
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.UpsertUser(ctx, tx, in.UserID, in.Username, in.FirstName, in.LastName); err != nil {
			return err
		}
		m, err := repo.CreateMessage(ctx, tx, in.UserID, in.ChatID, text)
		if err != nil {
			return err
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
