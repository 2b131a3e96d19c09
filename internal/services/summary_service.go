// Package services – SummaryService
//
// This file implements behavioral summaries: a window of a user's recent
// messages is assembled into a prompt and sent to a language-model backend,
// and the completion comes back verbatim as the summary text. Summaries are
// deliberately not cached; the history window changes with every message and
// the call is explicit and rare.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultHistoryLimit is how many recent messages feed one summary.
const defaultHistoryLimit = 200

const summarySystemPrompt = "You are an observer of a group chat. Based on the " +
	"user's recent messages, write a short, neutral description of their " +
	"interests, tone, and participation style. Answer in the language the " +
	"user writes in. Do not quote messages verbatim."

// Completer is the language-model contract SummaryService needs.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// SummaryResult is one generated summary.
type SummaryResult struct {
	ChatID       int64  `json:"chat_id"`
	UserID       int64  `json:"user_id"`
	DisplayName  string `json:"display_name"`
	MessagesUsed int    `json:"messages_used"`
	Summary      string `json:"summary"`
}

// SummaryService generates behavioral summaries of chat participants.
type SummaryService struct {
	DB  *gorm.DB
	LLM Completer

	// HistoryLimit overrides defaultHistoryLimit when positive.
	HistoryLimit int
}

func (s *SummaryService) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return defaultHistoryLimit
}

// Summarize builds a summary of userID's recent behavior in chatID.
// An unknown user yields ErrUserNotFound; a known user with no messages in
// the chat yields ErrNoMessages; a missing backend yields
// ErrSummaryUnavailable.
func (s *SummaryService) Summarize(ctx context.Context, chatID, userID int64) (*SummaryResult, error) {
	tr := otel.Tracer("services/SummaryService")
	ctx, span := tr.Start(ctx, "Summarize",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int64("user.id", userID),
		),
	)
	defer span.End()

	if s.LLM == nil {
		return nil, ErrSummaryUnavailable
	}

	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	msgs, err := repo.RecentUserMessages(ctx, s.DB, chatID, userID, s.historyLimit())
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	span.SetAttributes(attribute.Int("messages.used", len(msgs)))

	// Oldest first reads more naturally in the prompt.
	var b strings.Builder
	fmt.Fprintf(&b, "Recent messages by %s, oldest first:\n", displayName(u))
	for i := len(msgs) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "- %s\n", msgs[i].Text)
	}

	reply, err := s.LLM.Complete(ctx, summarySystemPrompt, b.String())
	if err != nil {
		return nil, fmt.Errorf("summarize user %d: %w", userID, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, ErrSummaryUnavailable
	}

	return &SummaryResult{
		ChatID:       chatID,
		UserID:       userID,
		DisplayName:  displayName(u),
		MessagesUsed: len(msgs),
		Summary:      reply,
	}, nil
}
