// Package services – StatsService
//
// This file implements the uncached analytics reads: chat-wide statistics,
// per-user statistics, and the ranked user list. Results are plain value
// types so the caching layer above can serialize them verbatim.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/repo"
	"github.com/ghrenier/tg-chatlog/internal/sysutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ChatStatsResult is the chat-wide aggregate for one period.
type ChatStatsResult struct {
	ChatID       int64         `json:"chat_id"`
	Period       domain.Period `json:"period"`
	MessageCount int64         `json:"message_count"`
	FirstMessage *time.Time    `json:"first_message,omitempty"`
	LastMessage  *time.Time    `json:"last_message,omitempty"`
	TopUsers     []RankedUser  `json:"top_users"`
	Cached       bool          `json:"cached"`
}

// RankedUser is one row of the per-chat activity ranking.
type RankedUser struct {
	UserID       int64  `json:"user_id"`
	DisplayName  string `json:"display_name"`
	MessageCount int64  `json:"message_count"`
}

// UserStatsResult is one user's aggregate within one chat and period.
type UserStatsResult struct {
	ChatID       int64         `json:"chat_id"`
	UserID       int64         `json:"user_id"`
	DisplayName  string        `json:"display_name"`
	Period       domain.Period `json:"period"`
	MessageCount int64         `json:"message_count"`
	FirstMessage *time.Time    `json:"first_message,omitempty"`
	LastMessage  *time.Time    `json:"last_message,omitempty"`
	Cached       bool          `json:"cached"`
}

// UsersListResult is the full ranked sender list of a chat, all-time.
type UsersListResult struct {
	ChatID int64        `json:"chat_id"`
	Users  []RankedUser `json:"users"`
	Cached bool         `json:"cached"`
}

// topUsersLimit bounds how many ranked users chat stats embed; the full list
// endpoint is unbounded.
const topUsersLimit = 5

// StatsService computes analytics aggregates straight from storage.
type StatsService struct {
	DB *gorm.DB

	// Now allows tests to pin the clock. Nil means time.Now.
	Now func() time.Time
}

func (s *StatsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func rankedUsers(counts []domain.UserCount) []RankedUser {
	out := make([]RankedUser, 0, len(counts))
	for _, c := range counts {
		out = append(out, RankedUser{
			UserID:       c.UserID,
			DisplayName:  c.DisplayName(),
			MessageCount: c.Count,
		})
	}
	return out
}

// ChatStats aggregates message count, activity window, and the top senders
// for the chat within the period. An empty chat is a valid result with a
// zero count, not an error.
func (s *StatsService) ChatStats(ctx context.Context, chatID int64, period domain.Period) (*ChatStatsResult, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "ChatStats",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.String("period", string(period)),
		),
	)
	defer span.End()

	since := period.Since(s.now())

	snap, err := repo.ChatStats(ctx, s.DB, chatID, since)
	if err != nil {
		return nil, err
	}

	res := &ChatStatsResult{ChatID: chatID, Period: period, TopUsers: []RankedUser{}}
	if snap == nil {
		return res, nil
	}
	res.MessageCount = snap.MessageCount
	res.FirstMessage = snap.FirstMessage
	res.LastMessage = snap.LastMessage

	counts, err := repo.TopUsers(ctx, s.DB, chatID, since)
	if err != nil {
		return nil, err
	}
	if len(counts) > topUsersLimit {
		counts = counts[:topUsersLimit]
	}
	res.TopUsers = rankedUsers(counts)
	return res, nil
}

// UserStats aggregates one user's activity within the chat and period.
// A user that was never seen in the chat yields ErrUserNotFound; a known
// user with no messages inside the period yields a zero-count result.
func (s *StatsService) UserStats(ctx context.Context, chatID, userID int64, period domain.Period) (*UserStatsResult, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "UserStats",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int64("user.id", userID),
			attribute.String("period", string(period)),
		),
	)
	defer span.End()

	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if err == repo.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	res := &UserStatsResult{
		ChatID:      chatID,
		UserID:      userID,
		DisplayName: displayName(u),
		Period:      period,
	}

	snap, err := repo.UserStats(ctx, s.DB, chatID, userID, period.Since(s.now()))
	if err != nil {
		return nil, err
	}
	if snap != nil {
		res.MessageCount = snap.MessageCount
		res.FirstMessage = snap.FirstMessage
		res.LastMessage = snap.LastMessage
	}
	return res, nil
}

// ListUsers returns every sender the chat has ever seen, ranked by all-time
// message count.
func (s *StatsService) ListUsers(ctx context.Context, chatID int64) (*UsersListResult, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "ListUsers",
		trace.WithAttributes(attribute.Int64("chat.id", chatID)),
	)
	defer span.End()

	counts, err := repo.TopUsers(ctx, s.DB, chatID, nil)
	if err != nil {
		return nil, err
	}
	return &UsersListResult{ChatID: chatID, Users: rankedUsers(counts)}, nil
}

func displayName(u *domain.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return sysutil.FirstNonEmpty(u.FirstName, "unknown")
}
