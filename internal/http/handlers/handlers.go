// HTTP handler wiring.
//
// Handlers are transport-thin: they parse and validate path/query parameters,
// delegate to application services through narrow interfaces, and translate
// service errors into the standard envelope. Chat and user identifiers are
// Telegram IDs: signed 64-bit integers (supergroup chat IDs are negative).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/services"
	"github.com/ghrenier/tg-chatlog/internal/utils"
)

//
// Service contracts (context-aware)
//

// MessageLogger defines the ingestion operation consumed by HTTP handlers.
// Implementations must be safe for concurrent use and honor the context.
type MessageLogger interface {
	// Log persists one message together with its sender snapshot.
	Log(ctx context.Context, in services.IncomingMessage) (*domain.Message, error)
}

// Analytics defines the cached read operations consumed by HTTP handlers.
type Analytics interface {
	// ChatStats returns chat-wide statistics for a period.
	ChatStats(ctx context.Context, chatID int64, period domain.Period) (*services.ChatStatsResult, error)
	// UserStats returns one user's statistics within a chat.
	UserStats(ctx context.Context, chatID, userID int64, period domain.Period) (*services.UserStatsResult, error)
	// ListUsers returns the ranked sender list of a chat.
	ListUsers(ctx context.Context, chatID int64) (*services.UsersListResult, error)
	// SearchPage returns one page of search results.
	SearchPage(ctx context.Context, chatID int64, query string, page int) (*services.SearchResult, error)
}

// Summarizer defines the behavioral-summary operation.
type Summarizer interface {
	// Summarize generates a summary of a user's recent activity in a chat.
	Summarize(ctx context.Context, chatID, userID int64) (*services.SummaryResult, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. The DB handle is used only for
// idempotency bookkeeping on the write path; all reads go through the
// service interfaces.
type Handlers struct {
	db        *gorm.DB
	messages  MessageLogger
	analytics Analytics
	summaries Summarizer
}

// New constructs a Handlers instance bound to the given services.
func New(db *gorm.DB, messages MessageLogger, analytics Analytics, summaries Summarizer) *Handlers {
	return &Handlers{db: db, messages: messages, analytics: analytics, summaries: summaries}
}

// chatParam parses the :id route parameter. ok=false means the error
// response was already written.
func chatParam(c *gin.Context) (int64, bool) {
	id, ok := utils.ParseInt64(c.Param("id"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be an integer")
		return 0, false
	}
	return id, true
}

// userParam parses the :user_id route parameter, same contract as chatParam.
func userParam(c *gin.Context) (int64, bool) {
	id, ok := utils.ParseInt64(c.Param("user_id"))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be an integer")
		return 0, false
	}
	return id, true
}

// periodQuery parses the optional ?period= query parameter. Unknown values
// fall back to "all"; the endpoints stay lenient the same way the bot
// commands do.
func periodQuery(c *gin.Context) domain.Period {
	return domain.ParsePeriod(c.Query("period"))
}
