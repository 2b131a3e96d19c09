// Message ingestion endpoint.
//
//   - POST /chats/{id}/messages   (log one group message)
//
// Idempotency: when the client supplies an Idempotency-Key header and a
// previous successful result exists for (chat, key), the recorded message is
// replayed with `Idempotency-Replayed: true` instead of inserting a
// duplicate row.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/http/middleware"
	"github.com/ghrenier/tg-chatlog/internal/repo"
	"github.com/ghrenier/tg-chatlog/internal/services"
)

// idempotencyTTL is how long a recorded (chat, key) result can be replayed.
const idempotencyTTL = 24 * time.Hour

// PostMessageRequest is the JSON payload for logging one message.
type PostMessageRequest struct {
	// UserID is the Telegram identifier of the sender.
	UserID int64 `json:"user_id" binding:"required"`
	// Username is the sender's handle, without the leading "@". Optional.
	Username string `json:"username"`
	// FirstName is the sender's display first name. Optional.
	FirstName string `json:"first_name"`
	// LastName is the sender's display last name. Optional.
	LastName string `json:"last_name"`
	// Text is the message body. It must be non-empty after trimming.
	Text string `json:"text" binding:"required,min=1"`
}

// PostMessageResponse is the JSON envelope for a logged message.
type PostMessageResponse struct {
	Message *domain.Message `json:"message"`
}

// PostMessage logs one message into the chat archive.
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	chatID, okID := chatParam(c)
	if !okID {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user_id and text required")
		return
	}

	// Idempotency (replay path).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, chatID, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetMessage(ctx, h.db, rec.MessageID); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusCreated, PostMessageResponse{Message: prev})
				return
			}
		}
	}

	m, err := h.messages.Log(ctx, services.IncomingMessage{
		ChatID:    chatID,
		UserID:    req.UserID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Text:      req.Text,
	})
	if err != nil {
		switch err {
		case services.ErrEmptyMessage:
			fail(c, http.StatusBadRequest, ErrCodeEmptyMessage, "message text required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path), best effort.
	if idemKey != "" && h.db != nil {
		_, _ = repo.CreateIdempotency(ctx, h.db, chatID, idemKey, m.ID, http.StatusCreated, idempotencyTTL)
	}

	ok(c, http.StatusCreated, PostMessageResponse{Message: m})
}
