// Behavioral summary endpoint.
//
//   - GET /chats/{id}/users/{user_id}/summary
//
// Generates a fresh language-model summary of the user's recent activity in
// the chat. This endpoint is intentionally uncached and may take several
// seconds; 503 means the summary backend is not configured.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghrenier/tg-chatlog/internal/services"
)

// GetUserSummary returns a behavioral summary of one chat participant.
func (h *Handlers) GetUserSummary(c *gin.Context) {
	chatID, okID := chatParam(c)
	if !okID {
		return
	}
	userID, okUser := userParam(c)
	if !okUser {
		return
	}

	res, err := h.summaries.Summarize(c.Request.Context(), chatID, userID)
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		case services.ErrNoMessages:
			fail(c, http.StatusNotFound, ErrCodeNoMessages, "user has no messages in this chat")
		case services.ErrSummaryUnavailable:
			fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "summary backend unavailable")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, res)
}
