// Analytics read endpoints.
//
//   - GET /chats/{id}/stats                      (chat-wide statistics)
//   - GET /chats/{id}/users                      (ranked sender list)
//   - GET /chats/{id}/users/{user_id}/stats      (per-user statistics)
//
// All three accept ?period=all|today|week|month (default all) where noted
// and are served through the caching layer; responses carry a `cached` flag.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghrenier/tg-chatlog/internal/http/middleware"
	"github.com/ghrenier/tg-chatlog/internal/services"
)

// GetChatStats returns message count, activity window, and top senders for
// the chat.
func (h *Handlers) GetChatStats(c *gin.Context) {
	chatID, okID := chatParam(c)
	if !okID {
		return
	}

	res, err := h.analytics.ChatStats(c.Request.Context(), chatID, periodQuery(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	middleware.ObserveCacheRead("chat_stats", res.Cached)
	ok(c, http.StatusOK, res)
}

// GetUserStats returns one user's statistics within the chat.
func (h *Handlers) GetUserStats(c *gin.Context) {
	chatID, okID := chatParam(c)
	if !okID {
		return
	}
	userID, okUser := userParam(c)
	if !okUser {
		return
	}

	res, err := h.analytics.UserStats(c.Request.Context(), chatID, userID, periodQuery(c))
	if err != nil {
		switch err {
		case services.ErrUserNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	middleware.ObserveCacheRead("user_stats", res.Cached)
	ok(c, http.StatusOK, res)
}

// ListUsers returns every sender the chat has seen, ranked by all-time
// message count.
func (h *Handlers) ListUsers(c *gin.Context) {
	chatID, okID := chatParam(c)
	if !okID {
		return
	}

	res, err := h.analytics.ListUsers(c.Request.Context(), chatID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	middleware.ObserveCacheRead("users_list", res.Cached)
	ok(c, http.StatusOK, res)
}
