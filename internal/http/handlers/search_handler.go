// Search endpoint.
//
//   - GET /chats/{id}/search?q=<query>&page=<n>
//
// The query is either a literal substring or /pattern/ for a regular
// expression. Pages are zero-indexed and fixed at five results; pages past
// the end are valid and empty.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ghrenier/tg-chatlog/internal/http/middleware"
	"github.com/ghrenier/tg-chatlog/internal/services"
	"github.com/ghrenier/tg-chatlog/internal/utils"
)

// SearchMessages returns one page of matches within the chat's log.
func (h *Handlers) SearchMessages(c *gin.Context) {
	chatID, okID := chatParam(c)
	if !okID {
		return
	}

	page := utils.AtoiDefault(c.Query("page"), 0)

	res, err := h.analytics.SearchPage(c.Request.Context(), chatID, c.Query("q"), page)
	if err != nil {
		switch err {
		case services.ErrInvalidQuery:
			fail(c, http.StatusBadRequest, ErrCodeInvalidQuery, "query required")
		case services.ErrInvalidPage:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "page must not be negative")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	middleware.ObserveCacheRead("search", res.Cached)
	ok(c, http.StatusOK, res)
}
