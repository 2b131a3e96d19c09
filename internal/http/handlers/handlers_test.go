package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ghrenier/tg-chatlog/internal/cache"
	"github.com/ghrenier/tg-chatlog/internal/http/middleware"
	"github.com/ghrenier/tg-chatlog/internal/repo"
	"github.com/ghrenier/tg-chatlog/internal/services"
)

// ---------- test helpers ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type fakeSummarizer struct {
	res *services.SummaryResult
	err error
}

func (f *fakeSummarizer) Summarize(ctx context.Context, chatID, userID int64) (*services.SummaryResult, error) {
	return f.res, f.err
}

// newTestRouter builds a bare gin engine with the real service stack over an
// in-memory DB and no cache backend.
func newTestRouter(t *testing.T, sum Summarizer) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	stats := &services.StatsService{DB: db}
	search := &services.SearchService{DB: db}
	analytics := &services.CachedAnalytics{
		Stats:  stats,
		Search: search,
		Store:  cache.NewStore(nil, zerolog.Nop()),
	}
	if sum == nil {
		sum = &fakeSummarizer{err: services.ErrSummaryUnavailable}
	}
	h := New(db, &services.MessageService{DB: db}, analytics, sum)

	r := gin.New()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	api := r.Group("/api/v1")
	api.POST("/chats/:id/messages", h.PostMessage)
	api.GET("/chats/:id/stats", h.GetChatStats)
	api.GET("/chats/:id/users", h.ListUsers)
	api.GET("/chats/:id/users/:user_id/stats", h.GetUserStats)
	api.GET("/chats/:id/users/:user_id/summary", h.GetUserSummary)
	api.GET("/chats/:id/search", h.SearchMessages)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postMessage(t *testing.T, r *gin.Engine, chatID int64, userID int64, username, text string) {
	t.Helper()
	body := fmt.Sprintf(`{"user_id":%d,"username":%q,"text":%q}`, userID, username, text)
	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/chats/%d/messages", chatID), body)
	if w.Code != http.StatusCreated {
		t.Fatalf("post message: status %d body %s", w.Code, w.Body.String())
	}
}

// ---------- tests ----------

func TestPostMessage(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	w := doJSON(t, r, http.MethodPost, "/api/v1/chats/100/messages",
		`{"user_id":42,"username":"alice","text":"hello world"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}

	var resp PostMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message == nil || resp.Message.Text != "hello world" || resp.Message.ChatID != 100 {
		t.Fatalf("resp = %+v", resp.Message)
	}
}

func TestPostMessage_Validation(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	// Non-numeric chat id.
	w := doJSON(t, r, http.MethodPost, "/api/v1/chats/abc/messages",
		`{"user_id":42,"text":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad chat id status = %d", w.Code)
	}

	// Missing text.
	w = doJSON(t, r, http.MethodPost, "/api/v1/chats/100/messages", `{"user_id":42}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing text status = %d", w.Code)
	}

	// Whitespace-only text passes binding but fails the service.
	w = doJSON(t, r, http.MethodPost, "/api/v1/chats/100/messages",
		`{"user_id":42,"text":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank text status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrCodeEmptyMessage) {
		t.Fatalf("blank text body = %s", w.Body.String())
	}
}

func TestGetChatStats(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	postMessage(t, r, 100, 1, "alice", "hello world")
	postMessage(t, r, 100, 1, "alice", "Hello again")
	postMessage(t, r, 100, 2, "bob", "bye")

	w := doJSON(t, r, http.MethodGet, "/api/v1/chats/100/stats?period=week", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}

	var res services.ChatStatsResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.MessageCount != 3 || res.Cached {
		t.Fatalf("res = %+v", res)
	}
	if len(res.TopUsers) != 2 || res.TopUsers[0].DisplayName != "@alice" {
		t.Fatalf("top users = %+v", res.TopUsers)
	}
}

func TestGetUserStats(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	postMessage(t, r, 100, 1, "alice", "hello")

	w := doJSON(t, r, http.MethodGet, "/api/v1/chats/100/users/1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res services.UserStatsResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.MessageCount != 1 || res.DisplayName != "@alice" {
		t.Fatalf("res = %+v", res)
	}

	// Unknown user maps to 404 with the stable code.
	w = doJSON(t, r, http.MethodGet, "/api/v1/chats/100/users/999/stats", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), ErrCodeNotFound) {
		t.Fatalf("unknown user: status %d body %s", w.Code, w.Body.String())
	}
}

func TestListUsers(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	postMessage(t, r, 100, 1, "alice", "one")
	postMessage(t, r, 100, 1, "alice", "two")
	postMessage(t, r, 100, 2, "bob", "three")

	w := doJSON(t, r, http.MethodGet, "/api/v1/chats/100/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res services.UsersListResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Users) != 2 || res.Users[0].DisplayName != "@alice" || res.Users[0].MessageCount != 2 {
		t.Fatalf("users = %+v", res.Users)
	}
}

func TestSearchMessages(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	postMessage(t, r, 100, 1, "alice", "hello world")
	postMessage(t, r, 100, 1, "alice", "Hello again")
	postMessage(t, r, 100, 2, "bob", "bye")

	w := doJSON(t, r, http.MethodGet, "/api/v1/chats/100/search?q=hello&page=0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var res services.SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalCount != 2 || res.TotalPages != 1 {
		t.Fatalf("res = %+v", res)
	}
	if res.Items[0].Text != "**Hello** again" {
		t.Fatalf("highlight = %q", res.Items[0].Text)
	}

	// Missing query.
	w = doJSON(t, r, http.MethodGet, "/api/v1/chats/100/search", "")
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), ErrCodeInvalidQuery) {
		t.Fatalf("missing query: status %d body %s", w.Code, w.Body.String())
	}

	// Negative page.
	w = doJSON(t, r, http.MethodGet, "/api/v1/chats/100/search?q=x&page=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("negative page status = %d", w.Code)
	}
}

func TestGetUserSummary(t *testing.T) {
	sum := &fakeSummarizer{res: &services.SummaryResult{
		ChatID: 100, UserID: 1, DisplayName: "@alice", MessagesUsed: 3, Summary: "friendly greeter",
	}}
	r, _ := newTestRouter(t, sum)

	w := doJSON(t, r, http.MethodGet, "/api/v1/chats/100/users/1/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var res services.SummaryResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Summary != "friendly greeter" {
		t.Fatalf("res = %+v", res)
	}
}

func TestGetUserSummary_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrUserNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrNoMessages, http.StatusNotFound, ErrCodeNoMessages},
		{services.ErrSummaryUnavailable, http.StatusServiceUnavailable, ErrCodeUnavailable},
	}
	for _, tc := range cases {
		r, _ := newTestRouter(t, &fakeSummarizer{err: tc.err})
		w := doJSON(t, r, http.MethodGet, "/api/v1/chats/100/users/1/summary", "")
		if w.Code != tc.status || !strings.Contains(w.Body.String(), tc.code) {
			t.Errorf("%v: status %d body %s", tc.err, w.Code, w.Body.String())
		}
	}
}

func TestPostMessage_IdempotencyReplay(t *testing.T) {
	r, db := newTestRouter(t, nil)

	// First write records the idempotency result the way the middleware+
	// handler pair does in production.
	w := doJSON(t, r, http.MethodPost, "/api/v1/chats/100/messages",
		`{"user_id":42,"username":"alice","text":"once"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("first post status = %d", w.Code)
	}
	var first PostMessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := repo.CreateIdempotency(context.Background(), db, 100, "key-1", first.Message.ID, http.StatusCreated, idempotencyTTL); err != nil {
		t.Fatalf("record idempotency: %v", err)
	}

	// Same key replays the stored message instead of inserting again.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/100/messages",
		strings.NewReader(`{"user_id":42,"username":"alice","text":"once"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "key-1")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusCreated {
		t.Fatalf("replay status = %d", w2.Code)
	}
	if w2.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatal("replay header missing")
	}
	var second PostMessageResponse
	if err := json.Unmarshal(w2.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.Message.ID != first.Message.ID {
		t.Fatalf("replay returned a new row: %d != %d", second.Message.ID, first.Message.ID)
	}
}
