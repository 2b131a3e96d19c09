// Package services – SearchService
//
// This file implements paginated message search. ASCII literal queries are
// pushed down to SQL (case-insensitive LIKE with escaping); regex queries and
// non-ASCII literals run a bounded in-process scan over recent messages,
// because SQLite without CGO has no REGEXP operator and its LOWER only folds
// ASCII. Matches are highlighted for Markdown rendering.
package services

import (
	"context"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/repo"
	"github.com/ghrenier/tg-chatlog/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PageSize is the fixed number of results per search page.
const PageSize = 5

// defaultRegexScanCap bounds how many recent messages a regex query may scan.
const defaultRegexScanCap = 5000

// SearchItem is one rendered search hit. Text already carries `**` highlight
// markers where applicable.
type SearchItem struct {
	MessageID   uint   `json:"message_id"`
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Text        string `json:"text"`
	CreatedAt   string `json:"created_at"`
}

// SearchResult is one page of hits plus the pagination envelope.
type SearchResult struct {
	ChatID     int64        `json:"chat_id"`
	Query      string       `json:"query"`
	Page       int          `json:"page"`
	TotalPages int          `json:"total_pages"`
	TotalCount int64        `json:"total_count"`
	Items      []SearchItem `json:"items"`
	Cached     bool         `json:"cached"`
}

// SearchService executes classified queries against storage.
type SearchService struct {
	DB *gorm.DB

	// RegexScanCap overrides defaultRegexScanCap when positive. The cap
	// applies to every query served by the in-process scan.
	RegexScanCap int
}

func (s *SearchService) scanCap() int {
	if s.RegexScanCap > 0 {
		return s.RegexScanCap
	}
	return defaultRegexScanCap
}

// Search runs query against the chat's log and returns page (zero-indexed),
// newest messages first. Pages past the end are valid and empty. An empty
// query returns ErrInvalidQuery; a negative page returns ErrInvalidPage.
func (s *SearchService) Search(ctx context.Context, chatID int64, rawQuery string, page int) (*SearchResult, error) {
	tr := otel.Tracer("services/SearchService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.Int64("chat.id", chatID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	if page < 0 {
		return nil, ErrInvalidPage
	}
	q, err := search.Classify(rawQuery)
	if err != nil {
		return nil, ErrInvalidQuery
	}
	span.SetAttributes(attribute.Bool("query.regex", q.Kind == search.KindRegex))

	// ASCII literal queries are pushed down to SQL. Regex queries and
	// non-ASCII literals (SQLite's LOWER folds ASCII only, so a LIKE over
	// lowercased text misses Cyrillic case variants) run the bounded scan.
	var (
		total int64
		hits  []domain.Message
	)
	if q.Kind == search.KindLiteral && isASCII(q.Term) {
		total, hits, err = s.literalPage(ctx, chatID, q, page)
	} else {
		total, hits, err = s.scanPage(ctx, chatID, q, page)
	}
	if err != nil {
		return nil, err
	}

	res := &SearchResult{
		ChatID:     chatID,
		Query:      rawQuery,
		Page:       page,
		TotalCount: total,
		TotalPages: int((total + PageSize - 1) / PageSize),
		Items:      make([]SearchItem, 0, len(hits)),
	}
	for _, m := range hits {
		res.Items = append(res.Items, SearchItem{
			MessageID:   m.ID,
			UserID:      m.UserID,
			DisplayName: displayName(&m.User),
			Text:        search.Highlight(q, m.Text),
			CreatedAt:   m.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}
	return res, nil
}

// isASCII reports whether s contains only single-byte runes.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// literalPage delegates matching and pagination to SQL.
func (s *SearchService) literalPage(ctx context.Context, chatID int64, q search.Query, page int) (int64, []domain.Message, error) {
	total, err := repo.CountMessagesLike(ctx, s.DB, chatID, q.Term)
	if err != nil {
		return 0, nil, err
	}
	if total == 0 {
		return 0, nil, nil
	}
	hits, err := repo.SearchMessagesLike(ctx, s.DB, chatID, q.Term, PageSize, page*PageSize)
	return total, hits, err
}

// scanPage scans the most recent messages in process and filters them with
// q.Matches, which folds case per Unicode. The scan is capped so one hostile
// pattern cannot walk the whole table; messages beyond the cap are invisible
// to queries served this way.
func (s *SearchService) scanPage(ctx context.Context, chatID int64, q search.Query, page int) (int64, []domain.Message, error) {
	msgs, err := repo.ListChatMessages(ctx, s.DB, chatID, s.scanCap())
	if err != nil {
		return 0, nil, err
	}

	var matched []domain.Message
	for _, m := range msgs {
		if q.Matches(m.Text) {
			matched = append(matched, m)
		}
	}

	total := int64(len(matched))
	start := page * PageSize
	if start >= len(matched) {
		return total, nil, nil
	}
	end := start + PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return total, matched[start:end], nil
}
