package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/services"
)

func TestNiceName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"@alice", "@alice"},
		{"alice", "Alice"},
		{"жанна", "Жанна"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := niceName(tc.in); got != tc.want {
			t.Errorf("niceName(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatChatStats(t *testing.T) {
	first := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	last := time.Date(2025, 7, 14, 18, 30, 0, 0, time.UTC)
	out := formatChatStats(&services.ChatStatsResult{
		ChatID:       100,
		Period:       domain.PeriodWeek,
		MessageCount: 42,
		FirstMessage: &first,
		LastMessage:  &last,
		TopUsers: []services.RankedUser{
			{UserID: 1, DisplayName: "@alice", MessageCount: 30},
			{UserID: 2, DisplayName: "bob", MessageCount: 12},
		},
	})

	for _, want := range []string{
		"(week)", "Messages: 42",
		"First: 2025-07-01 09:00", "Last: 2025-07-14 18:30",
		"1. @alice: 30", "2. Bob: 12",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatUsersList_Empty(t *testing.T) {
	out := formatUsersList(&services.UsersListResult{ChatID: 100})
	if !strings.Contains(out, "Nothing logged") {
		t.Fatalf("output = %q", out)
	}
}

func TestFormatSearch_ConvertsHighlightMarkers(t *testing.T) {
	out := formatSearch(&services.SearchResult{
		ChatID:     100,
		Query:      "hello",
		Page:       0,
		TotalPages: 1,
		TotalCount: 1,
		Items: []services.SearchItem{
			{DisplayName: "@alice", Text: "**hello** world", CreatedAt: "2025-07-14 18:30"},
		},
	})

	if strings.Contains(out, "**") {
		t.Fatalf("double asterisks survived: %s", out)
	}
	if !strings.Contains(out, "*hello* world") {
		t.Fatalf("highlight lost: %s", out)
	}
	if !strings.Contains(out, "Page 1/1, 1 total") {
		t.Fatalf("pagination caption missing: %s", out)
	}
}

func TestFormatSearch_NoMatches(t *testing.T) {
	out := formatSearch(&services.SearchResult{Query: "nope"})
	if !strings.Contains(out, `No matches for "nope"`) {
		t.Fatalf("output = %q", out)
	}
}

func TestSearchCallback_FitsTelegramLimit(t *testing.T) {
	long := strings.Repeat("привет ", 30)
	data := searchCallback(long, 3)

	if len(data) > callbackDataMax {
		t.Fatalf("callback data %d bytes; limit %d", len(data), callbackDataMax)
	}
	if !strings.HasPrefix(data, "sr:3:") {
		t.Fatalf("callback data = %q", data)
	}
	// Clipping must not split a rune.
	if !strings.HasSuffix(data, " ") && strings.HasSuffix(data, "\uFFFD") {
		t.Fatalf("clipped mid-rune: %q", data)
	}
}

func TestSearchKeyboard(t *testing.T) {
	if _, ok := searchKeyboard("q", 0, 1); ok {
		t.Fatal("single page must have no keyboard")
	}

	kb, ok := searchKeyboard("q", 0, 3)
	if !ok || len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 1 {
		t.Fatalf("first page keyboard = %+v", kb)
	}
	if *kb.InlineKeyboard[0][0].CallbackData != "sr:1:q" {
		t.Fatalf("next data = %q", *kb.InlineKeyboard[0][0].CallbackData)
	}

	kb, _ = searchKeyboard("q", 1, 3)
	if len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("middle page wants prev and next, got %d buttons", len(kb.InlineKeyboard[0]))
	}
	if *kb.InlineKeyboard[0][0].CallbackData != "sr:0:q" {
		t.Fatalf("prev data = %q", *kb.InlineKeyboard[0][0].CallbackData)
	}
}

func TestStatsKeyboard_MarksActivePeriod(t *testing.T) {
	kb := statsKeyboard(domain.PeriodWeek)
	if len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 4 {
		t.Fatalf("keyboard shape = %+v", kb)
	}
	var marked string
	for _, btn := range kb.InlineKeyboard[0] {
		if strings.HasPrefix(btn.Text, "• ") {
			marked = *btn.CallbackData
		}
	}
	if marked != "st:week" {
		t.Fatalf("active button data = %q", marked)
	}
}
