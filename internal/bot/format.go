// Package bot implements the Telegram transport: a long-polling loop that
// archives plain group messages and answers analytics commands.
//
// This file contains the rendering side: Markdown formatting of analytics
// results, inline keyboards for period toggles and pagination, and the
// callback-data encoding those keyboards use.
package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/services"
)

const timeLayout = "2006-01-02 15:04"

// callbackDataMax is Telegram's hard limit on callback_data bytes.
const callbackDataMax = 64

// niceName tidies a display name for rendering. Handles stay verbatim;
// bare first names get title casing.
func niceName(name string) string {
	if name == "" || strings.HasPrefix(name, "@") {
		return name
	}
	return cases.Title(language.Und).String(name)
}

// periodLabel is the button caption for a period toggle.
func periodLabel(p domain.Period) string {
	return cases.Title(language.Und).String(string(p))
}

func formatChatStats(res *services.ChatStatsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Chat statistics* (%s)\n", res.Period)
	fmt.Fprintf(&b, "Messages: %d\n", res.MessageCount)
	if res.FirstMessage != nil {
		fmt.Fprintf(&b, "First: %s\n", res.FirstMessage.UTC().Format(timeLayout))
	}
	if res.LastMessage != nil {
		fmt.Fprintf(&b, "Last: %s\n", res.LastMessage.UTC().Format(timeLayout))
	}
	if len(res.TopUsers) > 0 {
		b.WriteString("\nTop senders:\n")
		for i, u := range res.TopUsers {
			fmt.Fprintf(&b, "%d. %s: %d\n", i+1, niceName(u.DisplayName), u.MessageCount)
		}
	}
	return b.String()
}

func formatUserStats(res *services.UserStatsResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s* (%s)\n", niceName(res.DisplayName), res.Period)
	fmt.Fprintf(&b, "Messages: %d\n", res.MessageCount)
	if res.FirstMessage != nil {
		fmt.Fprintf(&b, "First: %s\n", res.FirstMessage.UTC().Format(timeLayout))
	}
	if res.LastMessage != nil {
		fmt.Fprintf(&b, "Last: %s\n", res.LastMessage.UTC().Format(timeLayout))
	}
	return b.String()
}

func formatUsersList(res *services.UsersListResult) string {
	if len(res.Users) == 0 {
		return "Nothing logged in this chat yet."
	}
	var b strings.Builder
	b.WriteString("*All-time ranking:*\n")
	for i, u := range res.Users {
		fmt.Fprintf(&b, "%d. %s: %d\n", i+1, niceName(u.DisplayName), u.MessageCount)
	}
	return b.String()
}

func formatSearch(res *services.SearchResult) string {
	if res.TotalCount == 0 {
		return fmt.Sprintf("No matches for %q.", res.Query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*Search:* %s\n", res.Query)
	fmt.Fprintf(&b, "Page %d/%d, %d total\n\n", res.Page+1, res.TotalPages, res.TotalCount)
	for _, it := range res.Items {
		// Search results carry **bold** markers; Telegram's legacy
		// Markdown mode wants single asterisks.
		text := strings.ReplaceAll(it.Text, "**", "*")
		fmt.Fprintf(&b, "%s %s:\n%s\n\n", it.CreatedAt, niceName(it.DisplayName), text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatSummary(res *services.SummaryResult) string {
	return fmt.Sprintf("*%s* (from the last %d messages)\n\n%s",
		niceName(res.DisplayName), res.MessagesUsed, res.Summary)
}

// Callback-data encodings. The kind prefix routes the callback; the rest is
// positional. Queries ride inside search callbacks and are clipped to fit the
// Telegram limit, so a very long query paginates against its clipped form.
func statsCallback(p domain.Period) string {
	return "st:" + string(p)
}

func userStatsCallback(userID int64, p domain.Period) string {
	return "me:" + strconv.FormatInt(userID, 10) + ":" + string(p)
}

func searchCallback(query string, page int) string {
	return clipCallback("sr:" + strconv.Itoa(page) + ":" + query)
}

// clipCallback trims data to callbackDataMax bytes on a rune boundary.
func clipCallback(data string) string {
	for len(data) > callbackDataMax {
		_, size := utf8.DecodeLastRuneInString(data)
		data = data[:len(data)-size]
	}
	return data
}

func statsKeyboard(active domain.Period) tgbotapi.InlineKeyboardMarkup {
	return periodKeyboard(active, statsCallback)
}

func userStatsKeyboard(userID int64, active domain.Period) tgbotapi.InlineKeyboardMarkup {
	return periodKeyboard(active, func(p domain.Period) string {
		return userStatsCallback(userID, p)
	})
}

// periodKeyboard renders one button per period, marking the active one.
func periodKeyboard(active domain.Period, data func(domain.Period) string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(domain.Periods()))
	for _, p := range domain.Periods() {
		label := periodLabel(p)
		if p == active {
			label = "• " + label
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data(p)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// searchKeyboard offers prev/next pagination when there is anywhere to go.
// Returns ok=false for a single-page result.
func searchKeyboard(query string, page, totalPages int) (tgbotapi.InlineKeyboardMarkup, bool) {
	var row []tgbotapi.InlineKeyboardButton
	if page > 0 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("« Prev", searchCallback(query, page-1)))
	}
	if page < totalPages-1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Next »", searchCallback(query, page+1)))
	}
	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(row), true
}
