// Package bot implements the Telegram transport: a long-polling loop that
// archives plain group messages and answers analytics commands.
//
// The bot is a thin translation layer. It parses commands and callback data
// into typed service calls and renders the results; no aggregation, matching,
// or caching logic lives here.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/ghrenier/tg-chatlog/internal/config"
	"github.com/ghrenier/tg-chatlog/internal/domain"
	"github.com/ghrenier/tg-chatlog/internal/services"
	"github.com/ghrenier/tg-chatlog/internal/utils"
)

// apiClient is the slice of *tgbotapi.BotAPI the bot actually uses; tests
// substitute a fake.
type apiClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// MessageLogger persists observed messages.
type MessageLogger interface {
	Log(ctx context.Context, in services.IncomingMessage) (*domain.Message, error)
}

// Analytics serves the read-side commands.
type Analytics interface {
	ChatStats(ctx context.Context, chatID int64, period domain.Period) (*services.ChatStatsResult, error)
	UserStats(ctx context.Context, chatID, userID int64, period domain.Period) (*services.UserStatsResult, error)
	ListUsers(ctx context.Context, chatID int64) (*services.UsersListResult, error)
	SearchPage(ctx context.Context, chatID int64, query string, page int) (*services.SearchResult, error)
}

// Summarizer generates behavioral summaries.
type Summarizer interface {
	Summarize(ctx context.Context, chatID, userID int64) (*services.SummaryResult, error)
}

const helpText = `I archive this group's messages and answer questions about them.

/stats [period] - chat statistics (all, today, week, month)
/me [period] - your own statistics
/top - all-time sender ranking
/search <query> - search the log; wrap the query in /slashes/ for regex
/summary - describe a user (reply to their message, or yourself)`

// Bot runs the Telegram side of the service.
type Bot struct {
	api       apiClient
	log       zerolog.Logger
	messages  MessageLogger
	analytics Analytics
	summaries Summarizer

	pollTimeout time.Duration
	allowed     []string
}

// New connects to the Telegram API with the configured token and returns a
// ready-to-run Bot.
func New(cfg config.TelegramConfig, messages MessageLogger, analytics Analytics, summaries Summarizer, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	api.Debug = cfg.Debug

	return &Bot{
		api:         api,
		log:         log,
		messages:    messages,
		analytics:   analytics,
		summaries:   summaries,
		pollTimeout: cfg.PollTimeout,
		allowed:     cfg.AllowedUpdates,
	}, nil
}

// Run long-polls for updates until ctx is canceled or the update channel
// closes. Each update is handled inline; Telegram's per-chat ordering is
// preserved because the loop is single-threaded.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(b.pollTimeout.Seconds())
	u.AllowedUpdates = b.allowed

	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Msg("telegram bot polling")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text == "" {
		return
	}
	// Only group traffic is archived; private chats are command-only.
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		return
	}

	_, err := b.messages.Log(ctx, services.IncomingMessage{
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Text:      msg.Text,
	})
	if err != nil && !errors.Is(err, services.ErrEmptyMessage) {
		b.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("log message")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.reply(chatID, helpText, nil)

	case "stats":
		period := domain.ParsePeriod(msg.CommandArguments())
		res, err := b.analytics.ChatStats(ctx, chatID, period)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		kb := statsKeyboard(period)
		b.reply(chatID, formatChatStats(res), &kb)

	case "me":
		period := domain.ParsePeriod(msg.CommandArguments())
		res, err := b.analytics.UserStats(ctx, chatID, msg.From.ID, period)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		kb := userStatsKeyboard(msg.From.ID, period)
		b.reply(chatID, formatUserStats(res), &kb)

	case "top":
		res, err := b.analytics.ListUsers(ctx, chatID)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		b.reply(chatID, formatUsersList(res), nil)

	case "search":
		query := strings.TrimSpace(msg.CommandArguments())
		if query == "" {
			b.reply(chatID, "Usage: /search <query>", nil)
			return
		}
		res, err := b.analytics.SearchPage(ctx, chatID, query, 0)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		if kb, ok := searchKeyboard(query, res.Page, res.TotalPages); ok {
			b.reply(chatID, formatSearch(res), &kb)
			return
		}
		b.reply(chatID, formatSearch(res), nil)

	case "summary":
		target := msg.From
		if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
			target = msg.ReplyToMessage.From
		}
		res, err := b.summaries.Summarize(ctx, chatID, target.ID)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		b.reply(chatID, formatSummary(res), nil)

	default:
		b.reply(chatID, "Unknown command. Try /help.", nil)
	}
}

// handleCallback routes inline-keyboard presses: period toggles re-render
// stats in place, pagination moves the search page.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Warn().Err(err).Msg("answer callback")
		}
	}()

	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	parts := strings.SplitN(cb.Data, ":", 3)
	switch parts[0] {
	case "st":
		if len(parts) < 2 {
			return
		}
		period := domain.ParsePeriod(parts[1])
		res, err := b.analytics.ChatStats(ctx, chatID, period)
		if err != nil {
			b.log.Error().Err(err).Msg("stats callback")
			return
		}
		b.edit(chatID, msgID, formatChatStats(res), statsKeyboard(period))

	case "me":
		if len(parts) < 3 {
			return
		}
		userID, ok := utils.ParseInt64(parts[1])
		if !ok {
			return
		}
		period := domain.ParsePeriod(parts[2])
		res, err := b.analytics.UserStats(ctx, chatID, userID, period)
		if err != nil {
			b.log.Error().Err(err).Msg("user stats callback")
			return
		}
		b.edit(chatID, msgID, formatUserStats(res), userStatsKeyboard(userID, period))

	case "sr":
		if len(parts) < 3 {
			return
		}
		page, ok := utils.ParseInt64(parts[1])
		if !ok || page < 0 {
			return
		}
		query := parts[2]
		res, err := b.analytics.SearchPage(ctx, chatID, query, int(page))
		if err != nil {
			b.log.Error().Err(err).Msg("search callback")
			return
		}
		if kb, ok := searchKeyboard(query, res.Page, res.TotalPages); ok {
			b.edit(chatID, msgID, formatSearch(res), kb)
			return
		}
		b.editText(chatID, msgID, formatSearch(res))
	}
}

func (b *Bot) reply(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if kb != nil {
		m.ReplyMarkup = *kb
	}
	if _, err := b.api.Send(m); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send message")
	}
}

func (b *Bot) edit(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	m := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("edit message")
	}
}

func (b *Bot) editText(chatID int64, msgID int, text string) {
	m := tgbotapi.NewEditMessageText(chatID, msgID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("edit message")
	}
}

// replyError maps service errors onto user-facing phrasing. Anything
// unexpected gets a generic apology and a log line.
func (b *Bot) replyError(chatID int64, err error) {
	var text string
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		text = "I have not seen that user yet."
	case errors.Is(err, services.ErrNoMessages):
		text = "No messages to work with yet."
	case errors.Is(err, services.ErrInvalidQuery):
		text = "Give me something to search for."
	case errors.Is(err, services.ErrSummaryUnavailable):
		text = "Summaries are not available right now."
	default:
		text = "Something went wrong, try again later."
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("command failed")
	}
	b.reply(chatID, text, nil)
}
