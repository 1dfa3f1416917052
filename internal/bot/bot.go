// Package bot implements the Telegram front end of the slot booking flow.
package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"playslot/internal/audit"
	"playslot/internal/booking"
	"playslot/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Bot wires the Telegram transport to the booking service.
type Bot struct {
	tg       telegramClient
	service  *booking.Service
	auditLog *audit.Log // optional, backs /export
	games    []config.Game
	titles   map[string]string
	admins   map[int64]struct{}
	limiter  *rate.Limiter
	logger   *zerolog.Logger

	// reminded dedupes session reminders, touched only by the reminder loop.
	reminded map[string]struct{}

	// now is swappable for tests.
	now func() time.Time
}

func New(token string, debug bool, service *booking.Service, cfg *config.Config, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return newBot(&realTelegramClient{api: api}, service, cfg, logger), nil
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, service *booking.Service, cfg *config.Config, logger *zerolog.Logger) *Bot {
	return newBot(tg, service, cfg, logger)
}

func newBot(tg telegramClient, service *booking.Service, cfg *config.Config, logger *zerolog.Logger) *Bot {
	admins := make(map[int64]struct{})
	for _, id := range cfg.Admins {
		admins[id] = struct{}{}
	}
	titles := make(map[string]string)
	for _, g := range cfg.Games {
		titles[g.Key] = g.Title
	}
	return &Bot{
		tg:      tg,
		service: service,
		games:   cfg.Games,
		titles:  titles,
		admins:  admins,
		// Telegram allows roughly 30 messages per second bot-wide.
		limiter:  rate.NewLimiter(rate.Limit(25), 5),
		logger:   logger,
		reminded: make(map[string]struct{}),
		now:      time.Now,
	}
}

// WithAuditLog enables the admin /export command.
func (b *Bot) WithAuditLog(log *audit.Log) *Bot {
	b.auditLog = log
	return b
}

// Start polls updates until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("Handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("Handling message")
		b.handleMessage(ctx, update.Message)
		return
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		b.sendMenu(ctx, msg.Chat.ID)
	case strings.HasPrefix(text, "/help"):
		b.reply(ctx, msg.Chat.ID, helpText)
	case strings.HasPrefix(text, "/export"):
		b.handleExport(ctx, msg)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq == nil || cq.Message == nil {
		return
	}
	data := cq.Data
	_ = b.answerCallback(ctx, cq.ID)
	if data == "noop" {
		return
	}

	userID := cq.From.ID
	chatID := cq.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, "book_"):
		b.handleBookCallback(ctx, chatID, userID, strings.TrimPrefix(data, "book_"))
	case strings.HasPrefix(data, "hourpage_"):
		b.handleHourPageCallback(ctx, chatID, userID, cq.Message.MessageID, strings.TrimPrefix(data, "hourpage_"))
	case strings.HasPrefix(data, "select_"):
		b.handleSelectCallback(ctx, chatID, userID, strings.TrimPrefix(data, "select_"))
	case strings.HasPrefix(data, "confirm_"):
		b.handleConfirmCallback(ctx, chatID, userID, strings.TrimPrefix(data, "confirm_"))
	case strings.HasPrefix(data, "cancel_"):
		b.handleCancelCallback(ctx, chatID, userID, strings.TrimPrefix(data, "cancel_"))
	case strings.HasPrefix(data, "check_"):
		b.handleCheckCallback(ctx, chatID, userID, strings.TrimPrefix(data, "check_"))
	}
}

func (b *Bot) gameTitle(key string) string {
	if t, ok := b.titles[key]; ok {
		return t
	}
	return key
}

func (b *Bot) isAdmin(id int64) bool {
	_, ok := b.admins[id]
	return ok
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// send applies the outbound rate limit before hitting the Telegram API.
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.tg.Send(c); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("telegram send failed")
	}
}

func (b *Bot) answerCallback(ctx context.Context, id string) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := b.tg.Request(tgbotapi.NewCallback(id, ""))
	return err
}

func telegramUserKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
