package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"playslot/internal/booking"
	"playslot/internal/export"
	"playslot/internal/slots"
	"playslot/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const exportWindow = 30 * 24 * time.Hour

var helpText = "Book a gameplay session with the buttons from /start.\n" +
	"Each session is 10 minutes, up to 2 per day per game.\n\n" +
	"/start - show the booking menu\n" +
	"/help - this message"

// sendMenu posts the welcome message with per-game book and check buttons.
func (b *Bot) sendMenu(ctx context.Context, chatID int64) {
	text := fmt.Sprintf(
		"🎮 Booking Bot\n\n"+
			"Welcome! Use the buttons below to book your gameplay sessions or check your current bookings anytime.\n\n"+
			"Session Length: %d minutes\n"+
			"Max Sessions Per Day: %d\n\n"+
			"How to Book: tap 📅 Book to reserve your slot.\n"+
			"How to Check: tap 🔎 Check to see your booked sessions.",
		int(slots.SlotLength.Minutes()), store.MaxPerDay,
	)

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, g := range b.games {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Book "+g.Title, "book_"+g.Key),
			tgbotapi.NewInlineKeyboardButtonData("🔎 Check "+g.Title, "check_"+g.Key),
		))
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
	b.send(ctx, msg)
}

// handleBookCallback shows the hour menu for a game, unless the user is
// already at the daily cap.
func (b *Bot) handleBookCallback(ctx context.Context, chatID, userID int64, gameKey string) {
	options, err := b.service.HourOptions(telegramUserKey(userID), gameKey, b.now())
	if errors.Is(err, booking.ErrCapacityExceeded) {
		b.reply(ctx, chatID, fmt.Sprintf("⚠️ You've already booked %d sessions today for this game.", store.MaxPerDay))
		return
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("hour options failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	b.renderHourMenu(ctx, chatID, 0, gameKey, 0, options)
}

// handleHourPageCallback flips the hour menu to another page. Payload is
// "<game>_<page>".
func (b *Bot) handleHourPageCallback(ctx context.Context, chatID, userID int64, messageID int, payload string) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		return
	}
	gameKey := parts[0]
	page, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}

	options, err := b.service.HourOptions(telegramUserKey(userID), gameKey, b.now())
	if errors.Is(err, booking.ErrCapacityExceeded) {
		b.reply(ctx, chatID, fmt.Sprintf("⚠️ You've already booked %d sessions today for this game.", store.MaxPerDay))
		return
	}
	if err != nil {
		return
	}
	b.renderHourMenu(ctx, chatID, messageID, gameKey, page, options)
}

// handleSelectCallback resolves an hour choice to a concrete slot. Payload
// is "<game>_<HH>_<dateKey>"; game keys never contain underscores.
func (b *Bot) handleSelectCallback(ctx context.Context, chatID, userID int64, payload string) {
	parts := strings.SplitN(payload, "_", 2)
	if len(parts) != 2 {
		b.reply(ctx, chatID, "That selection is no longer valid, start over with /start.")
		return
	}
	gameKey, hourValue := parts[0], parts[1]

	alloc, err := b.service.Allocate(ctx, telegramUserKey(userID), gameKey, hourValue, b.now())
	switch {
	case errors.Is(err, booking.ErrNoAvailability):
		b.reply(ctx, chatID, "❌ No available 10-minute slots left in that hour. Please choose another.")
		return
	case errors.Is(err, booking.ErrCapacityExceeded):
		b.reply(ctx, chatID, fmt.Sprintf("⚠️ You've already booked %d sessions today for this game.", store.MaxPerDay))
		return
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("game", gameKey).Msg("allocation failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	if !alloc.Held {
		b.reply(ctx, chatID, confirmedText(alloc))
		return
	}

	text := fmt.Sprintf("🎲 I've selected %s – %s on %s. Click to confirm:",
		alloc.Start.Format("15:04"), alloc.End.Format("15:04"), alloc.DateKey)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData(
				"Confirm "+alloc.Start.Format("15:04"),
				fmt.Sprintf("confirm_%s_%s_%s", gameKey, alloc.SlotLabel, alloc.DateKey),
			),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel_"+gameKey),
		},
	}}
	b.send(ctx, msg)
}

// handleConfirmCallback commits a held slot. Payload is
// "<game>_<HH:MM:SS>_<dateKey>".
func (b *Bot) handleConfirmCallback(ctx context.Context, chatID, userID int64, payload string) {
	parts := strings.SplitN(payload, "_", 3)
	if len(parts) != 3 {
		b.reply(ctx, chatID, "That confirmation is no longer valid, start over with /start.")
		return
	}
	gameKey, slotLabel, dateKey := parts[0], parts[1], parts[2]

	alloc, err := b.service.Confirm(ctx, telegramUserKey(userID), gameKey, slotLabel, dateKey, b.now())
	switch {
	case errors.Is(err, booking.ErrHoldExpired):
		b.reply(ctx, chatID, "⌛ Your reservation expired. Please pick a slot again.")
		return
	case errors.Is(err, booking.ErrCapacityExceeded):
		b.reply(ctx, chatID, fmt.Sprintf("⚠️ You've already booked %d sessions today for this game.", store.MaxPerDay))
		return
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("game", gameKey).Msg("confirmation failed")
		b.reply(ctx, chatID, "Something went wrong, please try again.")
		return
	}

	b.reply(ctx, chatID, confirmedText(alloc))
}

func (b *Bot) handleCancelCallback(ctx context.Context, chatID, userID int64, gameKey string) {
	if err := b.service.Cancel(ctx, telegramUserKey(userID), gameKey); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("game", gameKey).Msg("cancel failed")
	}
	b.reply(ctx, chatID, "Ok, cancelled. Use /start to book again.")
}

// handleCheckCallback lists the user's sessions for today and tomorrow.
func (b *Bot) handleCheckCallback(ctx context.Context, chatID, userID int64, gameKey string) {
	sum := b.service.Summarize(telegramUserKey(userID), gameKey, b.now())
	title := b.gameTitle(gameKey)

	if len(sum.Sessions) == 0 {
		b.reply(ctx, chatID, fmt.Sprintf("You have no sessions booked for %s. %d booking(s) left today.", title, sum.RemainingToday))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Your %s sessions:\n", title))
	for _, s := range sum.Sessions {
		var status string
		switch s.Status {
		case booking.StatusOpen:
			status = "🟢 in progress"
		case booking.StatusExpired:
			status = "⌛ finished"
		default:
			status = "📅 upcoming"
		}
		sb.WriteString(fmt.Sprintf("%s %s – %s  %s\n", s.DateKey, s.Start.Format("15:04"), s.End.Format("15:04"), status))
	}
	sb.WriteString(fmt.Sprintf("\n%d booking(s) left today.", sum.RemainingToday))
	b.reply(ctx, chatID, sb.String())
}

// handleExport sends the recent audit log as an Excel workbook. Admin only.
func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(msg.From.ID) {
		return
	}
	if b.auditLog == nil {
		b.reply(ctx, msg.Chat.ID, "Audit log is disabled.")
		return
	}

	now := b.now()
	events, err := b.auditLog.ListSince(ctx, now.Add(-exportWindow))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("audit export query failed")
		b.reply(ctx, msg.Chat.ID, "Export failed.")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteAuditWorkbook(events, &buf); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("audit export render failed")
		b.reply(ctx, msg.Chat.ID, "Export failed.")
		return
	}

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("booking-audit-%s.xlsx", now.Format("2006-01-02")),
		Bytes: buf.Bytes(),
	})
	b.send(ctx, doc)
}

func confirmedText(alloc *booking.Allocation) string {
	return fmt.Sprintf("✅ Booking confirmed!\n⏱️ %s – %s on %s (%d minutes)",
		alloc.Start.Format("15:04:05"), alloc.End.Format("15:04:05"), alloc.DateKey,
		int(slots.SlotLength.Minutes()))
}
