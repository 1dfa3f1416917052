package bot

import (
	"context"
	"fmt"

	"playslot/internal/slots"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const hoursPerPage = 8

// renderHourMenu shows one page of the hour options. With messageID set the
// existing menu is edited in place instead of posting a new message.
func (b *Bot) renderHourMenu(ctx context.Context, chatID int64, messageID int, gameKey string, page int, options []slots.HourOption) {
	pages := (len(options) + hoursPerPage - 1) / hoursPerPage
	if page < 0 {
		page = 0
	}
	if page >= pages {
		page = pages - 1
	}

	startIdx := page * hoursPerPage
	endIdx := startIdx + hoursPerPage
	if endIdx > len(options) {
		endIdx = len(options)
	}

	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, opt := range options[startIdx:endIdx] {
		keyboard = append(keyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(opt.Label, fmt.Sprintf("select_%s_%s", gameKey, opt.Value)),
		))
	}

	if pages > 1 {
		var nav []tgbotapi.InlineKeyboardButton
		if page > 0 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("hourpage_%s_%d", gameKey, page-1)))
		}
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", page+1, pages), "noop"))
		if page < pages-1 {
			nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("hourpage_%s_%d", gameKey, page+1)))
		}
		keyboard = append(keyboard, nav)
	}

	text := "Choose an hour block for your session:"
	markup := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}

	if messageID != 0 {
		edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
		b.send(ctx, edit)
		return
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.send(ctx, msg)
}
