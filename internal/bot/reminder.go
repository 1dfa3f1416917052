package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

const (
	reminderLead  = 5 * time.Minute
	reminderSweep = time.Minute
)

// StartReminders pings users shortly before a booked session starts.
func (b *Bot) StartReminders(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(reminderSweep)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.sendDueReminders(ctx)
			}
		}
	}()
}

func (b *Bot) sendDueReminders(ctx context.Context) {
	now := b.now()
	for _, up := range b.service.UpcomingSessions(now, reminderLead) {
		key := up.UserID + "|" + up.GameKey + "|" + up.DateKey + "|" + up.SlotLabel
		if _, ok := b.reminded[key]; ok {
			continue
		}
		// User keys are Telegram IDs, which double as private chat IDs.
		chatID, err := strconv.ParseInt(up.UserID, 10, 64)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Str("user_id", up.UserID).Msg("cannot remind non-telegram user")
			b.reminded[key] = struct{}{}
			continue
		}
		b.reply(ctx, chatID, fmt.Sprintf("⏰ Reminder: your %s session starts at %s.",
			b.gameTitle(up.GameKey), up.Start.Format("15:04")))
		b.reminded[key] = struct{}{}
	}

	// Old entries are useless once their window has long passed.
	if len(b.reminded) > 10000 {
		b.reminded = make(map[string]struct{})
	}
}
