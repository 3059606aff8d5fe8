package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"match_bot/internal/engine"
)

// Telegram rejects bursts above roughly 30 messages per second per bot.
const deliveryRate = rate.Limit(20)

// Notifier delivers engine events as Telegram messages.
type Notifier struct {
	api     sender
	limiter *rate.Limiter
	log     *slog.Logger
}

// NewNotifier creates a Notifier sending through api.
func NewNotifier(api sender, log *slog.Logger) *Notifier {
	return &Notifier{
		api:     api,
		limiter: rate.NewLimiter(deliveryRate, 1),
		log:     log,
	}
}

// Deliver formats ev and sends it to the destination chat.
func (n *Notifier) Deliver(ctx context.Context, destination int64, ev engine.Event) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(destination, FormatEvent(ev))
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send %s notification to %d: %w", ev.Kind, destination, err)
	}

	n.log.Debug("notification sent", "kind", ev.Kind, "player", ev.PlayerName, "chat_id", destination)
	return nil
}
