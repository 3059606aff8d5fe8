package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cmdRemove       = "remove"
	cbRemoveConfirm = "remove_confirm"
	cbNoop          = "noop"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	callback := tgbotapi.NewCallback(cb.ID, "")
	if _, err := b.api.Send(callback); err != nil {
		b.log.Error("send callback ack", "error", err)
	}

	action, name, ok := strings.Cut(cb.Data, ":")
	if !ok || name == "" {
		return
	}

	b.log.Info("callback",
		"action", action,
		"name", name,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cbRemoveConfirm:
		p, err := b.store.GetPlayerByName(ctx, name)
		if err != nil || p.GroupID != chatID {
			b.reply(chatID, fmt.Sprintf("Player %q not found.", name))
			return
		}
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Stop tracking %q? Its match history will be deleted.", p.Name))
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Yes, remove", cmdRemove+":"+p.Name),
				tgbotapi.NewInlineKeyboardButtonData("Cancel", cbNoop+":0"),
			),
		)
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error("send remove confirmation", "error", err)
		}
	case cmdRemove:
		b.handleRemove(ctx, chatID, name)
	}
}
