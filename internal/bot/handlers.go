package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"match_bot/internal/provider"
	"match_bot/internal/storage"
)

const logsLimit = 10

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Match Bot!

Track players and get a message for every finished match and every game they start.

Quick start:
1. /init - send notifications to this chat
2. /add <name> - start tracking a player

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Group setup:
/init - use this chat as the notification destination

Players:
/add <name> - track a player
/remove <name> - stop tracking a player
/list - players tracked by this chat

Diagnostics:
/logs - last 10 diagnostic entries`)
}

func (b *Bot) handleInit(ctx context.Context, chatID int64, name string) {
	if err := b.commands.ReconcileGroup(ctx, chatID, &chatID, name); err != nil {
		b.log.Error("init group", "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error initializing chat: %v", err))
		return
	}
	b.reply(chatID, "Chat initialized! Notifications will be sent here.")
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args string) {
	name, err := ParseNameArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /add <name>")
		return
	}

	p, err := b.commands.AddPlayer(ctx, name, chatID)
	switch {
	case errors.Is(err, provider.ErrNotFound):
		b.reply(chatID, fmt.Sprintf("Player %q not found.", name))
		return
	case errors.Is(err, provider.ErrUpstream):
		b.reply(chatID, "The data source is unavailable right now. Try again later.")
		return
	case err != nil:
		b.log.Error("add player", "name", name, "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error adding player: %v", err))
		return
	}

	b.reply(chatID, fmt.Sprintf("Player added!\n%s", FormatPlayer(*p)))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	name, err := ParseNameArg(args)
	if err != nil {
		b.reply(chatID, "Usage: /remove <name>")
		return
	}

	p, err := b.store.GetPlayerByName(ctx, name)
	if err != nil || p.GroupID != chatID {
		b.reply(chatID, fmt.Sprintf("Player %q not found.", name))
		return
	}

	removed, err := b.commands.RemovePlayer(ctx, p.Name)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Player %q not found.", name))
		return
	}
	if err != nil {
		b.log.Error("remove player", "name", name, "chat_id", chatID, "error", err)
		b.reply(chatID, fmt.Sprintf("Error removing player: %v", err))
		return
	}
	b.reply(chatID, fmt.Sprintf("Player %q removed.", removed.Name))
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	players, err := b.store.ListPlayersByGroup(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatPlayerList(players))
	msg.DisableWebPagePreview = true
	if len(players) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(players))
		for _, p := range players {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("Remove "+p.Name, cbRemoveConfirm+":"+p.Name),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send player list", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleLogs(ctx context.Context, chatID int64) {
	entries, err := b.store.ListLogs(ctx, logsLimit)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatLogs(entries))
}
