package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"match_bot/internal/config"
	"match_bot/internal/model"
	"match_bot/internal/storage"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type telegramAPI interface {
	sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Commands is the roster surface the bot drives.
type Commands interface {
	AddPlayer(ctx context.Context, name string, groupID int64) (*model.Player, error)
	RemovePlayer(ctx context.Context, name string) (*model.Player, error)
	ReconcileGroup(ctx context.Context, id int64, channel *int64, name string) error
}

// Bot is the Telegram front end that handles user commands.
type Bot struct {
	api      telegramAPI
	commands Commands
	store    storage.Storage
	cfg      *config.Config
	log      *slog.Logger
}

// NewAPI connects to Telegram with the given token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

// New creates a Bot. store is only read for listings.
func New(api telegramAPI, commands Commands, store storage.Storage, cfg *config.Config, log *slog.Logger) *Bot {
	return &Bot{
		api:      api,
		commands: commands,
		store:    store,
		cfg:      cfg,
		log:      log,
	}
}

// Serve runs the long-polling loop until ctx is cancelled.
func (b *Bot) Serve(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("updates channel closed")
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) String() string { return "telegram-bot" }

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if update.CallbackQuery.From == nil || !b.cfg.IsUserAllowed(update.CallbackQuery.From.ID) {
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	if update.Message.From == nil || !b.cfg.IsUserAllowed(update.Message.From.ID) {
		b.reply(update.Message.Chat.ID, "Access denied.")
		return
	}
	b.handleCommand(ctx, update.Message)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	// First contact creates the group; later commands keep its name current.
	if err := b.commands.ReconcileGroup(ctx, chatID, nil, chatName(msg.Chat)); err != nil {
		b.log.Error("reconcile group", "chat_id", chatID, "error", err)
	}

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "init":
		b.handleInit(ctx, chatID, chatName(msg.Chat))
	case "add":
		b.handleAdd(ctx, chatID, args)
	case cmdRemove:
		b.handleRemove(ctx, chatID, args)
	case "list":
		b.handleList(ctx, chatID)
	case "logs":
		b.handleLogs(ctx, chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

func chatName(chat *tgbotapi.Chat) string {
	if chat == nil {
		return ""
	}
	switch {
	case chat.Title != "":
		return chat.Title
	case chat.UserName != "":
		return chat.UserName
	default:
		return strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	}
}
