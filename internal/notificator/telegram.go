package notificator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	tgModels "github.com/go-telegram/bot/models"

	"github.com/core-coin/blocksage/internal/advisor"
	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

const (
	helpText = "Welcome to BlockSage!\n\n" +
		"/watch <address> - scan a wallet and get alerts for it in this chat\n" +
		"/reset - start a new conversation\n\n" +
		"Anything else you write goes to the BlockSage AI assistant."
	busyText  = "Still thinking about your previous question, please wait a moment."
	resetText = "Conversation cleared. Ask me anything about crypto safety."
)

// WalletConnector registers a wallet for alerts and scans it.
type WalletConnector interface {
	Connect(ctx context.Context, address, telegramChatID string) (*models.ScanResult, error)
}

// TelegramNotificator delivers alerts over Telegram and bridges chats into
// advisory sessions, one session per chat.
type TelegramNotificator struct {
	logger *logger.Logger
	bot    *bot.Bot

	sessions *advisor.Manager
	wallets  WalletConnector
}

var _ MessageSender = (*TelegramNotificator)(nil)

func NewTelegramNotificator(logger *logger.Logger, token string, sessions *advisor.Manager) (*TelegramNotificator, error) {
	provider := &TelegramNotificator{
		logger:   logger,
		sessions: sessions,
	}
	opts := []bot.Option{
		bot.WithDefaultHandler(provider.handler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	provider.bot = b

	return provider, nil
}

// Start polls for updates until ctx is canceled. /watch registers wallets through wallets.
func (t *TelegramNotificator) Start(ctx context.Context, wallets WalletConnector) {
	t.wallets = wallets
	t.logger.Info("Telegram bot started")
	t.bot.Start(ctx)
}

func (t *TelegramNotificator) SendMessage(ctx context.Context, chatID, text string) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if _, err := t.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func (t *TelegramNotificator) handler(ctx context.Context, b *bot.Bot, update *tgModels.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
	t.logger.Debug("Telegram update", "chat", chatID)

	if err := t.SendMessage(ctx, chatID, t.reply(ctx, chatID, update.Message.Text)); err != nil {
		t.logger.Error("Failed to answer telegram message", "chat", chatID, "error", err)
	}
}

// reply computes the bot's answer to one chat message.
func (t *TelegramNotificator) reply(ctx context.Context, chatID, text string) string {
	text = strings.TrimSpace(text)
	command, arg, _ := strings.Cut(text, " ")

	switch command {
	case "/start", "/help":
		return helpText
	case "/watch":
		return t.watch(ctx, chatID, strings.TrimSpace(arg))
	case "/reset":
		_ = t.sessions.Discard(sessionID(chatID))
		return resetText
	}

	msg, err := t.sessions.Open(sessionID(chatID)).Submit(ctx, text)
	var busy *models.SessionBusyError
	switch {
	case err == nil:
		return msg.Content
	case errors.As(err, &busy):
		return busyText
	case errors.Is(err, models.ErrSessionClosed):
		return resetText
	default:
		t.logger.Error("Advisory reply failed", "chat", chatID, "error", err)
		return "Sorry, I could not process that message."
	}
}

func (t *TelegramNotificator) watch(ctx context.Context, chatID, address string) string {
	if address == "" {
		return "Usage: /watch <wallet address>"
	}
	scan, err := t.wallets.Connect(ctx, address, chatID)
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			return "Invalid wallet address: " + address
		}
		t.logger.Error("Failed to watch wallet", "chat", chatID, "wallet", address, "error", err)
		return "Could not scan this wallet right now, please try again later."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Watching %s\nPortfolio risk: %.1f (%s)\n", scan.Address, scan.Summary.OverallScore, scan.Summary.OverallLabel.Label())
	fmt.Fprintf(&b, "Suspicious tokens: %d, risky contracts: %d, vulnerable assets: %d",
		scan.Summary.SuspiciousTokenCount, scan.Summary.RiskyContractCount, scan.Summary.VulnerableAssetCount)
	for _, w := range scan.Warnings() {
		b.WriteString("\n- ")
		b.WriteString(w)
	}
	return b.String()
}

func sessionID(chatID string) string {
	return "tg-" + chatID
}
