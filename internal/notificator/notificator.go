package notificator

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/core-coin/blocksage/internal/models"
	"github.com/core-coin/blocksage/pkg/logger"
)

// sendTimeout bounds a single alert delivery.
const sendTimeout = 10 * time.Second

// MessageSender delivers a text message to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Notificator routes risk alerts to the chat linked to the wallet.
type Notificator struct {
	logger *logger.Logger
	db     models.Repository

	sender MessageSender
}

var _ models.NotificationService = (*Notificator)(nil)

func NewNotificator(logger *logger.Logger, db models.Repository, sender MessageSender) *Notificator {
	return &Notificator{logger: logger, db: db, sender: sender}
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

func (n *Notificator) SendNotification(notification *models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	wallet, err := n.db.GetWallet(ctx, notification.Wallet)
	if err != nil {
		n.logger.Error("Failed to get wallet for notification", "wallet", notification.Wallet, "error", err)
		return
	}
	if wallet.TelegramChatID == "" {
		n.logger.Debug("No chat linked to wallet, dropping notification", "wallet", notification.Wallet)
		return
	}

	chatID := wallet.TelegramChatID
	message := notification.String()
	n.safeCall(func() {
		if err := n.sender.SendMessage(ctx, chatID, message); err != nil {
			n.logger.Error("Failed to send notification", "wallet", notification.Wallet, "error", err)
		}
	}, "telegramNotification")
}
