package alerting

import (
	"context"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

// TelegramSender posts notifications to one chat.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender authenticates the bot. An empty endpoint uses the
// public Bot API.
func NewTelegramSender(token string, chatID int64, endpoint string, client *http.Client) (*TelegramSender, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

func (t *TelegramSender) Name() string {
	return "telegram"
}

func (t *TelegramSender) Send(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, formatMessage(n))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("error sending telegram message: %w", err)
	}
	return nil
}

func formatMessage(n *models.Notification) string {
	icon := "ℹ️"
	switch n.Level {
	case models.NotificationWarning:
		icon = "⚠️"
	case models.NotificationCritical:
		icon = "🚨"
	}
	return fmt.Sprintf("%s %s\n%s", icon, n.Title, n.Message)
}
