// Package notify sends study reminders over Telegram.
package notify

import (
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramNotifier sends reminder messages to a user's linked chat.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
	log *zap.SugaredLogger
}

// NewTelegram creates a notifier from the TELEGRAM_BOT_TOKEN environment
// variable.
func NewTelegram(log *zap.SugaredLogger) (*TelegramNotifier, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Infow("telegram notifier ready", "bot", bot.Self.UserName)
	return &TelegramNotifier{bot: bot, log: log}, nil
}

// SendReminder tells the chat how many cards are waiting.
func (n *TelegramNotifier) SendReminder(chatID int64, dueCount int) error {
	text := fmt.Sprintf("📚 You have %d phrases due for review. Time for a quick study session!", dueCount)
	if dueCount == 1 {
		text = "📚 You have 1 phrase due for review. Time for a quick study session!"
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
