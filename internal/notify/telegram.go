package notify

import (
	"context"
	"fmt"
	"net/http"
)

// telegramTextLimit is the Bot API's maximum message length.
const telegramTextLimit = 4096

// TelegramSender delivers alerts via the Telegram Bot API.
type TelegramSender struct {
	token  string
	chatID string
	api    string
	client *http.Client
}

// NewTelegramSender creates a TelegramSender for the given bot token and
// chat ID.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:  token,
		chatID: chatID,
		api:    "https://api.telegram.org",
		client: newSenderClient(),
	}
}

// Send posts the alert to the configured chat. The title is rendered in
// bold; link previews are disabled so odds URLs in a message body don't
// expand into cards.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := clip(fmt.Sprintf("*%s*\n%s", title, message), telegramTextLimit)

	payload := map[string]string{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": "true",
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.api, t.token)
	if err := postJSON(ctx, t.client, url, payload); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
