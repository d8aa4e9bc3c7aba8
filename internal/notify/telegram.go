package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

const telegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	client  *resty.Client
	baseURL string
	token   string
	chatID  string
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return NewTelegramNotifierWithBase(telegramAPI, token, chatID)
}

// NewTelegramNotifierWithBase points the notifier at a different API host.
func NewTelegramNotifierWithBase(baseURL, token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		client:  resty.New().SetTimeout(notifyTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"chat_id": t.chatID,
			"text":    formatMessage(event),
		}).
		Post(t.baseURL + "/bot" + t.token + "/sendMessage")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("telegram: status %d", resp.StatusCode())
	}
	return nil
}

func formatMessage(e Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\norder: %s\nstatus: %s\npayment: %s\ntotal: %.2f", e.Type, e.OrderID, e.Status, e.PaymentStatus, e.Total)
	return b.String()
}
