package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orbit/internal/amqp"
	"orbit/internal/core"
)

// Pusher sends push notifications through an ntfy-compatible webhook:
// the message is the POST body and the title travels in a header.
type Pusher struct {
	httpClient *http.Client
	webhookURL string
}

func NewPusher(webhookURL string) *Pusher {
	return &Pusher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		webhookURL: webhookURL,
	}
}

func (p *Pusher) Send(ctx context.Context, title, message string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push webhook returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

// HandleTransactionEvent formats a transaction event as a push message
// and sends it. Used as the consumer callback for the event queue.
func (p *Pusher) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	title, body := FormatTransactionEvent(msg)
	return p.Send(ctx, title, body)
}

// FormatTransactionEvent renders a transaction event as a notification
// title and body.
func FormatTransactionEvent(msg *amqp.TransactionEvent) (title, body string) {
	amount := core.FormatPounds(msg.AmountPence)
	switch msg.Kind {
	case amqp.EventTransactionProcessed:
		title = "Transaction sorted"
		body = fmt.Sprintf("%s at %s was filed automatically", amount, msg.MerchantName)
		if msg.IsSubscription {
			body += " (subscription)"
		}
	default:
		title = "New transaction"
		body = fmt.Sprintf("%s at %s needs sorting", amount, msg.MerchantName)
	}
	return title, body
}
