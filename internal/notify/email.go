package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/amirhzm/backend-kedai/internal/common"
	"github.com/amirhzm/backend-kedai/internal/events"
	"github.com/amirhzm/backend-kedai/internal/store"
)

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// Notify implements the events.Notifier interface.
func (n EmailNotifier) Notify(_ context.Context, event store.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if n.TopicToggles != nil {
		if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
			return nil
		}
	}
	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	subject := subjectFor(event.Topic)
	body := bodyFor(event.Topic, payload, event.OccurredAt.Time)
	return n.Mail.Send(to, subject, body)
}

func extractRecipient(payload map[string]any) string {
	keys := []string{"email", "recipient", "billingEmail", "customerEmail"}
	for _, key := range keys {
		if val, ok := payload[key]; ok {
			if s, ok := val.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	switch topic {
	case events.TopicOrderCreated:
		return "Pesanan diterima"
	case events.TopicOrderPaid:
		return "Pembayaran berhasil"
	case events.TopicOrderCanceled:
		return "Pesanan dibatalkan"
	case events.TopicPaymentFailed:
		return "Pembayaran gagal"
	default:
		return fmt.Sprintf("Notifikasi %s", topic)
	}
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	summary := fmt.Sprintf("Event %s terjadi pada %s.", topic, occurred.Format(time.RFC3339))
	if orderID, ok := payload["orderId"].(string); ok && orderID != "" {
		summary += fmt.Sprintf("\nID Pesanan: %s", orderID)
	}
	if note, ok := payload["message"].(string); ok && note != "" {
		summary += "\n" + note
	}
	return summary
}
