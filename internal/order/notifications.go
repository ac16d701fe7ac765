package order

import (
	"fmt"

	"kirana-oms/internal/logger"
	"kirana-oms/internal/outbox"

	"go.uber.org/zap"
)

// Notification templates per transition. Each builder returns the SMS, the
// email (when the customer left one) and the integration event for a single
// transition; enqueueing them in the transition transaction is what bounds
// them to at most once per transition event.

func paymentConfirmedMessages(o *Order) []outbox.Message {
	var text string
	if o.Method == MethodCOD {
		text = fmt.Sprintf(
			"Thank you! Your deposit of %s is received. Order %s is confirmed; pay %s on delivery.",
			formatAmount(o.TokenMinor, o.Currency), shortID(o.ID), formatAmount(o.RemainingCODMinor, o.Currency),
		)
	} else {
		text = fmt.Sprintf(
			"Payment of %s received. Your order %s is confirmed.",
			formatAmount(o.TotalMinor, o.Currency), shortID(o.ID),
		)
	}

	return buildMessages(o, "payment_confirmed", "Your order is confirmed",
		fmt.Sprintf("<p>%s</p>", text), text)
}

func shippedMessages(o *Order, trackingURL string) []outbox.Message {
	text := fmt.Sprintf("Your order %s is on its way.", shortID(o.ID))
	if trackingURL != "" {
		text += " Track it: " + trackingURL
	}

	return buildMessages(o, "shipped", "Your order has shipped",
		fmt.Sprintf("<p>%s</p>", text), text)
}

func deliveredMessages(o *Order) []outbox.Message {
	text := fmt.Sprintf("Your order %s has been delivered. Thank you for shopping with us!", shortID(o.ID))

	return buildMessages(o, "delivered", "Your order was delivered",
		fmt.Sprintf("<p>%s</p>", text), text)
}

func cancelledMessages(o *Order) []outbox.Message {
	text := fmt.Sprintf("We're sorry: your order %s has been cancelled. Any amount paid will be refunded.", shortID(o.ID))

	return buildMessages(o, "cancelled", "Your order was cancelled",
		fmt.Sprintf("<p>%s</p>", text), text)
}

func statusEventMessage(o *Order, eventType string) []outbox.Message {
	msg, err := outbox.NewMessage(o.ID, eventType, outbox.ChannelEvent, outbox.EventPayload{
		OrderID: o.ID,
		Status:  string(o.Status),
	})
	if err != nil {
		logger.L().Error("failed to build event message", zap.Error(err))
		return nil
	}
	return []outbox.Message{msg}
}

func buildMessages(o *Order, eventType, subject, html, smsText string) []outbox.Message {
	var msgs []outbox.Message

	sms, err := outbox.NewMessage(o.ID, eventType, outbox.ChannelSMS, outbox.SMSPayload{
		Phone: o.Address.Phone,
		Text:  smsText,
	})
	if err == nil {
		msgs = append(msgs, sms)
	}

	if o.Address.Email != "" {
		email, err := outbox.NewMessage(o.ID, eventType, outbox.ChannelEmail, outbox.EmailPayload{
			To:      o.Address.Email,
			Subject: subject,
			HTML:    html,
		})
		if err == nil {
			msgs = append(msgs, email)
		}
	}

	event, err := outbox.NewMessage(o.ID, eventType, outbox.ChannelEvent, outbox.EventPayload{
		OrderID: o.ID,
		Status:  string(o.Status),
	})
	if err == nil {
		msgs = append(msgs, event)
	}

	return msgs
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %d.%02d", currency, minor/100, minor%100)
}
