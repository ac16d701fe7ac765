package outbox

import (
	"context"
	"encoding/json"
	"time"

	"kirana-oms/internal/events"
	"kirana-oms/internal/logger"
	"kirana-oms/internal/metrics"
	"kirana-oms/internal/notify"

	"go.uber.org/zap"
)

const defaultBatchSize = 50

// Worker drains pending outbox rows and hands each to its channel. Delivery
// is at-least-once per row; the enqueue-in-transaction rule upstream keeps
// it at one row per transition event.
type Worker struct {
	repo      Repository
	sms       notify.SMSSender
	email     notify.EmailSender
	publisher events.Publisher
	interval  time.Duration
	batchSize int
}

func NewWorker(
	repo Repository,
	sms notify.SMSSender,
	email notify.EmailSender,
	publisher events.Publisher,
	interval time.Duration,
) *Worker {
	return &Worker{
		repo:      repo,
		sms:       sms,
		email:     email,
		publisher: publisher,
		interval:  interval,
		batchSize: defaultBatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.DispatchOnce(ctx); err != nil {
				logger.FromCtx(ctx).Error("outbox dispatch cycle failed", zap.Error(err))
			}
		}
	}
}

// DispatchOnce processes one batch and returns how many messages were sent.
func (w *Worker) DispatchOnce(ctx context.Context) (int, error) {
	msgs, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		if err := w.dispatch(ctx, m); err != nil {
			metrics.OutboxDispatchTotal.WithLabelValues(string(m.Channel), "error").Inc()
			logger.FromCtx(ctx).Warn("outbox message dispatch failed",
				zap.String("message_id", m.ID),
				zap.String("channel", string(m.Channel)),
				zap.Error(err),
			)
			if markErr := w.repo.MarkFailed(ctx, m.ID); markErr != nil {
				logger.FromCtx(ctx).Error("failed to mark outbox message failed",
					zap.String("message_id", m.ID),
					zap.Error(markErr),
				)
			}
			continue
		}

		metrics.OutboxDispatchTotal.WithLabelValues(string(m.Channel), "success").Inc()
		if err := w.repo.MarkSent(ctx, m.ID); err != nil {
			logger.FromCtx(ctx).Error("failed to mark outbox message sent",
				zap.String("message_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	return sent, nil
}

func (w *Worker) dispatch(ctx context.Context, m Message) error {
	switch m.Channel {
	case ChannelSMS:
		var p SMSPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		return w.sms.Send(ctx, p.Phone, p.Text)
	case ChannelEmail:
		var p EmailPayload
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return err
		}
		return w.email.Send(ctx, p.To, p.Subject, p.HTML)
	case ChannelEvent:
		return w.publisher.PublishOrderEvent(ctx, m.OrderID, m.EventType, m.Payload)
	}
	return ErrUnknownChannel
}
