package events

import (
	"context"
	"time"

	"kirana-oms/internal/apperr"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher interface {
	PublishOrderEvent(ctx context.Context, orderID, eventType string, payload []byte) error
	Close()
}

type rabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewRabbitPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &rabbitPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
	}, nil
}

func (p *rabbitPublisher) PublishOrderEvent(ctx context.Context, orderID, eventType string, payload []byte) error {
	msg := amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		ContentType:  "application/json",
		MessageId:    orderID + ":" + eventType,
		Type:         eventType,
		Body:         payload,
	}

	err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		"order."+eventType,
		false, // mandatory
		false, // immediate
		msg,
	)
	if err != nil {
		return apperr.Wrap(apperr.KindExternal, "event publish failed", err)
	}
	return nil
}

func (p *rabbitPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
