package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelEvent Channel = "event"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Message is one side effect queued by a state transition. Rows are written
// in the same transaction as the transition itself, so a transition that
// commits has its side effects recorded exactly once, and a slow or failing
// channel never delays the transition.
type Message struct {
	ID        string
	OrderID   string
	EventType string
	Channel   Channel
	Payload   json.RawMessage
	Status    Status
	Attempts  int
	CreatedAt time.Time
	SentAt    *time.Time
}

type SMSPayload struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type EventPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func NewMessage(orderID, eventType string, channel Channel, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		EventType: eventType,
		Channel:   channel,
		Payload:   raw,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}
