package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Enqueue(ctx context.Context, msgs []Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockRepository) PullPending(ctx context.Context, limit int) ([]Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Message), args.Error(1)
}

func (m *mockRepository) MarkSent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepository) MarkFailed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockSMSSender struct {
	mock.Mock
}

func (m *mockSMSSender) Send(ctx context.Context, phone, text string) error {
	args := m.Called(ctx, phone, text)
	return args.Error(0)
}

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) Send(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishOrderEvent(ctx context.Context, orderID, eventType string, payload []byte) error {
	args := m.Called(ctx, orderID, eventType, payload)
	return args.Error(0)
}

func (m *mockPublisher) Close() {
	m.Called()
}

func mustMessage(t *testing.T, orderID, eventType string, ch Channel, payload interface{}) Message {
	t.Helper()
	msg, err := NewMessage(orderID, eventType, ch, payload)
	require.NoError(t, err)
	return msg
}

func TestWorker_DispatchOnce(t *testing.T) {
	ctx := context.Background()

	newWorker := func() (*Worker, *mockRepository, *mockSMSSender, *mockEmailSender, *mockPublisher) {
		repo := new(mockRepository)
		sms := new(mockSMSSender)
		email := new(mockEmailSender)
		pub := new(mockPublisher)
		return NewWorker(repo, sms, email, pub, time.Minute), repo, sms, email, pub
	}

	t.Run("RoutesEachChannel", func(t *testing.T) {
		w, repo, sms, email, pub := newWorker()

		smsMsg := mustMessage(t, "o1", "order_confirmed", ChannelSMS,
			SMSPayload{Phone: "+919876543210", Text: "Order confirmed"})
		emailMsg := mustMessage(t, "o1", "order_confirmed", ChannelEmail,
			EmailPayload{To: "asha@example.com", Subject: "Order confirmed", HTML: "<p>hi</p>"})
		eventMsg := mustMessage(t, "o1", "order_confirmed", ChannelEvent,
			EventPayload{OrderID: "o1", Status: "confirmed"})

		repo.On("PullPending", ctx, defaultBatchSize).
			Return([]Message{smsMsg, emailMsg, eventMsg}, nil)
		sms.On("Send", ctx, "+919876543210", "Order confirmed").Return(nil)
		email.On("Send", ctx, "asha@example.com", "Order confirmed", "<p>hi</p>").Return(nil)
		pub.On("PublishOrderEvent", ctx, "o1", "order_confirmed", []byte(eventMsg.Payload)).Return(nil)
		repo.On("MarkSent", ctx, smsMsg.ID).Return(nil)
		repo.On("MarkSent", ctx, emailMsg.ID).Return(nil)
		repo.On("MarkSent", ctx, eventMsg.ID).Return(nil)

		sent, err := w.DispatchOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, sent)
		repo.AssertExpectations(t)
		sms.AssertExpectations(t)
		email.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("SendFailureMarksFailedAndContinues", func(t *testing.T) {
		w, repo, sms, _, _ := newWorker()

		bad := mustMessage(t, "o1", "order_confirmed", ChannelSMS,
			SMSPayload{Phone: "+911111111111", Text: "x"})
		good := mustMessage(t, "o2", "order_shipped", ChannelSMS,
			SMSPayload{Phone: "+912222222222", Text: "y"})

		repo.On("PullPending", ctx, defaultBatchSize).Return([]Message{bad, good}, nil)
		sms.On("Send", ctx, "+911111111111", "x").Return(assert.AnError)
		sms.On("Send", ctx, "+912222222222", "y").Return(nil)
		repo.On("MarkFailed", ctx, bad.ID).Return(nil)
		repo.On("MarkSent", ctx, good.ID).Return(nil)

		sent, err := w.DispatchOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		repo.AssertExpectations(t)
	})

	t.Run("MalformedPayloadMarksFailed", func(t *testing.T) {
		w, repo, sms, _, _ := newWorker()

		bad := Message{ID: "m1", OrderID: "o1", Channel: ChannelSMS, Payload: json.RawMessage(`{broken`)}
		repo.On("PullPending", ctx, defaultBatchSize).Return([]Message{bad}, nil)
		repo.On("MarkFailed", ctx, "m1").Return(nil)

		sent, err := w.DispatchOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		sms.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("UnknownChannelMarksFailed", func(t *testing.T) {
		w, repo, _, _, _ := newWorker()

		bad := Message{ID: "m1", OrderID: "o1", Channel: Channel("pigeon"), Payload: json.RawMessage(`{}`)}
		repo.On("PullPending", ctx, defaultBatchSize).Return([]Message{bad}, nil)
		repo.On("MarkFailed", ctx, "m1").Return(nil)

		sent, err := w.DispatchOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		repo.AssertExpectations(t)
	})

	t.Run("PullFailureIsReturned", func(t *testing.T) {
		w, repo, _, _, _ := newWorker()

		repo.On("PullPending", ctx, defaultBatchSize).Return(nil, assert.AnError)

		_, err := w.DispatchOnce(ctx)
		assert.Error(t, err)
	})

	t.Run("MarkSentFailureDoesNotCountTheMessage", func(t *testing.T) {
		w, repo, sms, _, _ := newWorker()

		msg := mustMessage(t, "o1", "order_confirmed", ChannelSMS,
			SMSPayload{Phone: "+919876543210", Text: "hi"})
		repo.On("PullPending", ctx, defaultBatchSize).Return([]Message{msg}, nil)
		sms.On("Send", ctx, "+919876543210", "hi").Return(nil)
		repo.On("MarkSent", ctx, msg.ID).Return(assert.AnError)

		sent, err := w.DispatchOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	})
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage("o1", "order_confirmed", ChannelSMS, SMSPayload{Phone: "p", Text: "t"})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, StatusPending, msg.Status)
	assert.Equal(t, "o1", msg.OrderID)
	assert.JSONEq(t, `{"phone":"p","text":"t"}`, string(msg.Payload))
}
