package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox/payloads"
)

type memoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = "1"
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "bk:idempotency:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

type recordingWriter struct {
	rows []models.Notification
	err  error
}

func (r *recordingWriter) CreateBatch(_ context.Context, rows []models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, rows...)
	return nil
}

type staticAdmins []uuid.UUID

func (s staticAdmins) ListActiveAdminIDs(context.Context) ([]uuid.UUID, error) {
	return s, nil
}

func newTestConsumer(t *testing.T, writer *recordingWriter, admins staticAdmins) *Consumer {
	t.Helper()
	manager, err := idempotency.NewManager(&memoryStore{keys: map[string]string{}}, time.Hour)
	require.NoError(t, err)
	consumer, err := NewConsumer(writer, admins, nil, manager, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return consumer
}

func orderMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *pubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	body, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	})
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       body,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerOrderCreatedNotifiesBuyerAndAdmins(t *testing.T) {
	writer := &recordingWriter{}
	adminA, adminB := uuid.New(), uuid.New()
	consumer := newTestConsumer(t, writer, staticAdmins{adminA, adminB})
	buyer := uuid.New()

	msg := orderMessage(t, enums.EventOrderCreated, uuid.New(), payloads.OrderCreatedEvent{
		OrderID:    uuid.New(),
		UserID:     buyer,
		TotalPrice: "40.00",
		Items:      []payloads.OrderLine{{Title: "Book A", Quantity: 2}},
	})

	result := consumer.Process(context.Background(), msg)
	assert.True(t, result.Ack)
	require.Len(t, writer.rows, 3)
	assert.Equal(t, buyer, writer.rows[0].UserID)
	assert.Equal(t, "Order placed", writer.rows[0].Title)
	assert.Contains(t, writer.rows[0].Message, "40.00")
	assert.Equal(t, enums.NotificationTypeNewOrder, writer.rows[1].Type)
	assert.ElementsMatch(t, []uuid.UUID{adminA, adminB}, []uuid.UUID{writer.rows[1].UserID, writer.rows[2].UserID})
}

func TestConsumerSkipsDuplicateDelivery(t *testing.T) {
	writer := &recordingWriter{}
	consumer := newTestConsumer(t, writer, nil)
	eventID := uuid.New()
	payload := payloads.OrderStatusChangedEvent{OrderID: uuid.New(), UserID: uuid.New(), From: enums.OrderStatusPending, To: enums.OrderStatusConfirmed}

	assert.True(t, consumer.Process(context.Background(), orderMessage(t, enums.EventOrderStatusChanged, eventID, payload)).Ack)
	assert.True(t, consumer.Process(context.Background(), orderMessage(t, enums.EventOrderStatusChanged, eventID, payload)).Ack)

	require.Len(t, writer.rows, 1)
	assert.Equal(t, "Order confirmed", writer.rows[0].Title)
}

func TestConsumerCancelledExpiredMessage(t *testing.T) {
	writer := &recordingWriter{}
	consumer := newTestConsumer(t, writer, nil)

	msg := orderMessage(t, enums.EventOrderCancelled, uuid.New(), payloads.OrderCancelledEvent{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
		From:    enums.OrderStatusPending,
		Reason:  payloads.CancelReasonExpired,
	})
	require.True(t, consumer.Process(context.Background(), msg).Ack)
	require.Len(t, writer.rows, 1)
	assert.Contains(t, writer.rows[0].Message, "not confirmed in time")
}

func TestConsumerNacksAndReleasesOnWriteFailure(t *testing.T) {
	writer := &recordingWriter{err: errors.New("db down")}
	consumer := newTestConsumer(t, writer, nil)
	eventID := uuid.New()
	payload := payloads.OrderRefundedEvent{OrderID: uuid.New(), UserID: uuid.New(), TotalPrice: "12.00"}

	result := consumer.Process(context.Background(), orderMessage(t, enums.EventOrderRefunded, eventID, payload))
	assert.True(t, result.Nack)

	writer.err = nil
	result = consumer.Process(context.Background(), orderMessage(t, enums.EventOrderRefunded, eventID, payload))
	assert.True(t, result.Ack)
	require.Len(t, writer.rows, 1)
	assert.Equal(t, enums.NotificationTypeOrderRefunded, writer.rows[0].Type)
}

func TestConsumerAcksMalformedMessages(t *testing.T) {
	writer := &recordingWriter{}
	consumer := newTestConsumer(t, writer, nil)
	ctx := context.Background()

	unknown := &pubsub.Message{ID: "1", Data: []byte(`{}`), Attributes: map[string]string{"event_type": "media_deleted"}}
	assert.True(t, consumer.Process(ctx, unknown).Ack)

	garbage := &pubsub.Message{ID: "2", Data: []byte(`not json`), Attributes: map[string]string{"event_type": string(enums.EventOrderCreated)}}
	assert.True(t, consumer.Process(ctx, garbage).Ack)

	assert.Empty(t, writer.rows)
}
