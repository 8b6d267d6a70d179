package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox/registry"
)

const orderNotificationConsumer = "order-notifications"

type notificationWriter interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) error
}

type adminLister interface {
	ListActiveAdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Consumer turns order domain events into in-app notifications.
type Consumer struct {
	repo         notificationWriter
	admins       adminLister
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	decoders     *registry.DecoderRegistry
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer. subscription may be nil
// when messages are fed to Process directly.
func NewConsumer(repo notificationWriter, admins adminLister, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin lister required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		admins:       admins,
		subscription: subscription,
		idempotency:  manager,
		decoders:     registry.NewOrderDecoders(),
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("order subscription required")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.Process(ctx, msg)
		if result.Nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// ProcessResult tells the receive loop how to settle a message.
type ProcessResult struct {
	Ack  bool
	Nack bool
}

// Process handles a single message. Malformed messages are acked so they do
// not redeliver forever; storage failures are nacked for another attempt.
func (c *Consumer) Process(ctx context.Context, msg *pubsub.Message) ProcessResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event")
		return ProcessResult{Ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return ProcessResult{Ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return ProcessResult{Ack: true}
	}

	payload, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return ProcessResult{Ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return ProcessResult{Nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return ProcessResult{Ack: true}
	}

	rows, err := c.build(ctx, payload)
	if err == nil {
		err = c.repo.CreateBatch(ctx, rows)
	}
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, orderNotificationConsumer, eventID)
		return ProcessResult{Nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "notifications", len(rows)), "order notifications written")
	return ProcessResult{Ack: true}
}

func (c *Consumer) build(ctx context.Context, payload any) ([]models.Notification, error) {
	switch p := payload.(type) {
	case *payloads.OrderCreatedEvent:
		ref := orderRef(p.OrderID)
		rows := []models.Notification{{
			UserID:  p.UserID,
			Type:    enums.NotificationTypeOrderPlaced,
			Title:   "Order placed",
			Message: fmt.Sprintf("Your order %s for %s has been placed.", ref, p.TotalPrice),
			Link:    stringPtr(fmt.Sprintf("/orders/%s", p.OrderID)),
		}}
		admins, err := c.admins.ListActiveAdminIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list admins: %w", err)
		}
		for _, adminID := range admins {
			rows = append(rows, models.Notification{
				UserID:  adminID,
				Type:    enums.NotificationTypeNewOrder,
				Title:   "New order",
				Message: fmt.Sprintf("Order %s was placed for %s (%d lines).", ref, p.TotalPrice, len(p.Items)),
				Link:    stringPtr(fmt.Sprintf("/admin/orders/%s", p.OrderID)),
			})
		}
		return rows, nil

	case *payloads.OrderStatusChangedEvent:
		return []models.Notification{buyerNotice(p.OrderID, p.UserID, enums.NotificationTypeOrderUpdate,
			"Order "+strings.ToLower(p.To.String()),
			fmt.Sprintf("Your order %s is now %s.", orderRef(p.OrderID), p.To))}, nil

	case *payloads.OrderCancelledEvent:
		message := fmt.Sprintf("Your order %s has been cancelled.", orderRef(p.OrderID))
		if p.Reason == payloads.CancelReasonExpired {
			message = fmt.Sprintf("Your order %s was cancelled because it was not confirmed in time.", orderRef(p.OrderID))
		}
		return []models.Notification{buyerNotice(p.OrderID, p.UserID, enums.NotificationTypeOrderUpdate, "Order cancelled", message)}, nil

	case *payloads.OrderRefundedEvent:
		return []models.Notification{buyerNotice(p.OrderID, p.UserID, enums.NotificationTypeOrderRefunded, "Order refunded",
			fmt.Sprintf("Your order %s has been refunded (%s).", orderRef(p.OrderID), p.TotalPrice))}, nil

	default:
		return nil, nil
	}
}

func buyerNotice(orderID, userID uuid.UUID, kind enums.NotificationType, title, message string) models.Notification {
	return models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    stringPtr(fmt.Sprintf("/orders/%s", orderID)),
	}
}

func orderRef(id uuid.UUID) string {
	return "#" + strings.ToUpper(id.String()[:8])
}

func stringPtr(value string) *string {
	return &value
}
