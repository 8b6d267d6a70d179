package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox"
	"github.com/angelmondragon/bookstore-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

const msgEmptyCart = "cart is empty"

// Service is the order workflow: checkout plus the order state machine.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, shipping ShippingInfo) (*models.Order, error)
	ConfirmOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, actor Actor) (*models.Order, error)
	RefundOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	AdminListOrders(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error)
	HasDeliveredPurchase(ctx context.Context, userID, bookID uuid.UUID) (bool, error)
	ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	stock   StockManager
	carts   CartStore
	outbox  outboxPublisher
	metrics *metrics.OrderMetrics
	now     func() time.Time
}

// NewService builds the order workflow. m may be nil.
func NewService(repo Repository, tx txRunner, stock StockManager, carts CartStore, outbox outboxPublisher, m *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock manager required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		stock:   stock,
		carts:   carts,
		outbox:  outbox,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateOrder turns the user's cart into a PENDING order. Stock decrements,
// item rows, the cart clear and the order_created event commit together or
// not at all.
func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, shipping ShippingInfo) (*models.Order, error) {
	if err := shipping.validate(); err != nil {
		return nil, err
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cart, err := s.carts.LoadForCheckout(ctx, tx, userID)
		if err != nil {
			return err
		}
		if cart == nil || len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeBadRequest, msgEmptyCart)
		}

		order, err := repo.CreateOrder(ctx, &models.Order{
			UserID:          userID,
			Status:          enums.OrderStatusPending,
			TotalPrice:      types.NewMoney(decimal.Zero),
			ShippingAddress: shipping.Address,
			ShippingCity:    shipping.City,
			ShippingZip:     shipping.Zip,
			ShippingPhone:   shipping.Phone,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
		}

		lines := append([]models.CartItem(nil), cart.Items...)
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].BookID.String() < lines[j].BookID.String()
		})

		items := make([]models.OrderItem, 0, len(lines))
		subtotals := make([]decimal.Decimal, 0, len(lines))
		for _, line := range lines {
			book, err := s.stock.DecreaseStock(ctx, tx, line.BookID, line.Quantity)
			if err != nil {
				return err
			}
			unit := book.Price.Freeze()
			subtotal := unit.LineTotal(line.Quantity)
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				BookID:    book.ID,
				Title:     book.Title,
				Quantity:  line.Quantity,
				UnitPrice: unit,
				Subtotal:  types.NewMoney(subtotal),
			})
			subtotals = append(subtotals, subtotal)
		}

		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order items")
		}
		total := types.SumMoney(subtotals...)
		if err := repo.UpdateTotal(ctx, order.ID, total); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order total")
		}
		if err := s.carts.ClearTx(ctx, tx, cart.ID); err != nil {
			return err
		}

		order.TotalPrice = total
		order.Items = items
		if err := s.emit(ctx, tx, enums.EventOrderCreated, order.ID, Actor{UserID: userID, Role: enums.UserRoleCustomer}, createdPayload(order)); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		s.metrics.IncCheckoutFailure(failureReason(err))
		return nil, err
	}

	s.metrics.ObserveCreated(created.TotalPrice.Decimal)
	return created, nil
}

func (s *service) ConfirmOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.ownerTransition(ctx, orderID, userID, enums.OrderStatusConfirmed, "only pending orders can be confirmed")
}

// CancelOrder cancels a PENDING order on behalf of its owner and returns the
// items to stock.
func (s *service) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.ownerTransition(ctx, orderID, userID, enums.OrderStatusCancelled, "only pending orders can be cancelled")
}

func (s *service) ownerTransition(ctx context.Context, orderID, userID uuid.UUID, to enums.OrderStatus, illegalMsg string) (*models.Order, error) {
	actor := Actor{UserID: userID, Role: enums.UserRoleCustomer}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
		}
		if order.Status != enums.OrderStatusPending {
			return illegalTransition(illegalMsg, order.Status, to)
		}
		if to == enums.OrderStatusCancelled {
			result, err = s.cancel(ctx, tx, order, actor, payloads.CancelReasonCustomer)
			return err
		}
		result, err = s.move(ctx, tx, order, to, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus applies an admin status change checked against the order
// transition table.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, actor Actor) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(status) {
			return illegalTransition(fmt.Sprintf("cannot move order from %s to %s", order.Status, status), order.Status, status)
		}
		if status == enums.OrderStatusCancelled {
			result, err = s.cancel(ctx, tx, order, actor, payloads.CancelReasonAdmin)
			return err
		}
		result, err = s.move(ctx, tx, order, status, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RefundOrder cancels the order regardless of its current state and stamps
// refunded_at. No payment provider is involved. Items go back to stock only
// while the order has not shipped.
func (s *service) RefundOrder(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status.IsTerminal() || order.RefundedAt != nil {
			return illegalTransition("order is already cancelled or refunded", order.Status, enums.OrderStatusCancelled)
		}

		from := order.Status
		restock := from.HoldsStock()
		if restock {
			if err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}

		now := s.now()
		if err := s.applyStatus(ctx, tx, order, enums.OrderStatusCancelled, map[string]any{
			"cancelled_at": now,
			"refunded_at":  now,
		}); err != nil {
			return err
		}
		order.CancelledAt = &now
		order.RefundedAt = &now

		result = order
		return s.emit(ctx, tx, enums.EventOrderRefunded, order.ID, actor, payloads.OrderRefundedEvent{
			OrderID:    order.ID,
			UserID:     order.UserID,
			From:       from,
			TotalPrice: order.TotalPrice.String(),
			Restocked:  restock,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.load(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListMyOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return toList(rows, params.Limit), nil
}

func (s *service) AdminListOrders(ctx context.Context, filters AdminFilters, params pagination.Params) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *filters.Status))
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListAll(ctx, filters, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	return toList(rows, params.Limit), nil
}

func (s *service) HasDeliveredPurchase(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	ok, err := s.repo.HasDeliveredPurchase(ctx, userID, bookID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check purchase")
	}
	return ok, nil
}

// ExpireStalePending cancels up to limit PENDING orders created before cutoff,
// each in its own transaction. It returns how many were expired alongside
// every per-order failure.
func (s *service) ExpireStalePending(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	ids, err := s.repo.ListPendingBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stale orders")
	}

	expired := 0
	var errs error
	for _, id := range ids {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			order, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if order.Status != enums.OrderStatusPending {
				return nil
			}
			_, err = s.cancel(ctx, tx, order, Actor{}, payloads.CancelReasonExpired)
			return err
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", id, err))
			continue
		}
		expired++
	}
	return expired, errs
}

func (s *service) load(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.WithTx(tx).FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}

func (s *service) move(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, actor Actor) (*models.Order, error) {
	from := order.Status
	if err := s.applyStatus(ctx, tx, order, to, nil); err != nil {
		return nil, err
	}
	err := s.emit(ctx, tx, enums.EventOrderStatusChanged, order.ID, actor, payloads.OrderStatusChangedEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		From:    from,
		To:      to,
	})
	return order, err
}

func (s *service) cancel(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor, reason string) (*models.Order, error) {
	from := order.Status
	restock := from.HoldsStock()
	if restock {
		if err := s.restock(ctx, tx, order); err != nil {
			return nil, err
		}
	}
	now := s.now()
	if err := s.applyStatus(ctx, tx, order, enums.OrderStatusCancelled, map[string]any{"cancelled_at": now}); err != nil {
		return nil, err
	}
	order.CancelledAt = &now

	err := s.emit(ctx, tx, enums.EventOrderCancelled, order.ID, actor, payloads.OrderCancelledEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		From:      from,
		Reason:    reason,
		Restocked: restock,
	})
	return order, err
}

func (s *service) applyStatus(ctx context.Context, tx *gorm.DB, order *models.Order, to enums.OrderStatus, extra map[string]any) error {
	from := order.Status
	updates := map[string]any{"status": to, "updated_at": s.now()}
	for k, v := range extra {
		updates[k] = v
	}
	affected, err := s.repo.WithTx(tx).UpdateStatusFrom(ctx, order.ID, from, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}
	order.Status = to
	s.metrics.IncTransition(from.String(), to.String())
	return nil
}

func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	for _, item := range order.Items {
		if err := s.stock.IncreaseStock(ctx, tx, item.BookID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, orderID uuid.UUID, actor Actor, data any) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data:          data,
	}
	if actor.UserID != uuid.Nil {
		event.Actor = &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role.String()}
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
	}
	return nil
}

func createdPayload(order *models.Order) payloads.OrderCreatedEvent {
	lines := make([]payloads.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLine{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
			Subtotal:  item.Subtotal.String(),
		})
	}
	return payloads.OrderCreatedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice.String(),
		Items:      lines,
	}
}

func illegalTransition(msg string, from, to enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeBadRequest, msg).
		WithDetails(map[string]any{"from": from, "to": to})
}

func toList(rows []models.Order, limit int) *OrderList {
	page, next := pagination.Page(rows, limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderList{Orders: page, NextCursor: next}
}

func failureReason(err error) string {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeBadRequest:
		if typed := pkgerrors.As(err); typed != nil && typed.Message() == msgEmptyCart {
			return metrics.ReasonEmptyCart
		}
		return metrics.ReasonInsufficientStock
	case pkgerrors.CodeNotFound:
		return metrics.ReasonNotFound
	default:
		return metrics.ReasonInternal
	}
}
