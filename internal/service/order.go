package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/event"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// CreateOrderInput holds the parameters for placing an order.
type CreateOrderInput struct {
	ShippingAddress AddressInput `json:"shippingAddress"`
}

// AddressInput is the shipping address as sent by the storefront client.
type AddressInput struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

func (a AddressInput) toDomain() domain.Address {
	return domain.Address{
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}

// ReturnRequestInput holds the reason given for a return.
type ReturnRequestInput struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// UpdateStatusInput holds the new order status set by an admin.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled returned"`
}

// PaymentCallbackInput is the body of a payment gateway callback.
type PaymentCallbackInput struct {
	TranID string `json:"tran_id" validate:"required"`
}

// PaymentSession is returned when a user starts paying for an order.
type PaymentSession struct {
	PaymentGatewayURL string `json:"payment_gateway_url"`
}

// PaymentConfig configures the simulated payment gateway.
type PaymentConfig struct {
	Method     string
	GatewayURL string
}

// OrderService implements checkout and the order status state machine.
type OrderService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	coupons  repository.CouponRepository
	products repository.ProductRepository
	tx       database.Transactor
	producer *event.Producer
	logger   *slog.Logger
	payment  PaymentConfig
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	coupons repository.CouponRepository,
	products repository.ProductRepository,
	tx database.Transactor,
	producer *event.Producer,
	logger *slog.Logger,
	payment PaymentConfig,
) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		coupons:  coupons,
		products: products,
		tx:       tx,
		producer: producer,
		logger:   logger,
		payment:  payment,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder turns the user's cart into an order priced at current catalog
// prices. The coupon on the cart is only re-checked for being active and
// its usage is reserved atomically; if either fails the order carries no
// discount. The checked-out lines and the coupon are then removed from the
// cart.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*domain.Order, error) {
	cart, err := s.carts.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart == nil || cart.IsEmpty() {
		return nil, apperrors.Rejected("CART_EMPTY", "Cart is empty")
	}

	var coupon *domain.CouponSnapshot
	if cart.Coupon != nil {
		live, err := s.coupons.GetActiveByCode(ctx, cart.Coupon.Code)
		switch {
		case err == nil:
			snapshot := live.Snapshot()
			coupon = &snapshot
		case errors.Is(err, apperrors.ErrNotFound):
			s.logger.InfoContext(ctx, "cart coupon no longer active, ordering without discount",
				slog.String("user_id", userID),
				slog.String("code", cart.Coupon.Code),
			)
		default:
			return nil, fmt.Errorf("get coupon for checkout: %w", err)
		}
	}

	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("get products for checkout: %w", err)
	}

	ordered := make(map[string]int, len(cart.Items))
	for _, item := range cart.Items {
		ordered[item.ID] = item.Quantity
	}

	var order *domain.Order
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		applied := coupon
		if applied != nil {
			reserved, err := s.coupons.ReserveUsage(ctx, applied.Code)
			if err != nil {
				return fmt.Errorf("reserve coupon usage: %w", err)
			}
			if !reserved {
				s.logger.InfoContext(ctx, "coupon usage limit reached at checkout, ordering without discount",
					slog.String("user_id", userID),
					slog.String("code", applied.Code),
				)
				applied = nil
			}
		}

		items, subtotal := domain.PriceItems(cart.Items, products)
		discount := domain.ComputeDiscount(subtotal, applied)

		now := s.now()
		order = &domain.Order{
			ID:              uuid.New().String(),
			UserID:          userID,
			Items:           items,
			ShippingAddress: input.ShippingAddress.toDomain(),
			PaymentStatus:   domain.PaymentStatusPending,
			OrderStatus:     domain.OrderStatusPending,
			PaymentMethod:   s.payment.Method,
			Subtotal:        subtotal,
			DiscountAmount:  discount,
			TotalAmount:     domain.ApplyDiscount(subtotal, discount),
			Coupon:          applied,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if err := s.orders.Create(ctx, order); err != nil {
			if applied != nil {
				s.releaseCouponUsage(ctx, applied.Code)
			}
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.carts.RemoveCheckedOut(ctx, userID, ordered); err != nil {
			return fmt.Errorf("clear checked-out cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ordersCreatedTotal.Inc()

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.producer.PublishCartCleared(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.String("total_amount", order.TotalAmount.String()),
		slog.Int("item_count", len(order.Items)),
	)

	return order, nil
}

// releaseCouponUsage gives back a reserved use when the order was not
// stored. Inside a transaction the release is rolled back together with the
// reservation.
func (s *OrderService) releaseCouponUsage(ctx context.Context, code string) {
	if err := s.coupons.ReleaseUsage(ctx, code); err != nil {
		s.logger.ErrorContext(ctx, "failed to release coupon usage",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, filter repository.OrderFilter) ([]domain.Order, int, error) {
	filter.UserID = userID
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder retrieves one of the user's orders.
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// CancelOrder cancels one of the user's orders unless it has shipped or been
// delivered.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	from := order.OrderStatus
	if err := order.Cancel(s.now()); err != nil {
		return nil, apperrors.Rejected("ORDER_NOT_CANCELLABLE", "Cannot cancel shipped or delivered order")
	}

	if err := s.persistTransition(ctx, order, from); err != nil {
		return nil, err
	}
	return order, nil
}

// InitiatePayment returns the gateway URL the user pays the order at.
func (s *OrderService) InitiatePayment(ctx context.Context, orderID, userID string) (*PaymentSession, error) {
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if err := order.CheckPayable(); err != nil {
		return nil, apperrors.Rejected("ORDER_ALREADY_PAID", "Order already paid")
	}

	u, err := url.Parse(s.payment.GatewayURL)
	if err != nil {
		return nil, fmt.Errorf("parse payment gateway url: %w", err)
	}
	q := u.Query()
	q.Set("orderId", order.ID)
	q.Set("amount", order.TotalAmount.String())
	u.RawQuery = q.Encode()

	s.logger.InfoContext(ctx, "payment initiated",
		slog.String("order_id", order.ID),
		slog.String("amount", order.TotalAmount.String()),
	)

	return &PaymentSession{PaymentGatewayURL: u.String()}, nil
}

// RequestReturn flags one of the user's orders as returned. A second request
// is rejected.
func (s *OrderService) RequestReturn(ctx context.Context, orderID, userID, reason string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	from := order.OrderStatus
	if err := order.RequestReturn(reason, s.now()); err != nil {
		return nil, apperrors.Rejected("RETURN_ALREADY_REQUESTED", "Return already requested")
	}

	if err := s.persistTransition(ctx, order, from); err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderReturnRequested(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.return_requested event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}

// HandlePaymentSuccess marks the order paid and moves it to processing. It
// overwrites whatever state the order was in.
func (s *OrderService) HandlePaymentSuccess(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.applyPayment(ctx, orderID, func(o *domain.Order, now time.Time) { o.MarkPaid(now) })
}

// HandlePaymentFail marks the payment failed and returns the order to
// pending.
func (s *OrderService) HandlePaymentFail(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.applyPayment(ctx, orderID, func(o *domain.Order, now time.Time) { o.MarkPaymentFailed(now) })
}

func (s *OrderService) applyPayment(ctx context.Context, orderID string, apply func(*domain.Order, time.Time)) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for payment: %w", err)
	}

	from := order.OrderStatus
	apply(order, s.now())

	if err := s.persistTransition(ctx, order, from); err != nil {
		return nil, err
	}

	if err := s.producer.PublishOrderPaymentUpdated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.payment_updated event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "payment status updated",
		slog.String("order_id", order.ID),
		slog.String("payment_status", order.PaymentStatus),
	)
	return order, nil
}

// AdminListOrders returns all orders, newest first, optionally filtered by
// status.
func (s *OrderService) AdminListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	filter.UserID = ""
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list all orders: %w", err)
	}
	return orders, total, nil
}

// AdminUpdateStatus overwrites the order status with any known status.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	from := order.OrderStatus
	if err := order.SetStatus(status, s.now()); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status %q", status))
	}

	if err := s.persistTransition(ctx, order, from); err != nil {
		return nil, err
	}
	return order, nil
}

// AdminApproveCancellation cancels the order regardless of its status.
func (s *OrderService) AdminApproveCancellation(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.AdminUpdateStatus(ctx, orderID, domain.OrderStatusCancelled)
}

// persistTransition saves the order's lifecycle fields and records the
// status change.
func (s *OrderService) persistTransition(ctx context.Context, order *domain.Order, from string) error {
	if err := s.orders.UpdateState(ctx, order); err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	if from == order.OrderStatus {
		return nil
	}

	orderStatusTransitionsTotal.WithLabelValues(from, order.OrderStatus).Inc()

	if err := s.producer.PublishOrderStatusChanged(ctx, order, from); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", order.ID),
		slog.String("from", from),
		slog.String("to", order.OrderStatus),
	)
	return nil
}
