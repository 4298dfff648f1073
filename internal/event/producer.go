package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	pkgkafka "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/kafka"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/logger"
)

// Kafka topics for domain events.
var (
	TopicCartUpdated          = pkgkafka.Topic("cart", "updated")
	TopicCartCleared          = pkgkafka.Topic("cart", "cleared")
	TopicOrderCreated         = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged   = pkgkafka.Topic("order", "status_changed")
	TopicOrderPaymentUpdated  = pkgkafka.Topic("order", "payment_updated")
	TopicOrderReturnRequested = pkgkafka.Topic("order", "return_requested")
	TopicCouponCreated        = pkgkafka.Topic("coupon", "created")
	TopicCouponUpdated        = pkgkafka.Topic("coupon", "updated")
	TopicCouponDeleted        = pkgkafka.Topic("coupon", "deleted")
)

// Aggregate types.
const (
	AggregateTypeCart   = "cart"
	AggregateTypeOrder  = "order"
	AggregateTypeCoupon = "coupon"
)

// Source identifies events published by this service.
const Source = "shop-api"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID    string         `json:"user_id"`
	CartID    string         `json:"cart_id"`
	Items     []CartItemData `json:"items"`
	ItemCount int            `json:"item_count"`
	Coupon    string         `json:"coupon,omitempty"`
	Version   int64          `json:"version"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ItemID    string `json:"item_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID        string          `json:"order_id"`
	UserID         string          `json:"user_id"`
	ItemCount      int             `json:"item_count"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CouponCode     string          `json:"coupon_code,omitempty"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// OrderPaymentUpdatedData is the payload for an order.payment_updated event.
type OrderPaymentUpdatedData struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	OrderStatus   string `json:"order_status"`
}

// OrderReturnRequestedData is the payload for an order.return_requested event.
type OrderReturnRequestedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Reason  string `json:"reason"`
}

// CouponData is the payload for coupon lifecycle events.
type CouponData struct {
	CouponID string `json:"coupon_id"`
	Code     string `json:"code,omitempty"`
	Active   bool   `json:"active"`
}

// Producer publishes domain events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		publisher: publisher,
		logger:    logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, cart *domain.Cart) error {
	items := make([]CartItemData, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = CartItemData{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	data := CartUpdatedData{
		UserID:    cart.UserID,
		CartID:    cart.ID,
		Items:     items,
		ItemCount: cart.ItemCount(),
		Version:   cart.Version,
	}
	if cart.Coupon != nil {
		data.Coupon = cart.Coupon.Code
	}

	return p.publish(ctx, TopicCartUpdated, cart.UserID, AggregateTypeCart, data)
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, userID string) error {
	return p.publish(ctx, TopicCartCleared, userID, AggregateTypeCart, CartClearedData{UserID: userID})
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:        order.ID,
		UserID:         order.UserID,
		ItemCount:      len(order.Items),
		Subtotal:       order.Subtotal,
		DiscountAmount: order.DiscountAmount,
		TotalAmount:    order.TotalAmount,
	}
	if order.Coupon != nil {
		data.CouponCode = order.Coupon.Code
	}
	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data)
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, oldStatus string) error {
	data := OrderStatusChangedData{
		OrderID:   order.ID,
		UserID:    order.UserID,
		OldStatus: oldStatus,
		NewStatus: order.OrderStatus,
	}
	return p.publish(ctx, TopicOrderStatusChanged, order.ID, AggregateTypeOrder, data)
}

// PublishOrderPaymentUpdated publishes an order.payment_updated event.
func (p *Producer) PublishOrderPaymentUpdated(ctx context.Context, order *domain.Order) error {
	data := OrderPaymentUpdatedData{
		OrderID:       order.ID,
		PaymentStatus: order.PaymentStatus,
		OrderStatus:   order.OrderStatus,
	}
	return p.publish(ctx, TopicOrderPaymentUpdated, order.ID, AggregateTypeOrder, data)
}

// PublishOrderReturnRequested publishes an order.return_requested event.
func (p *Producer) PublishOrderReturnRequested(ctx context.Context, order *domain.Order) error {
	data := OrderReturnRequestedData{
		OrderID: order.ID,
		UserID:  order.UserID,
		Reason:  order.ReturnReason,
	}
	return p.publish(ctx, TopicOrderReturnRequested, order.ID, AggregateTypeOrder, data)
}

// PublishCouponCreated publishes a coupon.created event.
func (p *Producer) PublishCouponCreated(ctx context.Context, coupon *domain.Coupon) error {
	return p.publish(ctx, TopicCouponCreated, coupon.ID, AggregateTypeCoupon, couponData(coupon))
}

// PublishCouponUpdated publishes a coupon.updated event.
func (p *Producer) PublishCouponUpdated(ctx context.Context, coupon *domain.Coupon) error {
	return p.publish(ctx, TopicCouponUpdated, coupon.ID, AggregateTypeCoupon, couponData(coupon))
}

// PublishCouponDeleted publishes a coupon.deleted event.
func (p *Producer) PublishCouponDeleted(ctx context.Context, couponID string) error {
	return p.publish(ctx, TopicCouponDeleted, couponID, AggregateTypeCoupon, CouponData{CouponID: couponID})
}

func couponData(c *domain.Coupon) CouponData {
	return CouponData{CouponID: c.ID, Code: c.Code, Active: c.Active}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", evt.EventID),
	)
	return nil
}
