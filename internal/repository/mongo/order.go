package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/repository"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using MongoDB.
type OrderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates a new MongoDB-backed order repository.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(OrdersCollection)}
}

// Create inserts a new order with its items embedded.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	doc, err := newOrderDoc(order)
	if err != nil {
		return err
	}

	ctx, end := database.TraceOp(ctx, OrdersCollection, "InsertOne")
	_, err = r.coll.InsertOne(ctx, doc)
	end(err)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetForUser retrieves an order by id only if userID owns it.
func (r *OrderRepository) GetForUser(ctx context.Context, id, userID string) (*domain.Order, error) {
	return r.findOne(ctx, bson.M{"_id": id, "user_id": userID})
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	ctx, end := database.TraceOp(ctx, OrdersCollection, "FindOne")
	var doc orderDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	end(ignoreNoDocuments(err))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundMsg("Order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns a page of orders matching filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		query["order_status"] = filter.Status
	}

	ctx, end := database.TraceOp(ctx, OrdersCollection, "Find")
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Page.Skip()).
		SetLimit(filter.Page.Limit())
	var docs []orderDoc
	err = findAll(ctx, r.coll, query, &docs, opts)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, *docs[i].toDomain())
	}
	return orders, int(total), nil
}

// UpdateState writes the payment status, order status, return fields and
// update time of order.
func (r *OrderRepository) UpdateState(ctx context.Context, order *domain.Order) error {
	update := bson.M{"$set": bson.M{
		"payment_status":   order.PaymentStatus,
		"order_status":     order.OrderStatus,
		"return_requested": order.ReturnRequested,
		"return_reason":    order.ReturnReason,
		"updated_at":       order.UpdatedAt,
	}}

	ctx, end := database.TraceOp(ctx, OrdersCollection, "UpdateOne")
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": order.ID}, update)
	end(err)
	if err != nil {
		return fmt.Errorf("update order %s: %w", order.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFoundMsg("Order not found")
	}
	return nil
}
