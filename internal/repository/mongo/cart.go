package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// CartRepository implements repository.CartRepository using MongoDB. A
// unique index on user_id keeps one cart per user.
type CartRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewCartRepository creates a new MongoDB-backed cart repository.
func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{
		coll: db.Collection(CartsCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// GetByUserID retrieves the cart owned by userID.
func (r *CartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, end := database.TraceOp(ctx, CartsCollection, "FindOne")
	var doc cartDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	end(ignoreNoDocuments(err))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundMsg("Cart not found")
		}
		return nil, fmt.Errorf("find cart for user %s: %w", userID, err)
	}
	return doc.toDomain(), nil
}

// SaveIfVersion inserts a first-time cart or replaces the stored one when its
// version still matches expectedVersion.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (bool, error) {
	next := expectedVersion + 1
	doc, err := newCartDoc(cart, next)
	if err != nil {
		return false, err
	}

	if expectedVersion == 0 {
		ctx, end := database.TraceOp(ctx, CartsCollection, "InsertOne")
		_, err := r.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			end(nil)
			return false, nil
		}
		end(err)
		if err != nil {
			return false, fmt.Errorf("insert cart: %w", err)
		}
		cart.Version = next
		return true, nil
	}

	ctx, end := database.TraceOp(ctx, CartsCollection, "ReplaceOne")
	res, err := r.coll.ReplaceOne(ctx, bson.M{"user_id": cart.UserID, "version": expectedVersion}, doc)
	end(err)
	if err != nil {
		return false, fmt.Errorf("replace cart: %w", err)
	}
	if res.MatchedCount == 0 {
		return false, nil
	}
	cart.Version = next
	return true, nil
}

// RemoveCheckedOut subtracts the ordered quantities from the user's cart and
// drops emptied lines. The coupon reset and version bump share the same
// pipeline update, so a line merged into after checkout keeps the difference.
func (r *CartRepository) RemoveCheckedOut(ctx context.Context, userID string, ordered map[string]int) error {
	if len(ordered) == 0 {
		return nil
	}

	branches := make(bson.A, 0, len(ordered))
	for id, qty := range ordered {
		branches = append(branches, bson.M{
			"case": bson.M{"$eq": bson.A{"$$item.id", id}},
			"then": qty,
		})
	}
	remaining := bson.M{"$subtract": bson.A{
		"$$item.quantity",
		bson.M{"$switch": bson.M{"branches": branches, "default": 0}},
	}}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"items": bson.M{"$filter": bson.M{
				"input": bson.M{"$map": bson.M{
					"input": "$items",
					"as":    "item",
					"in":    bson.M{"$mergeObjects": bson.A{"$$item", bson.M{"quantity": remaining}}},
				}},
				"as":   "item",
				"cond": bson.M{"$gt": bson.A{"$$item.quantity", 0}},
			}},
			"coupon":     nil,
			"updated_at": r.now(),
			"version":    bson.M{"$add": bson.A{"$version", 1}},
		}}},
	}

	ctx, end := database.TraceOp(ctx, CartsCollection, "UpdateOne")
	res, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	end(err)
	if err != nil {
		return fmt.Errorf("clear checked-out cart items: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFoundMsg("Cart not found")
	}
	return nil
}
