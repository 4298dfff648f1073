package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/internal/domain"
	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
	apperrors "github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/errors"
)

// CouponRepository implements repository.CouponRepository using MongoDB.
type CouponRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewCouponRepository creates a new MongoDB-backed coupon repository.
func NewCouponRepository(db *mongo.Database) *CouponRepository {
	return &CouponRepository{
		coll: db.Collection(CouponsCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new coupon.
func (r *CouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	doc, err := newCouponDoc(coupon)
	if err != nil {
		return err
	}

	ctx, end := database.TraceOp(ctx, CouponsCollection, "InsertOne")
	_, err = r.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		end(nil)
		return apperrors.AlreadyExistsMsg("Coupon code already exists")
	}
	end(err)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByID retrieves a coupon by id regardless of its active flag.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*domain.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": id}, "Coupon not found")
}

// GetActiveByCode retrieves an active coupon by its normalised code.
func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	return r.findOne(ctx, bson.M{"code": code, "active": true}, "Invalid or inactive coupon code")
}

func (r *CouponRepository) findOne(ctx context.Context, filter bson.M, notFound string) (*domain.Coupon, error) {
	ctx, end := database.TraceOp(ctx, CouponsCollection, "FindOne")
	var doc couponDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	end(ignoreNoDocuments(err))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundMsg(notFound)
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns every coupon, newest first.
func (r *CouponRepository) List(ctx context.Context) ([]domain.Coupon, error) {
	ctx, end := database.TraceOp(ctx, CouponsCollection, "Find")
	var docs []couponDoc
	err := findAll(ctx, r.coll, bson.M{}, &docs, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	end(err)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}

	coupons := make([]domain.Coupon, 0, len(docs))
	for i := range docs {
		coupons = append(coupons, *docs[i].toDomain())
	}
	return coupons, nil
}

// Update replaces the stored coupon with coupon.
func (r *CouponRepository) Update(ctx context.Context, coupon *domain.Coupon) error {
	doc, err := newCouponDoc(coupon)
	if err != nil {
		return err
	}

	ctx, end := database.TraceOp(ctx, CouponsCollection, "ReplaceOne")
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": coupon.ID}, doc)
	if mongo.IsDuplicateKeyError(err) {
		end(nil)
		return apperrors.AlreadyExistsMsg("Coupon code already exists")
	}
	end(err)
	if err != nil {
		return fmt.Errorf("replace coupon %s: %w", coupon.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFoundMsg("Coupon not found")
	}
	return nil
}

// Delete removes a coupon by id.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	ctx, end := database.TraceOp(ctx, CouponsCollection, "DeleteOne")
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	end(err)
	if err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFoundMsg("Coupon not found")
	}
	return nil
}

// ReserveUsage increments used_count in a single conditional update so two
// checkouts can never both take the last use.
func (r *CouponRepository) ReserveUsage(ctx context.Context, code string) (bool, error) {
	filter := bson.M{
		"code":   code,
		"active": true,
		"$or": bson.A{
			bson.M{"usage_limit": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$usage_limit"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": r.now()},
	}

	ctx, end := database.TraceOp(ctx, CouponsCollection, "UpdateOne")
	res, err := r.coll.UpdateOne(ctx, filter, update)
	end(err)
	if err != nil {
		return false, fmt.Errorf("reserve coupon usage %s: %w", code, err)
	}
	return res.MatchedCount > 0, nil
}

// ReleaseUsage decrements used_count, never below zero.
func (r *CouponRepository) ReleaseUsage(ctx context.Context, code string) error {
	filter := bson.M{"code": code, "used_count": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"used_count": -1},
		"$set": bson.M{"updated_at": r.now()},
	}

	ctx, end := database.TraceOp(ctx, CouponsCollection, "UpdateOne")
	_, err := r.coll.UpdateOne(ctx, filter, update)
	end(err)
	if err != nil {
		return fmt.Errorf("release coupon usage %s: %w", code, err)
	}
	return nil
}
