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

// ProductRepository implements repository.ProductRepository using MongoDB.
type ProductRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new MongoDB-backed product repository.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(ProductsCollection)}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	doc, err := newProductDoc(product)
	if err != nil {
		return err
	}

	ctx, end := database.TraceOp(ctx, ProductsCollection, "InsertOne")
	_, err = r.coll.InsertOne(ctx, doc)
	end(err)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("product", "id", product.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by id.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, end := database.TraceOp(ctx, ProductsCollection, "FindOne")
	var doc productDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	end(ignoreNoDocuments(err))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundMsg("Product not found")
		}
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

// GetByIDs fetches every existing product among ids in a single query.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, end := database.TraceOp(ctx, ProductsCollection, "Find")
	var docs []productDoc
	err := findAll(ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}}, &docs)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	for i := range docs {
		p := docs[i].toDomain()
		out[p.ID] = p
	}
	return out, nil
}

// List returns a page of products, newest first, with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	ctx, end := database.TraceOp(ctx, ProductsCollection, "Find")
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		end(err)
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(filter.Page.Skip()).
		SetLimit(filter.Page.Limit())
	var docs []productDoc
	err = findAll(ctx, r.coll, query, &docs, opts)
	end(err)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for i := range docs {
		products = append(products, *docs[i].toDomain())
	}
	return products, int(total), nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter any, out any, opts ...*options.FindOptions) error {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return err
	}
	return cur.All(ctx, out)
}

// ignoreNoDocuments keeps "not found" lookups from marking spans as failed.
func ignoreNoDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}
