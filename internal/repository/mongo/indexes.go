package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saadalbhuiyan/Single-vendor-ecommerce/pkg/database"
)

// Indexes lists the indexes the repositories rely on. The unique indexes back
// the one-cart-per-user and unique-coupon-code rules.
func Indexes() []database.IndexSpec {
	return []database.IndexSpec{
		{
			Collection: CartsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("carts_user_id_unique").SetUnique(true),
			},
		},
		{
			Collection: CouponsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "code", Value: 1}},
				Options: options.Index().SetName("coupons_code_unique").SetUnique(true),
			},
		},
		{
			Collection: OrdersCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("orders_user_created"),
			},
		},
		{
			Collection: OrdersCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("orders_created"),
			},
		},
		{
			Collection: ProductsCollection,
			Model: mongo.IndexModel{
				Keys:    bson.D{{Key: "category", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("products_category_created"),
			},
		},
	}
}
