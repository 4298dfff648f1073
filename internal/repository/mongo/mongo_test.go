package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const testNS = "shop.test"

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

// toD encodes a stored document the way the server would return it.
func toD(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func cursor(docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, testNS, mtest.FirstBatch, docs...)
}

func countResponse(n int64) bson.D {
	return cursor(bson.D{{Key: "n", Value: n}})
}

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func bsonN(n int) bson.E {
	return bson.E{Key: "n", Value: n}
}

func duplicateKey() bson.D {
	return mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"})
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var fixedTime = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
