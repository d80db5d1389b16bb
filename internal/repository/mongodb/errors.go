package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/neurobridge/portal-api/internal/apperr"
)

// wrapErr classifies driver failures. Timeouts, cancellations, and network
// errors surface as apperr.Unavailable (retryable); everything else stays
// a plain wrapped error for the service layer to treat as internal.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err) {
		return apperr.Wrap(apperr.Unavailable, "store temporarily unavailable",
			fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// idFilter matches a document by its application-assigned string id,
// tolerating legacy rows whose _id was written as a native ObjectID.
// Collections here were populated by several system revisions; some minted
// 24-hex strings, some let the store generate the id.
func idFilter(id string) bson.M {
	keys := bson.A{id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		keys = append(keys, oid)
	}
	return bson.M{"_id": bson.M{"$in": keys}}
}
