package mongo

import (
	"context"

	"github.com/Laisky/errors/v2"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
)

// NotFound reports whether err means no document matched
func NotFound(err error) bool {
	return errors.Is(err, mongoLib.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is caused by a unique index violation
func IsDuplicateKey(err error) bool {
	return mongoLib.IsDuplicateKeyError(err)
}

// EnsureIndexes creates indexes on col, existing identical indexes are left untouched
func EnsureIndexes(ctx context.Context, col *mongoLib.Collection, models ...mongoLib.IndexModel) error {
	if len(models) == 0 {
		return nil
	}

	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Wrapf(err, "create indexes on %q", col.Name())
	}

	return nil
}
