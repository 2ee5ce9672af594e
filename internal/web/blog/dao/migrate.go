package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	"go.mongodb.org/mongo-driver/bson"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-blog-rest/library/db/mongo"
)

// EnsureIndexes create the indexes relied on by uniqueness checks and queries
func (d *Blog) EnsureIndexes(ctx context.Context) error {
	if err := mongo.EnsureIndexes(ctx, d.GetUsersCol(),
		mongoLib.IndexModel{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	); err != nil {
		return errors.Wrap(err, "users")
	}

	if err := mongo.EnsureIndexes(ctx, d.GetBlogsCol(),
		mongoLib.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongoLib.IndexModel{Keys: newestFirst},
		mongoLib.IndexModel{Keys: bson.D{{Key: "author", Value: 1}, {Key: "createdAt", Value: -1}}},
	); err != nil {
		return errors.Wrap(err, "blogs")
	}

	if err := mongo.EnsureIndexes(ctx, d.GetCommentsCol(),
		mongoLib.IndexModel{Keys: bson.D{{Key: "blog", Value: 1}, {Key: "createdAt", Value: 1}}},
		mongoLib.IndexModel{Keys: bson.D{{Key: "parentComment", Value: 1}}},
	); err != nil {
		return errors.Wrap(err, "comments")
	}

	d.logger.Info("indexes ensured")
	return nil
}
