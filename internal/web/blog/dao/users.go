package dao

import (
	"context"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/library/db/mongo"
)

// CreateUser insert user, duplicate email returns model.ErrConflict
func (d *Blog) CreateUser(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)
	if _, err := d.GetUsersCol().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKey(err) {
			return errors.Wrapf(model.ErrConflict, "email %q", user.Email)
		}

		return errors.Wrapf(err, "insert user %q", user.Email)
	}

	d.logger.Info("insert new user", zap.String("user", user.ID.Hex()))
	return nil
}

// GetUserByID load user by id
func (d *Blog) GetUserByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	return d.findUser(ctx, bson.M{"_id": id})
}

// GetUserByEmail load user by email
func (d *Blog) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return d.findUser(ctx, bson.M{"email": strings.ToLower(email)})
}

func (d *Blog) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	user := new(model.User)
	if err := d.GetUsersCol().FindOne(ctx, filter).Decode(user); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrap(model.ErrNotFound, "user")
		}

		return nil, errors.Wrap(err, "find user")
	}

	return user, nil
}

// GetUsersByIDs load users in one query, missing ids are skipped
func (d *Blog) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	users := []*model.User{}
	if len(ids) == 0 {
		return users, nil
	}

	cur, err := d.GetUsersCol().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find users")
	}
	defer cur.Close(ctx) // nolint: errcheck

	if err = cur.All(ctx, &users); err != nil {
		return nil, errors.Wrap(err, "decode users")
	}

	return users, nil
}

// IncrBlogCount add delta to user's blog count
func (d *Blog) IncrBlogCount(ctx context.Context, uid primitive.ObjectID, delta int) error {
	ret, err := d.GetUsersCol().UpdateOne(ctx,
		bson.M{"_id": uid},
		bson.M{
			"$inc":         bson.M{"blogCount": delta},
			"$currentDate": bson.M{"updatedAt": true},
		})
	if err != nil {
		return errors.Wrapf(err, "incr blog count of %s", uid.Hex())
	}
	if ret.MatchedCount == 0 {
		return errors.Wrapf(model.ErrNotFound, "user %s", uid.Hex())
	}

	return nil
}
