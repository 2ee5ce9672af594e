package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/library/db/mongo"
)

// InsertComment insert comment
func (d *Blog) InsertComment(ctx context.Context, comment *model.Comment) error {
	if _, err := d.GetCommentsCol().InsertOne(ctx, comment); err != nil {
		return errors.Wrap(err, "insert comment")
	}

	return nil
}

// GetComment load comment by id
func (d *Blog) GetComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error) {
	comment := new(model.Comment)
	if err := d.GetCommentsCol().FindOne(ctx, bson.M{"_id": id}).Decode(comment); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
		}

		return nil, errors.Wrapf(err, "find comment %s", id.Hex())
	}

	return comment, nil
}

// ListComments every comment of the blog in one query, oldest first
func (d *Blog) ListComments(ctx context.Context, blogID primitive.ObjectID) ([]*model.Comment, error) {
	cur, err := d.GetCommentsCol().Find(ctx,
		bson.M{"blog": blogID},
		options.Find().SetSort(bson.D{
			{Key: "createdAt", Value: 1},
			{Key: "_id", Value: 1},
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "find comments")
	}
	defer cur.Close(ctx) // nolint: errcheck

	comments := []*model.Comment{}
	if err = cur.All(ctx, &comments); err != nil {
		return nil, errors.Wrap(err, "decode comments")
	}

	return comments, nil
}

// AppendReply add reply id to the parent's reply list
func (d *Blog) AppendReply(ctx context.Context, parentID, replyID primitive.ObjectID) error {
	return d.updateCommentIDs(ctx, parentID, bson.M{"$addToSet": bson.M{"replies": replyID}})
}

// PullReply remove reply id from the parent's reply list
func (d *Blog) PullReply(ctx context.Context, parentID, replyID primitive.ObjectID) error {
	return d.updateCommentIDs(ctx, parentID, bson.M{"$pull": bson.M{"replies": replyID}})
}

func (d *Blog) updateCommentIDs(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["$currentDate"] = bson.M{"updatedAt": true}
	ret, err := d.GetCommentsCol().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return errors.Wrapf(err, "update comment %s", id.Hex())
	}
	if ret.MatchedCount == 0 {
		return errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
	}

	return nil
}

// UpdateCommentText replace the text of a comment
func (d *Blog) UpdateCommentText(ctx context.Context, id primitive.ObjectID, text string) (*model.Comment, error) {
	comment := new(model.Comment)
	if err := d.GetCommentsCol().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"text":      text,
			"updatedAt": gutils.Clock.GetUTCNow(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(comment); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
		}

		return nil, errors.Wrapf(err, "update comment %s", id.Hex())
	}

	return comment, nil
}

// DeleteComments remove comments by id
func (d *Blog) DeleteComments(ctx context.Context, ids ...primitive.ObjectID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	ret, err := d.GetCommentsCol().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, errors.Wrap(err, "delete comments")
	}

	return int(ret.DeletedCount), nil
}

// DeleteCommentsByBlog remove every comment of the blog
func (d *Blog) DeleteCommentsByBlog(ctx context.Context, blogID primitive.ObjectID) (int, error) {
	ret, err := d.GetCommentsCol().DeleteMany(ctx, bson.M{"blog": blogID})
	if err != nil {
		return 0, errors.Wrapf(err, "delete comments of blog %s", blogID.Hex())
	}

	return int(ret.DeletedCount), nil
}

// ReactComment toggle uid's reaction, a like clears a dislike and vice versa
func (d *Blog) ReactComment(ctx context.Context,
	id, uid primitive.ObjectID, reaction model.Reaction) (*model.Comment, error) {
	field, opposite := "likes", "dislikes"
	if reaction == model.ReactionDislike {
		field, opposite = opposite, field
	}

	comment := new(model.Comment)
	if err := d.GetCommentsCol().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		mongoLib.Pipeline{
			toggleStage(field, opposite, uid),
			touchStage(),
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(comment); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
		}

		return nil, errors.Wrapf(err, "react comment %s", id.Hex())
	}

	return comment, nil
}
