package dao

import (
	"context"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/library/db/mongo"
)

var newestFirst = bson.D{
	{Key: "createdAt", Value: -1},
	{Key: "_id", Value: -1},
}

// CreateBlog insert blog, duplicate slug returns model.ErrConflict
func (d *Blog) CreateBlog(ctx context.Context, blog *model.Blog) error {
	if _, err := d.GetBlogsCol().InsertOne(ctx, blog); err != nil {
		if mongo.IsDuplicateKey(err) {
			return errors.Wrapf(model.ErrConflict, "slug %q", blog.Slug)
		}

		return errors.Wrapf(err, "insert blog %q", blog.Slug)
	}

	d.logger.Info("insert new blog",
		zap.String("blog", blog.ID.Hex()),
		zap.String("slug", blog.Slug))
	return nil
}

// ListBlogs all blogs, newest first
func (d *Blog) ListBlogs(ctx context.Context) ([]*model.Blog, error) {
	return d.findBlogs(ctx, bson.M{})
}

// ListBlogsByAuthor blogs written by uid, newest first
func (d *Blog) ListBlogsByAuthor(ctx context.Context, uid primitive.ObjectID) ([]*model.Blog, error) {
	return d.findBlogs(ctx, bson.M{"author": uid})
}

func (d *Blog) findBlogs(ctx context.Context, filter bson.M) ([]*model.Blog, error) {
	cur, err := d.GetBlogsCol().Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, errors.Wrap(err, "find blogs")
	}
	defer cur.Close(ctx) // nolint: errcheck

	blogs := []*model.Blog{}
	if err = cur.All(ctx, &blogs); err != nil {
		return nil, errors.Wrap(err, "decode blogs")
	}

	return blogs, nil
}

// GetBlogBySlug load blog by slug
func (d *Blog) GetBlogBySlug(ctx context.Context, slug string) (*model.Blog, error) {
	return d.findBlog(ctx, bson.M{"slug": slug})
}

// GetBlogByID load blog by id
func (d *Blog) GetBlogByID(ctx context.Context, id primitive.ObjectID) (*model.Blog, error) {
	return d.findBlog(ctx, bson.M{"_id": id})
}

func (d *Blog) findBlog(ctx context.Context, filter bson.M) (*model.Blog, error) {
	blog := new(model.Blog)
	if err := d.GetBlogsCol().FindOne(ctx, filter).Decode(blog); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrap(model.ErrNotFound, "blog")
		}

		return nil, errors.Wrap(err, "find blog")
	}

	return blog, nil
}

// UpdateBlog set changed fields and return the updated blog
func (d *Blog) UpdateBlog(ctx context.Context,
	id primitive.ObjectID, upd *model.BlogUpdate) (*model.Blog, error) {
	set := bson.M{"updatedAt": gutils.Clock.GetUTCNow()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Slug != nil {
		set["slug"] = *upd.Slug
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.CoverImage != nil {
		set["coverImage"] = *upd.CoverImage
	}

	blog := new(model.Blog)
	err := d.GetBlogsCol().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(blog)
	switch {
	case err == nil:
		return blog, nil
	case mongo.NotFound(err):
		return nil, errors.Wrapf(model.ErrNotFound, "blog %s", id.Hex())
	case mongo.IsDuplicateKey(err):
		return nil, errors.Wrap(model.ErrConflict, "slug")
	default:
		return nil, errors.Wrapf(err, "update blog %s", id.Hex())
	}
}

// DeleteBlog remove blog, returns false if it did not exist
func (d *Blog) DeleteBlog(ctx context.Context, id primitive.ObjectID) (bool, error) {
	ret, err := d.GetBlogsCol().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, errors.Wrapf(err, "delete blog %s", id.Hex())
	}

	return ret.DeletedCount == 1, nil
}

// AddView record uid as a viewer of the blog.
// counted is false if uid has viewed it before.
func (d *Blog) AddView(ctx context.Context,
	slug string, uid primitive.ObjectID) (blog *model.Blog, counted bool, err error) {
	blog = new(model.Blog)
	err = d.GetBlogsCol().FindOneAndUpdate(ctx,
		bson.M{"slug": slug, "views": bson.M{"$ne": uid}},
		bson.M{
			"$addToSet": bson.M{"views": uid},
			"$inc":      bson.M{"blogStatus.views": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(blog)
	if err == nil {
		return blog, true, nil
	}
	if !mongo.NotFound(err) {
		return nil, false, errors.Wrapf(err, "add view to %q", slug)
	}

	// either already viewed or no such blog
	if blog, err = d.GetBlogBySlug(ctx, slug); err != nil {
		return nil, false, err
	}

	return blog, false, nil
}

// ToggleLike like the blog if uid has not liked it, otherwise unlike it.
// The counter is recomputed from the array in the same update.
func (d *Blog) ToggleLike(ctx context.Context,
	id, uid primitive.ObjectID) (blog *model.Blog, liked bool, err error) {
	blog, err = d.updateBlogPipeline(ctx, id, mongoLib.Pipeline{
		toggleStage("likes", "", uid),
		countStage("blogStatus.likes", "likes"),
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "toggle like")
	}

	return blog, blog.LikedBy(uid), nil
}

// AttachComment add comment id to the blog and recount
func (d *Blog) AttachComment(ctx context.Context, blogID, commentID primitive.ObjectID) error {
	_, err := d.updateBlogPipeline(ctx, blogID, mongoLib.Pipeline{
		addStage("comments", commentID),
		countStage("blogStatus.comments", "comments"),
	})
	if err != nil {
		return errors.Wrap(err, "attach comment")
	}

	return nil
}

// DetachComments remove comment ids from the blog and recount
func (d *Blog) DetachComments(ctx context.Context, blogID primitive.ObjectID, ids ...primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := d.updateBlogPipeline(ctx, blogID, mongoLib.Pipeline{
		removeStage("comments", ids...),
		countStage("blogStatus.comments", "comments"),
	})
	if err != nil {
		return errors.Wrap(err, "detach comments")
	}

	return nil
}

func (d *Blog) updateBlogPipeline(ctx context.Context,
	id primitive.ObjectID, pipeline mongoLib.Pipeline) (*model.Blog, error) {
	pipeline = append(pipeline, touchStage())
	blog := new(model.Blog)
	if err := d.GetBlogsCol().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(blog); err != nil {
		if mongo.NotFound(err) {
			return nil, errors.Wrapf(model.ErrNotFound, "blog %s", id.Hex())
		}

		return nil, errors.Wrapf(err, "update blog %s", id.Hex())
	}

	return blog, nil
}
