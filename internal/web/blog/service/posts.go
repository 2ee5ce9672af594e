package service

import (
	"context"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dto"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

func blogNotFound() error {
	return model.NewUserError(model.ErrNotFound, "Blog Not Found")
}

// populateBlogAuthors fill Author of every blog with one lookup
func (s *Blog) populateBlogAuthors(ctx context.Context, blogs ...*model.Blog) error {
	ids := make([]primitive.ObjectID, 0, len(blogs))
	for _, b := range blogs {
		ids = append(ids, b.AuthorID)
	}

	authors, err := s.profiles(ctx, ids)
	if err != nil {
		return err
	}

	for _, b := range blogs {
		b.Author = authors[b.AuthorID]
	}

	return nil
}

// ListBlogs all blogs, newest first, with authors
func (s *Blog) ListBlogs(ctx context.Context) ([]*model.Blog, error) {
	logger := gmw.GetLogger(ctx)
	if s.cache != nil {
		var blogs []*model.Blog
		ok, err := s.cache.GetJSON(ctx, cacheKeyAllBlogs, &blogs)
		if err != nil {
			logger.Warn("load blogs from cache", zap.Error(err))
		} else if ok {
			return blogs, nil
		}
	}

	blogs, err := s.dao.ListBlogs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list blogs")
	}
	if err = s.populateBlogAuthors(ctx, blogs...); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err = s.cache.SetJSON(ctx, cacheKeyAllBlogs, blogs, s.cacheTTL); err != nil {
			logger.Warn("save blogs to cache", zap.Error(err))
		}
	}

	return blogs, nil
}

// ListUserBlogs blogs of uid with totals over all of them
func (s *Blog) ListUserBlogs(ctx context.Context, uid primitive.ObjectID) (*dto.UserBlogs, error) {
	var (
		author *model.User
		blogs  []*model.Blog
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		author, err = s.loadActor(gctx, uid)
		return err
	})
	g.Go(func() (err error) {
		if blogs, err = s.dao.ListBlogsByAuthor(gctx, uid); err != nil {
			return errors.Wrap(err, "list blogs of user")
		}

		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(blogs) == 0 {
		return nil, model.NewUserError(model.ErrNotFound, "No blogs found for this user")
	}

	ret := &dto.UserBlogs{Blogs: blogs}
	profile := author.Profile()
	for _, b := range blogs {
		b.Author = profile
		ret.Totals.Blogs++
		ret.Totals.Comments += b.Status.Comments
		ret.Totals.Likes += b.Status.Likes
		ret.Totals.Views += b.Status.Views
	}

	return ret, nil
}

// GetBlog load blog by slug with its author
func (s *Blog) GetBlog(ctx context.Context, slug string) (*model.Blog, error) {
	blog, err := s.dao.GetBlogBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, blogNotFound()
		}

		return nil, errors.Wrapf(err, "get blog %q", slug)
	}

	if err = s.populateBlogAuthors(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

// CreateBlog publish a new blog written by uid
func (s *Blog) CreateBlog(ctx context.Context, uid primitive.ObjectID, req *dto.CreateBlogReq) (*model.Blog, error) {
	logger := gmw.GetLogger(ctx).Named("create_blog")

	title, err := sanitizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := sanitizeContent(req.Content)
	if err != nil {
		return nil, err
	}
	category, err := sanitizeCategory(req.Category)
	if err != nil {
		return nil, err
	}
	if req.CoverImage == nil || len(req.CoverImage.Data) == 0 {
		return nil, invalidArgument("cover image is required")
	}
	slug := Slugify(title)
	if slug == "" {
		return nil, invalidArgument("title must contain letters or digits")
	}

	author, err := s.loadActor(ctx, uid)
	if err != nil {
		return nil, err
	}

	cover, err := s.uploadImage(ctx, folderCovers, req.CoverImage)
	if err != nil {
		return nil, errors.Wrap(err, "upload cover image")
	}

	blog := model.NewBlog()
	blog.Title = title
	blog.Slug = slug
	blog.Content = content
	blog.Category = category
	blog.CoverImage = cover
	blog.AuthorID = author.ID
	if err = s.dao.CreateBlog(ctx, blog); err != nil {
		s.removeAsset(ctx, cover)
		if errors.Is(err, model.ErrConflict) {
			return nil, model.NewUserError(model.ErrConflict, "a blog with the same slug %q already exists", slug)
		}

		return nil, errors.Wrap(err, "create blog")
	}
	s.invalidateBlogs(ctx)

	if err = s.dao.IncrBlogCount(ctx, author.ID, 1); err != nil {
		return nil, errors.Wrap(err, "increase blog count")
	}

	blog.Author = author.Profile()
	logger.Info("blog created",
		zap.String("blog", blog.ID.Hex()),
		zap.String("slug", blog.Slug))
	return blog, nil
}

// UpdateBlog change fields of a blog owned by uid.
// A new cover replaces the old one, which is removed only after the update succeeded.
func (s *Blog) UpdateBlog(ctx context.Context,
	uid, id primitive.ObjectID, req *dto.UpdateBlogReq) (*model.Blog, error) {
	actor, err := s.loadActor(ctx, uid)
	if err != nil {
		return nil, err
	}

	old, err := s.dao.GetBlogByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, blogNotFound()
		}

		return nil, errors.Wrap(err, "load blog")
	}
	if err = authorize(actor, old.AuthorID, "blog"); err != nil {
		return nil, err
	}

	upd := new(model.BlogUpdate)
	if req.Title != nil {
		title, err := sanitizeTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		slug := Slugify(title)
		if slug == "" {
			return nil, invalidArgument("title must contain letters or digits")
		}

		upd.Title = &title
		upd.Slug = &slug
	}
	if req.Content != nil {
		content, err := sanitizeContent(*req.Content)
		if err != nil {
			return nil, err
		}
		upd.Content = &content
	}
	if req.Category != nil {
		category, err := sanitizeCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		upd.Category = &category
	}
	if req.CoverImage != nil && len(req.CoverImage.Data) != 0 {
		cover, err := s.uploadImage(ctx, folderCovers, req.CoverImage)
		if err != nil {
			return nil, errors.Wrap(err, "upload cover image")
		}
		upd.CoverImage = &cover
	}
	if upd.Empty() {
		return nil, invalidArgument("nothing to update")
	}

	blog, err := s.dao.UpdateBlog(ctx, id, upd)
	if err != nil {
		if upd.CoverImage != nil {
			s.removeAsset(ctx, *upd.CoverImage)
		}

		switch {
		case errors.Is(err, model.ErrNotFound):
			return nil, blogNotFound()
		case errors.Is(err, model.ErrConflict):
			return nil, model.NewUserError(model.ErrConflict, "a blog with the same slug %q already exists", *upd.Slug)
		default:
			return nil, errors.Wrap(err, "update blog")
		}
	}
	if upd.CoverImage != nil && old.CoverImage.PublicID != upd.CoverImage.PublicID {
		s.removeAsset(ctx, old.CoverImage)
	}
	s.invalidateBlogs(ctx)

	if err = s.populateBlogAuthors(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

// DeleteBlog remove the cover, the blog and its comments.
// Deleting a missing blog returns false without error.
func (s *Blog) DeleteBlog(ctx context.Context, uid, id primitive.ObjectID) (deleted bool, err error) {
	logger := gmw.GetLogger(ctx).Named("delete_blog").With(zap.String("blog", id.Hex()))

	actor, err := s.loadActor(ctx, uid)
	if err != nil {
		return false, err
	}

	blog, err := s.dao.GetBlogByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Debug("blog already deleted")
			return false, nil
		}

		return false, errors.Wrap(err, "load blog")
	}
	if err = authorize(actor, blog.AuthorID, "blog"); err != nil {
		return false, err
	}

	if blog.CoverImage.PublicID != "" {
		if err = s.media.Remove(ctx, blog.CoverImage.PublicID); err != nil {
			return false, errors.Wrap(err, "remove cover image")
		}
	}

	if deleted, err = s.dao.DeleteBlog(ctx, id); err != nil {
		return false, errors.Wrap(err, "delete blog")
	}
	s.invalidateBlogs(ctx)
	if !deleted {
		return false, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.dao.DeleteCommentsByBlog(gctx, id)
		if err != nil {
			return errors.Wrap(err, "delete comments")
		}

		logger.Debug("comments deleted", zap.Int("n", n))
		return nil
	})
	g.Go(func() error {
		err := s.dao.IncrBlogCount(gctx, blog.AuthorID, -1)
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			return errors.Wrap(err, "decrease blog count")
		}

		return nil
	})
	if err = g.Wait(); err != nil {
		return true, err
	}

	logger.Info("blog deleted")
	return true, nil
}

// ViewBlog count uid as a viewer, repeated views are not counted
func (s *Blog) ViewBlog(ctx context.Context, uid primitive.ObjectID, slug string) (*model.Blog, error) {
	blog, counted, err := s.dao.AddView(ctx, slug, uid)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, blogNotFound()
		}

		return nil, errors.Wrapf(err, "view blog %q", slug)
	}
	if counted {
		s.invalidateBlogs(ctx)
	}
	if err = s.populateBlogAuthors(ctx, blog); err != nil {
		return nil, err
	}

	return blog, nil
}

// ToggleLike like or unlike a blog
func (s *Blog) ToggleLike(ctx context.Context, uid, id primitive.ObjectID) (*dto.LikeResult, error) {
	blog, liked, err := s.dao.ToggleLike(ctx, id, uid)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, blogNotFound()
		}

		return nil, errors.Wrap(err, "toggle like")
	}
	s.invalidateBlogs(ctx)

	return &dto.LikeResult{
		LikesCount:  blog.Status.Likes,
		LikedByUser: liked,
	}, nil
}
