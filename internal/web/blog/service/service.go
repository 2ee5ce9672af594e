// Package service implements the blog use cases on top of a Store.
package service

import (
	"context"
	"time"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dto"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/library/jwt"
	"github.com/Laisky/laisky-blog-rest/library/media"
)

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*model.User, error)
	IncrBlogCount(ctx context.Context, uid primitive.ObjectID, delta int) error
}

// BlogStore persists blogs, counters are updated atomically with their id arrays
type BlogStore interface {
	CreateBlog(ctx context.Context, blog *model.Blog) error
	ListBlogs(ctx context.Context) ([]*model.Blog, error)
	ListBlogsByAuthor(ctx context.Context, uid primitive.ObjectID) ([]*model.Blog, error)
	GetBlogBySlug(ctx context.Context, slug string) (*model.Blog, error)
	GetBlogByID(ctx context.Context, id primitive.ObjectID) (*model.Blog, error)
	UpdateBlog(ctx context.Context, id primitive.ObjectID, upd *model.BlogUpdate) (*model.Blog, error)
	DeleteBlog(ctx context.Context, id primitive.ObjectID) (bool, error)
	AddView(ctx context.Context, slug string, uid primitive.ObjectID) (*model.Blog, bool, error)
	ToggleLike(ctx context.Context, id, uid primitive.ObjectID) (*model.Blog, bool, error)
	AttachComment(ctx context.Context, blogID, commentID primitive.ObjectID) error
	DetachComments(ctx context.Context, blogID primitive.ObjectID, ids ...primitive.ObjectID) error
}

// CommentStore persists comments
type CommentStore interface {
	InsertComment(ctx context.Context, comment *model.Comment) error
	GetComment(ctx context.Context, id primitive.ObjectID) (*model.Comment, error)
	ListComments(ctx context.Context, blogID primitive.ObjectID) ([]*model.Comment, error)
	AppendReply(ctx context.Context, parentID, replyID primitive.ObjectID) error
	PullReply(ctx context.Context, parentID, replyID primitive.ObjectID) error
	UpdateCommentText(ctx context.Context, id primitive.ObjectID, text string) (*model.Comment, error)
	DeleteComments(ctx context.Context, ids ...primitive.ObjectID) (int, error)
	DeleteCommentsByBlog(ctx context.Context, blogID primitive.ObjectID) (int, error)
	ReactComment(ctx context.Context, id, uid primitive.ObjectID, reaction model.Reaction) (*model.Comment, error)
}

// Store everything the service persists
type Store interface {
	UserStore
	BlogStore
	CommentStore
}

// Cache json cache, a miss is reported by ok=false
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (ok bool, err error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const (
	folderAvatars = "user-avatars"
	folderCovers  = "blog-covers"

	cacheKeyAllBlogs = "blogs:all"
)

// Blog service
type Blog struct {
	logger   glog.Logger
	dao      Store
	media    media.Store
	images   *media.Processor
	jwt      *jwt.JWT
	tokenTTL time.Duration
	cache    Cache
	cacheTTL time.Duration
}

// Option configures Blog
type Option func(*Blog) error

// WithCache cache blog list for ttl
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(s *Blog) error {
		if ttl <= 0 {
			return errors.Errorf("cache ttl must be positive, got %s", ttl)
		}

		s.cache = cache
		s.cacheTTL = ttl
		return nil
	}
}

// WithTokenTTL set the lifetime of issued tokens, default 7 days
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Blog) error {
		if ttl <= 0 {
			return errors.Errorf("token ttl must be positive, got %s", ttl)
		}

		s.tokenTTL = ttl
		return nil
	}
}

// New create new blog service
func New(logger glog.Logger,
	dao Store,
	mediaStore media.Store,
	images *media.Processor,
	jwtSigner *jwt.JWT,
	opts ...Option) (*Blog, error) {
	if dao == nil || mediaStore == nil || images == nil || jwtSigner == nil {
		return nil, errors.New("dao, media store, image processor and jwt are required")
	}

	s := &Blog{
		logger:   logger.Named("blog_service"),
		dao:      dao,
		media:    mediaStore,
		images:   images,
		jwt:      jwtSigner,
		tokenTTL: 7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, errors.Wrap(err, "apply option")
		}
	}

	return s, nil
}

// TokenTTL lifetime of issued tokens
func (s *Blog) TokenTTL() time.Duration {
	return s.tokenTTL
}

// uploadImage validate and store an uploaded image
func (s *Blog) uploadImage(ctx context.Context, folder string, up *dto.Upload) (media.Asset, error) {
	img, err := s.images.Prepare(up.Data)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrImageTooLarge):
			return media.Asset{}, invalidArgument("image is too large")
		case errors.Is(err, media.ErrUnsupportedImage):
			return media.Asset{}, invalidArgument("only images (jpeg, jpg, png, gif, webp) are allowed")
		default:
			return media.Asset{}, errors.Wrap(err, "prepare image")
		}
	}

	asset, err := s.media.Put(ctx, folder, up.Filename, img.ContentType, img.Data)
	if err != nil {
		return media.Asset{}, errors.Wrap(err, "upload image")
	}

	return asset, nil
}

// removeAsset best effort removal, failures are only logged
func (s *Blog) removeAsset(ctx context.Context, asset media.Asset) {
	if asset.PublicID == "" {
		return
	}

	if err := s.media.Remove(ctx, asset.PublicID); err != nil {
		s.logger.Warn("remove asset", zap.Error(err), zap.String("asset", asset.PublicID))
	}
}

func (s *Blog) invalidateBlogs(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, cacheKeyAllBlogs); err != nil {
		s.logger.Warn("invalidate blogs cache", zap.Error(err))
	}
}

// loadActor returns the user behind a token, a vanished user is unauthorized
func (s *Blog) loadActor(ctx context.Context, uid primitive.ObjectID) (*model.User, error) {
	user, err := s.dao.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewUserError(model.ErrUnauthorized, "User Not Found")
		}

		return nil, errors.Wrap(err, "load user")
	}

	return user, nil
}

// authorize owner or admin
func authorize(actor *model.User, owner primitive.ObjectID, what string) error {
	if actor.ID == owner || actor.IsAdmin() {
		return nil
	}

	return model.NewUserError(model.ErrForbidden, "Not authorized to modify this %s", what)
}

// profiles load author profiles of ids with one batched lookup
func (s *Blog) profiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*model.Profile, error) {
	uniq := make([]primitive.ObjectID, 0, len(ids))
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	users, err := s.dao.GetUsersByIDs(ctx, uniq)
	if err != nil {
		return nil, errors.Wrap(err, "load authors")
	}

	ret := make(map[primitive.ObjectID]*model.Profile, len(users))
	for _, u := range users {
		ret[u.ID] = u.Profile()
	}

	return ret, nil
}
