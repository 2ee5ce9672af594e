package dao

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"
	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

// Memory in process store with the same semantics as Blog,
// used by dry mode and tests.
type Memory struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]*model.User
	blogs    map[primitive.ObjectID]*model.Blog
	comments map[primitive.ObjectID]*model.Comment
}

// NewMemory create new Memory
func NewMemory() *Memory {
	return &Memory{
		users:    map[primitive.ObjectID]*model.User{},
		blogs:    map[primitive.ObjectID]*model.Blog{},
		comments: map[primitive.ObjectID]*model.Comment{},
	}
}

// EnsureIndexes nothing to do
func (m *Memory) EnsureIndexes(context.Context) error {
	return nil
}

func copyIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{}, ids...)
}

func copyUser(u *model.User) *model.User {
	cp := *u
	return &cp
}

func copyBlog(b *model.Blog) *model.Blog {
	cp := *b
	cp.Likes = copyIDs(b.Likes)
	cp.Views = copyIDs(b.Views)
	cp.Comments = copyIDs(b.Comments)
	cp.Author = nil
	return &cp
}

func copyComment(c *model.Comment) *model.Comment {
	cp := *c
	if c.ParentID != nil {
		pid := *c.ParentID
		cp.ParentID = &pid
	}
	cp.ReplyIDs = copyIDs(c.ReplyIDs)
	cp.Likes = copyIDs(c.Likes)
	cp.Dislikes = copyIDs(c.Dislikes)
	cp.Author = nil
	cp.Replies = []*model.Comment{}
	return &cp
}

func indexOf(ids []primitive.ObjectID, id primitive.ObjectID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}

	return -1
}

func removeIDs(ids []primitive.ObjectID, drop ...primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if indexOf(drop, v) < 0 {
			out = append(out, v)
		}
	}

	return out
}

// toggle returns ids with id toggled and whether id is present afterwards
func toggle(ids []primitive.ObjectID, id primitive.ObjectID) ([]primitive.ObjectID, bool) {
	if indexOf(ids, id) >= 0 {
		return removeIDs(ids, id), false
	}

	return append(ids, id), true
}

// CreateUser insert user, duplicate email returns model.ErrConflict
func (m *Memory) CreateUser(_ context.Context, user *model.User) error {
	user.Email = strings.ToLower(user.Email)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return errors.Wrapf(model.ErrConflict, "email %q", user.Email)
		}
	}

	m.users[user.ID] = copyUser(user)
	return nil
}

// GetUserByID load user by id
func (m *Memory) GetUserByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errors.Wrap(model.ErrNotFound, "user")
	}

	return copyUser(u), nil
}

// GetUserByEmail load user by email
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(email)

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}

	return nil, errors.Wrap(model.ErrNotFound, "user")
}

// GetUsersByIDs load users, missing ids are skipped
func (m *Memory) GetUsersByIDs(_ context.Context, ids []primitive.ObjectID) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []*model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}

	return users, nil
}

// IncrBlogCount add delta to user's blog count
func (m *Memory) IncrBlogCount(_ context.Context, uid primitive.ObjectID, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "user %s", uid.Hex())
	}

	u.BlogCount += delta
	u.UpdatedAt = gutils.Clock.GetUTCNow()
	return nil
}

func (m *Memory) slugTaken(slug string, except primitive.ObjectID) bool {
	for id, b := range m.blogs {
		if b.Slug == slug && id != except {
			return true
		}
	}

	return false
}

// CreateBlog insert blog, duplicate slug returns model.ErrConflict
func (m *Memory) CreateBlog(_ context.Context, blog *model.Blog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(blog.Slug, primitive.NilObjectID) {
		return errors.Wrapf(model.ErrConflict, "slug %q", blog.Slug)
	}

	m.blogs[blog.ID] = copyBlog(blog)
	return nil
}

// ListBlogs all blogs, newest first
func (m *Memory) ListBlogs(_ context.Context) ([]*model.Blog, error) {
	return m.filterBlogs(func(*model.Blog) bool { return true }), nil
}

// ListBlogsByAuthor blogs written by uid, newest first
func (m *Memory) ListBlogsByAuthor(_ context.Context, uid primitive.ObjectID) ([]*model.Blog, error) {
	return m.filterBlogs(func(b *model.Blog) bool { return b.AuthorID == uid }), nil
}

func (m *Memory) filterBlogs(match func(*model.Blog) bool) []*model.Blog {
	m.mu.RLock()
	blogs := []*model.Blog{}
	for _, b := range m.blogs {
		if match(b) {
			blogs = append(blogs, copyBlog(b))
		}
	}
	m.mu.RUnlock()

	sort.Slice(blogs, func(i, j int) bool {
		if !blogs[i].CreatedAt.Equal(blogs[j].CreatedAt) {
			return blogs[i].CreatedAt.After(blogs[j].CreatedAt)
		}

		return blogs[i].ID.Hex() > blogs[j].ID.Hex()
	})
	return blogs
}

// GetBlogBySlug load blog by slug
func (m *Memory) GetBlogBySlug(_ context.Context, slug string) (*model.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.blogs {
		if b.Slug == slug {
			return copyBlog(b), nil
		}
	}

	return nil, errors.Wrap(model.ErrNotFound, "blog")
}

// GetBlogByID load blog by id
func (m *Memory) GetBlogByID(_ context.Context, id primitive.ObjectID) (*model.Blog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, errors.Wrap(model.ErrNotFound, "blog")
	}

	return copyBlog(b), nil
}

// UpdateBlog set changed fields and return the updated blog
func (m *Memory) UpdateBlog(_ context.Context,
	id primitive.ObjectID, upd *model.BlogUpdate) (*model.Blog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "blog %s", id.Hex())
	}
	if upd.Slug != nil && m.slugTaken(*upd.Slug, id) {
		return nil, errors.Wrap(model.ErrConflict, "slug")
	}

	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Slug != nil {
		b.Slug = *upd.Slug
	}
	if upd.Content != nil {
		b.Content = *upd.Content
	}
	if upd.Category != nil {
		b.Category = *upd.Category
	}
	if upd.CoverImage != nil {
		b.CoverImage = *upd.CoverImage
	}
	b.UpdatedAt = gutils.Clock.GetUTCNow()

	return copyBlog(b), nil
}

// DeleteBlog remove blog, returns false if it did not exist
func (m *Memory) DeleteBlog(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return false, nil
	}

	delete(m.blogs, id)
	return true, nil
}

// AddView record uid as a viewer of the blog
func (m *Memory) AddView(_ context.Context,
	slug string, uid primitive.ObjectID) (*model.Blog, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.blogs {
		if b.Slug != slug {
			continue
		}

		if indexOf(b.Views, uid) >= 0 {
			return copyBlog(b), false, nil
		}

		b.Views = append(b.Views, uid)
		b.Status.Views++
		return copyBlog(b), true, nil
	}

	return nil, false, errors.Wrap(model.ErrNotFound, "blog")
}

// ToggleLike like the blog if uid has not liked it, otherwise unlike it
func (m *Memory) ToggleLike(_ context.Context,
	id, uid primitive.ObjectID) (*model.Blog, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[id]
	if !ok {
		return nil, false, errors.Wrapf(model.ErrNotFound, "blog %s", id.Hex())
	}

	var liked bool
	b.Likes, liked = toggle(b.Likes, uid)
	b.Status.Likes = len(b.Likes)
	b.UpdatedAt = gutils.Clock.GetUTCNow()
	return copyBlog(b), liked, nil
}

// AttachComment add comment id to the blog and recount
func (m *Memory) AttachComment(_ context.Context, blogID, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[blogID]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "blog %s", blogID.Hex())
	}

	if indexOf(b.Comments, commentID) < 0 {
		b.Comments = append(b.Comments, commentID)
	}
	b.Status.Comments = len(b.Comments)
	return nil
}

// DetachComments remove comment ids from the blog and recount
func (m *Memory) DetachComments(_ context.Context, blogID primitive.ObjectID, ids ...primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blogs[blogID]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "blog %s", blogID.Hex())
	}

	b.Comments = removeIDs(b.Comments, ids...)
	b.Status.Comments = len(b.Comments)
	return nil
}

// InsertComment insert comment
func (m *Memory) InsertComment(_ context.Context, comment *model.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments[comment.ID] = copyComment(comment)
	return nil
}

// GetComment load comment by id
func (m *Memory) GetComment(_ context.Context, id primitive.ObjectID) (*model.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
	}

	return copyComment(c), nil
}

// ListComments every comment of the blog, oldest first
func (m *Memory) ListComments(_ context.Context, blogID primitive.ObjectID) ([]*model.Comment, error) {
	m.mu.RLock()
	comments := []*model.Comment{}
	for _, c := range m.comments {
		if c.BlogID == blogID {
			comments = append(comments, copyComment(c))
		}
	}
	m.mu.RUnlock()

	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}

		return comments[i].ID.Hex() < comments[j].ID.Hex()
	})
	return comments, nil
}

// AppendReply add reply id to the parent's reply list
func (m *Memory) AppendReply(_ context.Context, parentID, replyID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[parentID]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "comment %s", parentID.Hex())
	}

	if indexOf(c.ReplyIDs, replyID) < 0 {
		c.ReplyIDs = append(c.ReplyIDs, replyID)
	}
	c.UpdatedAt = gutils.Clock.GetUTCNow()
	return nil
}

// PullReply remove reply id from the parent's reply list
func (m *Memory) PullReply(_ context.Context, parentID, replyID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[parentID]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "comment %s", parentID.Hex())
	}

	c.ReplyIDs = removeIDs(c.ReplyIDs, replyID)
	c.UpdatedAt = gutils.Clock.GetUTCNow()
	return nil
}

// UpdateCommentText replace the text of a comment
func (m *Memory) UpdateCommentText(_ context.Context, id primitive.ObjectID, text string) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
	}

	c.Text = text
	c.UpdatedAt = gutils.Clock.GetUTCNow()
	return copyComment(c), nil
}

// DeleteComments remove comments by id
func (m *Memory) DeleteComments(_ context.Context, ids ...primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.comments[id]; ok {
			delete(m.comments, id)
			n++
		}
	}

	return n, nil
}

// DeleteCommentsByBlog remove every comment of the blog
func (m *Memory) DeleteCommentsByBlog(_ context.Context, blogID primitive.ObjectID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, c := range m.comments {
		if c.BlogID == blogID {
			delete(m.comments, id)
			n++
		}
	}

	return n, nil
}

// ReactComment toggle uid's reaction, a like clears a dislike and vice versa
func (m *Memory) ReactComment(_ context.Context,
	id, uid primitive.ObjectID, reaction model.Reaction) (*model.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNotFound, "comment %s", id.Hex())
	}

	field, opposite := &c.Likes, &c.Dislikes
	if reaction == model.ReactionDislike {
		field, opposite = opposite, field
	}

	var added bool
	*field, added = toggle(*field, uid)
	if added {
		*opposite = removeIDs(*opposite, uid)
	}
	c.UpdatedAt = gutils.Clock.GetUTCNow()

	return copyComment(c), nil
}
