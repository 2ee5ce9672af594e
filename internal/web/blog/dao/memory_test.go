package dao

import (
	"context"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

func newBlog(slug string) *model.Blog {
	b := model.NewBlog()
	b.Slug = slug
	b.Title = slug
	return b
}

// TestMemory_users verifies email uniqueness is case insensitive.
func TestMemory_users(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := model.NewUser()
	u.Email = "Alice@Example.com"
	require.NoError(t, m.CreateUser(ctx, u))

	dup := model.NewUser()
	dup.Email = "alice@example.com"
	require.True(t, errors.Is(m.CreateUser(ctx, dup), model.ErrConflict))

	got, err := m.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	require.NoError(t, m.IncrBlogCount(ctx, u.ID, 1))
	got, err = m.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.BlogCount)

	_, err = m.GetUserByID(ctx, primitive.NewObjectID())
	require.True(t, errors.Is(err, model.ErrNotFound))

	users, err := m.GetUsersByIDs(ctx, []primitive.ObjectID{u.ID, primitive.NewObjectID()})
	require.NoError(t, err)
	require.Len(t, users, 1)
}

// TestMemory_blogs verifies ordering, slug uniqueness and the toggles.
func TestMemory_blogs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	older := newBlog("older")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newBlog("newer")
	require.NoError(t, m.CreateBlog(ctx, older))
	require.NoError(t, m.CreateBlog(ctx, newer))
	require.True(t, errors.Is(m.CreateBlog(ctx, newBlog("older")), model.ErrConflict))

	blogs, err := m.ListBlogs(ctx)
	require.NoError(t, err)
	require.Len(t, blogs, 2)
	require.Equal(t, "newer", blogs[0].Slug)

	// returned blogs are copies
	blogs[0].Likes = append(blogs[0].Likes, primitive.NewObjectID())
	got, err := m.GetBlogByID(ctx, newer.ID)
	require.NoError(t, err)
	require.Empty(t, got.Likes)

	slug := "older"
	_, err = m.UpdateBlog(ctx, newer.ID, &model.BlogUpdate{Slug: &slug})
	require.True(t, errors.Is(err, model.ErrConflict))

	uid := primitive.NewObjectID()
	b, liked, err := m.ToggleLike(ctx, newer.ID, uid)
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, 1, b.Status.Likes)
	b, liked, err = m.ToggleLike(ctx, newer.ID, uid)
	require.NoError(t, err)
	require.False(t, liked)
	require.Equal(t, 0, b.Status.Likes)

	b, counted, err := m.AddView(ctx, "newer", uid)
	require.NoError(t, err)
	require.True(t, counted)
	require.Equal(t, 1, b.Status.Views)
	b, counted, err = m.AddView(ctx, "newer", uid)
	require.NoError(t, err)
	require.False(t, counted)
	require.Equal(t, 1, b.Status.Views)

	ok, err := m.DeleteBlog(ctx, newer.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = m.DeleteBlog(ctx, newer.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestMemory_comments verifies comment counters follow the id array.
func TestMemory_comments(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	b := newBlog("b")
	require.NoError(t, m.CreateBlog(ctx, b))

	uid := primitive.NewObjectID()
	c := model.NewComment(b.ID, uid, "hi")
	require.NoError(t, m.InsertComment(ctx, c))
	require.NoError(t, m.AttachComment(ctx, b.ID, c.ID))
	require.NoError(t, m.AttachComment(ctx, b.ID, c.ID))

	got, err := m.GetBlogByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Status.Comments)

	c2, err := m.ReactComment(ctx, c.ID, uid, model.ReactionLike)
	require.NoError(t, err)
	require.Len(t, c2.Likes, 1)

	c2, err = m.ReactComment(ctx, c.ID, uid, model.ReactionDislike)
	require.NoError(t, err)
	require.Empty(t, c2.Likes)
	require.Len(t, c2.Dislikes, 1)

	require.NoError(t, m.DetachComments(ctx, b.ID, c.ID))
	got, err = m.GetBlogByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Status.Comments)

	n, err := m.DeleteCommentsByBlog(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
