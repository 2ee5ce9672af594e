// Package model contains all the models used in the application.
package model

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/library/media"
)

const (
	// TitleMaxLen max runes of a blog title
	TitleMaxLen = 100
	// ContentMinLen min runes of a blog content
	ContentMinLen = 200
)

// Blog blog posts
type Blog struct {
	// ID unique identifier for the blog
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	// Title title of the blog
	Title string `bson:"title" json:"title"`
	// Slug derived from title, unique
	Slug string `bson:"slug" json:"slug"`
	// Content sanitized html
	Content string `bson:"content" json:"content"`
	// Category free form category
	Category string `bson:"category" json:"category"`
	// CoverImage uploaded cover
	CoverImage media.Asset `bson:"coverImage" json:"coverImage"`
	// AuthorID author of the blog
	AuthorID primitive.ObjectID `bson:"author" json:"authorId"`
	// Likes ids of users who liked the blog
	Likes []primitive.ObjectID `bson:"likes" json:"likes"`
	// Views ids of users who viewed the blog
	Views []primitive.ObjectID `bson:"views" json:"views"`
	// Comments ids of all comments on the blog, replies included
	Comments []primitive.ObjectID `bson:"comments" json:"comments"`
	// Status counters, always equal to the length of the arrays above
	Status      BlogStatus `bson:"blogStatus" json:"blogStatus"`
	PublishedAt time.Time  `bson:"publishedAt" json:"publishedAt"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`

	// Author populated at runtime
	Author *Profile `bson:"-" json:"author,omitempty"`
}

// BlogStatus denormalized counters of a blog
type BlogStatus struct {
	Views    int `bson:"views" json:"views"`
	Likes    int `bson:"likes" json:"likes"`
	Comments int `bson:"comments" json:"comments"`
}

// LikedBy whether uid liked the blog
func (b *Blog) LikedBy(uid primitive.ObjectID) bool {
	return containsID(b.Likes, uid)
}

// ViewedBy whether uid viewed the blog
func (b *Blog) ViewedBy(uid primitive.ObjectID) bool {
	return containsID(b.Views, uid)
}

// NewBlog create a new blog
func NewBlog() *Blog {
	now := gutils.Clock.GetUTCNow()
	return &Blog{
		ID:          primitive.NewObjectID(),
		Likes:       []primitive.ObjectID{},
		Views:       []primitive.ObjectID{},
		Comments:    []primitive.ObjectID{},
		PublishedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// BlogUpdate fields to change on a blog, nil means unchanged
type BlogUpdate struct {
	Title      *string
	Slug       *string
	Content    *string
	Category   *string
	CoverImage *media.Asset
}

// Empty whether there is nothing to update
func (u *BlogUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.Content == nil &&
		u.Category == nil && u.CoverImage == nil
}

// BlogTotals aggregated counters of one author's blogs
type BlogTotals struct {
	Blogs    int `json:"blogs"`
	Comments int `json:"comments"`
	Likes    int `json:"likes"`
	Views    int `json:"views"`
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}

	return false
}
