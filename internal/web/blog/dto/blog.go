// Package dto holds request and response shapes shared by controller and service.
package dto

import "github.com/Laisky/laisky-blog-rest/internal/web/blog/model"

// Upload uploaded file
type Upload struct {
	Filename string
	Data     []byte
}

// SignupReq signup form
type SignupReq struct {
	Name     string
	Email    string
	Password string
	Avatar   *Upload
}

// CreateBlogReq create blog form, every field is required
type CreateBlogReq struct {
	Title      string
	Content    string
	Category   string
	CoverImage *Upload
}

// UpdateBlogReq update blog form, nil fields are left unchanged
type UpdateBlogReq struct {
	Title      *string
	Content    *string
	Category   *string
	CoverImage *Upload
}

// UserBlogs dashboard of one author
type UserBlogs struct {
	Totals model.BlogTotals `json:"totals"`
	Blogs  []*model.Blog    `json:"blogs"`
}

// LikeResult result of toggling a like
type LikeResult struct {
	LikesCount  int  `json:"likesCount"`
	LikedByUser bool `json:"likedByUser"`
}
