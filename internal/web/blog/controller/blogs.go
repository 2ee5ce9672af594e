package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dto"
)

// ListBlogs GET /blogs
func (h *Blog) ListBlogs(c *gin.Context) {
	blogs, err := h.svc.ListBlogs(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All Blogs Successfully Get",
		"blog":    blogs,
	})
}

// ListUserBlogs GET /single-user/blogs
func (h *Blog) ListUserBlogs(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}

	ret, err := h.svc.ListUserBlogs(c, uid)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Successfully retrieved user's blogs with statistics",
		"totals":  ret.Totals,
		"blogs":   ret.Blogs,
	})
}

// GetBlog GET /single-blog/:slug
func (h *Blog) GetBlog(c *gin.Context) {
	blog, err := h.svc.GetBlog(c, c.Param("slug"))
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"blog":    blog,
	})
}

// CreateBlog POST /blog/create, multipart with title, content, category and coverImage
func (h *Blog) CreateBlog(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}

	h.limitBody(c)
	cover, err := h.readUpload(c, "coverImage")
	if err != nil {
		h.abort(c, err)
		return
	}

	blog, err := h.svc.CreateBlog(c, uid, &dto.CreateBlogReq{
		Title:      c.PostForm("title"),
		Content:    c.PostForm("content"),
		Category:   c.PostForm("category"),
		CoverImage: cover,
	})
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Blog Created Successfully",
		"blog":    blog,
	})
}

// UpdateBlog PUT /blog/edit/:id, absent fields are left unchanged
func (h *Blog) UpdateBlog(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	h.limitBody(c)
	cover, err := h.readUpload(c, "coverImage")
	if err != nil {
		h.abort(c, err)
		return
	}

	blog, err := h.svc.UpdateBlog(c, uid, id, &dto.UpdateBlogReq{
		Title:      optionalForm(c, "title"),
		Content:    optionalForm(c, "content"),
		Category:   optionalForm(c, "category"),
		CoverImage: cover,
	})
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Blog Updated Successfully",
		"blog":    blog,
	})
}

// DeleteBlog DELETE /blog/delete/:id
func (h *Blog) DeleteBlog(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteBlog(c, uid, id)
	if err != nil {
		h.abort(c, err)
		return
	}

	msg := "Blog deleted successfully"
	if !deleted {
		msg = "Blog already deleted"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": msg,
		"deleted": deleted,
	})
}

// LikeBlog POST /blog/like/:id
func (h *Blog) LikeBlog(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	ret, err := h.svc.ToggleLike(c, uid, id)
	if err != nil {
		h.abort(c, err)
		return
	}

	msg := "Blog unliked successfully"
	if ret.LikedByUser {
		msg = "Blog liked successfully"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     msg,
		"likesCount":  ret.LikesCount,
		"likedByUser": ret.LikedByUser,
	})
}

// ViewBlog PATCH /:slug/view
func (h *Blog) ViewBlog(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}

	blog, err := h.svc.ViewBlog(c, uid, c.Param("slug"))
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"blog":    blog,
	})
}
