package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
)

type commentReq struct {
	Text string `json:"text" form:"text"`
}

// CommentTree GET /comments/:slug
func (h *Blog) CommentTree(c *gin.Context) {
	roots, err := h.svc.CommentTree(c, c.Param("slug"))
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(roots),
		"data":    roots,
	})
}

// AddComment POST /comment/add/:slug
func (h *Blog) AddComment(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}
	req := new(commentReq)
	if !h.bind(c, req) {
		return
	}

	comment, err := h.svc.AddComment(c, uid, c.Param("slug"), req.Text)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    comment,
	})
}

// AddReply POST /comment-reply/:id
func (h *Blog) AddReply(c *gin.Context) {
	h.withComment(c, func(uid, id primitive.ObjectID) {
		req := new(commentReq)
		if !h.bind(c, req) {
			return
		}

		reply, err := h.svc.AddReply(c, uid, id, req.Text)
		if err != nil {
			h.abort(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data":    reply,
		})
	})
}

// UpdateComment PUT /comment/edit/:id
func (h *Blog) UpdateComment(c *gin.Context) {
	h.withComment(c, func(uid, id primitive.ObjectID) {
		req := new(commentReq)
		if !h.bind(c, req) {
			return
		}

		comment, err := h.svc.UpdateComment(c, uid, id, req.Text)
		if err != nil {
			h.abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Comment updated",
			"data":    comment,
		})
	})
}

// DeleteComment DELETE /comment/delete/:id
func (h *Blog) DeleteComment(c *gin.Context) {
	h.withComment(c, func(uid, id primitive.ObjectID) {
		n, err := h.svc.DeleteComment(c, uid, id)
		if err != nil {
			h.abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Comment deleted",
			"deleted": n,
		})
	})
}

// LikeComment POST /comment-like/:id
func (h *Blog) LikeComment(c *gin.Context) {
	h.react(c, model.ReactionLike)
}

// DislikeComment POST /comment-dislike/:id
func (h *Blog) DislikeComment(c *gin.Context) {
	h.react(c, model.ReactionDislike)
}

func (h *Blog) react(c *gin.Context, reaction model.Reaction) {
	h.withComment(c, func(uid, id primitive.ObjectID) {
		var (
			comment *model.Comment
			err     error
		)
		if reaction == model.ReactionDislike {
			comment, err = h.svc.DislikeComment(c, uid, id)
		} else {
			comment, err = h.svc.LikeComment(c, uid, id)
		}
		if err != nil {
			h.abort(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"data":     comment,
			"likes":    len(comment.Likes),
			"dislikes": len(comment.Dislikes),
		})
	})
}

// withComment run fn with the current user and the :id comment
func (h *Blog) withComment(c *gin.Context, fn func(uid, id primitive.ObjectID)) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}
	id, ok := h.objectIDParam(c, "id")
	if !ok {
		return
	}

	fn(uid, id)
}
