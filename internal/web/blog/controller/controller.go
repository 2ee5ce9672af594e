// Package controller serves the blog REST api over gin.
package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/service"
)

const (
	// TokenCookie name of the session cookie
	TokenCookie = "token"

	ctxKeyUID  = "blog_uid"
	ctxKeyRole = "blog_role"

	internalErrorMessage = "internal server error"
)

// Config controller settings
type Config struct {
	// CookieSecure only send the session cookie over https
	CookieSecure bool
	// MaxUploadBytes limit of one uploaded file
	MaxUploadBytes int64
	// Debug expose internal error messages to clients
	Debug bool
}

// Blog controller
type Blog struct {
	svc *service.Blog
	cfg Config
}

// New create new blog controller
func New(svc *service.Blog, cfg Config) *Blog {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 << 20
	}

	return &Blog{svc: svc, cfg: cfg}
}

// SetUser attach the authenticated user to the request
func SetUser(c *gin.Context, uid primitive.ObjectID, role string) {
	c.Set(ctxKeyUID, uid)
	c.Set(ctxKeyRole, role)
}

// CurrentUID user set by SetUser
func CurrentUID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(ctxKeyUID)
	if !ok {
		return primitive.NilObjectID, false
	}

	uid, ok := v.(primitive.ObjectID)
	return uid, ok
}

// mustUID user set by the auth middleware, aborts with 401 if missing
func mustUID(c *gin.Context) (primitive.ObjectID, bool) {
	uid, ok := CurrentUID(c)
	if !ok {
		AbortWithError(c, false, model.NewUserError(model.ErrUnauthorized, "Unauthorized - No token"))
	}

	return uid, ok
}

// StatusOf http status of err
func StatusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidArgument),
		errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError write the error envelope.
// Internal errors are logged and only shown to clients in debug mode.
func AbortWithError(c *gin.Context, debug bool, err error) {
	status := StatusOf(err)
	msg := err.Error()

	var userErr *model.UserError
	switch {
	case status == http.StatusInternalServerError:
		gmw.GetLogger(c).Error("internal error",
			zap.Error(err),
			zap.String("path", c.FullPath()))
		if !debug {
			msg = internalErrorMessage
		}
	case errors.As(err, &userErr):
		msg = userErr.Error()
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": msg,
	})
}

func (h *Blog) abort(c *gin.Context, err error) {
	AbortWithError(c, h.cfg.Debug, err)
}

// objectIDParam parse path parameter name as an ObjectID
func (h *Blog) objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		h.abort(c, model.NewUserError(model.ErrInvalidArgument, "invalid %s", name))
		return primitive.NilObjectID, false
	}

	return id, true
}

// bind decode request body into req, json and forms are both accepted
func (h *Blog) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBind(req); err != nil {
		h.abort(c, model.NewUserError(model.ErrInvalidArgument, "invalid request body"))
		return false
	}

	return true
}
