// Package web gin server
package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/controller"
	"github.com/Laisky/laisky-blog-rest/library/jwt"
	"github.com/Laisky/laisky-blog-rest/library/log"
	"github.com/Laisky/laisky-blog-rest/library/throttle"
)

// Option server options
type Option struct {
	// CORSOrigins allowed origins, an entry like `*.example.com`
	// matches example.com and all its subdomains
	CORSOrigins []string
	// Debug expose internal errors to clients
	Debug bool
	// Metrics serve prometheus metrics
	Metrics bool
	// AuthThrottle limits signup and login per client ip, nil disables it
	AuthThrottle *throttle.Throttle
}

// NewServer build the gin engine serving the blog api
func NewServer(opt Option, jwtSigner *jwt.JWT, blog *controller.Blog) (*gin.Engine, error) {
	if jwtSigner == nil || blog == nil {
		return nil, errors.New("jwt and blog controller are required")
	}

	server := gin.New()
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(log.Logger.Level().String()),
			gmw.WithLogger(log.Logger.Named("gin")),
		),
		allowCORS(opt.CORSOrigins),
	)

	if opt.Metrics {
		if err := gmw.EnableMetric(server); err != nil {
			return nil, errors.Wrap(err, "enable metric server")
		}
	}

	server.Any("/health", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "hello, world")
	})

	registerRoutes(server, opt, jwtSigner, blog)
	return server, nil
}

func registerRoutes(server *gin.Engine, opt Option, jwtSigner *jwt.JWT, blog *controller.Blog) {
	auth := authRequired(jwtSigner, opt.Debug)
	limit := throttleByIP(opt.AuthThrottle)

	// public
	server.POST("/signup", limit, blog.Signup)
	server.POST("/login", limit, blog.Login)
	server.POST("/logout", blog.Logout)
	server.GET("/blogs", blog.ListBlogs)
	server.GET("/single-blog/:slug", blog.GetBlog)
	server.GET("/comments/:slug", blog.CommentTree)

	// authenticated
	server.GET("/auth/current-user", auth, blog.CurrentUser)
	server.GET("/single-user/blogs", auth, blog.ListUserBlogs)
	server.POST("/blog/create", auth, blog.CreateBlog)
	server.PUT("/blog/edit/:id", auth, blog.UpdateBlog)
	server.DELETE("/blog/delete/:id", auth, blog.DeleteBlog)
	server.POST("/blog/like/:id", auth, blog.LikeBlog)
	server.PATCH("/:slug/view", auth, blog.ViewBlog)
	server.POST("/comment/add/:slug", auth, blog.AddComment)
	server.POST("/comment-reply/:id", auth, blog.AddReply)
	server.PUT("/comment/edit/:id", auth, blog.UpdateComment)
	server.DELETE("/comment/delete/:id", auth, blog.DeleteComment)
	server.POST("/comment-like/:id", auth, blog.LikeComment)
	server.POST("/comment-dislike/:id", auth, blog.DislikeComment)
}

// RunServer serve server on addr, only returns on failure
func RunServer(addr string, server *gin.Engine) {
	log.Logger.Info("listening on http", zap.String("addr", addr))
	log.Logger.Panic("httpServer exit", zap.Error(server.Run(addr)))
}

// throttleByIP reject requests with 429 once the client ip exceeds th
func throttleByIP(th *throttle.Throttle) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if th != nil && !th.Allow(ctx.ClientIP()) {
			gmw.GetLogger(ctx).Warn("deny by throttle", zap.String("ip", ctx.ClientIP()))
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "too many requests, please try again later",
			})
			return
		}

		ctx.Next()
	}
}

// originAllowed whether origin matches one of allowed
func originAllowed(origin string, allowed []string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	normalized := strings.ToLower(parsed.Scheme + "://" + parsed.Host)

	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		switch {
		case a == "":
		case a == "*":
			return true
		case strings.HasPrefix(a, "*."):
			domain := strings.TrimPrefix(a, "*.")
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return true
			}
		case strings.TrimSuffix(a, "/") == normalized:
			return true
		}
	}

	return false
}

// allowCORS answers preflights and echoes allowed origins with credentials
func allowCORS(allowed []string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")
		if origin != "" && originAllowed(origin, allowed) {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD")
			ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, Origin, X-Requested-With")
			ctx.Header("Access-Control-Max-Age", "86400") // 24 hours
			ctx.Header("Vary", "Origin")

			if ctx.Request.Method == http.MethodOptions {
				ctx.AbortWithStatus(http.StatusNoContent)
				return
			}
		} else if origin != "" && ctx.Request.Method == http.MethodOptions {
			// preflight from a disallowed origin
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}

		ctx.Next()
	}
}
