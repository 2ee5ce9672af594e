package web

import (
	"strings"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/controller"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/library/jwt"
)

const bearerPrefix = "Bearer "

// tokenFromRequest session token from the cookie, or the Authorization header
func tokenFromRequest(ctx *gin.Context) string {
	if token, err := ctx.Cookie(controller.TokenCookie); err == nil && token != "" {
		return token
	}

	header := ctx.GetHeader("Authorization")
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return strings.TrimSpace(header[len(bearerPrefix):])
	}

	return ""
}

// authRequired reject requests without a valid session token with 401
func authRequired(jwtSigner *jwt.JWT, debug bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := tokenFromRequest(ctx)
		if token == "" {
			controller.AbortWithError(ctx, debug,
				model.NewUserError(model.ErrUnauthorized, "Unauthorized - No token"))
			return
		}

		claims, err := jwtSigner.Parse(token)
		if err != nil {
			gmw.GetLogger(ctx).Debug("invalid token", zap.Error(err))
			controller.AbortWithError(ctx, debug,
				model.NewUserError(model.ErrUnauthorized, "Unauthorized - Invalid token"))
			return
		}

		uid, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			controller.AbortWithError(ctx, debug,
				model.NewUserError(model.ErrUnauthorized, "Unauthorized - Invalid token"))
			return
		}

		controller.SetUser(ctx, uid, claims.Role)
		ctx.Next()
	}
}
