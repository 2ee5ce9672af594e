package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dto"
)

type loginReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *Blog) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(TokenCookie, token, maxAge, "/", "", h.cfg.CookieSecure, true)
}

// Signup POST /signup, multipart with userName, email, password and avatar
func (h *Blog) Signup(c *gin.Context) {
	h.limitBody(c)
	avatar, err := h.readUpload(c, "avatar")
	if err != nil {
		h.abort(c, err)
		return
	}

	user, token, err := h.svc.Signup(c, &dto.SignupReq{
		Name:     c.PostForm("userName"),
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Avatar:   avatar,
	})
	if err != nil {
		h.abort(c, err)
		return
	}

	h.setTokenCookie(c, token, int(h.svc.TokenTTL().Seconds()))
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login POST /login
func (h *Blog) Login(c *gin.Context) {
	req := new(loginReq)
	if !h.bind(c, req) {
		return
	}

	user, token, err := h.svc.Login(c, req.Email, req.Password)
	if err != nil {
		h.abort(c, maskLoginError(err))
		return
	}

	h.setTokenCookie(c, token, int(h.svc.TokenTTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// Logout POST /logout
func (h *Blog) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged out successfully",
	})
}

// CurrentUser GET /auth/current-user
func (h *Blog) CurrentUser(c *gin.Context) {
	uid, ok := mustUID(c)
	if !ok {
		return
	}

	user, err := h.svc.CurrentUser(c, uid)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}
