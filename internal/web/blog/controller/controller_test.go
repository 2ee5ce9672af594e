package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Laisky/laisky-blog-rest/internal/web/blog/dao"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/model"
	"github.com/Laisky/laisky-blog-rest/internal/web/blog/service"
	"github.com/Laisky/laisky-blog-rest/library/jwt"
	"github.com/Laisky/laisky-blog-rest/library/media"
)

const testUIDHeader = "X-Test-Uid"

var ginModeOnce sync.Once

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

type testServer struct {
	router *gin.Engine
	db     *dao.Memory
	media  *media.MemoryStore
}

// newTestServer wires the handlers on an in-memory store,
// the caller is identified by the X-Test-Uid header.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	setupGinTestMode()

	j, err := jwt.New([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	ts := &testServer{
		db:    dao.NewMemory(),
		media: media.NewMemoryStore("http://media.test"),
	}
	svc, err := service.New(logSDK.Shared, ts.db, ts.media, media.NewProcessor(1<<20, 800), j)
	require.NoError(t, err)

	h := New(svc, Config{MaxUploadBytes: 1 << 20})
	ts.router = gin.New()
	ts.router.Use(func(c *gin.Context) {
		if hex := c.GetHeader(testUIDHeader); hex != "" {
			uid, err := primitive.ObjectIDFromHex(hex)
			require.NoError(t, err)
			SetUser(c, uid, string(model.RoleUser))
		}
	})

	r := ts.router
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/auth/current-user", h.CurrentUser)
	r.GET("/blogs", h.ListBlogs)
	r.GET("/single-user/blogs", h.ListUserBlogs)
	r.GET("/single-blog/:slug", h.GetBlog)
	r.POST("/blog/create", h.CreateBlog)
	r.PUT("/blog/edit/:id", h.UpdateBlog)
	r.DELETE("/blog/delete/:id", h.DeleteBlog)
	r.POST("/blog/like/:id", h.LikeBlog)
	r.PATCH("/:slug/view", h.ViewBlog)
	r.GET("/comments/:slug", h.CommentTree)
	r.POST("/comment/add/:slug", h.AddComment)
	r.POST("/comment-reply/:id", h.AddReply)
	r.PUT("/comment/edit/:id", h.UpdateComment)
	r.DELETE("/comment/delete/:id", h.DeleteComment)
	r.POST("/comment-like/:id", h.LikeComment)
	r.POST("/comment-dislike/:id", h.DislikeComment)

	return ts
}

func (ts *testServer) addUser(t *testing.T, name string) *model.User {
	t.Helper()
	u := model.NewUser()
	u.Name = name
	u.Email = name + "@example.com"
	require.NoError(t, ts.db.CreateUser(context.Background(), u))
	return u
}

func (ts *testServer) do(t *testing.T, req *http.Request, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		req.Header.Set(testUIDHeader, user.ID.Hex())
	}

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(t *testing.T, method, path string, body any, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return ts.do(t, req, user)
}

// doForm send a multipart form, files maps field name to file content
func (ts *testServer) doForm(t *testing.T, method, path string,
	fields map[string]string, files map[string][]byte, user *model.User) *httptest.ResponseRecorder {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ts.do(t, req, user)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func blogContent() string {
	return "<p>" + strings.Repeat("lorem ipsum ", 30) + "</p>"
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type blogResp struct {
	envelope
	Blog *model.Blog `json:"blog"`
}

type commentResp struct {
	envelope
	Data *model.Comment `json:"data"`
}

func (ts *testServer) createBlog(t *testing.T, author *model.User, title string) *model.Blog {
	t.Helper()
	w := ts.doForm(t, http.MethodPost, "/blog/create", map[string]string{
		"title":    title,
		"content":  blogContent(),
		"category": "tech",
	}, map[string][]byte{"coverImage": pngBytes(t)}, author)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[blogResp](t, w).Blog
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// TestSignupAndLogin checks the session cookie and error masking.
func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	form := map[string]string{
		"userName": "alice",
		"email":    "Alice@Example.com",
		"password": "secret-pass",
	}
	w := ts.doForm(t, http.MethodPost, "/signup", form, map[string][]byte{"avatar": pngBytes(t)}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotContains(t, w.Body.String(), "secret-pass")
	require.NotContains(t, w.Body.String(), `"password"`)

	cookie := findCookie(w, TokenCookie)
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Equal(t, 1, ts.media.Len())

	t.Run("duplicate email", func(t *testing.T) {
		w := ts.doForm(t, http.MethodPost, "/signup", form, map[string][]byte{"avatar": pngBytes(t)}, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, "Email already registered", decode[envelope](t, w).Message)
	})

	t.Run("missing avatar", func(t *testing.T) {
		f := map[string]string{"userName": "bob", "email": "bob@example.com", "password": "secret-pass"}
		w := ts.doForm(t, http.MethodPost, "/signup", f, nil, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("login", func(t *testing.T) {
		w := ts.doJSON(t, http.MethodPost, "/login",
			map[string]string{"email": "alice@example.com", "password": "secret-pass"}, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.NotNil(t, findCookie(w, TokenCookie))

		resp := decode[struct {
			envelope
			User *model.User `json:"user"`
		}](t, w)
		require.Equal(t, "alice", resp.User.Name)
	})

	for _, body := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong-pass"},
		{"email": "nobody@example.com", "password": "secret-pass"},
		{"email": "", "password": ""},
	} {
		w := ts.doJSON(t, http.MethodPost, "/login", body, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, loginFailedMessage, decode[envelope](t, w).Message)
		require.Nil(t, findCookie(w, TokenCookie))
	}
}

// TestLogout checks the cookie is expired.
func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(t, http.MethodPost, "/logout", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := findCookie(w, TokenCookie)
	require.NotNil(t, cookie)
	require.Empty(t, cookie.Value)
	require.Negative(t, cookie.MaxAge)
}

// TestCurrentUser checks authentication is required.
func TestCurrentUser(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.addUser(t, "alice")

	w := ts.doJSON(t, http.MethodGet, "/auth/current-user", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, decode[envelope](t, w).Success)

	w = ts.doJSON(t, http.MethodGet, "/auth/current-user", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), alice.ID.Hex())

	w = ts.doJSON(t, http.MethodGet, "/auth/current-user", nil, &model.User{ID: primitive.NewObjectID()})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestBlogLifecycle walks create, read, like, view, edit and delete.
func TestBlogLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.addUser(t, "alice")
	bob := ts.addUser(t, "bob")

	blog := ts.createBlog(t, alice, "Hello World")
	require.Equal(t, "hello-world", blog.Slug)
	require.NotEmpty(t, blog.CoverImage.URL)

	w := ts.doForm(t, http.MethodPost, "/blog/create", map[string]string{
		"title": "Hello World", "content": blogContent(), "category": "tech",
	}, map[string][]byte{"coverImage": pngBytes(t)}, alice)
	require.Equal(t, http.StatusConflict, w.Code)

	w = ts.doJSON(t, http.MethodGet, "/blogs", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		envelope
		Blog []*model.Blog `json:"blog"`
	}](t, w)
	require.Len(t, list.Blog, 1)
	require.Equal(t, "alice", list.Blog[0].Author.Name)

	w = ts.doJSON(t, http.MethodGet, "/single-blog/hello-world", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.doJSON(t, http.MethodGet, "/single-blog/missing", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	t.Run("like toggles", func(t *testing.T) {
		path := "/blog/like/" + blog.ID.Hex()
		w := ts.doJSON(t, http.MethodPost, path, nil, bob)
		require.Equal(t, http.StatusOK, w.Code)
		ret := decode[struct {
			LikesCount  int  `json:"likesCount"`
			LikedByUser bool `json:"likedByUser"`
		}](t, w)
		require.Equal(t, 1, ret.LikesCount)
		require.True(t, ret.LikedByUser)

		w = ts.doJSON(t, http.MethodPost, path, nil, bob)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), `"likedByUser":false`)

		w = ts.doJSON(t, http.MethodPost, "/blog/like/not-an-id", nil, bob)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("view counts once", func(t *testing.T) {
		for range 2 {
			w := ts.doJSON(t, http.MethodPatch, "/hello-world/view", nil, bob)
			require.Equal(t, http.StatusOK, w.Code)
		}
		got := decode[blogResp](t, ts.doJSON(t, http.MethodGet, "/single-blog/hello-world", nil, nil))
		require.Equal(t, 1, got.Blog.Status.Views)

		w := ts.doJSON(t, http.MethodPatch, "/hello-world/view", nil, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("edit", func(t *testing.T) {
		path := "/blog/edit/" + blog.ID.Hex()
		w := ts.doForm(t, http.MethodPut, path, map[string]string{"category": "life"}, nil, bob)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = ts.doForm(t, http.MethodPut, path, map[string]string{"category": "life"}, nil, alice)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[blogResp](t, w).Blog
		require.Equal(t, "life", got.Category)
		require.Equal(t, "Hello World", got.Title)
	})

	t.Run("dashboard", func(t *testing.T) {
		w := ts.doJSON(t, http.MethodGet, "/single-user/blogs", nil, alice)
		require.Equal(t, http.StatusOK, w.Code)
		ret := decode[struct {
			Totals model.BlogTotals `json:"totals"`
			Blogs  []*model.Blog    `json:"blogs"`
		}](t, w)
		require.Len(t, ret.Blogs, 1)
		require.Equal(t, 1, ret.Totals.Blogs)
		require.Equal(t, 1, ret.Totals.Views)

		w = ts.doJSON(t, http.MethodGet, "/single-user/blogs", nil, bob)
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		path := "/blog/delete/" + blog.ID.Hex()
		w := ts.doJSON(t, http.MethodDelete, path, nil, bob)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = ts.doJSON(t, http.MethodDelete, path, nil, alice)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Equal(t, 0, ts.media.Len())

		w = ts.doJSON(t, http.MethodGet, "/single-blog/hello-world", nil, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// TestCreateBlogValidation checks bad forms are rejected before anything is stored.
func TestCreateBlogValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.addUser(t, "alice")

	for name, tc := range map[string]struct {
		fields map[string]string
		files  map[string][]byte
	}{
		"short content": {
			fields: map[string]string{"title": "t", "content": "too short", "category": "c"},
			files:  map[string][]byte{"coverImage": pngBytes(t)},
		},
		"missing cover": {
			fields: map[string]string{"title": "t", "content": blogContent(), "category": "c"},
		},
		"not an image": {
			fields: map[string]string{"title": "t", "content": blogContent(), "category": "c"},
			files:  map[string][]byte{"coverImage": []byte("plain text")},
		},
		"too large": {
			fields: map[string]string{"title": "t", "content": blogContent(), "category": "c"},
			files:  map[string][]byte{"coverImage": bytes.Repeat([]byte{1}, 2<<20)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			w := ts.doForm(t, http.MethodPost, "/blog/create", tc.fields, tc.files, alice)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			require.False(t, decode[envelope](t, w).Success)
		})
	}

	require.Equal(t, 0, ts.media.Len())

	w := ts.doForm(t, http.MethodPost, "/blog/create", map[string]string{}, nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestCommentFlow walks the comment endpoints.
func TestCommentFlow(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.addUser(t, "alice")
	bob := ts.addUser(t, "bob")
	blog := ts.createBlog(t, alice, "Comments")

	w := ts.doJSON(t, http.MethodPost, "/comment/add/"+blog.Slug, map[string]string{"text": "first"}, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	root := decode[commentResp](t, w).Data

	w = ts.doJSON(t, http.MethodPost, "/comment/add/"+blog.Slug, map[string]string{"text": "  "}, bob)
	require.Equal(t, http.StatusBadRequest, w.Code)
	w = ts.doJSON(t, http.MethodPost, "/comment/add/missing", map[string]string{"text": "x"}, bob)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = ts.doJSON(t, http.MethodPost, "/comment-reply/"+root.ID.Hex(), map[string]string{"text": "reply"}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reply := decode[commentResp](t, w).Data
	require.NotNil(t, reply.ParentID)
	require.Equal(t, root.ID, *reply.ParentID)

	w = ts.doJSON(t, http.MethodGet, "/comments/"+blog.Slug, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[struct {
		Count int              `json:"count"`
		Data  []*model.Comment `json:"data"`
	}](t, w)
	require.Equal(t, 1, tree.Count)
	require.Len(t, tree.Data[0].Replies, 1)
	require.Equal(t, "reply", tree.Data[0].Replies[0].Text)
	require.Equal(t, "alice", tree.Data[0].Replies[0].Author.Name)

	path := "/comment/edit/" + root.ID.Hex()
	w = ts.doJSON(t, http.MethodPut, path, map[string]string{"text": "hijack"}, alice)
	require.Equal(t, http.StatusForbidden, w.Code)
	w = ts.doJSON(t, http.MethodPut, path, map[string]string{"text": "edited"}, bob)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "edited", decode[commentResp](t, w).Data.Text)

	w = ts.doJSON(t, http.MethodPost, "/comment-like/"+root.ID.Hex(), nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"likes":1`)
	w = ts.doJSON(t, http.MethodPost, "/comment-dislike/"+root.ID.Hex(), nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"likes":0`)
	require.Contains(t, w.Body.String(), `"dislikes":1`)

	w = ts.doJSON(t, http.MethodDelete, "/comment/delete/"+root.ID.Hex(), nil, bob)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), `"deleted":2`)

	w = ts.doJSON(t, http.MethodGet, "/comments/"+blog.Slug, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":0`)
}
