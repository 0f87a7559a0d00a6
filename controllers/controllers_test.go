package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogium/middleware"
	"blogium/models"
	"blogium/utils"
)

func TestMain(m *testing.M) {
	// Config is loaded lazily and refuses to start without a signing secret.
	os.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Location{},
		&models.Category{},
		&models.Post{},
		&models.Comment{},
	))

	postC := NewPostController(db)
	profileC := NewProfileController(db)
	categoryC := NewCategoryController(db)

	r := gin.New()
	api := r.Group("/api/v1")

	public := api.Group("")
	public.Use(middleware.OptionalAuth())
	public.GET("/posts", postC.ListPosts)
	public.GET("/posts/:id", postC.GetPost)
	public.GET("/categories/:slug/posts", categoryC.ListCategoryPosts)
	public.GET("/profiles/:username", profileC.GetProfile)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/posts", postC.CreatePost)
	protected.PUT("/posts/:id", postC.UpdatePost)
	protected.DELETE("/posts/:id", postC.DeletePost)
	protected.POST("/posts/:id/comments", postC.CreateComment)
	protected.PUT("/posts/:id/comments/:commentId", postC.UpdateComment)
	protected.DELETE("/posts/:id/comments/:commentId", postC.DeleteComment)

	return &testEnv{db: db, router: r}
}

func (e *testEnv) createUser(t *testing.T, username string) models.User {
	t.Helper()
	u := models.User{Username: username}
	require.NoError(t, e.db.Create(&u).Error)
	return u
}

func (e *testEnv) createPost(t *testing.T, p models.Post) models.Post {
	t.Helper()
	if p.Title == "" {
		p.Title = "post"
	}
	if p.Text == "" {
		p.Text = "text"
	}
	require.NoError(t, e.db.Create(&p).Error)
	return p
}

func (e *testEnv) createCategory(t *testing.T, slug string, published bool) models.Category {
	t.Helper()
	c := models.Category{Title: slug, Slug: slug, IsPublished: published}
	require.NoError(t, e.db.Create(&c).Error)
	return c
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u.ID, u.Username, time.Hour)
	require.NoError(t, err)
	return token
}

// do performs a request against the test router. An empty token sends no
// Authorization header.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	resp := decodeResponse(t, w)
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func postDetailPath(id uint) string {
	return fmt.Sprintf("/api/v1/posts/%d", id)
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
