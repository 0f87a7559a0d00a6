package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogium/config"
	"blogium/middleware"
	"blogium/models"
	"blogium/utils"
)

// PostController manages posts and their comments.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

type postRequest struct {
	Title      string     `json:"title" binding:"required,min=1"`
	Text       string     `json:"text" binding:"required"`
	PubDate    *time.Time `json:"pub_date" binding:"required"`
	LocationID *uint      `json:"location_id"`
	CategoryID *uint      `json:"category_id"`
	Image      string     `json:"image"`
}

// ListPosts returns the paginated general feed: published posts whose
// pub_date has passed and whose category, when set, is itself published.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	// The feed is identical for every viewer, so the rendered page is cacheable.
	cacheKey := fmt.Sprintf("cache:posts:feed:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	query := models.VisiblePosts(p.db, time.Now())

	var posts []models.Post
	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list posts")
		return
	}

	payload := gin.H{
		"items":      posts,
		"pagination": paginationMeta(page, pageSize, total),
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

// GetPost returns a single post with its comments. The author may preview
// their own unpublished or future-dated post; everyone else gets the same
// not-found answer a missing post would produce.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	var post models.Post
	if err := models.PostFeed(p.db).Where("posts.id = ?", postID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return
	}

	viewerID, _ := middleware.CurrentUserID(ctx)
	if post.AuthorID != viewerID && !post.IsVisible(time.Now()) {
		// Hidden posts are indistinguishable from absent ones.
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}

	// Comments are shown on any post the viewer may see; their own
	// published flag is deliberately not consulted here.
	var comments []models.Comment
	if err := p.db.Where("post_id = ?", post.ID).
		Preload("Author").
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comments")
		return
	}

	utils.Success(ctx, gin.H{"post": post, "comments": comments})
}

// CreatePost allows authenticated users to create posts. The author is
// always the requester; neither authorship nor the published flag is
// client-suppliable.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		AuthorID:    userID,
		IsPublished: true,
	}
	if code, msg := p.applyPostRequest(&post, &req); code != 0 {
		utils.Error(ctx, http.StatusBadRequest, code, msg)
		return
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	invalidatePostCaches()

	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost lets the author edit their post. Anyone else is silently
// redirected to the post's detail view without touching the record.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	post, ok := p.loadPostForMutation(ctx)
	if !ok {
		return
	}

	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}
	if code, msg := p.applyPostRequest(post, &req); code != 0 {
		utils.Error(ctx, http.StatusBadRequest, code, msg)
		return
	}

	if err := p.db.Save(post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update post")
		return
	}

	invalidatePostCaches()

	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost lets the author delete their post; non-authors are redirected
// to the detail view.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadPostForMutation(ctx)
	if !ok {
		return
	}

	if err := p.db.Delete(post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to delete post")
		return
	}

	invalidatePostCaches()

	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// CreateComment attaches a comment to a post. The target post is resolved
// through the general visibility filter, so commenting on a hidden or
// future-dated post fails as not-found for every viewer, the author included.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}

	text := utils.Sanitize(req.Text)
	if strings.TrimSpace(text) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "text cannot be empty")
		return
	}

	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
		return
	}

	var post models.Post
	if err := models.VisiblePosts(p.db, time.Now()).
		Where("posts.id = ?", postID).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load post")
		return
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.Comment{
		PostID:      post.ID,
		AuthorID:    userID,
		Text:        text,
		IsPublished: true,
	}
	if err := p.db.Create(&comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to create comment")
		return
	}
	if err := p.db.Preload("Author").First(&comment, comment.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comment")
		return
	}

	// Comment counts feed into cached listings.
	invalidatePostCaches()

	utils.Success(ctx, gin.H{"comment": comment})
}

// UpdateComment lets the comment's author edit its text; non-authors are
// redirected to the post detail view.
func (p *PostController) UpdateComment(ctx *gin.Context) {
	comment, ok := p.loadCommentForMutation(ctx)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	text := utils.Sanitize(req.Text)
	if strings.TrimSpace(text) == "" {
		utils.Error(ctx, http.StatusBadRequest, 40023, "text cannot be empty")
		return
	}

	comment.Text = text
	if err := p.db.Save(comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "failed to update comment")
		return
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// DeleteComment lets the comment's author remove it; non-authors are
// redirected to the post detail view.
func (p *PostController) DeleteComment(ctx *gin.Context) {
	comment, ok := p.loadCommentForMutation(ctx)
	if !ok {
		return
	}

	if err := p.db.Delete(comment).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50072, "failed to delete comment")
		return
	}

	invalidatePostCaches()

	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// UploadImage stores a post image and returns its public URL.
func (p *PostController) UploadImage(ctx *gin.Context) {
	if _, ok := middleware.CurrentUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	const maxSize = 10 * 1024 * 1024
	if header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 10MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.Error(ctx, http.StatusBadRequest, 40033, "only image uploads are accepted")
		return
	}

	url, err := utils.GetStorage().Save(file, header.Filename, contentType, header.Size)
	if err != nil {
		utils.Sugar.Errorf("image upload failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to save file")
		return
	}

	utils.Success(ctx, gin.H{"url": url})
}

// applyPostRequest sanitizes and copies editable fields onto the post.
// Authorship and the published flag are never among them.
func (p *PostController) applyPostRequest(post *models.Post, req *postRequest) (code int, msg string) {
	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		return 40021, "title cannot be empty"
	}

	if req.CategoryID != nil {
		var n int64
		if err := p.db.Model(&models.Category{}).Where("id = ?", *req.CategoryID).Count(&n).Error; err != nil || n == 0 {
			return 40026, "unknown category"
		}
	}
	if req.LocationID != nil {
		var n int64
		if err := p.db.Model(&models.Location{}).Where("id = ?", *req.LocationID).Count(&n).Error; err != nil || n == 0 {
			return 40027, "unknown location"
		}
	}

	post.Title = title
	post.Text = utils.Sanitize(req.Text)
	post.PubDate = *req.PubDate
	post.LocationID = req.LocationID
	post.CategoryID = req.CategoryID
	post.Image = strings.TrimSpace(req.Image)
	return 0, ""
}

// loadPostForMutation resolves the post being mutated and enforces the
// ownership gate: a non-author never gets an error, only a redirect to the
// post's detail view, and the mutation is skipped.
func (p *PostController) loadPostForMutation(ctx *gin.Context) (*models.Post, bool) {
	postID, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
		return nil, false
	}

	var post models.Post
	if err := p.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40403, "post not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return nil, false
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return nil, false
	}

	if post.AuthorID != userID {
		redirectToPostDetail(ctx, post.ID)
		return nil, false
	}

	return &post, true
}

// loadCommentForMutation mirrors loadPostForMutation for comments.
func (p *PostController) loadCommentForMutation(ctx *gin.Context) (*models.Comment, bool) {
	commentID, ok := parseID(ctx.Param("commentId"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
		return nil, false
	}

	var comment models.Comment
	if err := p.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "comment not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50070, "failed to load comment")
		return nil, false
	}

	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "unauthorized")
		return nil, false
	}

	if comment.AuthorID != userID {
		redirectToPostDetail(ctx, comment.PostID)
		return nil, false
	}

	return &comment, true
}

func redirectToPostDetail(ctx *gin.Context, postID uint) {
	ctx.Redirect(http.StatusFound, fmt.Sprintf("/api/v1/posts/%d", postID))
	ctx.Abort()
}

func invalidatePostCaches() {
	utils.InvalidateByPrefix("cache:posts:")
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := config.Get().PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func paginationMeta(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
