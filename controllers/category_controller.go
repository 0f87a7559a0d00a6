package controllers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogium/models"
	"blogium/utils"
)

var slugPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// CategoryController serves category listings; creation and editing are
// admin-only since the taxonomy is curated, not user-generated.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a new CategoryController instance.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// ListCategories returns all published categories.
func (c *CategoryController) ListCategories(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Where("is_published = ?", true).
		Order("created_at ASC").
		Find(&categories).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to list categories")
		return
	}
	utils.Success(ctx, gin.H{"items": categories})
}

// ListCategoryPosts lists the visible posts of one category. An unpublished
// category answers exactly like a missing one.
func (c *CategoryController) ListCategoryPosts(ctx *gin.Context) {
	slug := strings.TrimSpace(ctx.Param("slug"))

	var category models.Category
	err := c.db.Where("slug = ? AND is_published = ?", slug, true).First(&category).Error
	if err != nil {
		if recordNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40430, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load category")
		return
	}

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	// Same page for every viewer, so cacheable under the posts prefix.
	cacheKey := fmt.Sprintf("cache:posts:cat=%s:page=%d:size=%d", slug, page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	query := models.VisiblePosts(c.db, time.Now()).Where("posts.category_id = ?", category.ID)

	var posts []models.Post
	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to list posts")
		return
	}

	payload := gin.H{
		"category":   category,
		"items":      posts,
		"pagination": paginationMeta(page, pageSize, total),
	}
	utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	utils.Success(ctx, payload)
}

type categoryRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
	Slug        string `json:"slug" binding:"required"`
	IsPublished *bool  `json:"is_published"`
}

// CreateCategory adds a category (admin only).
func (c *CategoryController) CreateCategory(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40330, "admin access required")
		return
	}

	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "slug may contain latin letters, digits, hyphen and underscore")
		return
	}

	var n int64
	if err := c.db.Model(&models.Category{}).Where("slug = ?", slug).Count(&n).Error; err != nil || n > 0 {
		utils.Error(ctx, http.StatusConflict, 40940, "slug already in use")
		return
	}

	category := models.Category{
		Title:       utils.Sanitize(strings.TrimSpace(req.Title)),
		Description: utils.Sanitize(req.Description),
		Slug:        slug,
		IsPublished: true,
	}
	if req.IsPublished != nil {
		category.IsPublished = *req.IsPublished
	}

	if err := c.db.Create(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to create category")
		return
	}

	utils.Success(ctx, gin.H{"category": category})
}

// UpdateCategory edits a category (admin only). Unpublishing a category
// hides all of its posts, so listing caches are flushed.
func (c *CategoryController) UpdateCategory(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40330, "admin access required")
		return
	}

	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40430, "category not found")
		return
	}

	var category models.Category
	if err := c.db.First(&category, id).Error; err != nil {
		if recordNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40430, "category not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to load category")
		return
	}

	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "invalid request payload")
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if !slugPattern.MatchString(slug) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "slug may contain latin letters, digits, hyphen and underscore")
		return
	}
	if slug != category.Slug {
		var n int64
		if err := c.db.Model(&models.Category{}).Where("slug = ? AND id <> ?", slug, category.ID).Count(&n).Error; err != nil || n > 0 {
			utils.Error(ctx, http.StatusConflict, 40940, "slug already in use")
			return
		}
	}

	category.Title = utils.Sanitize(strings.TrimSpace(req.Title))
	category.Description = utils.Sanitize(req.Description)
	category.Slug = slug
	if req.IsPublished != nil {
		category.IsPublished = *req.IsPublished
	}

	if err := c.db.Save(&category).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to update category")
		return
	}

	invalidatePostCaches()

	utils.Success(ctx, gin.H{"category": category})
}
