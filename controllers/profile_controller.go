package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogium/middleware"
	"blogium/models"
	"blogium/utils"
)

// ProfileController serves per-author post listings.
type ProfileController struct {
	db *gorm.DB
}

// NewProfileController creates a new ProfileController instance.
func NewProfileController(db *gorm.DB) *ProfileController {
	return &ProfileController{db: db}
}

// GetProfile lists a user's posts. The profile owner sees every own post,
// unpublished and future-dated ones included; any other viewer only sees
// posts that pass the general visibility filter.
func (p *ProfileController) GetProfile(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.Param("username"))
	if username == "" {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	var profile models.User
	if err := p.db.Where("username = ?", username).First(&profile).Error; err != nil {
		if recordNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to load user")
		return
	}

	viewerID, _ := middleware.CurrentUserID(ctx)
	visibleOnly := viewerID != profile.ID

	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	query := models.AuthorPosts(p.db, profile.ID, visibleOnly, time.Now())

	var posts []models.Post
	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50051, "failed to count posts")
		return
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50052, "failed to list posts")
		return
	}

	utils.Success(ctx, gin.H{
		"profile":    profile,
		"items":      posts,
		"pagination": paginationMeta(page, pageSize, total),
	})
}
