package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogium/models"
	"blogium/utils"
)

// LocationController serves the admin-curated place list.
type LocationController struct {
	db *gorm.DB
}

// NewLocationController creates a new LocationController instance.
func NewLocationController(db *gorm.DB) *LocationController {
	return &LocationController{db: db}
}

// ListLocations returns all published locations.
func (l *LocationController) ListLocations(ctx *gin.Context) {
	var locations []models.Location
	if err := l.db.Where("is_published = ?", true).
		Order("created_at ASC").
		Find(&locations).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to list locations")
		return
	}
	utils.Success(ctx, gin.H{"items": locations})
}

// CreateLocation adds a location (admin only).
func (l *LocationController) CreateLocation(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40331, "admin access required")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,min=1,max=256"`
		IsPublished *bool  `json:"is_published"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40045, "invalid request payload")
		return
	}

	location := models.Location{
		Name:        utils.Sanitize(strings.TrimSpace(req.Name)),
		IsPublished: true,
	}
	if req.IsPublished != nil {
		location.IsPublished = *req.IsPublished
	}

	if err := l.db.Create(&location).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50047, "failed to create location")
		return
	}

	utils.Success(ctx, gin.H{"location": location})
}
