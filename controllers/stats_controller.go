package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"blogium/models"
	"blogium/utils"
)

// StatsController exposes public site counters.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns counts of users, visible posts, comments and the
// all-time page view total.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes("cache:stats:site"); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var users, comments, posts int64
	if err := s.db.Model(&models.User{}).Count(&users).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50080, "failed to count users")
		return
	}
	if err := models.VisiblePosts(s.db, time.Now()).Count(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50081, "failed to count posts")
		return
	}
	if err := s.db.Model(&models.Comment{}).Count(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50082, "failed to count comments")
		return
	}

	var pageViews int64
	// Missing page view rows just mean zero traffic so far.
	_ = s.db.Model(&models.PageView{}).Select("COALESCE(SUM(count), 0)").Scan(&pageViews).Error

	payload := gin.H{
		"users":      users,
		"posts":      posts,
		"comments":   comments,
		"page_views": pageViews,
	}
	utils.CacheSetJSON("cache:stats:site", utils.JSONResponse{Code: 0, Message: "success", Data: payload}, 5*time.Minute)
	utils.Success(ctx, payload)
}
