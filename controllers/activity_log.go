// controllers/activity_log.go
package controllers

import (
	"net/http"

	"pandora-box-api/config"
	"pandora-box-api/middleware"
	"pandora-box-api/models"

	"github.com/gin-gonic/gin"
)

// ===================== ACTIVITY LOG =====================

// GetActivityLogs lists audit entries. Admins see everything (capped at
// 100 rows); everyone else sees only their own actions (capped at 50).
func GetActivityLogs(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query := config.DB.Model(&models.ActivityLog{})
	limit := 50
	if user.IsAdmin() {
		limit = 100
		if action := c.Query("action"); action != "" {
			query = query.Where("action = ?", action)
		}
		if userID := c.Query("user"); userID != "" {
			query = query.Where("user_id = ?", userID)
		}
	} else {
		query = query.Where("user_id = ?", user.UserID)
	}

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch activity logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"logs":    logs,
		"total":   len(logs),
	})
}
