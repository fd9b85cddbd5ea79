// controllers/notification.go
package controllers

import (
	"net/http"
	"strconv"

	"pandora-box-api/config"
	"pandora-box-api/middleware"
	"pandora-box-api/models"

	"github.com/gin-gonic/gin"
)

// ===================== NOTIFICATIONS =====================

// GetNotifications lists the actor's in-app notifications, newest first.
func GetNotifications(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := config.DB.Model(&models.Notification{}).
		Where("user_id = ?", user.UserID)

	if c.Query("unread_only") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": notifications,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// GetNotificationCounter returns the actor's unread notification count.
func GetNotificationCounter(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var unread int64
	if err := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.UserID, false).
		Count(&unread).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"unread":  unread,
	})
}

// MarkNotificationRead marks one of the actor's notifications read.
// Re-marking an already-read notification is a no-op success.
func MarkNotificationRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return
	}

	var notification models.Notification
	if err := config.DB.
		Where("notification_id = ? AND user_id = ?", id, user.UserID).
		First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if !notification.IsRead {
		if err := config.DB.Model(&notification).
			Update("is_read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllNotificationsRead marks every unread notification of the actor read.
func MarkAllNotificationsRead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", user.UserID, false).
		Update("is_read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": result.RowsAffected,
	})
}
