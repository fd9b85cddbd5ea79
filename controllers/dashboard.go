// controllers/dashboard.go
package controllers

import (
	"net/http"
	"time"

	"pandora-box-api/config"
	"pandora-box-api/middleware"
	"pandora-box-api/models"
	"pandora-box-api/permissions"
	"pandora-box-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ===================== DASHBOARD =====================

// GetDashboardStats returns role-appropriate workload numbers.
func GetDashboardStats(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	actor := permissions.ActorFor(user, false)

	scoped := func() *gorm.DB {
		return config.DB.Model(&models.Submission{}).Scopes(services.SubmissionScope(actor))
	}

	stats := gin.H{}
	var total int64
	scoped().Count(&total)
	stats["total_submissions"] = total

	for _, st := range []string{models.StatusPending, models.StatusUnderReview, models.StatusApproved, models.StatusDenied, models.StatusReturned} {
		var n int64
		scoped().Where("status = ?", st).Count(&n)
		stats[st] = n
	}

	var published int64
	scoped().Where("status = ? AND is_published = ?", models.StatusApproved, true).Count(&published)
	stats["published"] = published

	if user.IsMICATReviewer() || user.IsAdmin() {
		today := time.Now().Truncate(24 * time.Hour)
		var reviewedToday int64
		config.DB.Model(&models.Submission{}).
			Where("reviewed_by = ? AND reviewed_at >= ?", user.UserID, today).
			Count(&reviewedToday)
		stats["reviewed_today"] = reviewedToday

		var urgent int64
		scoped().Where("priority = ? AND status IN ?", models.PriorityUrgent, models.ReviewableStatuses()).Count(&urgent)
		stats["urgent_pending"] = urgent
	}

	if user.IsAdmin() {
		var users, macs int64
		config.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&users)
		config.DB.Model(&models.MAC{}).Where("is_active = ?", true).Count(&macs)
		stats["active_users"] = users
		stats["active_macs"] = macs
	}

	var recent []models.Submission
	scoped().Preload("MAC").Preload("SubmittedBy").
		Order("submitted_at DESC").Limit(5).Find(&recent)

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"stats":              stats,
		"recent_submissions": recent,
	})
}
