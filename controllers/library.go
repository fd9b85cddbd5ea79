// controllers/library.go
package controllers

import (
	"net/http"

	"pandora-box-api/config"
	"pandora-box-api/models"
	"pandora-box-api/services"
	"pandora-box-api/utils"

	"github.com/gin-gonic/gin"
)

// ===================== CONTENT LIBRARY =====================

// ContentLibrary lists approved, published submissions. Any authenticated
// user may browse the library regardless of agency.
func ContentLibrary(c *gin.Context) {
	query := config.DB.Model(&models.Submission{}).
		Preload("MAC").
		Scopes(services.PublicScope())

	if contentType := c.Query("type"); contentType != "" {
		if !models.ValidContentType(contentType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid content type filter"}})
			return
		}
		query = query.Where("content_type = ?", contentType)
	}
	if macFilter := c.Query("mac"); macFilter != "" {
		query = query.Where("mac_id = ?", macFilter)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR description LIKE ? OR tags LIKE ?", like, like, like)
	}

	var submissions []models.Submission
	if err := query.Order("published_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch content library"})
		return
	}

	items := make([]gin.H, 0, len(submissions))
	for i := range submissions {
		sub := &submissions[i]
		acronym := ""
		if sub.MAC != nil {
			acronym = sub.MAC.Acronym
		}
		items = append(items, gin.H{
			"submission_id":  sub.SubmissionID,
			"title":          sub.Title,
			"content_type":   sub.ContentType,
			"description":    sub.Description,
			"tags":           utils.ParseTags(sub.Tags),
			"mac":            acronym,
			"file_reference": sub.FileReference,
			"published_at":   sub.PublishedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"items":   items,
		"total":   len(items),
	})
}
