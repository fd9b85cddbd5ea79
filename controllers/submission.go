// controllers/submission.go
package controllers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"pandora-box-api/config"
	"pandora-box-api/middleware"
	"pandora-box-api/models"
	"pandora-box-api/permissions"
	"pandora-box-api/services"
	"pandora-box-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===================== SUBMISSION MANAGEMENT =====================

// GetSubmissions lists submissions visible to the actor, with filters.
func GetSubmissions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	actor := permissions.ActorFor(user, false)

	status := c.Query("status")
	macFilter := c.Query("mac")
	search := c.Query("search")

	query := config.DB.Model(&models.Submission{}).
		Preload("MAC").
		Preload("SubmittedBy").
		Preload("ReviewedBy").
		Scopes(services.SubmissionScope(actor))

	if status != "" {
		if !models.ValidStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid status filter"}})
			return
		}
		query = query.Where("status = ?", status)
	}
	// Officers are already pinned to their own agency
	if macFilter != "" && !user.IsMACOfficer() {
		query = query.Where("mac_id = ?", macFilter)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR description LIKE ? OR tags LIKE ?", like, like, like)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	counts := gin.H{}
	base := func() *gorm.DB {
		return config.DB.Model(&models.Submission{}).Scopes(services.SubmissionScope(actor))
	}
	var total int64
	base().Count(&total)
	counts["all"] = total
	for _, st := range []string{models.StatusPending, models.StatusUnderReview, models.StatusApproved, models.StatusDenied, models.StatusReturned} {
		var n int64
		base().Where("status = ?", st).Count(&n)
		counts[st] = n
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"submissions":   submissions,
		"total":         len(submissions),
		"status_counts": counts,
	})
}

// GetSubmission returns a submission with its comments, filtered per actor.
func GetSubmission(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	var submission models.Submission
	if err := config.DB.
		Preload("MAC").
		Preload("SubmittedBy").
		Preload("ReviewedBy").
		Where("submission_id = ?", id).
		First(&submission).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	actor := permissions.ActorFor(user, false)
	if !services.SubmissionVisible(actor, &submission) {
		c.JSON(http.StatusForbidden, gin.H{"error": services.ErrPermission.Error()})
		return
	}

	var comments []models.Comment
	if err := config.DB.Model(&models.Comment{}).
		Preload("User").
		Where("submission_id = ?", submission.SubmissionID).
		Scopes(services.CommentScope(actor)).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": submission,
		"comments":   comments,
		"tag_list":   utils.ParseTags(submission.Tags),
		"can_edit":   permissions.Can(actor, permissions.ActionSubmissionEdit, &submission),
	})
}

// CreateSubmission files new content for review. The artifact itself lives
// with the file storage collaborator; clients send its reference, or omit
// it to have one assigned for a follow-up upload.
func CreateSubmission(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type CreateSubmissionRequest struct {
		Title          string `json:"title"`
		ContentType    string `json:"content_type"`
		Description    string `json:"description"`
		Tags           string `json:"tags"`
		FileReference  string `json:"file_reference"`
		IsConfidential bool   `json:"is_confidential"`
	}

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.FileReference == "" {
		req.FileReference = uuid.NewString()
	}

	submission, err := workflow.Create(user, services.CreateSubmissionInput{
		Title:          utils.SanitizeInput(req.Title),
		ContentType:    req.ContentType,
		Description:    req.Description,
		Tags:           utils.JoinTags(utils.ParseTags(req.Tags)),
		FileReference:  req.FileReference,
		IsConfidential: req.IsConfidential,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"message":    "Submission created successfully. It's now pending review.",
		"submission": submission,
	})
}

// UpdateSubmission edits a submission the actor may still change.
func UpdateSubmission(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	type UpdateSubmissionRequest struct {
		Title          string `json:"title"`
		ContentType    string `json:"content_type"`
		Description    string `json:"description"`
		Tags           string `json:"tags"`
		FileReference  string `json:"file_reference"`
		IsConfidential bool   `json:"is_confidential"`
	}

	var req UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := workflow.Edit(user, uint(id), services.EditSubmissionInput{
		Title:          utils.SanitizeInput(req.Title),
		ContentType:    req.ContentType,
		Description:    req.Description,
		Tags:           utils.JoinTags(utils.ParseTags(req.Tags)),
		FileReference:  req.FileReference,
		IsConfidential: req.IsConfidential,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Submission updated successfully",
		"submission": submission,
	})
}

// DeleteSubmission removes a submission permanently.
func DeleteSubmission(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	if err := workflow.Delete(user, uint(id), c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Submission deleted successfully",
	})
}

// ReviewSubmission applies an approve/deny/return decision.
func ReviewSubmission(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return
	}

	type ReviewRequest struct {
		Action           string `json:"action" binding:"required"` // approve|deny|return
		ReviewerComments string `json:"reviewer_comments"`
		Priority         string `json:"priority"`
		Publish          bool   `json:"publish"`
		DenialReason     string `json:"denial_reason"`
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, err := workflow.Review(user, uint(id), services.ReviewInput{
		Decision:     req.Action,
		Comments:     req.ReviewerComments,
		Priority:     req.Priority,
		Publish:      req.Publish,
		DenialReason: req.DenialReason,
	}, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("Submission %s", submission.Status),
		"submission": submission,
	})
}

// ExportSubmissions streams the actor's visible submissions as CSV.
func ExportSubmissions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	actor := permissions.ActorFor(user, false)

	status := c.Query("status")
	if status != "" && !models.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": []string{"Invalid status filter"}})
		return
	}

	query := config.DB.Model(&models.Submission{}).
		Preload("MAC").
		Preload("SubmittedBy").
		Preload("ReviewedBy").
		Scopes(services.SubmissionScope(actor))

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if macFilter := c.Query("mac"); macFilter != "" && !user.IsMACOfficer() {
		query = query.Where("mac_id = ?", macFilter)
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at DESC").Find(&submissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch submissions"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="submissions_export.csv"`)

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	_ = writer.Write([]string{
		"ID", "Title", "MAC", "Content Type", "Status",
		"Submitted By", "Submitted At", "Reviewed By",
		"Reviewed At", "Tags",
	})

	for i := range submissions {
		_ = writer.Write(exportRow(&submissions[i]))
	}
}

func exportRow(sub *models.Submission) []string {
	acronym := ""
	if sub.MAC != nil {
		acronym = sub.MAC.Acronym
	}
	submitter := "N/A"
	if sub.SubmittedBy != nil {
		submitter = sub.SubmittedBy.FullName()
	}
	reviewer := "N/A"
	if sub.ReviewedBy != nil {
		reviewer = sub.ReviewedBy.FullName()
	}
	reviewedAt := "N/A"
	if sub.ReviewedAt != nil {
		reviewedAt = sub.ReviewedAt.Format("2006-01-02 15:04")
	}
	return []string{
		strconv.FormatUint(uint64(sub.SubmissionID), 10),
		sub.Title,
		acronym,
		sub.ContentType,
		sub.Status,
		submitter,
		sub.SubmittedAt.Format("2006-01-02 15:04"),
		reviewer,
		reviewedAt,
		sub.Tags,
	}
}
