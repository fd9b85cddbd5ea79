package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pandora-box-api/models"
	"pandora-box-api/permissions"

	"gorm.io/gorm"
)

// Review decisions.
const (
	DecisionApprove = "approve"
	DecisionDeny    = "deny"
	DecisionReturn  = "return"
)

// WorkflowService owns every status change a submission can go through.
// Nothing else writes the status column. Each transition runs as one
// transaction: status mutation, audit entry and in-app notifications all
// commit or all roll back. The status update is a compare-and-set, so the
// loser of a concurrent review gets ErrConflict instead of silently
// overwriting the winner's fields. Email leaves only after commit and is
// best-effort.
type WorkflowService struct {
	db         *gorm.DB
	audit      *AuditSink
	dispatcher *Dispatcher
}

func NewWorkflowService(db *gorm.DB, audit *AuditSink, dispatcher *Dispatcher) *WorkflowService {
	return &WorkflowService{db: db, audit: audit, dispatcher: dispatcher}
}

type CreateSubmissionInput struct {
	Title          string
	ContentType    string
	Description    string
	Tags           string
	FileReference  string
	IsConfidential bool
}

type EditSubmissionInput struct {
	Title          string
	ContentType    string
	Description    string
	Tags           string
	FileReference  string // empty keeps the current artifact
	IsConfidential bool
}

type ReviewInput struct {
	Decision     string
	Comments     string
	Priority     string
	Publish      bool
	DenialReason string
}

// Create files a new submission for the officer's agency. The submission
// starts PENDING and every active reviewer is alerted.
func (w *WorkflowService) Create(actor *models.User, in CreateSubmissionInput, ip string) (*models.Submission, error) {
	var fields []string
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, "Title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, "Description is required")
	}
	if strings.TrimSpace(in.FileReference) == "" {
		fields = append(fields, "File is required")
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = models.ContentPressRelease
	}
	if !models.ValidContentType(contentType) {
		fields = append(fields, "Invalid content type")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	mac, err := w.actorMAC(actor)
	if err != nil {
		return nil, err
	}

	act := permissions.ActorFor(actor, mac != nil && mac.IsActive)
	if !permissions.Can(act, permissions.ActionSubmissionCreate, nil) {
		return nil, ErrPermission
	}

	// Admins pass the capability check regardless of agency, but a
	// submission cannot exist without one.
	if actor.MACID == nil || mac == nil {
		return nil, &ValidationError{Fields: []string{"Submitting agency is required"}}
	}

	now := time.Now()
	sub := models.Submission{
		Title:          strings.TrimSpace(in.Title),
		ContentType:    contentType,
		Description:    in.Description,
		Tags:           in.Tags,
		FileReference:  in.FileReference,
		MACID:          *actor.MACID,
		SubmittedByID:  &actor.UserID,
		Status:         models.StatusPending,
		Priority:       models.PriorityMedium,
		IsConfidential: in.IsConfidential,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}

	delivery := w.dispatcher.Begin("submission.created")
	err = w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		if err := w.audit.Record(tx, AuditEntry{
			ActorID:      &actor.UserID,
			Action:       models.ActionSubmissionCreated,
			SubmissionID: &sub.SubmissionID,
			Description:  fmt.Sprintf("Created submission: %s", sub.Title),
			IPAddress:    ip,
		}); err != nil {
			return err
		}

		var reviewers []models.User
		if err := tx.Where("role = ? AND is_active = 1 AND deleted_at IS NULL", models.RoleMICATReviewer).
			Find(&reviewers).Error; err != nil {
			return fmt.Errorf("failed to load reviewers: %w", err)
		}
		message := fmt.Sprintf("%s submitted: %s", mac.Acronym, sub.Title)
		for i := range reviewers {
			if err := delivery.Notify(tx, &reviewers[i], models.NotifyInfo, "New Submission", message, &sub.SubmissionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	delivery.Flush()
	return &sub, nil
}

// Edit updates an officer's own submission while it is PENDING or
// RETURNED; admins may edit in any status. Editing a RETURNED submission
// puts it back in the review queue as PENDING, any other status is kept.
func (w *WorkflowService) Edit(actor *models.User, submissionID uint, in EditSubmissionInput, ip string) (*models.Submission, error) {
	sub, err := w.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}

	act := permissions.ActorFor(actor, false)
	if !permissions.Can(act, permissions.ActionSubmissionEdit, sub) {
		return nil, ErrPermission
	}

	var fields []string
	if strings.TrimSpace(in.Title) == "" {
		fields = append(fields, "Title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		fields = append(fields, "Description is required")
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = sub.ContentType
	}
	if !models.ValidContentType(contentType) {
		fields = append(fields, "Invalid content type")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	// Only a RETURNED submission re-enters the review queue on edit. An
	// admin may edit in any status; the status itself stays put.
	nextStatus := sub.Status
	if sub.Status == models.StatusReturned {
		nextStatus = models.StatusPending
	}

	now := time.Now()
	updates := map[string]interface{}{
		"title":           strings.TrimSpace(in.Title),
		"content_type":    contentType,
		"description":     in.Description,
		"tags":            in.Tags,
		"is_confidential": in.IsConfidential,
		"status":          nextStatus,
		"updated_at":      now,
	}
	if in.FileReference != "" {
		updates["file_reference"] = in.FileReference
	}

	err = w.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Submission{}).
			Where("submission_id = ? AND status = ?", sub.SubmissionID, sub.Status).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return w.audit.Record(tx, AuditEntry{
			ActorID:      &actor.UserID,
			Action:       models.ActionSubmissionUpdated,
			SubmissionID: &sub.SubmissionID,
			Description:  fmt.Sprintf("Updated submission: %s", updates["title"]),
			IPAddress:    ip,
		})
	})
	if err != nil {
		return nil, err
	}

	sub.Title = updates["title"].(string)
	sub.ContentType = contentType
	sub.Description = in.Description
	sub.Tags = in.Tags
	sub.IsConfidential = in.IsConfidential
	if in.FileReference != "" {
		sub.FileReference = in.FileReference
	}
	sub.Status = nextStatus
	sub.UpdatedAt = now
	return sub, nil
}

// Review applies a reviewer decision to a PENDING or UNDER_REVIEW
// submission. The reviewer's general notes and priority are recorded
// whatever the outcome; the submitter is notified of the decision.
func (w *WorkflowService) Review(actor *models.User, submissionID uint, in ReviewInput, ip string) (*models.Submission, error) {
	sub, err := w.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}

	act := permissions.ActorFor(actor, false)
	if !permissions.Can(act, permissions.ActionSubmissionReview, sub) {
		return nil, ErrPermission
	}

	var fields []string
	switch in.Decision {
	case DecisionApprove, DecisionReturn:
	case DecisionDeny:
		if strings.TrimSpace(in.DenialReason) == "" {
			fields = append(fields, "Denial reason is required")
		}
	default:
		fields = append(fields, "Invalid review decision")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		fields = append(fields, "Invalid priority")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"reviewed_by":       actor.UserID,
		"reviewed_at":       now,
		"reviewer_comments": in.Comments,
		"priority":          priority,
		"updated_at":        now,
	}

	var (
		auditAction string
		auditDesc   string
		notifyKind  string
		notifyTitle string
		notifyMsg   string
	)

	switch in.Decision {
	case DecisionApprove:
		updates["status"] = models.StatusApproved
		updates["approved_at"] = now
		updates["is_published"] = in.Publish
		if in.Publish {
			updates["published_at"] = now
		}
		auditAction = models.ActionSubmissionApproved
		auditDesc = fmt.Sprintf("Approved submission: %s", sub.Title)
		notifyKind = models.NotifySuccess
		notifyTitle = "Submission Approved"
		if in.Publish {
			notifyMsg = fmt.Sprintf("Your submission '%s' has been approved and published.", sub.Title)
		} else {
			notifyMsg = fmt.Sprintf("Your submission '%s' has been approved.", sub.Title)
		}
	case DecisionDeny:
		updates["status"] = models.StatusDenied
		updates["denial_reason"] = in.DenialReason
		auditAction = models.ActionSubmissionDenied
		auditDesc = fmt.Sprintf("Denied submission: %s", sub.Title)
		notifyKind = models.NotifyError
		notifyTitle = "Submission Denied"
		notifyMsg = fmt.Sprintf("Your submission '%s' has been denied. Reason: %s", sub.Title, in.DenialReason)
	case DecisionReturn:
		updates["status"] = models.StatusReturned
		auditAction = models.ActionSubmissionReturned
		auditDesc = fmt.Sprintf("Returned submission for edits: %s", sub.Title)
		notifyKind = models.NotifyWarning
		notifyTitle = "Submission Returned for Edits"
		notifyMsg = fmt.Sprintf("Please review and update your submission '%s'. Comments: %s", sub.Title, in.Comments)
	}

	delivery := w.dispatcher.Begin(fmt.Sprintf("submission.%s", in.Decision))
	err = w.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Submission{}).
			Where("submission_id = ? AND status IN ?", sub.SubmissionID, models.ReviewableStatuses()).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		if err := w.audit.Record(tx, AuditEntry{
			ActorID:      &actor.UserID,
			Action:       auditAction,
			SubmissionID: &sub.SubmissionID,
			Description:  auditDesc,
			IPAddress:    ip,
		}); err != nil {
			return err
		}

		if sub.SubmittedByID != nil {
			var submitter models.User
			if err := tx.Where("user_id = ?", *sub.SubmittedByID).First(&submitter).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil // submitter account removed, nothing to notify
				}
				return fmt.Errorf("failed to load submitter: %w", err)
			}
			return delivery.Notify(tx, &submitter, notifyKind, notifyTitle, notifyMsg, &sub.SubmissionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	delivery.Flush()

	sub.ReviewedByID = &actor.UserID
	sub.ReviewedAt = &now
	sub.ReviewerComments = in.Comments
	sub.Priority = priority
	sub.UpdatedAt = now
	switch in.Decision {
	case DecisionApprove:
		sub.Status = models.StatusApproved
		sub.ApprovedAt = &now
		sub.IsPublished = in.Publish
		if in.Publish {
			sub.PublishedAt = &now
		}
	case DecisionDeny:
		sub.Status = models.StatusDenied
		sub.DenialReason = in.DenialReason
	case DecisionReturn:
		sub.Status = models.StatusReturned
	}
	return sub, nil
}

// Delete removes a submission. Admins may always delete; the submitter only
// while it is still PENDING. The audit entry references the submission by
// text since the row will no longer exist.
func (w *WorkflowService) Delete(actor *models.User, submissionID uint, ip string) error {
	sub, err := w.loadSubmission(submissionID)
	if err != nil {
		return err
	}

	act := permissions.ActorFor(actor, false)
	if !permissions.Can(act, permissions.ActionSubmissionDelete, sub) {
		return ErrPermission
	}

	acronym := ""
	var mac models.MAC
	if err := w.db.Where("mac_id = ?", sub.MACID).First(&mac).Error; err == nil {
		acronym = mac.Acronym
	}

	return w.db.Transaction(func(tx *gorm.DB) error {
		if err := w.audit.Record(tx, AuditEntry{
			ActorID:     &actor.UserID,
			Action:      models.ActionSubmissionDeleted,
			Description: fmt.Sprintf("Deleted submission: %s from %s", sub.Title, acronym),
			IPAddress:   ip,
		}); err != nil {
			return err
		}

		res := tx.Where("submission_id = ? AND status = ?", sub.SubmissionID, sub.Status).
			Delete(&models.Submission{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete submission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

// AddComment attaches reviewer feedback to a submission. The submitter is
// alerted unless the comment is internal.
func (w *WorkflowService) AddComment(actor *models.User, submissionID uint, text string, internal bool, ip string) (*models.Comment, error) {
	sub, err := w.loadSubmission(submissionID)
	if err != nil {
		return nil, err
	}

	act := permissions.ActorFor(actor, false)
	if !permissions.Can(act, permissions.ActionCommentAdd, sub) {
		return nil, ErrPermission
	}

	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Fields: []string{"Comment text is required"}}
	}

	comment := models.Comment{
		SubmissionID: sub.SubmissionID,
		UserID:       actor.UserID,
		Text:         text,
		IsInternal:   internal,
		CreatedAt:    time.Now(),
	}

	delivery := w.dispatcher.Begin("comment.added")
	err = w.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}

		if err := w.audit.Record(tx, AuditEntry{
			ActorID:      &actor.UserID,
			Action:       models.ActionCommentAdded,
			SubmissionID: &sub.SubmissionID,
			Description:  fmt.Sprintf("Added comment on '%s'", sub.Title),
			IPAddress:    ip,
		}); err != nil {
			return err
		}

		if !internal && sub.SubmittedByID != nil {
			var submitter models.User
			if err := tx.Where("user_id = ?", *sub.SubmittedByID).First(&submitter).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				return fmt.Errorf("failed to load submitter: %w", err)
			}
			return delivery.Notify(tx, &submitter, models.NotifyInfo, "New Comment",
				fmt.Sprintf("MICAT added a comment on '%s'", sub.Title), &sub.SubmissionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	delivery.Flush()
	return &comment, nil
}

func (w *WorkflowService) loadSubmission(id uint) (*models.Submission, error) {
	var sub models.Submission
	if err := w.db.Where("submission_id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return &sub, nil
}

func (w *WorkflowService) actorMAC(actor *models.User) (*models.MAC, error) {
	if actor.MACID == nil {
		return nil, nil
	}
	var mac models.MAC
	if err := w.db.Where("mac_id = ?", *actor.MACID).First(&mac).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load agency: %w", err)
	}
	return &mac, nil
}
