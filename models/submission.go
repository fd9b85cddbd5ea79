package models

import "time"

// Submission statuses. PENDING is the initial status; transitions between
// statuses happen only through services.WorkflowService.
const (
	StatusPending     = "PENDING"
	StatusUnderReview = "UNDER_REVIEW"
	StatusApproved    = "APPROVED"
	StatusDenied      = "DENIED"
	StatusReturned    = "RETURNED"
)

// Content type tags for submitted material.
const (
	ContentPressRelease = "PRESS_RELEASE"
	ContentAnnouncement = "ANNOUNCEMENT"
	ContentSpeech       = "SPEECH"
	ContentPhoto        = "PHOTO"
	ContentVideo        = "VIDEO"
	ContentDocument     = "DOCUMENT"
	ContentOther        = "OTHER"
)

// Review priorities.
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

type Submission struct {
	SubmissionID uint   `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	Title        string `gorm:"column:title" json:"title"`
	ContentType  string `gorm:"column:content_type" json:"content_type"`
	Description  string `gorm:"column:description" json:"description"`
	Tags         string `gorm:"column:tags" json:"tags"`

	// FileReference points at the uploaded artifact owned by the file
	// storage collaborator. Opaque to the workflow.
	FileReference string `gorm:"column:file_reference" json:"file_reference"`

	MACID         uint  `gorm:"column:mac_id;index:idx_mac_status" json:"mac_id"`
	SubmittedByID *uint `gorm:"column:submitted_by" json:"submitted_by"`
	ReviewedByID  *uint `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`

	Status         string `gorm:"column:status;index:idx_mac_status" json:"status"`
	Priority       string `gorm:"column:priority" json:"priority"`
	IsConfidential bool   `gorm:"column:is_confidential" json:"is_confidential"`
	IsPublished    bool   `gorm:"column:is_published" json:"is_published"`

	ReviewerComments string `gorm:"column:reviewer_comments" json:"reviewer_comments"`
	DenialReason     string `gorm:"column:denial_reason" json:"denial_reason"`

	SubmittedAt time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ApprovedAt  *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	MAC         *MAC  `gorm:"foreignKey:MACID" json:"mac,omitempty"`
	SubmittedBy *User `gorm:"foreignKey:SubmittedByID" json:"submitted_by_user,omitempty"`
	ReviewedBy  *User `gorm:"foreignKey:ReviewedByID" json:"reviewed_by_user,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// ValidStatus reports whether status is one of the workflow statuses.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusUnderReview, StatusApproved, StatusDenied, StatusReturned:
		return true
	}
	return false
}

// ValidContentType reports whether ct is a defined content type tag.
func ValidContentType(ct string) bool {
	switch ct {
	case ContentPressRelease, ContentAnnouncement, ContentSpeech,
		ContentPhoto, ContentVideo, ContentDocument, ContentOther:
		return true
	}
	return false
}

// ValidPriority reports whether p is a defined priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ReviewableStatuses are the statuses a reviewer may act on.
func ReviewableStatuses() []string {
	return []string{StatusPending, StatusUnderReview}
}

// EditableStatuses are the statuses the submitting officer may edit in.
func EditableStatuses() []string {
	return []string{StatusPending, StatusReturned}
}
