package models

import "time"

// Audit action tags. ActivityLog rows are write-once: there is no update or
// delete path anywhere in the codebase.
const (
	ActionSubmissionCreated  = "SUBMISSION_CREATED"
	ActionSubmissionUpdated  = "SUBMISSION_UPDATED"
	ActionSubmissionApproved = "SUBMISSION_APPROVED"
	ActionSubmissionDenied   = "SUBMISSION_DENIED"
	ActionSubmissionReturned = "SUBMISSION_RETURNED"
	ActionSubmissionDeleted  = "SUBMISSION_DELETED"
	ActionCommentAdded       = "COMMENT_ADDED"
	ActionUserLogin          = "USER_LOGIN"
	ActionUserCreated        = "USER_CREATED"
	ActionUserUpdated        = "USER_UPDATED"
	ActionUserDeleted        = "USER_DELETED"
	ActionMACCreated         = "MAC_CREATED"
	ActionMACUpdated         = "MAC_UPDATED"
	ActionMACDeleted         = "MAC_DELETED"
)

// ActivityLog is the audit trail: who did what, when, from where.
type ActivityLog struct {
	LogID        uint      `gorm:"primaryKey;column:log_id" json:"log_id"`
	UserID       *uint     `gorm:"column:user_id" json:"user_id"`
	Action       string    `gorm:"column:action" json:"action"`
	SubmissionID *uint     `gorm:"column:submission_id" json:"submission_id,omitempty"`
	Description  string    `gorm:"column:description" json:"description"`
	IPAddress    string    `gorm:"column:ip_address" json:"ip_address,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
