package models

import "time"

// Notification severity levels for in-app display.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyWarning = "warning"
	NotifyError   = "error"
)

type Notification struct {
	NotificationID uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID         uint       `gorm:"column:user_id;index" json:"user_id"`
	Title          string     `gorm:"column:title" json:"title"`
	Message        string     `gorm:"column:message" json:"message"`
	Type           string     `gorm:"column:type" json:"type"` // info|success|warning|error
	SubmissionID   *uint      `gorm:"column:submission_id" json:"submission_id,omitempty"`
	IsRead         bool       `gorm:"column:is_read" json:"is_read"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      *time.Time `gorm:"column:updated_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }
