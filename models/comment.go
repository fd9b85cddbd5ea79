package models

import "time"

// Comment is reviewer feedback attached to a submission. Internal comments
// are hidden from the submitting MAC officer.
type Comment struct {
	CommentID    uint      `gorm:"primaryKey;column:comment_id" json:"comment_id"`
	SubmissionID uint      `gorm:"column:submission_id;index" json:"submission_id"`
	UserID       uint      `gorm:"column:user_id" json:"user_id"`
	Text         string    `gorm:"column:text" json:"text"`
	IsInternal   bool      `gorm:"column:is_internal" json:"is_internal"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
