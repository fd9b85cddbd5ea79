package services

import (
	"fmt"
	"time"

	"pandora-box-api/models"

	"gorm.io/gorm"
)

// AuditEntry is one record for the append-only trail.
type AuditEntry struct {
	ActorID      *uint
	Action       string
	SubmissionID *uint
	Description  string
	IPAddress    string
}

// AuditSink writes activity log rows. It exposes no update or delete:
// entries are immutable once written. Record runs inside the caller's
// transaction and a failed write aborts the whole transition.
type AuditSink struct{}

func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

func (s *AuditSink) Record(tx *gorm.DB, e AuditEntry) error {
	row := models.ActivityLog{
		UserID:       e.ActorID,
		Action:       e.Action,
		SubmissionID: e.SubmissionID,
		Description:  e.Description,
		IPAddress:    e.IPAddress,
		CreatedAt:    time.Now(),
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("audit write failed: %w", err)
	}
	return nil
}
