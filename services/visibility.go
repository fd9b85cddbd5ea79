package services

import (
	"pandora-box-api/models"
	"pandora-box-api/permissions"

	"gorm.io/gorm"
)

// Visibility filtering. Every listing query goes through one of these
// scopes; SubmissionVisible and CommentVisible are the same rules as pure
// predicates so they can be checked without a database.

// SubmissionScope restricts a submissions query to what the actor may read.
// Officers see their own agency's submissions; reviewers and admins see all.
func SubmissionScope(a permissions.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.Role == models.RoleMACOfficer {
			if a.MACID == nil {
				return db.Where("1 = 0")
			}
			return db.Where("mac_id = ?", *a.MACID)
		}
		return db
	}
}

// SubmissionVisible reports whether the actor may read the submission.
func SubmissionVisible(a permissions.Actor, s *models.Submission) bool {
	return permissions.Can(a, permissions.ActionSubmissionView, s)
}

// PublicScope is the content library view: approved and published items,
// readable by any authenticated actor regardless of role.
func PublicScope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND is_published = 1", models.StatusApproved)
	}
}

// PubliclyVisible is the predicate form of PublicScope.
func PubliclyVisible(s *models.Submission) bool {
	return s.Status == models.StatusApproved && s.IsPublished
}

// CommentScope hides internal comments from everyone except reviewers and
// admins.
func CommentScope(a permissions.Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if a.Role == models.RoleMICATReviewer || a.Role == models.RoleAdmin {
			return db
		}
		return db.Where("is_internal = 0")
	}
}

// CommentVisible reports whether the actor may read the comment, assuming
// they may already read its submission.
func CommentVisible(a permissions.Actor, c *models.Comment) bool {
	if a.Role == models.RoleMICATReviewer || a.Role == models.RoleAdmin {
		return true
	}
	return !c.IsInternal
}
