// Package permissions decides whether an actor may perform an action on a
// resource. It is a pure capability table keyed by (role, action): no
// storage access, no side effects, and unknown combinations deny.
package permissions

import "pandora-box-api/models"

// Action names every gated operation in the system.
type Action string

const (
	ActionSubmissionCreate Action = "submission.create"
	ActionSubmissionView   Action = "submission.view"
	ActionSubmissionEdit   Action = "submission.edit"
	ActionSubmissionDelete Action = "submission.delete"
	ActionSubmissionReview Action = "submission.review"
	ActionCommentAdd       Action = "comment.add"
	ActionCommentView      Action = "comment.view"
	ActionUserManage       Action = "user.manage"
	ActionMACManage        Action = "mac.manage"
	ActionAuditView        Action = "audit.view"
)

// Actor is the authenticated principal a request runs as.
type Actor struct {
	ID        uint
	Role      string
	MACID     *uint
	MACActive bool
}

// guard refines a capability with ownership or status conditions. A nil
// submission means the action has no target yet (create).
type guard func(a Actor, s *models.Submission) bool

func allow(Actor, *models.Submission) bool { return true }

func sameMAC(a Actor, s *models.Submission) bool {
	return s != nil && a.MACID != nil && s.MACID == *a.MACID
}

func ownsSubmission(a Actor, s *models.Submission) bool {
	return s != nil && s.SubmittedByID != nil && *s.SubmittedByID == a.ID
}

func statusIn(s *models.Submission, statuses []string) bool {
	if s == nil {
		return false
	}
	for _, st := range statuses {
		if s.Status == st {
			return true
		}
	}
	return false
}

// capabilities is the full policy. Officers act only on their own MAC's
// submissions; reviewers act on any submission but never create or delete;
// admins are handled in Can. MAC deactivation gates creation only, never
// visibility.
var capabilities = map[string]map[Action]guard{
	models.RoleMACOfficer: {
		ActionSubmissionCreate: func(a Actor, _ *models.Submission) bool {
			return a.MACID != nil && a.MACActive
		},
		ActionSubmissionView: sameMAC,
		ActionSubmissionEdit: func(a Actor, s *models.Submission) bool {
			return ownsSubmission(a, s) && statusIn(s, models.EditableStatuses())
		},
		ActionSubmissionDelete: func(a Actor, s *models.Submission) bool {
			return ownsSubmission(a, s) && s.Status == models.StatusPending
		},
		ActionCommentView: sameMAC,
	},
	models.RoleMICATReviewer: {
		ActionSubmissionView:   allow,
		ActionSubmissionReview: allow,
		ActionCommentAdd:       allow,
		ActionCommentView:      allow,
	},
}

// knownActions keeps Can total: even an admin is denied an action the
// system has never defined.
var knownActions = map[Action]bool{
	ActionSubmissionCreate: true,
	ActionSubmissionView:   true,
	ActionSubmissionEdit:   true,
	ActionSubmissionDelete: true,
	ActionSubmissionReview: true,
	ActionCommentAdd:       true,
	ActionCommentView:      true,
	ActionUserManage:       true,
	ActionMACManage:        true,
	ActionAuditView:        true,
}

// Can reports whether the actor may perform action on the submission.
// Pass nil for actions without a submission target.
func Can(a Actor, action Action, s *models.Submission) bool {
	if !knownActions[action] {
		return false
	}
	if a.Role == models.RoleAdmin {
		return true
	}
	byAction, ok := capabilities[a.Role]
	if !ok {
		return false
	}
	g, ok := byAction[action]
	if !ok {
		return false
	}
	return g(a, s)
}

// ActorFor builds an Actor from a loaded user record. MACActive must
// reflect the current state of the user's agency.
func ActorFor(u *models.User, macActive bool) Actor {
	return Actor{
		ID:        u.UserID,
		Role:      u.Role,
		MACID:     u.MACID,
		MACActive: macActive,
	}
}
