package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"pandora-box-api/models"
)

type sentMail struct {
	to      []string
	subject string
	html    string
}

type recordingMailer struct {
	mu    sync.Mutex
	sends []sentMail
}

func (m *recordingMailer) Send(to []string, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentMail{to: to, subject: subject, html: html})
	return nil
}

func uintPtr(v uint) *uint { return &v }

func TestCreateStartsPendingAndNotifiesActiveReviewers(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*macs.*mac_id = \\?"),
			args:    []driver.Value{int64(1)},
			columns: []string{"mac_id", "name", "acronym", "is_active"},
			rows:    [][]driver.Value{{int64(1), "Ministry of Health", "MOH", true}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .submissions."),
			result:  scriptedResult{lastInsertID: 42, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*users.*role = \\? AND is_active = 1 AND deleted_at IS NULL"),
			args:    []driver.Value{models.RoleMICATReviewer},
			columns: []string{"user_id", "first_name", "last_name", "email"},
			rows: [][]driver.Value{
				{int64(20), "Ana", "Reviewer", "ana@micat.example"},
				{int64(21), "Ben", "Reviewer", "ben@micat.example"},
			},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .notifications."),
			result:  scriptedResult{lastInsertID: 100, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .notifications."),
			result:  scriptedResult{lastInsertID: 101, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(mailer))

	officer := &models.User{
		UserID: 10,
		Role:   models.RoleMACOfficer,
		MACID:  uintPtr(1),
	}

	sub, err := svc.Create(officer, CreateSubmissionInput{
		Title:         "Vaccination drive update",
		ContentType:   models.ContentPressRelease,
		Description:   "Weekly progress report",
		FileReference: "ref-1",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if sub.SubmissionID != 42 {
		t.Fatalf("expected submission id 42, got %d", sub.SubmissionID)
	}
	if sub.Status != models.StatusPending {
		t.Fatalf("expected status PENDING, got %s", sub.Status)
	}
	if sub.Priority != models.PriorityMedium {
		t.Fatalf("expected default MEDIUM priority, got %s", sub.Priority)
	}

	if len(mailer.sends) != 2 {
		t.Fatalf("expected 2 reviewer emails, got %d", len(mailer.sends))
	}
	for _, s := range mailer.sends {
		if s.subject != "[Pandora Box] New Submission" {
			t.Fatalf("unexpected email subject: %s", s.subject)
		}
		if !strings.Contains(s.html, "MOH submitted") {
			t.Fatalf("expected agency acronym in email body, got: %s", s.html)
		}
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateByAdminWithoutAgencyFailsValidation(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, nil)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(mailer))

	admin := &models.User{UserID: 1, Role: models.RoleAdmin}

	_, err := svc.Create(admin, CreateSubmissionInput{
		Title:         "Title",
		Description:   "Body",
		FileReference: "ref-1",
	}, "10.0.0.1")
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0] != "Submitting agency is required" {
		t.Fatalf("unexpected validation fields: %v", ve.Fields)
	}

	if len(mailer.sends) != 0 {
		t.Fatalf("expected no emails, got %d", len(mailer.sends))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateByAdminWithAgency(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*macs.*mac_id = \\?"),
			args:    []driver.Value{int64(1)},
			columns: []string{"mac_id", "acronym", "is_active"},
			rows:    [][]driver.Value{{int64(1), "MOH", true}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .submissions."),
			result:  scriptedResult{lastInsertID: 43, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 6, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*users.*role = \\? AND is_active = 1 AND deleted_at IS NULL"),
			args:    []driver.Value{models.RoleMICATReviewer},
			columns: []string{"user_id", "first_name", "last_name", "email"},
			rows:    [][]driver.Value{},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(&recordingMailer{}))

	admin := &models.User{UserID: 1, Role: models.RoleAdmin, MACID: uintPtr(1)}

	sub, err := svc.Create(admin, CreateSubmissionInput{
		Title:         "Title",
		Description:   "Body",
		FileReference: "ref-1",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sub.SubmissionID != 43 {
		t.Fatalf("expected submission id 43, got %d", sub.SubmissionID)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestCreateDeniedWhenAgencyInactive(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*macs.*mac_id = \\?"),
			args:    []driver.Value{int64(1)},
			columns: []string{"mac_id", "acronym", "is_active"},
			rows:    [][]driver.Value{{int64(1), "MOH", false}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(mailer))

	officer := &models.User{UserID: 10, Role: models.RoleMACOfficer, MACID: uintPtr(1)}

	_, err := svc.Create(officer, CreateSubmissionInput{
		Title:         "Title",
		Description:   "Body",
		FileReference: "ref-1",
	}, "10.0.0.1")
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}

	if len(mailer.sends) != 0 {
		t.Fatalf("expected no emails, got %d", len(mailer.sends))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestApproveWithPublishSetsTimestampsAndNotifiesSubmitter(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Budget speech", models.StatusPending, int64(1), int64(10)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submissions. SET .*WHERE submission_id = \\? AND status IN \\(\\?,\\?\\)"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*users.*user_id = \\?"),
			args:    []driver.Value{int64(10)},
			columns: []string{"user_id", "first_name", "last_name", "email"},
			rows:    [][]driver.Value{{int64(10), "Omar", "Officer", "omar@moh.example"}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .notifications."),
			result:  scriptedResult{lastInsertID: 200, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(mailer))

	reviewer := &models.User{UserID: 20, Role: models.RoleMICATReviewer}

	sub, err := svc.Review(reviewer, 7, ReviewInput{
		Decision: DecisionApprove,
		Comments: "Good to go",
		Publish:  true,
	}, "10.0.0.2")
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}

	if sub.Status != models.StatusApproved {
		t.Fatalf("expected status APPROVED, got %s", sub.Status)
	}
	if sub.ApprovedAt == nil || sub.PublishedAt == nil {
		t.Fatalf("expected approved_at and published_at to be set, got %+v", sub)
	}
	if !sub.IsPublished {
		t.Fatalf("expected submission to be published")
	}
	if sub.ReviewedByID == nil || *sub.ReviewedByID != 20 {
		t.Fatalf("expected reviewed_by 20, got %v", sub.ReviewedByID)
	}

	if len(mailer.sends) != 1 {
		t.Fatalf("expected 1 submitter email, got %d", len(mailer.sends))
	}
	if mailer.sends[0].subject != "[Pandora Box] Submission Approved" {
		t.Fatalf("unexpected subject: %s", mailer.sends[0].subject)
	}
	if !strings.Contains(mailer.sends[0].html, "approved and published") {
		t.Fatalf("expected published wording in email, got: %s", mailer.sends[0].html)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestReviewConflictWhenStatusChangedUnderneath(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Budget speech", models.StatusPending, int64(1), int64(10)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submissions."),
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(mailer))

	reviewer := &models.User{UserID: 20, Role: models.RoleMICATReviewer}

	_, err := svc.Review(reviewer, 7, ReviewInput{Decision: DecisionApprove}, "10.0.0.2")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if len(mailer.sends) != 0 {
		t.Fatalf("expected no emails after conflict, got %d", len(mailer.sends))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDenyRequiresReason(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Budget speech", models.StatusPending, int64(1), int64(10)}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(&recordingMailer{}))

	reviewer := &models.User{UserID: 20, Role: models.RoleMICATReviewer}

	_, err := svc.Review(reviewer, 7, ReviewInput{Decision: DecisionDeny, DenialReason: "  "}, "10.0.0.2")
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(ve.Fields) != 1 || ve.Fields[0] != "Denial reason is required" {
		t.Fatalf("unexpected validation fields: %v", ve.Fields)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEditReturnedSubmissionGoesBackToPending(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "content_type", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Old title", models.StatusReturned, models.ContentSpeech, int64(1), int64(10)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submissions. SET .*WHERE submission_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 3, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(&recordingMailer{}))

	officer := &models.User{UserID: 10, Role: models.RoleMACOfficer, MACID: uintPtr(1)}

	sub, err := svc.Edit(officer, 7, EditSubmissionInput{
		Title:       "New title",
		Description: "Revised body",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}

	if sub.Status != models.StatusPending {
		t.Fatalf("expected RETURNED submission to go back to PENDING, got %s", sub.Status)
	}
	if sub.Title != "New title" {
		t.Fatalf("expected updated title, got %s", sub.Title)
	}
	if sub.ContentType != models.ContentSpeech {
		t.Fatalf("expected content type preserved, got %s", sub.ContentType)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEditByAdminKeepsCurrentStatus(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "content_type", "mac_id", "submitted_by", "is_published"},
			rows:    [][]driver.Value{{int64(7), "Old title", models.StatusApproved, models.ContentPressRelease, int64(1), int64(10), true}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("UPDATE .submissions. SET .*WHERE submission_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 7, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(&recordingMailer{}))

	admin := &models.User{UserID: 1, Role: models.RoleAdmin}

	sub, err := svc.Edit(admin, 7, EditSubmissionInput{
		Title:       "Corrected title",
		Description: "Corrected body",
	}, "10.0.0.3")
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}

	if sub.Status != models.StatusApproved {
		t.Fatalf("admin edit must not change status, got %s", sub.Status)
	}
	if !sub.IsPublished {
		t.Fatalf("admin edit must not unpublish the submission")
	}
	if sub.Title != "Corrected title" {
		t.Fatalf("expected updated title, got %s", sub.Title)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestEditDeniedForForeignSubmission(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Title", models.StatusPending, int64(1), int64(99)}},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(&recordingMailer{}))

	officer := &models.User{UserID: 10, Role: models.RoleMACOfficer, MACID: uintPtr(1)}

	_, err := svc.Edit(officer, 7, EditSubmissionInput{Title: "x", Description: "y"}, "10.0.0.1")
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("expected ErrPermission, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestDeleteConflictWhenStatusMoved(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Title", models.StatusPending, int64(1), int64(10)}},
		},
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*macs.*mac_id = \\?"),
			args:    []driver.Value{int64(1)},
			columns: []string{"mac_id", "acronym"},
			rows:    [][]driver.Value{{int64(1), "MOH"}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 4, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("DELETE FROM .submissions. WHERE submission_id = \\? AND status = \\?"),
			result:  scriptedResult{rowsAffected: 0},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(&recordingMailer{}))

	officer := &models.User{UserID: 10, Role: models.RoleMACOfficer, MACID: uintPtr(1)}

	err := svc.Delete(officer, 7, "10.0.0.1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestAddInternalCommentSkipsSubmitterNotification(t *testing.T) {
	steps := []*queryStep{
		{
			kind:    kindQuery,
			pattern: regexp.MustCompile("SELECT .*submissions.*submission_id = \\?"),
			args:    []driver.Value{int64(7)},
			columns: []string{"submission_id", "title", "status", "mac_id", "submitted_by"},
			rows:    [][]driver.Value{{int64(7), "Title", models.StatusPending, int64(1), int64(10)}},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .comments."),
			result:  scriptedResult{lastInsertID: 9, rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: regexp.MustCompile("INSERT INTO .activity_logs."),
			result:  scriptedResult{lastInsertID: 5, rowsAffected: 1},
		},
	}

	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewWorkflowService(db, NewAuditSink(), NewDispatcher(mailer))

	reviewer := &models.User{UserID: 20, Role: models.RoleMICATReviewer}

	comment, err := svc.AddComment(reviewer, 7, "needs a better headline", true, "10.0.0.2")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}
	if comment.CommentID != 9 {
		t.Fatalf("expected comment id 9, got %d", comment.CommentID)
	}
	if !comment.IsInternal {
		t.Fatalf("expected internal comment")
	}

	if len(mailer.sends) != 0 {
		t.Fatalf("expected no submitter email for internal comment, got %d", len(mailer.sends))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("%v", err)
	}
}
