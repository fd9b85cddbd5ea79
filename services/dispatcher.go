package services

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"pandora-box-api/models"

	"gorm.io/gorm"
)

// Mailer is the email transport collaborator. Send failures are never
// propagated to the actor; they are logged and dropped (at-most-once).
type Mailer interface {
	Send(to []string, subject, html string) error
}

// MailerFunc adapts a plain function to Mailer.
type MailerFunc func(to []string, subject, html string) error

func (f MailerFunc) Send(to []string, subject, html string) error {
	return f(to, subject, html)
}

// Dispatcher fans user-facing alerts out as persisted in-app notifications
// plus best-effort email. The in-app insert shares the transition's
// transaction and aborts it on failure; email goes out only after commit.
type Dispatcher struct {
	mailer Mailer
}

func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer}
}

// Delivery batches the notifications of a single transition event. Notify
// is idempotent per recipient within the batch, so re-invoking a fan-out
// never double-notifies anyone.
type Delivery struct {
	d     *Dispatcher
	event string
	seen  map[uint]bool
	queue []queuedEmail
}

type queuedEmail struct {
	to      string
	name    string
	subject string
	body    string
}

func (d *Dispatcher) Begin(event string) *Delivery {
	return &Delivery{
		d:     d,
		event: event,
		seen:  make(map[uint]bool),
	}
}

// Notify persists an in-app notification for user inside tx and queues a
// matching email. Returns an error only for the in-app write; the caller
// must treat that as fatal to the transition.
func (dl *Delivery) Notify(tx *gorm.DB, user *models.User, kind, title, message string, submissionID *uint) error {
	if dl.seen[user.UserID] {
		return nil
	}

	n := models.Notification{
		UserID:       user.UserID,
		Title:        title,
		Message:      message,
		Type:         kind,
		SubmissionID: submissionID,
		IsRead:       false,
		CreatedAt:    time.Now(),
	}
	if err := tx.Create(&n).Error; err != nil {
		return fmt.Errorf("notification write failed for user %d: %w", user.UserID, err)
	}
	dl.seen[user.UserID] = true

	if email := strings.TrimSpace(user.Email); email != "" {
		dl.queue = append(dl.queue, queuedEmail{
			to:      email,
			name:    user.FullName(),
			subject: "[Pandora Box] " + title,
			body:    message,
		})
	}
	return nil
}

// Flush sends the queued emails. Call it only after the transaction has
// committed; failures are logged, never returned.
func (dl *Delivery) Flush() {
	for _, q := range dl.queue {
		html := buildEmailHTML(q.subject, q.name, q.body)
		if err := dl.d.mailer.Send([]string{q.to}, q.subject, html); err != nil {
			log.Printf("notification email send failed (event=%s to=%s): %v", dl.event, q.to, err)
		}
	}
	dl.queue = nil
}

func buildEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "Colleague"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
