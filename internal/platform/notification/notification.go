// Package notification sends transactional email with template rendering.
// The clinic uses it for patient welcome mail on provisioning and for
// appointment reminders.
package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ---------------------------------------------------------------------------
// SMTP sender
// ---------------------------------------------------------------------------

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	addr string
	auth smtp.Auth
	from string
}

// NewSMTPSender configures an SMTP sender. Auth is skipped when user is
// empty, which covers unauthenticated relays on local networks.
func NewSMTPSender(host, port, user, pass, from string) *SMTPSender {
	s := &SMTPSender{
		addr: host + ":" + port,
		from: from,
	}
	if user != "" {
		s.auth = smtp.PlainAuth("", user, pass, host)
	}
	return s
}

// SendEmail sends a single text message.
func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(s.addr, s.auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Log sender (development)
// ---------------------------------------------------------------------------

// LogSender logs messages instead of delivering them. Used in development
// when no SMTP relay is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_len", len(body)).
		Msg("email suppressed (no SMTP relay configured)")
	return nil
}

// ---------------------------------------------------------------------------
// Template engine
// ---------------------------------------------------------------------------

// Template defines a reusable email template.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages email templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "welcome-patient",
			Subject: "Welcome to SmartMed Clinic",
			Body: "Dear {{patient_name}},\n\n" +
				"Your patient account has been created by Dr. {{doctor_name}}.\n\n" +
				"Login email: {{email}}\n" +
				"Temporary password: {{temp_password}}\n\n" +
				"Please log in and change your password as soon as possible.\n\n" +
				"SmartMed Clinic",
		},
		{
			ID:      "appointment-reminder",
			Subject: "Appointment Scheduled for {{date}}",
			Body: "Dear {{patient_name}},\n\n" +
				"An appointment has been scheduled for you on {{date}} at {{time}}.\n" +
				"Reason: {{reason}}\n\n" +
				"SmartMed Clinic",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using
// the supplied data map. Keys present in the template but absent from data
// are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// ---------------------------------------------------------------------------
// Mailer
// ---------------------------------------------------------------------------

// Mailer renders templates and dispatches them through an EmailSender.
type Mailer struct {
	sender    EmailSender
	templates *TemplateEngine
}

// NewMailer constructs a Mailer.
func NewMailer(sender EmailSender, templates *TemplateEngine) *Mailer {
	return &Mailer{sender: sender, templates: templates}
}

// SendWelcome mails a newly provisioned patient their login credentials.
func (m *Mailer) SendWelcome(ctx context.Context, to, patientName, doctorName, tempPassword string) error {
	subject, body, err := m.templates.Render("welcome-patient", map[string]string{
		"patient_name":  patientName,
		"doctor_name":   doctorName,
		"email":         to,
		"temp_password": tempPassword,
	})
	if err != nil {
		return err
	}
	return m.sender.SendEmail(ctx, to, subject, body)
}

// SendAppointmentReminder mails a patient when an appointment is scheduled.
func (m *Mailer) SendAppointmentReminder(ctx context.Context, to, patientName, date, timeOfDay, reason string) error {
	subject, body, err := m.templates.Render("appointment-reminder", map[string]string{
		"patient_name": patientName,
		"date":         date,
		"time":         timeOfDay,
		"reason":       reason,
	})
	if err != nil {
		return err
	}
	return m.sender.SendEmail(ctx, to, subject, body)
}

// ---------------------------------------------------------------------------
// Mock sender (test double)
// ---------------------------------------------------------------------------

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
