// Package notification sends best-effort appointment emails with
// template rendering. Delivery failures are logged and never unwind
// booking state.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template ids for the built-in appointment emails.
const (
	TemplateBookingConfirmed    = "booking-confirmed"
	TemplateBookingCancelled    = "booking-cancelled"
	TemplateRescheduleRequested = "reschedule-requested"
	TemplateRescheduleApproved  = "reschedule-approved"
	TemplateVisitCompleted      = "visit-completed"
)

// Template defines a reusable notification template.
type Template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
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
			ID:      TemplateBookingConfirmed,
			Name:    "Booking Confirmed",
			Subject: "Appointment confirmed for {{date}} at {{time}}",
			Body:    "Dear {{name}}, your appointment with {{doctor}} on {{date}} at {{time}} is confirmed. Consultation fee: {{amount}}.",
		},
		{
			ID:      TemplateBookingCancelled,
			Name:    "Booking Cancelled",
			Subject: "Appointment on {{date}} at {{time}} cancelled",
			Body:    "Dear {{name}}, the appointment with {{doctor}} on {{date}} at {{time}} has been cancelled. {{refund_note}}",
		},
		{
			ID:      TemplateRescheduleRequested,
			Name:    "Reschedule Requested",
			Subject: "Reschedule requested for {{date}} at {{time}}",
			Body:    "Dear {{name}}, {{patient}} has requested to reschedule the appointment on {{date}} at {{time}}. Reason: {{reason}}",
		},
		{
			ID:      TemplateRescheduleApproved,
			Name:    "Reschedule Approved",
			Subject: "Appointment moved to {{date}} at {{time}}",
			Body:    "Dear {{name}}, your appointment with {{doctor}} has been moved to {{date}} at {{time}}.",
		},
		{
			ID:      TemplateVisitCompleted,
			Name:    "Visit Completed",
			Subject: "Visit summary for {{date}}",
			Body:    "Dear {{name}}, your consultation with {{doctor}} on {{date}} at {{time}} has been marked complete.",
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

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
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
