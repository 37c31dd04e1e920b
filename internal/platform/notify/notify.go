// Package notify provides the outbound delivery channels (email, WhatsApp)
// used by the notification domain, with template rendering and test doubles.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// WhatsAppSender is the interface for sending WhatsApp messages.
type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// Template defines a reusable outbound message template.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// Built-in template IDs.
const (
	TplAppointmentCreated   = "appointment-created"
	TplAppointmentConfirmed = "appointment-confirmed"
	TplAppointmentCancelled = "appointment-cancelled"
	TplAppointmentReminder  = "appointment-reminder"
)

// TemplateEngine manages message templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in clinic
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TplAppointmentCreated,
			Subject: "Appointment Scheduled",
			Body:    "Dear {{name}}, your appointment with Dr. {{doctor}} has been scheduled for {{date}} at {{time}}.",
		},
		{
			ID:      TplAppointmentConfirmed,
			Subject: "Appointment Confirmed",
			Body:    "Dear {{name}}, the appointment on {{date}} at {{time}} with Dr. {{doctor}} has been confirmed.",
		},
		{
			ID:      TplAppointmentCancelled,
			Subject: "Appointment Cancelled",
			Body:    "Dear {{name}}, the appointment on {{date}} at {{time}} with Dr. {{doctor}} has been cancelled.",
		},
		{
			ID:      TplAppointmentReminder,
			Subject: "Appointment Reminder",
			Body:    "Dear {{name}}, this is a reminder of your appointment tomorrow, {{date}} at {{time}}, with Dr. {{doctor}}.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template in the engine.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
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

// Recipient is a delivery target. Empty Email or Phone skips that channel.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Dispatcher renders a template and pushes the result through every channel
// the recipient has an address for.
type Dispatcher struct {
	email     EmailSender
	whatsapp  WhatsAppSender
	templates *TemplateEngine
}

// NewDispatcher constructs a Dispatcher. Either sender may be nil to disable
// that channel.
func NewDispatcher(email EmailSender, whatsapp WhatsAppSender, tpl *TemplateEngine) *Dispatcher {
	return &Dispatcher{email: email, whatsapp: whatsapp, templates: tpl}
}

// ChannelResult records the outcome of one channel attempt, so callers can
// log or persist partial failures even when the dispatch as a whole succeeds.
type ChannelResult struct {
	Channel string
	Err     error
}

// Dispatch renders templateID with data and sends to the recipient over every
// available channel. It returns the per-channel outcomes, plus an error only
// when at least one channel was attempted and every attempt failed; a
// recipient with no reachable channel dispatches to nothing and succeeds.
func (d *Dispatcher) Dispatch(ctx context.Context, r Recipient, templateID string, data map[string]string) ([]ChannelResult, error) {
	subject, body, err := d.templates.Render(templateID, data)
	if err != nil {
		return nil, err
	}

	var results []ChannelResult
	if d.email != nil && r.Email != "" {
		results = append(results, ChannelResult{
			Channel: "email",
			Err:     d.email.SendEmail(ctx, r.Email, subject, body),
		})
	}
	if d.whatsapp != nil && r.Phone != "" {
		results = append(results, ChannelResult{
			Channel: "whatsapp",
			Err:     d.whatsapp.SendWhatsApp(ctx, r.Phone, body),
		})
	}

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Channel, res.Err))
		}
	}
	if len(results) > 0 && len(errs) == len(results) {
		return results, errors.Join(errs...)
	}
	return results, nil
}

// LogEmailSender writes would-be emails to the log. Used in development and
// wherever a real provider is not configured.
type LogEmailSender struct {
	From   string
	Logger zerolog.Logger
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Logger.Info().
		Str("channel", "email").
		Str("from", s.From).
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("outbound message")
	return nil
}

// LogWhatsAppSender writes would-be WhatsApp messages to the log.
type LogWhatsAppSender struct {
	From   string
	Logger zerolog.Logger
}

func (s *LogWhatsAppSender) SendWhatsApp(_ context.Context, to, body string) error {
	s.Logger.Info().
		Str("channel", "whatsapp").
		Str("from", s.From).
		Str("to", to).
		Str("body", body).
		Msg("outbound message")
	return nil
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
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("email send failed")
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

// WhatsAppCall records a single call to SendWhatsApp.
type WhatsAppCall struct {
	To   string
	Body string
}

// MockWhatsAppSender is a test double for WhatsAppSender.
type MockWhatsAppSender struct {
	mu         sync.Mutex
	calls      []WhatsAppCall
	ShouldFail bool
}

func (m *MockWhatsAppSender) SendWhatsApp(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, WhatsAppCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New("whatsapp send failed")
	}
	return nil
}

// Calls returns a copy of recorded WhatsApp calls.
func (m *MockWhatsAppSender) Calls() []WhatsAppCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WhatsAppCall, len(m.calls))
	copy(out, m.calls)
	return out
}
