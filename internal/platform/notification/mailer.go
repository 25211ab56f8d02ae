package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// Mailer renders templates and dispatches emails best-effort. A nil
// sender disables delivery entirely; failures are logged and swallowed.
type Mailer struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
}

func NewMailer(sender EmailSender, templates *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, templates: templates, logger: logger}
}

// Send renders templateID with data and emails each recipient. Empty
// recipient addresses are skipped.
func (m *Mailer) Send(ctx context.Context, templateID string, data map[string]string, recipients ...string) {
	if m == nil || m.sender == nil {
		return
	}

	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		m.logger.Error().Err(err).Str("template", templateID).Msg("render notification template")
		return
	}

	for _, to := range recipients {
		if to == "" {
			continue
		}
		if err := m.sender.SendEmail(ctx, to, subject, body); err != nil {
			m.logger.Error().Err(err).Str("template", templateID).Str("to", to).Msg("send notification email")
		}
	}
}
