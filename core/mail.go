package core

import "net/mail"

type (
	// EmailMessage is a plain-text message; the batch summary report is the
	// only mail this app sends.
	EmailMessage struct {
		To          []mail.Address
		Subject     string
		BodyStr     string
		TextContent string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages delivers every message before returning; batch
		// commands exit right after their last call and must not race a
		// background send.
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }
