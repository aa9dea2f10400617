// Package mail renders accepted contact submissions into outbound messages
// and delivers them through the configured SMTP relay.
package mail

import (
	"fmt"
	"html"
	"strings"
	"time"

	"siteapi/internal/models"
)

// Submission timestamps are rendered for the site operators, who read them in
// Turkish local time.
const timestampLayout = "02.01.2006 15:04:05"

var istanbul = loadLocation("Europe/Istanbul")

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Message is an outbound contact notification, fully rendered and immutable.
// It is constructed once per accepted submission, handed to a Dispatcher,
// then discarded.
type Message struct {
	Subject  string
	ReplyTo  string
	HTMLBody string
}

// NewMessage renders a validated submission into an outbound message.
//
// Every user-controlled field is HTML-escaped exactly once before being
// embedded in the body; that is the sole defense against markup injection in
// the rendered notification. Header-bound fields (subject, name) additionally
// have control characters stripped so a submission cannot smuggle extra mail
// headers through the subject line. Reply-To carries the submitter's address
// raw: it is a mail header, not HTML.
func NewMessage(sub *models.ContactRequest, clientIdentity string, now time.Time) *Message {
	subject := fmt.Sprintf("[Web Form] %s — %s",
		stripControl(sub.Subject), stripControl(sub.Name))

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">`)
	b.WriteString(`<h2 style="color: #1f2937; border-bottom: 2px solid #e5e7eb; padding-bottom: 10px;">Yeni İletişim Formu Mesajı</h2>`)

	b.WriteString(`<div style="margin: 20px 0;">`)
	fmt.Fprintf(&b, `<p><strong>İsim:</strong> %s</p>`, html.EscapeString(sub.Name))
	fmt.Fprintf(&b, `<p><strong>E-posta:</strong> %s</p>`, html.EscapeString(sub.Email))
	if sub.Phone != "" {
		fmt.Fprintf(&b, `<p><strong>Telefon:</strong> %s</p>`, html.EscapeString(sub.Phone))
	}
	fmt.Fprintf(&b, `<p><strong>Konu:</strong> %s</p>`, html.EscapeString(sub.Subject))
	b.WriteString(`</div>`)

	b.WriteString(`<div style="background-color: #f9fafb; padding: 15px; border-left: 4px solid #1f2937; margin: 20px 0;">`)
	b.WriteString(`<h3 style="margin-top: 0; color: #1f2937;">Mesaj:</h3>`)
	fmt.Fprintf(&b, `<p style="white-space: pre-wrap; word-wrap: break-word;">%s</p>`, html.EscapeString(sub.Message))
	b.WriteString(`</div>`)

	// Audit footer: submission time and originating client identity.
	b.WriteString(`<div style="border-top: 1px solid #e5e7eb; padding-top: 15px; margin-top: 20px; font-size: 12px; color: #6b7280;">`)
	fmt.Fprintf(&b, `<p><strong>Gönderim Tarihi:</strong> %s<br/><strong>İstemci IP:</strong> %s</p>`,
		now.In(istanbul).Format(timestampLayout), html.EscapeString(clientIdentity))
	b.WriteString(`</div>`)

	b.WriteString(`</div>`)

	return &Message{
		Subject:  subject,
		ReplyTo:  sub.Email,
		HTMLBody: b.String(),
	}
}

// stripControl removes ASCII control characters (including CR and LF) from a
// header-bound value.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
