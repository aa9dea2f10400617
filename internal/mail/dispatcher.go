package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"siteapi/internal/models"
)

// implicitTLSPort is the conventional SMTPS port. Dispatch over it uses
// implicit TLS; any other port attempts an opportunistic STARTTLS upgrade.
const implicitTLSPort = 465

// Dispatcher delivers an outbound message. Implementations make exactly one
// attempt per call; retrying is the submitter's business, not ours.
type Dispatcher interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPDispatcher delivers messages through an authenticated SMTP relay using
// go-mail. The sender address is the relay username; the recipient comes from
// configuration with a hardcoded fallback.
type SMTPDispatcher struct {
	cfg models.SMTPConfig
}

// NewSMTPDispatcher creates a dispatcher for the given relay configuration.
// Missing relay settings are not an error here: they are reported per send,
// so the rest of the service keeps working under a broken mail setup.
func NewSMTPDispatcher(cfg models.SMTPConfig) *SMTPDispatcher {
	if cfg.Recipient == "" {
		cfg.Recipient = models.DefaultRecipient
	}
	return &SMTPDispatcher{cfg: cfg}
}

// Send transmits the message to the configured relay. It returns a
// *DispatchError on failure: ConfigMissing when required relay settings are
// absent, DeliveryFailed on any transport or authentication error. The
// context bounds the whole dial-auth-submit exchange.
func (d *SMTPDispatcher) Send(ctx context.Context, msg *Message) error {
	if !d.cfg.DispatchReady() {
		// Full detail stays in the operator log; the caller gets a generic
		// service-unavailable message.
		slog.Error("SMTP relay configuration incomplete",
			"have_host", d.cfg.Host != "",
			"have_port", d.cfg.Port != 0,
			"have_username", d.cfg.Username != "",
			"have_password", d.cfg.Password != "",
		)
		return NewConfigMissingError(errors.New("smtp relay settings incomplete"))
	}

	m := gomail.NewMsg()
	if err := m.From(d.cfg.Username); err != nil {
		return NewDeliveryFailedError(fmt.Errorf("set sender: %w", err))
	}
	if err := m.To(d.cfg.Recipient); err != nil {
		return NewDeliveryFailedError(fmt.Errorf("set recipient: %w", err))
	}
	if err := m.ReplyTo(msg.ReplyTo); err != nil {
		return NewDeliveryFailedError(fmt.Errorf("set reply-to: %w", err))
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)

	opts := []gomail.Option{
		gomail.WithPort(d.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(d.cfg.Username),
		gomail.WithPassword(d.cfg.Password),
		gomail.WithTimeout(d.cfg.Timeout),
	}
	if d.cfg.Port == implicitTLSPort {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	client, err := gomail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return NewDeliveryFailedError(fmt.Errorf("create smtp client: %w", err))
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		slog.Error("Mail delivery failed",
			"relay", d.cfg.Host,
			"port", d.cfg.Port,
			"error", err,
		)
		return NewDeliveryFailedError(err)
	}

	return nil
}
