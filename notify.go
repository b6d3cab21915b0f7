package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/wneessen/go-mail"
)

// MailerConfig holds SMTP options for the verification mailer
type MailerConfig interface {
	GetHost() string
	GetPort() int
	GetUsername() string
	GetPassword() string
	GetFromName() string
	GetFromAddress() string
	GetFrontendURL() string
	GetSendTimeout() time.Duration
}

// SMTPNotifier delivers verification links over SMTP
type SMTPNotifier struct {
	client      *mail.Client
	fromName    string
	fromAddress string
	frontendURL string
	timeout     time.Duration
	logger      Logger
}

// NewSMTPNotifier builds the production mailer. Credentials come through the
// config struct, never from ambient environment lookups.
func NewSMTPNotifier(cfg MailerConfig) (*SMTPNotifier, error) {
	client, err := mail.NewClient(cfg.GetHost(),
		mail.WithPort(cfg.GetPort()),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.GetUsername()),
		mail.WithPassword(cfg.GetPassword()),
		mail.WithTimeout(cfg.GetSendTimeout()),
	)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize SMTP client")
	}

	return &SMTPNotifier{
		client:      client,
		fromName:    cfg.GetFromName(),
		fromAddress: cfg.GetFromAddress(),
		frontendURL: cfg.GetFrontendURL(),
		timeout:     cfg.GetSendTimeout(),
		logger:      defLogger{},
	}, nil
}

func (n *SMTPNotifier) WithLogger(l Logger) *SMTPNotifier {
	n.logger = l
	return n
}

// SendVerification delivers the verification link. The call is bounded by the
// configured timeout so a wedged SMTP server cannot hang a signup request.
func (n *SMTPNotifier) SendVerification(ctx context.Context, email, token string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(n.fromName, n.fromAddress); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "invalid sender address")
	}
	if err := msg.To(email); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid recipient address")
	}

	url := VerificationURL(n.frontendURL, token)

	msg.Subject("Verify Your Email")
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(`
		<p>Please click the link below to verify your email:</p>
		<a href="%s">%s</a>
		<p>This link will expire in 24 hours.</p>
	`, url, url))

	sendCtx := ctx
	if n.timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.client.DialAndSendWithContext(sendCtx, msg); err != nil {
		n.logger.Error("verification email dispatch failed", "to", email, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to send verification email").
			WithTextCode("VERIFICATION_DISPATCH_FAILED")
	}

	return nil
}

var _ Notifier = (*SMTPNotifier)(nil)

// LogNotifier prints the link instead of sending it; used in development and
// tests.
type LogNotifier struct {
	FrontendURL string
	Logger      Logger
}

func (n LogNotifier) SendVerification(ctx context.Context, email, token string) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}

	logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	logger.Info("to: %s", email)
	logger.Info("link: %s", VerificationURL(n.FrontendURL, token))
	return nil
}

var _ Notifier = LogNotifier{}

// VerificationURL builds the SPA link the user lands on to redeem the token.
func VerificationURL(frontendURL, token string) string {
	return fmt.Sprintf("%s/verify-email/%s", frontendURL, token)
}
