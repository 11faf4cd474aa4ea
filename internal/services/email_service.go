package services

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/ezhulati/texaslobbyorg-sub001/internal/config"
	"github.com/ezhulati/texaslobbyorg-sub001/pkg/logger"
)

// Email kinds
const (
	EmailAdminAlert          = "admin_alert"
	EmailProfileApproved     = "profile_approved"
	EmailProfileRejected     = "profile_rejected"
	EmailClaimApproved       = "claim_approved"
	EmailClaimRejected       = "claim_rejected"
	EmailRoleUpgradeApproved = "role_upgrade_approved"
	EmailRoleUpgradeRejected = "role_upgrade_rejected"
	EmailMergeApproved       = "merge_approved"
	EmailMergeRejected       = "merge_rejected"
	EmailAccountSuspended    = "account_suspended"
	EmailAccountDeleted      = "account_deleted"
	EmailPaymentFailed       = "payment_failed"
	EmailBillUpdate          = "bill_update"
)

// EmailData feeds every template; each kind reads the fields it needs.
type EmailData struct {
	Name     string
	Subject  string // admin alerts
	Detail   string
	URL      string
	Reason   string
	Category string
	Until    *time.Time

	BillNumber string
	BillTitle  string
	BillStatus string
	LastAction string
}

// Notifier sends transactional email. Callers treat failures as non-fatal.
type Notifier interface {
	Notify(ctx context.Context, to, kind string, data EmailData) error
	NotifyAdmins(ctx context.Context, data EmailData) error
}

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type emailTemplate struct {
	subject string
	text    string
	html    string
}

var emailTemplates = map[string]emailTemplate{
	EmailAdminAlert: {
		subject: `[Admin] {{.Subject}}`,
		text:    "{{.Subject}}\n\n{{.Detail}}\n{{if .URL}}\nReview: {{.URL}}\n{{end}}",
		html:    `<h2>{{.Subject}}</h2><p>{{.Detail}}</p>{{if .URL}}<p><a href="{{.URL}}">Review</a></p>{{end}}`,
	},
	EmailProfileApproved: {
		subject: `Your TexasLobby.org profile is live`,
		text:    "Hi {{.Name}},\n\nYour profile has been approved and is now listed in the directory:\n{{.URL}}\n",
		html:    `<p>Hi {{.Name}},</p><p>Your profile has been approved and is now listed in the directory.</p><p><a href="{{.URL}}">View your profile</a></p>`,
	},
	EmailProfileRejected: {
		subject: `Your TexasLobby.org profile needs changes`,
		text:    "Hi {{.Name}},\n\nYour profile was not approved.\n\nReason: {{.Reason}}\nCategory: {{.Category}}\n\nYou can update your profile and resubmit it from your dashboard.\n",
		html:    `<p>Hi {{.Name}},</p><p>Your profile was not approved.</p><p><strong>Reason:</strong> {{.Reason}}<br><strong>Category:</strong> {{.Category}}</p><p>You can update your profile and resubmit it from your dashboard.</p>`,
	},
	EmailClaimApproved: {
		subject: `Your profile claim was approved`,
		text:    "Hi {{.Name}},\n\nYour claim was approved. You now manage this profile:\n{{.URL}}\n",
		html:    `<p>Hi {{.Name}},</p><p>Your claim was approved. You now manage <a href="{{.URL}}">this profile</a>.</p>`,
	},
	EmailClaimRejected: {
		subject: `Your profile claim was not approved`,
		text:    "Hi {{.Name}},\n\nYour claim was not approved.\n\nReason: {{.Reason}}\n",
		html:    `<p>Hi {{.Name}},</p><p>Your claim was not approved.</p><p><strong>Reason:</strong> {{.Reason}}</p>`,
	},
	EmailRoleUpgradeApproved: {
		subject: `Your lobbyist account was approved`,
		text:    "Hi {{.Name}},\n\nYour account has been upgraded to a lobbyist account.\n",
		html:    `<p>Hi {{.Name}},</p><p>Your account has been upgraded to a lobbyist account.</p>`,
	},
	EmailRoleUpgradeRejected: {
		subject: `Your lobbyist account request was not approved`,
		text:    "Hi {{.Name}},\n\nYour upgrade request was not approved.\n\nReason: {{.Reason}}\n",
		html:    `<p>Hi {{.Name}},</p><p>Your upgrade request was not approved.</p><p><strong>Reason:</strong> {{.Reason}}</p>`,
	},
	EmailMergeApproved: {
		subject: `Your profiles were merged`,
		text:    "Hi {{.Name}},\n\nThe duplicate profile was merged into:\n{{.URL}}\n",
		html:    `<p>Hi {{.Name}},</p><p>The duplicate profile was merged into <a href="{{.URL}}">your profile</a>.</p>`,
	},
	EmailMergeRejected: {
		subject: `Your merge request was not approved`,
		text:    "Hi {{.Name}},\n\nYour merge request was not approved.\n\nReason: {{.Reason}}\n",
		html:    `<p>Hi {{.Name}},</p><p>Your merge request was not approved.</p><p><strong>Reason:</strong> {{.Reason}}</p>`,
	},
	EmailAccountSuspended: {
		subject: `Your TexasLobby.org account has been suspended`,
		text:    "Hi {{.Name}},\n\nYour account has been suspended.\n\nReason: {{.Reason}}\n{{if .Until}}Until: {{.Until.Format \"January 2, 2006 15:04 MST\"}}\n{{end}}",
		html:    `<p>Hi {{.Name}},</p><p>Your account has been suspended.</p><p><strong>Reason:</strong> {{.Reason}}</p>{{if .Until}}<p><strong>Until:</strong> {{.Until.Format "January 2, 2006 15:04 MST"}}</p>{{end}}`,
	},
	EmailAccountDeleted: {
		subject: `Your TexasLobby.org account was deleted`,
		text:    "Hi {{.Name}},\n\nYour account and its data have been removed by an administrator.\n",
		html:    `<p>Hi {{.Name}},</p><p>Your account and its data have been removed by an administrator.</p>`,
	},
	EmailPaymentFailed: {
		subject: `Payment failed for your TexasLobby.org subscription`,
		text:    "Hi {{.Name}},\n\nWe could not process your latest subscription payment. Please update your payment method to keep your listing tier.\n",
		html:    `<p>Hi {{.Name}},</p><p>We could not process your latest subscription payment. Please update your payment method to keep your listing tier.</p>`,
	},
	EmailBillUpdate: {
		subject: `{{.BillNumber}} was updated`,
		text:    "Hi {{.Name}},\n\n{{.BillNumber}}: {{.BillTitle}}\nStatus: {{.BillStatus}}\n{{if .LastAction}}Last action: {{.LastAction}}\n{{end}}",
		html:    `<p>Hi {{.Name}},</p><p><strong>{{.BillNumber}}</strong>: {{.BillTitle}}</p><p>Status: {{.BillStatus}}</p>{{if .LastAction}}<p>Last action: {{.LastAction}}</p>{{end}}`,
	},
}

type renderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

type compiledTemplate struct {
	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func compileTemplates() map[string]compiledTemplate {
	out := make(map[string]compiledTemplate, len(emailTemplates))
	for kind, t := range emailTemplates {
		out[kind] = compiledTemplate{
			subject: texttemplate.Must(texttemplate.New(kind + "_subject").Parse(t.subject)),
			text:    texttemplate.Must(texttemplate.New(kind + "_text").Parse(t.text)),
			html:    htmltemplate.Must(htmltemplate.New(kind + "_html").Parse(t.html)),
		}
	}
	return out
}

var compiledEmailTemplates = compileTemplates()

func renderEmail(kind string, data EmailData) (*renderedEmail, error) {
	t, ok := compiledEmailTemplates[kind]
	if !ok {
		return nil, fmt.Errorf("unknown email kind %q", kind)
	}

	var subject, text, html bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return nil, fmt.Errorf("failed to render subject: %w", err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &renderedEmail{
		Subject: strings.TrimSpace(subject.String()),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// EmailService renders templates and delivers through SES, or only logs
// when no provider is configured.
type EmailService struct {
	ses         SESAPI
	fromAddress string
	adminAlerts []string
	logger      *slog.Logger
}

// NewEmailService builds the sender named by cfg.Provider ("ses" or "log").
func NewEmailService(ctx context.Context, cfg config.EmailConfig, logger *slog.Logger) (*EmailService, error) {
	svc := &EmailService{
		fromAddress: cfg.FromAddress,
		adminAlerts: cfg.AdminAlerts,
		logger:      logger,
	}

	if cfg.Provider != "ses" {
		return svc, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	svc.ses = ses.NewFromConfig(awsCfg)
	return svc, nil
}

// NewEmailServiceWithClient wires a prebuilt SES client.
func NewEmailServiceWithClient(client SESAPI, from string, adminAlerts []string, logger *slog.Logger) *EmailService {
	return &EmailService{ses: client, fromAddress: from, adminAlerts: adminAlerts, logger: logger}
}

func (s *EmailService) Notify(ctx context.Context, to, kind string, data EmailData) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("no recipient for %s email", kind)
	}
	return s.send(ctx, []string{to}, kind, data)
}

// NotifyAdmins sends an admin alert to the configured alert list.
func (s *EmailService) NotifyAdmins(ctx context.Context, data EmailData) error {
	if len(s.adminAlerts) == 0 {
		s.logger.DebugContext(ctx, "admin alert dropped, no recipients", slog.String("subject", data.Subject))
		return nil
	}
	return s.send(ctx, s.adminAlerts, EmailAdminAlert, data)
}

func (s *EmailService) send(ctx context.Context, to []string, kind string, data EmailData) error {
	msg, err := renderEmail(kind, data)
	if err != nil {
		return err
	}

	if s.ses == nil {
		s.logger.InfoContext(ctx, "email (log provider)",
			slog.String("kind", kind),
			slog.Int("recipients", len(to)),
			slog.String("subject", msg.Subject),
		)
		return nil
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: to,
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(msg.Subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(msg.HTML),
				},
				Text: &types.Content{
					Data: aws.String(msg.Text),
				},
			},
		},
	}

	result, err := s.ses.SendEmail(ctx, input)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send email via SES",
			slog.String("kind", kind),
			slog.String("email", logger.SanitizedEmail(to[0])),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.InfoContext(ctx, "email sent",
		slog.String("kind", kind),
		slog.String("email", logger.SanitizedEmail(to[0])),
		slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

// sendBestEffort delivers an email and logs instead of failing the caller.
func sendBestEffort(ctx context.Context, log *slog.Logger, n Notifier, to, kind string, data EmailData) {
	if n == nil || to == "" {
		return
	}
	if err := n.Notify(ctx, to, kind, data); err != nil {
		log.WarnContext(ctx, "notification email failed",
			slog.String("kind", kind),
			slog.Any("error", err))
	}
}

func alertAdmins(ctx context.Context, log *slog.Logger, n Notifier, data EmailData) {
	if n == nil {
		return
	}
	if err := n.NotifyAdmins(ctx, data); err != nil {
		log.WarnContext(ctx, "admin alert email failed",
			slog.String("subject", data.Subject),
			slog.Any("error", err))
	}
}
