// Package email delivers dispatch notifications to agency contact
// addresses over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"crisisnet_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers dispatch emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendCrisisAlertEmail(ctx context.Context, toEmail, agencyName, crisisTitle, crisisType, severity, description, distanceKm string, etaMinutes int, detailURL string) error
	SendEscalationEmail(ctx context.Context, toEmail, agencyName, crisisTitle, severity string, level int, detailURL string) error
	SendCrisisClosedEmail(ctx context.Context, toEmail, agencyName, crisisTitle string) error
}

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates the sender, or nil when no SMTP host is configured.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	if cfg.GetSMTPHost() == "" {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// SendCrisisAlertEmail notifies a candidate agency about a new crisis.
func (s *SMTPSender) SendCrisisAlertEmail(ctx context.Context, toEmail, agencyName, crisisTitle, crisisType, severity, description, distanceKm string, etaMinutes int, detailURL string) error {
	subject := fmt.Sprintf(subjectCrisisAlertFmt, crisisTitle)
	content, err := renderEmailTemplate("crisis_alert.html", crisisAlertEmailData{
		baseEmailData: baseEmailData{
			Title:   "Dispatch request",
			Heading: "Dispatch request",
		},
		AgencyName:  agencyName,
		CrisisTitle: crisisTitle,
		CrisisType:  crisisType,
		Severity:    severity,
		Description: description,
		DistanceKm:  distanceKm,
		ETAMinutes:  etaMinutes,
		DetailURL:   detailURL,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// SendEscalationEmail notifies a newly found agency about an escalated crisis.
func (s *SMTPSender) SendEscalationEmail(ctx context.Context, toEmail, agencyName, crisisTitle, severity string, level int, detailURL string) error {
	subject := fmt.Sprintf(subjectEscalationFmt, level, crisisTitle)
	content, err := renderEmailTemplate("escalation_alert.html", escalationEmailData{
		baseEmailData: baseEmailData{
			Title:   "Escalated dispatch request",
			Heading: "Escalated dispatch request",
		},
		AgencyName:  agencyName,
		CrisisTitle: crisisTitle,
		Severity:    severity,
		Level:       level,
		DetailURL:   detailURL,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

// SendCrisisClosedEmail tells a released agency its assignment is over.
func (s *SMTPSender) SendCrisisClosedEmail(ctx context.Context, toEmail, agencyName, crisisTitle string) error {
	content, err := renderEmailTemplate("crisis_closed.html", crisisClosedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Crisis resolved",
			Heading: "Crisis resolved",
		},
		AgencyName:  agencyName,
		CrisisTitle: crisisTitle,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectCrisisClosed, content)
}
