// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/licensechain/internal/config"
	"github.com/javajoker/licensechain/internal/models"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// NotificationService emails applicants about their licenses. With no SMTP
// host configured it only logs.
type NotificationService struct {
	config   *config.Config
	log      *logrus.Entry
	sendMail sendMailFunc
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(config *config.Config, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		config:   config,
		log:      logger.WithField("component", "notifications"),
		sendMail: smtp.SendMail,
	}
}

// SendStatusChangeNotification tells the applicant their license moved to status.
func (s *NotificationService) SendStatusChangeNotification(record models.LicenseRecord, status models.LicenseStatus) error {
	if record.Email == "" {
		return nil
	}

	tmpl := s.getEmailTemplate("license_" + string(status))
	data := map[string]interface{}{
		"BusinessName": record.BusinessName,
		"LicenseID":    record.ID,
		"LicenseType":  record.LicenseType,
		"Status":       status,
		"VerifyURL":    s.verifyURL(record.ID),
		"PlatformName": s.config.Email.FromName,
	}
	if record.ExpiryDate > 0 {
		data["ExpiryDate"] = time.Unix(record.ExpiryDate, 0).UTC().Format("2006-01-02")
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.sendEmail(record.Email, tmpl.Subject, body)
}

// SendRenewalReminder warns the applicant that a license expires soon.
func (s *NotificationService) SendRenewalReminder(view models.LicenseView) error {
	if view.Email == "" {
		return nil
	}

	tmpl := s.getEmailTemplate("renewal_reminder")
	data := map[string]interface{}{
		"BusinessName":  view.BusinessName,
		"LicenseID":     view.ID,
		"ExpiresInDays": view.Validity.ExpiresInDays,
		"ExpiryDate":    time.Unix(view.ExpiryDate, 0).UTC().Format("2006-01-02"),
		"VerifyURL":     s.verifyURL(view.ID),
		"PlatformName":  s.config.Email.FromName,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.sendEmail(view.Email, tmpl.Subject, body)
}

func (s *NotificationService) verifyURL(id uint64) string {
	return fmt.Sprintf("%s/verify/%d", s.config.Frontend.BaseURL, id)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if !s.config.Email.Enabled() {
		s.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Debug("email not configured, skipping")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	from := s.config.Email.FromEmail
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, from, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	if err := s.sendMail(addr, auth, from, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"license_Approved": {
			Subject: "Your business license has been approved",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>License Approved</h2>
	<p>Hello {{.BusinessName}},</p>
	<p>Your {{.LicenseType}} license #{{.LicenseID}} is now active{{if .ExpiryDate}} until {{.ExpiryDate}}{{end}}.</p>
	<a href="{{.VerifyURL}}">Verify License</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"license_Rejected": {
			Subject: "Your business license application was rejected",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Application Rejected</h2>
	<p>Hello {{.BusinessName}},</p>
	<p>Your application #{{.LicenseID}} was not approved. You may submit a new application.</p>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"license_Revoked": {
			Subject: "Your business license has been revoked",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>License Revoked</h2>
	<p>Hello {{.BusinessName}},</p>
	<p>License #{{.LicenseID}} has been revoked and is no longer valid.</p>
	<a href="{{.VerifyURL}}">View License Status</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"renewal_reminder": {
			Subject: "Your business license expires soon",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Renewal Reminder</h2>
	<p>Hello {{.BusinessName}},</p>
	<p>License #{{.LicenseID}} expires on {{.ExpiryDate}} ({{.ExpiresInDays}} days).</p>
	<a href="{{.VerifyURL}}">View License</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "License update",
		Body:    "<p>License #{{.LicenseID}} is now {{.Status}}.</p>",
	}
}
