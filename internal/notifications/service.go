package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/config"
	"github.com/Yertled/Discord-Inactive-Checker/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service mirrors activity reports to a webhook and/or email
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// Enabled reports whether any mirror is configured
func (s *Service) Enabled() bool {
	return s.config.TeamsWebhookURL != "" || s.config.NotificationEmail != ""
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.post(s.buildTeamsMessage(report)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert posts a failed-run alert to the webhook, if one is configured
func (s *Service) SendAlert(alert *models.Alert) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Infof("Alert not mirrored (no webhook): %s - %s", alert.Type, alert.Title)
		return nil
	}

	return s.post(&TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   alert.Title,
		Text:    alert.Message,
	})
}

func (s *Service) post(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   report.Title,
		Text:    fmt.Sprintf("%d tracked members between %s and %s", len(report.Entries), report.Window.Start.Format("Jan 2"), report.Window.End.Format("Jan 2")),
	}

	total := 0
	for _, entry := range report.Entries {
		total += entry.Total
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts: []TeamsFact{
			{Name: "Tracked Members", Value: fmt.Sprintf("%d", len(report.Entries))},
			{Name: "Total Messages", Value: fmt.Sprintf("%d", total)},
			{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
		},
		Markdown: true,
	})

	if len(report.Entries) > 0 {
		limit := 10
		if len(report.Entries) < limit {
			limit = len(report.Entries)
		}

		var top []string
		for i := 0; i < limit; i++ {
			entry := report.Entries[i]
			top = append(top, fmt.Sprintf("**%d. %s** - %d messages (most active in %s)",
				i+1, entry.Member.DisplayName(), entry.Total, entry.MostActiveChannel))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Most Active",
			ActivityText:  strings.Join(top, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("%s (%d members)", report.Title, len(report.Entries))

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #5865f2; color: white; padding: 20px; border-radius: 5px; }
        table { border-collapse: collapse; margin-top: 20px; }
        td, th { border-bottom: 1px solid #ddd; padding: 6px 12px; text-align: left; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <p>{{.Window.Start.Format "Jan 2, 2006"}} - {{.Window.End.Format "Jan 2, 2006"}}</p>
    </div>

    <table>
        <tr><th>#</th><th>Member</th><th>Messages</th><th>Most active in</th></tr>
        {{range $index, $entry := .Entries}}
        <tr>
            <td>{{inc $index}}</td>
            <td>{{$entry.Member.DisplayName}}</td>
            <td>{{$entry.Total}}</td>
            <td>{{$entry.MostActiveChannel}}</td>
        </tr>
        {{end}}
    </table>

    <hr>
    <p><small>This report was generated automatically by the activity bot.</small></p>
</body>
</html>
`

func (s *Service) buildEmailHTML(report *models.Report) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(report.Title + "\n")
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	for i, entry := range report.Entries {
		text.WriteString(fmt.Sprintf("%d. %s - %d messages [Most active in: %s]\n",
			i+1, entry.Member.DisplayName(), entry.Total, entry.MostActiveChannel))
	}

	text.WriteString("\n---\nThis report was generated automatically by the activity bot.\n")

	return text.String()
}
