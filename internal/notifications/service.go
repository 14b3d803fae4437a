package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/arne-braeckman/eventrunner-integrations/internal/config"
	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service sends notifications via the configured channels (Teams webhook
// and/or SMTP email). Channels that are not configured are skipped; a
// failure on one channel does not stop the other.
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ Notifier = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card.
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

// NewService creates a notification service.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendHotLeadAlert notifies the sales team that a contact crossed into the
// hot tier and deserves a same-day follow-up.
func (s *Service) SendHotLeadAlert(contact *models.Contact, previous models.LeadHeat) error {
	title := fmt.Sprintf("Hot lead: %s", displayName(contact))
	text := fmt.Sprintf("%s moved from %s to hot with an engagement score of %d.",
		displayName(contact), previous, contact.LeadHeatScore)

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   title,
		Text:    text,
		Sections: []TeamsSection{{
			ActivityTitle: "Contact",
			Facts:         contactFacts(contact),
			Markdown:      true,
		}},
	}

	return s.dispatch(title, text, message, func() (string, error) {
		return s.buildHotLeadHTML(contact, previous)
	})
}

// SendRunReport sends the summary of one capture or sync run.
func (s *Service) SendRunReport(report *models.RunReport) error {
	title := fmt.Sprintf("Integration %s run", report.Kind)
	var facts []TeamsFact
	var text string

	switch {
	case report.Capture != nil:
		text = fmt.Sprintf("Captured %d leads: %d new contacts, %d updated, %d errors.",
			report.Capture.Leads, report.Capture.Created, report.Capture.Updated, report.Capture.Errors)
		facts = []TeamsFact{
			{Name: "Leads", Value: fmt.Sprintf("%d", report.Capture.Leads)},
			{Name: "Created", Value: fmt.Sprintf("%d", report.Capture.Created)},
			{Name: "Updated", Value: fmt.Sprintf("%d", report.Capture.Updated)},
			{Name: "Errors", Value: fmt.Sprintf("%d", report.Capture.Errors)},
		}
		for _, failure := range report.Capture.Failures {
			facts = append(facts, TeamsFact{Name: string(failure.Platform), Value: failure.Error})
		}
	case report.Sync != nil:
		text = fmt.Sprintf("Synced %d events across %d contacts, %d errors.",
			report.Sync.TotalSynced, report.Sync.TotalContacts, report.Sync.TotalErrors)
		facts = []TeamsFact{
			{Name: "Contacts", Value: fmt.Sprintf("%d", report.Sync.TotalContacts)},
			{Name: "Events", Value: fmt.Sprintf("%d", report.Sync.TotalSynced)},
			{Name: "Errors", Value: fmt.Sprintf("%d", report.Sync.TotalErrors)},
		}
	default:
		return fmt.Errorf("run report carries no result")
	}

	facts = append(facts, TeamsFact{
		Name:  "Duration",
		Value: report.FinishedAt.Sub(report.StartedAt).Round(time.Second).String(),
	})

	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   title,
		Text:    text,
		Sections: []TeamsSection{{
			ActivityTitle: "Summary",
			Facts:         facts,
			Markdown:      true,
		}},
	}

	body := text
	return s.dispatch(title, text, message, func() (string, error) {
		return fmt.Sprintf("<html><body><h2>%s</h2><p>%s</p></body></html>",
			template.HTMLEscapeString(title), template.HTMLEscapeString(body)), nil
	})
}

// dispatch fans the message out to every configured channel.
func (s *Service) dispatch(subject, textBody string, teamsMessage *TeamsMessage, htmlBody func() (string, error)) error {
	var errs []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(teamsMessage); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errs = append(errs, fmt.Sprintf("teams: %v", err))
		}
	}

	if s.config.NotificationEmail != "" {
		html, err := htmlBody()
		if err != nil {
			errs = append(errs, fmt.Sprintf("email template: %v", err))
		} else if err := s.sendEmail(subject, textBody, html); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Sprintf("email: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func (s *Service) sendEmail(subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var hotLeadTemplate = template.Must(template.New("hotlead").Parse(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
    <h2 style="color: #d13438;">Hot lead: {{.Name}}</h2>
    <p>{{.Name}} moved from <strong>{{.Previous}}</strong> to <strong>hot</strong>
       with an engagement score of <strong>{{.Score}}</strong>.</p>
    <table>
        {{if .Email}}<tr><td><strong>Email</strong></td><td>{{.Email}}</td></tr>{{end}}
        {{if .Phone}}<tr><td><strong>Phone</strong></td><td>{{.Phone}}</td></tr>{{end}}
        {{if .Company}}<tr><td><strong>Company</strong></td><td>{{.Company}}</td></tr>{{end}}
        <tr><td><strong>Source</strong></td><td>{{.Source}}</td></tr>
    </table>
    <p><small>Sent automatically by the venue integration service.</small></p>
</body>
</html>
`))

func (s *Service) buildHotLeadHTML(contact *models.Contact, previous models.LeadHeat) (string, error) {
	var buf bytes.Buffer
	err := hotLeadTemplate.Execute(&buf, map[string]interface{}{
		"Name":     displayName(contact),
		"Previous": previous,
		"Score":    contact.LeadHeatScore,
		"Email":    contact.Email,
		"Phone":    contact.Phone,
		"Company":  contact.Company,
		"Source":   contact.LeadSource,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func contactFacts(contact *models.Contact) []TeamsFact {
	facts := []TeamsFact{
		{Name: "Score", Value: fmt.Sprintf("%d", contact.LeadHeatScore)},
		{Name: "Status", Value: string(contact.Status)},
	}
	if contact.Email != "" {
		facts = append(facts, TeamsFact{Name: "Email", Value: contact.Email})
	}
	if contact.Phone != "" {
		facts = append(facts, TeamsFact{Name: "Phone", Value: contact.Phone})
	}
	if contact.LeadSource != "" {
		facts = append(facts, TeamsFact{Name: "Source", Value: contact.LeadSource})
	}
	return facts
}

func displayName(contact *models.Contact) string {
	if contact.Name != "" {
		return contact.Name
	}
	if contact.Email != "" {
		return contact.Email
	}
	return contact.ID
}
