package notifications

import "github.com/arne-braeckman/eventrunner-integrations/internal/models"

// Notifier is the contract for the sales-team notification channels.
type Notifier interface {
	SendHotLeadAlert(contact *models.Contact, previous models.LeadHeat) error
	SendRunReport(report *models.RunReport) error
}
