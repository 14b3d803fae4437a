package store

import (
	"context"
	"errors"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ContactStore is the persistence collaborator for contacts and their
// interactions. The production store lives outside this service; the
// integration core only depends on this contract. Interactions are
// append-only.
type ContactStore interface {
	GetContact(ctx context.Context, id string) (*models.Contact, error)
	GetContactByEmail(ctx context.Context, email string) (*models.Contact, error)
	CreateContact(ctx context.Context, contact *models.Contact) error
	UpdateContact(ctx context.Context, contact *models.Contact) error
	ListContacts(ctx context.Context) ([]models.Contact, error)

	CreateInteraction(ctx context.Context, interaction *models.Interaction) error
	ListInteractions(ctx context.Context, contactID string) ([]models.Interaction, error)
}
