package store

import (
	"context"
	"strings"
	"sync"

	"github.com/arne-braeckman/eventrunner-integrations/internal/models"
)

// MemoryStore is an in-process ContactStore used for tests and local runs
// without the hosted store. Email lookups are case-insensitive, matching
// the dedup contract.
type MemoryStore struct {
	mu           sync.RWMutex
	contacts     map[string]models.Contact
	interactions map[string][]models.Interaction // keyed by contact id
}

var _ ContactStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts:     make(map[string]models.Contact),
		interactions: make(map[string][]models.Interaction),
	}
}

func (s *MemoryStore) GetContact(_ context.Context, id string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &contact, nil
}

func (s *MemoryStore) GetContactByEmail(_ context.Context, email string) (*models.Contact, error) {
	if email == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, contact := range s.contacts {
		if strings.EqualFold(contact.Email, email) {
			c := contact
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateContact(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts[contact.ID] = *contact
	return nil
}

func (s *MemoryStore) UpdateContact(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[contact.ID]; !ok {
		return ErrNotFound
	}
	s.contacts[contact.ID] = *contact
	return nil
}

func (s *MemoryStore) ListContacts(_ context.Context) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]models.Contact, 0, len(s.contacts))
	for _, contact := range s.contacts {
		contacts = append(contacts, contact)
	}
	return contacts, nil
}

func (s *MemoryStore) CreateInteraction(_ context.Context, interaction *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interactions[interaction.ContactID] = append(s.interactions[interaction.ContactID], *interaction)
	return nil
}

func (s *MemoryStore) ListInteractions(_ context.Context, contactID string) ([]models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	interactions := s.interactions[contactID]
	out := make([]models.Interaction, len(interactions))
	copy(out, interactions)
	return out, nil
}
