package contact

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"contacts-api/internal/logging"
)

// MaxListResults caps every list response; there is no pagination beyond it.
const MaxListResults = 20

var (
	ErrNameRequired  = errors.New("name is required")
	ErrPhoneRequired = errors.New("phone is required")
)

// Fields carries the caller-editable contact attributes.
type Fields struct {
	Name     string
	Phone    string
	Email    string
	Company  string
	Favorite bool
}

// Store is the slice of contact persistence the service needs. Every method
// takes the owner id; implementations must scope all access to it.
type Store interface {
	List(ctx context.Context, ownerID uuid.UUID, searchTerm string, favoritesOnly bool, limit int) ([]*Contact, error)
	Create(ctx context.Context, ownerID uuid.UUID, fields Fields) (*Contact, error)
	Update(ctx context.Context, ownerID, contactID uuid.UUID, fields Fields) (*Contact, error)
	ToggleFavorite(ctx context.Context, ownerID, contactID uuid.UUID) (*Contact, error)
	Delete(ctx context.Context, ownerID, contactID uuid.UUID) error
}

// Service implements the tenant-scoped contact directory.
type Service struct {
	store  Store
	cache  *ListCache
	logger *logging.Logger
}

// NewService creates the directory service. cache may be nil, which disables
// list caching.
func NewService(store Store, cache *ListCache, logger *logging.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// List returns up to MaxListResults contacts owned by ownerID, filtered by
// the optional search term and favorite flag, sorted by name with
// locale-aware case-insensitive collation, each tagged with its avatar color.
// Cache failures degrade to the database path.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, searchTerm string, favoritesOnly bool) ([]*Contact, error) {
	searchTerm = strings.TrimSpace(searchTerm)

	cached, version, ok, err := s.cache.Get(ctx, ownerID, searchTerm, favoritesOnly)
	if err != nil {
		s.logger.Warn("contact list cache read failed", "error", err.Error())
	} else if ok {
		return cached, nil
	}

	contacts, err := s.store.List(ctx, ownerID, searchTerm, favoritesOnly, MaxListResults)
	if err != nil {
		return nil, err
	}

	sortByName(contacts)
	for _, c := range contacts {
		c.Color = ColorByName(c.Name)
	}

	if err := s.cache.Set(ctx, ownerID, version, searchTerm, favoritesOnly, contacts); err != nil {
		s.logger.Warn("contact list cache write failed", "error", err.Error())
	}

	return contacts, nil
}

// Create validates and persists a new contact for the owner.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, fields Fields) (*Contact, error) {
	if err := validateFields(&fields); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, ownerID, fields)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return created, nil
}

// Update re-validates the fields and applies them to the owned contact.
func (s *Service) Update(ctx context.Context, ownerID, contactID uuid.UUID, fields Fields) (*Contact, error) {
	if err := validateFields(&fields); err != nil {
		return nil, err
	}

	updated, err := s.store.Update(ctx, ownerID, contactID, fields)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return updated, nil
}

// ToggleFavorite flips the favorite flag on the owned contact.
func (s *Service) ToggleFavorite(ctx context.Context, ownerID, contactID uuid.UUID) (*Contact, error) {
	toggled, err := s.store.ToggleFavorite(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return toggled, nil
}

// Delete removes the owned contact.
func (s *Service) Delete(ctx context.Context, ownerID, contactID uuid.UUID) error {
	if err := s.store.Delete(ctx, ownerID, contactID); err != nil {
		return err
	}

	s.invalidate(ctx, ownerID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn("contact list cache invalidation failed", "error", err.Error())
	}
}

func validateFields(fields *Fields) error {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Phone = strings.TrimSpace(fields.Phone)
	fields.Email = strings.TrimSpace(fields.Email)
	fields.Company = strings.TrimSpace(fields.Company)

	if fields.Name == "" {
		return ErrNameRequired
	}
	if fields.Phone == "" {
		return ErrPhoneRequired
	}
	return nil
}

// sortByName orders contacts by name ascending with English collation,
// ignoring case. The collator is per-call because it is not safe for
// concurrent use.
func sortByName(contacts []*Contact) {
	collator := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(contacts, func(i, j int) bool {
		return collator.CompareString(contacts[i].Name, contacts[j].Name) < 0
	})
}
