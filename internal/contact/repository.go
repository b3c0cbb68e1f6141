package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"contacts-api/internal/database"
)

// ErrNotFound covers both a missing contact and one owned by someone else,
// so callers cannot learn whether a foreign id exists.
var ErrNotFound = errors.New("contact not found")

// Repository handles contact persistence. Every query runs through one of
// the whereOwner helpers below; no method composes its own owner filter.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

func whereOwnerSelect(q *bun.SelectQuery, ownerID uuid.UUID) *bun.SelectQuery {
	return q.Where("c.user_id = ?", ownerID)
}

func whereOwnerUpdate(q *bun.UpdateQuery, ownerID uuid.UUID) *bun.UpdateQuery {
	return q.Where("c.user_id = ?", ownerID)
}

func whereOwnerDelete(q *bun.DeleteQuery, ownerID uuid.UUID) *bun.DeleteQuery {
	return q.Where("c.user_id = ?", ownerID)
}

// List returns up to limit contacts owned by ownerID, optionally filtered by
// a case-insensitive substring match on name, email, phone or company and by
// favorite status, pre-ordered case-insensitively by name.
func (r *Repository) List(ctx context.Context, ownerID uuid.UUID, searchTerm string, favoritesOnly bool, limit int) ([]*Contact, error) {
	var dbContacts []*database.Contact

	q := r.db.NewSelect().Model(&dbContacts)
	q = whereOwnerSelect(q, ownerID)

	if searchTerm != "" {
		pattern := "%" + searchTerm + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("c.name ILIKE ?", pattern).
				WhereOr("c.email ILIKE ?", pattern).
				WhereOr("c.phone ILIKE ?", pattern).
				WhereOr("c.company ILIKE ?", pattern)
		})
	}
	if favoritesOnly {
		q = q.Where("c.favorite = TRUE")
	}

	err := q.OrderExpr("lower(c.name) ASC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	contacts := make([]*Contact, 0, len(dbContacts))
	for _, dbc := range dbContacts {
		contacts = append(contacts, mapDBContactToModel(dbc))
	}
	return contacts, nil
}

// Create inserts a contact stamped with its owner.
func (r *Repository) Create(ctx context.Context, ownerID uuid.UUID, fields Fields) (*Contact, error) {
	dbc := &database.Contact{
		UserID:   ownerID,
		Name:     fields.Name,
		Phone:    fields.Phone,
		Email:    fields.Email,
		Company:  fields.Company,
		Favorite: fields.Favorite,
	}

	_, err := r.db.NewInsert().
		Model(dbc).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return mapDBContactToModel(dbc), nil
}

// Update applies the fields to the owned contact in a single conditional
// UPDATE and returns the updated row. Zero affected rows means the contact
// does not exist or belongs to someone else.
func (r *Repository) Update(ctx context.Context, ownerID, contactID uuid.UUID, fields Fields) (*Contact, error) {
	dbc := new(database.Contact)

	q := r.db.NewUpdate().
		Model((*database.Contact)(nil)).
		Set("name = ?", fields.Name).
		Set("phone = ?", fields.Phone).
		Set("email = ?", fields.Email).
		Set("company = ?", fields.Company).
		Set("favorite = ?", fields.Favorite).
		Set("updated_at = now()").
		Where("c.id = ?", contactID)
	q = whereOwnerUpdate(q, ownerID)

	result, err := q.Returning("*").Exec(ctx, dbc)
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBContactToModel(dbc), nil
}

// ToggleFavorite flips the favorite flag atomically in the database, so two
// concurrent toggles serialize at the storage layer instead of racing through
// a read-then-write window.
func (r *Repository) ToggleFavorite(ctx context.Context, ownerID, contactID uuid.UUID) (*Contact, error) {
	dbc := new(database.Contact)

	q := r.db.NewUpdate().
		Model((*database.Contact)(nil)).
		Set("favorite = NOT favorite").
		Set("updated_at = now()").
		Where("c.id = ?", contactID)
	q = whereOwnerUpdate(q, ownerID)

	result, err := q.Returning("*").Exec(ctx, dbc)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle favorite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return mapDBContactToModel(dbc), nil
}

// Delete removes the owned contact by id.
func (r *Repository) Delete(ctx context.Context, ownerID, contactID uuid.UUID) error {
	q := r.db.NewDelete().
		Model((*database.Contact)(nil)).
		Where("c.id = ?", contactID)
	q = whereOwnerDelete(q, ownerID)

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBContactToModel converts database model to domain model
func mapDBContactToModel(dbc *database.Contact) *Contact {
	return &Contact{
		ID:        dbc.ID,
		OwnerID:   dbc.UserID,
		Name:      dbc.Name,
		Phone:     dbc.Phone,
		Email:     dbc.Email,
		Company:   dbc.Company,
		Favorite:  dbc.Favorite,
		CreatedAt: dbc.CreatedAt,
		UpdatedAt: dbc.UpdatedAt,
	}
}
