package contact

import (
	"time"

	"github.com/google/uuid"
)

// Contact is an address-book entry. Color is only populated on list
// responses; it is derived, never stored.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Company   string    `json:"company,omitempty"`
	Favorite  bool      `json:"favorite"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// avatarPalette is a fixed ordered palette; the index derived from a name
// must stay stable, so entries are never reordered or removed.
var avatarPalette = [...]string{
	"avatar-blue",
	"avatar-violet",
	"avatar-red",
	"avatar-teal",
	"avatar-cyan",
	"avatar-green",
	"avatar-orange",
	"avatar-grape",
	"avatar-indigo",
	"avatar-pink",
}

// ColorByName derives a display color from a contact name: the sum of the
// name's character codes modulo the palette size. The same name always maps
// to the same color; distribution is not guaranteed uniform.
func ColorByName(name string) string {
	sum := 0
	for _, r := range name {
		sum += int(r)
	}
	return avatarPalette[sum%len(avatarPalette)]
}
