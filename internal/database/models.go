package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the bun table model for identity records. PasswordHash is nil for
// accounts created through Google sign-in.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull,unique"`
	PasswordHash *string   `bun:"password_hash"`
	Picture      *string   `bun:"picture"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Contact is the bun table model for address-book entries. Every row belongs
// to exactly one user; queries must always filter on user_id.
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID    uuid.UUID `bun:"user_id,notnull,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Phone     string    `bun:"phone,notnull"`
	Email     string    `bun:"email"`
	Company   string    `bun:"company"`
	Favorite  bool      `bun:"favorite,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
