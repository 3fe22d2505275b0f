package models

import (
	"time"

	"github.com/google/uuid"
)

// User is identified by a normalized phone number; see NormalizePhone.
type User struct {
	ID        uuid.UUID `db:"id"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
}
