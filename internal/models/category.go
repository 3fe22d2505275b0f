package models

import (
	"time"

	"github.com/google/uuid"
)

// ExpenseCategory names are case-sensitive unique keys shared by all users.
type ExpenseCategory struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// DefaultCategories is the vocabulary seeded on a fresh database.
var DefaultCategories = []string{
	"Alimentação",
	"Transporte",
	"Saúde",
	"Lazer",
	"Educação",
	"Casa",
	"Outros",
}
