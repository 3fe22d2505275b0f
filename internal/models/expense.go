package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultConfidence is assumed when extraction reports no confidence score.
const DefaultConfidence = 0.8

type Expense struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	DocumentID    uuid.UUID       `db:"document_id"`
	CategoryID    *uuid.UUID      `db:"category_id"`
	Amount        decimal.Decimal `db:"total_amount"`
	Date          time.Time       `db:"expense_date"`
	Establishment string          `db:"establishment"`
	Description   string          `db:"description"`
	Confidence    float64         `db:"confidence"`
	Itemized      bool            `db:"itemized"`
	CreatedAt     time.Time       `db:"created_at"`

	// CategoryName is filled on reads that join expense_categories.
	CategoryName string `db:"-"`
}

type ExpenseItem struct {
	ID          uuid.UUID       `db:"id"`
	ExpenseID   uuid.UUID       `db:"expense_id"`
	CategoryID  *uuid.UUID      `db:"category_id"`
	Description string          `db:"description"`
	Quantity    decimal.Decimal `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	TotalAmount decimal.Decimal `db:"total_amount"`
	Confidence  *float64        `db:"confidence"`
	CreatedAt   time.Time       `db:"created_at"`
}

// ItemTotal is quantity × unit price rounded to cents. Item totals are always
// derived with it, never copied from extraction output.
func ItemTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}
