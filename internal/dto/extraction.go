package dto

import (
	"time"

	"expense-bot/internal/models"

	"github.com/shopspring/decimal"
)

// RawExtraction mirrors the JSON returned by the extraction model. Every
// field is a pointer so absence can be told apart from a zero value.
type RawExtraction struct {
	Error        *string         `json:"error,omitempty"`
	DocumentType *string         `json:"document_type"`
	MainExpense  *RawMainExpense `json:"main_expense"`
	Items        []RawItem       `json:"items"`
	Metadata     *RawMetadata    `json:"metadata"`
}

type RawMainExpense struct {
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Date            *string          `json:"date"`
	Establishment   *string          `json:"establishment"`
	PrimaryCategory *string          `json:"primary_category"`
	Description     *string          `json:"description"`
	ConfidenceScore *float64         `json:"confidence_score"`
}

type RawItem struct {
	Description     *string          `json:"description"`
	Quantity        *decimal.Decimal `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Category        *string          `json:"category"`
	ConfidenceScore *float64         `json:"confidence_score"`
}

type RawMetadata struct {
	PaymentMethod   *string        `json:"payment_method"`
	Currency        *string        `json:"currency"`
	DocumentSubtype *string        `json:"document_subtype"`
	AdditionalInfo  map[string]any `json:"additional_info"`
}

// ExtractedDocument is a validated extraction result. TotalAmount and Date
// are always set.
type ExtractedDocument struct {
	DocumentType models.DocumentType
	TotalAmount  decimal.Decimal
	Date         time.Time
	// Optional fields stay empty when the document did not state them.
	Establishment string
	Category      string
	Description   string
	Confidence    float64
	Items         []ExtractedItem
	Metadata      models.DocumentMetadata
}

type ExtractedItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Category    string
	Confidence  *float64
}
