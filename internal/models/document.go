package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind records how the text of a document was obtained.
type DocumentKind string

const (
	DocumentKindImage      DocumentKind = "image"
	DocumentKindPDFText    DocumentKind = "pdf_text"
	DocumentKindPDFScanned DocumentKind = "pdf_scanned"
)

// DocumentType is the financial document class reported by extraction.
type DocumentType string

const (
	DocumentTypeMarketReceipt       DocumentType = "market_receipt"
	DocumentTypeCreditCardStatement DocumentType = "credit_card_statement"
	DocumentTypeBankStatement       DocumentType = "bank_statement"
	DocumentTypeServiceInvoice      DocumentType = "service_invoice"

	// DocumentTypeUnknown is stored when extraction did not report a known class.
	DocumentTypeUnknown DocumentType = "unknown"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeMarketReceipt, DocumentTypeCreditCardStatement,
		DocumentTypeBankStatement, DocumentTypeServiceInvoice:
		return true
	}
	return false
}

type DocumentMetadata struct {
	PaymentMethod   string         `json:"payment_method,omitempty"`
	Currency        string         `json:"currency"`
	DocumentSubtype string         `json:"document_subtype,omitempty"`
	AdditionalInfo  map[string]any `json:"additional_info,omitempty"`
}

type Document struct {
	ID           uuid.UUID        `db:"id"`
	UserID       uuid.UUID        `db:"user_id"`
	SourceURL    string           `db:"source_url"`
	ArchiveURI   string           `db:"archive_uri"`
	Kind         DocumentKind     `db:"kind"`
	DocumentType DocumentType     `db:"document_type"`
	RawText      string           `db:"raw_text"`
	Metadata     DocumentMetadata `db:"metadata"`
	CreatedAt    time.Time        `db:"created_at"`
}
