package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "02/01/2006"}

// Extractor turns OCR text into a validated expense record using the
// extraction model.
type Extractor struct {
	llm      Completer
	maxChars int
	logger   *zap.Logger
}

func NewExtractor(llm Completer, maxChars int, logger *zap.Logger) *Extractor {
	return &Extractor{
		llm:      llm,
		maxChars: maxChars,
		logger:   logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, text string) (*dto.ExtractedDocument, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty document text", ErrExtraction)
	}

	content, err := e.llm.Complete(ctx, extractionInstruction, truncateRunes(text, e.maxChars))
	if err != nil {
		return nil, fmt.Errorf("%w: extraction model call failed: %v", ErrOCRProcessing, err)
	}

	var raw dto.RawExtraction
	if err := decodeJSONObject(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRProcessing, err)
	}

	doc, err := validateExtraction(&raw)
	if err != nil {
		e.logger.Warn("Extraction rejected", zap.Error(err))
		return nil, err
	}

	e.logger.Info("Document extracted",
		zap.String("document_type", string(doc.DocumentType)),
		zap.String("total", doc.TotalAmount.StringFixed(2)),
		zap.Int("items", len(doc.Items)),
	)
	return doc, nil
}

// validateExtraction applies the local rules regardless of what the model
// returned: mandatory total and date, defaulted confidence and quantity,
// dropped items without a price.
func validateExtraction(raw *dto.RawExtraction) (*dto.ExtractedDocument, error) {
	if raw.Error != nil && *raw.Error != "" {
		return nil, fmt.Errorf("%w: document not recognized", ErrOCRProcessing)
	}

	main := raw.MainExpense
	if main == nil || main.TotalAmount == nil || !main.TotalAmount.IsPositive() || main.Date == nil {
		return nil, fmt.Errorf("%w: missing essential fields", ErrOCRProcessing)
	}
	date, err := parseDate(*main.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: missing essential fields: %v", ErrOCRProcessing, err)
	}

	doc := &dto.ExtractedDocument{
		DocumentType:  models.DocumentTypeUnknown,
		TotalAmount:   main.TotalAmount.Round(2),
		Date:          date,
		Establishment: trimmed(main.Establishment),
		Category:      trimmed(main.PrimaryCategory),
		Description:   trimmed(main.Description),
		Confidence:    clampConfidence(main.ConfidenceScore, models.DefaultConfidence),
		Metadata:      models.DocumentMetadata{Currency: "BRL"},
	}

	if raw.DocumentType != nil {
		if t := models.DocumentType(strings.TrimSpace(*raw.DocumentType)); t.Valid() {
			doc.DocumentType = t
		}
	}

	if md := raw.Metadata; md != nil {
		doc.Metadata.PaymentMethod = trimmed(md.PaymentMethod)
		doc.Metadata.DocumentSubtype = trimmed(md.DocumentSubtype)
		doc.Metadata.AdditionalInfo = md.AdditionalInfo
		if c := trimmed(md.Currency); c != "" {
			doc.Metadata.Currency = strings.ToUpper(c)
		}
	}

	for _, item := range raw.Items {
		description := trimmed(item.Description)
		if item.UnitPrice == nil || item.UnitPrice.IsNegative() || description == "" {
			continue
		}

		quantity := decimal.NewFromInt(1)
		if item.Quantity != nil && item.Quantity.IsPositive() {
			quantity = *item.Quantity
		}

		var confidence *float64
		if item.ConfidenceScore != nil {
			c := clampConfidence(item.ConfidenceScore, 0)
			confidence = &c
		}

		doc.Items = append(doc.Items, dto.ExtractedItem{
			Description: description,
			Quantity:    quantity,
			UnitPrice:   item.UnitPrice.Round(2),
			Category:    trimmed(item.Category),
			Confidence:  confidence,
		})
	}

	return doc, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unparseable date " + s)
}

func clampConfidence(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	switch {
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	}
	return *v
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
