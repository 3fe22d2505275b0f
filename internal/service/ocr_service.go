package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"expense-bot/internal/models"
	"expense-bot/pkg/metrics"

	"go.uber.org/zap"
)

// PDFTextExtractor reads the embedded text layer of a PDF.
type PDFTextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}

// OCREngine recognizes text in a document buffer. An empty result is valid.
type OCREngine interface {
	Recognize(ctx context.Context, data []byte, contentType string) (string, error)
}

type Extraction struct {
	Text    string
	Kind    models.DocumentKind
	UsedOCR bool
}

// OCRService is the text extraction cascade: the PDF text layer first, OCR
// only when that is missing or too short.
type OCRService struct {
	pdf          PDFTextExtractor
	ocr          OCREngine
	minTextChars int
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewOCRService(pdf PDFTextExtractor, ocr OCREngine, minTextChars int, m *metrics.Metrics, logger *zap.Logger) *OCRService {
	return &OCRService{
		pdf:          pdf,
		ocr:          ocr,
		minTextChars: minTextChars,
		metrics:      m,
		logger:       logger,
	}
}

func (s *OCRService) Extract(ctx context.Context, data []byte, contentType string) (*Extraction, error) {
	contentType = normalizeContentType(contentType)

	switch {
	case contentType == "application/pdf":
		return s.extractPDF(ctx, data)
	case strings.HasPrefix(contentType, "image/"):
		text, err := s.ocr.Recognize(ctx, data, contentType)
		if err != nil {
			return nil, fmt.Errorf("%w: OCR failed: %v", ErrExtraction, err)
		}
		text = sanitizeUTF8(strings.TrimSpace(text))
		s.logger.Info("Image text extracted", zap.Int("text_length", len(text)))
		return &Extraction{Text: text, Kind: models.DocumentKindImage, UsedOCR: true}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrExtraction, contentType)
	}
}

func (s *OCRService) extractPDF(ctx context.Context, data []byte) (*Extraction, error) {
	text, err := s.pdf.ExtractText(ctx, data)
	text = sanitizeUTF8(strings.TrimSpace(text))

	reason := ""
	switch {
	case err != nil:
		reason = "text_layer_error"
		s.logger.Warn("PDF text layer unreadable, falling back to OCR", zap.Error(err))
	case utf8.RuneCountInString(text) < s.minTextChars:
		reason = "short_text"
		s.logger.Info("PDF text layer too short, falling back to OCR",
			zap.Int("text_length", utf8.RuneCountInString(text)),
			zap.Int("min_chars", s.minTextChars),
		)
	default:
		return &Extraction{Text: text, Kind: models.DocumentKindPDFText}, nil
	}

	if s.metrics != nil {
		s.metrics.OCRFallbacks.WithLabelValues(reason).Inc()
	}

	ocrText, err := s.ocr.Recognize(ctx, data, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: OCR failed: %v", ErrExtraction, err)
	}
	ocrText = sanitizeUTF8(strings.TrimSpace(ocrText))
	if ocrText == "" {
		return nil, fmt.Errorf("%w: unreadable document", ErrExtraction)
	}

	return &Extraction{Text: ocrText, Kind: models.DocumentKindPDFScanned, UsedOCR: true}, nil
}

// normalizeContentType drops parameters and lower-cases the media type.
func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "image/jpg" {
		return "image/jpeg"
	}
	return contentType
}
