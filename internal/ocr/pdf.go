// Package ocr wraps the native document libraries: MuPDF (go-fitz) for PDF
// text layers and page rasterization, Tesseract (gosseract) for recognition.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFText reads the embedded text layer of a PDF.
type PDFText struct {
	logger *zap.Logger
}

func NewPDFText(logger *zap.Logger) *PDFText {
	return &PDFText{logger: logger}
}

// ExtractText concatenates the text of every page. Pages that fail to
// decode are skipped; a document that cannot be opened is an error.
func (p *PDFText) ExtractText(_ context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			p.logger.Warn("Failed to extract text from page", zap.Int("page", i+1), zap.Error(err))
			continue
		}
		if pageText != "" {
			b.WriteString(pageText)
			b.WriteString("\n")
		}
	}

	text := strings.TrimSpace(b.String())
	p.logger.Debug("PDF text layer read",
		zap.Int("pages", doc.NumPage()),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

// RasterizePDF renders every page to PNG at dpi.
func RasterizePDF(data []byte, dpi float64) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		png, err := doc.ImagePNG(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
		pages = append(pages, png)
	}
	return pages, nil
}
