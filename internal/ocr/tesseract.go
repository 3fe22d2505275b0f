package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// Tesseract recognizes text in images, and in PDFs by rasterizing each page
// first. A gosseract client is not safe for concurrent use, so one is
// created per call.
type Tesseract struct {
	languages []string
	dpi       float64
	logger    *zap.Logger
}

func NewTesseract(languages []string, dpi float64, logger *zap.Logger) *Tesseract {
	if dpi <= 0 {
		dpi = 200
	}
	return &Tesseract{
		languages: languages,
		dpi:       dpi,
		logger:    logger,
	}
}

func (t *Tesseract) Recognize(ctx context.Context, data []byte, contentType string) (string, error) {
	images := [][]byte{data}
	if contentType == "application/pdf" {
		pages, err := RasterizePDF(data, t.dpi)
		if err != nil {
			return "", err
		}
		images = pages
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}

	var b strings.Builder
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := client.SetImageFromBytes(img); err != nil {
			return "", fmt.Errorf("failed to load image %d: %w", i+1, err)
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("failed to recognize image %d: %w", i+1, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	text := strings.TrimSpace(b.String())
	t.logger.Info("Tesseract OCR completed",
		zap.Int("images", len(images)),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}
