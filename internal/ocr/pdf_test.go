package ocr

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestPDFTextRejectsGarbage(t *testing.T) {
	p := NewPDFText(zap.NewNop())
	if _, err := p.ExtractText(context.Background(), []byte("definitely not a pdf")); err == nil {
		t.Error("expected an error for a non-PDF buffer")
	}
}

func TestRasterizePDFRejectsGarbage(t *testing.T) {
	if _, err := RasterizePDF(nil, 150); err == nil {
		t.Error("expected an error for an empty buffer")
	}
}
