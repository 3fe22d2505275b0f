package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"expense-bot/internal/models"
	"expense-bot/pkg/metrics"

	"go.uber.org/zap"
)

func newCascade(pdf *fakePDF, ocr *fakeOCR) (*OCRService, *metrics.Metrics) {
	m := metrics.New()
	return NewOCRService(pdf, ocr, 50, m, zap.NewNop()), m
}

func TestCascadeTextPDFSkipsOCR(t *testing.T) {
	pdf := &fakePDF{text: strings.Repeat("Total R$ 28,88 ", 5)}
	ocr := &fakeOCR{text: "should not be used"}
	cascade, _ := newCascade(pdf, ocr)

	got, err := cascade.Extract(context.Background(), []byte("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ocr.calls != 0 {
		t.Errorf("OCR must not run for a text PDF, ran %d times", ocr.calls)
	}
	if got.Kind != models.DocumentKindPDFText || got.UsedOCR {
		t.Errorf("unexpected extraction: %+v", got)
	}
}

func TestCascadeExactThresholdSkipsOCR(t *testing.T) {
	// 50 runes including multi-byte characters
	pdf := &fakePDF{text: strings.Repeat("ç", 50)}
	ocr := &fakeOCR{}
	cascade, _ := newCascade(pdf, ocr)

	if _, err := cascade.Extract(context.Background(), nil, "application/pdf"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if ocr.calls != 0 {
		t.Errorf("50 characters should be enough, OCR ran %d times", ocr.calls)
	}
}

func TestCascadeFallsBackToOCR(t *testing.T) {
	tests := []struct {
		name   string
		pdf    *fakePDF
		reason string
	}{
		{"short text layer", &fakePDF{text: "  Página 1  "}, "short_text"},
		{"text layer error", &fakePDF{err: errors.New("corrupt xref")}, "text_layer_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ocr := &fakeOCR{text: receiptText}
			cascade, m := newCascade(tt.pdf, ocr)

			got, err := cascade.Extract(context.Background(), []byte("%PDF"), "application/pdf")
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if ocr.calls != 1 || ocr.contentTypes[0] != "application/pdf" {
				t.Errorf("expected one OCR call on the PDF, got %d %v", ocr.calls, ocr.contentTypes)
			}
			if got.Kind != models.DocumentKindPDFScanned || got.Text != receiptText {
				t.Errorf("unexpected extraction: %+v", got)
			}
			assertMetric(t, m, `expense_bot_ocr_fallbacks_total{reason="`+tt.reason+`"} 1`)
		})
	}
}

func TestCascadeEscalatedOCREmptyIsUnreadable(t *testing.T) {
	cascade, _ := newCascade(&fakePDF{text: ""}, &fakeOCR{text: "   "})

	_, err := cascade.Extract(context.Background(), []byte("%PDF"), "application/pdf")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestCascadeImageAlwaysUsesOCR(t *testing.T) {
	pdf := &fakePDF{}
	ocr := &fakeOCR{text: ""}
	cascade, _ := newCascade(pdf, ocr)

	got, err := cascade.Extract(context.Background(), []byte{0xff, 0xd8}, "image/jpg")
	if err != nil {
		t.Fatalf("empty OCR on an image is a valid result, got %v", err)
	}
	if pdf.calls != 0 || ocr.calls != 1 {
		t.Errorf("expected only OCR, got pdf=%d ocr=%d", pdf.calls, ocr.calls)
	}
	if ocr.contentTypes[0] != "image/jpeg" {
		t.Errorf("content type not normalized: %s", ocr.contentTypes[0])
	}
	if got.Kind != models.DocumentKindImage || got.Text != "" {
		t.Errorf("unexpected extraction: %+v", got)
	}
}

func TestCascadeErrors(t *testing.T) {
	t.Run("unsupported type", func(t *testing.T) {
		cascade, _ := newCascade(&fakePDF{}, &fakeOCR{})
		_, err := cascade.Extract(context.Background(), []byte("x"), "audio/ogg")
		if !errors.Is(err, ErrExtraction) {
			t.Errorf("expected ErrExtraction, got %v", err)
		}
	})

	t.Run("ocr failure", func(t *testing.T) {
		cascade, _ := newCascade(&fakePDF{}, &fakeOCR{err: errors.New("engine down")})
		_, err := cascade.Extract(context.Background(), []byte("x"), "image/png; name=a.png")
		if !errors.Is(err, ErrExtraction) {
			t.Errorf("expected ErrExtraction, got %v", err)
		}
	})
}
