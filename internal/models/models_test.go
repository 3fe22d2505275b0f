package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"whatsapp:+5511987654321", "+5511987654321"},
		{" +55 (11) 98765-4321 ", "+5511987654321"},
		{"5511987654321", "5511987654321"},
		{"whatsapp:", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestItemTotal(t *testing.T) {
	got := ItemTotal(decimal.NewFromInt(2), decimal.RequireFromString("4.99"))
	if !got.Equal(decimal.RequireFromString("9.98")) {
		t.Errorf("ItemTotal = %s, want 9.98", got)
	}

	got = ItemTotal(decimal.RequireFromString("0.355"), decimal.RequireFromString("39.90"))
	if got.String() != "14.16" {
		t.Errorf("ItemTotal should round to cents, got %s", got)
	}
}

func TestDocumentTypeValid(t *testing.T) {
	if !DocumentTypeServiceInvoice.Valid() {
		t.Error("service_invoice should be valid")
	}
	if DocumentType("selfie").Valid() {
		t.Error("unknown type should be invalid")
	}
	if DocumentTypeUnknown.Valid() {
		t.Error("the unknown placeholder is not a reported class")
	}
}
