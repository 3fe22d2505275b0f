package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIPELINE_MIN_PDF_TEXT_CHARS", "")
	t.Setenv("INTENT_CONFIDENCE_THRESHOLD", "")
	t.Setenv("OCR_LANGUAGES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pipeline.MinPDFTextChars != 50 {
		t.Errorf("MinPDFTextChars: got %d, want 50", cfg.Pipeline.MinPDFTextChars)
	}
	if cfg.Pipeline.IntentConfidenceThreshold != 0.7 {
		t.Errorf("IntentConfidenceThreshold: got %v, want 0.7", cfg.Pipeline.IntentConfidenceThreshold)
	}
	if len(cfg.OCR.Languages) != 2 || cfg.OCR.Languages[0] != "por" {
		t.Errorf("OCR languages: got %v", cfg.OCR.Languages)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SERVER_MAX_CONCURRENT_MESSAGES", "0")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("OCR_LANGUAGES", " por , , spa ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver: got %q", cfg.Database.Driver)
	}
	if cfg.Server.MaxConcurrentMessages != 1 {
		t.Errorf("max concurrent messages should be clamped to 1, got %d", cfg.Server.MaxConcurrentMessages)
	}
	if cfg.JWT.Expiration != 2*time.Hour {
		t.Errorf("jwt expiration: got %v", cfg.JWT.Expiration)
	}
	if got := cfg.OCR.Languages; len(got) != 2 || got[1] != "spa" {
		t.Errorf("OCR languages: got %v", got)
	}
}
