package service

import (
	"context"
	"os"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestArchiveKey(t *testing.T) {
	pattern := regexp.MustCompile(`^\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.(pdf|jpg|png|bin)$`)
	for contentType, ext := range map[string]string{
		"application/pdf": ".pdf",
		"image/jpg":       ".jpg",
		"image/png":       ".png",
		"text/plain":      ".bin",
	} {
		key := archiveKey(contentType)
		if !pattern.MatchString(key) || !strings.HasSuffix(key, ext) {
			t.Errorf("archiveKey(%s) = %s", contentType, key)
		}
	}
	if archiveKey("image/png") == archiveKey("image/png") {
		t.Error("keys must be unique")
	}
}

func TestLocalArchiverStore(t *testing.T) {
	a := NewLocalArchiver(t.TempDir(), zap.NewNop())

	uri, err := a.Store(context.Background(), []byte("%PDF-1.4"), "application/pdf")
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if !strings.HasPrefix(uri, "file://") || !strings.HasSuffix(uri, ".pdf") {
		t.Fatalf("unexpected uri: %s", uri)
	}

	data, err := os.ReadFile(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("unexpected content: %q", data)
	}
}
