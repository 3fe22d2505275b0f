package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// Archiver keeps a copy of every downloaded attachment and returns where it
// was stored.
type Archiver interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

func archiveKey(contentType string) string {
	ext := ".bin"
	switch normalizeContentType(contentType) {
	case "application/pdf":
		ext = ".pdf"
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	}
	return time.Now().UTC().Format("2006/01/02") + "/" + uuid.New().String() + ext
}

// LocalArchiver writes attachments under a directory on disk.
type LocalArchiver struct {
	dir    string
	logger *zap.Logger
}

func NewLocalArchiver(dir string, logger *zap.Logger) *LocalArchiver {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warn("Failed to create archive directory", zap.String("dir", dir), zap.Error(err))
	}
	return &LocalArchiver{dir: dir, logger: logger}
}

func (a *LocalArchiver) Store(_ context.Context, data []byte, contentType string) (string, error) {
	path := filepath.Join(a.dir, filepath.FromSlash(archiveKey(contentType)))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}
	return "file://" + filepath.ToSlash(path), nil
}

// GCSArchiver writes attachments to a Cloud Storage bucket. Objects are
// created only if absent, so a replayed write is not an error.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

func NewGCSArchiver(ctx context.Context, bucket string, logger *zap.Logger) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket, logger: logger}, nil
}

func (a *GCSArchiver) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	name := archiveKey(contentType)
	writer := a.client.Bucket(a.bucket).Object(name).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = normalizeContentType(contentType)

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			a.logger.Info("Archive object already exists", zap.String("object", name))
		} else {
			return "", fmt.Errorf("failed to finalize GCS write: %w", err)
		}
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, name), nil
}

func (a *GCSArchiver) Close() error {
	return a.client.Close()
}
