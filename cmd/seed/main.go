package main

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"expense-bot/internal/app"
	"expense-bot/internal/models"
	"expense-bot/internal/repository"
	"expense-bot/internal/service"
	"expense-bot/pkg/config"
	"expense-bot/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	importDir := flag.String("import", "", "directory of receipts (PDF or images) to import")
	phone := flag.String("phone", "", "owner phone for imported receipts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()
	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	appLogger.Info("Starting database seeding...")

	if err := seedCategories(ctx, application.Categories, appLogger); err != nil {
		appLogger.Fatal("Failed to seed categories", zap.Error(err))
	}

	if *importDir != "" {
		if *phone == "" {
			appLogger.Fatal("-phone is required with -import")
		}
		cacheFile := filepath.Join(*importDir, ".seed_cache.json")
		if err := importReceipts(ctx, *importDir, cacheFile, *phone, application, appLogger); err != nil {
			appLogger.Fatal("Failed to import receipts", zap.Error(err))
		}
	}

	appLogger.Info("Database seeding completed successfully!")
}

func seedCategories(ctx context.Context, categories *repository.CategoryRepository, logger *zap.Logger) error {
	for _, name := range models.DefaultCategories {
		if _, err := categories.ConnectOrCreate(ctx, name); err != nil {
			return fmt.Errorf("failed to seed category %q: %w", name, err)
		}
	}
	count, err := categories.Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("Categories seeded", zap.Int("total", count))
	return nil
}

// ProcessedFile is one imported receipt in the cache.
type ProcessedFile struct {
	FilePath    string    `json:"file_path"`
	FileHash    string    `json:"file_hash"`
	DocumentID  string    `json:"document_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

// CacheData remembers imported files so a rerun skips them.
type CacheData struct {
	ProcessedFiles map[string]ProcessedFile `json:"processed_files"` // key: file path
}

func loadCache(cacheFile string) (*CacheData, error) {
	cache := &CacheData{
		ProcessedFiles: make(map[string]ProcessedFile),
	}

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return cache, nil
}

func saveCache(cacheFile string, cache *CacheData) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

func fileHash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

var receiptTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// importReceipts runs every receipt in dir through the document pipeline as
// if phone had sent it. Failures are logged and the file is retried on the
// next run.
func importReceipts(ctx context.Context, dir, cacheFile, phone string, a *app.App, logger *zap.Logger) error {
	cache, err := loadCache(cacheFile)
	if err != nil {
		logger.Warn("Failed to load cache, will import all files", zap.Error(err))
		cache = &CacheData{ProcessedFiles: make(map[string]ProcessedFile)}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read import directory: %w", err)
	}

	imported := 0
	for _, entry := range entries {
		contentType, ok := receiptTypes[strings.ToLower(filepath.Ext(entry.Name()))]
		if entry.IsDir() || !ok {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read receipt", zap.String("path", path), zap.Error(err))
			continue
		}
		hash := fileHash(data)
		if cached, exists := cache.ProcessedFiles[path]; exists && cached.FileHash == hash {
			logger.Info("Receipt already imported, skipping", zap.String("path", path))
			continue
		}

		saved, err := importReceipt(ctx, a, phone, path, data, contentType)
		if err != nil {
			logger.Error("Failed to import receipt", zap.String("path", path), zap.Error(err))
			continue
		}

		cache.ProcessedFiles[path] = ProcessedFile{
			FilePath:    path,
			FileHash:    hash,
			DocumentID:  saved.Document.ID.String(),
			ProcessedAt: time.Now(),
		}
		imported++
		logger.Info("Receipt imported",
			zap.String("path", path),
			zap.String("total", saved.Expense.Amount.StringFixed(2)),
			zap.Int("items", len(saved.Items)),
		)
	}

	if err := saveCache(cacheFile, cache); err != nil {
		logger.Warn("Failed to save cache", zap.Error(err))
	}
	logger.Info("Import finished", zap.Int("imported", imported))
	return nil
}

func importReceipt(ctx context.Context, a *app.App, phone, path string, data []byte, contentType string) (*service.SavedExpense, error) {
	extraction, err := a.Cascade.Extract(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	extracted, err := a.Extractor.Extract(ctx, extraction.Text)
	if err != nil {
		return nil, err
	}
	return a.Persistence.Persist(ctx, service.PersistRequest{
		Phone:     phone,
		SourceURL: "file://" + filepath.ToSlash(path),
		Kind:      extraction.Kind,
		RawText:   extraction.Text,
		Document:  extracted,
	})
}
