// Package app wires configuration into the running services.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expense-bot/internal/ocr"
	"expense-bot/internal/repository"
	"expense-bot/internal/service"
	"expense-bot/pkg/config"
	"expense-bot/pkg/database"
	"expense-bot/pkg/metrics"

	"go.uber.org/zap"
)

const userTimezone = "America/Sao_Paulo"

type App struct {
	DB          *sql.DB
	Dialect     database.Dialect
	Metrics     *metrics.Metrics
	Users       *repository.UserRepository
	Documents   *repository.DocumentRepository
	Expenses    *repository.ExpenseRepository
	Categories  *repository.CategoryRepository
	Cascade     *service.OCRService
	Extractor   *service.Extractor
	Persistence *service.PersistenceService
	Messages    *service.MessageService

	closers []func() error
}

// New connects to the store and the model provider and builds the message
// pipeline. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Metrics: metrics.New()}

	db, dialect, err := database.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a.DB, a.Dialect = db, dialect
	a.closers = append(a.closers, db.Close)

	a.Users = repository.NewUserRepository(db, dialect, logger)
	a.Documents = repository.NewDocumentRepository(db, dialect, logger)
	a.Expenses = repository.NewExpenseRepository(db, dialect, logger)
	a.Categories = repository.NewCategoryRepository(db, dialect, logger)

	llm, err := service.NewLLMService(ctx, &cfg.GigaChat, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, llm.Close)

	var engine service.OCREngine
	switch cfg.OCR.Provider {
	case "gigachat":
		engine = llm
	case "tesseract", "":
		engine = ocr.NewTesseract(cfg.OCR.Languages, cfg.OCR.PDFDPI, logger)
	default:
		a.Close()
		return nil, fmt.Errorf("unsupported OCR provider: %s", cfg.OCR.Provider)
	}

	archiver, err := a.newArchiver(ctx, &cfg.Archive, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	location, err := time.LoadLocation(userTimezone)
	if err != nil {
		logger.Warn("Failed to load user timezone, using UTC", zap.Error(err))
		location = time.UTC
	}

	a.Cascade = service.NewOCRService(ocr.NewPDFText(logger), engine, cfg.Pipeline.MinPDFTextChars, a.Metrics, logger)
	a.Extractor = service.NewExtractor(llm, cfg.Pipeline.MaxExtractionChars, logger)
	a.Persistence = service.NewPersistenceService(db, a.Users, a.Documents, a.Expenses, a.Categories, cfg.Pipeline.MaxRawTextChars, logger)

	a.Messages = service.NewMessageService(service.MessageServiceDeps{
		Classifier:  service.NewIntentClassifier(llm, cfg.Pipeline.IntentConfidenceThreshold, logger),
		Fetcher:     service.NewRetriever(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Pipeline.MaxAttachmentBytes, logger),
		Archiver:    archiver,
		Cascade:     a.Cascade,
		Extractor:   a.Extractor,
		Persistence: a.Persistence,
		Categories:  a.Categories,
		Translator:  service.NewTranslator(llm, location, logger),
		Executor:    service.NewExecutor(db, dialect, logger),
		Synthesizer: service.NewSynthesizer(),
		Metrics:     a.Metrics,
	}, logger)

	logger.Info("Pipeline ready",
		zap.String("db_driver", dialect.Name),
		zap.String("ocr_provider", cfg.OCR.Provider),
		zap.String("archive_provider", cfg.Archive.Provider),
	)
	return a, nil
}

func (a *App) newArchiver(ctx context.Context, cfg *config.ArchiveConfig, logger *zap.Logger) (service.Archiver, error) {
	switch cfg.Provider {
	case "none", "":
		return nil, nil
	case "local":
		return service.NewLocalArchiver(cfg.Dir, logger), nil
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("ARCHIVE_BUCKET is required for the gcs archive")
		}
		gcs, err := service.NewGCSArchiver(ctx, cfg.Bucket, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		return gcs, nil
	default:
		return nil, fmt.Errorf("unsupported archive provider: %s", cfg.Provider)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
