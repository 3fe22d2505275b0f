package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"expense-bot/internal/models"
	"expense-bot/pkg/database"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentRepository struct {
	base
	logger *zap.Logger
}

func NewDocumentRepository(db database.Querier, dialect database.Dialect, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{
		base:   newBase(db, dialect),
		logger: logger,
	}
}

func (r *DocumentRepository) WithTx(tx *sql.Tx) *DocumentRepository {
	return &DocumentRepository{base: r.withTx(tx), logger: r.logger}
}

var documentColumns = []string{
	"id", "user_id", "source_url", "archive_uri", "kind", "document_type", "raw_text", "metadata", "created_at",
}

func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}

	query := r.sb.Insert("documents").
		Columns(documentColumns...).
		Values(doc.ID, doc.UserID, doc.SourceURL, nullString(doc.ArchiveURI), string(doc.Kind),
			string(doc.DocumentType), doc.RawText, string(metadata), doc.CreatedAt)

	stmt, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := r.sb.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id})

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		doc        models.Document
		archiveURI sql.NullString
		kind       string
		docType    string
		metadata   []byte
	)
	err = r.db.QueryRowContext(ctx, stmt, args...).Scan(
		&doc.ID, &doc.UserID, &doc.SourceURL, &archiveURI, &kind, &docType, &doc.RawText, &metadata, &doc.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}

	doc.ArchiveURI = archiveURI.String
	doc.Kind = models.DocumentKind(kind)
	doc.DocumentType = models.DocumentType(docType)
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		r.logger.Warn("Failed to decode document metadata", zap.String("document_id", id.String()), zap.Error(err))
	}

	return &doc, nil
}

func (r *DocumentRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	query := r.sb.Select("COUNT(*)").
		From("documents").
		Where(squirrel.Eq{"user_id": userID})

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
