package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/internal/models"
	"expense-bot/internal/repository"
	"expense-bot/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PersistRequest struct {
	Phone      string
	SourceURL  string
	ArchiveURI string
	Kind       models.DocumentKind
	RawText    string
	Document   *dto.ExtractedDocument
}

type SavedExpense struct {
	User     *models.User
	Document *models.Document
	Expense  *models.Expense
	Items    []*models.ExpenseItem
	Category string
}

// PersistenceService writes one document with its expense and items as a
// single transaction.
type PersistenceService struct {
	db         *sql.DB
	users      *repository.UserRepository
	documents  *repository.DocumentRepository
	expenses   *repository.ExpenseRepository
	categories *repository.CategoryRepository
	maxRawText int
	logger     *zap.Logger
}

func NewPersistenceService(
	db *sql.DB,
	users *repository.UserRepository,
	documents *repository.DocumentRepository,
	expenses *repository.ExpenseRepository,
	categories *repository.CategoryRepository,
	maxRawText int,
	logger *zap.Logger,
) *PersistenceService {
	return &PersistenceService{
		db:         db,
		users:      users,
		documents:  documents,
		expenses:   expenses,
		categories: categories,
		maxRawText: maxRawText,
		logger:     logger,
	}
}

// ResolveUser returns the user for a transport address, creating it on
// first contact.
func (s *PersistenceService) ResolveUser(ctx context.Context, address string) (*models.User, error) {
	phone := models.NormalizePhone(address)
	if phone == "" {
		return nil, fmt.Errorf("%w: empty phone identity", ErrValidation)
	}

	user, err := s.users.ResolveByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return user, nil
}

func (s *PersistenceService) Persist(ctx context.Context, req PersistRequest) (*SavedExpense, error) {
	extracted := req.Document
	if extracted == nil {
		return nil, fmt.Errorf("%w: no extraction result", ErrValidation)
	}
	if !extracted.TotalAmount.IsPositive() || extracted.Date.IsZero() {
		return nil, fmt.Errorf("%w: total amount and date are required", ErrValidation)
	}
	phone := models.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: empty phone identity", ErrValidation)
	}

	var saved *SavedExpense
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		saved, err = s.persistTx(ctx, tx, phone, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist document: %w", err)
	}

	s.logger.Info("Expense persisted",
		zap.String("document_id", saved.Document.ID.String()),
		zap.String("expense_id", saved.Expense.ID.String()),
		zap.Int("items", len(saved.Items)),
	)
	return saved, nil
}

func (s *PersistenceService) persistTx(ctx context.Context, tx *sql.Tx, phone string, req PersistRequest) (*SavedExpense, error) {
	users := s.users.WithTx(tx)
	documents := s.documents.WithTx(tx)
	expenses := s.expenses.WithTx(tx)
	categories := s.categories.WithTx(tx)

	extracted := req.Document
	now := time.Now().UTC()

	user, err := users.ResolveByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:           uuid.New(),
		UserID:       user.ID,
		SourceURL:    req.SourceURL,
		ArchiveURI:   req.ArchiveURI,
		Kind:         req.Kind,
		DocumentType: extracted.DocumentType,
		RawText:      truncateRunes(sanitizeUTF8(req.RawText), s.maxRawText),
		Metadata:     extracted.Metadata,
		CreatedAt:    now,
	}
	if err := documents.Create(ctx, doc); err != nil {
		return nil, err
	}

	// category ids resolved within this document, so an item may reuse a
	// category created moments earlier by the expense or another item
	resolved := make(map[string]uuid.UUID)
	categoryID := func(name string) (*uuid.UUID, error) {
		if name == "" {
			return nil, nil
		}
		if id, ok := resolved[name]; ok {
			return &id, nil
		}
		id, err := categories.ConnectOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		resolved[name] = id
		return &id, nil
	}

	expenseCategory, err := categoryID(extracted.Category)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ID:            uuid.New(),
		UserID:        user.ID,
		DocumentID:    doc.ID,
		CategoryID:    expenseCategory,
		Amount:        extracted.TotalAmount,
		Date:          extracted.Date,
		Establishment: extracted.Establishment,
		Description:   extracted.Description,
		Confidence:    extracted.Confidence,
		Itemized:      len(extracted.Items) > 0,
		CreatedAt:     now,
		CategoryName:  extracted.Category,
	}
	if err := expenses.Create(ctx, expense); err != nil {
		return nil, err
	}

	items := make([]*models.ExpenseItem, 0, len(extracted.Items))
	for _, it := range extracted.Items {
		itemCategory, err := categoryID(it.Category)
		if err != nil {
			return nil, err
		}
		items = append(items, &models.ExpenseItem{
			ID:          uuid.New(),
			ExpenseID:   expense.ID,
			CategoryID:  itemCategory,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalAmount: models.ItemTotal(it.Quantity, it.UnitPrice),
			Confidence:  it.Confidence,
			CreatedAt:   now,
		})
	}
	if err := expenses.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	return &SavedExpense{
		User:     user,
		Document: doc,
		Expense:  expense,
		Items:    items,
		Category: extracted.Category,
	}, nil
}
