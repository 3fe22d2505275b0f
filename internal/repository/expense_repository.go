package repository

import (
	"context"
	"database/sql"
	"fmt"

	"expense-bot/internal/models"
	"expense-bot/pkg/database"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ExpenseRepository struct {
	base
	logger *zap.Logger
}

func NewExpenseRepository(db database.Querier, dialect database.Dialect, logger *zap.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		base:   newBase(db, dialect),
		logger: logger,
	}
}

func (r *ExpenseRepository) WithTx(tx *sql.Tx) *ExpenseRepository {
	return &ExpenseRepository{base: r.withTx(tx), logger: r.logger}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *models.Expense) error {
	query := r.sb.Insert("expenses").
		Columns("id", "user_id", "document_id", "category_id", "total_amount", "expense_date",
			"establishment", "description", "confidence", "itemized", "created_at").
		Values(e.ID, e.UserID, e.DocumentID, e.CategoryID, e.Amount, e.Date,
			nullString(e.Establishment), nullString(e.Description), e.Confidence, e.Itemized, e.CreatedAt)

	stmt, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// CreateItems inserts all items of one expense in a single statement.
func (r *ExpenseRepository) CreateItems(ctx context.Context, items []*models.ExpenseItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := r.sb.Insert("expense_items").
		Columns("id", "expense_id", "category_id", "description", "quantity", "unit_price",
			"total_amount", "confidence", "created_at")

	for _, it := range items {
		builder = builder.Values(it.ID, it.ExpenseID, it.CategoryID, it.Description, it.Quantity,
			it.UnitPrice, it.TotalAmount, it.Confidence, it.CreatedAt)
	}

	stmt, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to insert expense items: %w", err)
	}
	return nil
}

// ListByUser returns a page of the user's expenses, newest first, with the
// category name joined in.
func (r *ExpenseRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Expense, error) {
	query := r.sb.Select("e.id", "e.user_id", "e.document_id", "e.category_id", "e.total_amount",
		"e.expense_date", "e.establishment", "e.description", "e.confidence", "e.itemized",
		"e.created_at", "c.name").
		From("expenses e").
		LeftJoin("expense_categories c ON c.id = e.category_id").
		Where(squirrel.Eq{"e.user_id": userID}).
		OrderBy("e.expense_date DESC", "e.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		var (
			e             models.Expense
			categoryID    uuid.NullUUID
			establishment sql.NullString
			description   sql.NullString
			categoryName  sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.DocumentID, &categoryID, &e.Amount, &e.Date, &establishment,
			&description, &e.Confidence, &e.Itemized, &e.CreatedAt, &categoryName,
		); err != nil {
			return nil, err
		}
		if categoryID.Valid {
			e.CategoryID = &categoryID.UUID
		}
		e.Establishment = establishment.String
		e.Description = description.String
		e.CategoryName = categoryName.String
		expenses = append(expenses, &e)
	}

	return expenses, rows.Err()
}

func (r *ExpenseRepository) ItemsByExpense(ctx context.Context, expenseID uuid.UUID) ([]*models.ExpenseItem, error) {
	query := r.sb.Select("id", "expense_id", "category_id", "description", "quantity", "unit_price",
		"total_amount", "confidence", "created_at").
		From("expense_items").
		Where(squirrel.Eq{"expense_id": expenseID}).
		OrderBy("created_at", "description")

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense items: %w", err)
	}
	defer rows.Close()

	var items []*models.ExpenseItem
	for rows.Next() {
		var (
			it         models.ExpenseItem
			categoryID uuid.NullUUID
			confidence sql.NullFloat64
		)
		if err := rows.Scan(
			&it.ID, &it.ExpenseID, &categoryID, &it.Description, &it.Quantity, &it.UnitPrice,
			&it.TotalAmount, &confidence, &it.CreatedAt,
		); err != nil {
			return nil, err
		}
		if categoryID.Valid {
			it.CategoryID = &categoryID.UUID
		}
		if confidence.Valid {
			c := confidence.Float64
			it.Confidence = &c
		}
		items = append(items, &it)
	}

	return items, rows.Err()
}

func (r *ExpenseRepository) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.Expense, error) {
	query := r.sb.Select("id", "user_id", "document_id", "category_id", "total_amount", "expense_date",
		"confidence", "itemized", "created_at").
		From("expenses").
		Where(squirrel.Eq{"document_id": documentID})

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		e          models.Expense
		categoryID uuid.NullUUID
	)
	err = r.db.QueryRowContext(ctx, stmt, args...).Scan(
		&e.ID, &e.UserID, &e.DocumentID, &categoryID, &e.Amount, &e.Date, &e.Confidence, &e.Itemized, &e.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if categoryID.Valid {
		e.CategoryID = &categoryID.UUID
	}
	return &e, nil
}
