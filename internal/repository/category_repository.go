package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expense-bot/internal/models"
	"expense-bot/pkg/database"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryRepository struct {
	base
	logger *zap.Logger
}

func NewCategoryRepository(db database.Querier, dialect database.Dialect, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		base:   newBase(db, dialect),
		logger: logger,
	}
}

func (r *CategoryRepository) WithTx(tx *sql.Tx) *CategoryRepository {
	return &CategoryRepository{base: r.withTx(tx), logger: r.logger}
}

// ConnectOrCreate returns the id of the category with exactly this name,
// creating it when absent. A concurrent create of the same name is not an
// error: the conflicting insert is skipped and the winner's row is returned.
func (r *CategoryRepository) ConnectOrCreate(ctx context.Context, name string) (uuid.UUID, error) {
	insert := r.sb.Insert("expense_categories").
		Columns("id", "name", "created_at").
		Values(uuid.New(), name, time.Now().UTC()).
		Suffix("ON CONFLICT (name) DO NOTHING")

	stmt, args, err := insert.ToSql()
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert category %q: %w", name, err)
	}

	category, err := r.GetByName(ctx, name)
	if err != nil {
		return uuid.Nil, err
	}
	return category.ID, nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.ExpenseCategory, error) {
	query := r.sb.Select("id", "name", "created_at").
		From("expense_categories").
		Where(squirrel.Eq{"name": name})

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var c models.ExpenseCategory
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// ListNames returns the shared category vocabulary ordered by name.
func (r *CategoryRepository) ListNames(ctx context.Context) ([]string, error) {
	query := r.sb.Select("name").
		From("expense_categories").
		OrderBy("name")

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count is used by the seed command to report what it created.
func (r *CategoryRepository) Count(ctx context.Context) (int, error) {
	stmt, args, err := r.sb.Select("COUNT(*)").From("expense_categories").ToSql()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
