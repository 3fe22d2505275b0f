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

type UserRepository struct {
	base
	logger *zap.Logger
}

func NewUserRepository(db database.Querier, dialect database.Dialect, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		base:   newBase(db, dialect),
		logger: logger,
	}
}

func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{base: r.withTx(tx), logger: r.logger}
}

// ResolveByPhone returns the user owning phone, creating it on first contact.
// Concurrent first contacts converge on the same row through the unique
// phone constraint.
func (r *UserRepository) ResolveByPhone(ctx context.Context, phone string) (*models.User, error) {
	insert := r.sb.Insert("users").
		Columns("id", "phone", "created_at").
		Values(uuid.New(), phone, time.Now().UTC()).
		Suffix("ON CONFLICT (phone) DO NOTHING")

	stmt, args, err := insert.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return r.GetByPhone(ctx, phone)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := r.sb.Select("id", "phone", "created_at").
		From("users").
		Where(squirrel.Eq{"phone": phone})

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = r.db.QueryRowContext(ctx, stmt, args...).Scan(&user.ID, &user.Phone, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return &user, nil
}
