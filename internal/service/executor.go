package service

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"expense-bot/internal/query"
	"expense-bot/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Executor runs validated query specs. It is the enforcement point for user
// scoping: a spec that is unscoped or scoped to someone else never reaches
// the store.
type Executor struct {
	db      database.Querier
	dialect database.Dialect
	logger  *zap.Logger
}

func NewExecutor(db database.Querier, dialect database.Dialect, logger *zap.Logger) *Executor {
	return &Executor{
		db:      db,
		dialect: dialect,
		logger:  logger,
	}
}

func (e *Executor) Execute(ctx context.Context, spec query.Spec, userID uuid.UUID) (*query.Result, error) {
	stmt, args, err := query.Build(e.dialect, spec, userID)
	if err != nil {
		e.logger.Warn("Query spec rejected", zap.String("template", string(spec.Kind)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}

	result, err := e.run(ctx, spec.Kind, stmt, args)
	if err != nil {
		e.logger.Error("Query execution failed", zap.String("template", string(spec.Kind)), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExecution, err)
	}
	return result, nil
}

func (e *Executor) run(ctx context.Context, kind query.Kind, stmt string, args []any) (*query.Result, error) {
	result := &query.Result{Kind: kind}

	switch kind {
	case query.KindTotalSpent:
		if err := e.db.QueryRowContext(ctx, stmt, args...).Scan(&result.Total, &result.Count); err != nil {
			return nil, err
		}
		result.Total = result.Total.Round(2)
		return result, nil

	case query.KindDocumentCount:
		if err := e.db.QueryRowContext(ctx, stmt, args...).Scan(&result.Count); err != nil {
			return nil, err
		}
		return result, nil
	}

	rows, err := e.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(kind, rows)
		if err != nil {
			return nil, err
		}
		result.Rows = append(result.Rows, row)
		result.Total = result.Total.Add(row.Amount)
		result.Count += max(row.Count, 1)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if kind == query.KindMonthlyTrend {
		// fetched newest first to keep the most recent months under the limit
		slices.Reverse(result.Rows)
	}
	return result, nil
}

func scanRow(kind query.Kind, rows *sql.Rows) (query.Row, error) {
	var (
		row           query.Row
		label         sql.NullString
		establishment sql.NullString
		description   sql.NullString
	)

	switch kind {
	case query.KindSpendingByCategory, query.KindMonthlyTrend:
		if err := rows.Scan(&label, &row.Amount, &row.Count); err != nil {
			return row, err
		}
		row.Label = label.String
	case query.KindItemSearch:
		if err := rows.Scan(&row.Description, &row.Quantity, &row.UnitPrice, &row.Amount, &row.Date, &establishment); err != nil {
			return row, err
		}
		row.Establishment = establishment.String
	case query.KindRecentExpenses:
		if err := rows.Scan(&row.Date, &row.Amount, &establishment, &description); err != nil {
			return row, err
		}
		row.Establishment = establishment.String
		row.Description = description.String
	default:
		return row, fmt.Errorf("no row scanner for %q", kind)
	}

	row.Amount = row.Amount.Round(2)
	return row, nil
}
