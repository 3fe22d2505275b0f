package query

import (
	"errors"
	"fmt"
	"strings"

	"expense-bot/pkg/database"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var (
	ErrUnscoped      = errors.New("query is not scoped to a user")
	ErrScopeMismatch = errors.New("query is scoped to a different user")
	ErrUnknownKind   = errors.New("unknown query template")
	ErrInvalidSpec   = errors.New("invalid query parameters")
)

// Build renders spec into SQL for dialect. userID is the caller's identity;
// the Spec must already be bound to it. Every template filters on the owner
// with a bound parameter and every user-supplied value is a bound parameter.
func Build(d database.Dialect, spec Spec, userID uuid.UUID) (string, []any, error) {
	if err := Validate(spec, userID); err != nil {
		return "", nil, err
	}

	var builder squirrel.SelectBuilder
	switch spec.Kind {
	case KindTotalSpent:
		builder = d.Builder().
			Select("COALESCE(SUM(e.total_amount), 0)", "COUNT(e.id)").
			From("expenses e")
		builder = scopeExpenses(builder, spec)

	case KindSpendingByCategory:
		builder = d.Builder().
			Select("c.name", "SUM(e.total_amount) AS total", "COUNT(e.id)").
			From("expenses e").
			LeftJoin("expense_categories c ON c.id = e.category_id").
			Where(squirrel.Eq{"e.user_id": spec.UserScope}).
			GroupBy("c.name").
			OrderBy("total DESC").
			Limit(uint64(spec.Limit))
		builder = withPeriod(builder, "e.expense_date", spec.Period)

	case KindMonthlyTrend:
		bucket := d.MonthBucket("e.expense_date")
		builder = d.Builder().
			Select(bucket+" AS month", "SUM(e.total_amount)", "COUNT(e.id)").
			From("expenses e")
		builder = scopeExpenses(builder, spec).
			GroupBy(bucket).
			OrderBy("month DESC").
			Limit(uint64(spec.Limit))

	case KindItemSearch:
		builder = d.Builder().
			Select("i.description", "i.quantity", "i.unit_price", "i.total_amount", "e.expense_date", "e.establishment").
			From("expense_items i").
			Join("expenses e ON e.id = i.expense_id").
			Where(squirrel.Eq{"e.user_id": spec.UserScope}).
			Where("LOWER(i.description) LIKE ? ESCAPE '\\'", "%"+EscapeLike(strings.ToLower(spec.SearchTerm))+"%").
			OrderBy("e.expense_date DESC").
			Limit(uint64(spec.Limit))
		builder = withPeriod(builder, "e.expense_date", spec.Period)
		// an item without its own category belongs to its expense's
		builder = withCategory(builder, "COALESCE(i.category_id, e.category_id)", spec.Category)

	case KindRecentExpenses:
		builder = d.Builder().
			Select("e.expense_date", "e.total_amount", "e.establishment", "e.description").
			From("expenses e")
		builder = scopeExpenses(builder, spec).
			OrderBy("e.expense_date DESC", "e.created_at DESC").
			Limit(uint64(spec.Limit))

	case KindDocumentCount:
		builder = d.Builder().
			Select("COUNT(d.id)").
			From("documents d").
			Where(squirrel.Eq{"d.user_id": spec.UserScope})
		builder = withPeriod(builder, "d.created_at", spec.Period)
	}

	return builder.ToSql()
}

// Validate enforces the structural rules every spec must satisfy before it
// reaches the store.
func Validate(spec Spec, userID uuid.UUID) error {
	if spec.UserScope == uuid.Nil || userID == uuid.Nil {
		return ErrUnscoped
	}
	if spec.UserScope != userID {
		return ErrScopeMismatch
	}
	if !spec.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
	if spec.Limit < 1 || spec.Limit > MaxLimit {
		return fmt.Errorf("%w: limit %d", ErrInvalidSpec, spec.Limit)
	}
	if spec.Kind == KindItemSearch && strings.TrimSpace(spec.SearchTerm) == "" {
		return fmt.Errorf("%w: item search without a term", ErrInvalidSpec)
	}
	if len([]rune(spec.SearchTerm)) > MaxSearchTerm {
		return fmt.Errorf("%w: search term too long", ErrInvalidSpec)
	}
	if !spec.Period.Start.IsZero() && !spec.Period.End.IsZero() && !spec.Period.Start.Before(spec.Period.End) {
		return fmt.Errorf("%w: empty period", ErrInvalidSpec)
	}
	return nil
}

// scopeExpenses applies owner, period and category filters on expenses e.
func scopeExpenses(b squirrel.SelectBuilder, spec Spec) squirrel.SelectBuilder {
	b = b.Where(squirrel.Eq{"e.user_id": spec.UserScope})
	b = withPeriod(b, "e.expense_date", spec.Period)
	return withCategory(b, "e.category_id", spec.Category)
}

// withCategory keeps only rows whose categoryColumn names the category.
func withCategory(b squirrel.SelectBuilder, categoryColumn, name string) squirrel.SelectBuilder {
	if name == "" {
		return b
	}
	return b.Join("expense_categories c ON c.id = " + categoryColumn).
		Where(squirrel.Eq{"c.name": name})
}

func withPeriod(b squirrel.SelectBuilder, column string, p Period) squirrel.SelectBuilder {
	if !p.Start.IsZero() {
		b = b.Where(squirrel.GtOrEq{column: p.Start})
	}
	if !p.End.IsZero() {
		b = b.Where(squirrel.Lt{column: p.End})
	}
	return b
}

// EscapeLike escapes LIKE wildcards so a search term matches literally.
func EscapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
