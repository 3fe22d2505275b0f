package repository

import (
	"database/sql"
	"errors"

	"expense-bot/pkg/database"

	"github.com/Masterminds/squirrel"
)

var ErrNotFound = errors.New("record not found")

// base is embedded by every repository. It holds the querier (pool or open
// transaction) and the dialect-aware statement builder.
type base struct {
	db database.Querier
	sb squirrel.StatementBuilderType
}

func newBase(db database.Querier, dialect database.Dialect) base {
	return base{db: db, sb: dialect.Builder()}
}

func (b base) withTx(tx *sql.Tx) base {
	return base{db: tx, sb: b.sb}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
