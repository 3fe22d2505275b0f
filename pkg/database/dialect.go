package database

import (
	"fmt"

	"github.com/Masterminds/squirrel"
)

// Dialect captures the few places where PostgreSQL and SQLite differ.
type Dialect struct {
	Name        string
	Placeholder squirrel.PlaceholderFormat
	monthFormat string
}

var (
	Postgres = Dialect{Name: "postgres", Placeholder: squirrel.Dollar, monthFormat: "to_char(%s, 'YYYY-MM')"}
	SQLite   = Dialect{Name: "sqlite", Placeholder: squirrel.Question, monthFormat: "substr(%s, 1, 7)"}
)

// Builder returns a squirrel statement builder using the dialect's placeholders.
func (d Dialect) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

// MonthBucket renders a YYYY-MM label expression for a date column.
func (d Dialect) MonthBucket(column string) string {
	return fmt.Sprintf(d.monthFormat, column)
}
