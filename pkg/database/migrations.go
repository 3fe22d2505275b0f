package database

import (
	"context"
	"database/sql"
	"strings"
)

// Categories must exist before expenses and items reference them; documents
// before expenses.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    phone TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_categories (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    source_url TEXT NOT NULL,
    archive_uri TEXT,
    kind TEXT NOT NULL CHECK (kind IN ('image', 'pdf_text', 'pdf_scanned')),
    document_type TEXT NOT NULL,
    raw_text TEXT NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id),
    document_id UUID NOT NULL UNIQUE REFERENCES documents(id),
    category_id UUID REFERENCES expense_categories(id),
    total_amount NUMERIC(14,2) NOT NULL CHECK (total_amount > 0),
    expense_date DATE NOT NULL,
    establishment TEXT,
    description TEXT,
    confidence DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
    itemized BOOLEAN NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_items (
    id UUID PRIMARY KEY,
    expense_id UUID NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
    category_id UUID REFERENCES expense_categories(id),
    description TEXT NOT NULL,
    quantity NUMERIC(12,3) NOT NULL CHECK (quantity > 0),
    unit_price NUMERIC(14,2) NOT NULL CHECK (unit_price >= 0),
    total_amount NUMERIC(14,2) NOT NULL,
    confidence DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id);
CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, expense_date);
CREATE INDEX IF NOT EXISTS idx_expense_items_expense_id ON expense_items(expense_id);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    phone TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    source_url TEXT NOT NULL,
    archive_uri TEXT,
    kind TEXT NOT NULL CHECK (kind IN ('image', 'pdf_text', 'pdf_scanned')),
    document_type TEXT NOT NULL,
    raw_text TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id),
    document_id TEXT NOT NULL UNIQUE REFERENCES documents(id),
    category_id TEXT REFERENCES expense_categories(id),
    total_amount NUMERIC NOT NULL CHECK (total_amount > 0),
    expense_date DATE NOT NULL,
    establishment TEXT,
    description TEXT,
    confidence REAL NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
    itemized BOOLEAN NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS expense_items (
    id TEXT PRIMARY KEY,
    expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
    category_id TEXT REFERENCES expense_categories(id),
    description TEXT NOT NULL,
    quantity NUMERIC NOT NULL CHECK (quantity > 0),
    unit_price NUMERIC NOT NULL CHECK (unit_price >= 0),
    total_amount NUMERIC NOT NULL,
    confidence REAL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_user_id ON documents(user_id);
CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, expense_date);
CREATE INDEX IF NOT EXISTS idx_expense_items_expense_id ON expense_items(expense_id);
`

// Migrate creates the schema if it does not exist yet. Statements run one at a
// time because the pgx stdlib adapter does not accept multi-statement strings
// with the extended protocol.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	schema := postgresSchema
	if dialect.Name == SQLite.Name {
		schema = sqliteSchema
	}

	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
