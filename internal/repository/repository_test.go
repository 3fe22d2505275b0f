package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"expense-bot/internal/models"
	"expense-bot/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "repo.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestResolveByPhoneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t), database.SQLite, zap.NewNop())

	first, err := repo.ResolveByPhone(ctx, "+5511987654321")
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := repo.ResolveByPhone(ctx, "+5511987654321")
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same user id, got %s and %s", first.ID, second.ID)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user row, got %d", count)
	}
}

func TestGetByPhoneNotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t), database.SQLite, zap.NewNop())
	if _, err := repo.GetByPhone(context.Background(), "+1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConnectOrCreateReusesRow(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(newTestDB(t), database.SQLite, zap.NewNop())

	a, err := repo.ConnectOrCreate(ctx, "Alimentação")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := repo.ConnectOrCreate(ctx, "Alimentação")
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if a != b {
		t.Errorf("expected reuse of %s, got %s", a, b)
	}

	// names are case-sensitive keys
	c, err := repo.ConnectOrCreate(ctx, "alimentação")
	if err != nil {
		t.Fatalf("create lower-case failed: %v", err)
	}
	if c == a {
		t.Error("expected a distinct category for a different spelling")
	}

	names, err := repo.ListNames(ctx)
	if err != nil {
		t.Fatalf("ListNames failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("expected 2 names, got %v", names)
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	logger := zap.NewNop()

	users := NewUserRepository(db, database.SQLite, logger)
	docs := NewDocumentRepository(db, database.SQLite, logger)
	expenses := NewExpenseRepository(db, database.SQLite, logger)
	categories := NewCategoryRepository(db, database.SQLite, logger)

	user, err := users.ResolveByPhone(ctx, "+5511987654321")
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	categoryID, err := categories.ConnectOrCreate(ctx, "Casa")
	if err != nil {
		t.Fatalf("category: %v", err)
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:           uuid.New(),
		UserID:       user.ID,
		SourceURL:    "https://example.com/media/1",
		Kind:         models.DocumentKindImage,
		DocumentType: models.DocumentTypeMarketReceipt,
		RawText:      "Sabão em Pó 2kg 18.90",
		Metadata:     models.DocumentMetadata{Currency: "BRL", PaymentMethod: "pix"},
		CreatedAt:    now,
	}
	if err := docs.Create(ctx, doc); err != nil {
		t.Fatalf("create document: %v", err)
	}

	expense := &models.Expense{
		ID:            uuid.New(),
		UserID:        user.ID,
		DocumentID:    doc.ID,
		CategoryID:    &categoryID,
		Amount:        decimal.RequireFromString("18.90"),
		Date:          time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		Establishment: "Supermercado Preço Bom",
		Confidence:    0.9,
		Itemized:      true,
		CreatedAt:     now,
	}
	if err := expenses.Create(ctx, expense); err != nil {
		t.Fatalf("create expense: %v", err)
	}

	item := &models.ExpenseItem{
		ID:          uuid.New(),
		ExpenseID:   expense.ID,
		Description: "Sabão em Pó 2kg",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.RequireFromString("18.90"),
		TotalAmount: decimal.RequireFromString("18.90"),
		CreatedAt:   now,
	}
	if err := expenses.CreateItems(ctx, []*models.ExpenseItem{item}); err != nil {
		t.Fatalf("create items: %v", err)
	}

	list, err := expenses.ListByUser(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(list))
	}
	got := list[0]
	if !got.Amount.Equal(expense.Amount) {
		t.Errorf("amount: got %s", got.Amount)
	}
	if got.CategoryName != "Casa" {
		t.Errorf("category name: got %q", got.CategoryName)
	}
	if got.Date.Format("2006-01-02") != "2024-05-15" {
		t.Errorf("date: got %s", got.Date)
	}

	items, err := expenses.ItemsByExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 1 || items[0].Confidence != nil {
		t.Errorf("unexpected items: %+v", items)
	}

	stored, err := docs.GetByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if stored.Metadata.PaymentMethod != "pix" || stored.ArchiveURI != "" {
		t.Errorf("unexpected document: %+v", stored)
	}

	// other users see nothing
	other, _ := users.ResolveByPhone(ctx, "+5521999999999")
	list, err = expenses.ListByUser(ctx, other.ID, 10, 0)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no expenses for another user, got %d", len(list))
	}
}
