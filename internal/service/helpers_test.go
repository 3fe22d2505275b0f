package service

import (
	"context"
	"database/sql"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"expense-bot/internal/repository"
	"expense-bot/pkg/database"
	"expense-bot/pkg/metrics"

	"go.uber.org/zap"
)

// scriptedCompleter answers each kind of request with a canned reply,
// telling them apart by the system instruction.
type scriptedCompleter struct {
	mu          sync.Mutex
	intent      string
	extraction  string
	translation string
	err         error
	calls       map[string]int
	inputs      map[string][]string
}

func (c *scriptedCompleter) Complete(_ context.Context, system, input string) (string, error) {
	task := taskOf(system)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
		c.inputs = make(map[string][]string)
	}
	c.calls[task]++
	c.inputs[task] = append(c.inputs[task], input)

	if c.err != nil {
		return "", c.err
	}
	switch task {
	case "intent":
		return c.intent, nil
	case "extraction":
		return c.extraction, nil
	default:
		return c.translation, nil
	}
}

func (c *scriptedCompleter) count(task string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[task]
}

func taskOf(system string) string {
	switch {
	case system == intentInstruction:
		return "intent"
	case system == extractionInstruction:
		return "extraction"
	case strings.HasPrefix(system, "Você traduz"):
		return "translation"
	}
	return "other"
}

type fakePDF struct {
	text  string
	err   error
	calls int
}

func (f *fakePDF) ExtractText(context.Context, []byte) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeOCR struct {
	text         string
	err          error
	calls        int
	contentTypes []string
}

func (f *fakeOCR) Recognize(_ context.Context, _ []byte, contentType string) (string, error) {
	f.calls++
	f.contentTypes = append(f.contentTypes, contentType)
	return f.text, f.err
}

type fakeFetcher struct {
	mu    sync.Mutex
	fail  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return []byte("%PDF-1.4 " + url), nil
}

type testStore struct {
	db          *sql.DB
	users       *repository.UserRepository
	documents   *repository.DocumentRepository
	expenses    *repository.ExpenseRepository
	categories  *repository.CategoryRepository
	persistence *PersistenceService
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	s := &testStore{
		db:         db,
		users:      repository.NewUserRepository(db, database.SQLite, logger),
		documents:  repository.NewDocumentRepository(db, database.SQLite, logger),
		expenses:   repository.NewExpenseRepository(db, database.SQLite, logger),
		categories: repository.NewCategoryRepository(db, database.SQLite, logger),
	}
	s.persistence = NewPersistenceService(db, s.users, s.documents, s.expenses, s.categories, 10000, logger)
	return s
}

func (s *testStore) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

const receiptText = "Supermercado Preço Bom 15/05/2024\nLeite Integral 1L 2x 4.99 9.98\nTotal: 28.88"

const receiptJSON = `{
  "document_type": "market_receipt",
  "main_expense": {
    "total_amount": 28.88,
    "date": "2024-05-15",
    "establishment": "Supermercado Preço Bom",
    "primary_category": "Alimentação",
    "confidence_score": 0.95
  },
  "items": [
    {"description": "Leite Integral 1L", "quantity": 2, "unit_price": 4.99, "total_amount": 12.00, "category": "Alimentação", "confidence_score": 0.98}
  ],
  "metadata": {"payment_method": "credit_card", "currency": "BRL", "document_subtype": "NF-e"}
}`

// assertMetric scrapes m and expects an exact sample line.
func assertMetric(t *testing.T, m *metrics.Metrics, line string) {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), line) {
		t.Errorf("metrics output missing %q", line)
	}
}
