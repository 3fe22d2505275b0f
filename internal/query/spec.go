// Package query defines the closed set of read templates the question
// answering path can run, and renders them into parameterized SQL.
package query

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind selects one of the fixed query templates.
type Kind string

const (
	KindTotalSpent         Kind = "total_spent"
	KindSpendingByCategory Kind = "spending_by_category"
	KindMonthlyTrend       Kind = "monthly_trend"
	KindItemSearch         Kind = "item_search"
	KindRecentExpenses     Kind = "recent_expenses"
	KindDocumentCount      Kind = "document_count"
)

var kinds = []Kind{
	KindTotalSpent,
	KindSpendingByCategory,
	KindMonthlyTrend,
	KindItemSearch,
	KindRecentExpenses,
	KindDocumentCount,
}

func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

const (
	DefaultLimit  = 10
	MaxLimit      = 50
	MaxSearchTerm = 64
)

// Period is the half-open interval [Start, End). A zero bound is open.
type Period struct {
	Start time.Time
	End   time.Time
	// Label is a human wording of the period in Portuguese, e.g. "em maio de 2024".
	Label string
}

func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Spec is a fully validated query description. It never carries SQL text.
type Spec struct {
	Kind       Kind
	Period     Period
	Category   string
	SearchTerm string
	Limit      int
	UserScope  uuid.UUID
}

// BindUser returns a copy of s scoped to userID.
func (s Spec) BindUser(userID uuid.UUID) Spec {
	s.UserScope = userID
	return s
}

// Translation is what the translator hands to the executor and synthesizer.
type Translation struct {
	Spec             Spec
	QueryType        string
	ResponseTemplate string
	IncludeChart     bool
}

// Row is one result line. Which fields are set depends on the template.
type Row struct {
	Label         string
	Amount        decimal.Decimal
	Count         int
	Date          time.Time
	Description   string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Establishment string
}

type Result struct {
	Kind  Kind
	Total decimal.Decimal
	Count int
	Rows  []Row
}
