package dto

type ExpenseResponse struct {
	ID            string         `json:"id"`
	Amount        string         `json:"amount"`
	Date          string         `json:"date"`
	Category      string         `json:"category,omitempty"`
	Establishment string         `json:"establishment,omitempty"`
	Description   string         `json:"description,omitempty"`
	Confidence    float64        `json:"confidence"`
	Items         []ItemResponse `json:"items,omitempty"`
	CreatedAt     string         `json:"created_at"`
}

type ItemResponse struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	TotalAmount string `json:"total_amount"`
}

type ListExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type QueryRequest struct {
	Question string `json:"question"`
}

type QueryResponse struct {
	Answer       string `json:"answer"`
	Template     string `json:"template,omitempty"`
	IncludeChart bool   `json:"include_chart"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
