package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/internal/models"
	"expense-bot/internal/repository"
	"expense-bot/internal/service"
	"expense-bot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

type UserFinder interface {
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type ExpenseLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Expense, error)
	ItemsByExpense(ctx context.Context, expenseID uuid.UUID) ([]*models.ExpenseItem, error)
}

type QuestionAnswerer interface {
	Ask(ctx context.Context, from, question string) (*service.QueryAnswer, error)
}

type ExpenseHandler struct {
	users    UserFinder
	expenses ExpenseLister
	answerer QuestionAnswerer
	synth    *service.Synthesizer
	logger   *zap.Logger
}

func NewExpenseHandler(users UserFinder, expenses ExpenseLister, answerer QuestionAnswerer, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		users:    users,
		expenses: expenses,
		answerer: answerer,
		synth:    service.NewSynthesizer(),
		logger:   logger,
	}
}

// ListExpenses godoc
// @Summary List the caller's expenses
// @Description Most recent expenses first, with their items
// @Tags expenses
// @Produce json
// @Param limit query int false "Limit" default(10)
// @Param offset query int false "Offset" default(0)
// @Security Bearer
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) ListExpenses(c *fiber.Ctx) error {
	phone, err := getPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	limit := c.QueryInt("limit", 10)
	offset := c.QueryInt("offset", 0)
	if limit < 1 || limit > maxPageSize || offset < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid pagination"})
	}

	resp := dto.ListExpensesResponse{Expenses: []dto.ExpenseResponse{}, Limit: limit, Offset: offset}

	user, err := h.users.GetByPhone(c.Context(), phone)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(resp)
	}
	if err != nil {
		h.logger.Error("Failed to load user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list expenses"})
	}

	expenses, err := h.expenses.ListByUser(c.Context(), user.ID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list expenses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list expenses"})
	}

	for _, e := range expenses {
		items, err := h.expenses.ItemsByExpense(c.Context(), e.ID)
		if err != nil {
			h.logger.Error("Failed to load expense items", zap.String("expense_id", e.ID.String()), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "Failed to list expenses"})
		}
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e, items))
	}

	return c.JSON(resp)
}

// Query godoc
// @Summary Ask a question about the caller's spending
// @Description The question is answered the same way as on the message channel
// @Tags expenses
// @Accept json
// @Produce json
// @Param request body dto.QueryRequest true "Question"
// @Security Bearer
// @Success 200 {object} dto.QueryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/query [post]
func (h *ExpenseHandler) Query(c *fiber.Ctx) error {
	phone, err := getPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	var req dto.QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Question is required"})
	}

	answer, err := h.answerer.Ask(c.Context(), phone, req.Question)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrExecution) {
			status = fiber.StatusUnprocessableEntity
		}
		return c.Status(status).JSON(dto.ErrorResponse{Error: h.synth.Apology(err)})
	}

	return c.JSON(dto.QueryResponse{
		Answer:       answer.Text,
		Template:     string(answer.Translation.Spec.Kind),
		IncludeChart: answer.Translation.IncludeChart,
	})
}

func toExpenseResponse(e *models.Expense, items []*models.ExpenseItem) dto.ExpenseResponse {
	resp := dto.ExpenseResponse{
		ID:            e.ID.String(),
		Amount:        e.Amount.StringFixed(2),
		Date:          e.Date.Format("2006-01-02"),
		Category:      e.CategoryName,
		Establishment: e.Establishment,
		Description:   e.Description,
		Confidence:    e.Confidence,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.ItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice.StringFixed(2),
			TotalAmount: it.TotalAmount.StringFixed(2),
		})
	}
	return resp
}

func getPhone(c *fiber.Ctx) (string, error) {
	phone, ok := c.Locals(middleware.PhoneKey).(string)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	phone = models.NormalizePhone(phone)
	if phone == "" {
		return "", fiber.ErrUnauthorized
	}
	return phone, nil
}
