package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/budget"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

type BudgetService interface {
	Set(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (int64, error)
	Status(ctx context.Context, userID uuid.UUID, now time.Time) (*budget.Status, error)
	Currency() string
}

// BudgetHandler serves /api/budget.
type BudgetHandler struct {
	service BudgetService
	now     func() time.Time
	logger  *slog.Logger
}

func NewBudgetHandler(service BudgetService, logger *slog.Logger) *BudgetHandler {
	return &BudgetHandler{service: service, now: time.Now, logger: logger}
}

// WithClock overrides the wall clock used to pick the current month.
func (h *BudgetHandler) WithClock(now func() time.Time) *BudgetHandler {
	h.now = now
	return h
}

func (h *BudgetHandler) Routes(r chi.Router) {
	r.Put("/", h.Set)
	r.Get("/status", h.Status)
}

type setRequest struct {
	MonthlyBudget *decimal.Decimal `json:"monthlyBudget" validate:"required"`
}

type budgetResponse struct {
	MonthlyBudget float64 `json:"monthlyBudget"`
}

type statusResponse struct {
	MonthlyBudget  float64 `json:"monthlyBudget"`
	Spent          float64 `json:"spent"`
	Remaining      float64 `json:"remaining"`
	PercentageUsed float64 `json:"percentageUsed"`
	IsOverBudget   bool    `json:"isOverBudget"`
	Month          string  `json:"month"`
}

// Set replaces the monthly budget.
func (h *BudgetHandler) Set(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req setRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	stored, err := h.service.Set(r.Context(), userID, *req.MonthlyBudget)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, budgetResponse{
		MonthlyBudget: money.New(stored, h.service.Currency()).ToFloat64(),
	})
}

// Status reports spend against the budget for the current month.
func (h *BudgetHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	st, err := h.service.Status(r.Context(), userID, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ccy := h.service.Currency()
	httpx.WriteJSON(w, http.StatusOK, statusResponse{
		MonthlyBudget:  money.New(st.MonthlyBudget, ccy).ToFloat64(),
		Spent:          money.New(st.Spent, ccy).ToFloat64(),
		Remaining:      money.New(st.Remaining, ccy).ToFloat64(),
		PercentageUsed: st.PercentageUsed,
		IsOverBudget:   st.IsOverBudget,
		Month:          st.Month,
	})
}

func (h *BudgetHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	// A token for a deleted user is indistinguishable from a bad token.
	if errors.Is(err, budget.ErrUserNotFound) {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpx.WriteDomainError(w, h.logger, r, err)
}
