package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// TransactionService is the subset of *transactions.Service used here.
type TransactionService interface {
	Create(ctx context.Context, userID uuid.UUID, in transactions.CreateInput) (*transactions.Transaction, error)
	QuickCreate(ctx context.Context, userID uuid.UUID, text string) (*transactions.Transaction, error)
	List(ctx context.Context, userID uuid.UUID, f transactions.Filter) ([]transactions.Transaction, error)
	Summary(ctx context.Context, userID uuid.UUID, f transactions.Filter) (*transactions.Summary, error)
	Export(ctx context.Context, userID uuid.UUID, f transactions.Filter, format transactions.ExportFormat) (*transactions.Export, error)
	Currency() string
	Location() *time.Location
}

// TransactionsHandler serves /api/transactions.
type TransactionsHandler struct {
	service TransactionService
	logger  *slog.Logger
}

// NewTransactionsHandler creates a new transactions handler
func NewTransactionsHandler(service TransactionService, logger *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{service: service, logger: logger}
}

// Routes mounts the handler on r.
func (h *TransactionsHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Post("/quick", h.QuickCreate)
	r.Get("/", h.List)
	r.Get("/summary", h.Summary)
	r.Get("/export", h.Export)
}

// TransactionResponse is the JSON shape of a stored transaction.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Source      string    `json:"source"`
}

// ToResponse converts a stored transaction for the wire.
func ToResponse(t transactions.Transaction, currency string) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID.String(),
		Type:        string(t.Type),
		Amount:      money.New(t.AmountMinor, currency).ToFloat64(),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Source:      string(t.Source),
	}
}

type createRequest struct {
	Type        string          `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category" validate:"required,max=64"`
	Description string          `json:"description" validate:"max=255"`
	Date        string          `json:"date"`
}

// Create records a manual transaction.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	in := transactions.CreateInput{
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	}
	if req.Date != "" {
		d, _, err := httpx.ParseDate(req.Date, h.service.Location())
		if err != nil {
			httpx.WriteValidation(w, httpx.NewValidationError("date", "must be YYYY-MM-DD or RFC 3339"))
			return
		}
		in.Date = &d
	}

	tx, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ToResponse(*tx, h.service.Currency()))
}

type quickRequest struct {
	Text string `json:"text" validate:"required,max=255"`
}

// QuickCreate records a transaction from a one-line note such as "Coffee 4.50".
func (h *TransactionsHandler) QuickCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req quickRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	tx, err := h.service.QuickCreate(r.Context(), userID, req.Text)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ToResponse(*tx, h.service.Currency()))
}

// List returns transactions filtered by the query string.
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	f, err := FilterFromQuery(r, h.service.Location())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	txs, err := h.service.List(r.Context(), userID, f)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	items := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		items = append(items, ToResponse(t, h.service.Currency()))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type categoryTotalResponse struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

type summaryResponse struct {
	Income     float64                 `json:"income"`
	Expenses   float64                 `json:"expenses"`
	Net        float64                 `json:"net"`
	Count      int                     `json:"count"`
	Categories []categoryTotalResponse `json:"categories"`
}

// Summary returns income, expense and per-category totals for a period.
func (h *TransactionsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	f, err := FilterFromQuery(r, h.service.Location())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	s, err := h.service.Summary(r.Context(), userID, f)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	ccy := h.service.Currency()
	resp := summaryResponse{
		Income:     money.New(s.Totals.IncomeMinor, ccy).ToFloat64(),
		Expenses:   money.New(s.Totals.ExpenseMinor, ccy).ToFloat64(),
		Net:        money.New(s.Totals.NetMinor(), ccy).ToFloat64(),
		Count:      s.Totals.Count,
		Categories: make([]categoryTotalResponse, 0, len(s.Categories)),
	}
	for _, c := range s.Categories {
		resp.Categories = append(resp.Categories, categoryTotalResponse{
			Category: c.Category,
			Amount:   money.New(c.AmountMinor, ccy).ToFloat64(),
			Count:    c.Count,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Export streams a CSV (default) or XLSX download.
func (h *TransactionsHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	f, err := FilterFromQuery(r, h.service.Location())
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	format := transactions.ExportFormat(r.URL.Query().Get("format"))
	switch format {
	case "", transactions.ExportCSV:
		format = transactions.ExportCSV
	case transactions.ExportXLSX:
	default:
		httpx.WriteValidation(w, httpx.NewValidationError("format", "must be csv or xlsx"))
		return
	}

	out, err := h.service.Export(r.Context(), userID, f, format)
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

// FilterFromQuery reads from, to, type, category and limit. Date-only values are
// midnight in loc and a date-only "to" covers the whole day.
func FilterFromQuery(r *http.Request, loc *time.Location) (transactions.Filter, error) {
	q := r.URL.Query()
	var f transactions.Filter
	verr := &httpx.ValidationError{}

	if v := q.Get("from"); v != "" {
		from, _, err := httpx.ParseDate(v, loc)
		if err != nil {
			verr.Add("from", "must be YYYY-MM-DD or RFC 3339")
		} else {
			f.From = &from
		}
	}

	if v := q.Get("to"); v != "" {
		to, dateOnly, err := httpx.ParseDate(v, loc)
		if err != nil {
			verr.Add("to", "must be YYYY-MM-DD or RFC 3339")
		} else {
			if dateOnly {
				to = to.AddDate(0, 0, 1).Add(-time.Millisecond)
			}
			f.To = &to
		}
	}

	if v := q.Get("type"); v != "" {
		typ, ok := transactions.ParseType(v)
		if !ok {
			verr.Add("type", transactions.ErrInvalidType.Error())
		}
		f.Type = typ
	}

	f.Category = q.Get("category")

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			verr.Add("limit", "must be a positive integer")
		}
		f.Limit = n
	}

	if verr.HasErrors() {
		return transactions.Filter{}, verr
	}
	return f, nil
}
