package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/handler"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
)

type fakeService struct {
	created transactions.CreateInput
	filter  transactions.Filter
	format  transactions.ExportFormat
	rows    []transactions.Transaction
	loc     *time.Location
}

func (f *fakeService) Create(_ context.Context, userID uuid.UUID, in transactions.CreateInput) (*transactions.Transaction, error) {
	f.created = in
	if in.Amount.IsZero() {
		return nil, httpx.NewValidationError("amount", transactions.ErrInvalidAmount.Error())
	}
	return &transactions.Transaction{
		ID: uuid.New(), UserID: userID, Type: transactions.TypeExpense, AmountMinor: in.Amount.Shift(2).IntPart(),
		Category: in.Category, Description: in.Description, Date: *in.Date, Source: transactions.SourceManual,
	}, nil
}

func (f *fakeService) QuickCreate(_ context.Context, userID uuid.UUID, text string) (*transactions.Transaction, error) {
	if !strings.ContainsAny(text, "0123456789") {
		return nil, httpx.NewValidationError("text", "no amount found")
	}
	return &transactions.Transaction{
		ID: uuid.New(), UserID: userID, Type: transactions.TypeExpense, AmountMinor: 450,
		Category: "Dining", Description: text, Date: time.Now(), Source: transactions.SourceManual,
	}, nil
}

func (f *fakeService) List(_ context.Context, _ uuid.UUID, fl transactions.Filter) ([]transactions.Transaction, error) {
	f.filter = fl
	return f.rows, nil
}

func (f *fakeService) Summary(_ context.Context, _ uuid.UUID, fl transactions.Filter) (*transactions.Summary, error) {
	f.filter = fl
	return &transactions.Summary{
		Totals:     transactions.Totals{IncomeMinor: 300000, ExpenseMinor: 12550, Count: 3},
		Categories: []transactions.CategoryTotal{{Category: "Dining", AmountMinor: 12550, Count: 2}},
	}, nil
}

func (f *fakeService) Export(_ context.Context, _ uuid.UUID, fl transactions.Filter, format transactions.ExportFormat) (*transactions.Export, error) {
	f.filter, f.format = fl, format
	return &transactions.Export{Filename: "transactions.csv", ContentType: "text/csv", Data: []byte("a,b\n")}, nil
}

func (f *fakeService) Currency() string { return "USD" }

func (f *fakeService) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

func do(svc *fakeService, method, target, body string) *httptest.ResponseRecorder {
	h := handler.NewTransactionsHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/api/transactions", h.Routes)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(interceptors.WithUserID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestTransactionsHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeService{}
		rec := do(svc, http.MethodPost, "/api/transactions/",
			`{"type":"EXPENSE","amount":12.5,"category":"Dining","description":"Lunch","date":"2025-10-14"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body handler.TransactionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 12.5, body.Amount)
		assert.Equal(t, "Dining", body.Category)
		assert.Equal(t, "manual", body.Source)
		assert.Equal(t, 14, svc.created.Date.Day())
	})

	t.Run("bad date", func(t *testing.T) {
		rec := do(&fakeService{}, http.MethodPost, "/api/transactions/",
			`{"type":"EXPENSE","amount":12.5,"category":"Dining","date":"14 Oct"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"date"`)
	})

	t.Run("missing category", func(t *testing.T) {
		rec := do(&fakeService{}, http.MethodPost, "/api/transactions/", `{"type":"EXPENSE","amount":1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"category"`)
	})
}

func TestTransactionsHandler_List(t *testing.T) {
	svc := &fakeService{rows: []transactions.Transaction{{
		ID: uuid.New(), Type: transactions.TypeIncome, AmountMinor: 250000, Category: "Salary",
		Date: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), Source: transactions.SourceStatement,
	}}}

	rec := do(svc, http.MethodGet, "/api/transactions/?from=2025-10-01&to=2025-10-31&type=income&category=salary&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []handler.TransactionResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2500.0, body.Items[0].Amount)

	f := svc.filter
	assert.Equal(t, transactions.TypeIncome, f.Type)
	assert.Equal(t, "salary", f.Category)
	assert.Equal(t, 10, f.Limit)
	require.NotNil(t, f.To)
	assert.Equal(t, 31, f.To.Day())
	assert.Equal(t, 23, f.To.Hour())
}

func TestTransactionsHandler_DatesUseServiceZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)

	svc := &fakeService{loc: tokyo}
	rec := do(svc, http.MethodPost, "/api/transactions/",
		`{"type":"EXPENSE","amount":8,"category":"Dining","date":"2025-10-14"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, time.Date(2025, 10, 14, 0, 0, 0, 0, tokyo).Equal(*svc.created.Date))

	rec = do(svc, http.MethodGet, "/api/transactions/?from=2025-10-01&to=2025-10-31", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.From)
	require.NotNil(t, svc.filter.To)
	assert.True(t, time.Date(2025, 10, 1, 0, 0, 0, 0, tokyo).Equal(*svc.filter.From))
	assert.True(t, time.Date(2025, 11, 1, 0, 0, 0, 0, tokyo).Add(-time.Millisecond).Equal(*svc.filter.To))
}

func TestTransactionsHandler_ListRejectsBadQuery(t *testing.T) {
	rec := do(&fakeService{}, http.MethodGet, "/api/transactions/?type=transfer&limit=-1", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Fields, "type")
	assert.Contains(t, body.Fields, "limit")
}

func TestTransactionsHandler_Summary(t *testing.T) {
	rec := do(&fakeService{}, http.MethodGet, "/api/transactions/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"income": 3000,
		"expenses": 125.5,
		"net": 2874.5,
		"count": 3,
		"categories": [{"category": "Dining", "amount": 125.5, "count": 2}]
	}`, rec.Body.String())
}

func TestTransactionsHandler_Export(t *testing.T) {
	t.Run("defaults to csv", func(t *testing.T) {
		svc := &fakeService{}
		rec := do(svc, http.MethodGet, "/api/transactions/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, transactions.ExportCSV, svc.format)
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="transactions.csv"`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := do(&fakeService{}, http.MethodGet, "/api/transactions/export?format=pdf", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTransactionsHandler_QuickCreate(t *testing.T) {
	rec := do(&fakeService{}, http.MethodPost, "/api/transactions/quick", `{"text":"Coffee 4.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"amount":4.5`)

	rec = do(&fakeService{}, http.MethodPost, "/api/transactions/quick", `{"text":"Coffee"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"text"`)

	rec = do(&fakeService{}, http.MethodPost, "/api/transactions/quick", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
