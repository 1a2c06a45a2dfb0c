package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/handler"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

var day = time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

type fakeImport struct {
	extraction *importservice.Extraction
	err        error
	doc        importservice.Document
	source     transactions.Source
	items      []importservice.ConfirmItem
	loc        *time.Location
}

func (f *fakeImport) extract(_ context.Context, _ uuid.UUID, doc importservice.Document) (*importservice.Extraction, error) {
	f.doc = doc
	return f.extraction, f.err
}

func (f *fakeImport) ExtractReceipt(ctx context.Context, u uuid.UUID, d importservice.Document) (*importservice.Extraction, error) {
	return f.extract(ctx, u, d)
}

func (f *fakeImport) ExtractStatement(ctx context.Context, u uuid.UUID, d importservice.Document) (*importservice.Extraction, error) {
	return f.extract(ctx, u, d)
}

func (f *fakeImport) ExtractWithAI(ctx context.Context, u uuid.UUID, d importservice.Document) (*importservice.Extraction, error) {
	return f.extract(ctx, u, d)
}

func (f *fakeImport) Confirm(_ context.Context, userID uuid.UUID, source transactions.Source, items []importservice.ConfirmItem) ([]transactions.Transaction, error) {
	f.source, f.items = source, items
	if f.err != nil {
		return nil, f.err
	}
	out := make([]transactions.Transaction, 0, len(items))
	for _, it := range items {
		typ, _ := transactions.ParseType(it.Type)
		out = append(out, transactions.Transaction{
			ID: uuid.New(), UserID: userID, Type: typ, AmountMinor: it.Amount.Shift(2).IntPart(),
			Category: it.Category, Description: it.Description, Date: *it.Date, Source: source,
		})
	}
	return out, nil
}

func (f *fakeImport) Currency() string { return "USD" }

func (f *fakeImport) Location() *time.Location {
	if f.loc == nil {
		return time.UTC
	}
	return f.loc
}

type env struct {
	router http.Handler
	svc    *fakeImport
	files  *storage.LocalStorage
	userID uuid.UUID
}

func newEnv(t *testing.T, svc *fakeImport, maxBytes int64) *env {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	h := handler.NewImportHandler(svc, files, maxBytes, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/api/uploads", h.Routes)
	return &env{router: r, svc: svc, files: files, userID: uuid.New()}
}

func (e *env) do(req *http.Request) *httptest.ResponseRecorder {
	req = req.WithContext(interceptors.WithUserID(req.Context(), e.userID))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func multipartRequest(t *testing.T, target, field, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImportHandler_Upload(t *testing.T) {
	candidates := []parser.Candidate{{
		Date: day, Description: "Total: $45.00", Category: "Groceries",
		Amount: decimal.RequireFromString("45.00"), Type: transactions.TypeExpense,
	}}

	t.Run("receipt", func(t *testing.T) {
		e := newEnv(t, &fakeImport{extraction: &importservice.Extraction{Candidates: candidates}}, 1<<20)
		rec := e.do(multipartRequest(t, "/api/uploads/receipt", "file", "r.txt", []byte("Total: $45.00")))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["imported"])
		assert.NotContains(t, body, "skipped")

		items := body["items"].([]any)
		item := items[0].(map[string]any)
		assert.Equal(t, "2025-10-15", item["date"])
		assert.Equal(t, 45.0, item["amount"])
		assert.Equal(t, "EXPENSE", item["type"])
		assert.Equal(t, "r.txt", e.svc.doc.Name)
	})

	t.Run("statement reports skipped lines", func(t *testing.T) {
		svc := &fakeImport{extraction: &importservice.Extraction{
			Candidates: candidates,
			Skipped:    2,
			Errors:     []parser.ParseError{{Row: 3, Column: "amount", Message: "invalid amount", RawData: "bad"}},
		}}
		e := newEnv(t, svc, 1<<20)
		rec := e.do(multipartRequest(t, "/api/uploads/statement", "file", "s.pdf", []byte("%PDF-1.4")))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"skipped":2`)
		assert.Contains(t, rec.Body.String(), `"rawData":"bad"`)
	})

	t.Run("missing file field", func(t *testing.T) {
		e := newEnv(t, &fakeImport{}, 1<<20)
		rec := e.do(multipartRequest(t, "/api/uploads/receipt", "upload", "r.txt", []byte("x")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		e := newEnv(t, &fakeImport{}, 16)
		rec := e.do(multipartRequest(t, "/api/uploads/receipt", "file", "r.txt", bytes.Repeat([]byte("a"), 64)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	errCases := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"extraction failure", "/api/uploads/receipt", &importservice.ExtractionError{Reason: "no amounts", Skipped: 1, Examples: []string{"hi"}}, http.StatusUnprocessableEntity},
		{"not a pdf", "/api/uploads/statement", importservice.ErrNotPDF, http.StatusUnsupportedMediaType},
		{"unsupported", "/api/uploads/receipt", importservice.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"ai not configured", "/api/uploads/ai-receipt", importservice.ErrAIUnavailable, http.StatusServiceUnavailable},
		{"ocr not configured", "/api/uploads/receipt", importservice.ErrOCRUnavailable, http.StatusServiceUnavailable},
		{"ai failed", "/api/uploads/ai-receipt", fmt.Errorf("%w: boom", importservice.ErrAIFailed), http.StatusBadGateway},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t, &fakeImport{err: tc.err}, 1<<20)
			rec := e.do(multipartRequest(t, tc.path, "file", "f.bin", []byte("data")))
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	t.Run("extraction failure details", func(t *testing.T) {
		e := newEnv(t, &fakeImport{err: &importservice.ExtractionError{Reason: "no amounts", Skipped: 1, Examples: []string{"hi"}}}, 1<<20)
		rec := e.do(multipartRequest(t, "/api/uploads/receipt", "file", "f.txt", []byte("hi")))

		var body struct {
			Error   string `json:"error"`
			Details struct {
				Skipped  int      `json:"skipped"`
				Examples []string `json:"examples"`
			} `json:"details"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "no amounts", body.Error)
		assert.Equal(t, 1, body.Details.Skipped)
		assert.Equal(t, []string{"hi"}, body.Details.Examples)
	})
}

func TestImportHandler_Confirm(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		e := newEnv(t, &fakeImport{}, 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/api/uploads/confirm", strings.NewReader(
			`{"source":"receipt","transactions":[{"date":"2025-10-14","description":"Market","category":"Groceries","amount":45,"type":"EXPENSE"}]}`))
		rec := e.do(req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, transactions.SourceReceipt, e.svc.source)
		require.Len(t, e.svc.items, 1)
		assert.Equal(t, 14, e.svc.items[0].Date.Day())
		assert.Contains(t, rec.Body.String(), `"imported":1`)
		assert.Contains(t, rec.Body.String(), `"amount":45`)
	})

	t.Run("source defaults to ai", func(t *testing.T) {
		e := newEnv(t, &fakeImport{}, 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/api/uploads/confirm", strings.NewReader(
			`{"transactions":[{"date":"2025-10-14","category":"Dining","amount":"12.50","type":"expense"}]}`))
		rec := e.do(req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, transactions.SourceAI, e.svc.source)
	})

	t.Run("date-only values are midnight in the service zone", func(t *testing.T) {
		lisbon := time.FixedZone("WEST", 3600)
		e := newEnv(t, &fakeImport{loc: lisbon}, 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/api/uploads/confirm", strings.NewReader(
			`{"transactions":[{"date":"2025-10-14","category":"Dining","amount":3,"type":"EXPENSE"}]}`))
		rec := e.do(req)

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, e.svc.items, 1)
		assert.True(t, time.Date(2025, 10, 14, 0, 0, 0, 0, lisbon).Equal(*e.svc.items[0].Date))
		assert.Equal(t, lisbon, e.svc.items[0].Date.Location())
	})

	t.Run("bad date", func(t *testing.T) {
		e := newEnv(t, &fakeImport{}, 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/api/uploads/confirm", strings.NewReader(
			`{"transactions":[{"date":"14/10/2025","category":"Dining","amount":1,"type":"EXPENSE"}]}`))
		rec := e.do(req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "transactions[0].date")
		assert.Nil(t, e.svc.items)
	})

	t.Run("unknown source", func(t *testing.T) {
		e := newEnv(t, &fakeImport{}, 1<<20)
		req := httptest.NewRequest(http.MethodPost, "/api/uploads/confirm", strings.NewReader(
			`{"source":"bank","transactions":[]}`))
		rec := e.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportHandler_Files(t *testing.T) {
	e := newEnv(t, &fakeImport{}, 1<<20)
	ctx := context.Background()

	info, err := e.files.Upload(ctx, e.userID, storage.KindReceipt, "receipt.txt", "text/plain", strings.NewReader("Total 4.50"))
	require.NoError(t, err)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/api/uploads/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), info.ID.String())

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/uploads/files/"+info.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Total 4.50", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "receipt.txt")

	rec = e.do(httptest.NewRequest(http.MethodDelete, "/api/uploads/files/"+info.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/uploads/files/"+info.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(httptest.NewRequest(http.MethodGet, "/api/uploads/files/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
