package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/pocket-ledger/internal/domain/import/service"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	txhandler "github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/handler"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

const (
	formField       = "file"
	multipartMemory = 8 << 20
)

// ImportService is the subset of *importservice.ImportService used here.
type ImportService interface {
	ExtractReceipt(ctx context.Context, userID uuid.UUID, doc importservice.Document) (*importservice.Extraction, error)
	ExtractStatement(ctx context.Context, userID uuid.UUID, doc importservice.Document) (*importservice.Extraction, error)
	ExtractWithAI(ctx context.Context, userID uuid.UUID, doc importservice.Document) (*importservice.Extraction, error)
	Confirm(ctx context.Context, userID uuid.UUID, source transactions.Source, items []importservice.ConfirmItem) ([]transactions.Transaction, error)
	Currency() string
	Location() *time.Location
}

// ImportHandler serves /api/uploads.
type ImportHandler struct {
	service  ImportService
	files    storage.Storage
	maxBytes int64
	logger   *slog.Logger
}

// NewImportHandler creates a new import handler. Uploads larger than maxBytes are refused.
func NewImportHandler(service ImportService, files storage.Storage, maxBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{service: service, files: files, maxBytes: maxBytes, logger: logger}
}

func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/receipt", h.upload(h.service.ExtractReceipt))
	r.Post("/statement", h.upload(h.service.ExtractStatement))
	r.Post("/ai-receipt", h.upload(h.service.ExtractWithAI))
	r.Post("/confirm", h.Confirm)

	r.Get("/files", h.ListFiles)
	r.Get("/files/{id}", h.Download)
	r.Delete("/files/{id}", h.DeleteFile)
}

// CandidateResponse is an unsaved transaction proposed by an extractor.
type CandidateResponse struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
}

type extractResponse struct {
	Imported int                 `json:"imported"`
	Items    []CandidateResponse `json:"items"`
	Skipped  *int                `json:"skipped,omitempty"`
	Errors   []parser.ParseError `json:"errors,omitempty"`
	File     *storage.FileInfo   `json:"file,omitempty"`
}

type confirmItem struct {
	Date        string          `json:"date"`
	Description string          `json:"description" validate:"max=255"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
}

type confirmRequest struct {
	Source       string        `json:"source" validate:"omitempty,oneof=receipt statement ai"`
	Transactions []confirmItem `json:"transactions" validate:"required,dive"`
}

type confirmResponse struct {
	Imported int                             `json:"imported"`
	Items    []txhandler.TransactionResponse `json:"items"`
}

type extractFunc func(ctx context.Context, userID uuid.UUID, doc importservice.Document) (*importservice.Extraction, error)

// upload reads the multipart file and hands it to one extraction strategy.
func (h *ImportHandler) upload(extract extractFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := interceptors.GetUserIDFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		doc, err := h.readDocument(w, r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ex, err := extract(r.Context(), userID, *doc)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		resp := extractResponse{
			Imported: len(ex.Candidates),
			Items:    h.candidates(ex.Candidates),
			File:     ex.File,
		}
		if ex.Errors != nil || ex.Skipped > 0 {
			skipped := ex.Skipped
			resp.Skipped = &skipped
			resp.Errors = ex.Errors
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

var errTooLarge = errors.New("file too large")

func (h *ImportHandler) readDocument(w http.ResponseWriter, r *http.Request) (*importservice.Document, error) {
	// Multipart framing needs a little room on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errTooLarge
		}
		return nil, httpx.NewValidationError(formField, "multipart form with a file is required")
	}

	f, header, err := r.FormFile(formField)
	if err != nil {
		return nil, httpx.NewValidationError(formField, "is required")
	}
	defer f.Close()

	if header.Size > h.maxBytes {
		return nil, errTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, errTooLarge
	}
	if len(data) == 0 {
		return nil, httpx.NewValidationError(formField, "file is empty")
	}

	return &importservice.Document{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Confirm persists the user-reviewed candidates as one atomic batch.
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req confirmRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	items := make([]importservice.ConfirmItem, 0, len(req.Transactions))
	verr := &httpx.ValidationError{}
	for i, it := range req.Transactions {
		item := importservice.ConfirmItem{
			Description: it.Description,
			Category:    it.Category,
			Amount:      it.Amount,
			Type:        it.Type,
		}
		if it.Date != "" {
			d, _, err := httpx.ParseDate(it.Date, h.service.Location())
			if err != nil {
				verr.Add(fmt.Sprintf("transactions[%d].date", i), "must be YYYY-MM-DD or RFC 3339")
			} else {
				item.Date = &d
			}
		}
		items = append(items, item)
	}
	if verr.HasErrors() {
		httpx.WriteValidation(w, verr)
		return
	}

	source := transactions.SourceAI
	if req.Source != "" {
		source = transactions.Source(req.Source)
	}

	created, err := h.service.Confirm(r.Context(), userID, source, items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := confirmResponse{Imported: len(created), Items: make([]txhandler.TransactionResponse, 0, len(created))}
	for _, t := range created {
		resp.Items = append(resp.Items, txhandler.ToResponse(t, h.service.Currency()))
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

// ListFiles returns the caller's archived uploads, newest first.
func (h *ImportHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	files, err := h.files.List(r.Context(), userID)
	if err != nil {
		httpx.WriteInternal(w, h.logger, r, err)
		return
	}
	if files == nil {
		files = []*storage.FileInfo{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"files": files})
}

// Download streams an archived upload back to its owner.
func (h *ImportHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, fileID, ok := h.fileRef(w, r)
	if !ok {
		return
	}

	rc, info, err := h.files.Open(r.Context(), userID, fileID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", info.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("download interrupted", slog.String("file_id", fileID.String()), slog.Any("error", err))
	}
}

// DeleteFile removes an archived upload.
func (h *ImportHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, fileID, ok := h.fileRef(w, r)
	if !ok {
		return
	}

	if err := h.files.Delete(r.Context(), userID, fileID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImportHandler) fileRef(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	fileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteValidation(w, httpx.NewValidationError("id", "must be a UUID"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, fileID, true
}

func (h *ImportHandler) candidates(in []parser.Candidate) []CandidateResponse {
	ccy := h.service.Currency()
	out := make([]CandidateResponse, 0, len(in))
	for _, c := range in {
		out = append(out, CandidateResponse{
			Date:        c.Date.Format("2006-01-02"),
			Description: c.Description,
			Category:    c.Category,
			Amount:      money.Round(c.Amount, ccy).InexactFloat64(),
			Type:        string(c.Type),
		})
	}
	return out
}

func (h *ImportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var exErr *importservice.ExtractionError
	switch {
	case errors.As(err, &exErr):
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, httpx.ErrorResponse{
			Error: exErr.Reason,
			Details: map[string]any{
				"skipped":  exErr.Skipped,
				"examples": exErr.Examples,
			},
		})
	case errors.Is(err, errTooLarge):
		httpx.WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", h.maxBytes))
	case errors.Is(err, importservice.ErrNotPDF), errors.Is(err, importservice.ErrUnsupportedMedia):
		httpx.WriteError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, importservice.ErrAIUnavailable), errors.Is(err, importservice.ErrOCRUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, importservice.ErrAIFailed):
		h.logger.Warn("ai extraction failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusBadGateway, importservice.ErrAIFailed.Error())
	case errors.Is(err, storage.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "file not found")
	default:
		httpx.WriteDomainError(w, h.logger, r, err)
	}
}
