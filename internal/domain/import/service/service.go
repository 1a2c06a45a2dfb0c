// Package service provides the import orchestration logic: reading text out
// of uploaded documents, turning it into candidates and confirming them.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/ai"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
	"github.com/FACorreiaa/pocket-ledger/pkg/pdftext"
	"github.com/FACorreiaa/pocket-ledger/pkg/storage"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported file type; upload a PDF, an image or plain text")
	ErrNotPDF           = errors.New("statement must be a PDF")
	ErrOCRUnavailable   = errors.New("image text recognition is not configured")
	ErrAIUnavailable    = errors.New("AI extraction is not configured")
	ErrAIFailed         = errors.New("AI extraction failed")
)

const maxFailureExamples = 5

var tracer = otel.Tracer("github.com/FACorreiaa/pocket-ledger/internal/domain/import/service")

// ExtractionError reports a document that yielded no candidates.
type ExtractionError struct {
	Reason   string
	Skipped  int
	Examples []string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %s (%d lines skipped)", e.Reason, e.Skipped)
}

// Document is an uploaded file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Extraction is the outcome of one upload. Skipped and Errors are only set
// by the statement parser.
type Extraction struct {
	File       *storage.FileInfo
	Candidates []parser.Candidate
	Skipped    int
	Errors     []parser.ParseError
}

// ConfirmItem is a candidate as sent back by the user.
type ConfirmItem struct {
	Date        *time.Time
	Description string
	Category    string
	Amount      decimal.Decimal
	Type        string
}

// TransactionStore persists confirmed batches atomically.
type TransactionStore interface {
	CreateBatch(ctx context.Context, userID uuid.UUID, in []transactions.NewTransaction) ([]transactions.Transaction, error)
}

// ImportService handles uploads for the receipt, statement and AI paths.
type ImportService struct {
	store     TransactionStore
	files     storage.Storage
	ocr       ai.Transcriber
	extractor *parser.AIExtractor
	scanner   *parser.ReceiptScanner
	currency  string
	now       func() time.Time
	logger    *slog.Logger
}

// NewImportService creates the service. files may be nil to skip archiving.
func NewImportService(store TransactionStore, files storage.Storage, currency string, logger *slog.Logger) *ImportService {
	return &ImportService{
		store:    store,
		files:    files,
		scanner:  parser.NewReceiptScanner(),
		currency: currency,
		now:      time.Now,
		logger:   logger,
	}
}

// WithOCR enables text recognition for image uploads.
func (s *ImportService) WithOCR(t ai.Transcriber) *ImportService {
	s.ocr = t
	return s
}

// WithAI enables the model-assisted extraction path.
func (s *ImportService) WithAI(gen ai.Generator) *ImportService {
	s.extractor = parser.NewAIExtractor(gen, categorization.KnownCategories)
	return s
}

// WithClock overrides the wall clock used for candidate dates.
func (s *ImportService) WithClock(now func() time.Time) *ImportService {
	s.now = now
	return s
}

// Currency returns the ISO code amounts are denominated in.
func (s *ImportService) Currency() string {
	return s.currency
}

// Location is the zone of the service clock.
func (s *ImportService) Location() *time.Location {
	return s.now().Location()
}

// ExtractReceipt runs the heuristic line scan over a receipt.
func (s *ImportService) ExtractReceipt(ctx context.Context, userID uuid.UUID, doc Document) (*Extraction, error) {
	ctx, span := tracer.Start(ctx, "import.ExtractReceipt")
	defer span.End()

	mt := mimetype.Detect(doc.Data)
	text, err := s.documentText(ctx, doc, mt)
	if err != nil {
		return nil, err
	}
	file := s.archive(ctx, userID, storage.KindReceipt, doc, mt)

	candidates := s.scanner.Scan(text, s.now())
	if len(candidates) == 0 {
		return nil, noCandidates("no amounts found on the receipt", text)
	}

	s.record(span, "receipt", len(candidates))
	return &Extraction{File: file, Candidates: candidates}, nil
}

// ExtractStatement parses a tabular PDF statement.
func (s *ImportService) ExtractStatement(ctx context.Context, userID uuid.UUID, doc Document) (*Extraction, error) {
	ctx, span := tracer.Start(ctx, "import.ExtractStatement")
	defer span.End()

	mt := mimetype.Detect(doc.Data)
	if !mt.Is("application/pdf") {
		return nil, ErrNotPDF
	}

	text, err := s.documentText(ctx, doc, mt)
	if err != nil {
		return nil, err
	}
	file := s.archive(ctx, userID, storage.KindStatement, doc, mt)

	res := parser.ParseStatement(text, s.now().Location())
	if len(res.Candidates) == 0 {
		examples := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			examples = append(examples, e.RawData)
		}
		return nil, &ExtractionError{Reason: "no statement lines could be parsed", Skipped: res.Skipped, Examples: examples}
	}

	s.logger.Info("statement parsed",
		slog.String("user_id", userID.String()),
		slog.Int("lines", res.TotalLines),
		slog.Int("candidates", len(res.Candidates)),
		slog.Int("skipped", res.Skipped),
	)
	s.record(span, "statement", len(res.Candidates))
	return &Extraction{File: file, Candidates: res.Candidates, Skipped: res.Skipped, Errors: res.Errors}, nil
}

// ExtractWithAI asks the model to structure the document's text.
func (s *ImportService) ExtractWithAI(ctx context.Context, userID uuid.UUID, doc Document) (*Extraction, error) {
	if s.extractor == nil {
		metrics.AIRequests.WithLabelValues("extraction", "unavailable").Inc()
		return nil, ErrAIUnavailable
	}

	ctx, span := tracer.Start(ctx, "import.ExtractWithAI")
	defer span.End()

	mt := mimetype.Detect(doc.Data)
	text, err := s.documentText(ctx, doc, mt)
	if err != nil {
		return nil, err
	}
	file := s.archive(ctx, userID, storage.KindAIReceipt, doc, mt)

	candidates, err := s.extractor.Extract(ctx, text, s.now())
	if err != nil {
		span.RecordError(err)
		metrics.AIRequests.WithLabelValues("extraction", "error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrAIFailed, err)
	}
	metrics.AIRequests.WithLabelValues("extraction", "ok").Inc()

	if len(candidates) == 0 {
		return nil, noCandidates("the model found no transactions", text)
	}

	s.record(span, "ai", len(candidates))
	return &Extraction{File: file, Candidates: candidates}, nil
}

// Confirm validates every item and persists the batch in one transaction.
// A single invalid item rejects the whole batch.
func (s *ImportService) Confirm(ctx context.Context, userID uuid.UUID, source transactions.Source, items []ConfirmItem) ([]transactions.Transaction, error) {
	if len(items) == 0 {
		return nil, httpx.NewValidationError("transactions", "must contain at least one transaction")
	}

	now := s.now()
	verr := &httpx.ValidationError{}
	batch := make([]transactions.NewTransaction, 0, len(items))

	for i, it := range items {
		field := func(name string) string { return fmt.Sprintf("transactions[%d].%s", i, name) }

		txType, ok := transactions.ParseType(it.Type)
		if !ok {
			verr.Add(field("type"), transactions.ErrInvalidType.Error())
		}

		minor, err := money.ToMinor(it.Amount, s.currency)
		switch {
		case err != nil:
			verr.Add(field("amount"), err.Error())
		case minor <= 0:
			verr.Add(field("amount"), transactions.ErrInvalidAmount.Error())
		}

		category := strings.TrimSpace(it.Category)
		if category == "" {
			verr.Add(field("category"), transactions.ErrInvalidCategory.Error())
		}

		date := now
		if it.Date != nil && !it.Date.IsZero() {
			date = *it.Date
		}

		batch = append(batch, transactions.NewTransaction{
			Type:        txType,
			AmountMinor: minor,
			Category:    category,
			Description: it.Description,
			Date:        date,
			Source:      source,
		})
	}

	if verr.HasErrors() {
		return nil, verr
	}

	created, err := s.store.CreateBatch(ctx, userID, batch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("import confirmed",
		slog.String("user_id", userID.String()),
		slog.String("source", string(source)),
		slog.Int("count", len(created)),
	)
	return created, nil
}

// documentText reads the text of a PDF, an image (via OCR) or a plain text file.
func (s *ImportService) documentText(ctx context.Context, doc Document, mt *mimetype.MIME) (string, error) {
	var (
		text string
		err  error
	)

	switch {
	case mt.Is("application/pdf"):
		text, err = pdftext.Extract(doc.Data)
		if err != nil {
			s.logger.Warn("pdf text extraction failed", slog.String("file", doc.Name), slog.Any("error", err))
			return "", &ExtractionError{Reason: "no readable text in the PDF"}
		}
	case strings.HasPrefix(mt.String(), "image/"):
		if s.ocr == nil {
			return "", ErrOCRUnavailable
		}
		text, err = s.ocr.Transcribe(ctx, doc.Data, mt.String())
		if err != nil {
			metrics.AIRequests.WithLabelValues("ocr", "error").Inc()
			return "", fmt.Errorf("%w: %w", ErrAIFailed, err)
		}
		metrics.AIRequests.WithLabelValues("ocr", "ok").Inc()
	case mt.Is("text/plain"):
		text = string(bytes.TrimPrefix(doc.Data, []byte("\xef\xbb\xbf")))
	default:
		return "", ErrUnsupportedMedia
	}

	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Reason: "the document contains no readable text"}
	}
	return text, nil
}

// archive stores the upload; failures are logged and do not block extraction.
func (s *ImportService) archive(ctx context.Context, userID uuid.UUID, kind storage.Kind, doc Document, mt *mimetype.MIME) *storage.FileInfo {
	if s.files == nil {
		return nil
	}

	contentType := doc.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mt.String()
	}

	info, err := s.files.Upload(ctx, userID, kind, doc.Name, contentType, bytes.NewReader(doc.Data))
	if err != nil {
		s.logger.Warn("failed to archive upload",
			slog.String("user_id", userID.String()),
			slog.String("kind", string(kind)),
			slog.Any("error", err),
		)
		return nil
	}
	return info
}

func (s *ImportService) record(span trace.Span, strategy string, n int) {
	span.SetAttributes(attribute.String("import.strategy", strategy), attribute.Int("import.candidates", n))
	metrics.ExtractedCandidates.WithLabelValues(strategy).Add(float64(n))
}

func noCandidates(reason, text string) *ExtractionError {
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })
	examples := make([]string, 0, maxFailureExamples)
	skipped := 0
	for _, l := range lines {
		if l = strings.TrimSpace(l); l == "" {
			continue
		}
		skipped++
		if len(examples) < maxFailureExamples {
			examples = append(examples, l)
		}
	}
	return &ExtractionError{Reason: reason, Skipped: skipped, Examples: examples}
}
