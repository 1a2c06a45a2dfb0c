package transactions

import (
	"context"
	"fmt"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// ExportFormat selects the download encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

const (
	exportSheet    = "Transactions"
	exportPageSize = defaultListLimit
)

// ExportRow is one line of a CSV or XLSX export.
type ExportRow struct {
	Date        string `csv:"date"`
	Type        string `csv:"type"`
	Category    string `csv:"category"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
}

// Export is a rendered download.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders every transaction of the user matching f. f.Limit is ignored.
func (s *Service) Export(ctx context.Context, userID uuid.UUID, f Filter, format ExportFormat) (*Export, error) {
	txs, err := s.listAll(ctx, userID, f)
	if err != nil {
		return nil, err
	}

	rows := make([]ExportRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, ExportRow{
			Date:        t.Date.Format("2006-01-02"),
			Type:        string(t.Type),
			Category:    t.Category,
			Description: t.Description,
			Amount:      money.FromMinor(t.AmountMinor, s.currency).StringFixed(2),
		})
	}

	stamp := s.now().Format("20060102")
	switch format {
	case ExportXLSX:
		data, err := renderXLSX(rows)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    fmt.Sprintf("transactions-%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	default:
		data, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			return nil, fmt.Errorf("failed to render csv: %w", err)
		}
		return &Export{
			Filename:    fmt.Sprintf("transactions-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

// listAll walks the store in keyset pages until a short page comes back.
func (s *Service) listAll(ctx context.Context, userID uuid.UUID, f Filter) ([]Transaction, error) {
	f.Limit = exportPageSize
	f.After = nil

	var out []Transaction
	for {
		page, err := s.List(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < exportPageSize {
			return out, nil
		}
		f.After = CursorOf(page[len(page)-1])
	}
}

func renderXLSX(rows []ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Date", "Type", "Category", "Description", "Amount"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		line := []any{r.Date, r.Type, r.Category, r.Description, r.Amount}
		if err := f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", i+2), &line); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(exportSheet, "D", "D", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
