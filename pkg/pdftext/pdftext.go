// Package pdftext pulls plain text rows out of text-based PDF documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for PDFs without an extractable text layer (e.g. scans).
var ErrNoText = errors.New("pdf contains no extractable text")

// gapFactor decides when two glyph runs on a row belong to different words.
const gapFactor = 0.15

// Extract returns the document's text with one visual row per line.
func Extract(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var lines []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("read page %d: %w", i, err)
		}
		for _, row := range rows {
			if line := JoinRow(row.Content); line != "" {
				lines = append(lines, line)
			}
		}
	}

	if len(lines) == 0 {
		return "", ErrNoText
	}
	return strings.Join(lines, "\n"), nil
}

// JoinRow glues the glyph runs of one row together, inserting a space wherever
// the horizontal gap to the previous run is wider than a fraction of the font size.
func JoinRow(texts pdf.TextHorizontal) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > t.FontSize*gapFactor {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
