package chat

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
)

// memLedger applies Filter semantics to an in-memory slice.
type memLedger struct {
	rows    []transactions.Transaction
	filters []transactions.Filter
}

func (m *memLedger) match(f transactions.Filter) []transactions.Transaction {
	m.filters = append(m.filters, f)
	var out []transactions.Transaction
	for _, t := range m.rows {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
			continue
		}
		if f.From != nil && t.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && t.Date.After(*f.To) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (m *memLedger) List(_ context.Context, _ uuid.UUID, f transactions.Filter) ([]transactions.Transaction, error) {
	rows := m.match(f)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, nil
}

func (m *memLedger) Count(_ context.Context, _ uuid.UUID, f transactions.Filter) (int, error) {
	return len(m.match(f)), nil
}

func (m *memLedger) Sum(_ context.Context, _ uuid.UUID, f transactions.Filter) (int64, error) {
	var total int64
	for _, t := range m.match(f) {
		total += t.AmountMinor
	}
	return total, nil
}

func (m *memLedger) Totals(_ context.Context, _ uuid.UUID, f transactions.Filter) (transactions.Totals, error) {
	f.Type = ""
	var out transactions.Totals
	for _, t := range m.match(f) {
		if t.Type == transactions.TypeIncome {
			out.IncomeMinor += t.AmountMinor
		} else {
			out.ExpenseMinor += t.AmountMinor
		}
		out.Count++
	}
	return out, nil
}

func (m *memLedger) CategoryTotals(_ context.Context, _ uuid.UUID, f transactions.Filter) ([]transactions.CategoryTotal, error) {
	byCat := map[string]*transactions.CategoryTotal{}
	var order []string
	for _, t := range m.match(f) {
		c, ok := byCat[t.Category]
		if !ok {
			c = &transactions.CategoryTotal{Category: t.Category}
			byCat[t.Category] = c
			order = append(order, t.Category)
		}
		c.AmountMinor += t.AmountMinor
		c.Count++
	}
	out := make([]transactions.CategoryTotal, 0, len(order))
	for _, k := range order {
		out = append(out, *byCat[k])
	}
	return out, nil
}

type fixedBudget int64

func (b fixedBudget) GetMonthlyBudget(context.Context, uuid.UUID) (int64, error) {
	return int64(b), nil
}

// scriptedGenerator returns errs in order, then text.
type scriptedGenerator struct {
	mu      sync.Mutex
	errs    []error
	text    string
	calls   int
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return "", err
	}
	return g.text, nil
}

func tx(typ transactions.Type, minor int64, category string, date time.Time) transactions.Transaction {
	return transactions.Transaction{
		ID:          uuid.New(),
		Type:        typ,
		AmountMinor: minor,
		Category:    category,
		Description: category + " purchase",
		Date:        date,
	}
}
