package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

const maxStatementExamples = 5

var statementDatePattern = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

// StatementResult holds the candidates of a tabular statement and the lines
// that did not parse. Errors keeps at most five examples; Skipped counts all.
type StatementResult struct {
	Candidates []Candidate
	Errors     []ParseError
	TotalLines int
	Skipped    int
}

// ParseStatement reads one transaction per non-empty line:
//
//	<date> <description...> <category> <amount> <INCOME|EXPENSE>
//
// Dates are calendar days in loc. Failing lines are counted, never fatal.
func ParseStatement(text string, loc *time.Location) *StatementResult {
	lines, rows := splitLines(text)
	res := &StatementResult{TotalLines: len(lines)}

	for i, line := range lines {
		c, perr := parseStatementLine(line, loc)
		if perr != nil {
			perr.Row = rows[i]
			res.Skipped++
			if len(res.Errors) < maxStatementExamples {
				res.Errors = append(res.Errors, *perr)
			}
			continue
		}
		res.Candidates = append(res.Candidates, *c)
	}
	return res
}

func parseStatementLine(line string, loc *time.Location) (*Candidate, *ParseError) {
	fields := strings.Fields(line)
	fail := func(column, message string) (*Candidate, *ParseError) {
		return nil, &ParseError{Column: column, Message: message, RawData: line}
	}

	if len(fields) < 2 {
		return fail("type", "too few fields")
	}

	n := len(fields)
	txType, ok := transactions.ParseType(fields[n-1])
	if !ok {
		return fail("type", "last field must be INCOME or EXPENSE")
	}

	if n < 3 {
		return fail("amount", "missing amount")
	}
	amount, err := money.ParseLoose(fields[n-2])
	if err != nil {
		return fail("amount", "not a number")
	}

	date, ok := statementDate(fields[0], loc)
	if !ok {
		return fail("date", "first field must contain a YYYY-M-D date")
	}

	if n < 5 {
		return fail("description", "missing description")
	}

	return &Candidate{
		Date:        date,
		Description: cleanDescription(strings.Join(fields[1:n-3], " ")),
		Category:    fields[n-3],
		Amount:      amount.Abs(),
		Type:        txType,
	}, nil
}

func statementDate(token string, loc *time.Location) (time.Time, bool) {
	m := statementDatePattern.FindStringSubmatch(token)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])

	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
