// Package nacion parses Banco Nación settlement reports. The layout is
// looser than CABAL's, so extraction works on patterns over the whole text
// and on runs of table-shaped lines.
package nacion

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/encoding"
	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
	"github.com/MrJamesThe3rd/liquidaciones/internal/scan"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const (
	minTableTokens = 3
	maxTableTokens = 12
	keptTables     = 2
)

var (
	paymentDatePattern   = regexp.MustCompile(`(?i)fecha\s*de\s*pago[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)
	accreditationPattern = regexp.MustCompile(`(?i)se\s+acredit[oó]\s+en[:\s]+(\d[\d\s/-]*?)\s*\$?\s*(\d{1,3}(?:\.\d{3})*,\d{2}|\d+,\d{2})`)
	amountPattern        = regexp.MustCompile(`-?\d{1,3}(?:\.\d{3})*,\d+|-?\d+,\d+`)
	loosePattern         = regexp.MustCompile(`[\d.,]*\d[\d.,]*`)
)

// totalsLine is a phrase whose first line carries one of the totals.
type totalsLine struct {
	name   string
	phrase string
	set    func(t *settlement.NacionTotals, d decimal.NullDecimal)
}

var totalsLines = []totalsLine{
	{
		name:   "total_presented",
		phrase: "TOTAL PRESENTADO",
		set:    func(t *settlement.NacionTotals, d decimal.NullDecimal) { t.Presented = d },
	},
	{
		name:   "total_discount",
		phrase: "TOTAL DESCUENTO",
		set:    func(t *settlement.NacionTotals, d decimal.NullDecimal) { t.Discount = d },
	},
	{
		name:   "balance",
		phrase: "SALDO",
		set:    func(t *settlement.NacionTotals, d decimal.NullDecimal) { t.Balance = d },
	},
}

type Parser struct {
	logger *slog.Logger
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Parser) Parse(r io.Reader) (settlement.Document, error) {
	text, err := encoding.ReadText(r)
	if err != nil {
		return settlement.Document{}, fmt.Errorf("read report: %w", err)
	}

	return p.ParseText(text)
}

// ParseText extracts the payment date, totals, up to two tables and the
// accreditation line. The payment date is the only identity field.
func (p *Parser) ParseText(text string) (settlement.Document, error) {
	lines := scan.Segment(text)

	source := make([]string, len(lines))
	for i, l := range lines {
		source[i] = l.Text
	}

	x := &extraction{
		logger:   p.logger,
		text:     strings.Join(source, "\n"),
		consumed: make(map[int]bool),
	}

	rec := settlement.Nacion{
		PaymentDate:   x.paymentDate(),
		Totals:        x.totals(lines),
		Accreditation: x.accreditation(),
		Source:        source,
	}

	found := tables(lines, x.consumed)
	if len(found) > 0 {
		rec.Movements = found[0]
	} else {
		x.missing("movements", "no table-shaped lines")
	}

	if len(found) > 1 {
		rec.Details = found[1]
	}

	doc := settlement.Document{
		Format:      settlement.FormatNacion,
		Nacion:      &rec,
		Diagnostics: x.diags,
	}

	if !doc.Identified() {
		return doc, settlement.ErrUnidentified
	}

	return doc, nil
}

// extraction tracks which lines the scalar extractors consumed so that they
// are not repeated as table rows.
type extraction struct {
	logger   *slog.Logger
	text     string
	consumed map[int]bool
	diags    []settlement.Diagnostic
}

// consume marks the lines spanned by text[start:end].
func (x *extraction) consume(start, end int) {
	first := strings.Count(x.text[:start], "\n")
	last := first + strings.Count(x.text[start:end], "\n")

	for i := first; i <= last; i++ {
		x.consumed[i] = true
	}
}

func (x *extraction) missing(section, reason string) {
	x.diags = append(x.diags, settlement.Diagnostic{
		Line:    -1,
		Section: section,
		Kind:    settlement.KindMissingSection,
		Reason:  reason,
	})

	x.logger.Debug("section not found", "section", section, "reason", reason)
}

func (x *extraction) paymentDate() string {
	m := paymentDatePattern.FindStringSubmatchIndex(x.text)
	if m == nil {
		x.missing("payment_date", "no payment date line")
		return ""
	}

	x.consume(m[0], m[1])

	return locale.Date(x.text[m[2]:m[3]])
}

func (x *extraction) totals(lines []scan.Line) settlement.NacionTotals {
	var totals settlement.NacionTotals

	for _, tl := range totalsLines {
		key := scan.Key(tl.phrase)

		idx := -1

		for i, l := range lines {
			if strings.Contains(l.Key, key) {
				idx = i
				break
			}
		}

		if idx < 0 {
			x.missing(tl.name, "totals line not found")
			continue
		}

		x.consumed[idx] = true
		tl.set(&totals, x.amount(lines[idx], tl.name))
	}

	return totals
}

// amount takes the first amount-shaped token of l, falling back to the
// first run of digits and separators.
func (x *extraction) amount(l scan.Line, section string) decimal.NullDecimal {
	tok := amountPattern.FindString(l.Text)
	if tok == "" {
		tok = loosePattern.FindString(l.Text)
	}

	d, err := locale.ParseAmount(tok)
	if err != nil {
		x.diags = append(x.diags, settlement.Diagnostic{
			Line:    l.Index,
			Section: section,
			Kind:    settlement.KindBadAmount,
			Reason:  err.Error(),
			Text:    l.Text,
		})

		x.logger.Debug("recovered line", "line", l.Index+1, "section", section, "reason", err.Error())

		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}

func (x *extraction) accreditation() *settlement.Accreditation {
	m := accreditationPattern.FindStringSubmatchIndex(x.text)
	if m == nil {
		return nil
	}

	x.consume(m[0], m[1])

	return &settlement.Accreditation{
		Account: strings.Join(strings.Fields(x.text[m[2]:m[3]]), " "),
		Amount:  locale.Amount(x.text[m[4]:m[5]]),
	}
}

// tables groups consecutive table-shaped lines: lines with a digit and a
// moderate number of tokens. Consumed lines break a run. Only the first
// keptTables runs are returned.
func tables(lines []scan.Line, consumed map[int]bool) []settlement.Table {
	var (
		out     []settlement.Table
		current settlement.Table
	)

	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}

	for _, l := range lines {
		tokens := l.Tokens()

		if !consumed[l.Index] && strings.IndexFunc(l.Text, unicode.IsDigit) >= 0 &&
			len(tokens) >= minTableTokens && len(tokens) <= maxTableTokens {
			current = append(current, tokens)
			continue
		}

		flush()
	}

	flush()

	if len(out) > keptTables {
		out = out[:keptTables]
	}

	return out
}
