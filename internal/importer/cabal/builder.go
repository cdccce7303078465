package cabal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
	"github.com/MrJamesThe3rd/liquidaciones/internal/scan"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// builder accumulates one record while the rule tables run over it. The
// sales, fees and scope fields point at the part of the record the current
// section writes to.
type builder struct {
	rules  *Rules
	logger *slog.Logger

	rec   settlement.Cabal
	diags []settlement.Diagnostic

	section string
	sales   *settlement.Sales
	fees    *[]settlement.FeeRow
	scope   bucket
}

func (b *builder) note(l scan.Line, kind settlement.DiagnosticKind, reason string) {
	b.diags = append(b.diags, settlement.Diagnostic{
		Line:    l.Index,
		Section: b.section,
		Kind:    kind,
		Reason:  reason,
		Text:    l.Text,
	})

	b.logger.Debug("recovered line",
		"line", l.Index+1,
		"section", b.section,
		"kind", kind,
		"reason", reason,
	)
}

func (b *builder) missing(section string) {
	b.diags = append(b.diags, settlement.Diagnostic{
		Line:    -1,
		Section: section,
		Kind:    settlement.KindMissingSection,
		Reason:  "section header not found",
	})

	b.logger.Debug("section not found", "section", section)
}

// setHeader keeps the first value seen; headers repeat on every page.
func (b *builder) setHeader(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (b *builder) amount(l scan.Line, tok string) decimal.Decimal {
	d, err := locale.ParseAmount(tok)
	if err != nil {
		b.note(l, settlement.KindBadAmount, err.Error())
		return decimal.Zero
	}

	return d
}

func (b *builder) count(l scan.Line, tok string) int {
	n, err := locale.Count(tok)
	if err != nil {
		b.note(l, settlement.KindBadCount, err.Error())
		return 0
	}

	return n
}

func (b *builder) optional(l scan.Line, re *regexp.Regexp) decimal.NullDecimal {
	m := re.FindStringSubmatch(l.Text)
	if m == nil {
		return decimal.NullDecimal{}
	}

	d, err := locale.ParseAmount(m[1])
	if err != nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}

func (b *builder) detailRow(l scan.Line) {
	t := l.Tokens()
	if len(t) < 5 {
		b.note(l, settlement.KindSkippedRow, fmt.Sprintf("detail row has %d tokens, want at least 5", len(t)))
		return
	}

	b.sales.Details = append(b.sales.Details, settlement.DetailRow{
		Date:        locale.Date(t[0]),
		Coupon:      t[1],
		Card:        t[2],
		Installment: t[3],
		Amount:      b.amount(l, t[4]),
	})
}

func (b *builder) terminalRow(l scan.Line) {
	t := make([]string, 0, len(l.Tokens()))

	for _, tok := range l.Tokens() {
		if scan.Key(tok) != b.rules.marker {
			t = append(t, tok)
		}
	}

	if len(t) < 5 {
		b.note(l, settlement.KindSkippedRow, fmt.Sprintf("terminal total row has %d fields, want at least 5", len(t)))
		return
	}

	total := t[len(t)-1]

	for i := len(t) - 1; i > 3; i-- {
		if hasDigit(t[i]) {
			total = t[i]
			break
		}
	}

	b.sales.Terminals = append(b.sales.Terminals, settlement.TerminalTotalRow{
		Date:     locale.Date(t[0]),
		Batch:    t[1],
		Terminal: t[2],
		Count:    b.count(l, t[3]),
		Total:    b.amount(l, total),
	})
}

func (b *builder) feeRow(concept settlement.Concept, l scan.Line) {
	fees := b.fees

	if b.scope != bucketNone {
		target, kind, reason, ok := b.rules.admits(b.scope, l)
		if !ok {
			b.note(l, kind, reason)
			return
		}

		if target != b.scope {
			fees = b.summaryFees(target)
			b.note(l, settlement.KindRoutedFee, "fee line moved to the summary its marker names")
		}
	}

	t := l.Tokens()

	*fees = append(*fees, settlement.FeeRow{
		Concept:    concept,
		Percentage: b.optional(l, b.rules.percentage),
		Reference:  b.optional(l, b.rules.reference),
		Amount:     b.amount(l, t[len(t)-1]),
	})
}

func (b *builder) summaryFees(scope bucket) *[]settlement.FeeRow {
	if scope == bucketCredit {
		return &b.rec.CreditSummary.Fees
	}

	return &b.rec.DebitSummary.Fees
}

// trailingPair returns the count and total that close a totals line.
func (b *builder) trailingPair(l scan.Line) (int, decimal.Decimal, bool) {
	t := l.Tokens()
	if len(t) < 3 || !hasDigit(t[len(t)-1]) || !hasDigit(t[len(t)-2]) {
		b.note(l, settlement.KindSkippedRow, "totals line lacks count and total")
		return 0, decimal.Zero, false
	}

	return b.count(l, t[len(t)-2]), b.amount(l, t[len(t)-1]), true
}

func (b *builder) salesTotal(summary *settlement.Summary, l scan.Line) {
	if n, total, ok := b.trailingPair(l); ok {
		summary.Count = n
		summary.Total = total
	}
}

func (b *builder) paymentDateTotal(l scan.Line) {
	n, total, ok := b.trailingPair(l)
	if !ok {
		return
	}

	by := settlement.PaymentDateTotal{Count: n, Total: total}

	for _, tok := range l.Tokens() {
		if locale.IsDate(tok) {
			by.Date = locale.Date(tok)
			break
		}
	}

	b.rec.Final.ByPaymentDate = by
}

func (b *builder) netFinal(l scan.Line) {
	t := l.Tokens()
	last := t[len(t)-1]

	if !hasDigit(last) {
		b.note(l, settlement.KindBadAmount, "net final line carries no amount")
		return
	}

	b.rec.Final.NetFinal = b.amount(l, last)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// dateValue normalizes a header date while keeping any free text intact.
func dateValue(v string) string {
	first, _, _ := strings.Cut(v, " ")
	if locale.IsDate(first) {
		return locale.Date(first)
	}

	return v
}
