// Package cabal parses CABAL debit and credit settlement reports.
package cabal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/MrJamesThe3rd/liquidaciones/internal/encoding"
	"github.com/MrJamesThe3rd/liquidaciones/internal/scan"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

var defaultRules = DefaultGrammar().MustCompile()

// Parser turns a CABAL report into a settlement document. It holds no state
// between calls and may be shared.
type Parser struct {
	rules  *Rules
	logger *slog.Logger
}

type Option func(*Parser)

// WithRules replaces the built-in grammar.
func WithRules(r *Rules) Option {
	return func(p *Parser) {
		p.rules = r
	}
}

// WithLogger receives skipped-line traces at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{rules: defaultRules, logger: slog.New(slog.DiscardHandler)}
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

// ParseText never fails on malformed lines; those end up in the document's
// diagnostics. ErrUnidentified is returned with the partial document when
// neither identity field was found.
func (p *Parser) ParseText(text string) (settlement.Document, error) {
	lines := scan.Segment(p.rules.stripper.Strip(text))
	sections := p.rules.locator.Locate(lines)

	b := &builder{rules: p.rules, logger: p.logger}

	b.section = SectionHeader
	for _, l := range lines {
		p.rules.header.apply(b, l)
	}

	p.sales(b, lines, sections.Get(SectionDebitSales), &b.rec.DebitSales)
	p.summary(b, lines, sections.Get(SectionDebitSummary), &b.rec.DebitSummary, bucketDebit)
	p.sales(b, lines, sections.Get(SectionCreditSales), &b.rec.CreditSales)
	p.summary(b, lines, sections.Get(SectionCreditSummary), &b.rec.CreditSummary, bucketCredit)
	p.final(b, lines, sections.Get(SectionFinal))
	p.net(b, lines, sections.Get(SectionNetFinal))

	rec := b.rec
	doc := settlement.Document{
		Format:      settlement.FormatCabal,
		Cabal:       &rec,
		Diagnostics: b.diags,
	}

	if !doc.Identified() {
		return doc, settlement.ErrUnidentified
	}

	return doc, nil
}

func (p *Parser) sales(b *builder, lines []scan.Line, sec scan.Section, target *settlement.Sales) {
	if !sec.Found {
		b.missing(sec.Name)
		return
	}

	b.section, b.sales = sec.Name, target

	for _, l := range sec.Body(lines) {
		p.rules.rows.apply(b, l)
	}
}

func (p *Parser) summary(b *builder, lines []scan.Line, sec scan.Section, target *settlement.Summary, scope bucket) {
	header, ok := sec.HeaderLine(lines)
	if !ok {
		b.missing(sec.Name)
		return
	}

	b.section, b.fees, b.scope = sec.Name, &target.Fees, scope
	b.salesTotal(target, header)

	for _, l := range sec.Body(lines) {
		p.rules.summary.apply(b, l)
	}
}

func (p *Parser) final(b *builder, lines []scan.Line, sec scan.Section) {
	header, ok := sec.HeaderLine(lines)
	if !ok {
		b.missing(sec.Name)
		return
	}

	b.section, b.fees, b.scope = sec.Name, &b.rec.Final.Fees, bucketNone
	b.paymentDateTotal(header)

	for _, l := range sec.Body(lines) {
		p.rules.final.apply(b, l)
	}
}

func (p *Parser) net(b *builder, lines []scan.Line, sec scan.Section) {
	header, ok := sec.HeaderLine(lines)
	if !ok {
		b.missing(sec.Name)
		return
	}

	b.section = sec.Name
	b.netFinal(header)
}
