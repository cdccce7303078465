package cabal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrJamesThe3rd/liquidaciones/internal/scan"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// FeePolicy decides which summary bucket a fee line belongs to.
type FeePolicy string

const (
	// PolicyExclusive keeps a fee line only when it carries the marker of the
	// summary it sits in and not the other one.
	PolicyExclusive FeePolicy = "exclusive"
	// PolicyAbsence keeps a fee line unless it carries the other summary's
	// marker; unmarked lines belong to the summary they sit in.
	PolicyAbsence FeePolicy = "absence"
)

// ParseFeePolicy accepts the configuration spelling of a policy.
func ParseFeePolicy(s string) (FeePolicy, error) {
	switch p := FeePolicy(s); p {
	case PolicyExclusive, PolicyAbsence:
		return p, nil
	default:
		return "", fmt.Errorf("unknown fee policy %q", s)
	}
}

// Section names, used in diagnostics and as grammar keys.
const (
	SectionDebitSales    = "debit_sales"
	SectionDebitSummary  = "debit_summary"
	SectionCreditSales   = "credit_sales"
	SectionCreditSummary = "credit_summary"
	SectionFinal         = "final"
	SectionNetFinal      = "net_final"
	SectionHeader        = "header"
)

type NoiseSpec struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
}

type SectionSpec struct {
	Header     string         `yaml:"header"`
	Terminator string         `yaml:"terminator,omitempty"`
	Match      scan.MatchMode `yaml:"match,omitempty"`
}

type SectionSpecs struct {
	DebitSales    SectionSpec `yaml:"debit_sales"`
	DebitSummary  SectionSpec `yaml:"debit_summary"`
	CreditSales   SectionSpec `yaml:"credit_sales"`
	CreditSummary SectionSpec `yaml:"credit_summary"`
	Final         SectionSpec `yaml:"final"`
	NetFinal      SectionSpec `yaml:"net_final"`
}

// HeaderFields are the line prefixes of the identity fields.
type HeaderFields struct {
	PaymentDate      string `yaml:"payment_date"`
	SettlementNumber string `yaml:"settlement_number"`
	AccountRef       string `yaml:"account_ref"`
}

type Markers struct {
	Debit  []string `yaml:"debit"`
	Credit []string `yaml:"credit"`
}

// FeeSpec maps a line prefix to a fee concept.
type FeeSpec struct {
	Concept settlement.Concept `yaml:"concept"`
	Phrase  string             `yaml:"phrase"`
}

// Grammar is every phrase, marker and pattern the CABAL parser relies on.
// Report layout drift is handled by editing a Grammar, usually through a
// YAML file passed to LoadGrammar.
type Grammar struct {
	Noise       []NoiseSpec  `yaml:"noise"`
	Fields      HeaderFields `yaml:"fields"`
	Sections    SectionSpecs `yaml:"sections"`
	DateRow     string       `yaml:"date_row"`
	TotalMarker string       `yaml:"total_marker"`
	Markers     Markers      `yaml:"markers"`
	Policy      FeePolicy    `yaml:"policy"`
	SummaryFees []FeeSpec    `yaml:"summary_fees"`
	FinalFees   []FeeSpec    `yaml:"final_fees"`
	Percentage  string       `yaml:"percentage"`
	Reference   string       `yaml:"reference"`
}

func feeSpecs(concepts ...settlement.Concept) []FeeSpec {
	specs := make([]FeeSpec, len(concepts))
	for i, c := range concepts {
		specs[i] = FeeSpec{Concept: c, Phrase: string(c)}
	}

	return specs
}

// DefaultGrammar returns the layout of the Credicoop CABAL settlement.
func DefaultGrammar() Grammar {
	return Grammar{
		Noise: []NoiseSpec{
			{Name: "continued_next", Pattern: `(?i)CONTINUA EN PAGINA SIGUIENTE.*?>>>`},
			{Name: "continued_prev", Pattern: `(?i)>>>>>> VIENE DE PAGINA ANTERIOR.*?\n`},
			{Name: "letterhead", Pattern: `(?is)Banco Credicoop.*?Argentina`},
			{Name: "fiscal", Pattern: `(?is)ENCUADRES FISCALES.*?INS`},
		},
		Fields: HeaderFields{
			PaymentDate:      "FECHA DE PAGO",
			SettlementNumber: "LIQUIDACION NRO",
			AccountRef:       "CUENTA P/ACREDITAR",
		},
		Sections: SectionSpecs{
			DebitSales: SectionSpec{
				Header:     "VENTAS CORRESPONDIENTES A CABAL DEBITO",
				Terminator: "CABAL DEBITO TOTAL",
			},
			DebitSummary: SectionSpec{Header: "CABAL DEBITO TOTAL DE VENTAS"},
			CreditSales: SectionSpec{
				Header:     "VENTAS CORRESPONDIENTES A TARJETA DE CREDITO",
				Terminator: "TARJETA DE CREDITO TOTAL",
			},
			CreditSummary: SectionSpec{Header: "TARJETA DE CREDITO TOTAL DE VENTAS"},
			Final:         SectionSpec{Header: "TOT. FEC. PAGO"},
			NetFinal:      SectionSpec{Header: "IMPORTE NETO FINAL"},
		},
		DateRow:     `^\d{2}/\d{2}/\d{4}\b`,
		TotalMarker: "*TOTAL*",
		Markers: Markers{
			Debit:  []string{"DEBITO"},
			Credit: []string{"CREDITO"},
		},
		Policy: PolicyExclusive,
		SummaryFees: feeSpecs(
			settlement.ConceptFee,
			settlement.ConceptFeeVAT,
			settlement.ConceptFinancialCostVAT,
			settlement.ConceptFinancialCost,
		),
		FinalFees:  feeSpecs(settlement.Concepts()...),
		Percentage: `(\d+,\d+)%`,
		Reference:  `(?:^|\s)(\d[\d.]*,\d+)\s+-?\d[\d.]*,\d+`,
	}
}

// LoadGrammar overlays a YAML document on DefaultGrammar. Keys absent from
// the document keep their defaults; lists present in it replace the default
// list wholesale.
func LoadGrammar(r io.Reader) (Grammar, error) {
	g := DefaultGrammar()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&g); err != nil && !errors.Is(err, io.EOF) {
		return Grammar{}, fmt.Errorf("decode grammar: %w", err)
	}

	if err := g.Validate(); err != nil {
		return Grammar{}, err
	}

	return g, nil
}

// LoadGrammarFile reads a grammar override from path.
func LoadGrammarFile(path string) (Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return Grammar{}, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return LoadGrammar(f)
}

// Validate checks the structural completeness of g. Patterns are checked by
// Compile.
func (g Grammar) Validate() error {
	var errs []error

	for name, s := range g.Sections.byName() {
		if s.Header == "" {
			errs = append(errs, fmt.Errorf("section %s: empty header", name))
		}

		if s.Match != "" && s.Match != scan.MatchPrefix && s.Match != scan.MatchContains {
			errs = append(errs, fmt.Errorf("section %s: unknown match mode %q", name, s.Match))
		}
	}

	if _, err := ParseFeePolicy(string(g.Policy)); err != nil {
		errs = append(errs, err)
	}

	if len(g.Markers.Debit) == 0 || len(g.Markers.Credit) == 0 {
		errs = append(errs, errors.New("markers: debit and credit markers are required"))
	}

	if g.TotalMarker == "" {
		errs = append(errs, errors.New("total_marker: empty"))
	}

	for _, f := range append(append([]FeeSpec{}, g.SummaryFees...), g.FinalFees...) {
		if !f.Concept.Valid() {
			errs = append(errs, fmt.Errorf("fee %q: unknown concept %q", f.Phrase, f.Concept))
		}

		if f.Phrase == "" {
			errs = append(errs, fmt.Errorf("fee %q: empty phrase", f.Concept))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid grammar: %w", err)
	}

	return nil
}

func (s SectionSpecs) byName() map[string]SectionSpec {
	return map[string]SectionSpec{
		SectionDebitSales:    s.DebitSales,
		SectionDebitSummary:  s.DebitSummary,
		SectionCreditSales:   s.CreditSales,
		SectionCreditSummary: s.CreditSummary,
		SectionFinal:         s.Final,
		SectionNetFinal:      s.NetFinal,
	}
}

// headers lists the sections in document order for the locator.
func (s SectionSpecs) headers() []scan.Header {
	ordered := []struct {
		name string
		spec SectionSpec
	}{
		{SectionDebitSales, s.DebitSales},
		{SectionDebitSummary, s.DebitSummary},
		{SectionCreditSales, s.CreditSales},
		{SectionCreditSummary, s.CreditSummary},
		{SectionFinal, s.Final},
		{SectionNetFinal, s.NetFinal},
	}

	headers := make([]scan.Header, len(ordered))
	for i, o := range ordered {
		mode := o.spec.Match
		if mode == "" {
			mode = scan.MatchPrefix
		}

		headers[i] = scan.Header{
			Name:       o.name,
			Phrase:     o.spec.Header,
			Terminator: o.spec.Terminator,
			Mode:       mode,
		}
	}

	return headers
}
