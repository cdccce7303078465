package settlement

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnidentified is returned together with a partial document when
	// neither the settlement number nor the payment date could be recovered.
	ErrUnidentified = errors.New("settlement not identified")
	ErrNotFound     = errors.New("settlement not found")
)

// Format identifies the report family a document was parsed from.
type Format string

const (
	FormatCabal  Format = "cabal"
	FormatNacion Format = "nacion"
)

// Concept is the closed set of fee-row concepts.
type Concept string

const (
	ConceptFee              Concept = "ARANCEL DE DESCUENTO"
	ConceptFeeVAT           Concept = "IVA S/ARANCEL DE DESCUENTO"
	ConceptFinancialCostVAT Concept = "IVA S/ARANCEL + COSTO FINANCIERO"
	ConceptFinancialCost    Concept = "COSTO FINANCIERO"
	ConceptNetToSettle      Concept = "NETO A LIQUIDAR POR VENTAS"
	ConceptVATPerception    Concept = "PERCEPCION DE IVA RG 333"
	ConceptIIBBPerception   Concept = "PERCEPCION DE IIBB"
	ConceptIIBBRetention    Concept = "RETENCION IIBB SIRTAC"
)

// Concepts lists every fee concept.
func Concepts() []Concept {
	return []Concept{
		ConceptFee,
		ConceptFeeVAT,
		ConceptFinancialCostVAT,
		ConceptFinancialCost,
		ConceptNetToSettle,
		ConceptVATPerception,
		ConceptIIBBPerception,
		ConceptIIBBRetention,
	}
}

// Valid reports whether c belongs to the closed concept set.
func (c Concept) Valid() bool {
	for _, known := range Concepts() {
		if c == known {
			return true
		}
	}

	return false
}

// Header carries the identity fields of a CABAL settlement.
type Header struct {
	PaymentDate      string `json:"payment_date"`
	SettlementNumber string `json:"settlement_number"`
	AccountRef       string `json:"account_ref"`
}

// DetailRow is one sale. Rows have positional identity; duplicates are kept.
type DetailRow struct {
	Date        string          `json:"date"`
	Coupon      string          `json:"coupon"`
	Card        string          `json:"card"`
	Installment string          `json:"installment"`
	Amount      decimal.Decimal `json:"amount"`
}

// TerminalTotalRow aggregates the sales of one terminal on one date.
type TerminalTotalRow struct {
	Date     string          `json:"date"`
	Batch    string          `json:"batch"`
	Terminal string          `json:"terminal"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// FeeRow is a deduction applied to gross sales. Percentage and Reference are
// optional annotations.
type FeeRow struct {
	Concept    Concept             `json:"concept"`
	Percentage decimal.NullDecimal `json:"percentage"`
	Reference  decimal.NullDecimal `json:"reference"`
	Amount     decimal.Decimal     `json:"amount"`
}

type Sales struct {
	Details   []DetailRow        `json:"details"`
	Terminals []TerminalTotalRow `json:"terminals"`
}

type Summary struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Fees  []FeeRow        `json:"fees"`
}

type PaymentDateTotal struct {
	Date  string          `json:"date"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type Final struct {
	ByPaymentDate PaymentDateTotal `json:"by_payment_date"`
	Fees          []FeeRow         `json:"fees"`
	NetFinal      decimal.Decimal  `json:"net_final"`
}

// Cabal is a parsed CABAL debit/credit settlement.
type Cabal struct {
	Header        Header  `json:"header"`
	DebitSales    Sales   `json:"debit_sales"`
	DebitSummary  Summary `json:"debit_summary"`
	CreditSales   Sales   `json:"credit_sales"`
	CreditSummary Summary `json:"credit_summary"`
	Final         Final   `json:"final"`
}

// NacionTotals holds the first amount found on each totals line.
type NacionTotals struct {
	Presented decimal.NullDecimal `json:"presented"`
	Discount  decimal.NullDecimal `json:"discount"`
	Balance   decimal.NullDecimal `json:"balance"`
}

type Accreditation struct {
	Account string          `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

// Table is a run of whitespace-tokenized report lines.
type Table [][]string

// Nacion is a parsed Banco Nación settlement.
type Nacion struct {
	PaymentDate   string         `json:"payment_date"`
	Totals        NacionTotals   `json:"totals"`
	Movements     Table          `json:"movements"`
	Details       Table          `json:"details"`
	Accreditation *Accreditation `json:"accreditation,omitempty"`
	Source        []string       `json:"source"`
}

// Document is the outcome of parsing one report. Exactly one of Cabal and
// Nacion is set, matching Format.
type Document struct {
	Format      Format       `json:"format"`
	Cabal       *Cabal       `json:"cabal,omitempty"`
	Nacion      *Nacion      `json:"nacion,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Identified reports whether the document carries at least one identity field.
func (d Document) Identified() bool {
	switch d.Format {
	case FormatCabal:
		return d.Cabal != nil && (d.Cabal.Header.SettlementNumber != "" || d.Cabal.Header.PaymentDate != "")
	case FormatNacion:
		return d.Nacion != nil && d.Nacion.PaymentDate != ""
	default:
		return false
	}
}

// PaymentDate returns the payment date of either format, or "".
func (d Document) PaymentDate() string {
	switch {
	case d.Cabal != nil:
		return d.Cabal.Header.PaymentDate
	case d.Nacion != nil:
		return d.Nacion.PaymentDate
	default:
		return ""
	}
}

// Skipped counts the source lines that were dropped during extraction.
func (d Document) Skipped() int {
	n := 0

	for _, diag := range d.Diagnostics {
		if diag.Kind.Dropped() {
			n++
		}
	}

	return n
}
