// Package workbook describes spreadsheets as plain sheet specs and renders
// them with excelize. Layout code builds specs; only Writer knows about
// styles, widths and the file format.
package workbook

import (
	"github.com/shopspring/decimal"
)

type CellKind int

const (
	KindBlank CellKind = iota
	KindText
	KindNumber
	KindCurrency
)

// Cell is a display string or a decimal rendered as a plain number or as
// currency.
type Cell struct {
	Kind  CellKind
	Text  string
	Value decimal.Decimal
}

func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

func Number(d decimal.Decimal) Cell {
	return Cell{Kind: KindNumber, Value: d}
}

func Int(n int) Cell {
	return Number(decimal.NewFromInt(int64(n)))
}

func Currency(d decimal.Decimal) Cell {
	return Cell{Kind: KindCurrency, Value: d}
}

func Blank() Cell {
	return Cell{}
}

// OptionalNumber renders an absent annotation as a blank cell.
func OptionalNumber(d decimal.NullDecimal) Cell {
	if !d.Valid {
		return Blank()
	}

	return Number(d.Decimal)
}

// OptionalCurrency is OptionalNumber with currency formatting.
func OptionalCurrency(d decimal.NullDecimal) Cell {
	if !d.Valid {
		return Blank()
	}

	return Currency(d.Decimal)
}

// Row is one spreadsheet row. Header rows are rendered bold.
type Row struct {
	Cells  []Cell
	Header bool
}

type Sheet struct {
	Title string
	Rows  []Row
}

func (s *Sheet) Add(cells ...Cell) {
	s.Rows = append(s.Rows, Row{Cells: cells})
}

func (s *Sheet) AddHeader(cells ...Cell) {
	s.Rows = append(s.Rows, Row{Cells: cells, Header: true})
}

// AddTexts is a shortcut for header rows made only of labels.
func (s *Sheet) AddTexts(header bool, labels ...string) {
	cells := make([]Cell, len(labels))
	for i, l := range labels {
		cells[i] = Text(l)
	}

	s.Rows = append(s.Rows, Row{Cells: cells, Header: header})
}

func (s *Sheet) AddBlank() {
	s.Rows = append(s.Rows, Row{})
}
