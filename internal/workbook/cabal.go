package workbook

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const CabalSheetTitle = "LIQ CABAL"

var (
	detailColumns   = []string{"FECHA COMPRA", "NRO CUPON", "NRO TARJETA", "CUOTA", "IMPORTE TOTAL"}
	terminalColumns = []string{"FECHA COMPRA", "NRO LOTE", "NRO TERMINAL", "CANTIDAD CUPONES", "TOTAL"}
	summaryColumns  = []string{"CANTIDAD", "TOTAL"}
	feeColumns      = []string{"CONCEPTO", "%", "REFERENCIA", "IMPORTE TOTAL"}
	paymentColumns  = []string{"FECHA", "CANTIDAD", "TOTAL"}
)

// CabalSheets lays a CABAL settlement out as the single "LIQ CABAL" sheet.
// Every block is a title row, a column header row, its data rows and a
// blank separator.
func CabalSheets(rec settlement.Cabal) []Sheet {
	s := Sheet{Title: CabalSheetTitle}

	s.AddTexts(true, "ENCABEZADO")
	s.Add(Text("FECHA DE PAGO"), Text(rec.Header.PaymentDate))
	s.Add(Text("NRO LIQUIDACION"), Text(rec.Header.SettlementNumber))
	s.Add(Text("CUENTA"), Text(rec.Header.AccountRef))
	s.AddBlank()

	salesBlocks(&s, "VENTAS CORRESPONDIENTES A CABAL DEBITO", rec.DebitSales)
	summaryBlocks(&s, "CABAL DEBITO", rec.DebitSummary)
	salesBlocks(&s, "VENTAS CORRESPONDIENTES A TARJETA DE CREDITO", rec.CreditSales)
	summaryBlocks(&s, "TARJETA DE CREDITO", rec.CreditSummary)

	p := rec.Final.ByPaymentDate
	block(&s, "TOT FEC PAGO - TOTAL", paymentColumns, [][]Cell{
		{Text(p.Date), Int(p.Count), Currency(p.Total)},
	})
	block(&s, "TOT FEC PAGO - CUADRO FINAL", feeColumns, feeCells(rec.Final.Fees))

	s.AddHeader(Text("IMPORTE NETO FINAL"), Currency(rec.Final.NetFinal))

	return []Sheet{s}
}

func salesBlocks(s *Sheet, title string, sales settlement.Sales) {
	details := make([][]Cell, 0, len(sales.Details))
	for _, d := range sales.Details {
		details = append(details, []Cell{
			Text(d.Date), Text(d.Coupon), Text(d.Card), Text(d.Installment), Currency(d.Amount),
		})
	}

	terminals := make([][]Cell, 0, len(sales.Terminals))
	for _, t := range sales.Terminals {
		terminals = append(terminals, []Cell{
			Text(t.Date), Text(t.Batch), Text(t.Terminal), Int(t.Count), Currency(t.Total),
		})
	}

	block(s, title+" - CUADRO 1", detailColumns, details)
	block(s, title+" - CUADRO 2", terminalColumns, terminals)
}

func summaryBlocks(s *Sheet, title string, sum settlement.Summary) {
	block(s, title+" - TOTAL DE VENTAS", summaryColumns, [][]Cell{
		{Int(sum.Count), Currency(sum.Total)},
	})
	block(s, title+" - CUADRO", feeColumns, feeCells(sum.Fees))
}

func feeCells(fees []settlement.FeeRow) [][]Cell {
	rows := make([][]Cell, 0, len(fees))

	for _, f := range fees {
		rows = append(rows, []Cell{
			Text(string(f.Concept)),
			OptionalNumber(f.Percentage),
			OptionalCurrency(f.Reference),
			Currency(f.Amount),
		})
	}

	return rows
}

func block(s *Sheet, title string, columns []string, rows [][]Cell) {
	s.AddTexts(true, title)
	s.AddTexts(true, columns...)

	for _, r := range rows {
		s.Add(r...)
	}

	s.AddBlank()
}

// salesTotal sums the detail amounts of a sales block.
func salesTotal(sales settlement.Sales) decimal.Decimal {
	total := decimal.Zero
	for _, d := range sales.Details {
		total = total.Add(d.Amount)
	}

	return total
}
