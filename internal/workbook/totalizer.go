package workbook

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const (
	TotalizerCabalTitle  = "TOTALIZADOR CABAL"
	TotalizerNacionTitle = "TOTALIZADOR NACION"
)

// TotalizerSheets sums the valid entries of a session: one row per
// settlement and a closing TOTAL row, with CABAL and Nación on separate
// sheets since they share no columns.
func TotalizerSheets(entries []settlement.Entry) []Sheet {
	cabal := Sheet{Title: TotalizerCabalTitle}
	cabal.AddTexts(true, "FECHA DE PAGO", "NRO LIQUIDACION", "CUENTA", "TOTAL DEBITO", "TOTAL CREDITO", "IMPORTE NETO FINAL")

	nacion := Sheet{Title: TotalizerNacionTitle}
	nacion.AddTexts(true, "FECHA DE PAGO", "TOTAL PRESENTADO", "TOTAL DESCUENTO", "SALDO", "MONTO ACREDITADO")

	var debit, credit, net decimal.Decimal
	var presented, discount, balance, accredited decimal.Decimal

	for _, e := range entries {
		if !e.Valid {
			continue
		}

		switch doc := e.Document; {
		case doc.Cabal != nil:
			rec := doc.Cabal
			d, c := summaryTotal(rec.DebitSummary, rec.DebitSales), summaryTotal(rec.CreditSummary, rec.CreditSales)

			cabal.Add(
				Text(rec.Header.PaymentDate),
				Text(rec.Header.SettlementNumber),
				Text(rec.Header.AccountRef),
				Currency(d),
				Currency(c),
				Currency(rec.Final.NetFinal),
			)

			debit = debit.Add(d)
			credit = credit.Add(c)
			net = net.Add(rec.Final.NetFinal)
		case doc.Nacion != nil:
			rec := doc.Nacion

			acc := Blank()
			if rec.Accreditation != nil {
				acc = Currency(rec.Accreditation.Amount)
				accredited = accredited.Add(rec.Accreditation.Amount)
			}

			nacion.Add(
				Text(rec.PaymentDate),
				OptionalCurrency(rec.Totals.Presented),
				OptionalCurrency(rec.Totals.Discount),
				OptionalCurrency(rec.Totals.Balance),
				acc,
			)

			presented = presented.Add(rec.Totals.Presented.Decimal)
			discount = discount.Add(rec.Totals.Discount.Decimal)
			balance = balance.Add(rec.Totals.Balance.Decimal)
		}
	}

	cabal.AddHeader(Text("TOTAL"), Blank(), Blank(), Currency(debit), Currency(credit), Currency(net))
	nacion.AddHeader(Text("TOTAL"), Currency(presented), Currency(discount), Currency(balance), Currency(accredited))

	return []Sheet{cabal, nacion}
}

// summaryTotal prefers the printed summary total and falls back to the sum
// of the detail rows when the summary section was missing.
func summaryTotal(sum settlement.Summary, sales settlement.Sales) decimal.Decimal {
	if sum.Count == 0 && sum.Total.IsZero() {
		return salesTotal(sales)
	}

	return sum.Total
}
