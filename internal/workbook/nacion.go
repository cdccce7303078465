package workbook

import (
	"regexp"

	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const unidentified = "NO IDENTIFICADA"

var amountToken = regexp.MustCompile(`^\$?-?(?:\d{1,3}(?:\.\d{3})+|\d+),\d{2}$`)

// NacionSheets lays a Banco Nación settlement out over four sheets: the
// summary, the two detected tables and the normalized source text.
func NacionSheets(rec settlement.Nacion) []Sheet {
	resumen := Sheet{Title: "Resumen"}

	date := rec.PaymentDate
	if date == "" {
		date = unidentified
	}

	resumen.Add(Text("FECHA DE PAGO:"), Text(date))
	resumen.AddBlank()
	resumen.AddTexts(true, "TOTALES")
	resumen.Add(Text("TOTAL PRESENTADO"), OptionalCurrency(rec.Totals.Presented))
	resumen.Add(Text("TOTAL DESCUENTO"), OptionalCurrency(rec.Totals.Discount))
	resumen.Add(Text("SALDO"), OptionalCurrency(rec.Totals.Balance))

	if a := rec.Accreditation; a != nil {
		resumen.AddBlank()
		resumen.Add(Text("SE ACREDITÓ EN:"), Text(a.Account))
		resumen.Add(Text("MONTO:"), Currency(a.Amount))
	}

	source := Sheet{Title: "Texto Original"}
	for _, l := range rec.Source {
		source.Add(Text(l))
	}

	return []Sheet{
		resumen,
		tableSheet("Movimientos", "MOVIMIENTOS (TABLA 1)", "No se detectaron movimientos.", rec.Movements),
		tableSheet("Detalles", "DETALLES (TABLA 2)", "No se detectaron detalles.", rec.Details),
		source,
	}
}

func tableSheet(title, heading, empty string, table settlement.Table) Sheet {
	s := Sheet{Title: title}
	s.AddTexts(true, heading)
	s.AddBlank()

	if len(table) == 0 {
		s.Add(Text(empty))
		return s
	}

	for _, row := range table {
		cells := make([]Cell, len(row))
		for i, tok := range row {
			cells[i] = tokenCell(tok)
		}

		s.Add(cells...)
	}

	return s
}

// tokenCell turns amount-shaped tokens into numbers and keeps the rest as
// text, so dates and reference numbers are not mangled.
func tokenCell(tok string) Cell {
	if !amountToken.MatchString(tok) {
		return Text(tok)
	}

	d, err := locale.ParseAmount(tok)
	if err != nil {
		return Text(tok)
	}

	return Number(d)
}
