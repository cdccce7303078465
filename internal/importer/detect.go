package importer

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/MrJamesThe3rd/liquidaciones/internal/scan"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

type marker struct {
	phrase string
	format settlement.Format
}

var markers = []marker{
	{"VENTAS CORRESPONDIENTES A CABAL DEBITO", settlement.FormatCabal},
	{"VENTAS CORRESPONDIENTES A TARJETA DE CREDITO", settlement.FormatCabal},
	{"CABAL DEBITO TOTAL DE VENTAS", settlement.FormatCabal},
	{"TARJETA DE CREDITO TOTAL DE VENTAS", settlement.FormatCabal},
	{"TOT. FEC. PAGO", settlement.FormatCabal},
	{"IMPORTE NETO FINAL", settlement.FormatCabal},
	{"LIQUIDACION NRO", settlement.FormatCabal},
	{"BANCO DE LA NACION", settlement.FormatNacion},
	{"TOTAL PRESENTADO", settlement.FormatNacion},
	{"TOTAL DESCUENTO", settlement.FormatNacion},
	{"SE ACREDITO EN", settlement.FormatNacion},
}

var markerMatcher = func() *ahocorasick.Matcher {
	keys := make([]string, len(markers))
	for i, m := range markers {
		keys[i] = scan.Key(m.phrase)
	}

	return ahocorasick.NewStringMatcher(keys)
}()

// Detect picks the format whose marker phrases appear most often in text.
// No markers, or a tie, yields ErrUnknownFormat.
func Detect(text string) (settlement.Format, error) {
	score := make(map[settlement.Format]int)

	for _, hit := range markerMatcher.MatchThreadSafe([]byte(scan.Key(text))) {
		score[markers[hit].format]++
	}

	cabal, nacion := score[settlement.FormatCabal], score[settlement.FormatNacion]

	switch {
	case cabal > nacion:
		return settlement.FormatCabal, nil
	case nacion > cabal:
		return settlement.FormatNacion, nil
	default:
		return "", ErrUnknownFormat
	}
}
