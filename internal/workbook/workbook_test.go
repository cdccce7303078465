package workbook_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/workbook"
)

var raw = excelize.Options{RawCellValue: true}

func render(t *testing.T, sheets ...workbook.Sheet) *excelize.File {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, workbook.Write(&buf, sheets...))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()

	v, err := f.GetCellValue(sheet, ref, raw)
	require.NoError(t, err)

	return v
}

// find returns the reference of the first cell in column A holding text.
func find(t *testing.T, f *excelize.File, sheet, text string) int {
	t.Helper()

	rows, err := f.GetRows(sheet, raw)
	require.NoError(t, err)

	for i, r := range rows {
		if len(r) > 0 && r[0] == text {
			return i + 1
		}
	}

	t.Fatalf("%q not found in sheet %s", text, sheet)

	return 0
}

func ref(col string, row int) string {
	name, _ := excelize.JoinCellName(col, row)
	return name
}

func TestSanitizeSheetName(t *testing.T) {
	type testCase struct {
		name string
		in   string
		want string
	}

	tests := []testCase{
		{name: "Plain", in: "Resumen", want: "Resumen"},
		{name: "Forbidden", in: "a:b\\c/d?e*f[g]h", want: "a-b-c-d-e-f-g-h"},
		{name: "Date", in: "05/03/2024", want: "05-03-2024"},
		{name: "Truncated", in: strings.Repeat("x", 40), want: strings.Repeat("x", 31)},
		{name: "Accented", in: strings.Repeat("ó", 35), want: strings.Repeat("ó", 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, workbook.SanitizeSheetName(tt.in))
		})
	}
}

func TestWrite(t *testing.T) {
	s := workbook.Sheet{Title: "Datos: 1/2"}
	s.AddTexts(true, "CONCEPTO", "IMPORTE")
	s.Add(workbook.Text("una descripción bastante larga"), workbook.Currency(decimal.RequireFromString("1234.56")))
	s.AddBlank()
	s.Add(workbook.Text("cuenta"), workbook.Int(7))

	f := render(t, s, workbook.Sheet{Title: "Datos: 1/2"}, workbook.Sheet{})

	assert.Equal(t, []string{"Datos- 1-2", "Datos- 1-2 (2)", "Hoja 3"}, f.GetSheetList())

	sheet := "Datos- 1-2"
	assert.Equal(t, "CONCEPTO", cell(t, f, sheet, "A1"))
	assert.Equal(t, "1234.56", cell(t, f, sheet, "B2"))
	assert.Equal(t, "7", cell(t, f, sheet, "B4"))
	assert.Empty(t, cell(t, f, sheet, "A3"))

	t.Run("HeaderIsBold", func(t *testing.T) {
		id, err := f.GetCellStyle(sheet, "A1")
		require.NoError(t, err)

		style, err := f.GetStyle(id)
		require.NoError(t, err)
		require.NotNil(t, style.Font)
		assert.True(t, style.Font.Bold)
		assert.Len(t, style.Border, 4)
	})

	t.Run("DataHasBorderNotBold", func(t *testing.T) {
		id, err := f.GetCellStyle(sheet, "A2")
		require.NoError(t, err)

		style, err := f.GetStyle(id)
		require.NoError(t, err)
		assert.Len(t, style.Border, 4)
		assert.True(t, style.Font == nil || !style.Font.Bold)
	})

	t.Run("CurrencyFormat", func(t *testing.T) {
		id, err := f.GetCellStyle(sheet, "B2")
		require.NoError(t, err)

		style, err := f.GetStyle(id)
		require.NoError(t, err)
		require.NotNil(t, style.CustomNumFmt)
		assert.Contains(t, *style.CustomNumFmt, "#,##0.00")
	})

	t.Run("ColumnWidthFollowsLongestCell", func(t *testing.T) {
		a, err := f.GetColWidth(sheet, "A")
		require.NoError(t, err)
		b, err := f.GetColWidth(sheet, "B")
		require.NoError(t, err)

		assert.InDelta(t, float64(len([]rune("una descripción bastante larga"))+2), a, 0.01)
		assert.GreaterOrEqual(t, b, 8.0)
		assert.Less(t, b, a)
	})
}

func sampleCabal() settlement.Cabal {
	d := decimal.RequireFromString

	return settlement.Cabal{
		Header: settlement.Header{PaymentDate: "2024-03-05", SettlementNumber: "000123", AccountRef: "3-001-0000123456"},
		DebitSales: settlement.Sales{
			Details: []settlement.DetailRow{
				{Date: "01/03/2024", Coupon: "0001", Card: "XXXX1234", Installment: "1/1", Amount: d("1000")},
				{Date: "01/03/2024", Coupon: "0002", Card: "XXXX9876", Installment: "1/1", Amount: d("2000")},
			},
			Terminals: []settlement.TerminalTotalRow{
				{Date: "01/03/2024", Batch: "001", Terminal: "12345678", Count: 2, Total: d("3000")},
			},
		},
		DebitSummary: settlement.Summary{
			Count: 2,
			Total: d("3000"),
			Fees: []settlement.FeeRow{
				{Concept: settlement.ConceptFee, Percentage: decimal.NewNullDecimal(d("1.5")), Amount: d("-45")},
			},
		},
		CreditSummary: settlement.Summary{Count: 1, Total: d("2000")},
		Final: settlement.Final{
			ByPaymentDate: settlement.PaymentDateTotal{Date: "05/03/2024", Count: 3, Total: d("5000")},
			Fees: []settlement.FeeRow{
				{Concept: settlement.ConceptIIBBRetention, Reference: decimal.NewNullDecimal(d("5000")), Amount: d("-269.69")},
			},
			NetFinal: d("4730.31"),
		},
	}
}

func TestCabalSheets(t *testing.T) {
	sheets := workbook.CabalSheets(sampleCabal())
	require.Len(t, sheets, 1)

	f := render(t, sheets...)
	sheet := workbook.CabalSheetTitle

	assert.Equal(t, []string{sheet}, f.GetSheetList())
	assert.Equal(t, "ENCABEZADO", cell(t, f, sheet, "A1"))
	assert.Equal(t, "2024-03-05", cell(t, f, sheet, "B2"))
	assert.Equal(t, "000123", cell(t, f, sheet, "B3"))
	assert.Equal(t, "3-001-0000123456", cell(t, f, sheet, "B4"))

	t.Run("DebitDetails", func(t *testing.T) {
		row := find(t, f, sheet, "VENTAS CORRESPONDIENTES A CABAL DEBITO - CUADRO 1")
		assert.Equal(t, "FECHA COMPRA", cell(t, f, sheet, ref("A", row+1)))
		assert.Equal(t, "0001", cell(t, f, sheet, ref("B", row+2)))
		assert.Equal(t, "1000", cell(t, f, sheet, ref("E", row+2)))
		assert.Equal(t, "2000", cell(t, f, sheet, ref("E", row+3)))
		assert.Empty(t, cell(t, f, sheet, ref("A", row+4)))
	})

	t.Run("DebitTerminals", func(t *testing.T) {
		row := find(t, f, sheet, "VENTAS CORRESPONDIENTES A CABAL DEBITO - CUADRO 2")
		assert.Equal(t, "12345678", cell(t, f, sheet, ref("C", row+2)))
		assert.Equal(t, "2", cell(t, f, sheet, ref("D", row+2)))
		assert.Equal(t, "3000", cell(t, f, sheet, ref("E", row+2)))
	})

	t.Run("DebitFees", func(t *testing.T) {
		row := find(t, f, sheet, "CABAL DEBITO - CUADRO")
		assert.Equal(t, string(settlement.ConceptFee), cell(t, f, sheet, ref("A", row+2)))
		assert.Equal(t, "1.5", cell(t, f, sheet, ref("B", row+2)))
		assert.Empty(t, cell(t, f, sheet, ref("C", row+2)))
		assert.Equal(t, "-45", cell(t, f, sheet, ref("D", row+2)))
	})

	t.Run("EmptyCreditBlocksKeepHeaders", func(t *testing.T) {
		row := find(t, f, sheet, "VENTAS CORRESPONDIENTES A TARJETA DE CREDITO - CUADRO 1")
		assert.Equal(t, "IMPORTE TOTAL", cell(t, f, sheet, ref("E", row+1)))
		assert.Empty(t, cell(t, f, sheet, ref("A", row+2)))
	})

	t.Run("Final", func(t *testing.T) {
		row := find(t, f, sheet, "TOT FEC PAGO - TOTAL")
		assert.Equal(t, "05/03/2024", cell(t, f, sheet, ref("A", row+2)))
		assert.Equal(t, "5000", cell(t, f, sheet, ref("C", row+2)))

		row = find(t, f, sheet, "TOT FEC PAGO - CUADRO FINAL")
		assert.Equal(t, string(settlement.ConceptIIBBRetention), cell(t, f, sheet, ref("A", row+2)))
		assert.Equal(t, "5000", cell(t, f, sheet, ref("C", row+2)))

		row = find(t, f, sheet, "IMPORTE NETO FINAL")
		assert.Equal(t, "4730.31", cell(t, f, sheet, ref("B", row)))
	})
}

func TestNacionSheets(t *testing.T) {
	d := decimal.RequireFromString

	t.Run("Complete", func(t *testing.T) {
		rec := settlement.Nacion{
			PaymentDate: "2024-03-05",
			Totals: settlement.NacionTotals{
				Presented: decimal.NewNullDecimal(d("10000")),
				Discount:  decimal.NewNullDecimal(d("350.5")),
			},
			Movements: settlement.Table{
				{"01/03/2024", "VENTA", "1.234,56"},
				{"02/03/2024", "VENTA", "100,00"},
			},
			Accreditation: &settlement.Accreditation{Account: "3-001-0000123456", Amount: d("9649.5")},
			Source:        []string{"BANCO DE LA NACION ARGENTINA", "FECHA DE PAGO: 05/03/2024"},
		}

		f := render(t, workbook.NacionSheets(rec)...)

		assert.Equal(t, []string{"Resumen", "Movimientos", "Detalles", "Texto Original"}, f.GetSheetList())
		assert.Equal(t, "2024-03-05", cell(t, f, "Resumen", "B1"))
		assert.Equal(t, "TOTALES", cell(t, f, "Resumen", "A3"))
		assert.Equal(t, "10000", cell(t, f, "Resumen", "B4"))
		assert.Equal(t, "350.5", cell(t, f, "Resumen", "B5"))
		assert.Empty(t, cell(t, f, "Resumen", "B6"))
		assert.Equal(t, "3-001-0000123456", cell(t, f, "Resumen", "B8"))
		assert.Equal(t, "9649.5", cell(t, f, "Resumen", "B9"))

		assert.Equal(t, "MOVIMIENTOS (TABLA 1)", cell(t, f, "Movimientos", "A1"))
		assert.Equal(t, "01/03/2024", cell(t, f, "Movimientos", "A3"))
		assert.Equal(t, "1234.56", cell(t, f, "Movimientos", "C3"))
		assert.Equal(t, "No se detectaron detalles.", cell(t, f, "Detalles", "A3"))

		assert.Equal(t, "FECHA DE PAGO: 05/03/2024", cell(t, f, "Texto Original", "A2"))
	})

	t.Run("Unidentified", func(t *testing.T) {
		f := render(t, workbook.NacionSheets(settlement.Nacion{})...)

		assert.Equal(t, "NO IDENTIFICADA", cell(t, f, "Resumen", "B1"))
		assert.Equal(t, "No se detectaron movimientos.", cell(t, f, "Movimientos", "A3"))
		assert.Empty(t, cell(t, f, "Resumen", "A8"))
	})
}

func TestTotalizerSheets(t *testing.T) {
	d := decimal.RequireFromString

	second := sampleCabal()
	second.Header.SettlementNumber = "000124"
	second.Final.NetFinal = d("100")

	missingSummary := sampleCabal()
	missingSummary.DebitSummary = settlement.Summary{}

	entries := []settlement.Entry{
		{Name: "a.txt", Valid: true, Document: settlement.Document{Format: settlement.FormatCabal, Cabal: ptr(sampleCabal())}},
		{Name: "b.txt", Valid: true, Document: settlement.Document{Format: settlement.FormatCabal, Cabal: &second}},
		{Name: "c.txt", Valid: false, Document: settlement.Document{Format: settlement.FormatCabal, Cabal: &settlement.Cabal{}}},
		{Name: "d.txt", Valid: true, Document: settlement.Document{Format: settlement.FormatCabal, Cabal: &missingSummary}},
		{Name: "e.txt", Valid: true, Document: settlement.Document{Format: settlement.FormatNacion, Nacion: &settlement.Nacion{
			PaymentDate:   "2024-03-06",
			Totals:        settlement.NacionTotals{Presented: decimal.NewNullDecimal(d("500"))},
			Accreditation: &settlement.Accreditation{Account: "1", Amount: d("480")},
		}}},
	}

	f := render(t, workbook.TotalizerSheets(entries)...)

	assert.Equal(t, []string{workbook.TotalizerCabalTitle, workbook.TotalizerNacionTitle}, f.GetSheetList())

	rows, err := f.GetRows(workbook.TotalizerCabalTitle, raw)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "000123", rows[1][1])
	assert.Equal(t, "000124", rows[2][1])
	assert.Equal(t, "3000", rows[3][3], "debit total falls back to detail rows")
	assert.Equal(t, []string{"TOTAL", "", "", "9000", "6000", "9560.62"}, rows[4])

	rows, err = f.GetRows(workbook.TotalizerNacionTitle, raw)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024-03-06", rows[1][0])
	assert.Equal(t, []string{"TOTAL", "500", "0", "0", "480"}, rows[2])
}

func ptr[T any](v T) *T {
	return &v
}
