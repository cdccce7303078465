package export_test

import (
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// documents generates settlement documents with gofakeit for accumulation
// tests.
type documents struct {
	faker *gofakeit.Faker
}

func newDocuments(seed int64) *documents {
	return &documents{faker: gofakeit.New(seed)}
}

func (g *documents) amount() decimal.Decimal {
	return decimal.New(int64(g.faker.Number(100, 10_000_000)), -2)
}

func (g *documents) date() time.Time {
	return g.faker.DateRange(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	)
}

func (g *documents) details(n int) []settlement.DetailRow {
	rows := make([]settlement.DetailRow, n)
	for i := range rows {
		rows[i] = settlement.DetailRow{
			Date:        g.date().Format("02/01/2006"),
			Coupon:      g.faker.Numerify("####"),
			Card:        "XXXX" + g.faker.Numerify("####"),
			Installment: "1/1",
			Amount:      g.amount(),
		}
	}

	return rows
}

func (g *documents) cabal() settlement.Document {
	debit := g.details(g.faker.Number(0, 5))
	credit := g.details(g.faker.Number(0, 5))

	return settlement.Document{
		Format: settlement.FormatCabal,
		Cabal: &settlement.Cabal{
			Header: settlement.Header{
				PaymentDate:      g.date().Format("2006-01-02"),
				SettlementNumber: g.faker.Numerify("######"),
				AccountRef:       g.faker.Numerify("#-###-##########"),
			},
			DebitSales:    settlement.Sales{Details: debit},
			DebitSummary:  settlement.Summary{Count: len(debit), Total: sum(debit)},
			CreditSales:   settlement.Sales{Details: credit},
			CreditSummary: settlement.Summary{Count: len(credit), Total: sum(credit)},
			Final:         settlement.Final{NetFinal: g.amount()},
		},
	}
}

func (g *documents) nacion() settlement.Document {
	return settlement.Document{
		Format: settlement.FormatNacion,
		Nacion: &settlement.Nacion{
			PaymentDate: g.date().Format("2006-01-02"),
			Totals: settlement.NacionTotals{
				Presented: decimal.NewNullDecimal(g.amount()),
				Balance:   decimal.NewNullDecimal(g.amount()),
			},
		},
	}
}

func (g *documents) any() settlement.Document {
	if g.faker.Bool() {
		return g.cabal()
	}

	return g.nacion()
}

func sum(rows []settlement.DetailRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.Amount)
	}

	return total
}
