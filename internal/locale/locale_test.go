package locale_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
)

func TestAmount(t *testing.T) {
	type testCase struct {
		name  string
		input string
		want  string
	}

	tests := []testCase{
		{name: "Thousands and decimals", input: "1.234,56", want: "1234.56"},
		{name: "Zero", input: "0,00", want: "0"},
		{name: "Leading minus", input: "-150,00", want: "-150"},
		{name: "Unicode minus", input: "−45,10", want: "-45.1"},
		{name: "Trailing minus is stripped", input: "45,10-", want: "45.1"},
		{name: "Empty", input: "", want: "0"},
		{name: "Letters", input: "abc", want: "0"},
		{name: "Millions", input: "1.234.567,89", want: "1234567.89"},
		{name: "Currency symbol", input: "$1.500,00", want: "1500"},
		{name: "Percentage sign", input: "1,50%", want: "1.5"},
		{name: "Two commas", input: "1,2,3", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := locale.Amount(tt.input)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_ReportsFailure(t *testing.T) {
	_, err := locale.ParseAmount("abc")
	require.ErrorIs(t, err, locale.ErrEmptyAmount)

	_, err = locale.ParseAmount("1,2,3")
	require.Error(t, err)

	d, err := locale.ParseAmount("3.000,00")
	require.NoError(t, err)
	assert.Equal(t, "3000", d.String())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.234,56", locale.FormatAmount(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "-150,00", locale.FormatAmount(decimal.NewFromInt(-150)))
	assert.Equal(t, "0,00", locale.FormatAmount(decimal.Zero))
	assert.Equal(t, "999,00", locale.FormatAmount(decimal.NewFromInt(999)))
	assert.Equal(t, "1.000.000,125", locale.FormatAmount(decimal.RequireFromString("1000000.125")))
}

func TestAmount_RoundTrip(t *testing.T) {
	tokens := []string{"1.234,56", "0,00", "-150,00", "12,5", "987.654.321,01", "3,14159"}

	for _, tok := range tokens {
		first := locale.Amount(tok)
		second := locale.Amount(locale.FormatAmount(first))
		assert.True(t, first.Equal(second), "%s: %s != %s", tok, first, second)
	}
}

func TestCount(t *testing.T) {
	n, err := locale.Count("1.234")
	require.NoError(t, err)
	assert.Equal(t, 1234, n)

	_, err = locale.Count("x3")
	assert.Error(t, err)
}

func TestDate(t *testing.T) {
	type testCase struct {
		input string
		want  string
	}

	tests := []testCase{
		{input: "5/3/2024", want: "2024-03-05"},
		{input: "05/03/24", want: "2024-03-05"},
		{input: "05-03-2024", want: "2024-03-05"},
		{input: "31/12/2025", want: "2025-12-31"},
		{input: "2024-03-05", want: "2024-03-05"},
		{input: "PENDIENTE", want: "PENDIENTE"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, locale.Date(tt.input))
		})
	}
}

func TestIsDate(t *testing.T) {
	assert.True(t, locale.IsDate("01/08/2024"))
	assert.True(t, locale.IsDate("1-8-24"))
	assert.False(t, locale.IsDate("*TOTAL*"))
	assert.False(t, locale.IsDate("1.000,00"))
}

func TestPesos(t *testing.T) {
	type testCase struct {
		input string
		want  string
	}

	tests := []testCase{
		{input: "4730.31", want: "$4.730,31"},
		{input: "-45", want: "-$45,00"},
		{input: "0", want: "$0,00"},
		{input: "1234567.894", want: "$1.234.567,89"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, locale.Pesos(decimal.RequireFromString(tt.input)))
		})
	}
}
