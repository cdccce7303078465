package encoding_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/liquidaciones/internal/encoding"
)

func TestReadText_UTF8Passthrough(t *testing.T) {
	input := "LIQUIDACION NRO: 123\nCUENTA P/ACREDITAR VENTAS: Cta. Cte. N° 45\nSE ACREDITÓ EN: 1234\n"

	got, err := encoding.ReadText(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestReadText_Windows1252(t *testing.T) {
	utf8Text := "SE ACREDITÓ EN: 1234 $ 1.500,00\nPERCEPCIÓN DE IIBB 12,00\n"

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8Text))
	require.NoError(t, err)

	got, err := encoding.ReadText(bytes.NewReader(latin1))
	require.NoError(t, err)
	assert.Equal(t, utf8Text, got)
}

func TestReadText_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("FECHA DE PAGO: 05/08/2024\n")...)

	got, err := encoding.ReadText(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "FECHA DE PAGO: 05/08/2024\n", got)
}

func TestReadText_LongUTF8(t *testing.T) {
	// Accented characters straddle the sniff window boundary.
	input := strings.Repeat("ó", 3000)

	got, err := encoding.ReadText(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, input, got)
}

func TestReadText_Windows1252AfterASCIIPrefix(t *testing.T) {
	padding := strings.Repeat("BANCO DE LA NACION ARGENTINA - LIQUIDACION\n", 150)
	utf8Text := padding + "Se acreditó en 1234567 $ 1.500,00\n"
	require.Greater(t, len(padding), 4096)

	latin1, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8Text))
	require.NoError(t, err)

	got, err := encoding.ReadText(bytes.NewReader(latin1))
	require.NoError(t, err)
	assert.Equal(t, utf8Text, got)
}

func TestReadText_Empty(t *testing.T) {
	got, err := encoding.ReadText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}
