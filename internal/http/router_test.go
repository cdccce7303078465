package http_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/liquidaciones/internal/export"
	liqhttp "github.com/MrJamesThe3rd/liquidaciones/internal/http"
	exportHandler "github.com/MrJamesThe3rd/liquidaciones/internal/http/export"
	settlementHandler "github.com/MrJamesThe3rd/liquidaciones/internal/http/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/importer"
	"github.com/MrJamesThe3rd/liquidaciones/internal/metrics"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement/store"
	"github.com/MrJamesThe3rd/liquidaciones/internal/workbook"
)

type entry struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Format      string               `json:"format"`
	Valid       bool                 `json:"valid"`
	PaymentDate string               `json:"payment_date"`
	Amount      string               `json:"amount"`
	FileName    string               `json:"file_name"`
	Document    *settlement.Document `json:"document"`
}

func newServer(t *testing.T, keepPartial bool) *httptest.Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)

	settlements := settlement.NewService(store.New(),
		settlement.WithKeepPartial(keepPartial),
		settlement.WithSizeObserver(collector),
	)
	imports := importer.NewService(importer.WithObserver(collector))
	exports := export.NewService(settlements)

	router := liqhttp.New(
		settlementHandler.NewHandler(imports, settlements, exports, 1<<20),
		exportHandler.NewHandler(exports),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		[]string{"*"},
	)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	return ts
}

func cabalReport(t *testing.T) []byte {
	t.Helper()

	b, err := os.ReadFile("../importer/cabal/testdata/liquidacion.txt")
	require.NoError(t, err)

	return b
}

func post(t *testing.T, url, contentType string, body []byte) *http.Response {
	t.Helper()

	resp, err := http.Post(url, contentType, bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestSettlements_Process(t *testing.T) {
	ts := newServer(t, false)

	resp := post(t, ts.URL+"/api/v1/settlements?format=cabal&name=agosto.txt", "text/plain", cabalReport(t))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[entry](t, resp)
	assert.Equal(t, "agosto.txt", created.Name)
	assert.Equal(t, "cabal", created.Format)
	assert.True(t, created.Valid)
	assert.Equal(t, "2024-08-05", created.PaymentDate)
	assert.Equal(t, "4730.31", created.Amount)
	assert.Equal(t, "Liquidacion_000123.xlsx", created.FileName)
	require.NotNil(t, created.Document)
	require.NotNil(t, created.Document.Cabal)
	assert.Equal(t, "000123", created.Document.Cabal.Header.SettlementNumber)

	t.Run("Get", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/settlements/"+created.ID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, created.ID, decode[entry](t, resp).ID)
	})

	t.Run("GetUnknown", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/settlements/00000000-0000-0000-0000-000000000001")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("GetInvalidID", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/settlements/nope")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Workbook", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/settlements/"+created.ID+"/workbook")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "Liquidacion_000123.xlsx")

		f, err := excelize.OpenReader(resp.Body)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{workbook.CabalSheetTitle}, f.GetSheetList())
	})

	t.Run("DetailCSV", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/settlements/"+created.ID+"/detail.csv")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var buf bytes.Buffer
		_, err := buf.ReadFrom(resp.Body)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Equal(t, "section,date,coupon,card,installment,amount", lines[0])
		assert.Len(t, lines, 5)
	})
}

func TestSettlements_Multipart(t *testing.T) {
	ts := newServer(t, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "liquidacion.txt")
	require.NoError(t, err)
	_, err = fw.Write(cabalReport(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := post(t, ts.URL+"/api/v1/settlements", mw.FormDataContentType(), body.Bytes())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[entry](t, resp)
	assert.Equal(t, "liquidacion.txt", created.Name)
	assert.Equal(t, "cabal", created.Format, "format is sniffed when not given")
}

func TestSettlements_Rejections(t *testing.T) {
	type testCase struct {
		name        string
		keepPartial bool
		query       string
		body        string
		wantStatus  int
		wantEntries int
	}

	tests := []testCase{
		{
			name:       "UnknownFormatParam",
			query:      "?format=visa",
			body:       "x",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Undetectable",
			body:       "hola mundo",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unidentified",
			query:      "?format=cabal",
			body:       "VENTAS CORRESPONDIENTES A CABAL DEBITO\n01/08/2024 0001 5896 01 1.000,00\n",
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:        "UnidentifiedKept",
			keepPartial: true,
			query:       "?format=cabal",
			body:        "VENTAS CORRESPONDIENTES A CABAL DEBITO\n01/08/2024 0001 5896 01 1.000,00\n",
			wantStatus:  http.StatusUnprocessableEntity,
			wantEntries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newServer(t, tt.keepPartial)

			resp := post(t, ts.URL+"/api/v1/settlements"+tt.query, "text/plain", []byte(tt.body))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == http.StatusUnprocessableEntity {
				partial := decode[struct {
					Error    string              `json:"error"`
					Document settlement.Document `json:"document"`
				}](t, resp)

				assert.NotEmpty(t, partial.Error)
				require.NotNil(t, partial.Document.Cabal)
				assert.Len(t, partial.Document.Cabal.DebitSales.Details, 1)
			}

			list := decode[[]entry](t, get(t, ts.URL+"/api/v1/settlements"))
			assert.Len(t, list, tt.wantEntries)
		})
	}
}

func TestSettlements_BodyTooLarge(t *testing.T) {
	settlements := settlement.NewService(store.New())
	exports := export.NewService(settlements)

	router := liqhttp.New(
		settlementHandler.NewHandler(importer.NewService(), settlements, exports, 64),
		exportHandler.NewHandler(exports),
		http.NotFoundHandler(),
		[]string{"*"},
	)

	for _, format := range []string{"cabal", "nacion", "auto"} {
		t.Run(format, func(t *testing.T) {
			body := strings.NewReader("LIQUIDACION NRO: 1\n" + strings.Repeat("VENTAS CORRESPONDIENTES A CABAL DEBITO\n", 10))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/settlements?format="+format, body)
			req.Header.Set("Content-Type", "text/plain")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

			list, err := settlements.List(req.Context())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestExport(t *testing.T) {
	ts := newServer(t, false)

	for range 2 {
		resp := post(t, ts.URL+"/api/v1/settlements?format=cabal", "text/plain", cabalReport(t))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	t.Run("Totalizer", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/export/totalizer")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		f, err := excelize.OpenReader(resp.Body)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(workbook.TotalizerCabalTitle, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "9460.62", rows[3][5])
	})

	t.Run("Download", func(t *testing.T) {
		resp := get(t, ts.URL+"/api/v1/export/download")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var buf bytes.Buffer
		_, err := buf.ReadFrom(resp.Body)
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)

		names := make([]string, 0, len(zr.File))
		for _, f := range zr.File {
			names = append(names, f.Name)
		}

		assert.ElementsMatch(t, []string{
			"Liquidacion_000123.xlsx",
			"Liquidacion_000123_2.xlsx",
			"Totalizador.xlsx",
			"resumen.txt",
		}, names)
	})

	t.Run("Metrics", func(t *testing.T) {
		resp := get(t, ts.URL+"/metrics")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var buf bytes.Buffer
		_, err := buf.ReadFrom(resp.Body)
		require.NoError(t, err)

		assert.Contains(t, buf.String(), `liquidaciones_documents_total{format="cabal",valid="true"} 2`)
		assert.Contains(t, buf.String(), "liquidaciones_session_entries 2")
	})

	t.Run("Clear", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/settlements", nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Empty(t, decode[[]entry](t, get(t, ts.URL+"/api/v1/settlements")))
	})
}
