package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
	"github.com/MrJamesThe3rd/liquidaciones/internal/workbook"
)

// ErrNoDetails is returned when a detail dump is requested for a document
// without CABAL detail rows.
var ErrNoDetails = errors.New("document has no detail rows")

// Item represents a single exported settlement with its local file path.
type Item struct {
	Entry    *settlement.Entry
	FilePath string
}

// DetailRecord is one CSV row of the detail dump.
type DetailRecord struct {
	Section     string          `csv:"section"`
	Date        string          `csv:"date"`
	Coupon      string          `csv:"coupon"`
	Card        string          `csv:"card"`
	Installment string          `csv:"installment"`
	Amount      decimal.Decimal `csv:"amount"`
}

// Service renders session entries as workbooks and dumps.
type Service struct {
	settlements *settlement.Service
}

func NewService(settlements *settlement.Service) *Service {
	return &Service{settlements: settlements}
}

// FileName is the download name of an entry's workbook.
func FileName(e *settlement.Entry) string {
	doc := e.Document

	if doc.Nacion != nil {
		date := doc.Nacion.PaymentDate
		if date == "" {
			date = "Liquidacion"
		}

		return "Liquidacion_Nacion_" + safeName(date) + ".xlsx"
	}

	name := ""
	if doc.Cabal != nil {
		name = doc.Cabal.Header.SettlementNumber
		if name == "" {
			name = doc.Cabal.Header.PaymentDate
		}
	}

	if name == "" {
		name = e.ID.String()[:8]
	}

	return "Liquidacion_" + safeName(name) + ".xlsx"
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '-'
	}, s)
}

// Sheets lays out the workbook of one entry.
func Sheets(e *settlement.Entry) []workbook.Sheet {
	switch {
	case e.Document.Cabal != nil:
		return workbook.CabalSheets(*e.Document.Cabal)
	case e.Document.Nacion != nil:
		return workbook.NacionSheets(*e.Document.Nacion)
	default:
		return nil
	}
}

// WriteWorkbook renders the workbook of the entry with the given id into w
// and returns the entry so callers can name the download.
func (s *Service) WriteWorkbook(ctx context.Context, id uuid.UUID, w io.Writer) (*settlement.Entry, error) {
	e, err := s.settlements.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting entry: %w", err)
	}

	if err := workbook.Write(w, Sheets(e)...); err != nil {
		return nil, fmt.Errorf("writing workbook %s: %w", e.ID, err)
	}

	return e, nil
}

// WriteTotalizer renders the totalizer of the whole session into w.
func (s *Service) WriteTotalizer(ctx context.Context, w io.Writer) error {
	entries, err := s.entries(ctx)
	if err != nil {
		return err
	}

	if err := workbook.Write(w, workbook.TotalizerSheets(entries)...); err != nil {
		return fmt.Errorf("writing totalizer: %w", err)
	}

	return nil
}

// Export writes the workbook of one entry into outputDir.
func (s *Service) Export(ctx context.Context, id uuid.UUID, outputDir string) (Item, error) {
	e, err := s.settlements.Get(ctx, id)
	if err != nil {
		return Item{}, fmt.Errorf("getting entry: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Item{}, fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(outputDir, FileName(e))
	if err := writeFile(path, Sheets(e)); err != nil {
		return Item{}, fmt.Errorf("exporting entry %s: %w", e.ID, err)
	}

	return Item{Entry: e, FilePath: path}, nil
}

// ExportAll writes one workbook per session entry into outputDir. Entries
// sharing a file name get a numeric suffix.
func (s *Service) ExportAll(ctx context.Context, outputDir string) ([]Item, error) {
	entries, err := s.settlements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	items := make([]Item, 0, len(entries))
	used := make(map[string]int)

	for _, e := range entries {
		name := FileName(e)

		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s_%d.xlsx", strings.TrimSuffix(name, ".xlsx"), n)
		}

		path := filepath.Join(outputDir, name)
		if err := writeFile(path, Sheets(e)); err != nil {
			return nil, fmt.Errorf("exporting entry %s: %w", e.ID, err)
		}

		items = append(items, Item{Entry: e, FilePath: path})
	}

	return items, nil
}

// Items lists the session entries without writing any file.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	entries, err := s.settlements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e}
	}

	return items, nil
}

// WriteTotalizerFile writes the session totalizer to path.
func (s *Service) WriteTotalizerFile(ctx context.Context, path string) error {
	entries, err := s.entries(ctx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	return writeFile(path, workbook.TotalizerSheets(entries))
}

func writeFile(path string, sheets []workbook.Sheet) error {
	return createFile(path, func(w io.Writer) error {
		return workbook.Write(w, sheets...)
	})
}

// createFile removes the file again when write fails and reports the close
// error, which is where a failed flush surfaces.
func createFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)

		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	return nil
}

func (s *Service) entries(ctx context.Context) ([]settlement.Entry, error) {
	list, err := s.settlements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	entries := make([]settlement.Entry, len(list))
	for i, e := range list {
		entries[i] = *e
	}

	return entries, nil
}

// WriteDetailCSV dumps the debit and credit detail rows of a CABAL entry.
func (s *Service) WriteDetailCSV(ctx context.Context, id uuid.UUID, w io.Writer) error {
	e, err := s.settlements.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("getting entry: %w", err)
	}

	rec := e.Document.Cabal
	if rec == nil {
		return ErrNoDetails
	}

	records := detailRecords("debit", rec.DebitSales.Details)
	records = append(records, detailRecords("credit", rec.CreditSales.Details)...)

	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("marshaling details: %w", err)
	}

	return nil
}

// WriteDetailCSVFile dumps the detail rows of an entry to path.
func (s *Service) WriteDetailCSVFile(ctx context.Context, id uuid.UUID, path string) error {
	return createFile(path, func(w io.Writer) error {
		return s.WriteDetailCSV(ctx, id, w)
	})
}

func detailRecords(section string, rows []settlement.DetailRow) []*DetailRecord {
	records := make([]*DetailRecord, 0, len(rows))

	for _, r := range rows {
		records = append(records, &DetailRecord{
			Section:     section,
			Date:        r.Date,
			Coupon:      r.Coupon,
			Card:        r.Card,
			Installment: r.Installment,
			Amount:      r.Amount,
		})
	}

	return records
}

// Headline returns the identity and amount that represent an entry in
// listings: the net final amount for CABAL, the accredited amount or the
// balance for Nación.
func Headline(e *settlement.Entry) (string, decimal.Decimal) {
	doc := e.Document

	switch {
	case doc.Cabal != nil:
		id := doc.Cabal.Header.SettlementNumber
		if id == "" {
			id = "s/n"
		}

		return "CABAL " + id, doc.Cabal.Final.NetFinal
	case doc.Nacion != nil:
		amount := doc.Nacion.Totals.Balance.Decimal
		if doc.Nacion.Accreditation != nil {
			amount = doc.Nacion.Accreditation.Amount
		}

		return "NACION", amount
	default:
		return e.Name, decimal.Zero
	}
}

// GenerateSummary creates a plain text summary of the exported items.
func (s *Service) GenerateSummary(items []Item) string {
	var sb strings.Builder

	for _, item := range items {
		date := item.Entry.Document.PaymentDate()
		if date == "" {
			date = "sin fecha"
		}

		title, amount := Headline(item.Entry)

		file := "sin archivo"
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		sb.WriteString(fmt.Sprintf("* %s | %s | %s | %s\n", date, title, locale.Pesos(amount), file))
	}

	return sb.String()
}
