package workbook

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/liquidaciones/internal/locale"
)

const (
	maxSheetName = 31
	minColWidth  = 8
	maxColWidth  = 60
)

var (
	sheetNameReplacer = regexp.MustCompile(`[:\\/?*\[\]]`)

	currencyFormat = `"$" #,##0.00;-"$" #,##0.00`

	thinBorder = []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
)

// SanitizeSheetName replaces the characters Excel rejects in sheet names
// with "-", drops surrounding apostrophes and truncates to the 31
// character limit.
func SanitizeSheetName(name string) string {
	name = strings.Trim(sheetNameReplacer.ReplaceAllString(name, "-"), "'")

	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}

	return name
}

// styles holds the style ids of one file, indexed by [header][kind].
type styles map[bool]map[CellKind]int

func newStyles(f *excelize.File) (styles, error) {
	s := make(styles)

	for _, header := range []bool{false, true} {
		s[header] = make(map[CellKind]int)

		for _, kind := range []CellKind{KindText, KindNumber, KindCurrency} {
			style := &excelize.Style{
				Border: thinBorder,
				Font:   &excelize.Font{Bold: header},
			}

			if kind == KindCurrency {
				style.CustomNumFmt = &currencyFormat
			}

			id, err := f.NewStyle(style)
			if err != nil {
				return nil, fmt.Errorf("create style: %w", err)
			}

			s[header][kind] = id
		}
	}

	return s, nil
}

// Build renders sheets into a new excelize file. The caller owns the file
// and must Close it.
func Build(sheets ...Sheet) (*excelize.File, error) {
	f := excelize.NewFile()

	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	used := make(map[string]bool)

	for i, sheet := range sheets {
		name := uniqueName(sheet.Title, i, used)

		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), name)
		} else {
			_, err = f.NewSheet(name)
		}

		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, sheet, st); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write sheet %q: %w", name, err)
		}
	}

	f.SetActiveSheet(0)

	return f, nil
}

// Write renders sheets as an xlsx document into w.
func Write(w io.Writer, sheets ...Sheet) error {
	f, err := Build(sheets...)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func uniqueName(title string, index int, used map[string]bool) string {
	name := SanitizeSheetName(title)
	if name == "" {
		name = "Hoja " + strconv.Itoa(index+1)
	}

	base := name

	for n := 2; used[name]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		runes := []rune(base)

		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}

		name = string(runes) + suffix
	}

	used[name] = true

	return name
}

func writeSheet(f *excelize.File, name string, sheet Sheet, st styles) error {
	var widths []int

	for r, row := range sheet.Rows {
		for c, cell := range row.Cells {
			if cell.Kind == KindBlank {
				continue
			}

			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}

			if err := setCell(f, name, ref, cell); err != nil {
				return err
			}

			if err := f.SetCellStyle(name, ref, ref, st[row.Header][cell.Kind]); err != nil {
				return err
			}

			for len(widths) <= c {
				widths = append(widths, 0)
			}

			widths[c] = max(widths[c], displayWidth(cell))
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}

		if err := f.SetColWidth(name, col, col, float64(min(max(w+2, minColWidth), maxColWidth))); err != nil {
			return err
		}
	}

	return nil
}

func setCell(f *excelize.File, sheet, ref string, cell Cell) error {
	switch cell.Kind {
	case KindText:
		return f.SetCellStr(sheet, ref, cell.Text)
	case KindNumber, KindCurrency:
		return f.SetCellFloat(sheet, ref, cell.Value.InexactFloat64(), -1, 64)
	default:
		return nil
	}
}

func displayWidth(cell Cell) int {
	switch cell.Kind {
	case KindText:
		return utf8.RuneCountInString(cell.Text)
	case KindCurrency:
		return utf8.RuneCountInString(locale.FormatAmount(cell.Value)) + 2
	case KindNumber:
		return utf8.RuneCountInString(cell.Value.String())
	default:
		return 0
	}
}
