package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

var ErrUnknownFormat = errors.New("unknown report format")

// Format selects a parser. FormatAuto sniffs the report text.
type Format string

const (
	FormatCabal  Format = Format(settlement.FormatCabal)
	FormatNacion Format = Format(settlement.FormatNacion)
	FormatAuto   Format = "auto"
)

// ParseFormat accepts the user-facing spelling of a format; empty means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatCabal, FormatNacion, FormatAuto:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Importer parses one report. Implementations return
// settlement.ErrUnidentified together with the partial document when the
// report carries no identity fields.
type Importer interface {
	Parse(r io.Reader) (settlement.Document, error)
}
