package scan

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Line is one non-empty, whitespace-normalized line of a report.
type Line struct {
	// Index is the position of the line in the segmented sequence.
	Index int
	// Text is the trimmed line with tabs and space runs collapsed.
	Text string
	// Key is Text prepared for phrase matching, see Key.
	Key string
}

// Tokens splits the line on whitespace runs.
func (l Line) Tokens() []string {
	return strings.Fields(l.Text)
}

// Segment splits cleaned text into trimmed, non-empty lines.
// Carriage returns are dropped and tabs count as spaces.
func Segment(text string) []Line {
	text = strings.ReplaceAll(text, "\r", "")

	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))

	for _, r := range raw {
		collapsed := strings.Join(strings.Fields(r), " ")
		if collapsed == "" {
			continue
		}

		lines = append(lines, Line{
			Index: len(lines),
			Text:  collapsed,
			Key:   Key(collapsed),
		})
	}

	return lines
}

// Key normalizes s for case-, accent- and punctuation-insensitive matching:
// upper case, diacritics removed, periods and colons treated as spaces and
// space runs collapsed. "Tot. Fec. Pago:" and "TOT FEC PAGO" share a key.
func Key(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	folded = strings.Map(func(r rune) rune {
		if r == '.' || r == ':' {
			return ' '
		}

		return unicode.ToUpper(r)
	}, folded)

	return strings.Join(strings.Fields(folded), " ")
}
