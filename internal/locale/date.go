package locale

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var datePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})$`)

// Date re-renders a D/M/YYYY or D-M-YY token as YYYY-MM-DD.
// Two-digit years are read as 20YY. Anything else is returned unchanged.
func Date(tok string) string {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(tok))
	if m == nil {
		return tok
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])

	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}

	return fmt.Sprintf("%s-%02d-%02d", year, month, day)
}

// IsDate reports whether tok is shaped like a report date.
func IsDate(tok string) bool {
	return datePattern.MatchString(strings.TrimSpace(tok))
}
