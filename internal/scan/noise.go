// Package scan holds the report-agnostic stages of the extraction pipeline:
// noise stripping, line segmentation and section location.
package scan

import (
	"fmt"
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n\s*\n`)

// NoiseRule removes every match of Pattern from the raw report text.
type NoiseRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// NewNoiseRule compiles pattern into a named rule.
func NewNoiseRule(name, pattern string) (NoiseRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return NoiseRule{}, fmt.Errorf("compile noise rule %q: %w", name, err)
	}

	return NoiseRule{Name: name, Pattern: re}, nil
}

// Stripper removes boilerplate (page-break markers, letterheads, fiscal
// disclaimers) before the text is split into lines.
type Stripper struct {
	rules []NoiseRule
}

func NewStripper(rules ...NoiseRule) *Stripper {
	return &Stripper{rules: rules}
}

// Strip applies every rule in order, collapses runs of blank lines and trims
// the result. A rule that does not match is a no-op.
func (s *Stripper) Strip(text string) string {
	for _, r := range s.rules {
		text = r.Pattern.ReplaceAllString(text, "")
	}

	text = blankRuns.ReplaceAllString(text, "\n")

	return strings.TrimSpace(text)
}
