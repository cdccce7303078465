package settlement

import "fmt"

// DiagnosticKind classifies a recovered extraction problem.
type DiagnosticKind string

const (
	KindSkippedRow     DiagnosticKind = "skipped_row"
	KindBadAmount      DiagnosticKind = "bad_amount"
	KindBadCount       DiagnosticKind = "bad_count"
	KindAmbiguousFee   DiagnosticKind = "ambiguous_fee"
	KindRoutedFee      DiagnosticKind = "routed_fee"
	KindMissingSection DiagnosticKind = "missing_section"
)

// Dropped reports whether the kind means a whole line was discarded, as
// opposed to a field defaulted to zero.
func (k DiagnosticKind) Dropped() bool {
	return k == KindSkippedRow || k == KindAmbiguousFee
}

// Diagnostic records a line the parser recovered from instead of failing.
// Line is the index in the segmented line sequence, or -1 for
// document-level notes such as a missing section.
type Diagnostic struct {
	Line    int            `json:"line"`
	Section string         `json:"section"`
	Kind    DiagnosticKind `json:"kind"`
	Reason  string         `json:"reason"`
	Text    string         `json:"text,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Line < 0 {
		return fmt.Sprintf("%s [%s]: %s", d.Section, d.Kind, d.Reason)
	}

	return fmt.Sprintf("line %d %s [%s]: %s", d.Line+1, d.Section, d.Kind, d.Reason)
}
