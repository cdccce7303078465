package cabal

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/MrJamesThe3rd/liquidaciones/internal/scan"
	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

// rule pairs a line matcher with the extractor that runs when it matches.
type rule struct {
	name    string
	match   func(l scan.Line) bool
	extract func(b *builder, l scan.Line)
}

// ruleSet is evaluated in order; the first matching rule wins.
type ruleSet []rule

func (rs ruleSet) apply(b *builder, l scan.Line) bool {
	for _, r := range rs {
		if r.match(l) {
			r.extract(b, l)
			return true
		}
	}

	return false
}

// Rules is a compiled Grammar.
type Rules struct {
	policy     FeePolicy
	stripper   *scan.Stripper
	locator    *scan.Locator
	dateRow    *regexp.Regexp
	percentage *regexp.Regexp
	reference  *regexp.Regexp
	marker     string
	debit      []string
	credit     []string

	header  ruleSet
	rows    ruleSet
	summary ruleSet
	final   ruleSet
}

// Compile validates g and builds its rule tables.
func (g Grammar) Compile() (*Rules, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	noise := make([]scan.NoiseRule, 0, len(g.Noise))

	for _, n := range g.Noise {
		r, err := scan.NewNoiseRule(n.Name, n.Pattern)
		if err != nil {
			return nil, err
		}

		noise = append(noise, r)
	}

	r := &Rules{
		policy:   g.Policy,
		stripper: scan.NewStripper(noise...),
		locator:  scan.NewLocator(g.Sections.headers()...),
		marker:   scan.Key(g.TotalMarker),
		debit:    keys(g.Markers.Debit),
		credit:   keys(g.Markers.Credit),
	}

	var err error

	if r.dateRow, err = compilePattern("date_row", g.DateRow, 0); err != nil {
		return nil, err
	}

	if r.percentage, err = compilePattern("percentage", g.Percentage, 1); err != nil {
		return nil, err
	}

	if r.reference, err = compilePattern("reference", g.Reference, 1); err != nil {
		return nil, err
	}

	r.header = headerRules(g.Fields)
	r.rows = r.rowRules()
	r.summary = feeRules(g.SummaryFees)
	r.final = feeRules(g.FinalFees)

	return r, nil
}

// MustCompile is Compile for grammars known to be valid.
func (g Grammar) MustCompile() *Rules {
	r, err := g.Compile()
	if err != nil {
		panic(err)
	}

	return r
}

// compilePattern compiles a grammar pattern that must expose at least
// groups capture groups.
func compilePattern(name, pattern string, groups int) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile %s pattern: %w", name, err)
	}

	if re.NumSubexp() < groups {
		return nil, fmt.Errorf("compile %s pattern: %d capture group(s) required", name, groups)
	}

	return re, nil
}

func keys(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if k := scan.Key(p); k != "" {
			out = append(out, k)
		}
	}

	return out
}

func hasPrefix(phrase string) func(scan.Line) bool {
	key := scan.Key(phrase)

	return func(l scan.Line) bool {
		return key != "" && strings.HasPrefix(l.Key, key)
	}
}

func headerRules(f HeaderFields) ruleSet {
	return ruleSet{
		{
			name:  "payment_date",
			match: hasPrefix(f.PaymentDate),
			extract: func(b *builder, l scan.Line) {
				b.setHeader(&b.rec.Header.PaymentDate, dateValue(fieldValue(l, f.PaymentDate)))
			},
		},
		{
			name:  "settlement_number",
			match: hasPrefix(f.SettlementNumber),
			extract: func(b *builder, l scan.Line) {
				b.setHeader(&b.rec.Header.SettlementNumber, fieldValue(l, f.SettlementNumber))
			},
		},
		{
			name:  "account_ref",
			match: hasPrefix(f.AccountRef),
			extract: func(b *builder, l scan.Line) {
				b.setHeader(&b.rec.Header.AccountRef, fieldValue(l, f.AccountRef))
			},
		},
	}
}

// Policy reports the fee policy the rules were compiled with.
func (r *Rules) Policy() FeePolicy {
	return r.policy
}

func (r *Rules) rowRules() ruleSet {
	return ruleSet{
		{
			name: "terminal_total",
			match: func(l scan.Line) bool {
				return r.dateRow.MatchString(l.Text) && strings.Contains(l.Key, r.marker)
			},
			extract: (*builder).terminalRow,
		},
		{
			name: "detail",
			match: func(l scan.Line) bool {
				return r.dateRow.MatchString(l.Text)
			},
			extract: (*builder).detailRow,
		},
	}
}

// feeRules matches longer phrases first so that a phrase that prefixes
// another never shadows it.
func feeRules(specs []FeeSpec) ruleSet {
	ordered := slices.Clone(specs)
	slices.SortStableFunc(ordered, func(a, b FeeSpec) int {
		return cmp.Compare(len(scan.Key(b.Phrase)), len(scan.Key(a.Phrase)))
	})

	rs := make(ruleSet, 0, len(ordered))

	for _, spec := range ordered {
		concept := spec.Concept

		rs = append(rs, rule{
			name:  string(concept),
			match: hasPrefix(spec.Phrase),
			extract: func(b *builder, l scan.Line) {
				b.feeRow(concept, l)
			},
		})
	}

	return rs
}

// fieldValue returns what follows the first colon of a header line, or the
// tokens after the phrase when the line has no colon.
func fieldValue(l scan.Line, phrase string) string {
	if _, after, ok := strings.Cut(l.Text, ":"); ok {
		return strings.TrimSpace(after)
	}

	tokens := l.Tokens()
	n := len(strings.Fields(scan.Key(phrase)))

	if n >= len(tokens) {
		return ""
	}

	return strings.Join(tokens[n:], " ")
}

// bucket classifies a fee line by its markers.
type bucket int

const (
	bucketNone bucket = iota
	bucketDebit
	bucketCredit
	bucketBoth
)

func (r *Rules) bucketOf(l scan.Line) bucket {
	debit := containsAny(l.Key, r.debit)
	credit := containsAny(l.Key, r.credit)

	switch {
	case debit && credit:
		return bucketBoth
	case debit:
		return bucketDebit
	case credit:
		return bucketCredit
	default:
		return bucketNone
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

// admits applies the fee policy to a line found in the summary of scope and
// returns the summary the line belongs to. A line carrying only the other
// marker belongs to the other summary. The returned reason explains a
// rejection.
func (r *Rules) admits(scope bucket, l scan.Line) (bucket, settlement.DiagnosticKind, string, bool) {
	got := r.bucketOf(l)

	switch {
	case got == bucketBoth:
		return bucketNone, settlement.KindAmbiguousFee, "fee line carries both debit and credit markers", false
	case got == bucketNone && r.policy == PolicyExclusive:
		return bucketNone, settlement.KindSkippedRow, "fee line carries no marker", false
	case got == bucketNone:
		return scope, "", "", true
	}

	return got, "", "", true
}
