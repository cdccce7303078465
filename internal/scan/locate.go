package scan

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// MatchMode says where a header phrase has to appear in a line.
type MatchMode string

const (
	MatchPrefix   MatchMode = "prefix"
	MatchContains MatchMode = "contains"
)

// Header describes how a section starts and, optionally, an explicit
// terminator phrase that closes it before the next header.
type Header struct {
	Name       string
	Phrase     string
	Terminator string
	Mode       MatchMode
}

// Section is the located span of a header. Start is the index of the header
// line; the body runs over [Start+1, End).
type Section struct {
	Name  string
	Found bool
	Start int
	End   int
}

// Body returns the lines strictly between the header line and End.
func (s Section) Body(lines []Line) []Line {
	if !s.Found || s.Start+1 >= s.End {
		return nil
	}

	return lines[s.Start+1 : s.End]
}

// HeaderLine returns the header line itself.
func (s Section) HeaderLine(lines []Line) (Line, bool) {
	if !s.Found {
		return Line{}, false
	}

	return lines[s.Start], true
}

// Sections indexes located sections by header name.
type Sections map[string]Section

// Get returns the named section, or a not-found zero value.
func (s Sections) Get(name string) Section {
	if sec, ok := s[name]; ok {
		return sec
	}

	return Section{Name: name}
}

type phraseRef struct {
	header     int
	terminator bool
}

// Locator finds section boundaries in a segmented report. All header and
// terminator phrases are matched in a single pass per line.
type Locator struct {
	headers []Header
	keys    []string
	refs    [][]phraseRef
	matcher *ahocorasick.Matcher
}

func NewLocator(headers ...Header) *Locator {
	l := &Locator{headers: headers}
	index := make(map[string]int)

	add := func(phrase string, ref phraseRef) {
		key := Key(phrase)
		if key == "" {
			return
		}

		i, ok := index[key]
		if !ok {
			i = len(l.keys)
			index[key] = i
			l.keys = append(l.keys, key)
			l.refs = append(l.refs, nil)
		}

		l.refs[i] = append(l.refs[i], ref)
	}

	for i, h := range headers {
		add(h.Phrase, phraseRef{header: i})

		if h.Terminator != "" {
			add(h.Terminator, phraseRef{header: i, terminator: true})
		}
	}

	l.matcher = ahocorasick.NewStringMatcher(l.keys)

	return l
}

// Locate records the first line matching each header and closes every
// section at the next recognized header or at its terminator, whichever
// comes first. Missing headers yield not-found sections.
func (l *Locator) Locate(lines []Line) Sections {
	first := make([]int, len(l.headers))
	for i := range first {
		first[i] = -1
	}

	terminators := make([][]int, len(l.headers))

	for i, line := range lines {
		for _, hit := range l.matcher.MatchThreadSafe([]byte(line.Key)) {
			key := l.keys[hit]

			for _, ref := range l.refs[hit] {
				h := l.headers[ref.header]

				if ref.terminator {
					if strings.HasPrefix(line.Key, key) {
						terminators[ref.header] = append(terminators[ref.header], i)
					}

					continue
				}

				if h.Mode != MatchContains && !strings.HasPrefix(line.Key, key) {
					continue
				}

				if first[ref.header] < 0 {
					first[ref.header] = i
				}
			}
		}
	}

	sections := make(Sections, len(l.headers))

	for i, h := range l.headers {
		start := first[i]
		if start < 0 {
			sections[h.Name] = Section{Name: h.Name}
			continue
		}

		end := len(lines)

		for j, other := range first {
			if j != i && other > start && other < end {
				end = other
			}
		}

		for _, t := range terminators[i] {
			if t > start && t < end {
				end = t
				break
			}
		}

		sections[h.Name] = Section{Name: h.Name, Found: true, Start: start, End: end}
	}

	return sections
}
