// Package lineindex answers which findings cover a given line of one file.
package lineindex

import (
	"math"
	"sort"

	"github.com/dshills/smartscan/internal/finding"
)

// Range is an inclusive span of lines.
type Range struct {
	First int `json:"first"`
	Last  int `json:"last"`
}

// Len returns the number of lines in r.
func (r Range) Len() int { return r.Last - r.First + 1 }

// Index maps line numbers of a single file to the findings covering them.
// It keeps one range per finding; overlapping ranges are not merged. Memory
// and build time depend on the number of findings, not on range widths.
type Index struct {
	findings []finding.Finding
	spans    []Range
}

// New builds an index over findings, preserving their discovery order.
func New(findings []finding.Finding) *Index {
	idx := &Index{findings: append([]finding.Finding(nil), findings...)}
	idx.spans = merge(idx.Ranges())
	return idx
}

// merge returns the sorted union of rs with adjacent and overlapping spans
// joined.
func merge(rs []Range) []Range {
	if len(rs) == 0 {
		return nil
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].First < rs[j].First })
	out := []Range{rs[0]}
	for _, r := range rs[1:] {
		cur := &out[len(out)-1]
		if cur.Last == math.MaxInt || r.First <= cur.Last+1 {
			cur.Last = max(cur.Last, r.Last)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Len returns the number of indexed findings.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.findings)
}

// Findings returns the indexed findings in discovery order.
func (x *Index) Findings() []finding.Finding {
	if x == nil {
		return nil
	}
	return append([]finding.Finding(nil), x.findings...)
}

// Covering returns every finding whose range contains line, in discovery order.
func (x *Index) Covering(line int) []finding.Finding {
	if x == nil {
		return nil
	}
	var out []finding.Finding
	for _, f := range x.findings {
		if f.Covers(line) {
			out = append(out, f)
		}
	}
	return out
}

// At returns the first finding, in discovery order, that covers line.
// The boolean is false when no finding covers it.
func (x *Index) At(line int) (finding.Finding, bool) {
	if x == nil {
		return finding.Finding{}, false
	}
	for _, f := range x.findings {
		if f.Covers(line) {
			return f, true
		}
	}
	return finding.Finding{}, false
}

// Highlighted reports whether line belongs to any finding.
func (x *Index) Highlighted(line int) bool {
	if x == nil {
		return false
	}
	i := sort.Search(len(x.spans), func(i int) bool { return x.spans[i].Last >= line })
	return i < len(x.spans) && x.spans[i].First <= line
}

// Spans returns the highlighted lines as sorted, disjoint ranges.
func (x *Index) Spans() []Range {
	if x == nil {
		return nil
	}
	return append([]Range(nil), x.spans...)
}

// HighlightedCount returns the number of distinct highlighted lines.
func (x *Index) HighlightedCount() int {
	n := 0
	for _, s := range x.Spans() {
		n += s.Len()
	}
	return n
}

// HighlightedLines returns the ascending set of lines covered by any finding.
// The result grows with the covered lines; use Spans or HighlightedWithin
// when ranges may be wide.
func (x *Index) HighlightedLines() []int {
	return x.HighlightedWithin(1, math.MaxInt)
}

// HighlightedWithin returns the highlighted lines in [first, last], ascending.
func (x *Index) HighlightedWithin(first, last int) []int {
	var lines []int
	for _, s := range x.Spans() {
		lo, hi := max(s.First, first), min(s.Last, last)
		if lo > hi {
			continue
		}
		for l := lo; ; l++ {
			lines = append(lines, l)
			if l == hi {
				break
			}
		}
	}
	return lines
}

// Ranges returns one span per finding in discovery order.
func (x *Index) Ranges() []Range {
	if x == nil {
		return nil
	}
	out := make([]Range, len(x.findings))
	for i, f := range x.findings {
		out[i] = Range{First: f.FirstLine, Last: f.LastLine}
	}
	return out
}
