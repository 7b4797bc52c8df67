// Package annotate renders source files in the terminal with the lines
// covered by findings highlighted.
package annotate

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/smartscan/internal/finding"
	"github.com/dshills/smartscan/internal/lineindex"
	"github.com/dshills/smartscan/internal/source"
)

// Options controls Render output.
type Options struct {
	// Color enables ANSI colors regardless of terminal detection.
	Color bool
	// Line is the cursor line whose finding is described after the listing.
	// Zero disables the description.
	Line int
	// Context limits output to highlighted lines and this many lines around
	// them. Negative prints the whole file.
	Context int
}

var severityAttrs = map[finding.Severity][]color.Attribute{
	finding.SeverityCritical:      {color.FgRed, color.Bold},
	finding.SeverityHigh:          {color.FgRed},
	finding.SeverityMedium:        {color.FgYellow},
	finding.SeverityLow:           {color.FgCyan},
	finding.SeverityInformational: {color.FgBlue},
	finding.SeverityOptimization:  {color.FgGreen},
}

func newColor(enabled bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Render writes f with a line-number gutter. Lines covered by a finding are
// marked and colored by the most severe finding covering them.
func Render(w io.Writer, f *source.File, idx *lineindex.Index, opts Options) error {
	width := source.NumberWidth(f.LineCount())
	cursor := newColor(opts.Color, color.Bold)
	visible := visibleLines(f.LineCount(), idx, opts.Context)
	if visible != nil && opts.Line > 0 {
		visible[opts.Line] = true
	}

	var b strings.Builder
	prev := 0
	for n := 1; n <= f.LineCount(); n++ {
		if visible != nil && !visible[n] {
			continue
		}
		if prev != 0 && n != prev+1 {
			fmt.Fprintf(&b, "%*s  ...\n", width, "")
		}
		prev = n

		text, _ := f.Line(n)
		marker := ' '
		if n == opts.Line {
			marker = '>'
		}
		gutter := fmt.Sprintf("%c%*d", marker, width, n)
		if n == opts.Line {
			gutter = cursor.Sprint(gutter)
		}

		if !idx.Highlighted(n) {
			fmt.Fprintf(&b, "%s   %s\n", gutter, text)
			continue
		}
		top := mostSevere(idx.Covering(n))
		c := newColor(opts.Color, severityAttrs[top]...)
		fmt.Fprintf(&b, "%s %s %s\n", gutter, c.Sprint("█"), c.Sprint(text))
	}

	if opts.Line > 0 {
		b.WriteString("\n")
		if fnd, ok := idx.At(opts.Line); ok {
			b.WriteString(Describe(fnd))
		} else {
			fmt.Fprintf(&b, "No finding on line %d.\n", opts.Line)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Describe renders a finding the way the side panel shows it: a header with
// severity, detector and range followed by the description.
func Describe(f finding.Finding) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]", f.Severity)
	if f.Check != "" {
		fmt.Fprintf(&b, " %s", f.Check)
	}
	if f.FirstLine == f.LastLine {
		fmt.Fprintf(&b, " line %d", f.FirstLine)
	} else {
		fmt.Fprintf(&b, " lines %d-%d", f.FirstLine, f.LastLine)
	}
	if f.Confidence != "" {
		fmt.Fprintf(&b, " (confidence: %s)", f.Confidence)
	}
	b.WriteString("\n")

	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		desc = "(no description)"
	}
	b.WriteString(desc)
	b.WriteString("\n")
	return b.String()
}

func mostSevere(fs []finding.Finding) finding.Severity {
	top := fs[0].Severity
	for _, f := range fs[1:] {
		if f.Severity > top {
			top = f.Severity
		}
	}
	return top
}

// visibleLines returns the set of lines to print, or nil for all lines.
func visibleLines(total int, idx *lineindex.Index, context int) map[int]bool {
	if context < 0 {
		return nil
	}
	out := make(map[int]bool)
	for line := 1; line <= total; line++ {
		if !idx.Highlighted(line) {
			continue
		}
		for n := max(1, line-context); n <= min(total, line+context); n++ {
			out[n] = true
		}
	}
	return out
}
