package render

import (
	"fmt"
	"strings"

	"github.com/dshills/smartscan/internal/finding"
	"github.com/dshills/smartscan/internal/rating"
	"github.com/dshills/smartscan/internal/scan"
)

// Markdown renders a scan result as a Markdown report.
func Markdown(res *scan.Result) string {
	var b strings.Builder
	r := res.Rating

	// Summary
	b.WriteString("# SmartScan Security Report\n\n")
	fmt.Fprintf(&b, "**Rating:** %s %d / %d", stars(r.Stars), r.Stars, rating.MaxStars)
	if label := r.Label(); label != "" {
		fmt.Fprintf(&b, " (%s)", label)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "**Score:** %d\n", r.Score)
	fmt.Fprintf(&b, "**Files:** %d analyzed, %d failed", len(res.Files()), len(res.Failures))
	if res.Skipped > 0 {
		fmt.Fprintf(&b, ", %d skipped", res.Skipped)
	}
	b.WriteString("\n\n")

	if len(res.Duplicates) > 0 {
		fmt.Fprintf(&b, "> Duplicate input: %s analyzed more than once. Counts include every analysis; findings are listed once.\n\n",
			quotePaths(res.Duplicates))
	}

	b.WriteString("| Severity | Count |\n|---|---|\n")
	for _, s := range finding.DisplayOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", s, r.Tally.Count(s))
	}
	b.WriteString("\n")

	// Findings by severity
	all := res.Findings()
	for _, sev := range finding.PriorityOrder {
		matched := filterFindings(all, sev)
		if len(matched) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", sev)
		for _, f := range matched {
			renderFinding(&b, f)
		}
	}

	if len(all) == 0 {
		b.WriteString("No vulnerabilities found.\n\n")
	}

	// Failures
	if len(res.Failures) > 0 {
		b.WriteString("## Failed Files\n\n")
		for _, fe := range res.Failures {
			fmt.Fprintf(&b, "- `%s`: %v\n", fe.Path, fe.Err)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func filterFindings(findings []finding.Finding, sev finding.Severity) []finding.Finding {
	var result []finding.Finding
	for _, f := range findings {
		if f.Severity == sev {
			result = append(result, f)
		}
	}
	return result
}

func renderFinding(b *strings.Builder, f finding.Finding) {
	title := f.Check
	if title == "" {
		title = f.Severity.String()
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	fmt.Fprintf(b, "`%s` %s", f.SourceFile, lineSpan(f))
	if f.Confidence != "" {
		fmt.Fprintf(b, " (confidence: %s)", f.Confidence)
	}
	b.WriteString("\n\n")
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		desc = "(no description)"
	}
	for _, line := range strings.Split(desc, "\n") {
		fmt.Fprintf(b, "> %s\n", strings.TrimSpace(line))
	}
	b.WriteString("\n")
}

func lineSpan(f finding.Finding) string {
	if f.FirstLine == f.LastLine {
		return fmt.Sprintf("L%d", f.FirstLine)
	}
	return fmt.Sprintf("L%d-%d", f.FirstLine, f.LastLine)
}

func stars(n int) string {
	return strings.Repeat("★", n) + strings.Repeat("☆", rating.MaxStars-n)
}

func quotePaths(paths []string) string {
	q := make([]string, len(paths))
	for i, p := range paths {
		q[i] = "`" + p + "`"
	}
	return strings.Join(q, ", ")
}
