package render

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dshills/smartscan/internal/finding"
	"github.com/dshills/smartscan/internal/lineindex"
	"github.com/dshills/smartscan/internal/rating"
	"github.com/dshills/smartscan/internal/scan"
)

// Document is the JSON rendering of a scan result.
type Document struct {
	ID         string            `json:"id"`
	Analyzer   string            `json:"analyzer"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Score      int               `json:"score"`
	Stars      int               `json:"stars"`
	Label      string            `json:"label,omitempty"`
	Tally      rating.Tally      `json:"tally"`
	Files      []FileDocument    `json:"files"`
	Failures   []FailureDocument `json:"failures,omitempty"`
	Dropped    int               `json:"dropped,omitempty"`
	Foreign    int               `json:"foreign,omitempty"`
	Skipped    int               `json:"skipped,omitempty"`
	Duplicates []string          `json:"duplicates,omitempty"`
}

// FileDocument lists one analyzed file with its findings and highlighted
// line spans.
type FileDocument struct {
	Path        string            `json:"path"`
	Findings    []finding.Finding `json:"findings"`
	Highlighted []lineindex.Range `json:"highlighted"`
}

// FailureDocument records a file whose analysis failed.
type FailureDocument struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// NewDocument converts res into its JSON document form.
func NewDocument(res *scan.Result) Document {
	doc := Document{
		ID:         res.ID,
		Analyzer:   res.Analyzer,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Score:      res.Rating.Score,
		Stars:      res.Rating.Stars,
		Label:      res.Rating.Label(),
		Tally:      res.Rating.Tally,
		Files:      []FileDocument{},
		Dropped:    res.Dropped,
		Foreign:    res.Foreign,
		Skipped:    res.Skipped,
		Duplicates: res.Duplicates,
	}
	for _, p := range res.Files() {
		ff, _ := res.File(p)
		findings := ff.Findings
		if findings == nil {
			findings = []finding.Finding{}
		}
		highlighted := ff.Index.Spans()
		if highlighted == nil {
			highlighted = []lineindex.Range{}
		}
		doc.Files = append(doc.Files, FileDocument{Path: p, Findings: findings, Highlighted: highlighted})
	}
	for _, fe := range res.Failures {
		doc.Failures = append(doc.Failures, FailureDocument{Path: fe.Path, Error: fe.Err.Error()})
	}
	return doc
}

// JSON renders res as indented JSON.
func JSON(res *scan.Result) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(res), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render.JSON: %w", err)
	}
	return append(data, '\n'), nil
}
