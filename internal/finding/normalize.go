package finding

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformed marks a raw record that cannot become a Finding.
	ErrMalformed = errors.New("malformed finding")
	// ErrUnknownSeverity marks a record whose impact label is not recognized.
	ErrUnknownSeverity = errors.New("unknown severity")
)

// ValidationError describes a single structural problem in a raw record.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a raw record for the fields normalization needs.
// Only the primary (first) location is inspected.
func Validate(raw RawFinding) []ValidationError {
	var errs []ValidationError

	if _, ok := ParseSeverity(raw.Impact); !ok {
		errs = append(errs, ValidationError{"impact", "unrecognized severity " + quote(raw.Impact)})
	}
	if len(raw.Locations) == 0 {
		errs = append(errs, ValidationError{"locations", "at least one location required"})
		return errs
	}

	loc := raw.Locations[0]
	if loc.StartLine < 1 {
		errs = append(errs, ValidationError{"locations[0].start_line", "must be >= 1"})
	}
	if loc.EndLine < loc.StartLine {
		errs = append(errs, ValidationError{"locations[0].end_line", "must be >= start_line"})
	}
	return errs
}

// Normalize converts raw into a Finding attributed to file. Multi-element
// findings are represented by their first location only. The returned error
// wraps ErrMalformed, and also ErrUnknownSeverity when the label was the cause.
func Normalize(raw RawFinding, file string) (Finding, error) {
	if errs := Validate(raw); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		cause := ErrMalformed
		if _, ok := ParseSeverity(raw.Impact); !ok {
			cause = fmt.Errorf("%w: %w", ErrMalformed, ErrUnknownSeverity)
		}
		return Finding{}, fmt.Errorf("finding.Normalize: %w: %s", cause, strings.Join(msgs, "; "))
	}

	sev, _ := ParseSeverity(raw.Impact)
	loc := raw.Locations[0]
	return Finding{
		SourceFile:  file,
		FirstLine:   loc.StartLine,
		LastLine:    loc.EndLine,
		Severity:    sev,
		Description: strings.TrimSpace(raw.Description),
		Check:       raw.Check,
		Confidence:  raw.Confidence,
	}, nil
}

func quote(s string) string {
	return strconv.Quote(s)
}
