package rating

import "github.com/dshills/smartscan/internal/finding"

// MaxStars is the highest rating.
const MaxStars = 5

var weights = [finding.NumSeverities]int{
	finding.SeverityInformational: 0,
	finding.SeverityOptimization:  0,
	finding.SeverityLow:           1,
	finding.SeverityMedium:        5,
	finding.SeverityHigh:          8,
	finding.SeverityCritical:      10,
}

var labels = [MaxStars + 1]string{"", "Great", "Good", "Medium", "Vulnerable", "Critical"}

// Rating is the scorer's output for one tally.
type Rating struct {
	Score int   `json:"score"`
	Stars int   `json:"stars"`
	Tally Tally `json:"tally"`
}

// Label returns the qualitative result for the rating, empty at 0 stars.
func (r Rating) Label() string {
	return Label(r.Stars)
}

// Weight returns the score contribution of one finding of severity s.
func Weight(s finding.Severity) int {
	if !s.Valid() {
		return 0
	}
	return weights[s]
}

// Label returns the qualitative result for a star count, empty for 0 or
// out-of-range values.
func Label(stars int) string {
	if stars < 0 || stars > MaxStars {
		return ""
	}
	return labels[stars]
}

// ComputeScore sums count times weight over every severity class.
func ComputeScore(t Tally) int {
	score := 0
	for s, n := range t {
		score += n * weights[s]
	}
	return score
}

type band struct {
	stars int
	match func(crit, high, total int) bool
}

// bands is evaluated top to bottom and the first match wins. The conditions
// overlap and do not cover every tally; anything unmatched rates 0 stars.
var bands = []band{
	{5, func(crit, high, _ int) bool { return crit > 2 || high > 10 }},
	{4, func(crit, high, _ int) bool { return (crit > 0 && crit <= 2) || (high > 5 && high <= 10) }},
	{3, func(_, high, total int) bool { return high > 2 && high <= 5 && total > 25 }},
	{2, func(_, high, total int) bool { return (high > 0 && high <= 2) || (total > 10 && total <= 25) }},
	{1, func(crit, high, total int) bool { return total > 0 && total <= 10 && high == 0 && crit == 0 }},
}

// ComputeStars applies the ordered threshold table.
func ComputeStars(t Tally) int {
	crit := t[finding.SeverityCritical]
	high := t[finding.SeverityHigh]
	total := t.Total()
	for _, b := range bands {
		if b.match(crit, high, total) {
			return b.stars
		}
	}
	return 0
}

// Compute derives score and stars from t. It is pure.
func Compute(t Tally) Rating {
	return Rating{
		Score: ComputeScore(t),
		Stars: ComputeStars(t),
		Tally: t,
	}
}
