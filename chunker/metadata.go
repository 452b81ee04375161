package chunker

import (
	"regexp"
	"strconv"
)

// Temporal extraction is heuristic and best-effort. It looks for an
// explicit "MM.YYYY - MM.YYYY" or "MM.YYYY - Current" range first and
// only falls back to bare calendar years when no range is present.
var (
	rangePattern = regexp.MustCompile(`(0[1-9]|1[0-2])\.(\d{4})\s*[-\x{2013}\x{2014}]\s*((0[1-9]|1[0-2])\.\d{4}|[Cc]urrent)`)
	yearPattern  = regexp.MustCompile(`\b(19[89]\d|20[0-2]\d)\b`)
)

// ExtractTemporalRange scans the full document text for a temporal
// range. It returns empty strings when nothing date-like is found.
func ExtractTemporalRange(text string) (startDate, endDate string) {
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		start := m[1] + "." + m[2]
		end := m[3]
		if end == "current" {
			end = "Current"
		}
		return start, end
	}

	years := yearPattern.FindAllString(text, -1)
	if len(years) == 0 {
		return "", ""
	}

	minYear, maxYear := years[0], years[0]
	for _, y := range years[1:] {
		if yearLess(y, minYear) {
			minYear = y
		}
		if yearLess(maxYear, y) {
			maxYear = y
		}
	}
	return minYear, maxYear
}

func yearLess(a, b string) bool {
	ya, _ := strconv.Atoi(a)
	yb, _ := strconv.Atoi(b)
	return ya < yb
}
