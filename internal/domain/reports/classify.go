package reports

import (
	"strconv"
	"strings"
)

// Classify evaluates a raw value string against a reference range.
// Bounds are inclusive: a value equal to a limit is normal. When the
// value is not a plain number, or the range has no numeric limits, the
// parameter is reported as normal with the second return value true so
// callers can flag it as unclassified rather than healthy.
func Classify(value string, rng ReferenceRange) (Status, bool) {
	v, ok := parseNumeric(value)
	if !ok {
		return StatusNormal, true
	}
	if rng.LowerLimit == nil && rng.UpperLimit == nil {
		return StatusNormal, true
	}
	if rng.LowerLimit != nil && v < *rng.LowerLimit {
		return StatusLow, false
	}
	if rng.UpperLimit != nil && v > *rng.UpperLimit {
		return StatusHigh, false
	}
	return StatusNormal, false
}

// parseNumeric accepts plain decimal literals, optionally with comma
// thousands separators ("12,500"). Comparator or qualitative values
// ("<5", "Negative", "1:80") are not numbers.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
