package extractor

import (
	"strconv"
	"strings"
)

// ParsePrice reads a display price such as "$1.234,56 MXN" or "1,299".
//
// Everything but digits and the '.'/',' separators is dropped. When both
// separators occur, the last one is the decimal mark. A lone separator is
// a thousands mark if it repeats or is followed by exactly three digits;
// otherwise it is the decimal mark. Text without digits yields ok=false.
func ParsePrice(text string) (float64, bool) {
	var b strings.Builder
	hasDigit := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
			b.WriteRune(r)
		case r == '.' || r == ',':
			b.WriteRune(r)
		}
	}
	if !hasDigit {
		return 0, false
	}

	s := strings.Trim(b.String(), ".,")
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimal, thousands := ".", ","
		if lastComma > lastDot {
			decimal, thousands = ",", "."
		}
		s = strings.ReplaceAll(s, thousands, "")
		s = strings.Replace(s, decimal, ".", 1)
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".")
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}
