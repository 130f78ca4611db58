package email_parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	phoneStripRegex   = regexp.MustCompile(`[^0-9+]`)
	germanDateRegex   = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	firstNumberRegex  = regexp.MustCompile(`\d+`)
	markdownLinkRegex = regexp.MustCompile(`\s*\[[^\]]*\]\([^)]*\)`)
	mapsNoteRegex     = regexp.MustCompile(`\s*\((?:Standort auf|Google Maps)[^)]*\)`)
	urlRegex          = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	mapsHostRegex     = regexp.MustCompile(`(?:maps\.google\.|google\.com/maps)\S*`)
	emptyBracketRegex = regexp.MustCompile(`\s*(?:\(\s*\)|\[\s*\])`)
	decimalRegex      = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

var floorNames = map[string]int{
	"erdgeschoss":  0,
	"eg":           0,
	"parterre":     0,
	"souterrain":   -1,
	"keller":       -1,
	"dachgeschoss": 99,
	"dg":           99,
}

// NormalizePhone strips separators and writes German numbers in +49 form.
func NormalizePhone(phone string) string {
	normalized := phoneStripRegex.ReplaceAllString(strings.TrimSpace(phone), "")
	if normalized == "" {
		return ""
	}
	// a + anywhere but the front is noise
	if idx := strings.LastIndex(normalized, "+"); idx > 0 {
		normalized = strings.ReplaceAll(normalized, "+", "")
	}

	switch {
	case strings.HasPrefix(normalized, "+"):
		return normalized
	case strings.HasPrefix(normalized, "00"):
		return "+" + normalized[2:]
	case strings.HasPrefix(normalized, "0"):
		return "+49" + normalized[1:]
	case strings.HasPrefix(normalized, "49"):
		return "+" + normalized
	case len(normalized) >= 10:
		return "+49" + normalized
	}
	return normalized
}

// ParseFloor reads a German floor designation. Named floors map to fixed values,
// anything else to its first number, and unreadable input to 0.
func ParseFloor(floor string) int {
	lower := strings.ToLower(strings.TrimSpace(floor))
	if lower == "" {
		return 0
	}
	if value, ok := floorNames[lower]; ok {
		return value
	}
	if match := firstNumberRegex.FindString(lower); match != "" {
		n, _ := strconv.Atoi(match)
		return n
	}
	for name, value := range floorNames {
		if len(name) > 2 && strings.Contains(lower, name) {
			return value
		}
	}
	return 0
}

// ParseGermanDate reads the first dd.mm.yyyy date in s as midnight UTC.
func ParseGermanDate(s string) *time.Time {
	match := germanDateRegex.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day {
		return nil
	}
	return &date
}

// RemoveGoogleLinks drops map links, bare URLs and the brackets they leave behind.
func RemoveGoogleLinks(text string) string {
	if text == "" {
		return text
	}
	text = markdownLinkRegex.ReplaceAllString(text, "")
	text = mapsNoteRegex.ReplaceAllString(text, "")
	text = urlRegex.ReplaceAllString(text, "")
	text = mapsHostRegex.ReplaceAllString(text, "")
	text = emptyBracketRegex.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	match := decimalRegex.FindString(s)
	if match == "" {
		return 0
	}
	n, _ := strconv.ParseFloat(match, 64)
	return n
}

// field returns the trimmed first capture group of re in s.
func field(re *regexp.Regexp, s string) string {
	if match := re.FindStringSubmatch(s); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}
	return ""
}
