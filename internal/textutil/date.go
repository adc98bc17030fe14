package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numericDotDate = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
var isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
var localizedDate = regexp.MustCompile(`^(\d{1,2})\.?\s+([A-Za-zÀ-ÿ]+)\s+(\d{4})$`)

var monthNames = map[string]int{
	// German
	"januar": 1, "februar": 2, "märz": 3, "april": 4, "mai": 5, "juni": 6,
	"juli": 7, "august": 8, "september": 9, "oktober": 10, "november": 11, "dezember": 12,
	// French
	"janvier": 1, "février": 2, "mars": 3, "avril": 4, "juin": 6,
	"juillet": 7, "août": 8, "septembre": 9, "octobre": 10, "novembre": 11, "décembre": 12,
	// Italian
	"gennaio": 1, "febbraio": 2, "marzo": 3, "aprile": 4, "maggio": 5, "giugno": 6,
	"luglio": 7, "agosto": 8, "settembre": 9, "ottobre": 10, "novembre_it": 11, "dicembre": 12,
}

// ParseDate accepts DD.MM.YYYY, YYYY-MM-DD, localized month names
// ("15. Oktober 2023", "6 août 2024", "31 marzo 2025"), and RFC-822-style RSS
// dates, returning an ISO (YYYY-MM-DD) string (spec §4.2).
func ParseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("textutil: empty date")
	}

	if m := isoDate.FindStringSubmatch(s); m != nil {
		return s, nil
	}

	if m := numericDotDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := m[3]
		return fmt.Sprintf("%s-%02d-%02d", year, month, day), nil
	}

	if m := localizedDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		monthName := strings.ToLower(m[2])
		year := m[3]
		month, ok := monthNames[monthName]
		if !ok {
			return "", fmt.Errorf("textutil: unrecognized month %q in %q", m[2], s)
		}
		return fmt.Sprintf("%s-%02d-%02d", year, month, day), nil
	}

	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("textutil: unrecognized date format %q", s)
}
