package telemetry

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Two layouts are recognized, nothing else:
//
//	DD-MM-YYYY HH:MM     05-03-2024 14:30
//	DD/Mon/YYYY HH:MM    05/Mar/2024 14:30
//
// A trailing ":SS" is tolerated and ignored. Both layouts capture the
// components in the same order: day, month, year, hour, minute.
type timestampLayout struct {
	pattern *regexp.Regexp
	month   func(string) (time.Month, bool)
}

var timestampLayouts = []timestampLayout{
	{
		pattern: regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})\s+(\d{2}):(\d{2})(?::\d{2})?$`),
		month:   numericMonth,
	},
	{
		pattern: regexp.MustCompile(`^(\d{2})/([A-Za-z]{3})/(\d{4})\s+(\d{2}):(\d{2})(?::\d{2})?$`),
		month:   abbreviatedMonth,
	},
}

var monthAbbreviations = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// ParseTimestamp parses one of the two export layouts into a local,
// zone-less time. It returns false for empty text, the "-" placeholder,
// any other layout, and out-of-range components (31-02-2024, 25:00).
func ParseTimestamp(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		m := layout.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		month, ok := layout.month(m[2])
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}

		t := time.Date(year, month, day, hour, minute, 0, 0, time.Local)
		// time.Date normalizes overflow; reject anything that rolled over.
		if t.Day() != day || t.Month() != month || t.Year() != year {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func numericMonth(s string) (time.Month, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	return time.Month(n), true
}

// abbreviatedMonth is case-sensitive: "Mar" parses, "MAR" and "mar" do not.
func abbreviatedMonth(s string) (time.Month, bool) {
	m, ok := monthAbbreviations[s]
	return m, ok
}
