package telemetry

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	landmarkPattern = regexp.MustCompile(`(?is)^(\d+(?:\.\d+)?)\s*km\s+from\s+(.+)$`)
	companyPrefix   = regexp.MustCompile(`(?i)^(?:(?:m/s|ms/hsd)\.\s*|(?:m/s|ms/hsd)(?:\s+|$))`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// ExtractLandmark normalizes a stoppage location.
//
//	"1.73 km from M/S Suvidha Auto Service, Shahpur" → "Suvidha Auto Service, Shahpur (1.73 km)"
//	"Main Depot"                                     → "Main Depot"
//	"0", ""                                          → "Unknown"
func ExtractLandmark(text string) string {
	text = strings.TrimSpace(text)
	if text == "" || text == "0" {
		return Unknown
	}

	m := landmarkPattern.FindStringSubmatch(text)
	if m == nil {
		return text
	}

	desc := cleanLandmark(m[2])
	if desc == "" {
		return text
	}
	return fmt.Sprintf("%s (%s km)", desc, m[1])
}

// cleanLandmark strips a company-style prefix, collapses whitespace, and
// trims trailing periods.
func cleanLandmark(desc string) string {
	desc = strings.TrimSpace(desc)
	desc = companyPrefix.ReplaceAllString(desc, "")
	desc = whitespaceRun.ReplaceAllString(desc, " ")
	desc = strings.TrimSpace(desc)
	desc = strings.TrimRight(desc, ".")
	return strings.TrimSpace(desc)
}
