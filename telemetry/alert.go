package telemetry

import (
	"strconv"
	"strings"
)

// Alert types seen in the source sheets.
const (
	AlertDeviceRemoved          = "Device_Removed"
	AlertPowerDisconnect        = "Power_Disconnect_Alert"
	AlertRouteDiversion         = "Route_Diversion_Alert"
	AlertStoppageViolation      = "Stoppage_Violation"
	AlertRouteDeviationStoppage = "RouteDeviationStoppage"
)

var alertPlaceholders = map[string]bool{
	"-": true, "--": true, "na": true, "n/a": true,
	"null": true, "none": true, "undefined": true,
}

// ClassifyAlert derives an alert type from the source/category column.
// Blank, placeholder and purely numeric values become Unknown; whitespace
// runs become underscores ("Stoppage Violation" → "Stoppage_Violation").
func ClassifyAlert(source string) string {
	source = strings.TrimSpace(source)
	if source == "" || alertPlaceholders[strings.ToLower(source)] {
		return Unknown
	}
	if _, err := strconv.ParseFloat(source, 64); err == nil {
		return Unknown
	}
	return whitespaceRun.ReplaceAllString(source, "_")
}
