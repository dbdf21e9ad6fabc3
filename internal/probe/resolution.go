package probe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
)

// Resolution policy constants. The 2000px ceiling and 1920x1080 fallback
// are empirical tuning values carried over intact: devices advertising
// wider ranges routinely cannot sustain them over USB.
const (
	maxSafeWidth = 2000

	// FallbackResolution is used whenever an advertised resolution cannot
	// be trusted or no camera is detected at all.
	FallbackResolution = "1920x1080"
)

// BestResolution resolves a format table's resolution field to a single
// WxH choice. Two sub-grammars exist:
//
//	range form:      {32-2592, 2}x{32-1944, 2}
//	enumerated form: 640x480 1280x720 1920x1080
//
// The range form takes each axis's upper bound; the enumerated form takes
// the token with the greatest area. Either way a width at or above the
// safety ceiling clamps to FallbackResolution.
func BestResolution(field string) (string, error) {
	if strings.Contains(field, "{") {
		return bestFromRange(field)
	}
	return bestFromEnumeration(field), nil
}

func bestFromRange(field string) (string, error) {
	wExpr, hExpr, found := strings.Cut(field, "x")
	if !found {
		return "", fmt.Errorf("range expression %q has no axis separator", field)
	}

	width, err := rangeUpperBound(wExpr)
	if err != nil {
		return "", fmt.Errorf("range expression %q: %w", field, err)
	}
	height, err := rangeUpperBound(hExpr)
	if err != nil {
		return "", fmt.Errorf("range expression %q: %w", field, err)
	}

	if width >= maxSafeWidth {
		return FallbackResolution, nil
	}
	return fmt.Sprintf("%dx%d", width, height), nil
}

// rangeUpperBound extracts the upper bound from one axis of a brace-range
// expression, the substring between "-" and ",": {32-2592, 2} -> 2592.
func rangeUpperBound(expr string) (int, error) {
	start := strings.Index(expr, "-")
	end := strings.Index(expr, ",")
	if start < 0 || end < 0 || end <= start+1 {
		return 0, fmt.Errorf("no upper bound in %q", expr)
	}
	value, err := strconv.Atoi(expr[start+1 : end])
	if err != nil {
		return 0, fmt.Errorf("upper bound in %q: %w", expr, err)
	}
	return value, nil
}

func bestFromEnumeration(field string) string {
	logger := logging.GetLogger("probe")
	bestW, bestH := 0, 0

	for _, option := range strings.Fields(field) {
		wTok, hTok, found := strings.Cut(option, "x")
		if !found {
			logger.Warn("Skipping malformed resolution token", "token", option)
			continue
		}
		w, wErr := strconv.Atoi(wTok)
		h, hErr := strconv.Atoi(hTok)
		if wErr != nil || hErr != nil {
			logger.Warn("Skipping malformed resolution token", "token", option)
			continue
		}
		if w*h > bestW*bestH {
			bestW, bestH = w, h
		}
	}

	if bestW == 0 || bestW >= maxSafeWidth {
		return FallbackResolution
	}
	return fmt.Sprintf("%dx%d", bestW, bestH)
}
