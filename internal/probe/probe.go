// Package probe parses v4l2 capture capabilities out of ffmpeg's
// -list_formats output.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
)

// ErrNotCaptureDevice reports that the probed node exists but is not a
// video capture device (a metadata node, codec node, etc.). Callers treat
// it as a skip during enumeration, distinct from a camera whose format
// table could not be parsed.
var ErrNotCaptureDevice = errors.New("not a video capture device")

const (
	// tablePrefix marks format-table lines in ffmpeg's v4l2 stderr output:
	//   [video4linux2,v4l2 @ 0xf0cf70] Compressed: mjpeg : Motion-JPEG : {32-2592, 2}x{32-1944, 2}
	tablePrefix = "[video4linux2"

	notCaptureMarker = "Not a video capture device"

	// unsupportedSentinel is what ffmpeg prints for pixel formats it has no
	// name for; such entries are unusable and dropped.
	unsupportedSentinel = "Unsupported"
)

// FormatMap maps a v4l2 format name to the best resolution it offers.
type FormatMap map[string]string

// Command returns the probe invocation for a device node.
func Command(device string) string {
	return fmt.Sprintf("ffmpeg -hide_banner -f video4linux2 -list_formats all -i %s", device)
}

// Probe runs the capture-probe tool against a device node and parses its
// format table. The table is printed on stderr by convention; the probe
// exits non-zero even on success, so the exit status is ignored as long as
// output was captured.
func Probe(ctx context.Context, runner execute.Runner, device string) (FormatMap, error) {
	stdout, stderr, err := runner.Run(ctx, Command(device))
	if err != nil && stdout == "" && stderr == "" {
		return nil, fmt.Errorf("probing %s: %w", device, err)
	}

	if strings.Contains(stdout, notCaptureMarker) || strings.Contains(stderr, notCaptureMarker) {
		return nil, fmt.Errorf("%s: %w", device, ErrNotCaptureDevice)
	}

	return ParseFormatTable(stderr), nil
}

// ParseFormatTable extracts the format -> best-resolution map from raw
// probe output. Malformed lines are skipped, never fatal; an empty map
// means the device answered but advertised nothing parseable.
func ParseFormatTable(raw string) FormatMap {
	logger := logging.GetLogger("probe")
	formats := make(FormatMap)

	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(line, tablePrefix) || strings.Count(line, ": ") <= 2 {
			continue
		}

		// Drop the "[video4linux2,v4l2 @ 0x...]" tag, then split the
		// remaining "type : format : description : resolutions" fields.
		_, rest, found := strings.Cut(line, "]")
		if !found {
			continue
		}
		fields := strings.Split(rest, ": ")
		if len(fields) != 4 {
			logger.Warn("Skipping unparseable format line", "line", line)
			continue
		}

		name := strings.TrimSpace(fields[1])
		if name == unsupportedSentinel {
			continue
		}

		resolution, err := BestResolution(strings.TrimSpace(fields[3]))
		if err != nil {
			logger.Warn("Could not determine resolution", "format", name, "error", err)
			continue
		}
		formats[name] = resolution
	}

	return formats
}
