// Package devices enumerates v4l2 capture nodes and picks the best
// device, format, and resolution for streaming.
package devices

import (
	"context"
	"errors"
	"path/filepath"
	"sort"

	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/probe"
)

// ErrNoCameraDetected is an advisory, not a failure: selection falls back
// to the default tuple on the assumption that a camera will be connected,
// and the caller surfaces the warning to the operator at the end of the
// run.
var ErrNoCameraDetected = errors.New("no camera detected")

// devicePattern matches the kernel's capture node naming; single digit,
// matching the original tool's /dev/video0-9 scan.
const devicePattern = "/dev/video?"

// Fallback tuple used when no capture device is enumerable.
const (
	FallbackDevice = "/dev/video0"
	FallbackFormat = "h264"
)

// formatPriority is the fixed preference order across a device's formats.
var formatPriority = []string{"h264", "mjpeg", "yuyv422", "yuv420p"}

// Candidate is one enumerated capture device and its parsed capabilities.
type Candidate struct {
	Path    string
	Formats probe.FormatMap
}

// Selection is the chosen device/format/resolution tuple.
type Selection struct {
	Path       string
	Format     string
	Resolution string
}

// List probes every candidate device node and returns the ones that are
// cameras. Nodes that report "not a capture device" or advertise no
// parseable format are skipped.
func List(ctx context.Context, runner execute.Runner) ([]Candidate, error) {
	logger := logging.GetLogger("devices")

	paths, err := filepath.Glob(devicePattern)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, path := range paths {
		formats, probeErr := probe.Probe(ctx, runner, path)
		if probeErr != nil {
			if errors.Is(probeErr, probe.ErrNotCaptureDevice) {
				logger.Debug("Skipping non-capture device", "device", path)
			} else {
				logger.Warn("Probe failed", "device", path, "error", probeErr)
			}
			continue
		}
		if len(formats) == 0 {
			logger.Warn("Device advertised no usable formats", "device", path)
			continue
		}
		candidates = append(candidates, Candidate{Path: path, Formats: formats})
	}
	return candidates, nil
}

// Select picks the best tuple from enumerated candidates:
//
//  1. any candidate offering h264 beats one that does not, regardless of
//     enumeration order;
//  2. within the winner, formats are picked by the fixed priority list,
//     falling back to the lexically first offered format;
//  3. zero candidates yields the hard-coded fallback tuple together with
//     the ErrNoCameraDetected advisory.
func Select(candidates []Candidate) (Selection, error) {
	var best *Candidate
	for i := range candidates {
		c := &candidates[i]
		if _, hasH264 := c.Formats["h264"]; hasH264 {
			best = c
		} else if best == nil {
			best = c
		} else if _, bestHasH264 := best.Formats["h264"]; !bestHasH264 {
			best = c
		}
	}

	if best == nil {
		return Selection{
			Path:       FallbackDevice,
			Format:     FallbackFormat,
			Resolution: probe.FallbackResolution,
		}, ErrNoCameraDetected
	}

	for _, format := range formatPriority {
		if resolution, ok := best.Formats[format]; ok {
			return Selection{Path: best.Path, Format: format, Resolution: resolution}, nil
		}
	}

	// None of the preferred formats; take the first offered name in
	// lexical order so repeated runs pick the same one.
	names := make([]string, 0, len(best.Formats))
	for format := range best.Formats {
		names = append(names, format)
	}
	if len(names) == 0 {
		// Unreachable: List drops format-less candidates.
		return Selection{}, errors.New("candidate with no formats")
	}
	sort.Strings(names)
	return Selection{Path: best.Path, Format: names[0], Resolution: best.Formats[names[0]]}, nil
}
