package devices

import (
	"errors"
	"testing"

	"github.com/cdgriffith/pi-streaming-setup/internal/probe"
)

func TestSelectPrefersH264Device(t *testing.T) {
	// The h264-capable device wins even when enumerated later.
	candidates := []Candidate{
		{Path: "/dev/video0", Formats: probe.FormatMap{"mjpeg": "1280x720", "yuyv422": "640x480"}},
		{Path: "/dev/video2", Formats: probe.FormatMap{"h264": "1920x1080", "mjpeg": "1280x720"}},
	}

	selection, err := Select(candidates)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if selection.Path != "/dev/video2" {
		t.Errorf("Expected /dev/video2, got %s", selection.Path)
	}
	if selection.Format != "h264" {
		t.Errorf("Expected h264, got %s", selection.Format)
	}
	if selection.Resolution != "1920x1080" {
		t.Errorf("Expected 1920x1080, got %s", selection.Resolution)
	}
}

func TestSelectFormatPriority(t *testing.T) {
	tests := []struct {
		name       string
		formats    probe.FormatMap
		wantFormat string
	}{
		{
			name:       "mjpeg beats raw formats",
			formats:    probe.FormatMap{"yuyv422": "640x480", "mjpeg": "1280x720", "yuv420p": "640x480"},
			wantFormat: "mjpeg",
		},
		{
			name:       "yuyv422 beats yuv420p",
			formats:    probe.FormatMap{"yuv420p": "640x480", "yuyv422": "640x480"},
			wantFormat: "yuyv422",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selection, err := Select([]Candidate{{Path: "/dev/video0", Formats: tt.formats}})
			if err != nil {
				t.Fatalf("Select failed: %v", err)
			}
			if selection.Format != tt.wantFormat {
				t.Errorf("Expected format %s, got %s", tt.wantFormat, selection.Format)
			}
		})
	}
}

func TestSelectUnknownFormatsFallsBack(t *testing.T) {
	// A device advertising only formats outside the priority list still
	// yields a usable selection, and repeated runs pick the same one.
	candidates := []Candidate{
		{Path: "/dev/video0", Formats: probe.FormatMap{"rgb565": "640x480", "grey": "320x240"}},
	}

	for i := 0; i < 10; i++ {
		selection, err := Select(candidates)
		if err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if selection.Path != "/dev/video0" {
			t.Errorf("Expected /dev/video0, got %s", selection.Path)
		}
		if selection.Format != "grey" {
			t.Errorf("Expected grey, got %s", selection.Format)
		}
		if selection.Resolution != "320x240" {
			t.Errorf("Expected 320x240, got %s", selection.Resolution)
		}
	}
}

func TestSelectNoCameras(t *testing.T) {
	selection, err := Select(nil)
	if !errors.Is(err, ErrNoCameraDetected) {
		t.Fatalf("Expected ErrNoCameraDetected, got %v", err)
	}

	// Setup proceeds with the fallback tuple so a camera plugged in
	// later starts streaming without a rerun.
	if selection.Path != FallbackDevice {
		t.Errorf("Expected %s, got %s", FallbackDevice, selection.Path)
	}
	if selection.Format != FallbackFormat {
		t.Errorf("Expected %s, got %s", FallbackFormat, selection.Format)
	}
	if selection.Resolution != probe.FallbackResolution {
		t.Errorf("Expected %s, got %s", probe.FallbackResolution, selection.Resolution)
	}
}
