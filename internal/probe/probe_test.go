package probe

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeRunner struct {
	stdout string
	stderr string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ string) (string, string, error) {
	return f.stdout, f.stderr, f.err
}

const sampleTable = `[video4linux2,v4l2 @ 0xf0cf70] Compressed:       mjpeg :          Motion-JPEG : {32-2592, 2}x{32-1944, 2}
[video4linux2,v4l2 @ 0xf0cf70] Compressed:        h264 :                H.264 : {32-2592, 2}x{32-1944, 2}
[video4linux2,v4l2 @ 0x1e446f0] Raw       :     yuyv422 :           YUYV 4:2:2 : 640x480 1280x720
[video4linux2,v4l2 @ 0x1e446f0] Raw       : Unsupported :          HEVC : 640x480
/dev/video0: Immediate exit requested`

func TestParseFormatTable(t *testing.T) {
	formats := ParseFormatTable(sampleTable)

	if len(formats) != 3 {
		t.Fatalf("Expected 3 formats, got %d: %v", len(formats), formats)
	}

	// The advertised 2592 width is over the safety ceiling.
	if formats["mjpeg"] != "1920x1080" {
		t.Errorf("Expected mjpeg resolution 1920x1080, got %q", formats["mjpeg"])
	}
	if formats["h264"] != "1920x1080" {
		t.Errorf("Expected h264 resolution 1920x1080, got %q", formats["h264"])
	}
	if formats["yuyv422"] != "1280x720" {
		t.Errorf("Expected yuyv422 resolution 1280x720, got %q", formats["yuyv422"])
	}
	if _, ok := formats["Unsupported"]; ok {
		t.Error("Unsupported sentinel entries must be dropped")
	}
}

func TestParseFormatTableIgnoresNoise(t *testing.T) {
	raw := `ffmpeg version 4.1.6 Copyright (c) 2000-2020
[video4linux2,v4l2 @ 0xf0cf70] garbage line without enough fields
Input #0, video4linux2,v4l2, from '/dev/video0':`

	if formats := ParseFormatTable(raw); len(formats) != 0 {
		t.Errorf("Expected no formats from noise, got %v", formats)
	}
}

func TestProbeParsesDespiteExitError(t *testing.T) {
	// The probe always exits non-zero since no output file is given.
	runner := &fakeRunner{stderr: sampleTable, err: fmt.Errorf("exit status 1")}

	formats, err := Probe(context.Background(), runner, "/dev/video0")
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if len(formats) != 3 {
		t.Errorf("Expected 3 formats, got %d", len(formats))
	}
}

func TestProbeNotCaptureDevice(t *testing.T) {
	runner := &fakeRunner{
		stderr: "[video4linux2,v4l2 @ 0xf0cf70] Not a video capture device\n/dev/video10: Invalid argument",
		err:    fmt.Errorf("exit status 1"),
	}

	_, err := Probe(context.Background(), runner, "/dev/video10")
	if !errors.Is(err, ErrNotCaptureDevice) {
		t.Fatalf("Expected ErrNotCaptureDevice, got %v", err)
	}
}

func TestProbeNoOutput(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("executable not found")}

	if _, err := Probe(context.Background(), runner, "/dev/video0"); err == nil {
		t.Fatal("Expected error when the probe produced no output")
	}
}

func TestBestResolution(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		want    string
		wantErr bool
	}{
		{
			name:  "range within ceiling",
			field: "{32-1280, 2}x{32-720, 2}",
			want:  "1280x720",
		},
		{
			name:  "range over ceiling clamps",
			field: "{32-2592, 2}x{32-1944, 2}",
			want:  "1920x1080",
		},
		{
			name:  "enumeration picks largest area",
			field: "640x480 1280x720 320x240",
			want:  "1280x720",
		},
		{
			name:  "enumeration over ceiling clamps",
			field: "640x480 2592x1944",
			want:  "1920x1080",
		},
		{
			name:  "enumeration skips malformed tokens",
			field: "notares 640x480 12x",
			want:  "640x480",
		},
		{
			name:  "empty enumeration falls back",
			field: "",
			want:  "1920x1080",
		},
		{
			name:    "range without upper bound",
			field:   "{32, 2}x{32, 2}",
			wantErr: true,
		},
		{
			name:    "range without axis separator",
			field:   "{32-640, 2}",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestResolution(tt.field)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q, got %q", tt.field, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("BestResolution(%q) failed: %v", tt.field, err)
			}
			if got != tt.want {
				t.Errorf("BestResolution(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}
