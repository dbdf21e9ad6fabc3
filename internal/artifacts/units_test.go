package artifacts

import (
	"strings"
	"testing"
)

func TestStreamUnit(t *testing.T) {
	data, err := StreamUnit("ffmpeg -nostdin -i /dev/video0 -c:v copy -f dash /dev/shm/streaming/manifest.mpd")
	if err != nil {
		t.Fatalf("StreamUnit failed: %v", err)
	}
	unit := string(data)

	for _, want := range []string{
		"Restart=always",
		"RestartSec=20s",
		"ExecStart=ffmpeg -nostdin",
		"WantedBy=multi-user.target",
		"After=network.target rc-local.service",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("Expected %q in unit:\n%s", want, unit)
		}
	}
}

func TestRelayUnit(t *testing.T) {
	data, err := RelayUnit("/var/lib/streaming", "/var/lib/streaming/mediamtx")
	if err != nil {
		t.Fatalf("RelayUnit failed: %v", err)
	}
	unit := string(data)

	if !strings.Contains(unit, "WorkingDirectory=/var/lib/streaming") {
		t.Errorf("Expected working directory in unit:\n%s", unit)
	}
	if !strings.Contains(unit, "ExecStart=/var/lib/streaming/mediamtx") {
		t.Errorf("Expected exec start in unit:\n%s", unit)
	}
	if !strings.Contains(unit, "Restart=always") {
		t.Errorf("Expected restart policy in unit:\n%s", unit)
	}
}

func TestViewerPageEmbedsPlayerSizing(t *testing.T) {
	tests := []struct {
		name      string
		videoSize string
		wantWidth string
	}{
		{"small camera keeps native width", "640x480", "width: 640px"},
		{"wide camera capped for the page", "1920x1080", "width: 1200px"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := ViewerPage(tt.videoSize)
			if err != nil {
				t.Fatalf("ViewerPage failed: %v", err)
			}
			if !strings.Contains(string(page), tt.wantWidth) {
				t.Errorf("Expected %s in page for %s", tt.wantWidth, tt.videoSize)
			}
		})
	}
}

func TestBootScriptLinksIndexFile(t *testing.T) {
	script := string(BootScript("/var/lib/streaming/index.html"))

	if !strings.Contains(script, "mkdir -p /dev/shm/streaming") {
		t.Errorf("Expected segment dir creation in:\n%s", script)
	}
	if !strings.Contains(script, "ln -s /var/lib/streaming/index.html /var/www/html/streaming/index.html") {
		t.Errorf("Expected index symlink in:\n%s", script)
	}
}
