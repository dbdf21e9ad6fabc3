package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Writing config file failed: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfigFile(t, `
safe = true

[camera]
device = "/dev/video2"
video_size = "1280x720"

[encode]
codec = "libx264"
bitrate = "4M"

[output]
rtsp = true
rtsp_url = "rtsp://example.com:8554/cam"

[paths]
index_file = "/srv/streaming/index.html"
`)

	opts := Options{Config: path}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Device != "/dev/video2" {
		t.Errorf("Expected device /dev/video2, got %q", opts.Device)
	}
	if opts.VideoSize != "1280x720" {
		t.Errorf("Expected video size 1280x720, got %q", opts.VideoSize)
	}
	if opts.Codec != "libx264" {
		t.Errorf("Expected codec libx264, got %q", opts.Codec)
	}
	if opts.Bitrate != "4M" {
		t.Errorf("Expected bitrate 4M, got %q", opts.Bitrate)
	}
	if !opts.Rtsp {
		t.Error("Expected rtsp true")
	}
	if opts.RtspUrl != "rtsp://example.com:8554/cam" {
		t.Errorf("Expected rtsp url, got %q", opts.RtspUrl)
	}
	if !opts.Safe {
		t.Error("Expected safe true")
	}
	if opts.IndexFile != "/srv/streaming/index.html" {
		t.Errorf("Expected index file override, got %q", opts.IndexFile)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[camera]
device = "/dev/video2"
`)

	os.Setenv("STREAMSETUP_DEVICE", "/dev/video4")
	defer os.Unsetenv("STREAMSETUP_DEVICE")

	opts := Options{Config: path}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Device != "/dev/video4" {
		t.Errorf("Environment must override the file, got %q", opts.Device)
	}
}

func TestLoadConfigMissingFileIsFine(t *testing.T) {
	opts := Options{Config: "/nonexistent/config.toml", Device: "/dev/video0"}
	if err := LoadConfig(&opts, nil); err != nil {
		t.Fatalf("LoadConfig failed for missing file: %v", err)
	}
	if opts.Device != "/dev/video0" {
		t.Errorf("Existing values must survive, got %q", opts.Device)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfigFile(t, "not [valid toml")

	opts := Options{Config: path}
	if err := LoadConfig(&opts, nil); err == nil {
		t.Fatal("Expected error for invalid TOML")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"Device", "device"},
		{"VideoSize", "video-size"},
		{"RtspUrl", "rtsp-url"},
		{"DisableHls", "disable-hls"},
		{"FfmpegParams", "ffmpeg-params"},
		{"LogLevel", "log-level"},
	}

	for _, tt := range tests {
		if got := fieldNameToFlag(tt.field); got != tt.want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfigFile(t, `
[logging]
level = "debug"
format = "json"
probe = "warn"
`)

	cfg := LoadLoggingConfig(path)
	if cfg.Level != "debug" {
		t.Errorf("Expected level debug, got %q", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Expected format json, got %q", cfg.Format)
	}
	if cfg.Modules["probe"] != "warn" {
		t.Errorf("Expected probe module level warn, got %q", cfg.Modules["probe"])
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg := LoadLoggingConfig("/nonexistent/config.toml")
	if cfg.Level != "info" || cfg.Format != "text" {
		t.Errorf("Expected info/text defaults, got %s/%s", cfg.Level, cfg.Format)
	}
}
