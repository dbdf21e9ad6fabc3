package cmd

import (
	"testing"

	"github.com/cdgriffith/pi-streaming-setup/internal/config"
	"github.com/cdgriffith/pi-streaming-setup/internal/ffmpeg"
)

func TestRootFlagDefaults(t *testing.T) {
	flags := CreateRootCmd().Flags()

	tests := []struct {
		flag string
		want string
	}{
		{"config", config.DefaultConfigFile},
		{"bitrate", ffmpeg.BitrateDynamic},
		{"index-file", "/var/lib/streaming/index.html"},
		{"systemd-file", "/etc/systemd/system/stream_camera.service"},
	}

	for _, tt := range tests {
		f := flags.Lookup(tt.flag)
		if f == nil {
			t.Fatalf("Flag --%s is not registered", tt.flag)
		}
		if f.DefValue != tt.want {
			t.Errorf("Flag --%s defaults to %q, want %q", tt.flag, f.DefValue, tt.want)
		}
	}
}
