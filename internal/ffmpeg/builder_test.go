package ffmpeg

import (
	"strings"
	"testing"
)

func baseParams() Params {
	return Params{
		Device:      "/dev/video0",
		InputFormat: "h264",
		VideoSize:   "1920x1080",
		Codec:       CodecCopy,
		Bitrate:     BitrateDynamic,
		Target:      DashTarget{},
	}
}

func TestBuildCopyCodec(t *testing.T) {
	spec, err := Build(baseParams())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	line := spec.Line()

	want := "ffmpeg -nostdin -hide_banner -loglevel error -f v4l2 -input_format h264 " +
		"-s 1920x1080 -i /dev/video0 -c:v copy -f dash -remove_at_exit 1 -window_size 5 " +
		"-use_timeline 1 -use_template 1 -hls_playlist 1 /dev/shm/streaming/manifest.mpd"
	if line != want {
		t.Errorf("Unexpected command line:\n got: %s\nwant: %s", line, want)
	}

	// Copy never gets bitrate or pixel format arguments.
	if strings.Contains(line, "-b:v") {
		t.Error("Copy codec must not carry a bitrate")
	}
	if strings.Contains(line, "-pix_fmt") {
		t.Error("Copy codec must not carry a pixel format")
	}
}

func TestBuildDynamicBitrate(t *testing.T) {
	p := baseParams()
	p.Codec = "h264_v4l2m2m"

	spec, err := Build(p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	line := spec.Line()

	// 1920 * 1080 * 2 / 1024 = 4050
	if !strings.Contains(line, "-b:v 4050k") {
		t.Errorf("Expected dynamic bitrate 4050k in %q", line)
	}
	if !strings.Contains(line, "-pix_fmt yuv420p") {
		t.Errorf("Expected canonical pixel format in %q", line)
	}
}

func TestBuildExplicitBitrate(t *testing.T) {
	tests := []struct {
		name    string
		bitrate string
		want    string
	}{
		{"bare number gets kilobit suffix", "3000", "-b:v 3000k"},
		{"megabit suffix kept", "4M", "-b:v 4M"},
		{"lowercase suffix kept", "2500k", "-b:v 2500k"},
		{"gigabit suffix kept", "1G", "-b:v 1G"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			p.Codec = "libx264"
			p.Bitrate = tt.bitrate

			spec, err := Build(p)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if !strings.Contains(spec.Line(), tt.want) {
				t.Errorf("Expected %q in %q", tt.want, spec.Line())
			}
		})
	}
}

func TestBuildExtraParamsBitrateWins(t *testing.T) {
	p := baseParams()
	p.Codec = "libx264"
	p.ExtraParams = `"-b:v 4M -maxrate 4M -bufsize 8M"`

	spec, err := Build(p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	line := spec.Line()

	if !strings.Contains(line, "-b:v 4M -maxrate 4M -bufsize 8M") {
		t.Errorf("Expected operator params verbatim in %q", line)
	}
	if strings.Count(line, "-b:v") != 1 {
		t.Errorf("Operator bitrate must suppress the policy bitrate: %q", line)
	}
}

func TestBuildExtraParamsPixelFormatWins(t *testing.T) {
	p := baseParams()
	p.Codec = "libx264"
	p.ExtraParams = "-pix_fmt nv12"

	spec, err := Build(p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	line := spec.Line()

	if strings.Contains(line, "yuv420p") {
		t.Errorf("Operator pixel format must suppress the canonical one: %q", line)
	}
	if !strings.Contains(line, "-pix_fmt nv12") {
		t.Errorf("Expected operator pixel format in %q", line)
	}
}

func TestBuildDashWithoutHLS(t *testing.T) {
	p := baseParams()
	p.Target = DashTarget{DisableHLS: true}

	spec, err := Build(p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if strings.Contains(spec.Line(), "-hls_playlist") {
		t.Errorf("Expected no HLS playlist in %q", spec.Line())
	}
}

func TestBuildRTSPTarget(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"default local relay", "", "-f rtsp rtsp://localhost:8554/streaming"},
		{"remote server", "rtsp://example.com:8554/cam1", "-f rtsp rtsp://example.com:8554/cam1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			p.Target = RTSPTarget{Path: tt.path}

			spec, err := Build(p)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if !strings.HasSuffix(spec.Line(), tt.want) {
				t.Errorf("Expected %q at end of %q", tt.want, spec.Line())
			}
		})
	}
}

func TestBuildNilTarget(t *testing.T) {
	p := baseParams()
	p.Target = nil

	if _, err := Build(p); err == nil {
		t.Fatal("Expected error for missing target")
	}
}

func TestBuildBadVideoSize(t *testing.T) {
	p := baseParams()
	p.Codec = "libx264"
	p.VideoSize = "huge"

	if _, err := Build(p); err == nil {
		t.Fatal("Expected error for malformed video size with dynamic bitrate")
	}
}

func TestBuildDeterministic(t *testing.T) {
	p := baseParams()
	p.Codec = "h264_v4l2m2m"
	p.ExtraParams = "-g 30"

	first, err := Build(p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := Build(p)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if first.Line() != second.Line() {
		t.Errorf("Identical params produced different lines:\n%s\n%s", first.Line(), second.Line())
	}
}
