package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// dynamicBitrateDivisor turns width*height*2 pixels into kilobits.
	// Empirical tuning value, preserved rather than re-derived.
	dynamicBitrateDivisor = 1024

	// canonicalPixelFormat is forced for transcoding codecs unless the
	// operator's extra params pick their own.
	canonicalPixelFormat = "yuv420p"
)

// Build synthesizes the invocation for the given parameters. It is a pure
// function: the output clause is fully determined by the Target tag, the
// bitrate and pixel-format policies by the codec and extra params.
func Build(p Params) (CommandSpec, error) {
	outputArgs, err := outputClause(p.Target)
	if err != nil {
		return CommandSpec{}, err
	}

	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-f", "v4l2",
		"-input_format", p.InputFormat,
		"-s", p.VideoSize,
		"-i", p.Device,
		"-c:v", p.Codec,
	}

	extra := strings.Fields(strings.Trim(p.ExtraParams, `"'`))
	args = append(args, extra...)

	if p.Codec != CodecCopy {
		bitrateArgs, bitrateErr := bitrateClause(p.Bitrate, p.VideoSize, extra)
		if bitrateErr != nil {
			return CommandSpec{}, bitrateErr
		}
		args = append(args, bitrateArgs...)

		if !hasFlag(extra, "-pix_fmt") {
			args = append(args, "-pix_fmt", canonicalPixelFormat)
		}
	}

	args = append(args, outputArgs...)
	return CommandSpec{Binary: "ffmpeg", Args: args}, nil
}

// bitrateClause applies the bitrate policy: nothing when the operator's
// extra params already carry a bitrate flag; width*height*2/1024 kilobits
// for the dynamic specifier; otherwise the explicit value normalized to
// carry a unit suffix.
func bitrateClause(bitrate, videoSize string, extra []string) ([]string, error) {
	for _, arg := range extra {
		if strings.HasPrefix(arg, "-b") {
			return nil, nil
		}
	}

	if bitrate == "" || bitrate == BitrateDynamic {
		width, height, err := parseVideoSize(videoSize)
		if err != nil {
			return nil, err
		}
		kilobits := width * height * 2 / dynamicBitrateDivisor
		return []string{"-b:v", fmt.Sprintf("%dk", kilobits)}, nil
	}

	switch strings.ToLower(bitrate[len(bitrate)-1:]) {
	case "k", "m", "g":
	default:
		bitrate += "k"
	}
	return []string{"-b:v", bitrate}, nil
}

// outputClause is the single exhaustive match over the Target tag.
func outputClause(target Target) ([]string, error) {
	switch t := target.(type) {
	case DashTarget:
		path := t.Path
		if path == "" {
			path = DefaultDashPath
		}
		args := []string{
			"-f", "dash",
			"-remove_at_exit", "1",
			"-window_size", "5",
			"-use_timeline", "1",
			"-use_template", "1",
		}
		if !t.DisableHLS {
			args = append(args, "-hls_playlist", "1")
		}
		return append(args, path), nil

	case RTSPTarget:
		path := t.Path
		if path == "" {
			path = DefaultRTSPPath
		}
		return []string{"-f", "rtsp", path}, nil

	default:
		return nil, fmt.Errorf("unsupported encode target %T (only dash and rtsp outputs exist)", target)
	}
}

func parseVideoSize(videoSize string) (int, int, error) {
	wTok, hTok, found := strings.Cut(videoSize, "x")
	if !found {
		return 0, 0, fmt.Errorf("video size %q is not WxH", videoSize)
	}
	width, err := strconv.Atoi(wTok)
	if err != nil {
		return 0, 0, fmt.Errorf("video size %q: %w", videoSize, err)
	}
	height, err := strconv.Atoi(hTok)
	if err != nil {
		return 0, 0, fmt.Errorf("video size %q: %w", videoSize, err)
	}
	return width, height, nil
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}
