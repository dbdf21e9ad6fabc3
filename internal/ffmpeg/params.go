// Package ffmpeg synthesizes the transcode/relay invocation line from
// structured parameters. Synthesis is pure: no I/O, no process execution,
// identical inputs always produce the identical CommandSpec.
package ffmpeg

// BitrateDynamic requests the computed bitrate policy instead of an
// explicit value.
const BitrateDynamic = "dynamic"

// CodecCopy passes the camera stream through untouched; bitrate and pixel
// format arguments are never injected for it.
const CodecCopy = "copy"

// Params carries everything needed to synthesize the invocation.
type Params struct {
	// Input configuration
	Device      string // /dev/video0
	InputFormat string // h264, mjpeg, yuyv422, ...
	VideoSize   string // 1920x1080

	// Encoder configuration
	Codec   string // copy, h264_v4l2m2m, libx264, ...
	Bitrate string // BitrateDynamic or an explicit value, unit optional

	// ExtraParams is the operator's free-text encoder parameter string.
	// Flags present here win over injected policy flags.
	ExtraParams string

	// Target selects the delivery protocol output clause.
	Target Target
}

// CommandSpec is the fully resolved invocation: binary plus ordered
// arguments, ready for the execution port. It is never re-parsed.
type CommandSpec struct {
	Binary string
	Args   []string
}

// Line renders the invocation as a single-space-normalized command line.
func (c CommandSpec) Line() string {
	out := c.Binary
	for _, arg := range c.Args {
		out += " " + arg
	}
	return out
}
