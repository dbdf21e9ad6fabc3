package ffmpeg

// Target is the closed set of delivery protocols. It is matched
// exhaustively exactly once, inside Build; the unexported method keeps the
// set closed to this package.
type Target interface {
	isTarget()
}

// DashTarget emits segmented DASH (optionally with an HLS-compatible
// playlist) into a local manifest path served by the web server.
type DashTarget struct {
	// Path is the manifest location; empty selects DefaultDashPath.
	Path string
	// DisableHLS omits the HLS compatibility playlist.
	DisableHLS bool
}

func (DashTarget) isTarget() {}

// RTSPTarget publishes to an RTSP server, local relay or remote.
type RTSPTarget struct {
	// Path is the destination URL; empty selects DefaultRTSPPath.
	Path string
}

func (RTSPTarget) isTarget() {}

// Default output destinations, matching the artifacts the installer lays
// down (shared-memory segment dir for DASH, local relay for RTSP).
const (
	DefaultDashPath = "/dev/shm/streaming/manifest.mpd"
	DefaultRTSPPath = "rtsp://localhost:8554/streaming"
)
