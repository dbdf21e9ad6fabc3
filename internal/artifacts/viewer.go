package artifacts

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
)

// maxViewerWidth caps the embedded player element; wider streams still
// play, the page just scales them down.
const maxViewerWidth = 1200

var viewerTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Raspberry Pi Camera</title>
    <style>
        html body .page { height: 100%; width: 100%; }
        video { width: {{.Width}}px; }
        .wrapper { width: {{.Width}}px; margin: auto; }
    </style>
</head>
<body>
<div class="page">
    <div class="wrapper">
        <h1>Raspberry Pi Camera</h1>
        <video data-dashjs-player autoplay controls src="manifest.mpd" type="application/dash+xml"></video>
    </div>
</div>
<script src="http://cdn.dashjs.org/latest/dash.all.debug.js" ></script>
</body>
</html>
`))

// ViewerPage renders the DASH stream viewer HTML for the given video size.
func ViewerPage(videoSize string) ([]byte, error) {
	widthTok, _, found := strings.Cut(videoSize, "x")
	if !found {
		return nil, fmt.Errorf("video size %q is not WxH", videoSize)
	}
	width, err := strconv.Atoi(widthTok)
	if err != nil {
		return nil, fmt.Errorf("video size %q: %w", videoSize, err)
	}
	if width > maxViewerWidth {
		width = maxViewerWidth
	}

	var buf bytes.Buffer
	if execErr := viewerTemplate.Execute(&buf, struct{ Width int }{width}); execErr != nil {
		return nil, execErr
	}
	return buf.Bytes(), nil
}

// BootScript renders the on-reboot bootstrap script: it prepares the
// shared-memory segment directory and links the viewer page into the web
// root. It runs from rc.local on every boot.
func BootScript(indexFile string) []byte {
	return []byte(fmt.Sprintf(`mkdir -p /dev/shm/streaming
if [ ! -e /var/www/html/streaming ]; then
    ln -s  /dev/shm/streaming /var/www/html/streaming
fi
if [ ! -e /var/www/html/streaming/index.html ]; then
    ln -s %s /var/www/html/streaming/index.html
fi
`, indexFile))
}

// RCLocalMarker uniquely identifies the rc.local patch block; its presence
// makes reapplication a no-op.
const RCLocalMarker = "# Streaming Shared Memory Setup"

// RCLocalAnchor is the conventional terminal statement of rc.local; the
// patch block is inserted immediately before it.
const RCLocalAnchor = "exit 0"

// DefaultRCLocal is where the boot hook is installed.
const DefaultRCLocal = "/etc/rc.local"

// RCLocalPatch builds the rc.local insertion that runs the bootstrap
// script at boot. allowAppend selects the permissive fallback when the
// anchor is missing.
func RCLocalPatch(target, bootScript string, allowAppend bool) AnchoredPatch {
	return AnchoredPatch{
		TargetFile: target,
		Marker:     RCLocalMarker,
		Insertion: []string{
			RCLocalMarker,
			fmt.Sprintf("if [ -f %s ]; then", bootScript),
			fmt.Sprintf("    /bin/bash %s || true", bootScript),
			"fi",
		},
		Anchor:      RCLocalAnchor,
		AllowAppend: allowAppend,
	}
}
