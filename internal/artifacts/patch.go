package artifacts

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/cdgriffith/pi-streaming-setup/internal/events"
)

// ErrAnchorNotFound reports that a patch's structural anchor line is
// missing and the strict policy refused a best-effort append. The target
// file is left unmodified.
var ErrAnchorNotFound = errors.New("anchor line not found")

// AnchoredPatch is a one-time idempotent insertion into a file shared with
// other subsystems (the boot script). The marker makes reapplication a
// no-op; the anchor keeps the insertion before the file's terminal
// statement.
type AnchoredPatch struct {
	TargetFile string
	// Marker is a unique line whose presence means the patch was already
	// applied. It must be the first line of Insertion.
	Marker    string
	Insertion []string
	// Anchor is the structural line to insert before, conventionally the
	// file's terminal "exit 0".
	Anchor string
	// AllowAppend permits appending to the end of the file, with a
	// warning, when the anchor is missing. Without it the patch is
	// refused instead.
	AllowAppend bool
}

// ApplyPatch applies an anchored patch. Applying the same patch twice
// yields byte-identical content to applying it once.
func (i *Installer) ApplyPatch(p AnchoredPatch) error {
	data, err := os.ReadFile(p.TargetFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.TargetFile, err)
	}
	lines := strings.Split(string(data), "\n")

	if slices.Contains(lines, p.Marker) {
		i.logger.Info("Patch already applied", "path", p.TargetFile)
		i.bus.Publish(events.ArtifactSkippedEvent{Path: p.TargetFile, Reason: "patch marker already present"})
		return nil
	}

	anchorAt := slices.Index(lines, p.Anchor)
	var patched []string
	switch {
	case anchorAt > 0:
		patched = append(patched, lines[:anchorAt]...)
		patched = append(patched, p.Insertion...)
		patched = append(patched, lines[anchorAt:]...)
	case p.AllowAppend:
		i.logger.Warn("Anchor line missing, appending patch to end of file; verify it is correct",
			"path", p.TargetFile, "anchor", p.Anchor)
		i.bus.Publish(events.AdvisoryEvent{
			Message: fmt.Sprintf("%s: anchor %q not found, patch appended to end of file", p.TargetFile, p.Anchor),
		})
		patched = append(patched, lines...)
		patched = append(patched, p.Insertion...)
	default:
		i.logger.Warn("Anchor line missing, refusing to patch", "path", p.TargetFile, "anchor", p.Anchor)
		return fmt.Errorf("%s: %w", p.TargetFile, ErrAnchorNotFound)
	}

	info, err := os.Stat(p.TargetFile)
	if err != nil {
		return fmt.Errorf("stat %s: %w", p.TargetFile, err)
	}
	if err := os.WriteFile(p.TargetFile, []byte(strings.Join(patched, "\n")), info.Mode()); err != nil {
		return fmt.Errorf("writing %s: %w", p.TargetFile, err)
	}

	i.logger.Info("Applied patch", "path", p.TargetFile)
	i.bus.Publish(events.ArtifactInstalledEvent{Path: p.TargetFile, Action: "patched"})
	return nil
}
