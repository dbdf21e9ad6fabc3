// Package artifacts writes and patches the generated system files: the
// service units, the stream viewer page, the boot-time bootstrap script,
// and the rc.local hook. All writes are idempotent and governed by an
// explicit overwrite policy.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
)

// FileArtifact is one whole-file artifact with its target mode and
// overwrite permission.
type FileArtifact struct {
	Path      string
	Content   []byte
	Mode      os.FileMode
	Overwrite bool
}

// Installer writes artifacts and reports progress on the event bus.
type Installer struct {
	bus    *events.Bus
	logger logging.Logger
}

// NewInstaller creates an installer publishing to the given bus.
func NewInstaller(bus *events.Bus) *Installer {
	return &Installer{bus: bus, logger: logging.GetLogger("artifacts")}
}

// Install writes a whole-file artifact. An existing destination is left
// byte-identical when overwriting is disallowed; that is a skip with a
// notice, not an error. When overwriting is allowed the file is fully
// replaced and mode bits are reapplied.
func (i *Installer) Install(a FileArtifact) error {
	action := "written"
	if _, err := os.Stat(a.Path); err == nil {
		if !a.Overwrite {
			i.logger.Info("File already exists, not overwriting", "path", a.Path)
			i.bus.Publish(events.ArtifactSkippedEvent{Path: a.Path, Reason: "exists and overwrite disabled"})
			return nil
		}
		i.logger.Warn("File exists, overwriting", "path", a.Path)
		action = "overwritten"
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", a.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(a.Path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", a.Path, err)
	}
	if err := os.WriteFile(a.Path, a.Content, a.Mode); err != nil {
		return fmt.Errorf("writing %s: %w", a.Path, err)
	}
	// WriteFile only applies the mode to new files; reassert it on replace.
	if err := os.Chmod(a.Path, a.Mode); err != nil {
		return fmt.Errorf("setting mode on %s: %w", a.Path, err)
	}

	i.logger.Info("Installed artifact", "path", a.Path, "mode", fmt.Sprintf("%04o", a.Mode))
	i.bus.Publish(events.ArtifactInstalledEvent{Path: a.Path, Action: action})
	return nil
}
