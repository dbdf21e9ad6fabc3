// Package events carries install-progress events between the pipeline
// steps and the end-of-run reporter.
package events

// Event type constants for kelindar/event.
const (
	TypeArtifactInstalled uint32 = iota + 1
	TypeArtifactSkipped
	TypeAdvisory
	TypeDeviceDiscovered
	TypeRelayInstalled
)

// Event is the interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ArtifactInstalledEvent is published after an artifact is written or
// patched on disk.
type ArtifactInstalledEvent struct {
	Path   string `json:"path"`
	Action string `json:"action"` // written, overwritten, patched
}

// Type returns the event type identifier.
func (e ArtifactInstalledEvent) Type() uint32 { return TypeArtifactInstalled }

// ArtifactSkippedEvent is published when the overwrite policy leaves an
// existing artifact untouched.
type ArtifactSkippedEvent struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Type returns the event type identifier.
func (e ArtifactSkippedEvent) Type() uint32 { return TypeArtifactSkipped }

// AdvisoryEvent is a non-fatal warning the operator should act on,
// re-surfaced in the final install summary.
type AdvisoryEvent struct {
	Message string `json:"message"`
}

// Type returns the event type identifier.
func (e AdvisoryEvent) Type() uint32 { return TypeAdvisory }

// DeviceDiscoveredEvent is published for each enumerated capture device.
type DeviceDiscoveredEvent struct {
	Path    string            `json:"path"`
	Formats map[string]string `json:"formats"`
}

// Type returns the event type identifier.
func (e DeviceDiscoveredEvent) Type() uint32 { return TypeDeviceDiscovered }

// RelayInstalledEvent is published after the relay binary is installed or
// upgraded.
type RelayInstalledEvent struct {
	Version string `json:"version"`
	Asset   string `json:"asset"`
	Dir     string `json:"dir"`
}

// Type returns the event type identifier.
func (e RelayInstalledEvent) Type() uint32 { return TypeRelayInstalled }
