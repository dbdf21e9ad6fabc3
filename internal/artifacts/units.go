package artifacts

import (
	"fmt"
	"io"

	"github.com/coreos/go-systemd/v22/unit"
)

// Restart policy shared by the generated units: always restart, with a
// delay long enough for a replugged camera to enumerate.
const (
	restartPolicy = "always"
	restartDelay  = "20s"
)

// StreamUnit renders the camera streaming service unit embedding the
// synthesized invocation line as its start command.
func StreamUnit(execStart string) ([]byte, error) {
	return serializeUnit([]*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "Camera Streaming Service"),
		unit.NewUnitOption("Unit", "After", "network.target rc-local.service"),
		unit.NewUnitOption("Service", "Restart", restartPolicy),
		unit.NewUnitOption("Service", "RestartSec", restartDelay),
		unit.NewUnitOption("Service", "ExecStart", execStart),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	})
}

// RelayUnit renders the RTSP relay server unit.
func RelayUnit(workingDir, execStart string) ([]byte, error) {
	return serializeUnit([]*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "RTSP Relay Server"),
		unit.NewUnitOption("Unit", "After", "network.target rc-local.service"),
		unit.NewUnitOption("Service", "Restart", restartPolicy),
		unit.NewUnitOption("Service", "WorkingDirectory", workingDir),
		unit.NewUnitOption("Service", "ExecStart", execStart),
		unit.NewUnitOption("Install", "WantedBy", "multi-user.target"),
	})
}

func serializeUnit(opts []*unit.UnitOption) ([]byte, error) {
	data, err := io.ReadAll(unit.Serialize(opts))
	if err != nil {
		return nil, fmt.Errorf("serializing unit: %w", err)
	}
	return data, nil
}
