package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager handles systemd service lifecycle operations via D-Bus.
// Installing units into /etc/systemd/system requires root, so the
// manager talks to the system bus rather than a user one.
type Manager struct {
	conn *dbus.Conn
}

// NewManager creates a new systemd manager with a system-level D-Bus
// connection.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{conn: conn}, nil
}

// Reload asks systemd to reload its unit files, the equivalent of
// systemctl daemon-reload.
func (m *Manager) Reload(ctx context.Context) error {
	return m.conn.ReloadContext(ctx)
}

// GetServiceStatus retrieves the ActiveState property of a systemd service.
func (m *Manager) GetServiceStatus(ctx context.Context, serviceName string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, serviceName, "ActiveState")
	if err != nil {
		return "", err
	}
	return prop.Value.String(), nil
}

// StartService starts a systemd service using the replace mode and
// waits for the job to finish.
func (m *Manager) StartService(ctx context.Context, serviceName string) error {
	return m.runJob(ctx, serviceName, m.conn.StartUnitContext)
}

// RestartService restarts a systemd service using the replace mode and
// waits for the job to finish.
func (m *Manager) RestartService(ctx context.Context, serviceName string) error {
	return m.runJob(ctx, serviceName, m.conn.RestartUnitContext)
}

// StopService stops a systemd service using the replace mode and waits
// for the job to finish.
func (m *Manager) StopService(ctx context.Context, serviceName string) error {
	return m.runJob(ctx, serviceName, m.conn.StopUnitContext)
}

// EnableService enables a systemd service so it starts on boot.
func (m *Manager) EnableService(ctx context.Context, serviceName string) error {
	_, _, err := m.conn.EnableUnitFilesContext(ctx, []string{serviceName}, false, true)
	return err
}

type jobFunc func(ctx context.Context, name string, mode string, ch chan<- string) (int, error)

func (m *Manager) runJob(ctx context.Context, serviceName string, start jobFunc) error {
	done := make(chan string, 1)
	if _, err := start(ctx, serviceName, "replace", done); err != nil {
		return err
	}
	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("job for %s finished with result %q", serviceName, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
