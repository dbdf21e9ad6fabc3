package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/artifacts"
	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/relay"
	"github.com/cdgriffith/pi-streaming-setup/internal/setup"
	"github.com/cdgriffith/pi-streaming-setup/internal/systemd"
)

// CreateRelayCmd creates the install-relay command: it installs or
// updates the RTSP relay server and its service unit without running
// the rest of the pipeline.
func CreateRelayCmd() *cobra.Command {
	var owner, repo, dir string
	var skipService bool

	cmd := &cobra.Command{
		Use:   "install-relay",
		Short: "Install or update the RTSP relay server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logger := logging.GetLogger("relay")

			if os.Geteuid() != 0 {
				return fmt.Errorf("root privileges are required, rerun with sudo")
			}

			ctx := cmd.Context()
			bus := events.New()
			reporter := setup.NewReporter(bus)

			var manager *systemd.Manager
			var controller relay.ServiceController
			if m, err := systemd.NewManager(ctx); err != nil {
				logger.Warn("Could not connect to systemd, the relay service will not be activated", "error", err)
			} else {
				manager = m
				controller = m
				defer m.Close()
			}

			unitName := filepath.Base(setup.DefaultRelayUnit)
			installer := relay.NewInstaller(relay.Options{
				Owner:      owner,
				Repo:       repo,
				InstallDir: dir,
				Service:    unitName,
			}, execute.NewRunner(), controller, bus)

			if _, err := installer.Install(ctx); err != nil {
				return err
			}

			if !skipService {
				unitData, err := artifacts.RelayUnit(dir, filepath.Join(dir, repo))
				if err != nil {
					return err
				}
				files := artifacts.NewInstaller(bus)
				if err := files.Install(artifacts.FileArtifact{
					Path:      setup.DefaultRelayUnit,
					Content:   unitData,
					Mode:      0o644,
					Overwrite: true,
				}); err != nil {
					return err
				}
				if manager != nil {
					if err := manager.Reload(ctx); err != nil {
						return err
					}
					if err := manager.StartService(ctx, unitName); err != nil {
						return err
					}
					if err := manager.EnableService(ctx, unitName); err != nil {
						return err
					}
				}
			}

			reporter.Summary(os.Stdout)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", relay.DefaultOwner, "GitHub owner of the relay releases")
	cmd.Flags().StringVar(&repo, "repo", relay.DefaultRepo, "GitHub repository and binary name of the relay")
	cmd.Flags().StringVar(&dir, "dir", setup.DefaultRelayDir, "directory to install the relay into")
	cmd.Flags().BoolVar(&skipService, "skip-service", false, "install the binary only, no service unit")
	return cmd
}
