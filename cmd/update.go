package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/updater"
)

// CreateUpdateCmd creates the update command: self-update from GitHub
// releases.
func CreateUpdateCmd() *cobra.Command {
	var checkOnly bool
	var repository string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update this binary to the latest release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.Initialize(logging.Config{Level: "info", Format: "text"})

			service, err := updater.NewService(repository)
			if err != nil {
				return err
			}

			if checkOnly {
				info, _, err := service.Check(cmd.Context())
				if err != nil {
					return err
				}
				if info.UpdateAvailable {
					fmt.Printf("Update available: %s -> %s (%s)\n",
						info.CurrentVersion, info.LatestVersion, info.ReleaseURL)
				} else {
					fmt.Printf("Already up to date (%s)\n", info.CurrentVersion)
				}
				return nil
			}

			info, err := service.Apply(cmd.Context())
			if err != nil {
				var coded *updater.Error
				if errors.As(err, &coded) && coded.Code == updater.ErrCodeNoUpdate {
					fmt.Printf("Already up to date (%s)\n", info.CurrentVersion)
					return nil
				}
				return err
			}
			fmt.Printf("Updated %s -> %s\n", info.CurrentVersion, info.LatestVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "check for updates without applying")
	cmd.Flags().StringVar(&repository, "repository", updater.DefaultRepository, "GitHub repository to update from")
	return cmd
}
