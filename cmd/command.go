package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/config"
	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/setup"
)

// CreateCommandCmd creates the command command: it prints the
// synthesized FFmpeg invocation without touching the system.
func CreateCommandCmd() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print the synthesized FFmpeg command and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(&opts, cmd); err != nil {
				return err
			}
			initLogging(opts)

			pipeline := setup.New(opts, execute.NewRunner(), events.New(), nil)
			if err := pipeline.Detect(cmd.Context()); err != nil {
				return err
			}
			spec, err := pipeline.Command()
			if err != nil {
				return err
			}
			fmt.Println(spec.Line())
			return nil
		},
	}

	bindSetupFlags(cmd, &opts)
	return cmd
}
