package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/config"
	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/setup"
)

// CreateRunCmd creates the run command: it supervises the synthesized
// FFmpeg invocation in the foreground instead of handing it to systemd.
// With a config file, changes are hot-reloaded and the process is
// restarted when the synthesized command changes.
func CreateRunCmd() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the streaming process in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(&opts, cmd); err != nil {
				return err
			}
			initLogging(opts)
			logger := logging.GetLogger("run")

			pipeline := setup.New(opts, execute.NewRunner(), events.New(), nil)
			if err := pipeline.Detect(cmd.Context()); err != nil {
				return err
			}
			spec, err := pipeline.Command()
			if err != nil {
				return err
			}
			resolved := pipeline.Options()

			logger.Info("Starting streaming process", "command", spec.Line())
			proc := execute.NewProcess(spec.Line(), logger, logging.GetLogger("ffmpeg"))

			var watcher *config.Watcher[string]
			if opts.Config != "" {
				loader := func(path string) (string, error) {
					fresh := resolved
					fresh.Config = path
					if err := config.LoadConfig(&fresh, nil); err != nil {
						return "", err
					}
					p := setup.New(fresh, execute.NewRunner(), events.New(), nil)
					if err := p.Detect(context.Background()); err != nil {
						return "", err
					}
					freshSpec, err := p.Command()
					if err != nil {
						return "", err
					}
					return freshSpec.Line(), nil
				}

				watcher = config.NewWatcher(opts.Config, loader, logger)
				watcher.OnReload(func(line string) {
					if line != proc.Command() {
						logger.Info("Command changed, requesting restart")
						proc.RequestRestart(line)
					} else {
						logger.Debug("Config reloaded, command unchanged")
					}
				})
				if err := watcher.Start(); err != nil {
					logger.Warn("Failed to start config watcher, hot-reload disabled", "error", err)
					watcher = nil
				}
			}

			exitCode := proc.RunWithRestart()
			logger.Info("Streaming process exited", "exit_code", exitCode)
			if watcher != nil {
				_ = watcher.Stop()
			}
			os.Exit(exitCode)
			return nil
		},
	}

	bindSetupFlags(cmd, &opts)
	return cmd
}
