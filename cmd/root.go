// Package cmd wires the CLI surface: the root setup pipeline and its
// subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cdgriffith/pi-streaming-setup/internal/config"
	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/ffmpeg"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/setup"
	"github.com/cdgriffith/pi-streaming-setup/internal/systemd"
	"github.com/cdgriffith/pi-streaming-setup/internal/version"
)

// CreateRootCmd creates the root command: the full detect, synthesize,
// install, activate pipeline.
func CreateRootCmd() *cobra.Command {
	var opts config.Options

	cmd := &cobra.Command{
		Use:   "pi-streaming-setup",
		Short: "Turn a camera-equipped SBC into a streaming endpoint",
		Long: `Detects the best attached v4l2 camera, synthesizes an FFmpeg invocation ` +
			`for it and installs everything needed to serve DASH/HLS or RTSP on boot: ` +
			`viewer page, boot script, rc.local hook and systemd services.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(&opts, cmd); err != nil {
				return err
			}
			initLogging(opts)
			logger := logging.GetLogger("setup")

			if os.Geteuid() != 0 {
				return fmt.Errorf("root privileges are required, rerun with sudo")
			}

			logger.Info("Starting streaming setup", "version", version.Version)

			ctx := cmd.Context()
			bus := events.New()
			reporter := setup.NewReporter(bus)

			var manager setup.ServiceManager
			if m, err := systemd.NewManager(ctx); err != nil {
				logger.Warn("Could not connect to systemd, services will not be activated", "error", err)
			} else {
				manager = m
				defer m.Close()
			}

			pipeline := setup.New(opts, execute.NewRunner(), bus, manager)
			if err := pipeline.Run(ctx); err != nil {
				return err
			}

			reporter.Summary(os.Stdout)
			return nil
		},
	}

	bindSetupFlags(cmd, &opts)
	cmd.AddCommand(
		CreateCamerasCmd(),
		CreateCommandCmd(),
		CreateRunCmd(),
		CreateRelayCmd(),
		CreateUpdateCmd(),
		CreateVersionCmd(),
	)
	return cmd
}

// bindSetupFlags registers the pipeline flags shared by the root,
// command and run commands.
func bindSetupFlags(cmd *cobra.Command, opts *config.Options) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.Device, "device", "d", "", "camera device node, best detected camera when empty")
	flags.StringVarP(&opts.VideoSize, "video-size", "s", "", "camera resolution, detected when empty")
	flags.StringVarP(&opts.InputFormat, "input-format", "f", "", "camera pixel format, detected when empty")
	flags.StringVarP(&opts.Codec, "codec", "c", "", "conversion codec, 'copy' for h264 cameras otherwise "+setup.DefaultEncodeCodec)
	flags.StringVarP(&opts.Bitrate, "bitrate", "b", ffmpeg.BitrateDynamic, "streaming bitrate, computed from resolution by default, ignored for 'copy'")
	flags.StringVar(&opts.FfmpegParams, "ffmpeg-params", "", `additional FFmpeg params, must be quoted, e.g. "-b:v 4M -maxrate 4M"`)
	flags.BoolVarP(&opts.Rtsp, "rtsp", "r", false, "publish RTSP instead of DASH / HLS")
	flags.StringVar(&opts.RtspUrl, "rtsp-url", "", "remote RTSP url to publish to instead of installing a local relay")
	flags.BoolVar(&opts.DisableHls, "disable-hls", false, "omit the HLS compatibility playlist from DASH output")
	flags.StringVar(&opts.IndexFile, "index-file", setup.DefaultIndexFile, "viewer page location")
	flags.StringVar(&opts.OnRebootFile, "on-reboot-file", setup.DefaultBootScript, "boot script location")
	flags.StringVar(&opts.SystemdFile, "systemd-file", setup.DefaultStreamUnit, "stream service unit location")
	flags.BoolVar(&opts.Safe, "safe", false, "never overwrite existing files")
	flags.StringVar(&opts.Config, "config", config.DefaultConfigFile, "path to TOML configuration file")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.LogFormat, "log-format", "", "log format (text, json)")
}

// initLogging initializes logging from the config file with flag
// overrides on top.
func initLogging(opts config.Options) {
	cfg := config.LoadLoggingConfig(opts.Config)
	if opts.LogLevel != "" {
		cfg.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Format = opts.LogFormat
	}
	logging.Initialize(cfg)
}

// Execute runs the CLI.
func Execute() {
	if err := CreateRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
