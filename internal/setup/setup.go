// Package setup sequences the full pipeline: capability detection,
// invocation synthesis, artifact install and service activation.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cdgriffith/pi-streaming-setup/internal/artifacts"
	"github.com/cdgriffith/pi-streaming-setup/internal/config"
	"github.com/cdgriffith/pi-streaming-setup/internal/devices"
	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/ffmpeg"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/relay"
	"github.com/cdgriffith/pi-streaming-setup/internal/systemd"
)

// Default artifact locations.
const (
	DefaultIndexFile   = "/var/lib/streaming/index.html"
	DefaultBootScript  = "/var/lib/streaming/setup_streaming.sh"
	DefaultStreamUnit  = "/etc/systemd/system/stream_camera.service"
	DefaultRelayUnit   = "/etc/systemd/system/rtsp_relay.service"
	DefaultRelayDir    = "/var/lib/streaming"
	DefaultEncodeCodec = "h264_v4l2m2m"
)

// ServiceManager is the slice of systemd control the pipeline needs.
// A nil manager skips activation, which keeps artifact installs
// testable off-target.
type ServiceManager interface {
	Reload(ctx context.Context) error
	StartService(ctx context.Context, serviceName string) error
	EnableService(ctx context.Context, serviceName string) error
	StopService(ctx context.Context, serviceName string) error
}

var _ ServiceManager = (*systemd.Manager)(nil)

// Pipeline holds everything one setup run needs.
type Pipeline struct {
	opts    config.Options
	runner  execute.Runner
	bus     *events.Bus
	files   *artifacts.Installer
	systemd ServiceManager
	rcLocal string
	logger  *slog.Logger
}

// New assembles a pipeline. manager may be nil.
func New(opts config.Options, runner execute.Runner, bus *events.Bus, manager ServiceManager) *Pipeline {
	return &Pipeline{
		opts:    opts,
		runner:  runner,
		bus:     bus,
		files:   artifacts.NewInstaller(bus),
		systemd: manager,
		rcLocal: artifacts.DefaultRCLocal,
		logger:  logging.GetLogger("setup"),
	}
}

// Options returns the effective options, useful after Detect has filled
// in defaults.
func (p *Pipeline) Options() config.Options {
	return p.opts
}

// Detect fills any camera option the operator left empty from the
// detected best device. Detection failure is advisory: the fallback
// tuple is used and setup proceeds, matching a camera that will be
// plugged in later.
func (p *Pipeline) Detect(ctx context.Context) error {
	if p.opts.Device == "" || p.opts.InputFormat == "" || p.opts.VideoSize == "" {
		if err := p.detectCamera(ctx); err != nil {
			return err
		}
	}

	// Codec and bitrate policy applies whether the tuple was detected
	// or pinned by the operator.
	if p.opts.Codec == "" {
		p.opts.Codec = CodecFor(p.opts.InputFormat)
	}
	if p.opts.Bitrate == "" {
		p.opts.Bitrate = ffmpeg.BitrateDynamic
	}

	p.logger.Info("Camera configuration resolved",
		"device", p.opts.Device,
		"format", p.opts.InputFormat,
		"resolution", p.opts.VideoSize,
		"codec", p.opts.Codec)
	return nil
}

func (p *Pipeline) detectCamera(ctx context.Context) error {
	candidates, err := devices.List(ctx, p.runner)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		p.bus.Publish(events.DeviceDiscoveredEvent{Path: c.Path, Formats: c.Formats})
	}

	selection, err := devices.Select(candidates)
	if err != nil {
		if !errors.Is(err, devices.ErrNoCameraDetected) {
			return err
		}
		p.logger.Warn("No camera detected, using fallback configuration",
			"device", selection.Path, "format", selection.Format)
		p.bus.Publish(events.AdvisoryEvent{
			Message: fmt.Sprintf("no camera detected, configured for %s (%s) anyway", selection.Path, selection.Format),
		})
	}

	if p.opts.Device == "" {
		p.opts.Device = selection.Path
	}
	if p.opts.InputFormat == "" {
		p.opts.InputFormat = selection.Format
	}
	if p.opts.VideoSize == "" {
		p.opts.VideoSize = selection.Resolution
	}
	return nil
}

// CodecFor picks the default encoder for a camera format: a camera that
// already produces h264 is passed through untouched, everything else is
// transcoded on the VideoCore hardware encoder.
func CodecFor(inputFormat string) string {
	if inputFormat == "h264" {
		return ffmpeg.CodecCopy
	}
	return DefaultEncodeCodec
}

// Command synthesizes the streaming invocation from the effective
// options. Call Detect first so empty camera options are resolved.
func (p *Pipeline) Command() (ffmpeg.CommandSpec, error) {
	var target ffmpeg.Target
	if p.opts.Rtsp {
		target = ffmpeg.RTSPTarget{Path: p.opts.RtspUrl}
	} else {
		target = ffmpeg.DashTarget{DisableHLS: p.opts.DisableHls}
	}
	return ffmpeg.Build(ffmpeg.Params{
		Device:      p.opts.Device,
		InputFormat: p.opts.InputFormat,
		VideoSize:   p.opts.VideoSize,
		Codec:       p.opts.Codec,
		Bitrate:     p.opts.Bitrate,
		ExtraParams: p.opts.FfmpegParams,
		Target:      target,
	})
}

// Run executes the whole pipeline. Detection problems and a missing
// ffmpeg binary are advisories; artifact and service failures abort.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Detect(ctx); err != nil {
		return err
	}

	if _, err := exec.LookPath("ffmpeg"); err != nil {
		p.logger.Warn("ffmpeg not found on PATH, the stream service will not start until it is installed")
		p.bus.Publish(events.AdvisoryEvent{Message: "ffmpeg not found on PATH, install it before starting the stream"})
	}

	command, err := p.Command()
	if err != nil {
		return err
	}
	p.logger.Info("Synthesized streaming command", "command", command.Line())

	if p.opts.Rtsp && p.opts.RtspUrl == "" {
		if err := p.installRelay(ctx); err != nil {
			return err
		}
	} else if !p.opts.Rtsp {
		if err := p.installViewer(); err != nil {
			return err
		}
	}

	if err := p.installStreamUnit(ctx, command.Line()); err != nil {
		return err
	}

	if !p.opts.Rtsp {
		p.publishEndpoints()
	}
	p.logger.Info("Install complete")
	return nil
}

// installViewer lays down the DASH viewer page, the boot script and the
// rc.local hook, then runs the boot script once so the shared-memory
// segment directory exists before the stream service starts.
func (p *Pipeline) installViewer() error {
	page, err := artifacts.ViewerPage(p.opts.VideoSize)
	if err != nil {
		return err
	}
	if err := p.files.Install(artifacts.FileArtifact{
		Path:      p.opts.IndexFile,
		Content:   page,
		Mode:      0o644,
		Overwrite: !p.opts.Safe,
	}); err != nil {
		return err
	}

	if err := p.files.Install(artifacts.FileArtifact{
		Path:      p.opts.OnRebootFile,
		Content:   artifacts.BootScript(p.opts.IndexFile),
		Mode:      0o755,
		Overwrite: !p.opts.Safe,
	}); err != nil {
		return err
	}

	if err := p.files.ApplyPatch(artifacts.RCLocalPatch(p.rcLocal, p.opts.OnRebootFile, !p.opts.Safe)); err != nil {
		if !errors.Is(err, artifacts.ErrAnchorNotFound) {
			return err
		}
		// A refused rc.local hook loses the reboot bootstrap, not the
		// stream itself, so the install keeps going.
		p.logger.Warn("Leaving rc.local unpatched", "error", err)
		p.bus.Publish(events.AdvisoryEvent{
			Message: fmt.Sprintf("rc.local was not patched, add %q to it manually", p.opts.OnRebootFile),
		})
	}

	if _, stderr, err := p.runner.Run(context.Background(), "/bin/bash "+p.opts.OnRebootFile); err != nil {
		p.logger.Warn("Boot script failed", "error", err, "stderr", strings.TrimSpace(stderr))
	}
	return nil
}

// installRelay installs the RTSP relay release and its service unit.
func (p *Pipeline) installRelay(ctx context.Context) error {
	installer := relay.NewInstaller(relay.Options{
		InstallDir: DefaultRelayDir,
		Service:    filepath.Base(DefaultRelayUnit),
	}, p.runner, p.systemd, p.bus)

	if _, err := installer.Install(ctx); err != nil {
		return err
	}

	unitData, err := artifacts.RelayUnit(DefaultRelayDir, filepath.Join(DefaultRelayDir, relay.DefaultRepo))
	if err != nil {
		return err
	}
	if err := p.files.Install(artifacts.FileArtifact{
		Path:      DefaultRelayUnit,
		Content:   unitData,
		Mode:      0o644,
		Overwrite: !p.opts.Safe,
	}); err != nil {
		return err
	}
	return p.activate(ctx, filepath.Base(DefaultRelayUnit))
}

// installStreamUnit installs the camera stream service and activates it.
func (p *Pipeline) installStreamUnit(ctx context.Context, execStart string) error {
	unitData, err := artifacts.StreamUnit(execStart)
	if err != nil {
		return err
	}
	if err := p.files.Install(artifacts.FileArtifact{
		Path:      p.opts.SystemdFile,
		Content:   unitData,
		Mode:      0o644,
		Overwrite: !p.opts.Safe,
	}); err != nil {
		return err
	}
	return p.activate(ctx, filepath.Base(p.opts.SystemdFile))
}

// activate reloads systemd then starts and enables the unit.
func (p *Pipeline) activate(ctx context.Context, unitName string) error {
	if p.systemd == nil {
		p.logger.Warn("No systemd connection, skipping service activation", "unit", unitName)
		return nil
	}
	if err := p.systemd.Reload(ctx); err != nil {
		return fmt.Errorf("reloading systemd units: %w", err)
	}
	if err := p.systemd.StartService(ctx, unitName); err != nil {
		return fmt.Errorf("starting %s: %w", unitName, err)
	}
	if err := p.systemd.EnableService(ctx, unitName); err != nil {
		return fmt.Errorf("enabling %s: %w", unitName, err)
	}
	p.logger.Info("Service active", "unit", unitName)
	return nil
}

// publishEndpoints emits one advisory per address the viewer page is
// reachable on.
func (p *Pipeline) publishEndpoints() {
	var hosts []string
	if hostname, err := os.Hostname(); err == nil {
		hosts = append(hosts, hostname)
	}
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() || ipNet.IP.To4() == nil {
				continue
			}
			hosts = append(hosts, ipNet.IP.String())
		}
	}
	for _, host := range hosts {
		p.bus.Publish(events.AdvisoryEvent{
			Message: fmt.Sprintf("try viewing the stream at http://%s/streaming", host),
		})
	}
}
