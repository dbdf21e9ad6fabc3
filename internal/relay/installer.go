package relay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/go-github/v74/github"
	"github.com/hashicorp/go-retryablehttp"
	goversion "github.com/hashicorp/go-version"

	"github.com/cdgriffith/pi-streaming-setup/internal/events"
	"github.com/cdgriffith/pi-streaming-setup/internal/execute"
	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
)

// Defaults for the RTSP relay release source.
const (
	DefaultOwner = "bluenviron"
	DefaultRepo  = "mediamtx"
)

// ServiceController is the subset of systemd control the installer
// needs: an already running relay must be stopped before its binary is
// replaced on disk.
type ServiceController interface {
	StopService(ctx context.Context, unit string) error
}

// Options configure a relay install.
type Options struct {
	Owner      string // GitHub release owner
	Repo       string // GitHub release repository, also the binary name
	InstallDir string // directory the archive is extracted into
	Service    string // systemd unit to stop before replacing, empty to skip
}

// Installer downloads the latest relay release and unpacks it into the
// install directory. Installs are idempotent on version: when the
// installed binary already reports the latest release tag nothing is
// downloaded.
type Installer struct {
	opts    Options
	runner  execute.Runner
	github  *github.Client
	http    *retryablehttp.Client
	service ServiceController
	bus     *events.Bus
	logger  *slog.Logger
}

// NewInstaller builds an Installer. service may be nil when no unit
// manages the relay yet.
func NewInstaller(opts Options, runner execute.Runner, service ServiceController, bus *events.Bus) *Installer {
	if opts.Owner == "" {
		opts.Owner = DefaultOwner
	}
	if opts.Repo == "" {
		opts.Repo = DefaultRepo
	}
	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	return &Installer{
		opts:    opts,
		runner:  runner,
		github:  github.NewClient(nil),
		http:    httpClient,
		service: service,
		bus:     bus,
		logger:  logging.GetLogger("relay"),
	}
}

// InstalledVersion reports the version tag the installed binary prints,
// or the empty string when no binary is installed yet.
func (in *Installer) InstalledVersion(ctx context.Context) string {
	binary := filepath.Join(in.opts.InstallDir, in.opts.Repo)
	if _, err := os.Stat(binary); err != nil {
		return ""
	}
	stdout, _, err := in.runner.Run(ctx, binary+" --version")
	if err != nil {
		in.logger.Warn("installed relay did not report a version", "binary", binary, "error", err)
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Install fetches the latest release, resolves the asset for the local
// platform and unpacks it. Returns the installed release tag.
func (in *Installer) Install(ctx context.Context) (string, error) {
	release, _, err := in.github.Repositories.GetLatestRelease(ctx, in.opts.Owner, in.opts.Repo)
	if err != nil {
		return "", newError(ErrCodeReleaseLookup,
			fmt.Sprintf("looking up latest %s/%s release", in.opts.Owner, in.opts.Repo), err)
	}
	latest := release.GetTagName()

	if installed := in.InstalledVersion(ctx); installed != "" {
		if sameVersion(installed, latest) {
			in.logger.Info("relay already at latest release", "version", latest)
			return latest, nil
		}
		in.logger.Info("updating relay", "installed", installed, "latest", latest)
	}

	names := make([]string, 0, len(release.Assets))
	for _, a := range release.Assets {
		names = append(names, a.GetName())
	}

	arch, err := DetectArch(ctx, in.runner)
	if err != nil {
		return "", err
	}
	tokens, err := mapArch(arch, names)
	if err != nil {
		return "", err
	}
	assetName, err := selectAsset(names, runtime.GOOS, tokens)
	if err != nil {
		return "", err
	}

	var downloadURL string
	for _, a := range release.Assets {
		if a.GetName() == assetName {
			downloadURL = a.GetBrowserDownloadURL()
		}
	}

	if in.opts.Service != "" && in.service != nil {
		if err := in.service.StopService(ctx, in.opts.Service); err != nil {
			in.logger.Warn("could not stop relay service before install", "unit", in.opts.Service, "error", err)
		}
	}

	if err := in.download(downloadURL); err != nil {
		return "", err
	}

	in.logger.Info("relay installed", "version", latest, "asset", assetName, "dir", in.opts.InstallDir)
	in.bus.Publish(events.RelayInstalledEvent{Version: latest, Asset: assetName, Dir: in.opts.InstallDir})
	return latest, nil
}

func (in *Installer) download(url string) error {
	resp, err := in.http.Get(url)
	if err != nil {
		return newError(ErrCodeDownloadFailed, fmt.Sprintf("downloading %s", url), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return newError(ErrCodeDownloadFailed,
			fmt.Sprintf("downloading %s: status %d", url, resp.StatusCode), nil)
	}
	if err := os.MkdirAll(in.opts.InstallDir, 0o755); err != nil {
		return newError(ErrCodeExtractFailed,
			fmt.Sprintf("creating install directory %s", in.opts.InstallDir), err)
	}
	if err := extractTarGz(resp.Body, in.opts.InstallDir); err != nil {
		return newError(ErrCodeExtractFailed,
			fmt.Sprintf("unpacking into %s", in.opts.InstallDir), err)
	}
	return nil
}

// sameVersion compares two version strings semantically, tolerating a
// leading "v" on either side. Unparseable versions compare by string.
func sameVersion(a, b string) bool {
	va, errA := goversion.NewVersion(strings.TrimPrefix(a, "v"))
	vb, errB := goversion.NewVersion(strings.TrimPrefix(b, "v"))
	if errA != nil || errB != nil {
		return a == b
	}
	return va.Equal(vb)
}
