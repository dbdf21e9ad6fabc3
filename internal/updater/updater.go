// Package updater provides self-update from GitHub releases.
package updater

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeprojects/go-selfupdate"

	"github.com/cdgriffith/pi-streaming-setup/internal/logging"
	"github.com/cdgriffith/pi-streaming-setup/internal/version"
)

// DefaultRepository is the release source for this binary.
const DefaultRepository = "cdgriffith/pi-streaming-setup"

// UpdateInfo describes the latest release relative to the running
// version.
type UpdateInfo struct {
	CurrentVersion  string
	LatestVersion   string
	ReleaseNotes    string
	ReleaseURL      string
	PublishedAt     time.Time
	UpdateAvailable bool
}

// Service checks for and applies updates to the running binary.
type Service struct {
	repository selfupdate.Repository
	updater    *selfupdate.Updater
	backups    *backupManager
	logger     *slog.Logger
}

// NewService creates an update service for the given repository slug,
// or the default when slug is empty. Fails when the executable's
// directory is not writable, since an update could never be applied.
func NewService(slug string) (*Service, error) {
	logger := logging.GetLogger("updater")

	if slug == "" {
		slug = DefaultRepository
	}

	if reason := checkWritePermission(); reason != "" {
		return nil, newError(ErrCodeDisabled, reason, nil)
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}

	up, err := selfupdate.NewUpdater(selfupdate.Config{Source: source})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	backups, err := newBackupManager(logger)
	if err != nil {
		logger.Warn("Backups unavailable", "error", err)
	}

	return &Service{
		repository: selfupdate.ParseSlug(slug),
		updater:    up,
		backups:    backups,
		logger:     logger,
	}, nil
}

func checkWritePermission() string {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Sprintf("failed to get executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	tmp := filepath.Join(dir, ".pi-streaming-setup.update.test")
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(tmp)
	return ""
}

// Check queries GitHub for the latest release and compares it against
// the running version without downloading anything.
func (s *Service) Check(ctx context.Context) (*UpdateInfo, *selfupdate.Release, error) {
	currentVersion := version.Version

	release, found, err := s.updater.DetectLatest(ctx, s.repository)
	if err != nil {
		return nil, nil, newError(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		return nil, nil, newError(ErrCodeNotFound, "repository not found or has no releases", nil)
	}

	// An untagged dev build is always considered outdated.
	isNewer := currentVersion == "dev" || release.GreaterThan(currentVersion)

	return &UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   release.Version(),
		ReleaseNotes:    release.ReleaseNotes,
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		UpdateAvailable: isNewer,
	}, release, nil
}

// Apply downloads the latest release and replaces the running binary,
// backing up the current one first and rolling back on failure.
func (s *Service) Apply(ctx context.Context) (*UpdateInfo, error) {
	info, release, err := s.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateAvailable {
		return info, newError(ErrCodeNoUpdate, "no update available", nil)
	}

	if s.backups != nil {
		if err := s.backups.createBackup(); err != nil {
			return info, newError(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return info, newError(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	if err := s.updater.UpdateTo(ctx, release, exe); err != nil {
		s.attemptRollback()
		return info, newError(ErrCodeApplyFailed, "failed to apply update", err)
	}

	s.logger.Info("Update applied", "version", release.Version())
	return info, nil
}

func (s *Service) attemptRollback() {
	if s.backups == nil || !s.backups.hasBackup() {
		s.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := s.backups.restore(); err != nil {
		s.logger.Error("Failed to restore backup", "error", err)
		return
	}
	s.logger.Info("Automatic rollback completed")
}
