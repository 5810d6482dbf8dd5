// Package updatecheck compares the running sharkctl version with the latest
// GitHub release.
package updatecheck

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
)

const (
	// EnvDisableUpdateCheck disables update checks when set to "true"
	EnvDisableUpdateCheck = "SHARKCTL_DISABLE_UPDATE_CHECK"

	// EnvAllowPrereleaseUpdates includes prereleases when set to "true"
	EnvAllowPrereleaseUpdates = "SHARKCTL_ALLOW_PRERELEASE_UPDATES"
)

// Checker performs on-demand version checks against GitHub releases
type Checker struct {
	logger  *zap.SugaredLogger
	version string
	fetch   func(ctx context.Context) (*GitHubRelease, error)
}

// Option configures a Checker
type Option func(*Checker)

// WithAPIURL points the checker at another GitHub API root
func WithAPIURL(apiURL string) Option {
	return func(c *Checker) {
		client := NewGitHubClient(apiURL, GitHubRepo, c.logger)
		c.fetch = func(ctx context.Context) (*GitHubRelease, error) {
			return client.GetRelease(ctx, os.Getenv(EnvAllowPrereleaseUpdates) == "true")
		}
	}
}

// New creates a checker for version
func New(logger *zap.SugaredLogger, version string, opts ...Option) *Checker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Checker{logger: logger, version: version}
	WithAPIURL(DefaultAPIURL)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether checks are allowed for this build and environment
func (c *Checker) Enabled() bool {
	if os.Getenv(EnvDisableUpdateCheck) == "true" {
		return false
	}
	return IsValidSemver(c.version)
}

// Check fetches the latest release and compares it with the running version.
// Failures are reported in VersionInfo.CheckError.
func (c *Checker) Check(ctx context.Context) *VersionInfo {
	now := time.Now()
	info := &VersionInfo{CurrentVersion: c.version, CheckedAt: &now}

	release, err := c.fetch(ctx)
	if err != nil {
		c.logger.Debugw("Update check failed", "error", err)
		info.CheckError = err.Error()
		return info
	}

	info.LatestVersion = release.TagName
	info.ReleaseURL = release.HTMLURL
	info.IsPrerelease = release.Prerelease
	info.UpdateAvailable = compareVersions(c.version, release.TagName)

	if info.UpdateAvailable {
		c.logger.Infow("Update available", "current", c.version, "latest", release.TagName, "url", release.HTMLURL)
	}
	return info
}

// compareVersions returns true if latest is newer than current
func compareVersions(current, latest string) bool {
	return semver.Compare(ensureVPrefix(current), ensureVPrefix(latest)) < 0
}

// IsValidSemver returns false for development builds like "dev"
func IsValidSemver(version string) bool {
	return semver.IsValid(ensureVPrefix(version))
}

func ensureVPrefix(version string) string {
	if len(version) > 0 && version[0] != 'v' {
		return "v" + version
	}
	return version
}
