package updatecheck

import "time"

// GitHubRelease is the subset of a GitHub release the checker reads
type GitHubRelease struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Prerelease bool   `json:"prerelease"`
}

// VersionInfo is the result of an update check
type VersionInfo struct {
	CurrentVersion  string     `json:"current_version" yaml:"current_version" toml:"current_version"`
	LatestVersion   string     `json:"latest_version,omitempty" yaml:"latest_version,omitempty" toml:"latest_version,omitempty"`
	UpdateAvailable bool       `json:"update_available" yaml:"update_available" toml:"update_available"`
	ReleaseURL      string     `json:"release_url,omitempty" yaml:"release_url,omitempty" toml:"release_url,omitempty"`
	IsPrerelease    bool       `json:"is_prerelease,omitempty" yaml:"is_prerelease,omitempty" toml:"is_prerelease,omitempty"`
	CheckedAt       *time.Time `json:"checked_at,omitempty" yaml:"checked_at,omitempty" toml:"checked_at,omitempty"`
	CheckError      string     `json:"check_error,omitempty" yaml:"check_error,omitempty" toml:"check_error,omitempty"`
}
