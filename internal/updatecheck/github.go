package updatecheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// GitHubRepo is the repository to check for releases
	GitHubRepo = "mcp-shark/sharkctl"

	// DefaultAPIURL is the GitHub REST API root
	DefaultAPIURL = "https://api.github.com"

	httpTimeout = 10 * time.Second
)

// GitHubClient reads releases from the GitHub Releases API
type GitHubClient struct {
	logger     *zap.SugaredLogger
	httpClient *http.Client
	apiURL     string
	repo       string
}

// NewGitHubClient creates a client for repo under apiURL
func NewGitHubClient(apiURL, repo string, logger *zap.SugaredLogger) *GitHubClient {
	return &GitHubClient{
		logger:     logger,
		httpClient: &http.Client{Timeout: httpTimeout},
		apiURL:     strings.TrimRight(apiURL, "/"),
		repo:       repo,
	}
}

func (c *GitHubClient) get(ctx context.Context, path string, out any) error {
	url := c.apiURL + "/repos/" + c.repo + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debugw("Failed to fetch releases", "url", url, "error", err)
		return fmt.Errorf("failed to fetch releases: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debugw("GitHub API returned non-200 status", "status_code", resp.StatusCode, "url", url)
		return fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode release: %w", err)
	}
	return nil
}

// GetRelease fetches the latest stable release, or the newest release of any
// kind when includePrereleases is set
func (c *GitHubClient) GetRelease(ctx context.Context, includePrereleases bool) (*GitHubRelease, error) {
	if !includePrereleases {
		var release GitHubRelease
		if err := c.get(ctx, "/releases/latest", &release); err != nil {
			return nil, err
		}
		return &release, nil
	}

	var releases []GitHubRelease
	if err := c.get(ctx, "/releases", &releases); err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, errors.New("no releases found")
	}
	// GitHub lists newest first
	return &releases[0], nil
}
