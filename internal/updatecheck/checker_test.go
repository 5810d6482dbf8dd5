package updatecheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func releaseServer(t *testing.T, latest GitHubRelease, all []GitHubRelease) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/" + GitHubRepo + "/releases/latest":
			_ = json.NewEncoder(w).Encode(latest)
		case "/repos/" + GitHubRepo + "/releases":
			_ = json.NewEncoder(w).Encode(all)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckUpdateAvailable(t *testing.T) {
	srv := releaseServer(t, GitHubRelease{TagName: "v1.1.0", HTMLURL: "https://example.test/v1.1.0"}, nil)
	checker := New(zaptest.NewLogger(t).Sugar(), "v1.0.0", WithAPIURL(srv.URL))

	info := checker.Check(context.Background())
	require.NotNil(t, info)
	assert.Empty(t, info.CheckError)
	assert.Equal(t, "v1.0.0", info.CurrentVersion)
	assert.Equal(t, "v1.1.0", info.LatestVersion)
	assert.True(t, info.UpdateAvailable)
	assert.Equal(t, "https://example.test/v1.1.0", info.ReleaseURL)
	assert.NotNil(t, info.CheckedAt)
}

func TestCheckUpToDate(t *testing.T) {
	srv := releaseServer(t, GitHubRelease{TagName: "1.1.0"}, nil)
	info := New(nil, "1.1.0", WithAPIURL(srv.URL)).Check(context.Background())
	assert.False(t, info.UpdateAvailable)
}

func TestCheckPrereleases(t *testing.T) {
	t.Setenv(EnvAllowPrereleaseUpdates, "true")
	srv := releaseServer(t, GitHubRelease{TagName: "v1.0.0"}, []GitHubRelease{
		{TagName: "v1.2.0-rc.1", Prerelease: true},
		{TagName: "v1.1.0"},
	})

	info := New(nil, "v1.1.0", WithAPIURL(srv.URL)).Check(context.Background())
	assert.Equal(t, "v1.2.0-rc.1", info.LatestVersion)
	assert.True(t, info.IsPrerelease)
	assert.True(t, info.UpdateAvailable)
}

func TestCheckError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	info := New(nil, "v1.0.0", WithAPIURL(srv.URL)).Check(context.Background())
	assert.Contains(t, info.CheckError, "status 403")
	assert.False(t, info.UpdateAvailable)
	assert.Empty(t, info.LatestVersion)
}

func TestEnabled(t *testing.T) {
	assert.True(t, New(nil, "v0.1.0").Enabled())
	assert.False(t, New(nil, "development").Enabled())

	t.Setenv(EnvDisableUpdateCheck, "true")
	assert.False(t, New(nil, "v0.1.0").Enabled())
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"v1.0.0", "v1.0.1", true},
		{"1.0.0", "v2.0.0", true},
		{"v1.2.0", "v1.1.9", false},
		{"v1.0.0", "v1.0.0", false},
		{"v1.0.0-rc.1", "v1.0.0", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareVersions(tt.current, tt.latest), "%s -> %s", tt.current, tt.latest)
	}
}
