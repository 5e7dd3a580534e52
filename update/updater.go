// Package update checks GitHub releases for newer builds of the todo CLI and
// installs them in place.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.github.com"

// Release describes a newer release with the download URL for this platform.
type Release struct {
	Version string `json:"version"`
	URL     string `json:"url"`
}

type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Updater checks for and applies self-updates.
type Updater struct {
	CurrentVersion string
	Repo           string // owner/name
	APIBase        string
	GOOS, GOARCH   string
	httpClient     *http.Client
}

// New returns an Updater for the todochat releases.
func New(currentVersion string) *Updater {
	return &Updater{
		CurrentVersion: currentVersion,
		Repo:           "GoCodeAlone/todochat",
		APIBase:        defaultAPIBase,
		GOOS:           runtime.GOOS,
		GOARCH:         runtime.GOARCH,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// CheckForUpdate returns the latest release, or nil when the running build is
// current or a dev build.
func (u *Updater) CheckForUpdate(ctx context.Context) (*Release, error) {
	if u.CurrentVersion == "dev" {
		return nil, nil
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(u.APIBase, "/"), u.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "todo/"+u.CurrentVersion)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned %d", resp.StatusCode)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	if strings.TrimPrefix(rel.TagName, "v") == strings.TrimPrefix(u.CurrentVersion, "v") {
		return nil, nil
	}

	dlURL := u.assetURL(rel.Assets)
	if dlURL == "" {
		return nil, fmt.Errorf("no asset found for %s/%s", u.GOOS, u.GOARCH)
	}
	return &Release{Version: rel.TagName, URL: dlURL}, nil
}

// assetURL picks the todo CLI asset for the configured platform.
func (u *Updater) assetURL(assets []githubAsset) string {
	goarch := u.GOARCH
	if goarch == "amd64" {
		goarch = "x86_64"
	}
	for _, a := range assets {
		name := strings.ToLower(a.Name)
		if !strings.HasPrefix(name, "todo_") && !strings.HasPrefix(name, "todo-") {
			continue
		}
		if strings.Contains(name, u.GOOS) && strings.Contains(name, goarch) {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

// Apply downloads release and replaces the executable at exe.
func (u *Updater) Apply(ctx context.Context, release *Release, exe string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(exe), "todo-update-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()    //nolint:errcheck
		os.Remove(tmpPath) //nolint:errcheck
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, release.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download release: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download returned %d", resp.StatusCode)
	}
	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("write download: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, exe); err != nil {
		return fmt.Errorf("replace binary: %w", err)
	}
	return nil
}
