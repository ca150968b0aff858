// Package version compares the running build against the latest published
// release.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// ReleasesURL is the release feed queried by default
	ReleasesURL  = "https://api.github.com/repos/studiowebux/clicker/releases/latest"
	checkTimeout = 5 * time.Second
)

// Release is the subset of the release feed we read
type Release struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Result describes the outcome of a check
type Result struct {
	Current   string
	Latest    string
	URL       string
	Available bool
}

// Checker queries a release feed
type Checker struct {
	URL    string
	Client *http.Client
}

// NewChecker creates a checker against the public release feed
func NewChecker() *Checker {
	return &Checker{
		URL:    ReleasesURL,
		Client: &http.Client{Timeout: checkTimeout},
	}
}

// Check reports whether a release newer than current exists
func (c *Checker) Check(ctx context.Context, current string) (Result, error) {
	result := Result{Current: strings.TrimPrefix(current, "v")}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return result, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "clicker/"+result.Current)
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return result, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return result, fmt.Errorf("failed to decode response: %w", err)
	}

	result.Latest = strings.TrimPrefix(release.TagName, "v")
	result.URL = release.HTMLURL
	result.Available = result.Latest != "" && IsNewer(result.Latest, result.Current)
	return result, nil
}

// IsNewer reports whether latest > current. Pre-release and build suffixes
// are ignored, so "0.2.0-dev" equals "0.2.0".
func IsNewer(latest, current string) bool {
	latestParts := parseVersion(latest)
	currentParts := parseVersion(current)

	n := max(len(latestParts), len(currentParts))
	for i := 0; i < n; i++ {
		l, c := part(latestParts, i), part(currentParts, i)
		if l != c {
			return l > c
		}
	}
	return false
}

func part(parts []int, i int) int {
	if i < len(parts) {
		return parts[i]
	}
	return 0
}

// parseVersion parses a version string into integer parts
func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	parts := strings.Split(version, ".")
	result := make([]int, 0, len(parts))
	for _, p := range parts {
		num, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		result = append(result, num)
	}
	return result
}
