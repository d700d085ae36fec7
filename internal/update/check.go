// Package update tells users when a newer wizard release is published.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
)

// Repository is the GitHub owner/name releases are read from.
const Repository = "embrace-io/embrace-wizard"

// Result holds the outcome of an update check.
type Result struct {
	Latest    string
	Current   string
	UpdateURL string
}

// NeedsUpdate reports whether Latest is newer than Current. Unparseable
// versions never need an update.
func (r *Result) NeedsUpdate() bool {
	if r == nil {
		return false
	}
	latest, err := version.NewVersion(r.Latest)
	if err != nil {
		return false
	}
	current, err := version.NewVersion(r.Current)
	if err != nil {
		return false
	}
	return latest.GreaterThan(current)
}

type ghRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Checker queries the GitHub releases API.
type Checker struct {
	Client  *http.Client
	BaseURL string
}

// NewChecker returns a Checker against api.github.com with a short timeout.
func NewChecker() *Checker {
	return &Checker{
		Client:  &http.Client{Timeout: 3 * time.Second},
		BaseURL: "https://api.github.com",
	}
}

// Latest returns the latest release compared with current. It returns nil
// on any failure so callers can ignore update checks.
func (c *Checker) Latest(ctx context.Context, current string) *Result {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimSuffix(c.BaseURL, "/"), Repository)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var rel ghRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil || rel.TagName == "" {
		return nil
	}
	return &Result{
		Latest:    strings.TrimPrefix(rel.TagName, "v"),
		Current:   strings.TrimPrefix(current, "v"),
		UpdateURL: rel.HTMLURL,
	}
}
