// Package release looks up the assets of a GitHub release.
package release

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
)

// DefaultBaseURL is the GitHub REST API root.
const DefaultBaseURL = "https://api.github.com"

// RepoSpec names a repository and, optionally, a release tag.
type RepoSpec struct {
	Owner string
	Repo  string
	// Tag is empty for the latest release.
	Tag string
}

func (s RepoSpec) String() string {
	if s.Tag == "" {
		return s.Owner + "/" + s.Repo
	}
	return s.Owner + "/" + s.Repo + "@" + s.Tag
}

// ParseRepoSpec parses "owner/repo" or "owner/repo@tag".
func ParseRepoSpec(s string) (RepoSpec, error) {
	repo, tag, hasTag := strings.Cut(s, "@")
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepoSpec{}, fmt.Errorf("%w: invalid repository %q, expected owner/repo[@tag]", binary.ErrConfiguration, s)
	}
	if hasTag && tag == "" {
		return RepoSpec{}, fmt.Errorf("%w: empty tag in %q", binary.ErrConfiguration, s)
	}
	return RepoSpec{Owner: owner, Repo: name, Tag: tag}, nil
}

// Client queries the releases API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// Token is sent as a bearer token when set.
	Token     string
	UserAgent string
	Log       zerolog.Logger
}

// NewClient returns a client for api.github.com.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  binary.DefaultUserAgent,
		Log:        zerolog.Nop(),
	}
}

// ReleaseURL returns the API endpoint for spec.
func (c *Client) ReleaseURL(spec RepoSpec) string {
	base := strings.TrimRight(c.BaseURL, "/")
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases", base, url.PathEscape(spec.Owner), url.PathEscape(spec.Repo))
	if spec.Tag == "" {
		return endpoint + "/latest"
	}
	return endpoint + "/tags/" + url.PathEscape(spec.Tag)
}

// Assets returns the assets of the release named by spec, in API order.
func (c *Client) Assets(ctx context.Context, spec RepoSpec) ([]binary.Asset, error) {
	endpoint := c.ReleaseURL(spec)
	c.Log.Debug().Msgf("Requesting asset list from %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", binary.ErrConfiguration, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.UserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request asset list for %s: %v", binary.ErrTransport, spec, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: no release %s (%s)", binary.ErrAssetNotFound, spec, endpoint)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: asset list for %s: status %d: %s",
			binary.ErrTransport, spec, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	tag, assets, err := parseRelease(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse asset list for %s: %v", binary.ErrTransport, spec, err)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: release %s has no assets", binary.ErrAssetNotFound, spec)
	}
	c.Log.Debug().Str("tag", tag).Int("assets", len(assets)).Msgf("Found release for %s", spec)
	return assets, nil
}

// parseRelease reads only tag_name and the name and download URL of each
// asset, skipping the rest of the document.
func parseRelease(r io.Reader) (string, []binary.Asset, error) {
	iter := jsoniter.Parse(jsoniter.ConfigFastest, r, 4096)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return "", nil, fmt.Errorf("expected a JSON object")
	}

	var (
		tag    string
		assets []binary.Asset
	)
	for field := iter.ReadObject(); field != ""; field = iter.ReadObject() {
		switch field {
		case "tag_name":
			tag = iter.ReadString()
		case "assets":
			if iter.WhatIsNext() != jsoniter.ArrayValue {
				iter.Skip()
				continue
			}
			for iter.ReadArray() {
				var asset binary.Asset
				for key := iter.ReadObject(); key != ""; key = iter.ReadObject() {
					switch key {
					case "name":
						asset.Name = iter.ReadString()
					case "browser_download_url":
						asset.URL = iter.ReadString()
					default:
						iter.Skip()
					}
				}
				if asset.Name != "" {
					assets = append(assets, asset)
				}
			}
		default:
			iter.Skip()
		}
	}

	if iter.Error != nil && iter.Error != io.EOF {
		return "", nil, iter.Error
	}
	return tag, assets, nil
}
