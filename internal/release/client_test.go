package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
)

const typosRelease = `{
  "url": "https://api.github.com/repos/crate-ci/typos/releases/1",
  "tag_name": "v1.31.1",
  "draft": false,
  "author": {"login": "epage", "id": 60961},
  "assets": [
    {
      "name": "typos-v1.31.1-aarch64-apple-darwin.tar.gz",
      "size": 2716523,
      "uploader": {"login": "github-actions[bot]"},
      "browser_download_url": "https://github.com/crate-ci/typos/releases/download/v1.31.1/typos-v1.31.1-aarch64-apple-darwin.tar.gz"
    },
    {
      "label": null,
      "browser_download_url": "https://github.com/crate-ci/typos/releases/download/v1.31.1/typos-v1.31.1-x86_64-unknown-linux-musl.tar.gz",
      "name": "typos-v1.31.1-x86_64-unknown-linux-musl.tar.gz"
    }
  ],
  "body": "## [1.31.1] - 2025-03-31"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient()
	c.BaseURL = server.URL
	c.HTTPClient = server.Client()
	return c
}

func TestParseRepoSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    RepoSpec
		wantErr bool
	}{
		{in: "crate-ci/typos@v1.31.1", want: RepoSpec{Owner: "crate-ci", Repo: "typos", Tag: "v1.31.1"}},
		{in: "casey/just", want: RepoSpec{Owner: "casey", Repo: "just"}},
		{in: "jgm/pandoc@3.6.4", want: RepoSpec{Owner: "jgm", Repo: "pandoc", Tag: "3.6.4"}},
		{in: "typos", wantErr: true},
		{in: "/typos", wantErr: true},
		{in: "crate-ci/", wantErr: true},
		{in: "a/b/c", wantErr: true},
		{in: "crate-ci/typos@", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepoSpec(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, binary.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestClient_ReleaseURL(t *testing.T) {
	c := NewClient()
	assert.Equal(t, "https://api.github.com/repos/crate-ci/typos/releases/tags/v1.31.1",
		c.ReleaseURL(RepoSpec{Owner: "crate-ci", Repo: "typos", Tag: "v1.31.1"}))
	assert.Equal(t, "https://api.github.com/repos/casey/just/releases/latest",
		c.ReleaseURL(RepoSpec{Owner: "casey", Repo: "just"}))
}

func TestClient_Assets(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/crate-ci/typos/releases/tags/v1.31.1", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
		assert.Equal(t, "jas/test", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(typosRelease))
	})
	c.UserAgent = "jas/test"

	assets, err := c.Assets(context.Background(), RepoSpec{Owner: "crate-ci", Repo: "typos", Tag: "v1.31.1"})
	require.NoError(t, err)
	assert.Equal(t, []binary.Asset{
		{
			Name: "typos-v1.31.1-aarch64-apple-darwin.tar.gz",
			URL:  "https://github.com/crate-ci/typos/releases/download/v1.31.1/typos-v1.31.1-aarch64-apple-darwin.tar.gz",
		},
		{
			Name: "typos-v1.31.1-x86_64-unknown-linux-musl.tar.gz",
			URL:  "https://github.com/crate-ci/typos/releases/download/v1.31.1/typos-v1.31.1-x86_64-unknown-linux-musl.tar.gz",
		},
	}, assets)
}

func TestClient_AssetsLatestWithToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/casey/just/releases/latest", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"tag_name":"1.40.0","assets":[{"name":"just-1.40.0-x86_64-unknown-linux-musl.tar.gz","browser_download_url":"https://example.com/just.tar.gz"}]}`))
	})
	c.Token = "secret"

	assets, err := c.Assets(context.Background(), RepoSpec{Owner: "casey", Repo: "just"})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "https://example.com/just.tar.gz", assets[0].URL)
}

func TestClient_AssetsErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"not_found", http.StatusNotFound, `{"message":"Not Found"}`, binary.ErrAssetNotFound, "crate-ci/typos@v0"},
		{"rate_limited", http.StatusForbidden, `{"message":"API rate limit exceeded"}`, binary.ErrTransport, "API rate limit exceeded"},
		{"server_error", http.StatusBadGateway, "", binary.ErrTransport, "status 502"},
		{"no_assets", http.StatusOK, `{"tag_name":"v0","assets":[]}`, binary.ErrAssetNotFound, "has no assets"},
		{"missing_assets", http.StatusOK, `{"tag_name":"v0"}`, binary.ErrAssetNotFound, "has no assets"},
		{"not_json", http.StatusOK, `<html>`, binary.ErrTransport, "parse asset list"},
		{"truncated", http.StatusOK, `{"assets":[{"name":"a"`, binary.ErrTransport, "parse asset list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Assets(context.Background(), RepoSpec{Owner: "crate-ci", Repo: "typos", Tag: "v0"})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_AssetsCanceled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(typosRelease))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Assets(ctx, RepoSpec{Owner: "crate-ci", Repo: "typos"})
	require.ErrorIs(t, err, binary.ErrTransport)
}

func TestParseRelease_SkipsUnknownShapes(t *testing.T) {
	tag, assets, err := parseRelease(strings.NewReader(`{"assets":{"unexpected":true},"tag_name":"v1"}`))
	require.NoError(t, err)
	assert.Equal(t, "v1", tag)
	assert.Empty(t, assets)
}
