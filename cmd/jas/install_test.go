package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
)

func TestInstall_URL(t *testing.T) {
	gh := newFakeGitHub(t)
	archive := tarGz(t, map[string]string{
		"tool-1.0/tool":      "tool binary",
		"tool-1.0/README.md": "readme",
	})
	gh.files["/dl/tool-1.0-x86_64-linux.tar.gz"] = archive

	dir := t.TempDir()
	run := runJas(t, gh.URL, testEnv(t), "install",
		"--url", gh.URL+"/dl/tool-1.0-x86_64-linux.tar.gz",
		"--sha", sha256Hex(archive),
		"--dir", dir,
	)
	require.NoError(t, run.err, run.stderr)

	assert.Equal(t, "Installed "+filepath.Join(dir, "tool")+"\n", run.stdout)
	got, err := os.ReadFile(filepath.Join(dir, "tool"))
	require.NoError(t, err)
	assert.Equal(t, "tool binary", string(got))
	assert.Contains(t, run.stderr, "you may need to add it to your PATH manually")
}

func TestInstall_GitHubRelease(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.addRelease("/repos/crate-ci/typos/releases/tags/v1.31.1", map[string][]byte{
		"typos-v1.31.1-x86_64-unknown-linux-musl.tar.gz": tarGz(t, map[string]string{"typos": "linux typos", "LICENSE": "mit"}),
		"typos-v1.31.1-aarch64-apple-darwin.tar.gz":      tarGz(t, map[string]string{"typos": "mac typos"}),
	})

	dir := t.TempDir()
	run := runJas(t, gh.URL, testEnv(t), "install", "--gh", "crate-ci/typos@v1.31.1", "--dir", dir)
	require.NoError(t, run.err, run.stderr)

	got, err := os.ReadFile(filepath.Join(dir, "typos"))
	require.NoError(t, err)
	assert.Equal(t, "linux typos", string(got))
}

func TestInstall_GitHubLatestRenamed(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.addRelease("/repos/casey/just/releases/latest", map[string][]byte{
		"just-1.40.0-x86_64-unknown-linux-musl.tar.gz": tarGz(t, map[string]string{"just": "just", "just.1": "man"}),
	})

	dir := t.TempDir()
	run := runJas(t, gh.URL, testEnv(t), "install", "--gh", "casey/just", "--binary-filename", "j", "--dir", dir)
	require.NoError(t, run.err, run.stderr)
	assert.FileExists(t, filepath.Join(dir, "j"))
}

func TestInstall_ConfigFile(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.addRelease("/repos/jgm/pandoc/releases/tags/3.6.4", map[string][]byte{
		"pandoc-3.6.4-linux-amd64.tar.gz":  tarGz(t, map[string]string{"pandoc-3.6.4/bin/pandoc": "amd64"}),
		"pandoc-3.6.4-x86_64-musl.tar.gz": tarGz(t, map[string]string{"pandoc-3.6.4/bin/pandoc": "musl"}),
	})

	env := testEnv(t)
	dir := filepath.Join(env["HOME"], "tools")
	writeUserConfig(t, env, `
		jas = {
			dir = "~/tools",
			verbose = true,
			assets = {
				["jgm/pandoc"] = platform.is_linux and "pandoc-3.6.4-x86_64-musl.tar.gz" or nil,
			},
		}
	`)

	run := runJas(t, gh.URL, env, "install", "--gh", "jgm/pandoc@3.6.4")
	require.NoError(t, run.err, run.stderr)

	got, err := os.ReadFile(filepath.Join(dir, "pandoc"))
	require.NoError(t, err)
	assert.Equal(t, "musl", string(got))
	assert.Contains(t, run.stderr, "DBG", "verbose comes from the config file")
	assert.Contains(t, run.stderr, "Loaded config from")
	assert.Contains(t, run.stderr, "Installing into "+dir, "~ in the config dir is expanded")
}

func TestInstall_FlagsBeatConfig(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.files["/dl/tool"] = []byte("raw")

	env := testEnv(t)
	writeUserConfig(t, env, `jas = { dir = "~/from-config", verbose = true }`)

	dir := t.TempDir()
	run := runJas(t, gh.URL, env, "install", "--url", gh.URL+"/dl/tool", "--dir", dir, "--verbose=false")
	require.NoError(t, run.err, run.stderr)
	assert.FileExists(t, filepath.Join(dir, "tool"))
	assert.NoDirExists(t, filepath.Join(env["HOME"], "from-config"))
	assert.NotContains(t, run.stderr, "DBG")
}

func TestInstall_MismatchedNamesMakeNoRequests(t *testing.T) {
	gh := newFakeGitHub(t)

	for _, source := range [][]string{
		{"--gh", "o/tool@v1"},
		{"--url", gh.URL + "/dl/tool.tar.gz"},
	} {
		args := append([]string{"install"}, source...)
		args = append(args, "--archive-filename", "a,b", "--binary-filename", "x", "--dir", t.TempDir())

		run := runJas(t, gh.URL, testEnv(t), args...)
		require.ErrorIs(t, run.err, binary.ErrConfiguration)
	}
	assert.Zero(t, gh.requests.Load())
}

func TestInstall_IntegrityMismatch(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.files["/dl/tool"] = []byte("tampered")

	dir := filepath.Join(t.TempDir(), "bin")
	run := runJas(t, gh.URL, testEnv(t), "install",
		"--url", gh.URL+"/dl/tool",
		"--sha", sha256Hex([]byte("original")),
		"--dir", dir,
	)
	require.ErrorIs(t, run.err, binary.ErrIntegrityMismatch)
	assert.NoDirExists(t, dir)
	assert.Empty(t, run.stdout)
}

func TestInstall_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no_source", []string{"install"}},
		{"both_sources", []string{"install", "--gh", "o/r", "--url", "https://example.com/x"}},
		{"both_keys", []string{"install", "--url", "https://example.com/x", "--sig", "x.sig", "--pgp-key", "k", "--minisign-key", "m"}},
		{"positional_args", []string{"install", "extra"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := runJas(t, "http://127.0.0.1:1", testEnv(t), tt.args...)
			require.Error(t, run.err)
		})
	}
}

func TestInstall_OptionErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad_repo", []string{"install", "--gh", "typos"}},
		{"bad_digest", []string{"install", "--url", "https://example.com/x", "--sha", "abc"}},
		{"asset_name_without_gh", []string{"install", "--url", "https://example.com/x", "--asset-name", "x"}},
		{"key_without_sig", []string{"install", "--url", "https://example.com/x", "--pgp-key", "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := runJas(t, "http://127.0.0.1:1", testEnv(t), tt.args...)
			require.ErrorIs(t, run.err, binary.ErrConfiguration)
		})
	}
}

func TestInstall_UnknownRelease(t *testing.T) {
	gh := newFakeGitHub(t)
	run := runJas(t, gh.URL, testEnv(t), "install", "--gh", "o/missing@v1", "--dir", t.TempDir())
	require.ErrorIs(t, run.err, binary.ErrAssetNotFound)
}
