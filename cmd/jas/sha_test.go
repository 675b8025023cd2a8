package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/jas/internal/binary"
)

const abcDigest = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

func TestSha_Path(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env["HOME"], "abc.txt"), []byte("abc"), 0o644))

	run := runJas(t, "", env, "sha", "--path", "~/abc.txt")
	require.NoError(t, run.err, run.stderr)
	assert.Equal(t, abcDigest+"\n", run.stdout)
}

func TestSha_PathMissing(t *testing.T) {
	run := runJas(t, "", testEnv(t), "sha", "--path", filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, run.err, binary.ErrFilesystem)
	assert.Empty(t, run.stdout)
}

func TestSha_URL(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.files["/dl/abc"] = []byte("abc")

	run := runJas(t, "", testEnv(t), "sha", "--url", gh.URL+"/dl/abc")
	require.NoError(t, run.err, run.stderr)
	assert.Equal(t, abcDigest+"\n", run.stdout)
}

func TestSha_GitHubRelease(t *testing.T) {
	gh := newFakeGitHub(t)
	gh.addRelease("/repos/crate-ci/typos/releases/tags/v1", map[string][]byte{
		"typos-x86_64-unknown-linux-musl.tar.gz": []byte("abc"),
		"typos-aarch64-apple-darwin.tar.gz":      []byte("other"),
	})

	run := runJas(t, gh.URL, testEnv(t), "sha", "--gh", "crate-ci/typos@v1")
	require.NoError(t, run.err, run.stderr)
	assert.Equal(t, abcDigest+"\n", run.stdout)
	assert.Contains(t, run.stderr, "Hashing typos-x86_64-unknown-linux-musl.tar.gz")

	run = runJas(t, gh.URL, testEnv(t), "sha", "--gh", "crate-ci/typos@v1", "--asset-name", "typos-aarch64-apple-darwin.tar.gz")
	require.NoError(t, run.err, run.stderr)
	assert.Equal(t, binary.HashBytes([]byte("other"))+"\n", run.stdout)
}

func TestSha_FlagErrors(t *testing.T) {
	for _, args := range [][]string{
		{"sha"},
		{"sha", "--path", "a", "--url", "b"},
	} {
		run := runJas(t, "", testEnv(t), args...)
		require.Error(t, run.err, args)
	}
}
