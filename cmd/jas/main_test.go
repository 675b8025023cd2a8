package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
	"github.com/ZebulonRouseFrantzich/jas/internal/testutil"
)

// fakeGitHub serves release metadata under /repos and files under /dl.
type fakeGitHub struct {
	*httptest.Server
	files    map[string][]byte
	releases map[string]string
	requests atomic.Int32
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()

	g := &fakeGitHub{files: map[string][]byte{}, releases: map[string]string{}}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		if body, ok := g.releases[r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
			return
		}
		if body, ok := g.files[r.URL.Path]; ok {
			_, _ = w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(g.Close)
	return g
}

// addRelease registers a release whose assets are all served by g.
func (g *fakeGitHub) addRelease(path string, assets map[string][]byte) {
	var parts []string
	for name, body := range assets {
		g.files["/dl/"+name] = body
		parts = append(parts, fmt.Sprintf(`{"name":%q,"browser_download_url":%q}`, name, g.URL+"/dl/"+name))
	}
	g.releases[path] = `{"tag_name":"v1","assets":[` + strings.Join(parts, ",") + `]}`
}

func tarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o755,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type jasRun struct {
	stdout string
	stderr string
	err    error
}

var linuxX86 = platform.StaticDetector{Info: &platform.Info{
	Fingerprint: platform.Fingerprint{OS: platform.Linux, Arch: platform.X86_64},
	GOOS:        "linux",
	GOARCH:      "amd64",
}}

// runJas executes the CLI on linux/x86_64 with env as the whole environment.
func runJas(t *testing.T, apiURL string, env map[string]string, args ...string) jasRun {
	t.Helper()
	return runJasOn(t, linuxX86, apiURL, env, args...)
}

func runJasOn(t *testing.T, detector platform.Detector, apiURL string, env map[string]string, args ...string) jasRun {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(rootOptions{
		Version: "v-test",
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		Stdout: &stdout,
		Stderr: &stderr,
		Detector:   detector,
		APIBaseURL: apiURL,
	})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return jasRun{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// testEnv isolates the process environment and returns the same values as
// the environment the CLI sees.
func testEnv(t *testing.T) map[string]string {
	t.Helper()
	env := testutil.SetupTestEnv(t)
	return map[string]string{
		"HOME":            env.Home,
		"XDG_CONFIG_HOME": env.ConfigDir,
		"PATH":            "/usr/bin",
		"SHELL":           "/bin/bash",
	}
}

func writeUserConfig(t *testing.T, env map[string]string, content string) {
	t.Helper()
	path := filepath.Join(env["XDG_CONFIG_HOME"], "jas", "config.lua")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
