// Package testutil provides utilities for testing jas in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env describes the isolated environment set up by SetupTestEnv.
type Env struct {
	Home      string
	ConfigDir string // $XDG_CONFIG_HOME
	BinDir    string // empty install directory, not on PATH
}

// SetupTestEnv points HOME, XDG_CONFIG_HOME, PATH, SHELL and GITHUB_TOKEN at
// throwaway values so tests never read the user's config or install into
// their bin directories. Everything is restored when t finishes.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := Env{
		Home:      filepath.Join(tmpDir, "home"),
		ConfigDir: filepath.Join(tmpDir, "config"),
		BinDir:    filepath.Join(tmpDir, "bin"),
	}

	t.Setenv("HOME", env.Home)
	t.Setenv("USERPROFILE", env.Home)
	t.Setenv("XDG_CONFIG_HOME", env.ConfigDir)
	t.Setenv("PATH", filepath.Join(tmpDir, "path"))
	t.Setenv("SHELL", "/bin/bash")
	t.Setenv("GITHUB_TOKEN", "")

	for _, dir := range []string{env.Home, env.ConfigDir, env.BinDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}

	return env
}
