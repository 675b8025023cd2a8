package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
)

func staticDetector(o platform.OS, arch platform.Arch) platform.Detector {
	return platform.StaticDetector{Info: &platform.Info{
		Fingerprint: platform.Fingerprint{OS: o, Arch: arch},
	}}
}

type failingDetector struct{}

func (failingDetector) Detect(context.Context) (*platform.Info, error) {
	return nil, errors.New("boom")
}

func TestParser_ParseString_Minimal(t *testing.T) {
	cfg, err := NewParser(nil).ParseString(context.Background(), `jas = {}`)
	require.NoError(t, err)
	assert.Empty(t, cfg.Dir)
	assert.Nil(t, cfg.Verbose)
	assert.Nil(t, cfg.ANSI)
	assert.Empty(t, cfg.Assets)
}

func TestParser_ParseString_Full(t *testing.T) {
	luaCode := `
		jas = {
			dir = "~/.local/bin",
			verbose = true,
			ansi = false,
			assets = {
				["crate-ci/typos"] = "typos-v1.31.1-x86_64-unknown-linux-musl.tar.gz",
				["jgm/pandoc"] = "pandoc-3.6.4-linux-amd64.tar.gz",
			},
		}
	`

	cfg, err := NewParser(nil).ParseString(context.Background(), luaCode)
	require.NoError(t, err)

	assert.Equal(t, "~/.local/bin", cfg.Dir)
	require.NotNil(t, cfg.Verbose)
	assert.True(t, *cfg.Verbose)
	require.NotNil(t, cfg.ANSI)
	assert.False(t, *cfg.ANSI)
	assert.Equal(t, "pandoc-3.6.4-linux-amd64.tar.gz", cfg.AssetFor("jgm/pandoc"))
	assert.Empty(t, cfg.AssetFor("casey/just"))
}

func TestParser_ParseString_PlatformConditionals(t *testing.T) {
	luaCode := `
		jas = {
			dir = platform.is_windows and "~/bin" or "~/.jas/bin",
			assets = {
				["jgm/pandoc"] = platform.is_arm and "pandoc-3.6.4-linux-arm64.tar.gz" or nil,
				["crate-ci/typos"] = platform.when(platform.is_linux, "typos-musl.tar.gz"),
				["casey/just"] = platform.is_macos and "just-apple.tar.gz",
			},
		}
	`

	tests := []struct {
		name       string
		detector   platform.Detector
		wantDir    string
		wantAssets map[string]string
	}{
		{
			name:     "linux_arm",
			detector: staticDetector(platform.Linux, platform.Arm),
			wantDir:  "~/.jas/bin",
			wantAssets: map[string]string{
				"jgm/pandoc":     "pandoc-3.6.4-linux-arm64.tar.gz",
				"crate-ci/typos": "typos-musl.tar.gz",
			},
		},
		{
			name:       "macos",
			detector:   staticDetector(platform.MacOS, platform.Aarch64),
			wantDir:    "~/.jas/bin",
			wantAssets: map[string]string{"casey/just": "just-apple.tar.gz"},
		},
		{
			name:       "windows",
			detector:   staticDetector(platform.Windows, platform.X86_64),
			wantDir:    "~/bin",
			wantAssets: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewParser(tt.detector).ParseString(context.Background(), luaCode)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, cfg.Dir)
			assert.Equal(t, tt.wantAssets, cfg.Assets)
		})
	}
}

func TestParser_ParseString_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{"syntax_error", `jas = {`, "Lua error"},
		{"runtime_error", `error("nope")`, "nope"},
		{"missing_table", `x = 1`, "missing or invalid 'jas' table"},
		{"jas_not_a_table", `jas = "hello"`, "expected table, got string"},
		{"dir_not_string", `jas = { dir = 42 }`, "invalid 'jas.dir'"},
		{"verbose_not_bool", `jas = { verbose = "yes" }`, "invalid 'jas.verbose'"},
		{"ansi_not_bool", `jas = { ansi = 1 }`, "invalid 'jas.ansi'"},
		{"assets_not_table", `jas = { assets = "typos" }`, "invalid 'jas.assets'"},
		{"asset_key_not_string", `jas = { assets = { "typos.tar.gz" } }`, "invalid 'jas.assets key'"},
		{"asset_value_not_string", `jas = { assets = { ["a/b"] = 3 } }`, `invalid 'jas.assets["a/b"]'`},
		{"asset_key_not_repo", `jas = { assets = { typos = "typos.tar.gz" } }`, "expected owner/repo"},
		{"asset_name_with_slash", `jas = { assets = { ["a/b"] = "dir/x.tar.gz" } }`, "invalid asset name"},
		{"platform_is_read_only", `platform.os = "windows"; jas = {}`, "read-only"},
	}

	parser := NewParser(staticDetector(platform.Linux, platform.X86_64))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseString(context.Background(), tt.code)
			require.Error(t, err)

			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParser_ParseString_DetectorFailure(t *testing.T) {
	_, err := NewParser(failingDetector{}).ParseString(context.Background(), `jas = {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "platform detection failed")
}

func TestParser_ParseString_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewParser(nil).ParseString(ctx, `while true do end`)
	require.Error(t, err)
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "config.lua")
		require.NoError(t, os.WriteFile(path, []byte(`jas = { dir = "/opt/bin" }`), 0o644))

		cfg, err := NewParser(nil).ParseFile(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "/opt/bin", cfg.Dir)
	})

	t.Run("error_names_file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.lua")
		require.NoError(t, os.WriteFile(path, []byte(`jas = {`), 0o644))

		_, err := NewParser(nil).ParseFile(context.Background(), path)
		var parseErr *ParseError
		require.ErrorAs(t, err, &parseErr)
		assert.Equal(t, path, parseErr.File)
		assert.True(t, strings.HasPrefix(err.Error(), path+": "))
	})

	t.Run("too_large", func(t *testing.T) {
		path := filepath.Join(dir, "huge.lua")
		require.NoError(t, os.WriteFile(path, make([]byte, MaxConfigSize+1), 0o644))

		_, err := NewParser(nil).ParseFile(context.Background(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config too large")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := NewParser(nil).ParseFile(context.Background(), filepath.Join(dir, "nope.lua"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot read config")
	})
}

func TestFormatError(t *testing.T) {
	err := &ParseError{
		File:    "/home/u/.config/jas/config.lua",
		Message: "Lua error",
		Detail:  "<string>:1: unexpected symbol\nstack traceback:\n\t[G]: ?",
	}

	short := FormatError(err, false)
	assert.Equal(t, "/home/u/.config/jas/config.lua: Lua error: <string>:1: unexpected symbol", short)

	long := FormatError(err, true)
	assert.Contains(t, long, "Details:")
	assert.Contains(t, long, "stack traceback")

	assert.Equal(t, "plain", FormatError(errors.New("plain"), false))
}
