package binary

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
	"github.com/ZebulonRouseFrantzich/jas/internal/shell"
)

// Installer places executables into the install directory.
type Installer struct {
	dir string
	fp  platform.Fingerprint
	env Environment
	log zerolog.Logger

	// chmod is os.Chmod outside tests.
	chmod func(string, os.FileMode) error
}

// NewInstaller creates an installer for dir.
func NewInstaller(dir string, fp platform.Fingerprint, env Environment, log zerolog.Logger) *Installer {
	return &Installer{dir: dir, fp: fp, env: env, log: log, chmod: os.Chmod}
}

// Place copies src to <dir>/<name> and marks it executable.
func (i *Installer) Place(src, name string) (InstalledFile, error) {
	f, err := os.Open(src)
	if err != nil {
		return InstalledFile{}, fmt.Errorf("%w: open %s: %v", ErrFilesystem, src, err)
	}
	defer f.Close()

	dst, err := i.write(f, name)
	if err != nil {
		return InstalledFile{}, err
	}
	return InstalledFile{Source: src, Destination: dst}, nil
}

// PlaceBytes writes a raw download to <dir>/<name>, adding .exe on Windows
// when name has no extension.
func (i *Installer) PlaceBytes(payload *Payload, name string) (InstalledFile, error) {
	return i.PlaceData(payload.Data, payload.Name, ExecutableName(name, i.fp))
}

// PlaceData writes data to <dir>/<name> as is; source is only recorded.
func (i *Installer) PlaceData(data []byte, source, name string) (InstalledFile, error) {
	dst, err := i.write(bytes.NewReader(data), name)
	if err != nil {
		return InstalledFile{}, err
	}
	return InstalledFile{Source: source, Destination: dst}, nil
}

// write copies r to a temp file in the install directory and renames it
// into place, so a failed copy never leaves a truncated executable.
func (i *Installer) write(r io.Reader, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: invalid output filename %q", ErrConfiguration, name)
	}
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create install dir %s: %v", ErrFilesystem, i.dir, err)
	}

	dst := filepath.Join(i.dir, name)
	tmp, err := os.CreateTemp(i.dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file in %s: %v", ErrFilesystem, i.dir, err)
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrFilesystem, dst, err)
	}
	// CreateTemp uses 0600.
	if err := tmp.Chmod(0o644); err != nil {
		return "", fmt.Errorf("%w: chmod %s: %v", ErrFilesystem, dst, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %v", ErrFilesystem, dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("%w: rename into %s: %v", ErrFilesystem, dst, err)
	}
	cleanupNeeded = false

	i.SetExecutable(dst)
	i.log.Info().Msgf("Placed binary at %s", dst)
	return dst, nil
}

// SetExecutable adds the execute bits for owner, group and other. Failure is
// logged, not returned; on Windows it only logs.
func (i *Installer) SetExecutable(path string) {
	if i.fp.IsWindows() {
		i.log.Warn().Msgf("Executable permission bits are not supported on %s; skipping for %s", i.fp.OS, path)
		return
	}

	info, err := os.Stat(path)
	if err == nil {
		err = i.chmod(path, info.Mode().Perm()|0o111)
	}
	if err != nil {
		i.log.Warn().Err(err).Msgf("Failed to set executable permissions. Please set them manually:\nchmod +x %s", path)
	}
}

// CheckOnPath reports whether the install directory is an entry of PATH and
// logs a hint when it is not.
func (i *Installer) CheckOnPath() bool {
	i.log.Debug().Msgf("Verifying whether %s is in PATH", i.dir)

	sep := ":"
	if i.fp.IsWindows() {
		sep = ";"
	}
	want := filepath.Clean(i.dir)
	for _, p := range strings.Split(i.env.Path, sep) {
		if p == "" {
			continue
		}
		if filepath.Clean(p) == want {
			i.log.Debug().Msgf("Found %s in PATH", i.dir)
			return true
		}
	}

	i.log.Warn().Msgf("Could not find %s in PATH, you may need to add it to your PATH manually", i.dir)

	kind := shell.DetectShell(i.env.Shell)
	hint := shell.PathHint(kind, i.dir)
	if hint == "" {
		return false
	}
	if rc, err := shell.GetRCFilePath(kind, i.env.Home); err == nil {
		if present, err := shell.HasPathEntry(rc, i.dir); err == nil && present {
			i.log.Warn().Msgf("%s already adds it; restart your shell to pick it up", shell.RCFile(kind))
			return false
		}
	}
	i.log.Warn().Msgf("For %s, add this line to %s:\n  %s", kind, shell.RCFile(kind), hint)
	return false
}
