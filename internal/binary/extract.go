package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/ulikunitz/xz"
)

// Format is an archive format inferred from a file name.
type Format int

const (
	// FormatRaw is a single executable, not an archive.
	FormatRaw Format = iota
	FormatTarGz
	FormatTarXz
	FormatZip
)

func (f Format) String() string {
	switch f {
	case FormatTarGz:
		return "tar.gz"
	case FormatTarXz:
		return "tar.xz"
	case FormatZip:
		return "zip"
	default:
		return "raw"
	}
}

// formatSuffixes is checked in order; the first matching suffix wins.
var formatSuffixes = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".zip", FormatZip},
}

// DetectFormat infers the archive format from name's suffix.
func DetectFormat(name string) Format {
	lower := strings.ToLower(name)
	for _, s := range formatSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.format
		}
	}
	return FormatRaw
}

// TrimArchiveSuffix strips the recognised archive suffix from name.
func TrimArchiveSuffix(name string) string {
	lower := strings.ToLower(name)
	for _, s := range formatSuffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return name[:len(name)-len(s.suffix)]
		}
	}
	return name
}

// Extractor unpacks archive payloads.
type Extractor struct {
	log zerolog.Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(log zerolog.Logger) *Extractor {
	return &Extractor{log: log}
}

// ExtractionDir returns where payload name is unpacked under parentDir.
func ExtractionDir(parentDir, name string) string {
	return filepath.Join(parentDir, TrimArchiveSuffix(filepath.Base(name)))
}

// Extract unpacks payload into ExtractionDir(parentDir, payload.Name) and
// returns that directory. Whatever was at that path before is removed first.
func (e *Extractor) Extract(payload *Payload, parentDir string) (string, error) {
	format := DetectFormat(payload.Name)
	if format == FormatRaw {
		return "", fmt.Errorf("%w: %s is not a recognised archive", ErrArchiveFormat, payload.Name)
	}

	dir := ExtractionDir(parentDir, payload.Name)
	if err := resetDir(dir); err != nil {
		return "", err
	}
	e.log.Debug().Str("archive", payload.Name).Str("format", format.String()).Str("dir", dir).Msg("Extracting")

	var err error
	switch format {
	case FormatTarGz:
		err = e.extractTarGz(payload.Data, dir)
	case FormatTarXz:
		err = e.extractTarXz(payload.Data, dir)
	case FormatZip:
		err = e.extractZip(payload.Data, dir)
	}
	if err != nil {
		return "", err
	}
	return dir, nil
}

// resetDir removes path, whatever it is, and creates an empty directory.
func resetDir(path string) error {
	if _, err := os.Lstat(path); err == nil {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("%w: remove stale %s: %v", ErrFilesystem, path, err)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFilesystem, path, err)
	}
	return nil
}

func (e *Extractor) extractTarGz(data []byte, dest string) error {
	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: gzip: %v", ErrArchiveFormat, err)
	}
	defer gzipReader.Close()
	return e.extractTar(gzipReader, dest)
}

func (e *Extractor) extractTarXz(data []byte, dest string) error {
	xzReader, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: xz: %v", ErrArchiveFormat, err)
	}
	return e.extractTar(xzReader, dest)
}

func (e *Extractor) extractTar(r io.Reader, dest string) error {
	tarReader := tar.NewReader(r)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read tar header: %v", ErrArchiveFormat, err)
		}

		target, err := sanitizePath(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: create directory %s: %v", ErrFilesystem, target, err)
			}

		case tar.TypeReg:
			if err := writeFile(target, tarReader, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := checkLinkTarget(dest, target, header.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("%w: create parent dir for %s: %v", ErrFilesystem, target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("%w: create symlink %s: %v", ErrFilesystem, target, err)
			}

		default:
			// Devices, fifos and hard links are never executables we install.
			e.log.Debug().Str("entry", header.Name).Msg("Skipping unsupported tar entry")
		}
	}
}

func (e *Extractor) extractZip(data []byte, dest string) error {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: zip: %v", ErrArchiveFormat, err)
	}

	for _, f := range zipReader.File {
		target, err := sanitizePath(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: create directory %s: %v", ErrFilesystem, target, err)
			}
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrArchiveFormat, f.Name, err)
		}
		perm := f.Mode().Perm()
		if perm == 0 {
			perm = 0o644
		}
		err = writeFile(target, rc, perm)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// writeFile creates target with perm and copies r into it.
func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: create parent dir for %s: %v", ErrFilesystem, target, err)
	}

	outFile, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("%w: create file %s: %v", ErrFilesystem, target, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		// A short read inside the archive stream means the archive is corrupt.
		return fmt.Errorf("%w: write file %s: %v", ErrArchiveFormat, target, err)
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("%w: close file %s: %v", ErrFilesystem, target, err)
	}
	return nil
}

// sanitizePath joins name onto dest and rejects entries that would land
// outside dest.
func sanitizePath(dest, name string) (string, error) {
	cleaned := filepath.FromSlash(name)
	if filepath.IsAbs(cleaned) || !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("%w: illegal file path in archive: %s", ErrArchiveFormat, name)
	}
	return filepath.Join(dest, cleaned), nil
}

// checkLinkTarget rejects symlinks that resolve outside dest.
func checkLinkTarget(dest, link, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: absolute symlink %s -> %s", ErrArchiveFormat, link, linkname)
	}
	resolved := filepath.Join(filepath.Dir(link), filepath.FromSlash(linkname))
	rel, err := filepath.Rel(dest, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("%w: symlink %s escapes the extraction directory", ErrArchiveFormat, link)
	}
	return nil
}
