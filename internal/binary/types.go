package binary

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAssetNotFound is returned when no release asset fits the request.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrTransport covers network failures, timeouts after retries and
	// oversized payloads.
	ErrTransport = errors.New("transport error")
	// ErrIntegrityMismatch is returned when a digest or signature check fails.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	// ErrArchiveFormat is returned for corrupt or unreadable archives.
	ErrArchiveFormat = errors.New("archive format error")
	// ErrExecutableNotFound is returned when the locator finds no candidate.
	ErrExecutableNotFound = errors.New("executable not found")
	// ErrConfiguration is returned for invalid requests, before any I/O.
	ErrConfiguration = errors.New("configuration error")
	// ErrFilesystem covers permission, missing directory and copy failures.
	ErrFilesystem = errors.New("filesystem error")
)

// ChecksumMismatchError reports a SHA-256 mismatch for a downloaded file.
type ChecksumMismatchError struct {
	File     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.File, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrIntegrityMismatch) hold.
func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrIntegrityMismatch
}

// NotFoundError lists what was wanted and what was available.
type NotFoundError struct {
	Kind      string // "asset" or "executable"
	Wanted    string
	Available []string
	Err       error
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("%v: no %s matching %q (available: %s)", e.Err, e.Kind, e.Wanted, available)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name string
	URL  string
}

// Payload is a downloaded buffer plus the file name its format is inferred
// from. It is never mutated after download.
type Payload struct {
	Name string
	Data []byte
}

// Entry is a file or directory inside an extraction directory. Path is
// relative to the extraction directory and slash separated.
type Entry struct {
	Path  string
	IsDir bool
}

// Base returns the last path element.
func (e Entry) Base() string {
	if i := strings.LastIndex(e.Path, "/"); i >= 0 {
		return e.Path[i+1:]
	}
	return e.Path
}

// ExecutableRequest describes which file(s) to take from an archive.
//
// With no ArchiveFiles the locator guesses using Target. OutputNames, when
// set, renames the located files and must parallel ArchiveFiles.
type ExecutableRequest struct {
	Target       string
	ArchiveFiles []string
	OutputNames  []string
}

// Validate enforces the list length invariant.
func (r ExecutableRequest) Validate() error {
	if len(r.ArchiveFiles) > 0 && len(r.OutputNames) > 0 && len(r.ArchiveFiles) != len(r.OutputNames) {
		return fmt.Errorf("%w: %d archive filenames but %d output filenames; the lists must have the same length",
			ErrConfiguration, len(r.ArchiveFiles), len(r.OutputNames))
	}
	if len(r.ArchiveFiles) == 0 && len(r.OutputNames) > 1 {
		return fmt.Errorf("%w: %d output filenames given without archive filenames",
			ErrConfiguration, len(r.OutputNames))
	}
	if len(r.ArchiveFiles) == 0 && r.Target == "" {
		return fmt.Errorf("%w: no executable name to look for", ErrConfiguration)
	}
	return nil
}

// InstalledFile is one placed executable.
type InstalledFile struct {
	Source      string
	Destination string
}

// Environment carries the process environment the pipeline depends on. It
// is read once at the CLI boundary.
type Environment struct {
	Home  string
	Path  string
	Shell string
}

// Request is one install invocation.
type Request struct {
	// URL downloads directly, bypassing asset matching.
	URL string
	// Assets are the release assets to choose from when URL is empty.
	Assets []Asset
	// AssetName selects an asset by exact name instead of guessing.
	AssetName string
	// SHA256 is the optional expected hex digest of the download.
	SHA256 string
	// Signature optionally verifies a detached signature over the download.
	Signature SignatureOptions

	Target       string
	ArchiveFiles []string
	OutputNames  []string
}

// Executables returns the locator part of the request.
func (r Request) Executables() ExecutableRequest {
	return ExecutableRequest{
		Target:       r.Target,
		ArchiveFiles: r.ArchiveFiles,
		OutputNames:  r.OutputNames,
	}
}

// Validate checks everything that can be checked without I/O.
func (r Request) Validate() error {
	if r.URL == "" && len(r.Assets) == 0 {
		return fmt.Errorf("%w: either a URL or a list of release assets is required", ErrConfiguration)
	}
	if r.URL != "" && len(r.Assets) > 0 {
		return fmt.Errorf("%w: a URL and a list of release assets are mutually exclusive", ErrConfiguration)
	}
	return r.ValidateOptions()
}

// ValidateOptions checks everything except the download source, so callers
// can reject bad options before looking up release assets.
func (r Request) ValidateOptions() error {
	if err := ValidateDigest(r.SHA256); err != nil {
		return err
	}
	if err := r.Signature.Validate(); err != nil {
		return err
	}
	return r.Executables().Validate()
}

// ValidateDigest accepts an empty string or 64 hex characters.
func ValidateDigest(digest string) error {
	if digest == "" {
		return nil
	}
	if len(digest) != 64 {
		return fmt.Errorf("%w: SHA-256 digest %q must be 64 hex characters, got %d",
			ErrConfiguration, digest, len(digest))
	}
	if _, err := hex.DecodeString(digest); err != nil {
		return fmt.Errorf("%w: SHA-256 digest %q is not hex", ErrConfiguration, digest)
	}
	return nil
}

// InstallResult describes a completed install.
type InstallResult struct {
	URL       string
	AssetName string
	Files     []InstalledFile
	// Verified lists the checks that passed, e.g. "sha256", "pgp".
	Verified []string
	// OnPath is false when the install directory is not on PATH.
	OnPath bool
}
