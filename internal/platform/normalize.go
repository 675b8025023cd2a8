package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// This is used to normalize variations of family strings from gopsutil.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// NewFingerprint maps Go's GOOS/GOARCH spelling (or the uname spelling of the
// architecture) onto a Fingerprint.
func NewFingerprint(goos, goarch string) (Fingerprint, error) {
	osName, err := normalizeOS(goos)
	if err != nil {
		return Fingerprint{}, err
	}
	arch, err := normalizeArch(goarch)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{OS: osName, Arch: arch}, nil
}

// Current returns the fingerprint of the running binary.
func Current() (Fingerprint, error) {
	return NewFingerprint(runtime.GOOS, runtime.GOARCH)
}

func normalizeOS(goos string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "linux":
		return Linux, nil
	case "darwin", "macos":
		return MacOS, nil
	case "windows":
		return Windows, nil
	default:
		return 0, fmt.Errorf("%w: operating system %q", ErrUnsupportedPlatform, goos)
	}
}

// normalizeArch converts GOARCH values to supported architectures.
func normalizeArch(arch string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x86_64":
		return X86_64, nil
	case "arm64", "aarch64":
		return Aarch64, nil
	case "arm":
		return Arm, nil
	default:
		return 0, fmt.Errorf("%w: architecture %q", ErrUnsupportedPlatform, arch)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
