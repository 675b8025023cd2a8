// Package platform identifies the machine jas installs onto.
//
// The core value is a Fingerprint, the {OS, CPU architecture} pair that the
// asset matcher and the installer branch on. It is built once per run from
// runtime facts (or injected by tests) and never changes afterwards. The
// Detector adds Linux distribution details from gopsutil, which are only used
// for diagnostics and exposed to the Lua configuration.
package platform

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned when the OS or architecture has no
// supported mapping.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OS is a supported operating system.
type OS int

const (
	Linux OS = iota + 1
	MacOS
	Windows
)

// String returns the lower-case name used in logs and the Lua table.
func (o OS) String() string {
	switch o {
	case Linux:
		return "linux"
	case MacOS:
		return "macos"
	case Windows:
		return "windows"
	default:
		return "unknown"
	}
}

// Arch is a supported CPU architecture.
type Arch int

const (
	X86_64 Arch = iota + 1
	Aarch64
	Arm
)

// String returns the lower-case name used in logs and the Lua table.
func (a Arch) String() string {
	switch a {
	case X86_64:
		return "x86_64"
	case Aarch64:
		return "aarch64"
	case Arm:
		return "arm"
	default:
		return "unknown"
	}
}

// Fingerprint is the {OS, Arch} pair of the machine being installed onto.
type Fingerprint struct {
	OS   OS
	Arch Arch
}

func (f Fingerprint) String() string {
	return f.OS.String() + "/" + f.Arch.String()
}

// IsWindows reports whether executables need the .exe convention.
func (f Fingerprint) IsWindows() bool {
	return f.OS == Windows
}

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	Fingerprint Fingerprint
	GOOS        string // runtime.GOOS as reported
	GOARCH      string // runtime.GOARCH as reported
	Platform    string // distro ID (Linux only, e.g., "ubuntu", "alpine")
	Family      string // canonical family (e.g., "debian", "rhel")
	Version     string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.Fingerprint.OS != Linux || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsMusl reports whether the distribution is known to ship musl libc.
// Useful in configs that pick between -gnu and -musl assets.
func (i *Info) IsMusl() bool {
	return i.Fingerprint.OS == Linux && i.Family == FamilyAlpine
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
