package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a detector for the running process.
func NewDetector() Detector {
	return &RealDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Detect builds the fingerprint from runtime.GOOS and runtime.GOARCH and, on
// Linux, adds distribution details from gopsutil.
//
// An unsupported OS or architecture is a hard failure. Distribution detection
// failing is not: the fingerprint alone is enough to install anything.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	fp, err := NewFingerprint(d.goos, d.goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		Fingerprint: fp,
		GOOS:        d.goos,
		GOARCH:      d.goarch,
	}

	if fp.OS != Linux {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}

	return info, nil
}

// StaticDetector returns a fixed Info. It lets callers that already know the
// fingerprint (tests, --os/--arch overrides) skip real detection.
type StaticDetector struct {
	Info *Info
}

// Detect returns the configured info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if s.Info == nil {
		return nil, fmt.Errorf("platform detection failed: %w: no platform configured", ErrUnsupportedPlatform)
	}
	return s.Info, nil
}
