package binary

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/jas/internal/platform"
)

// assetRule maps a fingerprint to the predicates that recognise its assets.
// Predicates are tried in order over the whole candidate list; the first
// predicate with any match decides.
type assetRule struct {
	os      platform.OS
	arch    platform.Arch
	matches []func(name string) bool
}

// assetRules is ordered. Each name is lower-cased before matching.
var assetRules = []assetRule{
	{platform.Linux, platform.X86_64, []func(string) bool{
		func(n string) bool { return strings.Contains(n, "linux") && isX86_64(n) },
	}},
	{platform.MacOS, platform.X86_64, []func(string) bool{
		func(n string) bool { return isMacOS(n) && isX86_64(n) },
	}},
	{platform.MacOS, platform.Aarch64, []func(string) bool{
		func(n string) bool { return isMacOS(n) && isAarch64(n) },
	}},
	{platform.Linux, platform.Aarch64, []func(string) bool{
		func(n string) bool { return strings.Contains(n, "linux") && isAarch64(n) },
	}},
	// 32-bit names (armv7, armhf, arm-) first. Releases that only ship arm64
	// still satisfy the looser second predicate.
	{platform.Linux, platform.Arm, []func(string) bool{
		func(n string) bool { return strings.Contains(n, "linux") && isArm32(n) },
		func(n string) bool { return strings.Contains(n, "linux") && strings.Contains(n, "arm") },
	}},
	{platform.Windows, platform.X86_64, []func(string) bool{
		func(n string) bool { return strings.Contains(n, "windows") && isX86_64(n) },
	}},
}

func isX86_64(n string) bool  { return strings.Contains(n, "x86_64") || strings.Contains(n, "amd64") }
func isAarch64(n string) bool { return strings.Contains(n, "aarch64") || strings.Contains(n, "arm64") }
func isMacOS(n string) bool   { return strings.Contains(n, "macos") || strings.Contains(n, "darwin") }

// isArm32 reports whether n has an "arm" token not followed by "64".
func isArm32(n string) bool {
	for i := 0; ; {
		j := strings.Index(n[i:], "arm")
		if j < 0 {
			return false
		}
		rest := n[i+j+3:]
		if !strings.HasPrefix(rest, "64") {
			return true
		}
		i += j + 3
	}
}

// MatchAsset returns the index of the asset to download for fp.
//
// An override must match one name exactly. Otherwise macOS .pkg installers are
// skipped and the first name satisfying the platform rule wins.
func MatchAsset(names []string, fp platform.Fingerprint, override string) (int, error) {
	if len(names) == 0 {
		return -1, fmt.Errorf("%w: release has no assets", ErrAssetNotFound)
	}

	if override != "" {
		for i, name := range names {
			if name == override {
				return i, nil
			}
		}
		return -1, &NotFoundError{Kind: "asset", Wanted: override, Available: names, Err: ErrAssetNotFound}
	}

	rule, ok := lookupRule(fp)
	if !ok {
		return -1, fmt.Errorf("%w: no asset rule for %s", platform.ErrUnsupportedPlatform, fp)
	}

	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}

	for _, match := range rule.matches {
		for i, name := range lowered {
			if strings.HasSuffix(name, ".pkg") {
				continue
			}
			if match(name) {
				return i, nil
			}
		}
	}

	return -1, &NotFoundError{Kind: "asset", Wanted: "an asset for " + fp.String(), Available: names, Err: ErrAssetNotFound}
}

func lookupRule(fp platform.Fingerprint) (assetRule, bool) {
	for _, r := range assetRules {
		if r.os == fp.OS && r.arch == fp.Arch {
			return r, true
		}
	}
	return assetRule{}, false
}

// SelectAsset runs MatchAsset over assets and returns the chosen one.
func SelectAsset(assets []Asset, fp platform.Fingerprint, override string) (Asset, error) {
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	i, err := MatchAsset(names, fp, override)
	if err != nil {
		return Asset{}, err
	}
	return assets[i], nil
}
