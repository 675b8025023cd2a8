package config

import (
	"fmt"
	"sort"
	"strings"
)

// Config is the parsed jas table. Pointer fields are nil when the file does
// not set them, so command-line flags and defaults can fill the gaps.
type Config struct {
	// Dir is the install directory; may start with ~/.
	Dir string

	Verbose *bool
	ANSI    *bool

	// Assets maps "owner/repo" to the release asset to install on this
	// machine, bypassing platform matching.
	Assets map[string]string
}

// AssetFor returns the configured asset name for repo, or "".
func (c *Config) AssetFor(repo string) string {
	if c == nil {
		return ""
	}
	return c.Assets[repo]
}

// Validate checks the extracted values.
func (c *Config) Validate() error {
	if strings.ContainsRune(c.Dir, 0) {
		return &ValidationError{Field: luaFieldDir, Message: "contains a NUL byte"}
	}

	if len(c.Assets) > MaxAssetOverrides {
		return &ValidationError{
			Field:   luaFieldAssets,
			Message: fmt.Sprintf("too many entries (%d), maximum is %d", len(c.Assets), MaxAssetOverrides),
		}
	}

	repos := make([]string, 0, len(c.Assets))
	for repo := range c.Assets {
		repos = append(repos, repo)
	}
	sort.Strings(repos)

	for _, repo := range repos {
		if err := validateRepoKey(repo); err != nil {
			return &ValidationError{Field: fmt.Sprintf("assets[%q]", repo), Message: err.Error()}
		}
		if name := c.Assets[repo]; name == "" || strings.ContainsAny(name, `/\`) {
			return &ValidationError{
				Field:   fmt.Sprintf("assets[%q]", repo),
				Message: fmt.Sprintf("invalid asset name %q", name),
			}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

func validateRepoKey(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.ContainsAny(name, "/@") {
		return fmt.Errorf("expected owner/repo, got %q", repo)
	}
	return nil
}
