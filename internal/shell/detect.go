package shell

import (
	"path/filepath"
	"strings"
)

// DetectShell maps the value of $SHELL to a shell type.
func DetectShell(shellEnv string) ShellType {
	if shellEnv == "" {
		return ShellUnknown
	}
	return parseShellFromPath(shellEnv)
}

// parseShellFromPath extracts the shell type from a shell binary path
// Examples:
//   - /bin/bash -> bash
//   - /usr/bin/zsh -> zsh
//   - /usr/local/bin/fish -> fish
func parseShellFromPath(shellPath string) ShellType {
	// Both separators, so Windows-style paths in $SHELL (MSYS, Git Bash) work.
	shellPath = strings.ReplaceAll(shellPath, `\`, "/")
	baseName := strings.ToLower(filepath.Base(shellPath))
	baseName = strings.TrimSuffix(baseName, ".exe")

	switch baseName {
	case "bash":
		return ShellBash
	case "zsh":
		return ShellZsh
	case "fish":
		return ShellFish
	default:
		return ShellUnknown
	}
}

// ValidateShell validates that a shell type is supported
func ValidateShell(shell ShellType) error {
	if !shell.IsValid() {
		return &UnsupportedShellError{Shell: shell.String()}
	}
	return nil
}

// GetSupportedShells returns a list of supported shells
func GetSupportedShells() []ShellType {
	return []ShellType{ShellBash, ShellZsh, ShellFish}
}
