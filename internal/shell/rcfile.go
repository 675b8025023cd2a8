package shell

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RCFile returns the rc file of shell as shown to the user, or "" when the
// shell is not supported.
func RCFile(shell ShellType) string {
	switch shell {
	case ShellBash:
		return "~/.bashrc"
	case ShellZsh:
		return "~/.zshrc"
	case ShellFish:
		return "~/.config/fish/config.fish"
	default:
		return ""
	}
}

// GetRCFilePath returns the path to the shell's RC file under home
func GetRCFilePath(shell ShellType, home string) (string, error) {
	if err := ValidateShell(shell); err != nil {
		return "", err
	}
	if home == "" {
		return "", fmt.Errorf("home directory is not set")
	}

	switch shell {
	case ShellBash:
		return filepath.Join(home, ".bashrc"), nil
	case ShellZsh:
		return filepath.Join(home, ".zshrc"), nil
	default:
		return filepath.Join(home, ".config", "fish", "config.fish"), nil
	}
}

// PathHint returns the line that puts dir on PATH for shell, or "" for
// unsupported shells.
func PathHint(shell ShellType, dir string) string {
	switch shell {
	case ShellBash, ShellZsh:
		return fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
	case ShellFish:
		return fmt.Sprintf("fish_add_path %s", dir)
	default:
		return ""
	}
}

// HasPathEntry reports whether the rc file at rcPath already mentions dir on
// a line that modifies PATH. A missing file is not an error.
func HasPathEntry(rcPath, dir string) (bool, error) {
	file, err := os.Open(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, &RCFileError{
			Path:    rcPath,
			Message: "failed to open file",
			Cause:   err,
		}
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "PATH") && !strings.Contains(line, "fish_add_path") {
			continue
		}
		if strings.Contains(line, dir) {
			return true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return false, &RCFileError{
			Path:    rcPath,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	return false, nil
}
