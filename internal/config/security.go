package config

import (
	"fmt"
	"regexp"
	"strings"
)

// SensitivePattern represents a pattern that might indicate sensitive data
type SensitivePattern struct {
	Name        string
	Pattern     *regexp.Regexp
	Description string
}

var sensitivePatterns = []SensitivePattern{
	{
		Name:        "Token",
		Pattern:     regexp.MustCompile(`(?i)(token|auth[_-]?token|access[_-]?token|bearer)\s*=\s*['"][a-zA-Z0-9_-]{15,}['"]`),
		Description: "Potential authentication token detected",
	},
	{
		Name:        "GitHub Token",
		Pattern:     regexp.MustCompile(`(gh[opsu]_[a-zA-Z0-9]{36,}|github_pat_[a-zA-Z0-9_]{22,})`),
		Description: "Potential GitHub token detected",
	},
	{
		Name:        "Password",
		Pattern:     regexp.MustCompile(`(?i)(password|passwd|pwd)\s*=\s*['"].+['"]`),
		Description: "Potential password detected",
	},
}

// SensitiveDataFinding represents a detected sensitive data instance
type SensitiveDataFinding struct {
	PatternName string
	Description string
	Line        int
	Preview     string // Redacted preview of the match
}

// DetectSensitiveData scans configuration content for potential sensitive
// data. At most one finding is reported per line.
func DetectSensitiveData(content string) []SensitiveDataFinding {
	var findings []SensitiveDataFinding

	for lineNum, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		for _, pattern := range sensitivePatterns {
			if pattern.Pattern.MatchString(line) {
				findings = append(findings, SensitiveDataFinding{
					PatternName: pattern.Name,
					Description: pattern.Description,
					Line:        lineNum + 1,
					Preview:     redactSensitiveValue(line, pattern.Pattern),
				})
				break
			}
		}
	}

	return findings
}

// redactSensitiveValue keeps the key of an assignment and hides the rest;
// lines without one have the match itself hidden.
func redactSensitiveValue(line string, pattern *regexp.Regexp) string {
	line = strings.TrimSpace(line)
	if eqIdx := strings.Index(line, "="); eqIdx != -1 {
		return strings.TrimSpace(line[:eqIdx]) + " = [REDACTED]"
	}
	return pattern.ReplaceAllString(line, "[REDACTED]")
}

// FormatSensitiveDataWarning formats findings for the log.
func FormatSensitiveDataWarning(path string, findings []SensitiveDataFinding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Potential secrets in %s:\n", path)
	for _, finding := range findings {
		fmt.Fprintf(&sb, "  line %d: %s (%s)\n", finding.Line, finding.Description, finding.Preview)
	}
	sb.WriteString("Pass credentials through the environment instead, e.g. GITHUB_TOKEN.")

	return sb.String()
}
