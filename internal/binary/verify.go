package binary

import (
	"strings"
)

// VerifySHA256 checks data against an expected hex digest. An empty expected
// digest skips the check; the first download is trusted.
func VerifySHA256(name string, data []byte, expected string) error {
	if expected == "" {
		return nil
	}
	actual := HashBytes(data)
	if !strings.EqualFold(actual, expected) {
		return &ChecksumMismatchError{
			File:     name,
			Expected: strings.ToLower(expected),
			Actual:   actual,
		}
	}
	return nil
}
