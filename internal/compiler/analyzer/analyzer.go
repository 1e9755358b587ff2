// Package analyzer extracts entry-point information from submitted
// Java source and derives the artifact cache fingerprint.
package analyzer

import (
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	appErr "javox/pkg/errors"
)

// MaxSourceBytes is the largest accepted submission size.
const MaxSourceBytes = 500 * 1024

var (
	publicClassPattern = regexp.MustCompile(`(?m)^\s*public\s+class\s+(\w+)\s*\{`)
	anyClassPattern    = regexp.MustCompile(`(?m)^\s*(?:public\s+)?class\s+(\w+)`)
	mainMethodPattern  = regexp.MustCompile(`public\s+static\s+void\s+main\s*\(\s*String\s*\[\s*\]`)
)

// ExtractClassName returns the name of the public class, falling back to
// the first class declaration of any visibility.
func ExtractClassName(source string) (string, bool) {
	if strings.TrimSpace(source) == "" {
		return "", false
	}
	if m := publicClassPattern.FindStringSubmatch(source); m != nil {
		return m[1], true
	}
	if m := anyClassPattern.FindStringSubmatch(source); m != nil {
		return m[1], true
	}
	return "", false
}

// HasMainMethod reports whether the source declares a runnable entry point.
func HasMainMethod(source string) bool {
	return strings.TrimSpace(source) != "" && mainMethodPattern.MatchString(source)
}

// Fingerprint returns a deterministic content hash of the source text,
// used as the artifact cache key.
func Fingerprint(source string) string {
	sum := blake2b.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Validate rejects submissions that must not reach the sandbox.
func Validate(source string) error {
	if strings.TrimSpace(source) == "" {
		return appErr.New(appErr.EmptySource)
	}
	if len(source) > MaxSourceBytes {
		return appErr.Newf(appErr.SourceTooLarge,
			"Source code exceeds maximum size of %dKB", MaxSourceBytes/1024)
	}
	if _, ok := ExtractClassName(source); !ok {
		return appErr.New(appErr.NoClassFound).WithMessage(
			"Error: Could not find a public class in your code.\n" +
				"Please ensure your code contains a public class declaration like 'public class YourClassName {...}'")
	}
	return nil
}
