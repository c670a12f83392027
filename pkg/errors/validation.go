package errors

import (
	"strings"
	"unicode"
)

// maxURILength bounds resource identifiers accepted from triple input.
const maxURILength = 2048

// ValidateURI validates a resource URI read from triple input.
//
// The rules are intentionally conservative and are not an RFC 3987 check:
//   - No empty URIs
//   - No control characters or whitespace
//   - No angle brackets or double quotes (N-Triples delimiters)
//   - Must contain a scheme separator (':')
//   - Maximum length of 2048 characters
func ValidateURI(uri string) error {
	if uri == "" {
		return New(ErrCodeInvalidURI, "URI cannot be empty")
	}

	if len(uri) > maxURILength {
		return New(ErrCodeInvalidURI, "URI too long (max %d characters)", maxURILength)
	}

	for _, r := range uri {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidURI, "URI contains whitespace or control characters: %q", uri)
		}
	}

	if strings.ContainsAny(uri, "<>\"") {
		return New(ErrCodeInvalidURI, "URI contains delimiter characters: %q", uri)
	}

	if !strings.Contains(uri, ":") {
		return New(ErrCodeInvalidURI, "URI has no scheme: %q", uri)
	}

	return nil
}

// ValidateSlack validates the slack factor of the labeler.
// T trades label space for fewer relabels and must lie in [1, 2].
func ValidateSlack(t float64) error {
	if t < 1 || t > 2 {
		return New(ErrCodeInvalidInput, "slack factor must be in [1, 2], got %g", t)
	}
	return nil
}
