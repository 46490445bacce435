// utils/valid.go
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var scriptTag = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)

// SanitizeInput strips script tags and control characters from operator text
// before it is forwarded to the Partner API
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = scriptTag.ReplaceAllString(input, "")

	input = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(input)
}

// SanitizeStringArray sanitizes a list and drops empty entries
func SanitizeStringArray(inputs []string) []string {
	sanitized := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if s := SanitizeInput(input); s != "" {
			sanitized = append(sanitized, s)
		}
	}
	return sanitized
}

// SanitizeMap sanitizes all string values in a map
func SanitizeMap(input map[string]string) map[string]string {
	sanitized := make(map[string]string, len(input))
	for k, v := range input {
		sanitized[k] = SanitizeInput(v)
	}
	return sanitized
}
