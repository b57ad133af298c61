// Package privacy scrubs credentials and caller-supplied patterns from text
// before it reaches logs or error messages.
package privacy

import (
	"fmt"
	"regexp"
)

const redactedPlaceholder = "[REDACTED]"

// credentialPatterns match secret values in URLs and headers. Group 1 keeps
// the parameter or header name so the output stays readable.
var credentialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(access_token=)[^&\s"']+`),
	regexp.MustCompile(`(?i)\b((?:api_?key|client_secret)=)[^&\s"']+`),
	regexp.MustCompile(`(?i)\b(x-rapidapi-key:\s*)[^\s"']+`),
	regexp.MustCompile(`(?i)\b(authorization:\s*bearer\s+)[^\s"']+`),
}

// Compile compiles a list of regex pattern strings into compiled regexps.
// Returns an error if any pattern is invalid.
func Compile(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile redact pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Apply replaces all matches of the compiled patterns in text with [REDACTED].
func Apply(text string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		text = re.ReplaceAllString(text, redactedPlaceholder)
	}
	return text
}

// Scrub masks access tokens and API keys embedded in URLs or header dumps.
func Scrub(text string) string {
	for _, re := range credentialPatterns {
		text = re.ReplaceAllString(text, "${1}"+redactedPlaceholder)
	}
	return text
}
