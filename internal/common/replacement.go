// -----------------------------------------------------------------------
// Last Modified: Friday, 17th July 2026 9:24:12 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

// Package common provides utility functions for placeholder replacement.
//
// The {name} syntax allows stored templates (such as the summarization
// prompt) to reference values supplied at runtime.
//
// Example:
//   Input:  "Title: {title}"
//   Values: {"title": "Weekend in Chengdu"}
//   Output: "Title: Weekend in Chengdu"
//
// Replacement is case-sensitive. Missing placeholders are logged as warnings
// but not treated as errors, allowing graceful degradation.
package common

import (
	"regexp"

	"github.com/ternarybob/arbor"
)

// placeholderPattern matches {name} references in strings
// Allows alphanumeric characters, hyphens, and underscores
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// ReplacePlaceholders replaces all {name} references in the input string
// with values from the provided map. If a placeholder is not found, the
// reference is left unchanged and a warning is logged.
//
// Example:
//
//	ReplacePlaceholders("Title: {title}", map[string]string{"title": "Hotpot tour"}, logger)
//	Returns: "Title: Hotpot tour"
func ReplacePlaceholders(input string, values map[string]string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	// Log warnings for unresolved placeholders before replacement
	logUnresolvedPlaceholders(input, values, logger)

	result := placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		// Extract name (remove braces)
		name := match[1 : len(match)-1]

		if value, exists := values[name]; exists {
			return value
		}

		// Placeholder not found - return unchanged
		return match
	})

	return result
}

// logUnresolvedPlaceholders finds all {name} references and logs warnings for missing values
func logUnresolvedPlaceholders(input string, values map[string]string, logger arbor.ILogger) {
	if logger == nil {
		return
	}
	matches := placeholderPattern.FindAllStringSubmatch(input, -1)
	for _, match := range matches {
		if len(match) > 1 {
			name := match[1]
			if _, exists := values[name]; !exists {
				logger.Warn().
					Str("reference", match[0]).
					Str("placeholder", name).
					Msg("Unresolved placeholder - no value provided")
			}
		}
	}
}
